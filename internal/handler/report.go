package handler

import (
	"net/http"
	"time"

	"tracc-api/internal/service"
	"tracc-api/pkg/response"
)

// ReportHandler serves stock reports.
type ReportHandler struct {
	reports   *service.ReportService
	scheduler *service.ReportScheduler
}

// NewReportHandler creates a new report handler. scheduler may be nil.
func NewReportHandler(reports *service.ReportService, scheduler *service.ReportScheduler) *ReportHandler {
	return &ReportHandler{reports: reports, scheduler: scheduler}
}

// Stock handles GET /api/v1/reports/stock?at=
func (h *ReportHandler) Stock(w http.ResponseWriter, r *http.Request) {
	at, err := parseTimeParam(r, "at")
	if err != nil {
		writeError(w, err)
		return
	}

	var asOf time.Time
	if at != nil {
		asOf = *at
	}
	report, err := h.reports.Generate(r.Context(), asOf)
	if err != nil {
		writeError(w, err)
		return
	}
	response.OK(w, report)
}

// List handles GET /api/v1/reports?page=&limit=
func (h *ReportHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := parseIntParam(r, "page", 1)
	if err != nil {
		writeError(w, err)
		return
	}
	limit, err := parseIntParam(r, "limit", 20)
	if err != nil {
		writeError(w, err)
		return
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	reports, total, err := h.reports.List(r.Context(), limit, (page-1)*limit)
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSONWithMeta(w, http.StatusOK, reports, page, limit, total)
}

// Run handles POST /api/v1/reports/run, archiving a report immediately.
func (h *ReportHandler) Run(w http.ResponseWriter, r *http.Request) {
	run := h.reports.GenerateAndArchive
	if h.scheduler != nil {
		run = h.scheduler.RunNow
	}

	report, err := run(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	response.Created(w, report)
}
