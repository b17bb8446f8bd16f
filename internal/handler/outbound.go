package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"tracc-api/internal/model"
	"tracc-api/internal/service"
	"tracc-api/pkg/response"
)

// BatchRequest is the body of a blend withdrawal.
type BatchRequest struct {
	OperatorName string               `json:"operator_name"`
	Selections   []model.LotSelection `json:"selections"`
}

// OutboundHandler handles withdrawal requests.
type OutboundHandler struct {
	outbound *service.OutboundService
	batch    *service.BatchService
}

// NewOutboundHandler creates a new outbound handler.
func NewOutboundHandler(outbound *service.OutboundService, batch *service.BatchService) *OutboundHandler {
	return &OutboundHandler{outbound: outbound, batch: batch}
}

// List handles GET /api/v1/outbound
func (h *OutboundHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parseLedgerFilter(r)
	if err != nil {
		writeError(w, err)
		return
	}

	records, err := h.outbound.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	response.OK(w, records)
}

// Create handles POST /api/v1/outbound
func (h *OutboundHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.CreateOutboundRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	rec, err := h.outbound.Create(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	response.Created(w, rec)
}

// Batch handles POST /api/v1/outbound/batch
func (h *OutboundHandler) Batch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.batch.Withdraw(r.Context(), req.OperatorName, req.Selections)
	if err != nil {
		writeError(w, err)
		return
	}
	response.Created(w, result)
}

// Update handles PUT /api/v1/outbound/{id}
func (h *OutboundHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch model.OutboundPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, err)
		return
	}

	rec, err := h.outbound.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, err)
		return
	}
	response.OK(w, rec)
}

// Delete handles DELETE /api/v1/outbound/{id}
func (h *OutboundHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.outbound.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	response.NoContent(w)
}
