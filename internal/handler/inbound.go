package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"tracc-api/internal/model"
	"tracc-api/internal/service"
	"tracc-api/pkg/response"
)

// InboundHandler handles receipt requests.
type InboundHandler struct {
	inbound *service.InboundService
}

// NewInboundHandler creates a new inbound handler.
func NewInboundHandler(inbound *service.InboundService) *InboundHandler {
	return &InboundHandler{inbound: inbound}
}

// List handles GET /api/v1/inbound
func (h *InboundHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parseLedgerFilter(r)
	if err != nil {
		writeError(w, err)
		return
	}

	records, err := h.inbound.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	response.OK(w, records)
}

// Create handles POST /api/v1/inbound. ID and created_at are assigned by
// the server.
func (h *InboundHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.InboundRecord
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	rec, err := h.inbound.Create(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	response.Created(w, rec)
}

// Update handles PUT /api/v1/inbound/{id}
func (h *InboundHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch model.InboundPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, err)
		return
	}

	rec, err := h.inbound.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, err)
		return
	}
	response.OK(w, rec)
}

// Delete handles DELETE /api/v1/inbound/{id}
func (h *InboundHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.inbound.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	response.NoContent(w)
}
