package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"tracc-api/internal/model"
	"tracc-api/internal/service"
	"tracc-api/pkg/response"
)

// SiloHandler handles silo registry and stock snapshot requests.
type SiloHandler struct {
	silos    *service.SiloService
	outbound *service.OutboundService
}

// NewSiloHandler creates a new silo handler.
func NewSiloHandler(silos *service.SiloService, outbound *service.OutboundService) *SiloHandler {
	return &SiloHandler{silos: silos, outbound: outbound}
}

// List handles GET /api/v1/silos
func (h *SiloHandler) List(w http.ResponseWriter, r *http.Request) {
	snapshots, err := h.silos.GetSilosWithLevels(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	response.OK(w, snapshots)
}

// Create handles POST /api/v1/silos
func (h *SiloHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.Silo
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	silo, err := h.silos.CreateSilo(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	response.Created(w, silo)
}

// Get handles GET /api/v1/silos/{id}. With ?at= the snapshot is projected
// as of that instant instead of now.
func (h *SiloHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	at, err := parseTimeParam(r, "at")
	if err != nil {
		writeError(w, err)
		return
	}

	var snap *model.SiloSnapshot
	if at != nil {
		snap, err = h.silos.GetSnapshotAt(r.Context(), id, *at)
	} else {
		snap, err = h.silos.GetSnapshot(r.Context(), id)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	response.OK(w, snap)
}

// Update handles PUT /api/v1/silos/{id}
func (h *SiloHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch model.SiloPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, err)
		return
	}

	silo, err := h.silos.UpdateSilo(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, err)
		return
	}
	response.OK(w, silo)
}

// Delete handles DELETE /api/v1/silos/{id}
func (h *SiloHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.silos.DeleteSilo(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	response.NoContent(w)
}

// FIFOPreview handles GET /api/v1/silos/{id}/fifo?quantity=
func (h *SiloHandler) FIFOPreview(w http.ResponseWriter, r *http.Request) {
	qty, err := parseDecimalParam(r, "quantity")
	if err != nil {
		writeError(w, err)
		return
	}

	plan, err := h.outbound.CalculateFIFOWithdrawal(r.Context(), chi.URLParam(r, "id"), qty)
	if err != nil {
		writeError(w, err)
		return
	}
	response.OK(w, map[string]interface{}{
		"silo_id":     chi.URLParam(r, "id"),
		"quantity_kg": qty,
		"items":       plan,
	})
}
