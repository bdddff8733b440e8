package handler

import (
	"net/http"

	"github.com/turo-backend/internal/application/maintenance"
)

// BackfillHandler serves the timestamp backfill utility. Key checks and CORS
// are applied by middleware in front of it.
type BackfillHandler struct {
	svc maintenance.Service
}

func NewBackfillHandler(svc maintenance.Service) *BackfillHandler {
	return &BackfillHandler{svc: svc}
}

func (h *BackfillHandler) UserTimestamps(w http.ResponseWriter, r *http.Request) {
	dryRun := r.URL.Query().Get("dryRun") == "true"
	res, err := h.svc.BackfillUserTimestamps(r.Context(), dryRun)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}
