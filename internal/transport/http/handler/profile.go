package handler

import (
	"net/http"

	"github.com/turo-backend/internal/application/profile"
)

// ProfileHandler serves saveUserProfile.
type ProfileHandler struct {
	svc profile.Service
}

func NewProfileHandler(svc profile.Service) *ProfileHandler { return &ProfileHandler{svc: svc} }

func (h *ProfileHandler) SaveUserProfile(w http.ResponseWriter, r *http.Request) {
	callerID := requireCaller(w, r, "saveUserProfile")
	if callerID == "" {
		return
	}
	var req profile.SaveRequest
	if err := decodeCall(r, &req); err != nil {
		writeCallError(w, "saveUserProfile", err)
		return
	}
	if err := h.svc.Save(r.Context(), callerID, req); err != nil {
		writeCallError(w, "saveUserProfile", err)
		return
	}
	writeResult(w, SuccessEnvelope{Success: true, Message: "Profile saved successfully."})
}
