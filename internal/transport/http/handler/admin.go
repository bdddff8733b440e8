package handler

import (
	"net/http"

	"github.com/turo-backend/internal/application/admin"
)

// AdminHandler serves the admin-only account RPCs.
type AdminHandler struct {
	svc admin.Service
}

func NewAdminHandler(svc admin.Service) *AdminHandler { return &AdminHandler{svc: svc} }

func (h *AdminHandler) ToggleUserBan(w http.ResponseWriter, r *http.Request) {
	callerID := requireCaller(w, r, "toggleUserBan")
	if callerID == "" {
		return
	}
	var req admin.ToggleBanRequest
	if err := decodeCall(r, &req); err != nil {
		writeCallError(w, "toggleUserBan", err)
		return
	}
	msg, err := h.svc.ToggleBan(r.Context(), callerID, req)
	if err != nil {
		writeCallError(w, "toggleUserBan", err)
		return
	}
	writeResult(w, SuccessEnvelope{Success: true, Message: msg})
}

func (h *AdminHandler) DeleteUserAccount(w http.ResponseWriter, r *http.Request) {
	callerID := requireCaller(w, r, "deleteUserAccount")
	if callerID == "" {
		return
	}
	var req admin.DeleteAccountRequest
	if err := decodeCall(r, &req); err != nil {
		writeCallError(w, "deleteUserAccount", err)
		return
	}
	if err := h.svc.DeleteAccount(r.Context(), callerID, req); err != nil {
		writeCallError(w, "deleteUserAccount", err)
		return
	}
	writeResult(w, SuccessEnvelope{Success: true, Message: "User deleted successfully."})
}
