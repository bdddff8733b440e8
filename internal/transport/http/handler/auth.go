package handler

import (
	"net/http"

	"github.com/turo-backend/internal/application/auth"
)

// AuthHandler serves the passcode sign-in RPCs.
type AuthHandler struct {
	svc auth.Service
}

func NewAuthHandler(svc auth.Service) *AuthHandler { return &AuthHandler{svc: svc} }

func (h *AuthHandler) RequestEmailOTP(w http.ResponseWriter, r *http.Request) {
	var req auth.RequestCodeRequest
	if err := decodeCall(r, &req); err != nil {
		writeCallError(w, "requestEmailOTP", err)
		return
	}
	if err := h.svc.RequestCode(r.Context(), req); err != nil {
		writeCallError(w, "requestEmailOTP", err)
		return
	}
	writeResult(w, SuccessEnvelope{Success: true, Message: "OTP sent successfully."})
}

func (h *AuthHandler) VerifyEmailOTP(w http.ResponseWriter, r *http.Request) {
	var req auth.VerifyCodeRequest
	if err := decodeCall(r, &req); err != nil {
		writeCallError(w, "verifyEmailOTP", err)
		return
	}
	token, err := h.svc.VerifyCode(r.Context(), req)
	if err != nil {
		writeCallError(w, "verifyEmailOTP", err)
		return
	}
	writeResult(w, SuccessEnvelope{Success: true, Token: token})
}

func (h *AuthHandler) RedeemSignInToken(w http.ResponseWriter, r *http.Request) {
	var req auth.RedeemRequest
	if err := decodeCall(r, &req); err != nil {
		writeCallError(w, "redeemSignInToken", err)
		return
	}
	token, err := h.svc.RedeemSignInToken(r.Context(), req)
	if err != nil {
		writeCallError(w, "redeemSignInToken", err)
		return
	}
	writeResult(w, SuccessEnvelope{Success: true, Token: token})
}
