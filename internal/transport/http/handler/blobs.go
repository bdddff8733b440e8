package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/turo-backend/internal/domain"
	s3infra "github.com/turo-backend/internal/infrastructure/s3"
)

type blobOpener interface {
	Open(ctx context.Context, key, tok string) (*s3infra.Object, error)
}

// BlobHandler streams uploaded files to holders of their download token.
type BlobHandler struct {
	store blobOpener
}

func NewBlobHandler(store blobOpener) *BlobHandler { return &BlobHandler{store: store} }

func (h *BlobHandler) Download(w http.ResponseWriter, r *http.Request) {
	key, err := url.PathUnescape(chi.URLParam(r, "*"))
	if err != nil || key == "" {
		writeError(w, http.StatusBadRequest, "invalid object path")
		return
	}
	if r.URL.Query().Get("alt") != "media" {
		writeError(w, http.StatusBadRequest, "unsupported alt")
		return
	}
	obj, err := h.store.Open(r.Context(), key, r.URL.Query().Get("token"))
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "object not found")
		return
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "invalid download token")
		return
	case err != nil:
		slog.Error("open blob", "key", key, "err", err)
		writeError(w, http.StatusInternalServerError, "download failed")
		return
	}
	defer obj.Body.Close()

	if obj.ContentType != "" {
		w.Header().Set("Content-Type", obj.ContentType)
	}
	if obj.ContentLength > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(obj.ContentLength, 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, obj.Body); err != nil {
		slog.Warn("stream blob", "key", key, "err", err)
	}
}
