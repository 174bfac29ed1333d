package platform

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"configdesk/internal/remote"
	"configdesk/internal/tree"
)

// maxDocumentBytes bounds a posted document.
const maxDocumentBytes = 8 << 20

// Documents is the document service behind /api/config.
type Documents interface {
	Get(ctx context.Context) (*tree.Tree, error)
	Replace(ctx context.Context, data []byte, source, correlationID string) (*tree.Tree, error)
}

// Health returns 200 OK.
func Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// GetConfig serves the stored document with its key order.
func GetConfig(docs Documents) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := docs.Get(r.Context())
		countDocumentOp("load", err)
		if err != nil {
			slog.Error("GetConfig", "err", err)
			http.Error(w, "failed to load configuration", http.StatusInternalServerError)
			return
		}
		out, err := tree.EncodeIndent(t)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(out)
	}
}

// PostConfig replaces the stored document with the request body.
func PostConfig(docs Documents) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxDocumentBytes))
		if err != nil {
			http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
			return
		}

		source := r.Header.Get(remote.HeaderSource)
		if source == "" {
			source = "http"
		}
		correlation := r.Header.Get(remote.HeaderCorrelation)
		if correlation == "" {
			correlation = middleware.GetReqID(r.Context())
		}

		_, err = docs.Replace(r.Context(), body, source, correlation)
		countDocumentOp("replace", err)
		switch {
		case errors.Is(err, tree.ErrInvalidName),
			errors.Is(err, tree.ErrUnsupportedValue),
			errors.Is(err, tree.ErrNotObject),
			errors.Is(err, tree.ErrMalformedJSON):
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		case err != nil:
			slog.Error("PostConfig", "err", err)
			http.Error(w, "failed to store configuration", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}
