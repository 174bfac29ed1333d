package monitor

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes mounts the read API on r.
func Routes(r chi.Router, data Reader) {
	r.Get("/prices/{coin}", Prices(data))
	r.Get("/signals/{coin}", Signals(data))
	r.Get("/state/{coin}", StateHandler(data))
}

// Prices serves the price history of a coin.
func Prices(data Reader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		points, err := data.Prices(r.Context(), chi.URLParam(r, "coin"))
		respond(w, points, err)
	}
}

// Signals serves the trade signals of a coin.
func Signals(data Reader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		signals, err := data.Signals(r.Context(), chi.URLParam(r, "coin"))
		respond(w, signals, err)
	}
}

// StateHandler serves the trading state of a coin.
func StateHandler(data Reader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := data.State(r.Context(), chi.URLParam(r, "coin"))
		respond(w, st, err)
	}
}

func respond(w http.ResponseWriter, v any, err error) {
	switch {
	case errors.Is(err, ErrNotConfigured):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	case err != nil:
		slog.Error("monitor query", "err", err)
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("monitor encode", "err", err)
	}
}
