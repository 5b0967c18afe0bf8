package http

import (
	"context"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	syncx "github.com/mind-engage/mindengage-qbank/internal/sync"
)

// EventSource is the change feed of the question store.
type EventSource interface {
	Events(ctx context.Context, after int64, limit int) ([]syncx.Event, error)
}

// GET /events?after=0&limit=100
func EventsHandler(src EventSource, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var after int64
		if v := r.URL.Query().Get("after"); v != "" {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil || n < 0 {
				http.Error(w, "bad after", http.StatusBadRequest)
				return
			}
			after = n
		}
		limit := parseIntDefault(r.URL.Query().Get("limit"), 100)
		if limit > 1000 {
			limit = 1000
		}
		events, err := src.Events(r.Context(), after, limit)
		if err != nil {
			internalError(w, log, "read events", err)
			return
		}
		writeJSON(w, http.StatusOK, events)
	}
}
