package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// internalError logs the cause and answers 500 without leaking it.
func internalError(w http.ResponseWriter, log *zap.Logger, msg string, err error) {
	log.Error(msg, zap.Error(err))
	http.Error(w, msg+" failed", http.StatusInternalServerError)
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil && v >= 0 {
		return v
	}
	return def
}
