package http

import (
	"encoding/json"
	"net/http"

	"github.com/mind-engage/mindengage-qbank/internal/latex"
)

// POST /latex/extract  { "text": "..." }
func ExtractHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		ex := latex.Extract(req.Text)
		if ex.Segments == nil {
			ex.Segments = []latex.Segment{}
		}
		writeJSON(w, http.StatusOK, ex)
	}
}

// POST /latex/reconstruct  { "modified": "...", "map": {...} | [...], "legacy": false }
func ReconstructHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Modified string               `json:"modified"`
			Map      latex.PlaceholderMap `json:"map"`
			Legacy   bool                 `json:"legacy"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		final := latex.Reconstruct(req.Modified, req.Map)
		if req.Legacy {
			final = latex.LegacyReconstruct(req.Modified, req.Map)
		}
		writeJSON(w, http.StatusOK, map[string]string{"final": final})
	}
}
