package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-qbank/internal/question"
	"github.com/mind-engage/mindengage-qbank/internal/storage"
)

const exportPrefix = "exports/"

// MountExports serves question-bank snapshots kept in the blob store.
func MountExports(r chi.Router, store question.Store, bs storage.BlobStore, log *zap.Logger) {
	// POST /exports  -> writes all questions as one JSON array
	r.Post("/", func(w http.ResponseWriter, r *http.Request) {
		list, err := store.List(r.Context(), question.ListOpts{})
		if err != nil {
			internalError(w, log, "list questions", err)
			return
		}
		buf, err := json.MarshalIndent(list, "", "  ")
		if err != nil {
			internalError(w, log, "encode export", err)
			return
		}
		name := fmt.Sprintf("questions-%s.json", time.Now().UTC().Format("20060102T150405.000000000"))
		key, err := bs.Put(exportPrefix+name, bytes.NewReader(buf))
		if err != nil {
			internalError(w, log, "store export", err)
			return
		}
		u, _ := bs.SignedURL(key)
		log.Info("questions exported", zap.String("key", key), zap.Int("count", len(list)))
		writeJSON(w, http.StatusCreated, map[string]any{"key": key, "name": name, "url": u, "count": len(list)})
	})

	// GET /exports/{name}
	r.Get("/{name}", func(w http.ResponseWriter, r *http.Request) {
		rc, err := bs.Get(exportPrefix + chi.URLParam(r, "name"))
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		defer rc.Close()
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.Copy(w, rc)
	})
}
