package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-qbank/internal/question"
	"github.com/mind-engage/mindengage-qbank/internal/rbac"
)

// GET /questions?limit=50&offset=0
func ListQuestionsHandler(store question.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := store.List(r.Context(), question.ListOpts{
			Limit:  parseIntDefault(r.URL.Query().Get("limit"), 50),
			Offset: parseIntDefault(r.URL.Query().Get("offset"), 0),
		})
		if err != nil {
			internalError(w, log, "list questions", err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func questionID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "questionID"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "bad question id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// GET /questions/{questionID}
func GetQuestionHandler(store question.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := questionID(w, r)
		if !ok {
			return
		}
		q, err := store.Get(r.Context(), id)
		if errors.Is(err, question.ErrNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		if err != nil {
			internalError(w, log, "get question", err)
			return
		}
		writeJSON(w, http.StatusOK, q)
	}
}

// PUT /questions/{questionID}  { "Question": "...", "A": "...", ... }
func UpdateQuestionHandler(store question.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := questionID(w, r)
		if !ok {
			return
		}
		var q question.Question
		if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		q.ID = id
		if err := question.Validate(q); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		q, err := store.Update(r.Context(), q)
		if errors.Is(err, question.ErrNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		if err != nil {
			internalError(w, log, "update question", err)
			return
		}
		log.Info("question updated",
			zap.Int64("id", id),
			zap.String("by", rbac.SubjectFromContext(r.Context())))
		writeJSON(w, http.StatusOK, q)
	}
}

// DELETE /questions/{questionID}
func DeleteQuestionHandler(store question.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := questionID(w, r)
		if !ok {
			return
		}
		err := store.Delete(r.Context(), id)
		if errors.Is(err, question.ErrNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		if err != nil {
			internalError(w, log, "delete question", err)
			return
		}
		log.Info("question deleted", zap.Int64("id", id))
		w.WriteHeader(http.StatusNoContent)
	}
}
