package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-qbank/internal/editor"
	"github.com/mind-engage/mindengage-qbank/internal/question"
	"github.com/mind-engage/mindengage-qbank/internal/rbac"
)

type textBody struct {
	Text string `json:"text"`
}

func decodeText(w http.ResponseWriter, r *http.Request) (string, bool) {
	var b textBody
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return "", false
	}
	return b.Text, true
}

// sessionFrom resolves the session in the path. Sessions opened by someone
// else answer 404 like unknown ones.
func sessionFrom(w http.ResponseWriter, r *http.Request, reg *editor.Registry) (*editor.Session, bool) {
	s, err := reg.GetOwned(chi.URLParam(r, "sessionID"), rbac.SubjectFromContext(r.Context()))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return nil, false
	}
	return s, true
}

// POST /sessions
func OpenSessionHandler(reg *editor.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := reg.New(rbac.SubjectFromContext(r.Context()))
		writeJSON(w, http.StatusCreated, s.View())
	}
}

// GET /sessions/{sessionID}
func GetSessionHandler(reg *editor.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s, ok := sessionFrom(w, r, reg); ok {
			writeJSON(w, http.StatusOK, s.View())
		}
	}
}

// DELETE /sessions/{sessionID}
func CloseSessionHandler(reg *editor.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := sessionFrom(w, r, reg)
		if !ok {
			return
		}
		if err := reg.Delete(s.ID); err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// PUT /sessions/{sessionID}/question  { "text": "..." }
func SetQuestionHandler(reg *editor.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := sessionFrom(w, r, reg)
		if !ok {
			return
		}
		text, ok := decodeText(w, r)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, s.SetQuestion(text))
	}
}

// PUT /sessions/{sessionID}/segments/{token}  { "text": "..." }
func EditSegmentHandler(reg *editor.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := sessionFrom(w, r, reg)
		if !ok {
			return
		}
		text, ok := decodeText(w, r)
		if !ok {
			return
		}
		v, err := s.EditSegment(chi.URLParam(r, "token"), text)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

// PUT /sessions/{sessionID}/answers/{label}  { "text": "..." }
func SetAnswerHandler(reg *editor.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := sessionFrom(w, r, reg)
		if !ok {
			return
		}
		text, ok := decodeText(w, r)
		if !ok {
			return
		}
		v, err := s.SetAnswer(chi.URLParam(r, "label"), text)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

// PUT /sessions/{sessionID}/apply
func ApplySessionHandler(reg *editor.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s, ok := sessionFrom(w, r, reg); ok {
			writeJSON(w, http.StatusOK, s.Apply())
		}
	}
}

// POST /sessions/{sessionID}/reset
func ResetSessionHandler(reg *editor.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s, ok := sessionFrom(w, r, reg); ok {
			writeJSON(w, http.StatusOK, s.Reset())
		}
	}
}

// POST /sessions/{sessionID}/submit
func SubmitSessionHandler(reg *editor.Registry, store question.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := sessionFrom(w, r, reg)
		if !ok {
			return
		}
		q, err := s.Submit(r.Context(), store)
		switch {
		case question.IsValidation(err):
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		case err != nil && r.Context().Err() != nil:
			http.Error(w, "request cancelled", http.StatusServiceUnavailable)
			return
		case err != nil:
			internalError(w, log, "save question", err)
			return
		}
		log.Info("question saved",
			zap.Int64("id", q.ID),
			zap.String("session", s.ID),
			zap.String("by", rbac.SubjectFromContext(r.Context())))
		writeJSON(w, http.StatusCreated, q)
	}
}
