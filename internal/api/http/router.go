package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	auth "github.com/mind-engage/mindengage-qbank/internal/auth/middleware"
	"github.com/mind-engage/mindengage-qbank/internal/editor"
	"github.com/mind-engage/mindengage-qbank/internal/question"
	"github.com/mind-engage/mindengage-qbank/internal/rbac"
	"github.com/mind-engage/mindengage-qbank/internal/storage"
)

type Deps struct {
	Store    question.Store
	Sessions *editor.Registry
	Blobs    storage.BlobStore
	Events   EventSource // nil disables GET /events
	Auth     *auth.AuthService
	Creds    auth.Credentials
	Log      *zap.Logger

	CORSOrigins     []string
	EnableLocalAuth bool
	Ready           func(ctx context.Context) error // nil = always ready
	AccessLog       bool
}

func NewRouter(d Deps) chi.Router {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP)
	if d.AccessLog {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer, middleware.Timeout(30*time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if d.EnableLocalAuth {
		r.Post("/auth/login", auth.LoginHandler(d.Auth, d.Creds))
	}

	// stateless codec
	r.Post("/latex/extract", ExtractHandler())
	r.Post("/latex/reconstruct", ReconstructHandler())

	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(d.Auth))

		pr.Route("/sessions", func(sr chi.Router) {
			sr.Use(rbac.Require("question:author"))
			sr.Post("/", OpenSessionHandler(d.Sessions))
			sr.Get("/{sessionID}", GetSessionHandler(d.Sessions))
			sr.Delete("/{sessionID}", CloseSessionHandler(d.Sessions))
			sr.Put("/{sessionID}/question", SetQuestionHandler(d.Sessions))
			sr.Put("/{sessionID}/segments/{token}", EditSegmentHandler(d.Sessions))
			sr.Put("/{sessionID}/answers/{label}", SetAnswerHandler(d.Sessions))
			sr.Put("/{sessionID}/apply", ApplySessionHandler(d.Sessions))
			sr.Post("/{sessionID}/reset", ResetSessionHandler(d.Sessions))
			sr.With(rbac.Require("question:create")).
				Post("/{sessionID}/submit", SubmitSessionHandler(d.Sessions, d.Store, log))
		})

		pr.With(rbac.RequireAny("question:view", "question:export")).
			Get("/questions", ListQuestionsHandler(d.Store, log))
		pr.With(rbac.Require("question:view")).
			Get("/questions/{questionID}", GetQuestionHandler(d.Store, log))
		pr.With(rbac.Require("question:edit")).
			Put("/questions/{questionID}", UpdateQuestionHandler(d.Store, log))
		pr.With(rbac.Require("question:delete")).
			Delete("/questions/{questionID}", DeleteQuestionHandler(d.Store, log))

		if d.Events != nil {
			pr.With(rbac.Require("events:read")).Get("/events", EventsHandler(d.Events, log))
		}

		if d.Blobs != nil {
			pr.With(rbac.Require("question:export")).Route("/exports", func(er chi.Router) {
				MountExports(er, d.Store, d.Blobs, log)
			})
		}
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if d.Ready != nil {
			if err := d.Ready(r.Context()); err != nil {
				http.Error(w, "not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(200)
	})
	return r
}
