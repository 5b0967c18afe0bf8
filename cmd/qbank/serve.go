package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	api "github.com/mind-engage/mindengage-qbank/internal/api/http"
	auth "github.com/mind-engage/mindengage-qbank/internal/auth/middleware"
	"github.com/mind-engage/mindengage-qbank/internal/config"
	"github.com/mind-engage/mindengage-qbank/internal/db"
	"github.com/mind-engage/mindengage-qbank/internal/editor"
	"github.com/mind-engage/mindengage-qbank/internal/question"
	"github.com/mind-engage/mindengage-qbank/internal/storage"
	syncx "github.com/mind-engage/mindengage-qbank/internal/sync"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	var cfg config.Config
	var err error
	if configPath == "" {
		cfg, err = config.FromEnv()
	} else {
		cfg, err = config.Load(configPath)
	}
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Store ---
	store, dbh, err := openStore(ctx, cfg)
	if err != nil {
		logger.Error("store init failed", zap.String("driver", cfg.DBDriver), zap.Error(err))
		return err
	}
	if dbh != nil {
		defer dbh.Close()
	}

	bs, err := storage.NewFSStore(cfg.BlobBasePath)
	if err != nil {
		return err
	}

	sessions := editor.NewRegistry(cfg.SessionTTL, logger.Named("sessions"))
	defer sessions.Close()

	var ready func(context.Context) error
	if dbh != nil {
		ready = dbh.PingContext
	}

	var events api.EventSource
	if src, ok := store.(api.EventSource); ok {
		events = src
	}

	r := api.NewRouter(api.Deps{
		Store:    store,
		Events:   events,
		Sessions: sessions,
		Blobs:    bs,
		Auth:     auth.NewAuthService(cfg.AuthHMACSecret),
		Creds: auth.Credentials{
			AdminUser:     cfg.AdminUser,
			AdminPassHash: cfg.AdminPassHash,
			DevLogin:      cfg.Mode == config.ModeOffline,
		},
		Log:             logger.Named("api"),
		CORSOrigins:     cfg.CORSOrigins(),
		EnableLocalAuth: cfg.EnableLocalAuth,
		Ready:           ready,
		AccessLog:       true,
	})

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	logger.Info("listening",
		zap.String("addr", cfg.HTTPAddr),
		zap.String("mode", string(cfg.Mode)),
		zap.String("db", cfg.DBDriver))

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, cfg config.Config) (question.Store, *sql.DB, error) {
	if cfg.DBDriver == "memory" {
		logger.Warn("using in-memory store; questions are lost on exit")
		return question.NewInMemoryStore(), nil, nil
	}
	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	dbh, err := db.Open(openCtx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		return nil, nil, err
	}
	return question.NewSQLStore(dbh, syncx.NewEventRepo(cfg.SiteID)), dbh, nil
}
