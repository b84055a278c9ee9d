package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/ukane-philemon/srms/internal/admin"
	"github.com/ukane-philemon/srms/internal/api"
	"github.com/ukane-philemon/srms/internal/auth"
	"github.com/ukane-philemon/srms/internal/config"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultShutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the student records over HTTP",
	Long: `Loads the records and serves them as a JSON API. Changes are saved when
the server shuts down on SIGINT or SIGTERM, or through POST /save.`,
	Args: cobra.NoArgs,
	RunE: runServer,
}

func runServer(cmd *cobra.Command, args []string) error {
	// Ensure graceful shutdown by capturing SIGINT and SIGTERM signals.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	admins, err := newAdminRepository(cfg.Admin)
	if err != nil {
		return err
	}

	authRepo, err := auth.NewRepository([]byte(cfg.Server.JWTSecret), cfg.Server.TokenExpiry)
	if err != nil {
		return fmt.Errorf("auth.NewRepository error: %w", err)
	}

	store, persister, closeFn, err := loadStore(ctx)
	if err != nil {
		return err
	}
	logger.Info("Records loaded", zap.String("backend", cfg.Storage.Backend), zap.Int("records", store.Len()))

	apiCfg := api.Config{
		RateLimit:  cfg.Server.RateLimit,
		RateWindow: cfg.Server.RateWindow,
	}
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: api.NewServer(apiCfg, store, persister, admins, authRepo, logger),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("SRMS has started successfully", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("srv.ListenAndServe error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()

		timeout := cfg.Server.ShutdownTimeout
		if timeout <= 0 {
			timeout = defaultShutdownTimeout
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		var errs []error
		if err := srv.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("srv.Shutdown error: %w", err))
		}
		if err := persister.Save(shutdownCtx, store); err != nil {
			errs = append(errs, fmt.Errorf("save on shutdown error: %w", err))
		} else {
			logger.Info("Records saved", zap.Int("records", store.Len()))
		}
		if err := closeFn(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("close backend error: %w", err))
		}
		return errors.Join(errs...)
	})

	err = g.Wait()
	if err != nil {
		logger.Error("SRMS shutdown error", zap.Error(err))
		return err
	}

	logger.Info("SRMS shutdown successfully")
	return nil
}

// newAdminRepository builds the admin account from a bcrypt hash or, failing
// that, a plain password hashed at startup.
func newAdminRepository(ac config.AdminConfig) (admin.Repository, error) {
	hash := []byte(ac.PasswordHash)
	if len(hash) == 0 {
		if ac.Password == "" {
			return nil, errors.New("admin password is required to serve: set admin.password_hash, admin.password or SRMS_ADMIN_PASSWORD")
		}

		var err error
		hash, err = admin.HashPassword(ac.Password)
		if err != nil {
			return nil, err
		}
	}

	admins, err := admin.NewRepository(ac.Username, hash)
	if err != nil {
		return nil, fmt.Errorf("admin.NewRepository error: %w", err)
	}
	return admins, nil
}
