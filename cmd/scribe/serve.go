package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/scribe/internal/api"
	"github.com/JaimeStill/scribe/internal/config"
	"github.com/JaimeStill/scribe/internal/infrastructure"
	"github.com/JaimeStill/scribe/internal/pipeline"
	"github.com/JaimeStill/scribe/pkg/module"
)

func serveCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the API and run the pipeline on a schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}

			srv, err := NewServer(cfg)
			if err != nil {
				return err
			}
			if err := srv.Start(); err != nil {
				return err
			}

			<-cmd.Context().Done()

			return srv.Shutdown(cfg.ShutdownTimeoutDuration())
		},
	}
}

// Server owns the infrastructure, the HTTP listener and the run schedule.
type Server struct {
	cfg    *config.Config
	infra  *infrastructure.Infrastructure
	domain *api.Domain
	http   *httpServer
}

// NewServer builds every subsystem without starting any of them.
func NewServer(cfg *config.Config) (*Server, error) {
	infra, err := infrastructure.New(cfg)
	if err != nil {
		return nil, err
	}

	apiModule, domain := api.NewModule(cfg, infra)

	router := buildRouter(infra)
	router.Mount(apiModule)

	infra.Logger.Info(
		"server initialized",
		"addr", cfg.Server.Addr(),
		"version", cfg.Version,
		"env", cfg.Env(),
		"tenant", cfg.Tenant.ID,
	)

	return &Server{
		cfg:    cfg,
		infra:  infra,
		domain: domain,
		http:   newHTTPServer(&cfg.Server, router, infra.Logger),
	}, nil
}

// Start registers lifecycle hooks, starts listening, and schedules runs.
func (s *Server) Start() error {
	s.infra.Logger.Info("starting service")

	if err := s.infra.Start(); err != nil {
		return err
	}
	if err := s.http.Start(s.infra.Lifecycle); err != nil {
		return err
	}

	if interval := s.cfg.Pipeline.ScheduleInterval(); interval > 0 {
		s.infra.Lifecycle.Every(interval, s.scheduledRun)
		s.infra.Logger.Info("pipeline scheduled", "interval", interval)
	}

	go func() {
		s.infra.Lifecycle.WaitForStartup()
		s.infra.Logger.Info("all subsystems ready")
	}()

	return nil
}

// Shutdown cancels the root context and waits for hooks to finish.
func (s *Server) Shutdown(timeout time.Duration) error {
	s.infra.Logger.Info("initiating shutdown")
	return s.infra.Lifecycle.Shutdown(timeout)
}

func (s *Server) scheduledRun(ctx context.Context) {
	logger := s.infra.Logger.With("trigger", "schedule")

	res, err := s.domain.Runner.RunAll(ctx)
	switch {
	case errors.Is(err, pipeline.ErrRunInProgress):
		logger.Info("scheduled run skipped, another run holds the lease")
	case err != nil:
		logger.Error("scheduled run failed", "error", err)
	default:
		logger.Info("scheduled run finished",
			"streams", res.Streams,
			"batches", res.Batches,
			"completed", res.Completed,
			"proposals", res.Proposals,
		)
	}
}

func buildRouter(infra *infrastructure.Infrastructure) *module.Router {
	router := module.NewRouter()

	router.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "ok")
	})

	router.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if !infra.Lifecycle.Ready() || !infra.Database.Ready() {
			writeStatus(w, http.StatusServiceUnavailable, "not ready")
			return
		}
		writeStatus(w, http.StatusOK, "ready")
	})

	router.Handle("GET /metrics", infra.Metrics.Handler())

	return router
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"status": status})
}
