// Package bootstrap is the composition root: construction and wiring live
// here so module code stays framework-agnostic.
package bootstrap

import (
	"context"
	"log/slog"
	"strings"

	votingorchestrator "votegate/contexts/voter-experience/voting-orchestrator"
	apiadapter "votegate/contexts/voter-experience/voting-orchestrator/adapters/api"
	cameraadapter "votegate/contexts/voter-experience/voting-orchestrator/adapters/camera"
	"votegate/internal/platform/apiclient"
	"votegate/internal/platform/config"
	"votegate/internal/platform/httpserver"
	"votegate/internal/platform/messaging"
)

type PortalApp struct {
	server     *httpserver.Server
	module     votingorchestrator.Module
	cfg        config.Config
	logger     *slog.Logger
	pollerStop func()
}

func BuildPortal() (*PortalApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "portal")

	tokens := apiclient.NewTokenSource(apiclient.Credentials{
		AccessToken:  cfg.UpstreamAccessToken,
		RefreshToken: cfg.UpstreamRefreshToken,
	}, cfg.TokenRefreshLeeway)
	client := apiclient.NewClient(cfg.UpstreamBaseURL, tokens, cfg.UpstreamTimeout, logger)
	voting := apiadapter.NewVotingClient(client, logger)

	cameras, err := cameraadapter.NewProvider(cfg.CameraCaptureCmd, logger)
	if err != nil {
		return nil, err
	}

	bus := messaging.NewBus(logger)
	module := votingorchestrator.NewModule(votingorchestrator.Dependencies{
		API:          voting,
		Cameras:      cameras,
		Bus:          bus,
		Clock:        apiadapter.SystemClock{},
		IDGen:        apiadapter.UUIDGenerator{},
		MaxAttempts:  cfg.VerificationMaxAttempts,
		PollInterval: cfg.ResultsPollInterval,
		Logger:       logger,
	})

	server := httpserver.New(module, bus, logger, normalizeAddr(cfg.HTTPPort))
	return &PortalApp{
		server: server,
		module: module,
		cfg:    cfg,
		logger: logger,
	}, nil
}

func (a *PortalApp) Run(ctx context.Context) error {
	if a.cfg.EnableResultsAutostart && strings.TrimSpace(a.cfg.DefaultElectionID) != "" {
		pollerCtx, cancel := context.WithCancel(ctx)
		a.pollerStop = cancel
		if err := a.module.Poller.Start(pollerCtx, a.cfg.DefaultElectionID); err != nil {
			cancel()
			return err
		}
	}

	a.logger.Info("portal app started",
		"event", "bootstrap_portal_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"results_autostart", a.cfg.EnableResultsAutostart,
	)
	return a.server.Start()
}

func (a *PortalApp) Close() error {
	a.module.Verification.Teardown()
	a.module.Poller.Stop()
	if a.pollerStop != nil {
		a.pollerStop()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
