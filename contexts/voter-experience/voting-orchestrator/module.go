package votingorchestrator

import (
	"log/slog"
	"time"

	httpadapter "votegate/contexts/voter-experience/voting-orchestrator/adapters/http"
	"votegate/contexts/voter-experience/voting-orchestrator/adapters/memory"
	"votegate/contexts/voter-experience/voting-orchestrator/application/commands"
	"votegate/contexts/voter-experience/voting-orchestrator/application/queries"
	"votegate/contexts/voter-experience/voting-orchestrator/application/workers"
	"votegate/contexts/voter-experience/voting-orchestrator/ports"
)

type Module struct {
	Handler      httpadapter.Handler
	Sessions     *commands.SessionController
	Verification *commands.VerificationCoordinator
	Votes        *commands.VoteCaster
	Poller       *workers.ResultsPoller
	Store        *memory.Store
	Cameras      *memory.CameraProvider
}

type Dependencies struct {
	API          ports.VotingAPI
	Cameras      ports.CameraProvider
	Bus          ports.ResultsPublisher
	Clock        ports.Clock
	IDGen        ports.IDGenerator
	MaxAttempts  int
	PollInterval time.Duration
	Logger       *slog.Logger
}

func NewModule(deps Dependencies) Module {
	sessions := commands.NewSessionController(deps.API, deps.Clock, deps.Logger)
	verification := commands.NewVerificationCoordinator(
		sessions,
		deps.API,
		deps.Cameras,
		deps.MaxAttempts,
		deps.Logger,
	)
	votes := commands.NewVoteCaster(sessions, deps.API, deps.IDGen, deps.Clock, deps.Logger)
	poller := workers.NewResultsPoller(
		deps.API,
		queries.ResultsUseCase{},
		deps.Bus,
		deps.Clock,
		deps.PollInterval,
		deps.Logger,
	)
	return Module{
		Handler: httpadapter.Handler{
			Sessions:     sessions,
			Verification: verification,
			Votes:        votes,
			Poller:       poller,
			Logger:       deps.Logger,
		},
		Sessions:     sessions,
		Verification: verification,
		Votes:        votes,
		Poller:       poller,
	}
}

func NewInMemoryModule(bus ports.ResultsPublisher, logger *slog.Logger) Module {
	store := memory.NewStore()
	cameras := memory.NewCameraProvider()
	module := NewModule(Dependencies{
		API:          store,
		Cameras:      cameras,
		Bus:          bus,
		Clock:        store,
		IDGen:        store,
		MaxAttempts:  3,
		PollInterval: 10 * time.Second,
		Logger:       logger,
	})
	module.Store = store
	module.Cameras = cameras
	return module
}
