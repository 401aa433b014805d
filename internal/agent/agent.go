package agent

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/mwantia/fabric/pkg/container"

	"github.com/mwantia/updater/internal/cache"
	config "github.com/mwantia/updater/internal/config/server"
	"github.com/mwantia/updater/internal/gerrit"
	"github.com/mwantia/updater/internal/metrics"
	"github.com/mwantia/updater/internal/server"
	"github.com/mwantia/updater/internal/updater"
	"github.com/mwantia/updater/pkg/db/store"
	"github.com/mwantia/updater/pkg/log"
)

type UpdaterAgent struct {
	mutex sync.RWMutex
	wait  sync.WaitGroup

	cfg *config.BaseServerConfig
	sc  *container.ServiceContainer
	log log.LoggerService

	server *server.Server
}

func NewAgent(cfg *config.BaseServerConfig) *UpdaterAgent {
	return &UpdaterAgent{
		cfg: cfg,
		sc:  container.NewServiceContainer(),
		log: log.NewLoggerService("updater", cfg.Log),
	}
}

func (ua *UpdaterAgent) setupServices(ctx context.Context) error {
	ua.sc.AddTagProcessor(log.NewLoggerTagProcessor())

	s, err := store.Open(ctx, ua.cfg.Metadata)
	if err != nil {
		return err
	}

	errs := container.Errors{}

	ua.log.Debug("Registering 'LoggerService'...")
	errs.Add(container.Register[log.LoggerServiceImpl](ua.sc,
		container.With[log.LoggerService](),
		container.WithInstance(ua.log)))

	ua.log.Debug("Registering 'MetadataStore' (%s)...", ua.cfg.Metadata.Type)
	errs.Add(container.Register[store.MetadataStore](ua.sc,
		container.AsSingleton(),
		container.WithInstance(s)))

	ua.log.Debug("Registering 'Metrics'...")
	errs.Add(container.Register[*metrics.Metrics](ua.sc,
		container.AsSingleton(),
		container.WithInstance(metrics.New())))

	ua.log.Debug("Registering 'Cache'...")
	errs.Add(container.Register[cache.Cache](ua.sc,
		container.AsSingleton(),
		container.WithInstance(cache.New(ua.cfg.Cache.Size, ua.cfg.Cache.Duration()))))

	ua.log.Debug("Registering 'ChangeSource'...")
	errs.Add(container.Register[*gerrit.Client](ua.sc,
		container.With[updater.ChangeSource](),
		container.AsSingleton(),
		container.WithInstance(gerrit.NewClient(ua.cfg.Gerrit.URL, ua.cfg.Gerrit.Duration(), ua.cfg.Gerrit.Limit))))

	ua.log.Debug("Registering 'Service'...")
	errs.Add(container.Register[*updater.Options](ua.sc))
	errs.Add(container.Register[*updater.Service](ua.sc,
		container.AsSingleton(),
		container.AsFactory(ua.newService)))

	ua.log.Debug("Registering 'Server'...")
	errs.Add(container.Register[*server.Options](ua.sc))
	errs.Add(container.Register[*server.Server](ua.sc,
		container.AsSingleton(),
		container.AsFactory(ua.newServer)))

	if err := errs.Errors(); err != nil {
		s.Close()
		return err
	}

	// Resolving the store runs its schema migration and hands it to the
	// container for cleanup.
	if _, err := container.Resolve[store.MetadataStore](ctx, ua.sc); err != nil {
		s.Close()
		return fmt.Errorf("failed to initialize metadata store: %w", err)
	}
	if _, err := container.Resolve[*updater.Service](ctx, ua.sc); err != nil {
		return err
	}

	srv, err := container.Resolve[*server.Server](ctx, ua.sc)
	if err != nil {
		return err
	}
	ua.server = srv

	return nil
}

func (ua *UpdaterAgent) newService(ctx context.Context, sc *container.ServiceContainer) (any, error) {
	opts, err := container.Resolve[*updater.Options](ctx, sc)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve service options: %w", err)
	}

	opts.SyncWindow = time.Duration(ua.cfg.Build.SyncTime) * time.Second
	opts.BaseURL = ua.cfg.Build.BaseURL
	opts.StatusURL = ua.cfg.StatusURL
	opts.UpstreamTimeout = ua.cfg.Gerrit.Duration()

	return updater.NewService(*opts), nil
}

func (ua *UpdaterAgent) newServer(ctx context.Context, sc *container.ServiceContainer) (any, error) {
	opts, err := container.Resolve[*server.Options](ctx, sc)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve server options: %w", err)
	}

	opts.Compress = ua.cfg.HTTP.Compress

	return server.New(*opts), nil
}

func (ua *UpdaterAgent) Serve(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	ua.mutex.Lock()

	if err := ua.setupServices(ctx); err != nil {
		ua.mutex.Unlock()
		if cerr := ua.sc.Cleanup(context.Background()); cerr != nil {
			ua.log.Error("Cleanup after failed setup: %v", cerr)
		}
		return err
	}

	listenErr := make(chan error, 1)
	ua.wait.Add(1)
	go func() {
		defer ua.wait.Done()
		if err := ua.server.Listen(ua.cfg.HTTP.Address); err != nil {
			listenErr <- err
			cancel()
		}
	}()

	ua.mutex.Unlock()
	<-ctx.Done()

	timeout, err := time.ParseDuration(ua.cfg.ShutdownTimeout)
	if err != nil {
		// Set default of 60 seconds if error
		timeout = 60 * time.Second
	}

	shutdown, cancelShutdown := context.WithTimeout(context.Background(), timeout)
	defer cancelShutdown()

	ua.log.Info("Shutting down...")
	// Stops the HTTP server first, then closes the metadata store.
	if err := ua.sc.Cleanup(shutdown); err != nil {
		return fmt.Errorf("failed to complete service container cleanup: %w", err)
	}

	ua.wait.Wait()

	select {
	case err := <-listenErr:
		return fmt.Errorf("http server stopped: %w", err)
	default:
	}
	return nil
}
