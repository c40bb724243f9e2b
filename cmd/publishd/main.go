package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-middleware/providers/prometheus"
	"github.com/nais/liberator/pkg/conftools"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/keepalive"

	auth_interceptor "github.com/nais/publish/pkg/grpc/interceptor/auth"
	"github.com/nais/publish/pkg/grpc/statusserver"
	"github.com/nais/publish/pkg/logging"
	"github.com/nais/publish/pkg/publishd/api"
	"github.com/nais/publish/pkg/publishd/broker"
	"github.com/nais/publish/pkg/publishd/config"
	"github.com/nais/publish/pkg/publishd/database"
	"github.com/nais/publish/pkg/publishd/github"
	"github.com/nais/publish/pkg/publishd/identity"
	"github.com/nais/publish/pkg/publishd/lifecycle"
	"github.com/nais/publish/pkg/publishd/logproxy"
	"github.com/nais/publish/pkg/publishd/orchestrator"
	"github.com/nais/publish/pkg/publishd/platform"
	"github.com/nais/publish/pkg/publishd/storage"
	"github.com/nais/publish/pkg/telemetry"
	"github.com/nais/publish/pkg/version"
)

const (
	databaseConnectBackoffInterval = 3 * time.Second
	serviceName                    = "publishd"
)

func run() error {
	startup := time.Now()

	cfg := config.Initialize()
	err := conftools.Load(cfg)
	if err != nil {
		return err
	}

	if err := logging.Setup(cfg.LogLevel, cfg.LogFormat); err != nil {
		return err
	}

	// Welcome
	log.Infof("%s %s", serviceName, version.Version())
	ts, err := version.BuildTime()
	if err == nil {
		log.Infof("This version was built %s", ts.Local())
	}

	for _, line := range conftools.Format(config.Secrets) {
		log.Info(line)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if len(cfg.Telemetry.OTLPEndpoint) > 0 {
		tracerProvider, err := telemetry.New(ctx, serviceName, cfg.Telemetry.OTLPEndpoint)
		if err != nil {
			return fmt.Errorf("set up tracing: %w", err)
		}
		defer tracerProvider.Shutdown(context.Background())
		log.Infof("Sending traces to %s", cfg.Telemetry.OTLPEndpoint)
	}

	store, closeStore, err := setupStore(*cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	authenticator, err := setupAuthenticator(ctx, cfg.Auth)
	if err != nil {
		return err
	}

	platforms, err := platform.LoadConfig(cfg.PlatformsFile)
	if err != nil {
		return err
	}
	publishers, err := platform.NewRegistry(platforms)
	if err != nil {
		return fmt.Errorf("set up platforms: %w", err)
	}

	var artifacts storage.ArtifactStore
	storageConfig := storage.Config{
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Bucket:    cfg.Storage.Bucket,
		Location:  cfg.Storage.Location,
		UseTLS:    cfg.Storage.UseTLS,
		PublicURL: cfg.Storage.PublicURL,
	}
	if storageConfig.Enabled() {
		artifacts, err = storage.NewS3Storage(storageConfig)
		if err != nil {
			return fmt.Errorf("set up artifact storage: %w", err)
		}
	} else {
		log.Warnf("Artifact storage is not configured; file uploads will be refused")
	}

	var repositories github.RepositoryChecker
	if cfg.Github.Enabled {
		client, err := github.NewClient(ctx, cfg.Github.APIURL, cfg.Github.Token)
		if err != nil {
			return fmt.Errorf("set up github client: %w", err)
		}
		repositories = github.New(client, cfg.Github.Host)
		log.Infof("Repository URLs on %s are checked against Github", cfg.Github.Host)
	}

	statuses := broker.New()
	reporter := lifecycle.LogReporter{}

	driverConfig := lifecycle.Config{
		PublishTimeout: cfg.Lifecycle.PublishTimeout,
		WriteAttempts:  cfg.Lifecycle.WriteAttempts,
		WriteBackoff:   cfg.Lifecycle.WriteBackoff,
	}
	driver := lifecycle.NewDriver(store, publishers, statuses, reporter, driverConfig)
	dispatcher := lifecycle.NewDispatcher(driver, reporter, cfg.Lifecycle.Workers, cfg.Lifecycle.QueueSize)
	recoverer := lifecycle.NewRecoverer(store, dispatcher, statuses, reporter)

	interrupted, err := recoverer.InterruptStale(ctx, startup)
	if err != nil {
		return fmt.Errorf("fail interrupted deployments: %w", err)
	}
	if interrupted > 0 {
		log.Warnf("Marked %d deployments interrupted by a previous shutdown as failed", interrupted)
	}

	dispatcher.Start(ctx)

	requeued, err := recoverer.RequeuePending(ctx, startup)
	if err != nil {
		log.Errorf("Unable to requeue pending deployments: %s", err)
	} else if requeued > 0 {
		log.Infof("Requeued %d pending deployments", requeued)
	}
	go recoverer.Run(ctx, cfg.Lifecycle.SweepInterval, cfg.Lifecycle.SweepMinAge, driverConfig.StallAge())

	orch := orchestrator.New(orchestrator.Config{
		Store:           store,
		Artifacts:       artifacts,
		Queue:           dispatcher,
		Statuses:        statuses,
		Repositories:    repositories,
		MaxArtifactSize: cfg.Storage.MaxArtifactSize,
	})

	// Set up gRPC server
	grpcServer, err := startGrpcServer(*cfg, authenticator, statusserver.New(orch, statuses))
	if err != nil {
		return err
	}
	defer grpcServer.Stop()

	log.Infof("gRPC server started")

	router := api.New(api.Config{
		Authenticator: authenticator,
		BaseURL:       cfg.BaseURL,
		LogProxy: logproxy.Config{
			KibanaURL: cfg.Logs.KibanaURL,
			Index:     cfg.Logs.KibanaIndex,
		},
		MaxArtifactSize: cfg.Storage.MaxArtifactSize,
		MetricsPath:     cfg.MetricsPath,
		Orchestrator:    orch,
	})

	server := &http.Server{
		Addr:    cfg.ListenAddress,
		Handler: router,
	}

	go func() {
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(err)
		}
	}()

	log.Infof("Ready to accept connections")

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	sig := <-signals

	log.Infof("Received signal %s (%d), exiting...", sig, sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Lifecycle.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Shut down HTTP server: %s", err)
	}

	// Deployments still running after the timeout are failed on the next startup.
	if err := dispatcher.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Shut down workers: %s", err)
	}

	return nil
}

func setupStore(cfg config.Config) (database.DeploymentStore, func(), error) {
	if len(cfg.DatabaseURL) == 0 {
		log.Warnf("No database configured; deployments are kept in memory and lost on restart")
		return database.NewMemoryStore(), func() {}, nil
	}

	var db *database.Database
	var err error

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DatabaseConnectTimeout)
	for {
		log.Infof("Connecting to database...")
		db, err = database.New(ctx, cfg.DatabaseURL)
		if err == nil {
			log.Infof("Database connection established.")
			break
		} else if ctx.Err() != nil {
			break
		} else {
			log.Errorf("unable to connect to database: %s", err)
			time.Sleep(databaseConnectBackoffInterval)
		}
	}
	cancel()
	if err != nil {
		return nil, nil, fmt.Errorf("setup postgres connection: %s", err)
	}

	err = db.Migrate(context.Background())
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migrating database: %s", err)
	}

	return db, db.Close, nil
}

func setupAuthenticator(ctx context.Context, cfg config.Auth) (identity.Authenticator, error) {
	switch {
	case len(cfg.JWKSURL) > 0:
		log.Infof("Verifying bearer tokens with keys from %s", cfg.JWKSURL)
		return identity.NewJWKSAuthenticator(ctx, cfg.JWKSURL, cfg.Issuer, cfg.Audience)
	case len(cfg.HMACSecret) > 0:
		log.Infof("Verifying bearer tokens with a shared secret")
		return identity.NewHMACAuthenticator([]byte(cfg.HMACSecret), cfg.Issuer, cfg.Audience), nil
	default:
		return nil, fmt.Errorf("no way to verify bearer tokens; try configuring --%s or --%s", config.AuthJWKSURL, config.AuthHMACSecret)
	}
}

func startGrpcServer(cfg config.Config, authenticator identity.Authenticator, statusServer statusserver.StatusServer) (*grpc.Server, error) {
	serverMetrics := grpc_prometheus.NewServerMetrics(
		grpc_prometheus.WithServerHandlingTimeHistogram(),
	)
	prometheus.MustRegister(serverMetrics)

	authInterceptor := &auth_interceptor.ServerInterceptor{
		Authenticator: authenticator,
	}

	serverOpts := []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(serverMetrics.UnaryServerInterceptor(), authInterceptor.Unary()),
		grpc.ChainStreamInterceptor(serverMetrics.StreamServerInterceptor(), authInterceptor.Stream()),
		grpc.KeepaliveParams(keepalive.ServerParameters{
			Time: cfg.GRPC.KeepaliveInterval,
		}),
		// Server-side enforcement policy MUST match or be more lenient than client-side settings to avoid throttling (GOAWAY/ENHANCE_YOUR_CALM).
		grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
			MinTime:             5 * time.Second,
			PermitWithoutStream: true,
		}),
	}

	grpcServer := grpc.NewServer(serverOpts...)

	statusserver.RegisterStatusServer(grpcServer, statusServer)

	serverMetrics.InitializeMetrics(grpcServer)

	grpcListener, err := net.Listen("tcp", cfg.GRPC.Address)
	if err != nil {
		return nil, fmt.Errorf("unable to set up gRPC server: %w", err)
	}
	go func() {
		err := grpcServer.Serve(grpcListener)
		if err != nil {
			log.Error(err)
			os.Exit(114)
		}
	}()

	return grpcServer, nil
}

func main() {
	err := run()
	if err != nil {
		log.Errorf("Fatal error: %s", err)
		os.Exit(1)
	}
}
