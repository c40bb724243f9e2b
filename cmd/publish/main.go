package main

import (
	"context"
	"net/http"
	"os"

	"github.com/nais/publish/pkg/grpc/statusserver"
	"github.com/nais/publish/pkg/publishclient"
	"github.com/nais/publish/pkg/version"
	log "github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"
)

func main() {
	err := run()
	if err == nil {
		return
	}
	code := publishclient.ErrorExitCode(err)
	if code == publishclient.ExitInvocationFailure {
		flag.Usage()
	}
	log.Errorf("fatal: %s", err)
	os.Exit(int(code))
}

func run() error {
	// Configuration and context
	cfg := publishclient.NewConfig()
	publishclient.InitConfig(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	// Logging
	err := publishclient.SetupLogging(*cfg)
	if err != nil {
		return err
	}

	// Welcome
	log.Infof("publish %s", version.Version())
	ts, err := version.BuildTime()
	if err == nil {
		log.Infof("This version was built %s", ts.Local())
	}

	err = cfg.Validate()
	if err != nil {
		return err
	}

	// The status connection is established lazily on first use
	grpcConnection, err := publishclient.NewGrpcConnection(*cfg)
	if err != nil {
		return err
	}
	defer func() {
		err := grpcConnection.Close()
		if err != nil {
			log.Error(err)
		}
	}()

	p := publishclient.Publisher{
		HTTPClient: &http.Client{},
		Status:     statusserver.NewStatusClient(grpcConnection),
	}

	return p.Publish(ctx, cfg)
}
