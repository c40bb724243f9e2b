package publishclient

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/nais/publish/pkg/deployment"
	flag "github.com/spf13/pflag"
)

const (
	DefaultServer        = "http://localhost:8080"
	DefaultGrpcServer    = "localhost:9090"
	DefaultTimeout       = time.Minute * 10
	DefaultRetryInterval = time.Second * 5
)

const (
	ErrAuthRequired     = "Bearer token required (set --token or TOKEN)"
	ErrProjectRequired  = "Project name required (set --project or PROJECT)"
	ErrPlatformRequired = "Platform required (set --platform or PLATFORM)"
	ErrSourceRequired   = "Either --file or --repository-url must be specified"
	ErrSourceConflict   = "Specify either --file or --repository-url, not both"
)

type Config struct {
	File          string
	GrpcServer    string
	GrpcUseTLS    bool
	Platform      string
	ProjectName   string
	Quiet         bool
	RepositoryURL string
	Retry         bool
	RetryInterval time.Duration
	Server        string
	Timeout       time.Duration
	Token         string
	Wait          bool
}

// NewConfig returns a configuration with default values that have no corresponding flag.
// Values will be resolved with the following precedence: flags > environment variables > default values.
func NewConfig() *Config {
	return &Config{
		RetryInterval: DefaultRetryInterval,
	}
}

func InitConfig(cfg *Config) {
	flag.StringVar(&cfg.File, "file", os.Getenv("FILE"), "Build artifact to upload. (env FILE)")
	flag.StringVar(&cfg.GrpcServer, "grpc-server", getEnv("GRPC_SERVER", DefaultGrpcServer), "Address of the deployment status service. (env GRPC_SERVER)")
	flag.BoolVar(&cfg.GrpcUseTLS, "grpc-use-tls", getEnvBool("GRPC_USE_TLS", false), "Use encrypted connection for gRPC calls. (env GRPC_USE_TLS)")
	flag.StringVar(&cfg.Platform, "platform", os.Getenv("PLATFORM"), "Hosting platform, one of: "+deployment.PlatformNames()+". (env PLATFORM)")
	flag.StringVar(&cfg.ProjectName, "project", os.Getenv("PROJECT"), "Name of the project being deployed. (env PROJECT)")
	flag.BoolVar(&cfg.Quiet, "quiet", getEnvBool("QUIET", false), "Suppress printing of informational messages except errors. (env QUIET)")
	flag.StringVar(&cfg.RepositoryURL, "repository-url", os.Getenv("REPOSITORY_URL"), "Deploy from this repository instead of uploading a file. (env REPOSITORY_URL)")
	flag.BoolVar(&cfg.Retry, "retry", getEnvBool("RETRY", true), "Reconnect to the status service when encountering transient errors. (env RETRY)")
	flag.StringVar(&cfg.Server, "server", getEnv("PUBLISH_SERVER", DefaultServer), "Base URL of the deployment API. (env PUBLISH_SERVER)")
	flag.DurationVar(&cfg.Timeout, "timeout", getEnvDuration("TIMEOUT", DefaultTimeout), "Time to wait for the deployment to finish. (env TIMEOUT)")
	flag.StringVar(&cfg.Token, "token", os.Getenv("TOKEN"), "Bearer token identifying the deploying user. (env TOKEN)")
	flag.BoolVar(&cfg.Wait, "wait", getEnvBool("WAIT", false), "Block until the deployment reaches a final state. (env WAIT)")

	flag.Parse()
}

// Validate reports configuration problems that would make the server reject the request anyway.
func (cfg *Config) Validate() error {
	switch {
	case len(cfg.Token) == 0:
		return Errorf(ExitInvocationFailure, ErrAuthRequired)
	case len(strings.TrimSpace(cfg.ProjectName)) == 0:
		return Errorf(ExitInvocationFailure, ErrProjectRequired)
	case len(cfg.Platform) == 0:
		return Errorf(ExitInvocationFailure, ErrPlatformRequired)
	case len(cfg.File) > 0 && len(cfg.RepositoryURL) > 0:
		return Errorf(ExitInvocationFailure, ErrSourceConflict)
	case len(cfg.File) == 0 && len(cfg.RepositoryURL) == 0:
		return Errorf(ExitInvocationFailure, ErrSourceRequired)
	}

	if _, err := deployment.ParsePlatform(strings.ToLower(strings.TrimSpace(cfg.Platform))); err != nil {
		return ErrorWrap(ExitInvocationFailure, err)
	}

	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}

	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		duration, err := time.ParseDuration(value)
		if err == nil {
			return duration
		}
	}
	return fallback
}

func getEnvBool(key string, def bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return def
	}
	return b
}
