package config

import (
	"time"

	"github.com/nais/liberator/pkg/conftools"
	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Auth struct {
	HMACSecret string `json:"hmac-secret"`
	JWKSURL    string `json:"jwks-url"`
	Issuer     string `json:"issuer"`
	Audience   string `json:"audience"`
}

type GRPC struct {
	Address           string        `json:"address"`
	KeepaliveInterval time.Duration `json:"keepalive-interval"`
}

type Github struct {
	Enabled bool   `json:"enabled"`
	Token   string `json:"token"`
	APIURL  string `json:"api-url"`
	Host    string `json:"host"`
}

type Lifecycle struct {
	Workers         int           `json:"workers"`
	QueueSize       int           `json:"queue-size"`
	PublishTimeout  time.Duration `json:"publish-timeout"`
	SweepInterval   time.Duration `json:"sweep-interval"`
	SweepMinAge     time.Duration `json:"sweep-min-age"`
	WriteAttempts   int           `json:"write-attempts"`
	WriteBackoff    time.Duration `json:"write-backoff"`
	ShutdownTimeout time.Duration `json:"shutdown-timeout"`
}

type Logs struct {
	KibanaURL   string `json:"kibana-url"`
	KibanaIndex string `json:"kibana-index"`
}

type Storage struct {
	Endpoint        string `json:"endpoint"`
	AccessKey       string `json:"access-key"`
	SecretKey       string `json:"secret-key"`
	Bucket          string `json:"bucket"`
	Location        string `json:"location"`
	UseTLS          bool   `json:"use-tls"`
	PublicURL       string `json:"public-url"`
	MaxArtifactSize int64  `json:"max-artifact-size"`
}

type Telemetry struct {
	OTLPEndpoint string `json:"otlp-endpoint"`
}

type Config struct {
	Auth                   Auth          `json:"auth"`
	BaseURL                string        `json:"base-url"`
	DatabaseURL            string        `json:"database-url"`
	DatabaseConnectTimeout time.Duration `json:"database-connect-timeout"`
	Github                 Github        `json:"github"`
	GRPC                   GRPC          `json:"grpc"`
	Lifecycle              Lifecycle     `json:"lifecycle"`
	ListenAddress          string        `json:"listen-address"`
	LogFormat              string        `json:"log-format"`
	LogLevel               string        `json:"log-level"`
	Logs                   Logs          `json:"logs"`
	MetricsPath            string        `json:"metrics-path"`
	PlatformsFile          string        `json:"platforms-file"`
	Storage                Storage       `json:"storage"`
	Telemetry              Telemetry     `json:"telemetry"`
}

const (
	AuthAudience             = "auth.audience"
	AuthHMACSecret           = "auth.hmac-secret"
	AuthIssuer               = "auth.issuer"
	AuthJWKSURL              = "auth.jwks-url"
	BaseUrl                  = "base-url"
	DatabaseConnectTimeout   = "database-connect-timeout"
	DatabaseUrl              = "database-url"
	GithubAPIURL             = "github.api-url"
	GithubEnabled            = "github.enabled"
	GithubHost               = "github.host"
	GithubToken              = "github.token"
	GrpcAddress              = "grpc.address"
	GrpcKeepaliveInterval    = "grpc.keepalive-interval"
	LifecyclePublishTimeout  = "lifecycle.publish-timeout"
	LifecycleQueueSize       = "lifecycle.queue-size"
	LifecycleShutdownTimeout = "lifecycle.shutdown-timeout"
	LifecycleSweepInterval   = "lifecycle.sweep-interval"
	LifecycleSweepMinAge     = "lifecycle.sweep-min-age"
	LifecycleWorkers         = "lifecycle.workers"
	LifecycleWriteAttempts   = "lifecycle.write-attempts"
	LifecycleWriteBackoff    = "lifecycle.write-backoff"
	ListenAddress            = "listen-address"
	LogFormat                = "log-format"
	LogLevel                 = "log-level"
	LogsKibanaIndex          = "logs.kibana-index"
	LogsKibanaURL            = "logs.kibana-url"
	MetricsPath              = "metrics-path"
	PlatformsFile            = "platforms-file"
	StorageAccessKey         = "storage.access-key"
	StorageBucket            = "storage.bucket"
	StorageEndpoint          = "storage.endpoint"
	StorageLocation          = "storage.location"
	StorageMaxArtifactSize   = "storage.max-artifact-size"
	StoragePublicURL         = "storage.public-url"
	StorageSecretKey         = "storage.secret-key"
	StorageUseTLS            = "storage.use-tls"
	TelemetryOTLPEndpoint    = "telemetry.otlp-endpoint"
)

// Secrets are never printed at startup.
var Secrets = []string{
	AuthHMACSecret,
	DatabaseUrl,
	GithubToken,
	StorageAccessKey,
	StorageSecretKey,
}

// Bind environment variables provided by the NAIS platform
func bindNAIS() {
	viper.BindEnv(DatabaseUrl, "DATABASE_URL")
	viper.BindEnv(StorageEndpoint, "BUCKET_ENDPOINT")
	viper.BindEnv(StorageAccessKey, "BUCKET_ACCESS_KEY")
	viper.BindEnv(StorageSecretKey, "BUCKET_SECRET_KEY")
	viper.BindEnv(TelemetryOTLPEndpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func Initialize() *Config {
	conftools.Initialize("publishd")
	bindNAIS()

	// Provide command-line flags
	flag.String(BaseUrl, "http://localhost:8080", "Base URL where publishd can be reached.")
	flag.String(ListenAddress, "127.0.0.1:8080", "IP:PORT")
	flag.String(LogFormat, "text", "Log format, either 'json' or 'text'.")
	flag.String(LogLevel, "debug", "Logging verbosity level.")
	flag.String(MetricsPath, "/metrics", "HTTP endpoint for exposed metrics.")
	flag.String(PlatformsFile, "", "YAML file overriding the settings of each deployment platform.")

	flag.String(GrpcAddress, "127.0.0.1:9090", "Listen address of gRPC server.")
	flag.Duration(GrpcKeepaliveInterval, time.Second*15, "Ping inactive clients every interval to determine if they are alive.")

	flag.String(DatabaseUrl, "", "PostgreSQL connection information. Deployments are kept in memory if empty.")
	flag.Duration(DatabaseConnectTimeout, time.Minute*5, "How long to try the initial database connection.")

	flag.String(AuthHMACSecret, "", "Shared secret for HS256 signed bearer tokens.")
	flag.String(AuthJWKSURL, "", "URL to a JSON Web Key Set used to verify bearer tokens.")
	flag.String(AuthIssuer, "", "Required issuer of bearer tokens.")
	flag.String(AuthAudience, "publishd", "Required audience of bearer tokens.")

	flag.String(StorageEndpoint, "", "S3 compatible endpoint for uploaded artifacts. Uploads are refused if empty.")
	flag.String(StorageAccessKey, "", "Access key for artifact storage.")
	flag.String(StorageSecretKey, "", "Secret key for artifact storage.")
	flag.String(StorageBucket, "deployments", "Bucket for uploaded artifacts.")
	flag.String(StorageLocation, "", "Region of the artifact bucket.")
	flag.Bool(StorageUseTLS, true, "Use TLS when talking to artifact storage.")
	flag.String(StoragePublicURL, "", "Public base URL of stored artifacts; defaults to the storage endpoint.")
	flag.Int64(StorageMaxArtifactSize, 100<<20, "Largest accepted artifact upload, in bytes.")

	flag.Bool(GithubEnabled, false, "Check that repository URLs exist on Github before accepting deployments.")
	flag.String(GithubToken, "", "Github token used for repository lookups.")
	flag.String(GithubAPIURL, "", "Github Enterprise API URL. Leave empty for github.com.")
	flag.String(GithubHost, "github.com", "Host name of repository URLs that are checked against Github.")

	flag.Int(LifecycleWorkers, 4, "Number of deployments published concurrently.")
	flag.Int(LifecycleQueueSize, 100, "Number of deployments waiting for a worker before new ones are left to the sweep.")
	flag.Duration(LifecyclePublishTimeout, time.Minute*2, "How long a platform may take to publish a deployment.")
	flag.Duration(LifecycleSweepInterval, time.Minute, "How often pending deployments are rescheduled.")
	flag.Duration(LifecycleSweepMinAge, time.Minute, "How old a pending deployment must be before it is rescheduled.")
	flag.Int(LifecycleWriteAttempts, 3, "How many times a state change is written before giving up.")
	flag.Duration(LifecycleWriteBackoff, time.Millisecond*500, "Delay between attempts to write a state change, multiplied by the attempt number.")
	flag.Duration(LifecycleShutdownTimeout, time.Second*30, "How long to wait for running deployments on shutdown.")

	flag.String(LogsKibanaURL, "https://logs.adeo.no/app/kibana", "Kibana instance that log links redirect to.")
	flag.String(LogsKibanaIndex, "", "Kibana index pattern for log links.")

	flag.String(TelemetryOTLPEndpoint, "", "OpenTelemetry collector endpoint. Tracing is disabled if empty.")

	return &Config{}
}
