package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi"
	chi_middleware "github.com/go-chi/chi/middleware"
	api_v1_deploy "github.com/nais/publish/pkg/publishd/api/v1/deploy"
	api_v1_deployments "github.com/nais/publish/pkg/publishd/api/v1/deployments"
	"github.com/nais/publish/pkg/publishd/identity"
	"github.com/nais/publish/pkg/publishd/logproxy"
	"github.com/nais/publish/pkg/publishd/middleware"
	"github.com/nais/publish/pkg/publishd/orchestrator"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

var requestTimeout = time.Second * 10

// Uploads are slower than the rest of the API.
var uploadTimeout = time.Minute * 2

// Multipart framing and form fields on top of the artifact itself.
const formOverhead = 1 << 20

type Config struct {
	Authenticator   identity.Authenticator
	BaseURL         string
	LogProxy        logproxy.Config
	MaxArtifactSize int64
	MetricsPath     string
	Orchestrator    *orchestrator.Orchestrator
}

func New(cfg Config) chi.Router {
	prometheusMiddleware := middleware.PrometheusMiddleware("publishd")

	deployHandler := &api_v1_deploy.DeploymentHandler{
		Submitter: cfg.Orchestrator,
		BaseURL:   cfg.BaseURL,
	}
	if cfg.MaxArtifactSize > 0 {
		deployHandler.MaxRequestSize = cfg.MaxArtifactSize + formOverhead
	}

	deploymentsHandler := &api_v1_deployments.Handler{
		Reader: cfg.Orchestrator,
	}

	// Pre-populate request metrics
	for _, code := range []int{http.StatusCreated, http.StatusBadRequest, http.StatusUnauthorized, http.StatusInternalServerError} {
		prometheusMiddleware.Initialize("/api/v1/deploy", http.MethodPost, code)
	}

	// Base settings for all requests
	router := chi.NewRouter()
	router.Use(
		chi_middleware.RequestID,
		middleware.RequestLogger(),
		prometheusMiddleware.Handler(),
		chi_middleware.StripSlashes,
	)

	// Mount /metrics endpoint with no authentication
	router.Get(cfg.MetricsPath, promhttp.Handler().ServeHTTP)

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// Deployment logs accessible via shorthand URL
	router.HandleFunc("/logs", logproxy.MakeHandler(cfg.LogProxy))

	router.Route("/api/v1", func(r chi.Router) {
		if cfg.Authenticator == nil {
			log.Error("Refusing to authenticate API requests without an authenticator; try configuring --auth.hmac-secret or --auth.jwks-url")
			log.Error("Note: all /api/v1 requests will be rejected as unauthorized")
		} else {
			r.Use(identity.Middleware(cfg.Authenticator))
		}

		r.With(
			chi_middleware.AllowContentType("multipart/form-data", "application/x-www-form-urlencoded"),
			chi_middleware.Timeout(uploadTimeout),
		).Post("/deploy", deployHandler.ServeHTTP)

		r.Group(func(r chi.Router) {
			r.Use(chi_middleware.Timeout(requestTimeout))
			r.Get("/deployments", deploymentsHandler.List)
			r.Get("/deployments/{"+api_v1_deployments.DeploymentIDParam+"}", deploymentsHandler.Get)
		})
	})

	return router
}
