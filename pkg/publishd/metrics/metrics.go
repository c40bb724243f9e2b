package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/nais/publish/pkg/deployment"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "deployment"
	subsystem = "publishd"

	StatusOK    = "ok"
	StatusError = "error"

	LabelStatus          = "status"
	LabelStatusCode      = "status_code"
	LabelDeploymentState = "deployment_state"
	LabelPlatform        = "platform"
	LabelStage           = "stage"
	LabelReason          = "reason"
)

var (
	deployQueue = make(map[string]interface{})
	qlock       = &sync.Mutex{}
)

func statusLabel(err error) string {
	if err == nil {
		return StatusOK
	}
	return StatusError
}

func DatabaseQuery(t time.Time, err error) {
	elapsed := time.Since(t)
	databaseQueries.With(prometheus.Labels{
		LabelStatus: statusLabel(err),
	}).Observe(elapsed.Seconds())
}

func GitHubRequest(statusCode int) {
	githubRequests.With(prometheus.Labels{
		LabelStatusCode: strconv.Itoa(statusCode),
	}).Inc()
}

func ArtifactUpload(t time.Time, size int64, err error) {
	artifactUploads.With(prometheus.Labels{
		LabelStatus: statusLabel(err),
	}).Observe(time.Since(t).Seconds())
	if err == nil {
		artifactBytes.Add(float64(size))
	}
}

func Publish(platform deployment.Platform, t time.Time, err error) {
	publishDuration.With(prometheus.Labels{
		LabelPlatform: platform.String(),
		LabelStatus:   statusLabel(err),
	}).Observe(time.Since(t).Seconds())
}

func SwallowedFault(stage string) {
	swallowedFaults.With(prometheus.Labels{
		LabelStage: stage,
	}).Inc()
}

func SubmissionRejected(reason string) {
	rejectedSubmissions.With(prometheus.Labels{
		LabelReason: reason,
	}).Inc()
}

func SetWorkQueueDepth(depth int) {
	workQueueDepth.Set(float64(depth))
}

func UpdateQueue(status deployment.Status, created time.Time) {
	labels := prometheus.Labels{
		LabelDeploymentState: status.State.String(),
		LabelPlatform:        status.Platform.String(),
	}
	stateTransitions.With(labels).Inc()

	qlock.Lock()
	defer qlock.Unlock()

	switch status.State {
	case deployment.StateSuccess:
		leadTime.With(prometheus.Labels{
			LabelPlatform: status.Platform.String(),
		}).Observe(status.Time.Sub(created).Seconds())
		fallthrough
	case deployment.StateFailed:
		delete(deployQueue, status.DeploymentID)
	default:
		deployQueue[status.DeploymentID] = new(interface{})
	}

	queueSize.Set(float64(len(deployQueue)))
}

var (
	databaseQueries = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:      "database_queries",
		Help:      "time to execute database queries",
		Namespace: namespace,
		Subsystem: subsystem,
		Buckets:   prometheus.LinearBuckets(0.005, 0.005, 20),
	},
		[]string{
			LabelStatus,
		},
	)

	githubRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:      "github_requests",
		Help:      "number of Github requests made",
		Namespace: namespace,
		Subsystem: subsystem,
	},
		[]string{
			LabelStatusCode,
		},
	)

	artifactUploads = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:      "artifact_uploads",
		Help:      "time to upload source artifacts to object storage",
		Namespace: namespace,
		Subsystem: subsystem,
	},
		[]string{
			LabelStatus,
		},
	)

	artifactBytes = prometheus.NewCounter(prometheus.CounterOpts{
		Name:      "artifact_bytes",
		Help:      "total size of uploaded source artifacts",
		Namespace: namespace,
		Subsystem: subsystem,
	})

	publishDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:      "publish_duration_seconds",
		Help:      "time spent waiting for hosting platforms",
		Namespace: namespace,
		Subsystem: subsystem,
		Buckets:   []float64{0.5, 1, 2, 3, 4, 5, 10, 30, 60, 120},
	},
		[]string{
			LabelPlatform,
			LabelStatus,
		},
	)

	swallowedFaults = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:      "swallowed_faults",
		Help:      "errors in background deployment processing that could not be reported to the caller",
		Namespace: namespace,
		Subsystem: subsystem,
	},
		[]string{
			LabelStage,
		},
	)

	rejectedSubmissions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:      "rejected_submissions",
		Help:      "deployment submissions that were not accepted",
		Namespace: namespace,
		Subsystem: subsystem,
	},
		[]string{
			LabelReason,
		},
	)

	stateTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:      "state_transition",
		Help:      "deployment state transitions",
		Namespace: namespace,
		Subsystem: subsystem,
	},
		[]string{
			LabelDeploymentState,
			LabelPlatform,
		},
	)

	queueSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Name:      "queue_size",
		Help:      "number of unfinished deployments",
		Namespace: namespace,
		Subsystem: subsystem,
	})

	workQueueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Name:      "work_queue_depth",
		Help:      "number of deployments waiting for a free worker",
		Namespace: namespace,
		Subsystem: subsystem,
	})

	leadTime = prometheus.NewSummaryVec(prometheus.SummaryOpts{
		Name:      "lead_time_seconds",
		Help:      "the time it takes from a deployment is submitted until it is published",
		Namespace: namespace,
		Subsystem: subsystem,
	},
		[]string{
			LabelPlatform,
		},
	)

	interceptorRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "publishd_auth_interceptor_requests",
		Help: "Number of requests by result in auth interceptor",
	},
		[]string{"result"})
)

func InterceptorRequest(result string) {
	interceptorRequests.WithLabelValues(result).Inc()
}

func init() {
	prometheus.MustRegister(databaseQueries)
	prometheus.MustRegister(githubRequests)
	prometheus.MustRegister(artifactUploads)
	prometheus.MustRegister(artifactBytes)
	prometheus.MustRegister(publishDuration)
	prometheus.MustRegister(swallowedFaults)
	prometheus.MustRegister(rejectedSubmissions)
	prometheus.MustRegister(stateTransitions)
	prometheus.MustRegister(queueSize)
	prometheus.MustRegister(workQueueDepth)
	prometheus.MustRegister(leadTime)
	prometheus.MustRegister(interceptorRequests)
}
