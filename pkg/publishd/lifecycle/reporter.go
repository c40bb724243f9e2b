package lifecycle

import (
	"context"

	"github.com/nais/publish/pkg/deployment"
	"github.com/nais/publish/pkg/publishd/metrics"
	"github.com/nais/publish/pkg/telemetry"
	log "github.com/sirupsen/logrus"
	otrace "go.opentelemetry.io/otel/trace"
)

// Stages of background processing where a fault can be swallowed.
const (
	StageLoad     = "load"
	StageClaim    = "claim"
	StageComplete = "complete"
	StageAbort    = "abort"
	StagePanic    = "panic"
	StageRecover  = "recover"
)

// FaultReporter receives errors from background processing that have no caller to return to.
type FaultReporter interface {
	ReportFault(ctx context.Context, deploymentID, stage string, err error)
}

type LogReporter struct{}

var _ FaultReporter = LogReporter{}

func (LogReporter) ReportFault(ctx context.Context, deploymentID, stage string, err error) {
	log.WithFields(log.Fields{
		deployment.LogFieldCorrelationID: deploymentID,
		deployment.LogFieldDeploymentID:  deploymentID,
		"stage":                          stage,
	}).Errorf("Background deployment processing failed: %s", err)

	metrics.SwallowedFault(stage)
	telemetry.RecordError(otrace.SpanFromContext(ctx), err)
}
