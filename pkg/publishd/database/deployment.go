package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/nais/publish/pkg/deployment"
	"github.com/nais/publish/pkg/publishd/identity"
	"github.com/nais/publish/pkg/publishd/metrics"
)

type DeploymentStore interface {
	// CreateDeployment stores the owner and a new deployment record atomically.
	CreateDeployment(ctx context.Context, owner identity.User, deployment deployment.Deployment) error
	Deployment(ctx context.Context, id string) (*deployment.Deployment, error)
	// Deployments returns all deployments belonging to owner, newest first.
	Deployments(ctx context.Context, owner string) ([]*deployment.Deployment, error)
	// DeploymentsInState returns deployments in the given state created before the timestamp, oldest first.
	DeploymentsInState(ctx context.Context, state deployment.State, before time.Time) ([]*deployment.Deployment, error)
	// DeploymentsUpdatedBefore returns deployments in the given state last changed before the timestamp, oldest first.
	DeploymentsUpdatedBefore(ctx context.Context, state deployment.State, before time.Time) ([]*deployment.Deployment, error)
	// TransitionDeployment moves a deployment forward if it is still in transition.From.
	// Writing a terminal transition that has already been applied is a no-op.
	TransitionDeployment(ctx context.Context, transition deployment.Transition) error
}

var _ DeploymentStore = &Database{}

const selectDeploymentFields = `id, owner_id, project_name, platform, source_type, source_url, status, preview_url, error_message, created_at, updated_at`

func scanDeployment(rows pgx.Rows) (*deployment.Deployment, error) {
	var platform, sourceType, status string
	d := &deployment.Deployment{}

	err := rows.Scan(
		&d.ID,
		&d.OwnerID,
		&d.ProjectName,
		&platform,
		&sourceType,
		&d.SourceURL,
		&status,
		&d.PreviewURL,
		&d.ErrorMessage,
		&d.Created,
		&d.Updated,
	)

	d.Platform = deployment.Platform(platform)
	d.SourceType = deployment.SourceType(sourceType)
	d.Status = deployment.State(status)

	return d, err
}

func (db *Database) scanDeployments(rows pgx.Rows) ([]*deployment.Deployment, error) {
	deployments := make([]*deployment.Deployment, 0)
	defer rows.Close()
	for rows.Next() {
		d, err := scanDeployment(rows)
		if err != nil {
			return nil, err
		}
		deployments = append(deployments, d)
	}
	return deployments, rows.Err()
}

func (db *Database) CreateDeployment(ctx context.Context, owner identity.User, d deployment.Deployment) error {
	now := time.Now()
	tx, err := db.conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	query := `
INSERT INTO users (id, email, name, created)
VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO UPDATE
SET email = EXCLUDED.email, name = EXCLUDED.name;
`
	_, err = tx.Exec(ctx, query, owner.ID, owner.Email, owner.Name, d.Created)
	if err != nil {
		metrics.DatabaseQuery(now, err)
		return fmt.Errorf("write user: %w", err)
	}

	query = `
INSERT INTO deployment (id, owner_id, project_name, platform, source_type, source_url, status, preview_url, error_message, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
`
	_, err = tx.Exec(ctx, query,
		d.ID,
		d.OwnerID,
		d.ProjectName,
		string(d.Platform),
		string(d.SourceType),
		d.SourceURL,
		string(d.Status),
		d.PreviewURL,
		d.ErrorMessage,
		d.Created,
		d.Updated,
	)
	if err != nil {
		metrics.DatabaseQuery(now, err)
		return fmt.Errorf("write deployment: %w", err)
	}

	err = tx.Commit(ctx)
	metrics.DatabaseQuery(now, err)
	return err
}

func (db *Database) Deployment(ctx context.Context, id string) (*deployment.Deployment, error) {
	// ids are uuids; anything else cannot exist and would be rejected by the column type
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}

	query := `SELECT ` + selectDeploymentFields + ` FROM deployment WHERE id = $1;`
	rows, err := db.timedQuery(ctx, query, id)
	if err != nil {
		return nil, err
	}

	deployments, err := db.scanDeployments(rows)
	if err != nil {
		return nil, err
	}
	if len(deployments) == 0 {
		return nil, ErrNotFound
	}

	return deployments[0], nil
}

func (db *Database) Deployments(ctx context.Context, owner string) ([]*deployment.Deployment, error) {
	query := `
SELECT ` + selectDeploymentFields + `
FROM deployment
WHERE owner_id = $1
ORDER BY created_at DESC;
`
	rows, err := db.timedQuery(ctx, query, owner)
	if err != nil {
		return nil, err
	}

	return db.scanDeployments(rows)
}

func (db *Database) DeploymentsInState(ctx context.Context, state deployment.State, before time.Time) ([]*deployment.Deployment, error) {
	query := `
SELECT ` + selectDeploymentFields + `
FROM deployment
WHERE status = $1 AND created_at < $2
ORDER BY created_at ASC;
`
	rows, err := db.timedQuery(ctx, query, string(state), before)
	if err != nil {
		return nil, err
	}

	return db.scanDeployments(rows)
}

func (db *Database) DeploymentsUpdatedBefore(ctx context.Context, state deployment.State, before time.Time) ([]*deployment.Deployment, error) {
	query := `
SELECT ` + selectDeploymentFields + `
FROM deployment
WHERE status = $1 AND updated_at < $2
ORDER BY updated_at ASC;
`
	rows, err := db.timedQuery(ctx, query, string(state), before)
	if err != nil {
		return nil, err
	}

	return db.scanDeployments(rows)
}

func (db *Database) TransitionDeployment(ctx context.Context, t deployment.Transition) error {
	if err := t.Validate(); err != nil {
		return err
	}

	query := `
UPDATE deployment
SET status = $3, preview_url = $4, error_message = $5, updated_at = $6
WHERE id = $1 AND status = $2;
`
	now := time.Now()
	tag, err := db.conn.Exec(ctx, query,
		t.DeploymentID,
		string(t.From),
		string(t.To),
		t.PreviewURL,
		t.ErrorMessage,
		t.Time,
	)
	metrics.DatabaseQuery(now, err)
	if err != nil {
		return err
	}

	if tag.RowsAffected() > 0 {
		return nil
	}

	current, err := db.Deployment(ctx, t.DeploymentID)
	if err != nil {
		return err
	}

	return checkConflict(*current, t)
}

// checkConflict explains why a transition could not be applied to the current record.
func checkConflict(current deployment.Deployment, t deployment.Transition) error {
	if t.To.Finished() && t.AppliedTo(current) {
		return nil
	}
	return fmt.Errorf("%w: deployment %s is %s, expected %s", ErrStateConflict, current.ID, current.Status, t.From)
}
