package orchestrator_test

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nais/publish/pkg/deployment"
	"github.com/nais/publish/pkg/publishd/database"
	"github.com/nais/publish/pkg/publishd/github"
	"github.com/nais/publish/pkg/publishd/identity"
	"github.com/nais/publish/pkg/publishd/lifecycle"
	"github.com/nais/publish/pkg/publishd/orchestrator"
	"github.com/nais/publish/pkg/publishd/platform"
	"github.com/nais/publish/pkg/publishd/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

var (
	owner   = &identity.User{ID: "user-1", Email: "ada@example.com", Name: "Ada"}
	someone = &identity.User{ID: "user-2", Email: "bob@example.com", Name: "Bob"}
	now     = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
)

type queue struct {
	lock sync.Mutex
	ids  []string
	err  error
}

func (q *queue) Enqueue(id string) error {
	q.lock.Lock()
	defer q.lock.Unlock()
	if q.err != nil {
		return q.err
	}
	q.ids = append(q.ids, id)
	return nil
}

type statuses struct {
	lock     sync.Mutex
	statuses []deployment.Status
}

func (s *statuses) Publish(status deployment.Status) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.statuses = append(s.statuses, status)
}

type repositories map[string]error

func (r repositories) Exists(_ context.Context, url string) error {
	return r[url]
}

func artifact(content string) *orchestrator.Artifact {
	return &orchestrator.Artifact{
		Filename:    "site.zip",
		ContentType: "application/zip",
		Size:        int64(len(content)),
		Content:     strings.NewReader(content),
	}
}

type fixture struct {
	store     *database.MemoryStore
	artifacts *storage.MockArtifactStore
	queue     *queue
	statuses  *statuses
	subject   *orchestrator.Orchestrator
}

func setup(t *testing.T, modify func(cfg *orchestrator.Config)) *fixture {
	f := &fixture{
		store:     database.NewMemoryStore(),
		artifacts: storage.NewMockArtifactStore(t),
		queue:     &queue{},
		statuses:  &statuses{},
	}
	cfg := orchestrator.Config{
		Store:           f.store,
		Artifacts:       f.artifacts,
		Queue:           f.queue,
		Statuses:        f.statuses,
		MaxArtifactSize: 1024,
		Clock:           func() time.Time { return now },
	}
	if modify != nil {
		modify(&cfg)
	}
	f.subject = orchestrator.New(cfg)
	return f
}

func TestSubmitValidation(t *testing.T) {
	testCases := []struct {
		name    string
		request orchestrator.SubmitRequest
		field   string
		message string
	}{
		{
			name:    "empty project name",
			request: orchestrator.SubmitRequest{ProjectName: "", Platform: "vercel", RepositoryURL: "https://github.com/a/b"},
			field:   orchestrator.FieldProjectName,
			message: "Project name is required",
		},
		{
			name:    "blank project name",
			request: orchestrator.SubmitRequest{ProjectName: "   ", Platform: "vercel", RepositoryURL: "https://github.com/a/b"},
			field:   orchestrator.FieldProjectName,
			message: "Project name is required",
		},
		{
			name:    "project name is checked before platform",
			request: orchestrator.SubmitRequest{Platform: "heroku"},
			field:   orchestrator.FieldProjectName,
			message: "Project name is required",
		},
		{
			name:    "unknown platform",
			request: orchestrator.SubmitRequest{ProjectName: "demo", Platform: "heroku", RepositoryURL: "https://github.com/a/b"},
			field:   orchestrator.FieldPlatform,
			message: "Platform must be one of: vercel, netlify",
		},
		{
			name:    "malformed repository url",
			request: orchestrator.SubmitRequest{ProjectName: "demo", Platform: "netlify", RepositoryURL: "github.com/a/b"},
			field:   orchestrator.FieldRepositoryURL,
			message: "Invalid repository URL",
		},
		{
			name:    "repository url with unsupported scheme",
			request: orchestrator.SubmitRequest{ProjectName: "demo", Platform: "netlify", RepositoryURL: "ftp://github.com/a/b"},
			field:   orchestrator.FieldRepositoryURL,
			message: "Invalid repository URL",
		},
		{
			name:    "both sources",
			request: orchestrator.SubmitRequest{ProjectName: "demo", Platform: "vercel", RepositoryURL: "https://github.com/a/b", Artifact: artifact("zip")},
			field:   orchestrator.FieldSource,
			message: "Provide either a file upload or a repository URL, not both",
		},
		{
			name:    "source conflict is checked before repository url format",
			request: orchestrator.SubmitRequest{ProjectName: "demo", Platform: "vercel", RepositoryURL: "github.com/a/b", Artifact: artifact("zip")},
			field:   orchestrator.FieldSource,
			message: "Provide either a file upload or a repository URL, not both",
		},
		{
			name:    "no source",
			request: orchestrator.SubmitRequest{ProjectName: "demo", Platform: "vercel"},
			field:   orchestrator.FieldSource,
			message: "Either file upload or GitHub URL is required",
		},
		{
			name:    "empty artifact",
			request: orchestrator.SubmitRequest{ProjectName: "demo", Platform: "vercel", Artifact: artifact("")},
			field:   orchestrator.FieldFile,
			message: "Uploaded file is empty",
		},
		{
			name:    "artifact too large",
			request: orchestrator.SubmitRequest{ProjectName: "demo", Platform: "vercel", Artifact: artifact(strings.Repeat("x", 1025))},
			field:   orchestrator.FieldFile,
			message: "Uploaded file exceeds the maximum size of 1024 bytes",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			f := setup(t, nil)

			d, err := f.subject.Submit(context.Background(), owner, testCase.request)

			assert.Nil(t, d)
			var validationError *deployment.ValidationError
			if assert.True(t, errors.As(err, &validationError), "expected validation error, got %v", err) {
				assert.Equal(t, testCase.field, validationError.Field)
				assert.Equal(t, testCase.message, validationError.Message)
			}

			deployments, _ := f.store.Deployments(context.Background(), owner.ID)
			assert.Empty(t, deployments)
			assert.Empty(t, f.queue.ids)
			assert.Empty(t, f.statuses.statuses)
		})
	}
}

func TestSubmitRepository(t *testing.T) {
	f := setup(t, nil)

	d, err := f.subject.Submit(context.Background(), owner, orchestrator.SubmitRequest{
		ProjectName:   "  demo ",
		Platform:      "Vercel",
		RepositoryURL: "https://github.com/nais/demo",
	})

	assert.NoError(t, err)
	assert.NotEmpty(t, d.ID)
	assert.Equal(t, owner.ID, d.OwnerID)
	assert.Equal(t, "demo", d.ProjectName)
	assert.Equal(t, deployment.PlatformVercel, d.Platform)
	assert.Equal(t, deployment.StatePending, d.Status)
	assert.Equal(t, deployment.SourceRepository, d.SourceType)
	assert.Equal(t, "https://github.com/nais/demo", d.SourceURL)
	assert.Nil(t, d.PreviewURL)
	assert.Nil(t, d.ErrorMessage)
	assert.Equal(t, now, d.Created)

	stored, err := f.store.Deployment(context.Background(), d.ID)
	assert.NoError(t, err)
	assert.Equal(t, *d, *stored)

	user, ok := f.store.User(owner.ID)
	assert.True(t, ok)
	assert.Equal(t, *owner, user)

	assert.Equal(t, []string{d.ID}, f.queue.ids)
	if assert.Len(t, f.statuses.statuses, 1) {
		assert.Equal(t, deployment.StatePending, f.statuses.statuses[0].State)
		assert.Equal(t, d.ID, f.statuses.statuses[0].DeploymentID)
	}
}

func TestSubmitUpload(t *testing.T) {
	f := setup(t, nil)
	upload := artifact("PK\x03\x04")

	f.artifacts.On("Store", mock.Anything, upload.Content, upload.Size, storage.Hint{
		Owner:       owner.ID,
		Filename:    "site.zip",
		ContentType: "application/zip",
		Time:        now,
	}).Return("https://s3.example.com/artifacts/deployments/user-1/site.zip", nil).Once()

	d, err := f.subject.Submit(context.Background(), owner, orchestrator.SubmitRequest{
		ProjectName: "demo",
		Platform:    "netlify",
		Artifact:    upload,
	})

	assert.NoError(t, err)
	assert.Equal(t, deployment.SourceUpload, d.SourceType)
	assert.Equal(t, "https://s3.example.com/artifacts/deployments/user-1/site.zip", d.SourceURL)
	assert.Equal(t, deployment.PlatformNetlify, d.Platform)
	assert.Equal(t, []string{d.ID}, f.queue.ids)
}

func TestSubmitStorageFailure(t *testing.T) {
	f := setup(t, nil)
	f.artifacts.On("Store", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("bucket on fire")).Once()

	d, err := f.subject.Submit(context.Background(), owner, orchestrator.SubmitRequest{
		ProjectName: "demo",
		Platform:    "vercel",
		Artifact:    artifact("zip"),
	})

	assert.Nil(t, d)
	var storageError *deployment.StorageError
	assert.True(t, errors.As(err, &storageError))
	assert.Contains(t, err.Error(), "bucket on fire")

	deployments, _ := f.store.Deployments(context.Background(), owner.ID)
	assert.Empty(t, deployments)
	assert.Empty(t, f.queue.ids)
}

func TestSubmitWithoutArtifactStorage(t *testing.T) {
	f := setup(t, func(cfg *orchestrator.Config) {
		cfg.Artifacts = nil
	})

	_, err := f.subject.Submit(context.Background(), owner, orchestrator.SubmitRequest{
		ProjectName: "demo",
		Platform:    "vercel",
		Artifact:    artifact("zip"),
	})

	var storageError *deployment.StorageError
	assert.True(t, errors.As(err, &storageError))
	assert.ErrorIs(t, err, orchestrator.ErrStorageDisabled)
}

func TestSubmitPersistenceFailure(t *testing.T) {
	store := database.NewMockDeploymentStore(t)
	store.On("CreateDeployment", mock.Anything, *owner, mock.AnythingOfType("deployment.Deployment")).Return(errors.New("connection refused")).Once()
	f := setup(t, func(cfg *orchestrator.Config) {
		cfg.Store = store
	})

	d, err := f.subject.Submit(context.Background(), owner, orchestrator.SubmitRequest{
		ProjectName:   "demo",
		Platform:      "vercel",
		RepositoryURL: "https://github.com/nais/demo",
	})

	assert.Nil(t, d)
	var persistenceError *deployment.PersistenceError
	assert.True(t, errors.As(err, &persistenceError))
	assert.Empty(t, f.queue.ids)
	assert.Empty(t, f.statuses.statuses)
}

func TestSubmitUnauthorized(t *testing.T) {
	f := setup(t, nil)

	_, err := f.subject.Submit(context.Background(), nil, orchestrator.SubmitRequest{
		ProjectName:   "demo",
		Platform:      "vercel",
		RepositoryURL: "https://github.com/nais/demo",
	})

	var authorizationError *deployment.AuthorizationError
	assert.True(t, errors.As(err, &authorizationError))
}

func TestSubmitQueueFull(t *testing.T) {
	f := setup(t, nil)
	f.queue.err = lifecycle.ErrQueueFull

	d, err := f.subject.Submit(context.Background(), owner, orchestrator.SubmitRequest{
		ProjectName:   "demo",
		Platform:      "vercel",
		RepositoryURL: "https://github.com/nais/demo",
	})

	assert.NoError(t, err)
	stored, err := f.store.Deployment(context.Background(), d.ID)
	assert.NoError(t, err)
	assert.Equal(t, deployment.StatePending, stored.Status)
}

func TestSubmitRepositoryLookup(t *testing.T) {
	lookups := repositories{
		"https://github.com/nais/missing": github.ErrRepositoryNotFound,
		"https://github.com/nais/flaky":   errors.New("502 bad gateway"),
	}
	f := setup(t, func(cfg *orchestrator.Config) {
		cfg.Repositories = lookups
	})

	_, err := f.subject.Submit(context.Background(), owner, orchestrator.SubmitRequest{
		ProjectName:   "demo",
		Platform:      "vercel",
		RepositoryURL: "https://github.com/nais/missing",
	})
	var validationError *deployment.ValidationError
	if assert.True(t, errors.As(err, &validationError)) {
		assert.Equal(t, orchestrator.FieldRepositoryURL, validationError.Field)
		assert.Equal(t, "Repository not found", validationError.Message)
	}

	d, err := f.subject.Submit(context.Background(), owner, orchestrator.SubmitRequest{
		ProjectName:   "demo",
		Platform:      "vercel",
		RepositoryURL: "https://github.com/nais/flaky",
	})
	assert.NoError(t, err)
	assert.Equal(t, deployment.StatePending, d.Status)
}

func TestListForOwner(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()

	_, err := f.subject.ListForOwner(ctx, nil)
	var authorizationError *deployment.AuthorizationError
	assert.True(t, errors.As(err, &authorizationError))

	deployments, err := f.subject.ListForOwner(ctx, owner)
	assert.NoError(t, err)
	assert.NotNil(t, deployments)
	assert.Len(t, deployments, 0)

	for i, name := range []string{"first", "second", "third"} {
		d := deployment.NewPending(name, owner.ID, name, deployment.PlatformVercel, deployment.SourceRepository, "https://github.com/a/b", now.Add(time.Duration(i)*time.Minute))
		assert.NoError(t, f.store.CreateDeployment(ctx, *owner, d))
	}
	other := deployment.NewPending("other", someone.ID, "other", deployment.PlatformNetlify, deployment.SourceRepository, "https://github.com/a/b", now.Add(time.Hour))
	assert.NoError(t, f.store.CreateDeployment(ctx, *someone, other))

	deployments, err = f.subject.ListForOwner(ctx, owner)
	assert.NoError(t, err)
	ids := make([]string, 0, len(deployments))
	for _, d := range deployments {
		ids = append(ids, d.ID)
	}
	assert.Equal(t, []string{"third", "second", "first"}, ids)
}

func TestDeployment(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()

	d := deployment.NewPending("mine", owner.ID, "demo", deployment.PlatformVercel, deployment.SourceRepository, "https://github.com/a/b", now)
	assert.NoError(t, f.store.CreateDeployment(ctx, *owner, d))

	found, err := f.subject.Deployment(ctx, owner, "mine")
	assert.NoError(t, err)
	assert.Equal(t, d, *found)

	_, err = f.subject.Deployment(ctx, someone, "mine")
	assert.True(t, database.IsErrNotFound(err))

	_, err = f.subject.Deployment(ctx, owner, "missing")
	assert.True(t, database.IsErrNotFound(err))

	_, err = f.subject.Deployment(ctx, nil, "mine")
	var authorizationError *deployment.AuthorizationError
	assert.True(t, errors.As(err, &authorizationError))
}

func TestSubmitEndToEnd(t *testing.T) {
	store := database.NewMemoryStore()
	cfg := platform.DefaultConfig()
	for p, settings := range cfg.Platforms {
		settings.Latency = platform.Duration(5 * time.Millisecond)
		cfg.Platforms[p] = settings
	}
	publishers, err := platform.NewRegistry(cfg)
	assert.NoError(t, err)

	driver := lifecycle.NewDriver(store, publishers, nil, lifecycle.LogReporter{}, lifecycle.Config{
		PublishTimeout: time.Second,
		WriteAttempts:  3,
		WriteBackoff:   time.Millisecond,
	})
	dispatcher := lifecycle.NewDispatcher(driver, lifecycle.LogReporter{}, 2, 10)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	dispatcher.Start(ctx)

	subject := orchestrator.New(orchestrator.Config{
		Store: store,
		Queue: dispatcher,
	})

	d, err := subject.Submit(ctx, owner, orchestrator.SubmitRequest{
		ProjectName:   "demo",
		Platform:      "vercel",
		RepositoryURL: "https://example.com/r",
	})
	assert.NoError(t, err)
	assert.Equal(t, deployment.StatePending, d.Status)

	var final *deployment.Deployment
	assert.Eventually(t, func() bool {
		final, err = subject.Deployment(ctx, owner, d.ID)
		return err == nil && final.Status.Finished()
	}, 2*time.Second, 5*time.Millisecond)

	assert.Equal(t, deployment.StateSuccess, final.Status)
	assert.Regexp(t, regexp.MustCompile(`^https://vercel-\d+\.vercel\.app$`), final.GetPreviewURL())
	assert.Nil(t, final.ErrorMessage)

	assert.NoError(t, dispatcher.Shutdown(context.Background()))
}
