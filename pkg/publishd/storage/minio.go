package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/nais/publish/pkg/publishd/metrics"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	Endpoint  string `json:"endpoint"`
	AccessKey string `json:"access-key"`
	SecretKey string `json:"secret-key"`
	Bucket    string `json:"bucket"`
	Location  string `json:"location"`
	UseTLS    bool   `json:"use-tls"`
	// PublicURL is the base URL artifacts are served from. Defaults to the endpoint.
	PublicURL string `json:"public-url"`
}

func (c Config) Enabled() bool {
	return len(c.Endpoint) > 0 && len(c.Bucket) > 0
}

type s3storage struct {
	config     Config
	client     *minio.Client
	bucketLock sync.Mutex
	bucketOK   bool
}

var _ ArtifactStore = &s3storage{}

func NewS3Storage(cfg Config) (ArtifactStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseTLS,
		Region: cfg.Location,
	})
	if err != nil {
		return nil, fmt.Errorf("while setting up S3 client: %s", err)
	}

	if len(cfg.PublicURL) == 0 {
		cfg.PublicURL = client.EndpointURL().String()
	}

	return &s3storage{
		client: client,
		config: cfg,
	}, nil
}

func (s *s3storage) ensureBucket(ctx context.Context) error {
	s.bucketLock.Lock()
	defer s.bucketLock.Unlock()

	if s.bucketOK {
		return nil
	}

	exists, err := s.client.BucketExists(ctx, s.config.Bucket)
	if err != nil {
		return fmt.Errorf("unable to query S3 bucket status: %s", err)
	}

	if !exists {
		err = s.client.MakeBucket(ctx, s.config.Bucket, minio.MakeBucketOptions{Region: s.config.Location})
		if err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
		log.Infof("S3: created bucket '%s' at location '%s'", s.config.Bucket, s.config.Location)
	}

	s.bucketOK = true
	return nil
}

func (s *s3storage) objectURL(key string) string {
	escaped := make([]string, 0)
	for _, part := range strings.Split(key, "/") {
		escaped = append(escaped, url.PathEscape(part))
	}
	return fmt.Sprintf("%s/%s/%s", strings.TrimSuffix(s.config.PublicURL, "/"), url.PathEscape(s.config.Bucket), strings.Join(escaped, "/"))
}

func (s *s3storage) Store(ctx context.Context, r io.Reader, size int64, hint Hint) (string, error) {
	var err error
	now := time.Now()
	defer func() {
		metrics.ArtifactUpload(now, size, err)
	}()

	if err = s.ensureBucket(ctx); err != nil {
		return "", err
	}

	contentType := hint.ContentType
	if len(contentType) == 0 {
		contentType = "application/octet-stream"
	}

	key := ObjectKey(hint)
	info, err := s.client.PutObject(ctx, s.config.Bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("write object: %w", err)
	}

	log.Debugf("S3: wrote %d bytes to %s/%s", info.Size, s.config.Bucket, key)

	return s.objectURL(key), nil
}
