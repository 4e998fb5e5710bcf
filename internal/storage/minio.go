package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// MinioStore implements Store on MinIO or any S3-compatible provider.
type MinioStore struct {
	client     *minio.Client
	opts       Options
	publicBase string
	log        *zap.Logger
}

// NewMinioStore creates the MinIO client. No request is made until
// EnsureContainer is called. Without static credentials the client falls
// back to AWS_*/MINIO_* environment variables and then to IAM.
func NewMinioStore(opts Options, log *zap.Logger) (*MinioStore, error) {
	var creds *credentials.Credentials
	if opts.Account != "" && opts.Secret != "" {
		creds = credentials.NewStaticV4(opts.Account, opts.Secret, "")
	} else {
		creds = credentials.NewChainCredentials([]credentials.Provider{
			&credentials.EnvAWS{},
			&credentials.EnvMinio{},
			&credentials.IAM{},
		})
	}

	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  creds,
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	return &MinioStore{
		client:     client,
		opts:       opts,
		publicBase: strings.TrimRight(opts.PublicBase, "/"),
		log:        log.Named("storage"),
	}, nil
}

// EnsureContainer implements Store. A public container additionally gets
// an anonymous-read bucket policy.
func (s *MinioStore) EnsureContainer(ctx context.Context) (Container, error) {
	bucket := s.opts.Container

	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, unavailable("check bucket existence", err)
	}
	if !exists {
		err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: s.opts.Region})
		if err != nil && !bucketAlreadyExists(err) {
			return nil, unavailable(fmt.Sprintf("create bucket %q", bucket), err)
		}
		if err == nil {
			s.log.Info("created bucket", zap.String("bucket", bucket))
		}
	}

	if s.opts.Public {
		if err := s.client.SetBucketPolicy(ctx, bucket, publicReadPolicy(bucket)); err != nil {
			return nil, unavailable("set bucket policy", err)
		}
	}

	return &minioBucket{store: s, name: bucket}, nil
}

func bucketAlreadyExists(err error) bool {
	switch minio.ToErrorResponse(err).Code {
	case "BucketAlreadyOwnedByYou", "BucketAlreadyExists":
		return true
	}
	return false
}

type minioBucket struct {
	store *MinioStore
	name  string
}

func (b *minioBucket) Name() string { return b.name }

func (b *minioBucket) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	_, err := b.store.client.PutObject(ctx, b.name, key, body, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return unavailable(fmt.Sprintf("put object %q", key), err)
	}
	return nil
}

func (b *minioBucket) List(ctx context.Context) iter.Seq2[Object, error] {
	return func(yield func(Object, error) bool) {
		// Cancelling stops minio's background listing goroutine when the
		// caller breaks out early.
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		for info := range b.store.client.ListObjects(ctx, b.name, minio.ListObjectsOptions{Recursive: true}) {
			if info.Err != nil {
				yield(Object{}, unavailable("list objects", info.Err))
				return
			}
			if !yield(Object{Key: info.Key, LastModified: info.LastModified}, nil) {
				return
			}
		}
	}
}

// ObjectURL returns the browser-accessible URL for key.
// For local MinIO: "http://localhost:9000/uploads/<key>"
// With a CDN base: "https://cdn.example.com/<key>"
func (b *minioBucket) ObjectURL(key string) string {
	if b.store.publicBase != "" {
		return b.store.publicBase + "/" + key
	}
	return b.store.client.EndpointURL().JoinPath(b.name, key).String()
}

func (b *minioBucket) SignedURL(ctx context.Context, req SignRequest) (string, error) {
	// A throwaway client bound to the signing credentials. With Region set,
	// presigning is local and makes no request.
	signer, err := minio.New(b.store.opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(req.Account, req.Secret, ""),
		Secure: b.store.opts.UseSSL,
		Region: b.store.region(),
	})
	if err != nil {
		return "", fmt.Errorf("create signing client: %w", err)
	}

	u, err := signer.PresignedGetObject(ctx, b.name, req.Key, req.Expiry, nil)
	if err != nil {
		return "", fmt.Errorf("presign %q: %w", req.Key, err)
	}
	return u.String(), nil
}

func (s *MinioStore) region() string {
	if s.opts.Region == "" {
		return "us-east-1"
	}
	return s.opts.Region
}

// publicReadPolicy returns an S3 bucket policy JSON that allows anonymous GET on all objects.
func publicReadPolicy(bucket string) string {
	policy := map[string]interface{}{
		"Version": "2012-10-17",
		"Statement": []map[string]interface{}{
			{
				"Effect":    "Allow",
				"Principal": "*",
				"Action":    "s3:GetObject",
				"Resource":  fmt.Sprintf("arn:aws:s3:::%s/*", bucket),
			},
		},
	}
	b, _ := json.Marshal(policy)
	return string(b)
}

var _ Store = (*MinioStore)(nil)

