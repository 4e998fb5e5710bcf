// Package storage is the gateway to the remote object store that holds
// uploaded images. Two drivers share one interface: MinIO (any
// S3-compatible provider through minio-go) and AWS S3 (aws-sdk-go-v2).
// Pick one with Options.Driver; callers only see Store and Container.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"time"

	"go.uber.org/zap"
)

// Supported drivers.
const (
	DriverMinio = "minio"
	DriverS3    = "s3"
)

// ErrUnavailable wraps every failure to reach or use the backend:
// transport errors, bad credentials, missing permissions.
var ErrUnavailable = errors.New("storage unavailable")

// Object is one stored object as reported by a listing. A zero
// LastModified means the backend did not report one.
type Object struct {
	Key          string
	LastModified time.Time
}

// SignRequest describes a read-only signed URL. Account and Secret are the
// credentials the signature is computed with.
type SignRequest struct {
	Account string
	Secret  string
	Key     string
	Expiry  time.Duration
}

// Store owns the connection to the backend.
type Store interface {
	// EnsureContainer creates the configured container if it is missing
	// and returns a handle to it. Calling it repeatedly is safe.
	EnsureContainer(ctx context.Context) (Container, error)
}

// Container is a handle to one bucket.
type Container interface {
	// Name is the bucket name.
	Name() string
	// Put uploads body under key, replacing any existing object.
	// size may be -1 when unknown.
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	// List enumerates every object lazily, in backend order. Iteration stops
	// after the first error.
	List(ctx context.Context) iter.Seq2[Object, error]
	// ObjectURL is the unsigned URL of key.
	ObjectURL(key string) string
	// SignedURL is a GET-only URL of req.Key valid for req.Expiry.
	SignedURL(ctx context.Context, req SignRequest) (string, error)
}

// Options configures a Store.
type Options struct {
	Driver     string
	Endpoint   string // host[:port]; empty means the provider default (s3 only)
	Region     string
	UseSSL     bool
	Account    string // access key id; empty falls back to the environment chain
	Secret     string
	Container  string
	Public     bool
	PublicBase string // optional browser-facing base URL for public objects
}

// Open builds the Store selected by opts.Driver.
func Open(ctx context.Context, opts Options, log *zap.Logger) (Store, error) {
	if opts.Container == "" {
		return nil, errors.New("storage: container name is required")
	}
	switch opts.Driver {
	case DriverMinio, "":
		return NewMinioStore(opts, log)
	case DriverS3:
		return NewS3Store(ctx, opts, log)
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", opts.Driver)
	}
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}
