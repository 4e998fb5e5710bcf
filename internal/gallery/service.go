// Package gallery wires the upload gate, the object store and the catalog
// into the two operations the HTTP layer calls: upload and listing.
package gallery

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"runtime/debug"
	"time"

	"go.uber.org/zap"

	"github.com/gallery/service/internal/catalog"
	"github.com/gallery/service/internal/image"
	"github.com/gallery/service/internal/metrics"
	"github.com/gallery/service/internal/storage"
)

// MaxUploadSize is the largest accepted image, in bytes.
const MaxUploadSize = 10 << 20

// Outcome classifies an upload.
type Outcome int

const (
	Accepted Outcome = iota + 1
	RejectedInvalidType
	RejectedTooLarge
	StoreFailure
	// Failed is an unexpected internal fault.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Accepted:
		return "accepted"
	case RejectedInvalidType:
		return "rejected_invalid_type"
	case RejectedTooLarge:
		return "rejected_too_large"
	case StoreFailure:
		return "store_failure"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// UploadRequest is one file to store. Size is -1 when unknown.
type UploadRequest struct {
	Filename    string
	ContentType string
	Body        io.Reader
	Size        int64
}

// Result of HandleUpload. Key is set only when the upload was accepted.
type Result struct {
	Outcome Outcome
	Key     string
	Err     error
}

// Listing is the result of HandleListing. When Err is set Entries is empty
// and the caller should warn that the listing could not be loaded.
type Listing struct {
	Entries []catalog.Entry
	Err     error
}

// Service implements the gallery operations.
type Service struct {
	store   storage.Store
	catalog *catalog.Builder
	metrics *metrics.Metrics
	log     *zap.Logger
}

// NewService creates a new gallery Service. m may be nil.
func NewService(store storage.Store, builder *catalog.Builder, m *metrics.Metrics, log *zap.Logger) *Service {
	return &Service{store: store, catalog: builder, metrics: m, log: log.Named("gallery")}
}

// HandleUpload validates req, stores it under a fresh key and reports the
// outcome. It does not panic: internal faults come back as Failed.
func (s *Service) HandleUpload(ctx context.Context, req UploadRequest) (res Result) {
	defer func() {
		if p := recover(); p != nil {
			s.log.Error("upload panicked", zap.Any("panic", p), zap.ByteString("stack", debug.Stack()))
			res = Result{Outcome: Failed, Err: fmt.Errorf("upload: panic: %v", p)}
		}
		s.metrics.UploadFinished(res.Outcome.String(), req.Size)
	}()

	if err := image.Validate(req.Filename, req.ContentType); err != nil {
		s.log.Info("upload rejected", zap.String("filename", req.Filename), zap.Error(err))
		return Result{Outcome: RejectedInvalidType, Err: err}
	}

	body, size, err := boundedBody(req.Body, req.Size)
	if err != nil {
		return s.putFailed(req, err)
	}

	key, err := image.MakeKey(req.Filename)
	if err != nil {
		return s.putFailed(req, err)
	}

	c, err := s.store.EnsureContainer(ctx)
	if err != nil {
		return s.putFailed(req, err)
	}
	if err := c.Put(ctx, key, body, size, image.ContentType(req.Filename)); err != nil {
		return s.putFailed(req, err)
	}

	s.log.Info("uploaded", zap.String("key", key), zap.Int64("size", size))
	return Result{Outcome: Accepted, Key: key}
}

var errTooLarge = errors.New("upload exceeds maximum size")

// boundedBody enforces MaxUploadSize. Bodies of unknown size are buffered
// so the store gets an exact length.
func boundedBody(body io.Reader, size int64) (io.Reader, int64, error) {
	if size > MaxUploadSize {
		return nil, 0, errTooLarge
	}
	if size >= 0 {
		return body, size, nil
	}
	data, err := io.ReadAll(io.LimitReader(body, MaxUploadSize+1))
	if err != nil {
		return nil, 0, fmt.Errorf("read upload: %w", err)
	}
	if len(data) > MaxUploadSize {
		return nil, 0, errTooLarge
	}
	return bytes.NewReader(data), int64(len(data)), nil
}

func (s *Service) putFailed(req UploadRequest, err error) Result {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.Is(err, errTooLarge), errors.As(err, &maxBytes):
		s.log.Info("upload rejected", zap.String("filename", req.Filename), zap.Error(err))
		return Result{Outcome: RejectedTooLarge, Err: err}
	case errors.Is(err, storage.ErrUnavailable):
		s.log.Error("upload to store failed", zap.String("filename", req.Filename), zap.Error(err))
		return Result{Outcome: StoreFailure, Err: err}
	default:
		s.log.Error("upload failed", zap.String("filename", req.Filename), zap.Error(err))
		return Result{Outcome: Failed, Err: err}
	}
}

// HandleListing returns the catalog. It never fails: on any error the
// listing is empty and Err says why.
func (s *Service) HandleListing(ctx context.Context) (l Listing) {
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			s.log.Error("listing panicked", zap.Any("panic", p), zap.ByteString("stack", debug.Stack()))
			l = Listing{Entries: []catalog.Entry{}, Err: fmt.Errorf("listing: panic: %v", p)}
		}
		s.metrics.ListingFinished(time.Since(start), len(l.Entries), l.Err)
	}()

	entries, err := s.catalog.Build(ctx)
	if err != nil {
		s.log.Error("listing images", zap.Error(err))
		return Listing{Entries: []catalog.Entry{}, Err: err}
	}
	return Listing{Entries: entries}
}
