package storage

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testOptions(driver string) Options {
	return Options{
		Driver:    driver,
		Endpoint:  "localhost:9000",
		Region:    "us-east-1",
		Account:   "minioadmin",
		Secret:    "minioadmin",
		Container: "uploads",
	}
}

// offlineBucket returns a handle without calling EnsureContainer, which
// would need a live backend.
func offlineBucket(t *testing.T, driver string) Container {
	t.Helper()
	store, err := Open(context.Background(), testOptions(driver), zap.NewNop())
	require.NoError(t, err)

	switch s := store.(type) {
	case *MinioStore:
		return &minioBucket{store: s, name: "uploads"}
	case *S3Store:
		return &s3Bucket{store: s, name: "uploads"}
	}
	t.Fatalf("unexpected store %T", store)
	return nil
}

func TestSignedURL(t *testing.T) {
	for _, driver := range []string{DriverMinio, DriverS3} {
		t.Run(driver, func(t *testing.T) {
			bucket := offlineBucket(t, driver)

			before := time.Now().UTC().Truncate(time.Second)
			raw, err := bucket.SignedURL(context.Background(), SignRequest{
				Account: "reader",
				Secret:  "s3cr3t",
				Key:     "0123_photo.jpg",
				Expiry:  time.Hour,
			})
			require.NoError(t, err)
			after := time.Now().UTC()

			u, err := url.Parse(raw)
			require.NoError(t, err)
			assert.Equal(t, "localhost:9000", u.Host)
			assert.Equal(t, "/uploads/0123_photo.jpg", u.Path)

			q := u.Query()
			assert.Equal(t, "3600", q.Get("X-Amz-Expires"))
			assert.NotEmpty(t, q.Get("X-Amz-Signature"))
			assert.True(t, strings.HasPrefix(q.Get("X-Amz-Credential"), "reader/"))

			signedAt, err := time.Parse("20060102T150405Z", q.Get("X-Amz-Date"))
			require.NoError(t, err)
			assert.False(t, signedAt.Before(before))
			assert.False(t, signedAt.After(after))
		})
	}
}

func TestObjectURL(t *testing.T) {
	for _, driver := range []string{DriverMinio, DriverS3} {
		t.Run(driver, func(t *testing.T) {
			bucket := offlineBucket(t, driver)
			got := bucket.ObjectURL("0123_photo.jpg")
			assert.Equal(t, "http://localhost:9000/uploads/0123_photo.jpg", got)
			assert.NotContains(t, got, "?")
		})
	}
}

func TestObjectURLPublicBase(t *testing.T) {
	opts := testOptions(DriverMinio)
	opts.PublicBase = "https://cdn.example.com/img/"
	store, err := NewMinioStore(opts, zap.NewNop())
	require.NoError(t, err)

	bucket := &minioBucket{store: store, name: "uploads"}
	assert.Equal(t, "https://cdn.example.com/img/k.png", bucket.ObjectURL("k.png"))
}

func TestS3ObjectURLDefaultEndpoint(t *testing.T) {
	opts := testOptions(DriverS3)
	opts.Endpoint = ""
	opts.Region = "eu-central-1"
	store, err := NewS3Store(context.Background(), opts, zap.NewNop())
	require.NoError(t, err)

	bucket := &s3Bucket{store: store, name: "uploads"}
	assert.Equal(t, "https://uploads.s3.eu-central-1.amazonaws.com/k.png", bucket.ObjectURL("k.png"))
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	opts := testOptions("gcs")
	_, err := Open(context.Background(), opts, zap.NewNop())
	assert.Error(t, err)

	opts = testOptions(DriverMinio)
	opts.Container = ""
	_, err = Open(context.Background(), opts, zap.NewNop())
	assert.Error(t, err)
}
