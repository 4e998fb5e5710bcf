package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gallery/service/internal/access"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORAGE_ACCOUNT", "minioadmin")
	t.Setenv("STORAGE_KEY", "minioadmin")

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "uploads", cfg.StorageContainer)
	assert.Equal(t, "minio", cfg.StorageDriver)
	assert.False(t, cfg.StoragePublic)
	assert.False(t, cfg.Debug)
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, access.Private, cfg.AccessPolicy().Visibility)
}

func TestValidateRequiresCredentials(t *testing.T) {
	cfg := &Config{Port: "8080", StorageDriver: "minio", StorageContainer: "uploads"}
	err := cfg.Validate()
	require.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), "StorageAccount is required when STORAGE_CONNECTION_STRING is not set")
	assert.Contains(t, err.Error(), "StorageKey")

	cfg.StorageConnectionString = "Endpoint=minio:9000;AccountName=a;AccountKey=b"
	assert.NoError(t, cfg.Validate())
}

func TestValidateDriverAndBase(t *testing.T) {
	cfg := &Config{
		Port:              "8080",
		StorageDriver:     "gcs",
		StorageAccount:    "a",
		StorageKey:        "b",
		StorageContainer:  "uploads",
		StoragePublicBase: "not a url",
	}
	err := cfg.Validate()
	require.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), `StorageDriver must be one of [minio s3], got "gcs"`)
	assert.Contains(t, err.Error(), "StoragePublicBase")
}

func TestStorageOptionsFromConnectionString(t *testing.T) {
	cfg := &Config{
		StorageDriver:           "s3",
		StorageConnectionString: "DefaultEndpointsProtocol=https;Endpoint=s3.example.com;AccountName=app;AccountKey=secret",
		StorageEndpoint:         "localhost:9000",
		StorageRegion:           "us-east-1",
		StorageContainer:        "uploads",
		StoragePublic:           true,
	}
	opts := cfg.StorageOptions()
	assert.Equal(t, "s3", opts.Driver)
	assert.Equal(t, "s3.example.com", opts.Endpoint)
	assert.True(t, opts.UseSSL)
	assert.Equal(t, "app", opts.Account)
	assert.Equal(t, "secret", opts.Secret)
	assert.True(t, opts.Public)

	policy := cfg.AccessPolicy()
	assert.Equal(t, access.Public, policy.Visibility)
	account, secret, err := policy.SigningCredentials()
	require.NoError(t, err)
	assert.Equal(t, "app", account)
	assert.Equal(t, "secret", secret)
}

func TestBoolEnv(t *testing.T) {
	t.Setenv("STORAGE_PUBLIC", "TRUE")
	t.Setenv("DEBUG", "1")
	cfg := Load()
	assert.True(t, cfg.StoragePublic)
	assert.True(t, cfg.Debug)
}
