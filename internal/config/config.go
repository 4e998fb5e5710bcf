// Package config loads application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/gallery/service/internal/access"
	"github.com/gallery/service/internal/storage"
)

// ErrInvalid wraps every configuration problem found by Validate. The
// process must not start serving when it is returned.
var ErrInvalid = errors.New("invalid configuration")

// Config holds all runtime configuration for the service. It is read once
// at startup and not modified afterwards.
type Config struct {
	Port   string `validate:"required,numeric"`
	AppEnv string
	Debug  bool

	// Object storage (S3-compatible: MinIO locally, AWS S3 or any compatible provider in production).
	// Credentials come either from StorageConnectionString or from
	// StorageAccount + StorageKey.
	StorageDriver           string `validate:"oneof=minio s3"`
	StorageConnectionString string
	StorageAccount          string `validate:"required_without=StorageConnectionString"`
	StorageKey              string `validate:"required_without=StorageConnectionString"`
	StorageEndpoint         string
	StorageRegion           string
	StorageUseSSL           bool
	StorageContainer        string `validate:"required"`
	StoragePublic           bool
	StoragePublicBase       string `validate:"omitempty,url"` // browser-accessible base URL, e.g. "https://cdn.example.com/uploads"
}

// Load reads configuration from a .env file (if present) and environment variables.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, reading from environment")
	}

	return &Config{
		Port:   getEnv("PORT", "8080"),
		AppEnv: getEnv("APP_ENV", "development"),
		Debug:  getBool("DEBUG", false),

		StorageDriver:           getEnv("STORAGE_DRIVER", storage.DriverMinio),
		StorageConnectionString: getEnv("STORAGE_CONNECTION_STRING", ""),
		StorageAccount:          getEnv("STORAGE_ACCOUNT", ""),
		StorageKey:              getEnv("STORAGE_KEY", ""),
		StorageEndpoint:         getEnv("STORAGE_ENDPOINT", "localhost:9000"),
		StorageRegion:           getEnv("STORAGE_REGION", "us-east-1"),
		StorageUseSSL:           getBool("STORAGE_USE_SSL", false),
		StorageContainer:        getEnv("STORAGE_CONTAINER", "uploads"),
		StoragePublic:           getBool("STORAGE_PUBLIC", false),
		StoragePublicBase:       getEnv("STORAGE_PUBLIC_BASE", ""),
	}
}

// Validate reports missing credentials and malformed values.
func (c *Config) Validate() error {
	err := validator.New().Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required_without":
		return fmt.Sprintf("%s is required when STORAGE_CONNECTION_STRING is not set", fe.Field())
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", fe.Field(), fe.Param(), fe.Value())
	default:
		return fmt.Sprintf("%s fails %q", fe.Field(), fe.Tag())
	}
}

// IsProduction returns true when the app is running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// StorageOptions returns the store settings. Values in the connection
// string override the individual variables.
func (c *Config) StorageOptions() storage.Options {
	opts := storage.Options{
		Driver:     c.StorageDriver,
		Endpoint:   c.StorageEndpoint,
		Region:     c.StorageRegion,
		UseSSL:     c.StorageUseSSL,
		Account:    c.StorageAccount,
		Secret:     c.StorageKey,
		Container:  c.StorageContainer,
		Public:     c.StoragePublic,
		PublicBase: c.StoragePublicBase,
	}
	if c.StorageConnectionString != "" {
		storage.ParseConnectionString(c.StorageConnectionString).Apply(&opts)
	}
	return opts
}

// AccessPolicy returns how object URLs are handed out.
func (c *Config) AccessPolicy() access.Policy {
	p := access.Policy{
		Visibility:       access.Private,
		Account:          c.StorageAccount,
		Secret:           c.StorageKey,
		ConnectionString: c.StorageConnectionString,
	}
	if c.StoragePublic {
		p.Visibility = access.Public
	}
	return p
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return strings.EqualFold(v, "true") || v == "1"
}
