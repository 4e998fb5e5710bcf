// Package access turns stored keys into URLs a browser can open: the bare
// object URL for public containers, a one-hour signed URL otherwise.
package access

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/gallery/service/internal/storage"
)

// Visibility of a container's objects.
type Visibility int

const (
	Private Visibility = iota
	Public
)

func (v Visibility) String() string {
	if v == Public {
		return "public"
	}
	return "private"
}

// DeadLink is returned in place of a URL that could not be produced.
const DeadLink = "#"

// SignedURLTTL is how long a signed URL stays valid.
const SignedURLTTL = time.Hour

// ErrSigningUnavailable means a private container has no secret to sign with.
var ErrSigningUnavailable = errors.New("access: no signing secret available")

// Policy is fixed at startup.
type Policy struct {
	Visibility Visibility
	// Account and Secret sign URLs. When Secret is empty it is looked up
	// as AccountKey in ConnectionString.
	Account          string
	Secret           string
	ConnectionString string
}

// SigningCredentials resolves the account and secret to sign with: the
// explicit secret first, then AccountKey from the connection string.
func (p Policy) SigningCredentials() (account, secret string, err error) {
	cs := storage.ParseConnectionString(p.ConnectionString)

	account = p.Account
	if account == "" {
		account, _ = cs.Get(storage.ConnAccount)
	}

	secret = p.Secret
	if secret == "" {
		secret, _ = cs.Get(storage.ConnKey)
	}
	if secret == "" {
		return "", "", ErrSigningUnavailable
	}
	return account, secret, nil
}

// Observer is told about links that degraded to DeadLink.
type Observer interface {
	SigningFailed(reason string)
}

// Resolver resolves keys of one container.
type Resolver struct {
	policy   Policy
	observer Observer
	log      *zap.Logger
}

// NewResolver creates a Resolver. observer may be nil.
func NewResolver(policy Policy, observer Observer, log *zap.Logger) *Resolver {
	return &Resolver{policy: policy, observer: observer, log: log.Named("access")}
}

// ResolveURL returns the URL for key in c. It never fails: when a signed
// URL cannot be produced the error is logged and DeadLink is returned.
func (r *Resolver) ResolveURL(ctx context.Context, c storage.Container, key string) string {
	if r.policy.Visibility == Public {
		return c.ObjectURL(key)
	}

	account, secret, err := r.policy.SigningCredentials()
	if err != nil {
		r.log.Error("cannot sign URL", zap.String("key", key), zap.Error(err))
		r.signingFailed("no_secret")
		return DeadLink
	}

	u, err := c.SignedURL(ctx, storage.SignRequest{
		Account: account,
		Secret:  secret,
		Key:     key,
		Expiry:  SignedURLTTL,
	})
	if err != nil {
		r.log.Error("sign URL", zap.String("key", key), zap.Error(err))
		r.signingFailed("sign_error")
		return DeadLink
	}
	return u
}

func (r *Resolver) signingFailed(reason string) {
	if r.observer != nil {
		r.observer.SigningFailed(reason)
	}
}
