// Package catalog builds the gallery listing from the objects in the store.
package catalog

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gallery/service/internal/image"
	"github.com/gallery/service/internal/storage"
)

// TimeLayout is how LastModified is rendered.
const TimeLayout = "2006-01-02 15:04"

// UnknownTime replaces a missing modification time.
const UnknownTime = "Unknown"

// Entry is one image in the listing.
type Entry struct {
	Key          string `json:"key"`
	DisplayName  string `json:"display_name"`
	URL          string `json:"url"`
	LastModified string `json:"last_modified"`
}

// URLResolver produces the link for a stored key.
type URLResolver interface {
	ResolveURL(ctx context.Context, c storage.Container, key string) string
}

// Builder lists the container and turns image objects into entries.
type Builder struct {
	store    storage.Store
	resolver URLResolver
	log      *zap.Logger
}

// NewBuilder creates a Builder.
func NewBuilder(store storage.Store, resolver URLResolver, log *zap.Logger) *Builder {
	return &Builder{store: store, resolver: resolver, log: log.Named("catalog")}
}

// Build returns every image in the container, newest first. URLs are
// resolved on each call and never cached. Store failures are returned
// wrapped; a partial listing is never returned.
func (b *Builder) Build(ctx context.Context) ([]Entry, error) {
	c, err := b.store.EnsureContainer(ctx)
	if err != nil {
		return nil, fmt.Errorf("ensure container: %w", err)
	}

	entries := []Entry{}
	skipped := 0
	for obj, err := range c.List(ctx) {
		if err != nil {
			return nil, fmt.Errorf("list %q: %w", c.Name(), err)
		}
		if !image.IsImageKey(obj.Key) {
			skipped++
			continue
		}
		entries = append(entries, Entry{
			Key:          obj.Key,
			DisplayName:  image.DisplayName(obj.Key),
			URL:          b.resolver.ResolveURL(ctx, c, obj.Key),
			LastModified: FormatTime(obj.LastModified),
		})
	}
	if skipped > 0 {
		b.log.Debug("skipped non-image objects", zap.Int("count", skipped))
	}

	Sort(entries)
	return entries, nil
}

// FormatTime renders t in UTC, or UnknownTime for the zero time.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return UnknownTime
	}
	return t.UTC().Format(TimeLayout)
}

// Sort orders entries by their rendered LastModified string, descending.
// The comparison is on the string, so UnknownTime sorts ahead of dates.
func Sort(entries []Entry) {
	slices.SortStableFunc(entries, func(a, b Entry) int {
		return strings.Compare(b.LastModified, a.LastModified)
	})
}
