package gallery

import (
	"context"
	"fmt"
	"io"
	"iter"
	"sync"
	"time"

	"github.com/gallery/service/internal/storage"
)

type storedObject struct {
	data        []byte
	contentType string
	modified    time.Time
}

// memStore is an in-memory storage.Store for handler and service tests.
type memStore struct {
	mu        sync.Mutex
	objects   map[string]storedObject
	order     []string
	ensureErr error
	putErr    error
	listErr   error
	panicOn   string
}

func newMemStore() *memStore {
	return &memStore{objects: map[string]storedObject{}}
}

func (s *memStore) EnsureContainer(context.Context) (storage.Container, error) {
	if s.panicOn == "ensure" {
		panic("ensure exploded")
	}
	if s.ensureErr != nil {
		return nil, s.ensureErr
	}
	return &memContainer{s: s}, nil
}

func (s *memStore) add(key string, modified time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = storedObject{modified: modified}
	s.order = append(s.order, key)
}

type memContainer struct{ s *memStore }

func (c *memContainer) Name() string { return "uploads" }

func (c *memContainer) Put(_ context.Context, key string, body io.Reader, size int64, contentType string) error {
	if c.s.putErr != nil {
		return c.s.putErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	if size >= 0 && int64(len(data)) != size {
		return fmt.Errorf("size mismatch: %d != %d", len(data), size)
	}
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	if _, ok := c.s.objects[key]; !ok {
		c.s.order = append(c.s.order, key)
	}
	c.s.objects[key] = storedObject{data: data, contentType: contentType, modified: time.Now()}
	return nil
}

func (c *memContainer) List(context.Context) iter.Seq2[storage.Object, error] {
	return func(yield func(storage.Object, error) bool) {
		if c.s.listErr != nil {
			yield(storage.Object{}, c.s.listErr)
			return
		}
		c.s.mu.Lock()
		keys := append([]string(nil), c.s.order...)
		c.s.mu.Unlock()
		for _, k := range keys {
			if !yield(storage.Object{Key: k, LastModified: c.s.objects[k].modified}, nil) {
				return
			}
		}
	}
}

func (c *memContainer) ObjectURL(key string) string { return "http://store.local/uploads/" + key }

func (c *memContainer) SignedURL(_ context.Context, req storage.SignRequest) (string, error) {
	return fmt.Sprintf("%s?expires=%s&sig=x", c.ObjectURL(req.Key), req.Expiry), nil
}
