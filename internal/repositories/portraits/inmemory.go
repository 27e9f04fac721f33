package portraits

import (
	"context"
	"sync"
	"time"

	dnderr "github.com/KirkDiggler/charsheet/internal/errors"
	"github.com/KirkDiggler/charsheet/internal/uuid"
)

// InMemoryStore keeps portraits in a map
type InMemoryStore struct {
	mu        sync.RWMutex
	portraits map[string]*Portrait
	ids       uuid.Generator
	policy    Policy
}

// NewInMemoryStore creates an in-memory portrait store; maxBytes <= 0 uses DefaultMaxBytes
func NewInMemoryStore(maxBytes int) *InMemoryStore {
	return &InMemoryStore{
		portraits: make(map[string]*Portrait),
		ids:       uuid.NewULIDGenerator(),
		policy:    Policy{MaxBytes: maxBytes},
	}
}

// Put validates and stores an image
func (s *InMemoryStore) Put(ctx context.Context, contentType string, data []byte) (string, error) {
	stored, err := s.policy.Check(contentType, data)
	if err != nil {
		return "", err
	}

	ref := s.ids.New()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.portraits[ref] = &Portrait{
		Ref:         ref,
		ContentType: stored,
		Data:        append([]byte(nil), data...),
		CreatedAt:   time.Now().UTC(),
	}
	return ref, nil
}

// Get loads an image by ref
func (s *InMemoryStore) Get(ctx context.Context, ref string) (*Portrait, error) {
	if ref == "" {
		return nil, dnderr.InvalidArgument("portrait ref is required")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.portraits[ref]
	if !ok {
		return nil, notFound(ref)
	}
	out := *p
	out.Data = append([]byte(nil), p.Data...)
	return &out, nil
}

// Delete removes an image
func (s *InMemoryStore) Delete(ctx context.Context, ref string) error {
	if ref == "" {
		return dnderr.InvalidArgument("portrait ref is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.portraits[ref]; !ok {
		return notFound(ref)
	}
	delete(s.portraits, ref)
	return nil
}
