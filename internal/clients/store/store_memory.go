package store

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"turia/internal/clients/models"
	"turia/pkg/platform/sentinel"
)

// InMemoryStore keeps clients in a map. It is used when no database is
// configured and in tests.
type InMemoryStore struct {
	mu      sync.RWMutex
	txMu    sync.Mutex
	clients map[uuid.UUID]models.Client
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{clients: make(map[uuid.UUID]models.Client)}
}

func (s *InMemoryStore) Create(_ context.Context, client models.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.clients[client.ID]; exists {
		return sentinel.ErrConflict
	}
	if s.codeTaken(client.ClientCode, client.ID) {
		return sentinel.ErrConflict
	}
	s.clients[client.ID] = client
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id uuid.UUID) (models.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	client, ok := s.clients[id]
	if !ok {
		return models.Client{}, sentinel.ErrNotFound
	}
	return client, nil
}

func (s *InMemoryStore) List(_ context.Context, q models.ListQuery) ([]models.Client, int, error) {
	s.mu.RLock()
	matched := make([]models.Client, 0, len(s.clients))
	for _, c := range s.clients {
		if matches(c, q.Search) {
			matched = append(matched, c)
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(matched, func(a, b models.Client) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})

	total := len(matched)
	start := min(q.Offset(), total)
	end := min(start+q.Limit, total)
	return matched[start:end], total, nil
}

func (s *InMemoryStore) Update(_ context.Context, client models.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[client.ID]; !ok {
		return sentinel.ErrNotFound
	}
	if s.codeTaken(client.ClientCode, client.ID) {
		return sentinel.ErrConflict
	}
	s.clients[client.ID] = client
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, id uuid.UUID) (models.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	client, ok := s.clients[id]
	if !ok {
		return models.Client{}, sentinel.ErrNotFound
	}
	delete(s.clients, id)
	return client, nil
}

// RunInTx serializes fn against other RunInTx calls.
func (s *InMemoryStore) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return fn(ctx)
}

// codeTaken must be called with mu held.
func (s *InMemoryStore) codeTaken(code string, self uuid.UUID) bool {
	if code == "" {
		return false
	}
	for id, c := range s.clients {
		if id != self && c.ClientCode == code {
			return true
		}
	}
	return false
}

func matches(c models.Client, search string) bool {
	if search == "" {
		return true
	}
	needle := strings.ToLower(search)
	for _, field := range []string{c.BusinessName, c.ContactName, c.GSTIN} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}
