package question

import (
	"context"
	"sort"
	"sync"
	"time"
)

type memoryStore struct {
	mu        sync.RWMutex
	counter   int64
	questions map[int64]Question
}

// NewInMemoryStore returns a Store that lives only as long as the process.
func NewInMemoryStore() Store {
	return &memoryStore{questions: map[int64]Question{}}
}

func (m *memoryStore) Create(ctx context.Context, q Question) (Question, error) {
	if err := ctx.Err(); err != nil {
		return Question{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	q.ID = m.counter
	q.CreatedAt = time.Now().Unix()
	m.questions[q.ID] = q
	return q, nil
}

func (m *memoryStore) Get(_ context.Context, id int64) (Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q, ok := m.questions[id]
	if !ok {
		return Question{}, ErrNotFound
	}
	return q, nil
}

func (m *memoryStore) List(_ context.Context, opts ListOpts) ([]Question, error) {
	m.mu.RLock()
	out := make([]Question, 0, len(m.questions))
	for _, q := range m.questions {
		out = append(out, q)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if opts.Offset < 0 {
		opts.Offset = 0
	}
	if opts.Offset >= len(out) {
		return []Question{}, nil
	}
	out = out[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(out) {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (m *memoryStore) Update(_ context.Context, q Question) (Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.questions[q.ID]
	if !ok {
		return Question{}, ErrNotFound
	}
	q.CreatedAt = old.CreatedAt
	m.questions[q.ID] = q
	return q, nil
}

func (m *memoryStore) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.questions[id]; !ok {
		return ErrNotFound
	}
	delete(m.questions, id)
	return nil
}
