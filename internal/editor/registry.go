package editor

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrSessionNotFound = errors.New("session not found")

const DefaultTTL = 2 * time.Hour

// Registry keeps the open editing sessions. Sessions idle for longer than the
// TTL are evicted by a background sweeper until Close is called.
type Registry struct {
	ttl time.Duration
	log *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*Session

	stop chan struct{}
	done chan struct{}
	once sync.Once
}

func NewRegistry(ttl time.Duration, log *zap.Logger) *Registry {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if log == nil {
		log = zap.NewNop()
	}
	r := &Registry{
		ttl:      ttl,
		log:      log,
		sessions: map[string]*Session{},
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go r.sweepLoop(sweepInterval(ttl))
	return r
}

func sweepInterval(ttl time.Duration) time.Duration {
	iv := ttl / 4
	if iv < 10*time.Millisecond {
		iv = 10 * time.Millisecond
	}
	if iv > time.Minute {
		iv = time.Minute
	}
	return iv
}

// New opens a blank session owned by owner.
func (r *Registry) New(owner string) *Session {
	s := NewSession(uuid.NewString(), owner)
	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	r.log.Debug("session opened", zap.String("session", s.ID), zap.String("owner", owner))
	return s
}

func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// GetOwned is Get for a session opened by owner. Sessions of other owners
// are reported as not found.
func (r *Registry) GetOwned(id, owner string) (*Session, error) {
	s, err := r.Get(id)
	if err != nil {
		return nil, err
	}
	if s.Owner != owner {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(r.sessions, id)
	return nil
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep evicts sessions idle since before now-ttl and returns how many went.
// It never waits on a session's own lock, so a submit blocked in the store
// does not stall the registry.
func (r *Registry) Sweep(now time.Time) int {
	cutoff := now.Add(-r.ttl)
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, s := range r.sessions {
		if s.idleSince().Before(cutoff) {
			delete(r.sessions, id)
			n++
		}
	}
	if n > 0 {
		r.log.Info("evicted idle sessions", zap.Int("count", n), zap.Int("open", len(r.sessions)))
	}
	return n
}

func (r *Registry) sweepLoop(every time.Duration) {
	defer close(r.done)
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-r.stop:
			return
		case now := <-t.C:
			r.Sweep(now)
		}
	}
}

// Close stops the sweeper and waits for it to exit. Safe to call twice.
func (r *Registry) Close() {
	r.once.Do(func() { close(r.stop) })
	<-r.done
}
