package editor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/mind-engage/mindengage-qbank/internal/question"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestRegistryLifecycle(t *testing.T) {
	r := NewRegistry(time.Hour, zaptest.NewLogger(t))
	defer r.Close()

	s := r.New("ana")
	require.NotEmpty(t, s.ID)
	got, err := r.Get(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)

	got, err = r.GetOwned(s.ID, "ana")
	require.NoError(t, err)
	assert.Same(t, s, got)
	_, err = r.GetOwned(s.ID, "bob")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	require.NoError(t, r.Delete(s.ID))
	_, err = r.Get(s.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, r.Delete(s.ID), ErrSessionNotFound)
}

func TestRegistrySweep(t *testing.T) {
	r := NewRegistry(time.Hour, nil)
	defer r.Close()

	base := time.Now()
	idle := r.New("")
	active := r.New("")
	setTouched(idle, base)
	setTouched(active, base.Add(50*time.Minute))

	assert.Equal(t, 0, r.Sweep(base.Add(30*time.Minute)))
	assert.Equal(t, 1, r.Sweep(base.Add(61*time.Minute)))
	_, err := r.Get(idle.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = r.Get(active.ID)
	assert.NoError(t, err)
}

func setTouched(s *Session, at time.Time) {
	s.touched.Store(at.UnixNano())
}

// blockingStore parks Create until release is closed.
type blockingStore struct {
	question.Store
	entered chan struct{}
	release chan struct{}
}

func (b blockingStore) Create(ctx context.Context, q question.Question) (question.Question, error) {
	close(b.entered)
	<-b.release
	return question.Question{}, context.Canceled
}

func TestRegistrySweepDoesNotWaitOnBusySession(t *testing.T) {
	r := NewRegistry(time.Hour, nil)
	defer r.Close()

	busy := r.New("ana")
	other := r.New("bob")
	busy.SetQuestion("$q$")
	fill(t, busy)

	store := blockingStore{entered: make(chan struct{}), release: make(chan struct{})}
	submitted := make(chan error, 1)
	go func() {
		_, err := busy.Submit(context.Background(), store)
		submitted <- err
	}()
	<-store.entered

	swept := make(chan int, 1)
	go func() { swept <- r.Sweep(time.Now()) }()

	got := make(chan error, 1)
	go func() {
		_, err := r.Get(other.ID)
		got <- err
	}()
	select {
	case err := <-got:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Error("Get blocked behind a session stuck in Submit")
	}
	select {
	case n := <-swept:
		assert.Equal(t, 0, n)
	case <-time.After(2 * time.Second):
		t.Error("Sweep blocked behind a session stuck in Submit")
	}

	close(store.release)
	assert.Error(t, <-submitted)
	assert.Equal(t, "$q$", busy.View().Question)
}

func TestRegistryBackgroundEviction(t *testing.T) {
	r := NewRegistry(20*time.Millisecond, nil)
	r.New("")
	require.Eventually(t, func() bool { return r.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
	r.Close()
	r.Close()
}
