package draft

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type saveRecorder struct {
	mu    sync.Mutex
	calls []Fields
	err   error
}

func (r *saveRecorder) save(ctx context.Context, fields Fields) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.calls = append(r.calls, fields)
	return nil
}

func (r *saveRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func (r *saveRecorder) last() Fields {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[len(r.calls)-1]
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestRapidEditsCollapseToOneSave(t *testing.T) {
	rec := &saveRecorder{}
	saver := New(Fields{}, 30*time.Millisecond, rec.save, nil)
	defer saver.Close()

	for _, title := range []string{"a", "ab", "abc", "abcd"} {
		saver.Update(Fields{Title: title})
		time.Sleep(5 * time.Millisecond)
	}

	waitFor(t, func() bool { return rec.count() == 1 })
	assert.Equal(t, "abcd", rec.last().Title)
	assert.False(t, saver.Dirty())
}

func TestRevertDisarmsTimer(t *testing.T) {
	rec := &saveRecorder{}
	initial := Fields{Title: "original"}
	saver := New(initial, 20*time.Millisecond, rec.save, nil)
	defer saver.Close()

	saver.Update(Fields{Title: "changed"})
	saver.Update(initial) // back to the saved snapshot

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 0, rec.count())
	assert.False(t, saver.Dirty())
}

func TestFailedSaveStaysDirty(t *testing.T) {
	rec := &saveRecorder{err: errors.New("boom")}
	saver := New(Fields{}, 10*time.Millisecond, rec.save, nil)

	saver.Update(Fields{Title: "x"})
	err := saver.Flush(context.Background())
	require.Error(t, err)
	assert.True(t, saver.Dirty())

	// Clearing the failure lets the next flush land.
	rec.mu.Lock()
	rec.err = nil
	rec.mu.Unlock()
	require.NoError(t, saver.Flush(context.Background()))
	assert.False(t, saver.Dirty())
	_ = saver.Close()
}

func TestCloseFlushesPendingEdit(t *testing.T) {
	rec := &saveRecorder{}
	// A long quiet period, so only Close can trigger the save.
	saver := New(Fields{}, time.Minute, rec.save, nil)

	saver.Update(Fields{Title: "last keystrokes"})
	require.NoError(t, saver.Close())

	require.Equal(t, 1, rec.count())
	assert.Equal(t, "last keystrokes", rec.last().Title)
}

func TestCloseIdempotent(t *testing.T) {
	rec := &saveRecorder{}
	saver := New(Fields{}, time.Minute, rec.save, nil)
	saver.Update(Fields{Title: "x"})
	require.NoError(t, saver.Close())
	require.NoError(t, saver.Close())
	assert.Equal(t, 1, rec.count())
}

func TestUpdateAfterCloseIgnored(t *testing.T) {
	rec := &saveRecorder{}
	saver := New(Fields{}, 10*time.Millisecond, rec.save, nil)
	require.NoError(t, saver.Close())

	saver.Update(Fields{Title: "late"})
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, 0, rec.count())
}

func TestOnSaveCallback(t *testing.T) {
	rec := &saveRecorder{}
	var mu sync.Mutex
	var acked []Fields
	saver := New(Fields{}, 10*time.Millisecond, rec.save, func(f Fields) {
		mu.Lock()
		acked = append(acked, f)
		mu.Unlock()
	})
	defer saver.Close()

	saver.Update(Fields{Title: "x"})
	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(acked) == 1
	})
	mu.Lock()
	assert.Equal(t, "x", acked[0].Title)
	mu.Unlock()
}
