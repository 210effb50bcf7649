package database

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingExecer struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (e *countingExecer) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, sql)
	return pgconn.CommandTag{}, e.err
}

func (e *countingExecer) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.calls)
}

// TestWarmerRunsImmediatelyAndOnTick проверяет первый запрос и повторы по таймеру.
func TestWarmerRunsImmediatelyAndOnTick(t *testing.T) {
	db := &countingExecer{}
	w := NewWarmer(db, 10*time.Millisecond, nil, nil)

	w.Start(context.Background())
	require.Eventually(t, func() bool { return db.count() >= 3 }, time.Second, 5*time.Millisecond)
	w.Stop()

	db.mu.Lock()
	defer db.mu.Unlock()
	assert.Equal(t, warmupQuery, db.calls[0])
}

// TestWarmerStopHaltsQueries проверяет, что после Stop запросы прекращаются.
func TestWarmerStopHaltsQueries(t *testing.T) {
	db := &countingExecer{}
	w := NewWarmer(db, 5*time.Millisecond, nil, nil)

	w.Start(context.Background())
	require.Eventually(t, func() bool { return db.count() >= 1 }, time.Second, time.Millisecond)
	w.Stop()

	after := db.count()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, db.count())

	// повторная остановка безопасна
	w.Stop()
}

// TestWarmerReportsErrors проверяет передачу ошибок наблюдателю.
func TestWarmerReportsErrors(t *testing.T) {
	db := &countingExecer{err: errors.New("connection refused")}

	var mu sync.Mutex
	var observed []error
	w := NewWarmer(db, time.Hour, nil, func(err error) {
		mu.Lock()
		defer mu.Unlock()
		observed = append(observed, err)
	})

	w.Start(context.Background())
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(observed) == 1
	}, time.Second, time.Millisecond)
	w.Stop()

	mu.Lock()
	defer mu.Unlock()
	assert.EqualError(t, observed[0], "connection refused")
}

// TestWarmerStartIsIdempotent проверяет, что повторный Start не запускает вторую горутину.
func TestWarmerStartIsIdempotent(t *testing.T) {
	db := &countingExecer{}
	w := NewWarmer(db, time.Hour, nil, nil)

	w.Start(context.Background())
	w.Start(context.Background())
	require.Eventually(t, func() bool { return db.count() >= 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	w.Stop()

	assert.Equal(t, 1, db.count())
}
