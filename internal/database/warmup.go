package database

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	warmupQuery   = `SELECT 1 FROM recipes LIMIT 1`
	warmupTimeout = 10 * time.Second
)

// Execer выполняет запрос без чтения строк. Реализуется *pgxpool.Pool.
type Execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// Warmer периодически выполняет легкий запрос, чтобы пул и база не засыпали.
type Warmer struct {
	db       Execer
	interval time.Duration
	logger   *slog.Logger
	observe  func(error)

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewWarmer создает фоновую задачу прогрева. observe вызывается после каждого запроса и может быть nil.
func NewWarmer(db Execer, interval time.Duration, logger *slog.Logger, observe func(error)) *Warmer {
	if logger == nil {
		logger = slog.Default()
	}
	if observe == nil {
		observe = func(error) {}
	}

	return &Warmer{
		db:       db,
		interval: interval,
		logger:   logger,
		observe:  observe,
	}
}

// Start запускает прогрев: первый запрос сразу, затем раз в interval. Повторный вызов ничего не делает.
func (w *Warmer) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cancel != nil {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})

	go w.run(runCtx, w.done)
}

// Stop останавливает прогрев и дожидается завершения горутины.
func (w *Warmer) Stop() {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.cancel, w.done = nil, nil
	w.mu.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	<-done
}

func (w *Warmer) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	w.ping(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.ping(ctx)
		}
	}
}

func (w *Warmer) ping(ctx context.Context) {
	queryCtx, cancel := context.WithTimeout(ctx, warmupTimeout)
	defer cancel()

	_, err := w.db.Exec(queryCtx, warmupQuery)
	if ctx.Err() != nil {
		return
	}

	w.observe(err)
	if err != nil {
		w.logger.Warn("database warmup failed", slog.String("error", err.Error()))
		return
	}

	w.logger.Debug("database warmup completed")
}
