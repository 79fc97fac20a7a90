package history

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/quantified-ante/qabot/internal/metrics"
	"github.com/quantified-ante/qabot/internal/storage/models"
	"github.com/quantified-ante/qabot/pkg/logger"
)

type Store interface {
	Insert(ctx context.Context, rec *models.QAHistoryRecord) error
	Stats(ctx context.Context, guildID string, recentN int) (*models.QAStats, error)
	Count(ctx context.Context) (int64, error)
}

// Logger records question/answer outcomes without ever delaying the
// user-visible reply: Record is a one-way send into a bounded queue
// drained by a background goroutine. On overflow the record is dropped
// with a warning rather than blocking the command handler.
type Logger struct {
	store   Store
	queue   chan *models.QAHistoryRecord
	recentN int

	closeOnce sync.Once
	done      chan struct{}

	mu     sync.Mutex
	closed bool
}

func NewLogger(store Store, queueSize, recentN int) *Logger {
	if queueSize <= 0 {
		queueSize = 256
	}
	if recentN <= 0 {
		recentN = 5
	}

	l := &Logger{
		store:   store,
		queue:   make(chan *models.QAHistoryRecord, queueSize),
		recentN: recentN,
		done:    make(chan struct{}),
	}
	go l.drain()
	return l
}

// Record enqueues one history record. It never blocks and never returns
// an error to the caller; persistence failures are logged only.
func (l *Logger) Record(rec *models.QAHistoryRecord) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		logger.Warn("History logger closed, record dropped")
		metrics.HistoryDropped.Inc()
		return
	}
	select {
	case l.queue <- rec:
		l.mu.Unlock()
	default:
		l.mu.Unlock()
		metrics.HistoryDropped.Inc()
		logger.Warn("History queue full, record dropped",
			zap.String("user_id", rec.UserID),
			zap.Bool("success", rec.Success),
		)
	}
}

func (l *Logger) Stats(ctx context.Context, guildID string) (*models.QAStats, error) {
	return l.store.Stats(ctx, guildID, l.recentN)
}

func (l *Logger) Count(ctx context.Context) (int64, error) {
	return l.store.Count(ctx)
}

// Close stops accepting records, flushes the queue, and waits for the
// drain goroutine to finish.
func (l *Logger) Close() {
	l.closeOnce.Do(func() {
		l.mu.Lock()
		l.closed = true
		close(l.queue)
		l.mu.Unlock()
		<-l.done
	})
}

func (l *Logger) drain() {
	defer close(l.done)

	for rec := range l.queue {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := l.store.Insert(ctx, rec); err != nil {
			logger.Error("Failed to persist history record",
				zap.Error(err),
				zap.String("user_id", rec.UserID),
			)
		}
		cancel()
	}
}
