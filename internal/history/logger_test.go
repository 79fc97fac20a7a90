package history

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantified-ante/qabot/internal/storage/models"
)

type fakeStore struct {
	mu      sync.Mutex
	records []*models.QAHistoryRecord
	stats   *models.QAStats
	block   chan struct{}
}

func (f *fakeStore) Insert(ctx context.Context, rec *models.QAHistoryRecord) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, rec)
	return nil
}

func (f *fakeStore) Stats(ctx context.Context, guildID string, recentN int) (*models.QAStats, error) {
	if f.stats != nil {
		return f.stats, nil
	}
	return &models.QAStats{}, nil
}

func (f *fakeStore) Count(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.records)), nil
}

func (f *fakeStore) inserted() []*models.QAHistoryRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.QAHistoryRecord, len(f.records))
	copy(out, f.records)
	return out
}

func TestLogger_RecordPersistsInBackground(t *testing.T) {
	store := &fakeStore{}
	l := NewLogger(store, 8, 5)

	l.Record(&models.QAHistoryRecord{Question: "What is MMBM?", Success: true})
	l.Close()

	records := store.inserted()
	require.Len(t, records, 1)
	assert.Equal(t, "What is MMBM?", records[0].Question)
	assert.True(t, records[0].Success)
}

func TestLogger_RecordNeverBlocks(t *testing.T) {
	store := &fakeStore{block: make(chan struct{})}
	l := NewLogger(store, 1, 5)

	done := make(chan struct{})
	go func() {
		// First record occupies the drain goroutine, second fills the
		// queue, the rest must be dropped without blocking.
		for i := 0; i < 10; i++ {
			l.Record(&models.QAHistoryRecord{Question: "q"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Record blocked on a full queue")
	}

	close(store.block)
	l.Close()
}

func TestLogger_CloseFlushesQueue(t *testing.T) {
	store := &fakeStore{}
	l := NewLogger(store, 16, 5)

	for i := 0; i < 5; i++ {
		l.Record(&models.QAHistoryRecord{Question: "q"})
	}
	l.Close()

	assert.Len(t, store.inserted(), 5)
}

func TestLogger_RecordAfterCloseIsDropped(t *testing.T) {
	store := &fakeStore{}
	l := NewLogger(store, 8, 5)
	l.Close()

	assert.NotPanics(t, func() {
		l.Record(&models.QAHistoryRecord{Question: "late"})
	})
	assert.Empty(t, store.inserted())
}

func TestLogger_StatsZeroRecords(t *testing.T) {
	store := &fakeStore{stats: &models.QAStats{}}
	l := NewLogger(store, 8, 5)
	defer l.Close()

	stats, err := l.Stats(context.Background(), "guild-1")

	require.NoError(t, err)
	assert.Zero(t, stats.Total)
	assert.Zero(t, stats.SuccessRate)
	assert.Empty(t, stats.Recent)
}

func TestLogger_TwoIdenticalQuestionsTwoRecords(t *testing.T) {
	store := &fakeStore{}
	l := NewLogger(store, 8, 5)

	l.Record(&models.QAHistoryRecord{ID: "a", Question: "same"})
	l.Record(&models.QAHistoryRecord{ID: "b", Question: "same"})
	l.Close()

	records := store.inserted()
	require.Len(t, records, 2)
	assert.NotEqual(t, records[0].ID, records[1].ID)
}
