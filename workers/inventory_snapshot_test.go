package workers

import (
	"context"
	"errors"
	"testing"

	"match-ticket-system/models"
	"match-ticket-system/store"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type matchLister struct {
	store.Reader
	matches []models.Match
	err     error
}

func (l matchLister) ListMatches(context.Context) ([]models.Match, error) {
	return l.matches, l.err
}

func TestPublishWritesHash(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	cache := NewAvailabilityCache(rdb)

	mock.ExpectEval(lowerOnlySrc, []string{AvailabilityKey}, "1", 40, "2", 0).SetVal(int64(0))
	cache.Publish(context.Background(), &models.Match{ID: 1, AvailableTickets: 40}, &models.Match{ID: 2})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPublishSwallowsRedisErrors(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	cache := NewAvailabilityCache(rdb)

	mock.ExpectEval(lowerOnlySrc, []string{AvailabilityKey}, "3", 7).SetErr(errors.New("connection refused"))
	assert.NotPanics(t, func() {
		cache.Publish(context.Background(), &models.Match{ID: 3, AvailableTickets: 7})
	})
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestForget(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	cache := NewAvailabilityCache(rdb)

	mock.ExpectHDel(AvailabilityKey, "9").SetVal(1)
	cache.Forget(context.Background(), 9)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotParsesFields(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	cache := NewAvailabilityCache(rdb)

	mock.ExpectHGetAll(AvailabilityKey).SetVal(map[string]string{"1": "12", "2": "0", "junk": "x"})
	got, err := cache.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[uint]int{1: 12, 2: 0}, got)
}

func TestSnapshotEmptyHashIsMiss(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	cache := NewAvailabilityCache(rdb)

	mock.ExpectHGetAll(AvailabilityKey).SetVal(map[string]string{})
	got, err := cache.Snapshot(context.Background())
	assert.ErrorIs(t, err, ErrAvailabilityMiss)
	assert.Nil(t, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNilCacheOnlyTouchesGauge(t *testing.T) {
	var cache *AvailabilityCache
	ctx := context.Background()

	assert.NotPanics(t, func() {
		cache.Publish(ctx, &models.Match{ID: 1, AvailableTickets: 3})
		cache.Forget(ctx, 1)
	})
	assert.NoError(t, cache.Replace(ctx, map[uint]int{1: 3}))
	_, err := cache.Snapshot(ctx)
	assert.Error(t, err)
}

func TestRunOnceReplacesHash(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	w := NewInventorySnapshotWorker(matchLister{matches: []models.Match{
		{ID: 2, AvailableTickets: 5},
		{ID: 1, AvailableTickets: 10},
	}}, NewAvailabilityCache(rdb), 0)

	mock.ExpectTxPipeline()
	mock.ExpectDel(AvailabilityKey).SetVal(1)
	mock.ExpectHSet(AvailabilityKey, "1", 10, "2", 5).SetVal(2)
	mock.ExpectTxPipelineExec()

	require.NoError(t, w.RunOnce(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunOnceStoreError(t *testing.T) {
	rdb, _ := redismock.NewClientMock()
	w := NewInventorySnapshotWorker(matchLister{err: errors.New("db down")}, NewAvailabilityCache(rdb), 0)

	err := w.RunOnce(context.Background())
	assert.ErrorContains(t, err, "list matches")
}

func TestStopWithoutStart(t *testing.T) {
	w := NewInventorySnapshotWorker(matchLister{}, nil, 0)
	assert.NoError(t, w.Stop())
}
