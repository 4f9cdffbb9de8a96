package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"
)

func historyRows(ts time.Time) *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "profile_id", "user_id", "platform", "username",
		"provider", "raw_result", "followers_count", "timestamp",
	}).AddRow(
		int64(1), int64(42), int64(7), "instagram", "nasa",
		"apify", []byte(`{"username":"nasa"}`), int64(96000000), ts,
	)
}

func TestListHistoryScopedToUser(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewHistoryStore(mock)
	require.NoError(t, err)

	ts := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT id, profile_id").
		WithArgs(int64(7)).
		WillReturnRows(historyRows(ts))

	records, err := store.ListHistory(context.Background(), 7, false)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, int64(96000000), records[0].FollowersCount)
	require.Equal(t, ts, records[0].Timestamp)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListProfileHistory(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewHistoryStore(mock)
	require.NoError(t, err)

	ts := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT id, profile_id").
		WithArgs(int64(42)).
		WillReturnRows(historyRows(ts))

	records, err := store.ListProfileHistory(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "apify", records[0].Provider)
	require.NoError(t, mock.ExpectationsWereMet())
}
