package gymscore

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2beens/gymscore/internal/gymscore/records"
)

func TestScoreboardCache(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := NewScoreboardCache(db, time.Minute)
	ctx := context.Background()

	userID := "0b8d6a4e-3c57-4b0e-9a5f-6a2f1b3c4d5e"
	key := scoreboardKeyPrefix + userID
	createdAt := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	sb := &Scoreboard{
		UserID: userID,
		Score: &records.ScoreRecord{
			ID:         1,
			UserID:     userID,
			Score:      230,
			CreatedAt:  createdAt,
			LastUpdate: createdAt,
		},
		Exercises: []records.ExerciseRecord{},
		Physique:  []records.PhysiqueRating{},
		Segments:  Segments{Chest: 50, Frequency: 30},
	}
	data, err := json.Marshal(sb)
	require.NoError(t, err)

	mock.ExpectGet(key).RedisNil()
	got, err := cache.Get(ctx, userID)
	require.NoError(t, err)
	assert.Nil(t, got)

	mock.ExpectSet(key, string(data), time.Minute).SetVal("OK")
	require.NoError(t, cache.Set(ctx, sb))

	mock.ExpectGet(key).SetVal(string(data))
	got, err = cache.Get(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, sb, got)

	mock.ExpectDel(key).SetVal(1)
	require.NoError(t, cache.Invalidate(ctx, userID))

	mock.ExpectGet(key).SetErr(errors.New("connection refused"))
	got, err = cache.Get(ctx, userID)
	require.Error(t, err)
	assert.Nil(t, got)

	mock.ExpectGet(key).SetVal("{not json")
	_, err = cache.Get(ctx, userID)
	require.Error(t, err)

	require.NoError(t, mock.ExpectationsWereMet())
}
