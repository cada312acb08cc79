package reconcile_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2beens/gymscore/internal/gymscore/reconcile"
	"github.com/2beens/gymscore/internal/gymscore/records"
	"github.com/2beens/gymscore/internal/gymscore/score"
	"github.com/2beens/gymscore/internal/gymscore/store"
	"github.com/2beens/gymscore/internal/gymscore/units"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time {
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newTestReconciler() (*reconcile.Reconciler, *store.MemoryStore, *testClock) {
	s := store.NewMemoryStore()
	clock := &testClock{now: time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)}
	return reconcile.NewReconciler(s, clock.Now), s, clock
}

func intPtr(i int) *int {
	return &i
}

func fullBatch(ratings *score.Ratings) reconcile.Batch {
	return reconcile.Batch{
		Exercises: map[records.Exercise]reconcile.ExerciseValue{
			records.BenchPress:   {WeightKg: 100, Unit: units.Kilograms},
			records.Squats:       {WeightKg: 120, Unit: units.Kilograms},
			records.BicepsCurls:  {WeightKg: 40, Unit: units.Kilograms},
			records.WideGripPull: {WeightKg: 80, Unit: units.Kilograms},
		},
		Physique:  ratings,
		Frequency: intPtr(4),
	}
}

func TestUpsertExercise_CreateThenUpdate(t *testing.T) {
	r, s, clock := newTestReconciler()
	ctx := context.Background()
	userID := uuid.NewString()
	created := clock.Now()

	first, err := r.UpsertExercise(ctx, userID, records.BenchPress, reconcile.ExerciseValue{WeightKg: 100, Unit: units.Kilograms})
	require.NoError(t, err)
	assert.Equal(t, created, first.CreatedAt)
	assert.Equal(t, created, first.LastUpdate)

	clock.Advance(time.Hour)
	second, err := r.UpsertExercise(ctx, userID, records.BenchPress, reconcile.ExerciseValue{WeightKg: 110, Unit: units.Pounds})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, created, second.CreatedAt)
	assert.Equal(t, clock.Now(), second.LastUpdate)

	stored, err := s.FindExercise(ctx, userID, records.BenchPress)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, 110.0, stored.Weight)
	assert.Equal(t, 55.0, stored.Points)
	assert.Equal(t, units.Pounds, stored.Unit)
	assert.Equal(t, created, stored.CreatedAt)
}

func TestUpsert_Idempotent(t *testing.T) {
	r, s, clock := newTestReconciler()
	ctx := context.Background()
	userID := uuid.NewString()

	_, err := r.UpsertFrequency(ctx, userID, 5)
	require.NoError(t, err)
	before, err := s.FindFrequency(ctx, userID)
	require.NoError(t, err)

	clock.Advance(time.Minute)
	_, err = r.UpsertFrequency(ctx, userID, 5)
	require.NoError(t, err)
	after, err := s.FindFrequency(ctx, userID)
	require.NoError(t, err)

	// only LastUpdate moves
	assert.NotEqual(t, before.LastUpdate, after.LastUpdate)
	after.LastUpdate = before.LastUpdate
	assert.Equal(t, *before, *after)
}

func TestApply_NoPhoto(t *testing.T) {
	r, s, _ := newTestReconciler()
	ctx := context.Background()
	userID := uuid.NewString()

	result := r.Apply(ctx, userID, fullBatch(&score.Ratings{}))
	require.NoError(t, result.Err())
	assert.Empty(t, result.Failed())
	assert.False(t, result.ScoreSkipped)
	require.NotNil(t, result.Score)
	assert.InDelta(t, 230.0, result.Score.Score, 1e-9)
	assert.Len(t, result.Outcomes, 9)

	// sentinel rows stored for every muscle group
	for _, mg := range records.AllMuscleGroups {
		ph, err := s.FindPhysique(ctx, userID, mg)
		require.NoError(t, err)
		require.NotNil(t, ph)
		assert.Equal(t, records.UnratedGrade, ph.Grade)
		assert.Equal(t, 0.0, ph.Points)
	}

	stored, err := s.FindScore(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, result.Score.Score, stored.Score)
}

func TestApply_Photo(t *testing.T) {
	r, _, _ := newTestReconciler()
	result := r.Apply(context.Background(), uuid.NewString(), fullBatch(&score.Ratings{Chest: 7, Legs: 6, Arms: 5, Back: 8}))
	require.NoError(t, result.Err())
	require.NotNil(t, result.Score)
	assert.InDelta(t, 450.0, result.Score.Score, 1e-9)
}

func TestApply_OrderIsFixed(t *testing.T) {
	r, _, _ := newTestReconciler()
	result := r.Apply(context.Background(), uuid.NewString(), fullBatch(&score.Ratings{}))

	var got []reconcile.Category
	for _, o := range result.Outcomes {
		got = append(got, o.Category)
	}
	assert.Equal(t, []reconcile.Category{
		reconcile.ExerciseCategory(records.BenchPress),
		reconcile.ExerciseCategory(records.Squats),
		reconcile.ExerciseCategory(records.BicepsCurls),
		reconcile.ExerciseCategory(records.WideGripPull),
		reconcile.PhysiqueCategory(records.Chest),
		reconcile.PhysiqueCategory(records.Legs),
		reconcile.PhysiqueCategory(records.Arms),
		reconcile.PhysiqueCategory(records.Back),
		reconcile.CategoryFrequency,
	}, got)
}

func TestApply_CategoryFailureSkipsScore(t *testing.T) {
	r, s, _ := newTestReconciler()
	ctx := context.Background()
	userID := uuid.NewString()
	errDown := errors.New("db down")

	s.FailWrites(store.KeyExercise(records.Squats), errDown)

	result := r.Apply(ctx, userID, fullBatch(&score.Ratings{}))
	assert.True(t, result.ScoreSkipped)
	assert.Nil(t, result.Score)
	assert.Equal(t, []reconcile.Category{reconcile.ExerciseCategory(records.Squats)}, result.Failed())
	assert.ErrorIs(t, result.Err(), reconcile.ErrCategoryWrite)
	assert.ErrorIs(t, result.Err(), errDown)

	// siblings were written and kept
	bench, err := s.FindExercise(ctx, userID, records.BenchPress)
	require.NoError(t, err)
	assert.NotNil(t, bench)
	freq, err := s.FindFrequency(ctx, userID)
	require.NoError(t, err)
	assert.NotNil(t, freq)

	sc, err := s.FindScore(ctx, userID)
	require.NoError(t, err)
	assert.Nil(t, sc)
}

func TestApply_ScoreWriteFailure(t *testing.T) {
	r, s, _ := newTestReconciler()
	s.FailWrites(store.KeyScore, errors.New("nope"))

	result := r.Apply(context.Background(), uuid.NewString(), fullBatch(nil))
	assert.Empty(t, result.Failed())
	assert.True(t, result.ScoreSkipped)
	assert.ErrorIs(t, result.Err(), reconcile.ErrCategoryWrite)
}

func TestApply_ScoreReadFailure(t *testing.T) {
	r, s, _ := newTestReconciler()
	s.FailReads(store.KeyFrequency, errors.New("timeout"))

	result := r.Apply(context.Background(), uuid.NewString(), reconcile.Batch{
		Exercises: map[records.Exercise]reconcile.ExerciseValue{
			records.BenchPress: {WeightKg: 50, Unit: units.Kilograms},
		},
	})
	assert.Empty(t, result.Failed())
	assert.True(t, result.ScoreSkipped)
	assert.ErrorIs(t, result.Err(), reconcile.ErrScoreSkipped)
}

func TestApply_EditRecomputesFromStoredState(t *testing.T) {
	r, s, clock := newTestReconciler()
	ctx := context.Background()
	userID := uuid.NewString()

	onboard := r.Apply(ctx, userID, fullBatch(&score.Ratings{Chest: 7, Legs: 6, Arms: 5, Back: 8}))
	require.NoError(t, onboard.Err())
	firstScore := *onboard.Score

	clock.Advance(24 * time.Hour)
	edit := r.Apply(ctx, userID, reconcile.Batch{
		Exercises: map[records.Exercise]reconcile.ExerciseValue{
			records.Squats: {WeightKg: 140, Unit: units.Kilograms},
		},
	})
	require.NoError(t, edit.Err())
	require.Len(t, edit.Outcomes, 1)
	require.NotNil(t, edit.Score)

	// stored ratings stay on the photo path; squats +20 kg = +10 points
	assert.InDelta(t, 460.0, edit.Score.Score, 1e-9)
	assert.Equal(t, firstScore.ID, edit.Score.ID)
	assert.Equal(t, firstScore.CreatedAt, edit.Score.CreatedAt)
	assert.Equal(t, clock.Now(), edit.Score.LastUpdate)

	// untouched categories keep their original timestamps
	bench, err := s.FindExercise(ctx, userID, records.BenchPress)
	require.NoError(t, err)
	assert.Equal(t, firstScore.CreatedAt, bench.LastUpdate)
}

func TestCurrentScore_EmptyUser(t *testing.T) {
	r, _, _ := newTestReconciler()
	got, err := r.CurrentScore(context.Background(), uuid.NewString())
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)
}

func TestBatch_Empty(t *testing.T) {
	assert.True(t, reconcile.Batch{}.Empty())
	assert.False(t, reconcile.Batch{Frequency: intPtr(0)}.Empty())
}
