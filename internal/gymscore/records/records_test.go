package records

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2beens/gymscore/internal/gymscore/score"
	"github.com/2beens/gymscore/internal/gymscore/units"
)

func TestGrades(t *testing.T) {
	assert.Equal(t, "7/10", FormatGrade(7))
	assert.Equal(t, UnratedGrade, FormatGrade(0))

	for n := 0; n <= MaxGrade; n++ {
		got, err := ParseGrade(FormatGrade(n))
		require.NoError(t, err)
		assert.Equal(t, n, got)
	}

	for _, bad := range []string{"", "7", "7/9", "11/10", "-1/10", "x/10", "7/10/10"} {
		_, err := ParseGrade(bad)
		assert.Error(t, err, bad)
	}
}

func TestExerciseRecord_Validate(t *testing.T) {
	userID := uuid.NewString()

	r := NewExerciseRecord(userID, BenchPress, 100, units.Pounds)
	require.NoError(t, r.Validate())
	assert.Equal(t, 50.0, r.Points)

	diverged := r
	diverged.Points = 51
	assert.ErrorIs(t, diverged.Validate(), ErrInvalidRecord)

	badUser := NewExerciseRecord("not-a-uuid", BenchPress, 100, units.Kilograms)
	assert.ErrorIs(t, badUser.Validate(), ErrInvalidRecord)

	badExercise := NewExerciseRecord(userID, "Deadlift", 100, units.Kilograms)
	assert.ErrorIs(t, badExercise.Validate(), ErrInvalidRecord)

	tooHeavy := NewExerciseRecord(userID, Squats, 501, units.Kilograms)
	assert.ErrorIs(t, tooHeavy.Validate(), ErrInvalidRecord)

	badUnit := NewExerciseRecord(userID, Squats, 100, "stone")
	assert.ErrorIs(t, badUnit.Validate(), ErrInvalidRecord)
}

func TestPhysiqueRating_Validate(t *testing.T) {
	userID := uuid.NewString()

	r := NewPhysiqueRating(userID, Chest, 7)
	require.NoError(t, r.Validate())
	assert.Equal(t, "7/10", r.Grade)
	assert.Equal(t, 70.0, r.Points)
	assert.True(t, r.Rated())

	unrated := NewPhysiqueRating(userID, Back, 0)
	require.NoError(t, unrated.Validate())
	assert.Equal(t, UnratedGrade, unrated.Grade)
	assert.Equal(t, 0.0, unrated.Points)
	assert.False(t, unrated.Rated())

	diverged := r
	diverged.Points = 0
	assert.ErrorIs(t, diverged.Validate(), ErrInvalidRecord)

	badGroup := NewPhysiqueRating(userID, "Neck", 5)
	assert.ErrorIs(t, badGroup.Validate(), ErrInvalidRecord)
}

func TestFrequencyRecord_Validate(t *testing.T) {
	userID := uuid.NewString()

	r := NewFrequencyRecord(userID, 4)
	require.NoError(t, r.Validate())
	assert.Equal(t, 60.0, r.Points)

	require.NoError(t, NewFrequencyRecord(userID, 0).Validate())
	require.NoError(t, NewFrequencyRecord(userID, MaxFrequency).Validate())
	assert.ErrorIs(t, NewFrequencyRecord(userID, 15).Validate(), ErrInvalidRecord)
	assert.ErrorIs(t, NewFrequencyRecord(userID, -1).Validate(), ErrInvalidRecord)
}

func TestScoreRecord_Validate(t *testing.T) {
	require.NoError(t, ScoreRecord{UserID: uuid.NewString(), Score: 230}.Validate())
	assert.ErrorIs(t, ScoreRecord{UserID: uuid.NewString(), Score: -1}.Validate(), ErrInvalidRecord)
	assert.ErrorIs(t, ScoreRecord{UserID: "", Score: 1}.Validate(), ErrInvalidRecord)
}

func TestParseExercise(t *testing.T) {
	e, err := ParseExercise("bench press")
	require.NoError(t, err)
	assert.Equal(t, BenchPress, e)

	_, err = ParseExercise("frequency")
	assert.Error(t, err)
}

func TestRatingOf(t *testing.T) {
	r := score.Ratings{Chest: 1, Legs: 2, Arms: 3, Back: 4}
	assert.Equal(t, 1, RatingOf(r, Chest))
	assert.Equal(t, 2, RatingOf(r, Legs))
	assert.Equal(t, 3, RatingOf(r, Arms))
	assert.Equal(t, 4, RatingOf(r, Back))
	assert.Equal(t, 0, RatingOf(r, "Neck"))
}
