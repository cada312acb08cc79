package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/2beens/gymscore/internal/gymscore/records"
)

// ErrEmailTaken is returned when a new profile reuses the email of another user.
var ErrEmailTaken = errors.New("email already used by another profile")

// Store persists one current record per category per user.
//
// Find* methods return (nil, nil) when the user has no record for the category.
// Upsert* methods insert or update in place, keyed by user and category, and
// set the record ID. CreatedAt of an existing row is never overwritten.
type Store interface {
	FindExercise(ctx context.Context, userID string, exercise records.Exercise) (*records.ExerciseRecord, error)
	UpsertExercise(ctx context.Context, rec *records.ExerciseRecord) error

	FindPhysique(ctx context.Context, userID string, muscleGroup records.MuscleGroup) (*records.PhysiqueRating, error)
	UpsertPhysique(ctx context.Context, rec *records.PhysiqueRating) error

	FindFrequency(ctx context.Context, userID string) (*records.FrequencyRecord, error)
	UpsertFrequency(ctx context.Context, rec *records.FrequencyRecord) error

	FindScore(ctx context.Context, userID string) (*records.ScoreRecord, error)
	UpsertScore(ctx context.Context, rec *records.ScoreRecord) error

	FindProfile(ctx context.Context, userID string) (*records.ProfileSummary, error)
	// InsertProfileIfMissing never updates an existing profile. Non-empty
	// emails are unique across profiles.
	InsertProfileIfMissing(ctx context.Context, profile records.ProfileSummary) error
}

type validator interface {
	Validate() error
}

func validateBeforeWrite(v validator) error {
	if err := v.Validate(); err != nil {
		return fmt.Errorf("refusing write: %w", err)
	}
	return nil
}

func validateAfterRead(v validator) error {
	if err := v.Validate(); err != nil {
		return fmt.Errorf("stored record: %w", err)
	}
	return nil
}
