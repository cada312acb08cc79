package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"

	"github.com/2beens/gymscore/internal/gymscore/records"
	"github.com/2beens/gymscore/internal/telemetry/tracing"
	"github.com/2beens/gymscore/pkg"
)

//go:embed schema_postgres.sql
var postgresSchema string

type PsqlStore struct {
	db *pgxpool.Pool
}

var _ Store = (*PsqlStore)(nil)

const profileEmailIndex = "ux_gymscore_profile_email"

func NewPsqlStore(db *pgxpool.Pool) *PsqlStore {
	return &PsqlStore{
		db: db,
	}
}

// Migrate creates the tables if they do not exist.
func (s *PsqlStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (s *PsqlStore) FindExercise(
	ctx context.Context,
	userID string,
	exercise records.Exercise,
) (_ *records.ExerciseRecord, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.gymscore.exercise.find")
	span.SetAttributes(attribute.String("exercise", string(exercise)))
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var rec records.ExerciseRecord
	err = s.db.QueryRow(
		ctx,
		`
			SELECT
				id, user_id, exercise, weight, unit, points, created_at, last_update
			FROM gymscore_exercise
			WHERE user_id = $1 AND exercise = $2
			ORDER BY created_at DESC
			LIMIT 1;`,
		userID, exercise,
	).Scan(&rec.ID, &rec.UserID, &rec.Exercise, &rec.Weight, &rec.Unit, &rec.Points, &rec.CreatedAt, &rec.LastUpdate)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query exercise: %w", err)
	}

	if err := validateAfterRead(rec); err != nil {
		return nil, err
	}

	return &rec, nil
}

func (s *PsqlStore) UpsertExercise(ctx context.Context, rec *records.ExerciseRecord) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.gymscore.exercise.upsert")
	span.SetAttributes(attribute.String("exercise", string(rec.Exercise)))
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := validateBeforeWrite(rec); err != nil {
		return err
	}

	err = s.db.QueryRow(
		ctx,
		`INSERT INTO gymscore_exercise
				(user_id, exercise, weight, unit, points, created_at, last_update)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (user_id, exercise) DO UPDATE
				SET weight = EXCLUDED.weight, unit = EXCLUDED.unit,
					points = EXCLUDED.points, last_update = EXCLUDED.last_update
			RETURNING id, created_at;`,
		rec.UserID, rec.Exercise, rec.Weight, rec.Unit, rec.Points, rec.CreatedAt, rec.LastUpdate,
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert exercise: %w", err)
	}

	return nil
}

func (s *PsqlStore) FindPhysique(
	ctx context.Context,
	userID string,
	muscleGroup records.MuscleGroup,
) (_ *records.PhysiqueRating, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.gymscore.physique.find")
	span.SetAttributes(attribute.String("muscleGroup", string(muscleGroup)))
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var rec records.PhysiqueRating
	err = s.db.QueryRow(
		ctx,
		`
			SELECT
				id, user_id, muscle_group, grade, points, created_at, last_update
			FROM gymscore_physique
			WHERE user_id = $1 AND muscle_group = $2
			ORDER BY created_at DESC
			LIMIT 1;`,
		userID, muscleGroup,
	).Scan(&rec.ID, &rec.UserID, &rec.MuscleGroup, &rec.Grade, &rec.Points, &rec.CreatedAt, &rec.LastUpdate)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query physique: %w", err)
	}

	if err := validateAfterRead(rec); err != nil {
		return nil, err
	}

	return &rec, nil
}

func (s *PsqlStore) UpsertPhysique(ctx context.Context, rec *records.PhysiqueRating) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.gymscore.physique.upsert")
	span.SetAttributes(attribute.String("muscleGroup", string(rec.MuscleGroup)))
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := validateBeforeWrite(rec); err != nil {
		return err
	}

	err = s.db.QueryRow(
		ctx,
		`INSERT INTO gymscore_physique
				(user_id, muscle_group, grade, points, created_at, last_update)
				VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (user_id, muscle_group) DO UPDATE
				SET grade = EXCLUDED.grade, points = EXCLUDED.points,
					last_update = EXCLUDED.last_update
			RETURNING id, created_at;`,
		rec.UserID, rec.MuscleGroup, rec.Grade, rec.Points, rec.CreatedAt, rec.LastUpdate,
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert physique: %w", err)
	}

	return nil
}

func (s *PsqlStore) FindFrequency(ctx context.Context, userID string) (_ *records.FrequencyRecord, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.gymscore.frequency.find")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var rec records.FrequencyRecord
	err = s.db.QueryRow(
		ctx,
		`
			SELECT
				id, user_id, days_per_week, points, created_at, last_update
			FROM gymscore_frequency
			WHERE user_id = $1
			ORDER BY created_at DESC
			LIMIT 1;`,
		userID,
	).Scan(&rec.ID, &rec.UserID, &rec.DaysPerWeek, &rec.Points, &rec.CreatedAt, &rec.LastUpdate)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query frequency: %w", err)
	}

	if err := validateAfterRead(rec); err != nil {
		return nil, err
	}

	return &rec, nil
}

func (s *PsqlStore) UpsertFrequency(ctx context.Context, rec *records.FrequencyRecord) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.gymscore.frequency.upsert")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := validateBeforeWrite(rec); err != nil {
		return err
	}

	err = s.db.QueryRow(
		ctx,
		`INSERT INTO gymscore_frequency
				(user_id, days_per_week, points, created_at, last_update)
				VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (user_id) DO UPDATE
				SET days_per_week = EXCLUDED.days_per_week, points = EXCLUDED.points,
					last_update = EXCLUDED.last_update
			RETURNING id, created_at;`,
		rec.UserID, rec.DaysPerWeek, rec.Points, rec.CreatedAt, rec.LastUpdate,
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert frequency: %w", err)
	}

	return nil
}

func (s *PsqlStore) FindScore(ctx context.Context, userID string) (_ *records.ScoreRecord, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.gymscore.score.find")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var rec records.ScoreRecord
	err = s.db.QueryRow(
		ctx,
		`
			SELECT
				id, user_id, score, created_at, last_update
			FROM gymscore_score
			WHERE user_id = $1
			ORDER BY created_at DESC
			LIMIT 1;`,
		userID,
	).Scan(&rec.ID, &rec.UserID, &rec.Score, &rec.CreatedAt, &rec.LastUpdate)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query score: %w", err)
	}

	if err := validateAfterRead(rec); err != nil {
		return nil, err
	}

	return &rec, nil
}

func (s *PsqlStore) UpsertScore(ctx context.Context, rec *records.ScoreRecord) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.gymscore.score.upsert")
	span.SetAttributes(attribute.Float64("score", rec.Score))
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := validateBeforeWrite(rec); err != nil {
		return err
	}

	err = s.db.QueryRow(
		ctx,
		`INSERT INTO gymscore_score
				(user_id, score, created_at, last_update)
				VALUES ($1, $2, $3, $4)
			ON CONFLICT (user_id) DO UPDATE
				SET score = EXCLUDED.score, last_update = EXCLUDED.last_update
			RETURNING id, created_at;`,
		rec.UserID, rec.Score, rec.CreatedAt, rec.LastUpdate,
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert score: %w", err)
	}

	return nil
}

func (s *PsqlStore) FindProfile(ctx context.Context, userID string) (_ *records.ProfileSummary, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.gymscore.profile.find")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var p records.ProfileSummary
	err = s.db.QueryRow(
		ctx,
		`SELECT user_id, name, email, created_at FROM gymscore_profile WHERE user_id = $1;`,
		userID,
	).Scan(&p.UserID, &p.Name, &p.Email, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query profile: %w", err)
	}

	return &p, nil
}

func (s *PsqlStore) InsertProfileIfMissing(ctx context.Context, profile records.ProfileSummary) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.gymscore.profile.insert")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := validateBeforeWrite(profile); err != nil {
		return err
	}

	if _, err := s.db.Exec(
		ctx,
		`INSERT INTO gymscore_profile (user_id, name, email, created_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (user_id) DO NOTHING;`,
		profile.UserID, profile.Name, profile.Email, profile.CreatedAt,
	); err != nil {
		if pkg.IsUniqueViolationError(err, profileEmailIndex) {
			return ErrEmailTaken
		}
		return fmt.Errorf("insert profile: %w", err)
	}

	return nil
}
