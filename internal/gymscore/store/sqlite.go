package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/2beens/gymscore/internal/gymscore/records"
)

//go:embed schema_sqlite.sql
var sqliteSchema string

// SqliteStore is a single-file backend for local development.
type SqliteStore struct {
	db *sql.DB
}

var _ Store = (*SqliteStore)(nil)

// OpenSqliteStore opens (or creates) the db file and applies the schema.
// Use ":memory:" for a throwaway database.
func OpenSqliteStore(ctx context.Context, path string) (*SqliteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// one connection, otherwise each :memory: connection gets its own database
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SqliteStore{
		db: db,
	}, nil
}

func (s *SqliteStore) Close() error {
	return s.db.Close()
}

// loadCreatedAt reads back created_at, which an upsert keeps from the first insert.
func (s *SqliteStore) loadCreatedAt(ctx context.Context, table string, id int, dst *time.Time) error {
	err := s.db.QueryRowContext(ctx, `SELECT created_at FROM `+table+` WHERE id = ?;`, id).Scan(dst)
	if err != nil {
		return fmt.Errorf("read back %s created_at: %w", table, err)
	}
	return nil
}

func (s *SqliteStore) FindExercise(ctx context.Context, userID string, exercise records.Exercise) (*records.ExerciseRecord, error) {
	var rec records.ExerciseRecord
	err := s.db.QueryRowContext(
		ctx,
		`SELECT id, user_id, exercise, weight, unit, points, created_at, last_update
			FROM gymscore_exercise
			WHERE user_id = ? AND exercise = ?
			ORDER BY created_at DESC
			LIMIT 1;`,
		userID, string(exercise),
	).Scan(&rec.ID, &rec.UserID, &rec.Exercise, &rec.Weight, &rec.Unit, &rec.Points, &rec.CreatedAt, &rec.LastUpdate)
	if errors.Is(err, sql.ErrNoRows) {
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

func (s *SqliteStore) UpsertExercise(ctx context.Context, rec *records.ExerciseRecord) error {
	if err := validateBeforeWrite(rec); err != nil {
		return err
	}

	err := s.db.QueryRowContext(
		ctx,
		`INSERT INTO gymscore_exercise
				(user_id, exercise, weight, unit, points, created_at, last_update)
				VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (user_id, exercise) DO UPDATE
				SET weight = excluded.weight, unit = excluded.unit,
					points = excluded.points, last_update = excluded.last_update
			RETURNING id;`,
		rec.UserID, string(rec.Exercise), rec.Weight, string(rec.Unit), rec.Points, rec.CreatedAt.UTC(), rec.LastUpdate.UTC(),
	).Scan(&rec.ID)
	if err != nil {
		return fmt.Errorf("upsert exercise: %w", err)
	}

	return s.loadCreatedAt(ctx, "gymscore_exercise", rec.ID, &rec.CreatedAt)
}

func (s *SqliteStore) FindPhysique(ctx context.Context, userID string, muscleGroup records.MuscleGroup) (*records.PhysiqueRating, error) {
	var rec records.PhysiqueRating
	err := s.db.QueryRowContext(
		ctx,
		`SELECT id, user_id, muscle_group, grade, points, created_at, last_update
			FROM gymscore_physique
			WHERE user_id = ? AND muscle_group = ?
			ORDER BY created_at DESC
			LIMIT 1;`,
		userID, string(muscleGroup),
	).Scan(&rec.ID, &rec.UserID, &rec.MuscleGroup, &rec.Grade, &rec.Points, &rec.CreatedAt, &rec.LastUpdate)
	if errors.Is(err, sql.ErrNoRows) {
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

func (s *SqliteStore) UpsertPhysique(ctx context.Context, rec *records.PhysiqueRating) error {
	if err := validateBeforeWrite(rec); err != nil {
		return err
	}

	err := s.db.QueryRowContext(
		ctx,
		`INSERT INTO gymscore_physique
				(user_id, muscle_group, grade, points, created_at, last_update)
				VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (user_id, muscle_group) DO UPDATE
				SET grade = excluded.grade, points = excluded.points,
					last_update = excluded.last_update
			RETURNING id;`,
		rec.UserID, string(rec.MuscleGroup), rec.Grade, rec.Points, rec.CreatedAt.UTC(), rec.LastUpdate.UTC(),
	).Scan(&rec.ID)
	if err != nil {
		return fmt.Errorf("upsert physique: %w", err)
	}

	return s.loadCreatedAt(ctx, "gymscore_physique", rec.ID, &rec.CreatedAt)
}

func (s *SqliteStore) FindFrequency(ctx context.Context, userID string) (*records.FrequencyRecord, error) {
	var rec records.FrequencyRecord
	err := s.db.QueryRowContext(
		ctx,
		`SELECT id, user_id, days_per_week, points, created_at, last_update
			FROM gymscore_frequency
			WHERE user_id = ?
			ORDER BY created_at DESC
			LIMIT 1;`,
		userID,
	).Scan(&rec.ID, &rec.UserID, &rec.DaysPerWeek, &rec.Points, &rec.CreatedAt, &rec.LastUpdate)
	if errors.Is(err, sql.ErrNoRows) {
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

func (s *SqliteStore) UpsertFrequency(ctx context.Context, rec *records.FrequencyRecord) error {
	if err := validateBeforeWrite(rec); err != nil {
		return err
	}

	err := s.db.QueryRowContext(
		ctx,
		`INSERT INTO gymscore_frequency
				(user_id, days_per_week, points, created_at, last_update)
				VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (user_id) DO UPDATE
				SET days_per_week = excluded.days_per_week, points = excluded.points,
					last_update = excluded.last_update
			RETURNING id;`,
		rec.UserID, rec.DaysPerWeek, rec.Points, rec.CreatedAt.UTC(), rec.LastUpdate.UTC(),
	).Scan(&rec.ID)
	if err != nil {
		return fmt.Errorf("upsert frequency: %w", err)
	}

	return s.loadCreatedAt(ctx, "gymscore_frequency", rec.ID, &rec.CreatedAt)
}

func (s *SqliteStore) FindScore(ctx context.Context, userID string) (*records.ScoreRecord, error) {
	var rec records.ScoreRecord
	err := s.db.QueryRowContext(
		ctx,
		`SELECT id, user_id, score, created_at, last_update
			FROM gymscore_score
			WHERE user_id = ?
			ORDER BY created_at DESC
			LIMIT 1;`,
		userID,
	).Scan(&rec.ID, &rec.UserID, &rec.Score, &rec.CreatedAt, &rec.LastUpdate)
	if errors.Is(err, sql.ErrNoRows) {
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

func (s *SqliteStore) UpsertScore(ctx context.Context, rec *records.ScoreRecord) error {
	if err := validateBeforeWrite(rec); err != nil {
		return err
	}

	err := s.db.QueryRowContext(
		ctx,
		`INSERT INTO gymscore_score
				(user_id, score, created_at, last_update)
				VALUES (?, ?, ?, ?)
			ON CONFLICT (user_id) DO UPDATE
				SET score = excluded.score, last_update = excluded.last_update
			RETURNING id;`,
		rec.UserID, rec.Score, rec.CreatedAt.UTC(), rec.LastUpdate.UTC(),
	).Scan(&rec.ID)
	if err != nil {
		return fmt.Errorf("upsert score: %w", err)
	}

	return s.loadCreatedAt(ctx, "gymscore_score", rec.ID, &rec.CreatedAt)
}

func (s *SqliteStore) FindProfile(ctx context.Context, userID string) (*records.ProfileSummary, error) {
	var p records.ProfileSummary
	err := s.db.QueryRowContext(
		ctx,
		`SELECT user_id, name, email, created_at FROM gymscore_profile WHERE user_id = ?;`,
		userID,
	).Scan(&p.UserID, &p.Name, &p.Email, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query profile: %w", err)
	}

	return &p, nil
}

func (s *SqliteStore) InsertProfileIfMissing(ctx context.Context, profile records.ProfileSummary) error {
	if err := validateBeforeWrite(profile); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(
		ctx,
		`INSERT INTO gymscore_profile (user_id, name, email, created_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT (user_id) DO NOTHING;`,
		profile.UserID, profile.Name, profile.Email, profile.CreatedAt.UTC(),
	); err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return ErrEmailTaken
		}
		return fmt.Errorf("insert profile: %w", err)
	}

	return nil
}
