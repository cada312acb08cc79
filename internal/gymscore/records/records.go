package records

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/2beens/gymscore/internal/gymscore/score"
	"github.com/2beens/gymscore/internal/gymscore/units"
)

var ErrInvalidRecord = errors.New("invalid record")

const (
	MaxFrequency = 14
	MaxGrade     = 10

	// UnratedGrade marks a muscle group with no physique data. It is never a real rating.
	UnratedGrade = "0/10"

	pointsTolerance = 1e-6
)

type Exercise string

const (
	BenchPress   Exercise = "Bench Press"
	Squats       Exercise = "Squats"
	BicepsCurls  Exercise = "Biceps Curls"
	WideGripPull Exercise = "Wide Grip Pull"
)

// AllExercises in the order categories are reconciled.
var AllExercises = []Exercise{BenchPress, Squats, BicepsCurls, WideGripPull}

func (e Exercise) IsValid() bool {
	switch e {
	case BenchPress, Squats, BicepsCurls, WideGripPull:
		return true
	}
	return false
}

// ParseExercise matches exercise names case-insensitively.
func ParseExercise(s string) (Exercise, error) {
	for _, e := range AllExercises {
		if strings.EqualFold(strings.TrimSpace(s), string(e)) {
			return e, nil
		}
	}
	return "", fmt.Errorf("unknown exercise: %s", s)
}

type MuscleGroup string

const (
	Chest MuscleGroup = "Chest"
	Legs  MuscleGroup = "Legs"
	Arms  MuscleGroup = "Arms"
	Back  MuscleGroup = "Back"
)

var AllMuscleGroups = []MuscleGroup{Chest, Legs, Arms, Back}

func (m MuscleGroup) IsValid() bool {
	switch m {
	case Chest, Legs, Arms, Back:
		return true
	}
	return false
}

// RatingOf picks the muscle group's value out of a set of ratings.
func RatingOf(r score.Ratings, m MuscleGroup) int {
	switch m {
	case Chest:
		return r.Chest
	case Legs:
		return r.Legs
	case Arms:
		return r.Arms
	case Back:
		return r.Back
	}
	return 0
}

type ExerciseRecord struct {
	ID       int      `json:"id"`
	UserID   string   `json:"userId"`
	Exercise Exercise `json:"exercise"`
	// Weight is always kilograms; Unit is what the user entered the value in.
	Weight     float64    `json:"weight"`
	Unit       units.Unit `json:"unit"`
	Points     float64    `json:"points"`
	CreatedAt  time.Time  `json:"createdAt"`
	LastUpdate time.Time  `json:"lastUpdate"`
}

func NewExerciseRecord(userID string, exercise Exercise, weightKg float64, unit units.Unit) ExerciseRecord {
	return ExerciseRecord{
		UserID:   userID,
		Exercise: exercise,
		Weight:   weightKg,
		Unit:     unit,
		Points:   score.ExercisePoints(weightKg),
	}
}

func (r ExerciseRecord) Validate() error {
	if err := validateUserID(r.UserID); err != nil {
		return err
	}
	if !r.Exercise.IsValid() {
		return fmt.Errorf("%w: unknown exercise %q", ErrInvalidRecord, r.Exercise)
	}
	if !r.Unit.IsValid() {
		return fmt.Errorf("%w: unknown unit %q", ErrInvalidRecord, r.Unit)
	}
	if math.IsNaN(r.Weight) || r.Weight < 0 || r.Weight > units.MaxKilograms {
		return fmt.Errorf("%w: weight %f out of range", ErrInvalidRecord, r.Weight)
	}
	if !pointsMatch(r.Points, score.ExercisePoints(r.Weight)) {
		return fmt.Errorf("%w: exercise points %f diverge from weight %f", ErrInvalidRecord, r.Points, r.Weight)
	}
	return nil
}

type PhysiqueRating struct {
	ID          int         `json:"id"`
	UserID      string      `json:"userId"`
	MuscleGroup MuscleGroup `json:"muscleGroup"`
	Grade       string      `json:"grade"`
	Points      float64     `json:"points"`
	CreatedAt   time.Time   `json:"createdAt"`
	LastUpdate  time.Time   `json:"lastUpdate"`
}

func NewPhysiqueRating(userID string, muscleGroup MuscleGroup, rating int) PhysiqueRating {
	return PhysiqueRating{
		UserID:      userID,
		MuscleGroup: muscleGroup,
		Grade:       FormatGrade(rating),
		Points:      score.PhysiquePoints(rating),
	}
}

// Rated reports whether the grade carries real physique data.
func (r PhysiqueRating) Rated() bool {
	n, err := ParseGrade(r.Grade)
	return err == nil && n > 0
}

func (r PhysiqueRating) Validate() error {
	if err := validateUserID(r.UserID); err != nil {
		return err
	}
	if !r.MuscleGroup.IsValid() {
		return fmt.Errorf("%w: unknown muscle group %q", ErrInvalidRecord, r.MuscleGroup)
	}
	n, err := ParseGrade(r.Grade)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidRecord, err)
	}
	if !pointsMatch(r.Points, score.PhysiquePoints(n)) {
		return fmt.Errorf("%w: physique points %f diverge from grade %s", ErrInvalidRecord, r.Points, r.Grade)
	}
	return nil
}

type FrequencyRecord struct {
	ID          int       `json:"id"`
	UserID      string    `json:"userId"`
	DaysPerWeek int       `json:"daysPerWeek"`
	Points      float64   `json:"points"`
	CreatedAt   time.Time `json:"createdAt"`
	LastUpdate  time.Time `json:"lastUpdate"`
}

func NewFrequencyRecord(userID string, daysPerWeek int) FrequencyRecord {
	return FrequencyRecord{
		UserID:      userID,
		DaysPerWeek: daysPerWeek,
		Points:      score.FrequencyPoints(daysPerWeek),
	}
}

func (r FrequencyRecord) Validate() error {
	if err := validateUserID(r.UserID); err != nil {
		return err
	}
	if r.DaysPerWeek < 0 || r.DaysPerWeek > MaxFrequency {
		return fmt.Errorf("%w: frequency %d out of range", ErrInvalidRecord, r.DaysPerWeek)
	}
	if !pointsMatch(r.Points, score.FrequencyPoints(r.DaysPerWeek)) {
		return fmt.Errorf("%w: frequency points %f diverge from %d days", ErrInvalidRecord, r.Points, r.DaysPerWeek)
	}
	return nil
}

// ScoreRecord is derived only; it is never written from user input directly.
type ScoreRecord struct {
	ID         int       `json:"id"`
	UserID     string    `json:"userId"`
	Score      float64   `json:"score"`
	CreatedAt  time.Time `json:"createdAt"`
	LastUpdate time.Time `json:"lastUpdate"`
}

func (r ScoreRecord) Validate() error {
	if err := validateUserID(r.UserID); err != nil {
		return err
	}
	if math.IsNaN(r.Score) || r.Score < 0 {
		return fmt.Errorf("%w: score %f", ErrInvalidRecord, r.Score)
	}
	return nil
}

type ProfileSummary struct {
	UserID    string    `json:"userId"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

func (p ProfileSummary) Validate() error {
	return validateUserID(p.UserID)
}

func FormatGrade(n int) string {
	return fmt.Sprintf("%d/%d", n, MaxGrade)
}

// ParseGrade reads "N/10" with N in [0,10].
func ParseGrade(s string) (int, error) {
	num, denom, found := strings.Cut(strings.TrimSpace(s), "/")
	if !found || denom != strconv.Itoa(MaxGrade) {
		return 0, fmt.Errorf("malformed grade: %q", s)
	}
	n, err := strconv.Atoi(num)
	if err != nil {
		return 0, fmt.Errorf("malformed grade: %q", s)
	}
	if n < 0 || n > MaxGrade {
		return 0, fmt.Errorf("grade out of range: %q", s)
	}
	return n, nil
}

func ValidUserID(userID string) bool {
	return uuid.Validate(userID) == nil
}

func validateUserID(userID string) error {
	if !ValidUserID(userID) {
		return fmt.Errorf("%w: bad user id %q", ErrInvalidRecord, userID)
	}
	return nil
}

func pointsMatch(got, want float64) bool {
	return math.Abs(got-want) <= pointsTolerance
}
