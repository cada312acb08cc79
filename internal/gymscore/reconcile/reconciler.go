package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/multierr"

	"github.com/2beens/gymscore/internal/gymscore/records"
	"github.com/2beens/gymscore/internal/gymscore/score"
	"github.com/2beens/gymscore/internal/gymscore/store"
	"github.com/2beens/gymscore/internal/gymscore/units"
	"github.com/2beens/gymscore/internal/telemetry/tracing"
)

var (
	ErrCategoryWrite = errors.New("category write failed")
	ErrScoreSkipped  = errors.New("score not recomputed")
)

// Category identifies one record slot of a user, e.g. "exercise/Squats".
type Category string

const (
	CategoryFrequency = Category(store.KeyFrequency)
	CategoryScore     = Category(store.KeyScore)
)

func ExerciseCategory(e records.Exercise) Category {
	return Category(store.KeyExercise(e))
}

func PhysiqueCategory(m records.MuscleGroup) Category {
	return Category(store.KeyPhysique(m))
}

// ExerciseValue is a lift already clamped and normalized to kilograms,
// together with the unit the user entered it in.
type ExerciseValue struct {
	WeightKg float64
	Unit     units.Unit
}

// Batch lists the categories touched by one user action. Nil / absent
// entries are left as they are in the store.
type Batch struct {
	Exercises map[records.Exercise]ExerciseValue
	// Physique writes all four muscle groups; zero values become "0/10" rows.
	Physique  *score.Ratings
	Frequency *int
}

func (b Batch) Empty() bool {
	return len(b.Exercises) == 0 && b.Physique == nil && b.Frequency == nil
}

type CategoryOutcome struct {
	Category Category `json:"category"`
	Err      error    `json:"-"`
}

func (o CategoryOutcome) OK() bool {
	return o.Err == nil
}

func (o CategoryOutcome) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Category Category `json:"category"`
		OK       bool     `json:"ok"`
	}{o.Category, o.OK()})
}

type BatchResult struct {
	Outcomes []CategoryOutcome
	// Score is the freshly written aggregate, nil when skipped.
	Score        *records.ScoreRecord
	ScoreSkipped bool
	ScoreErr     error
}

// Failed lists the categories whose write failed, in reconcile order.
func (r BatchResult) Failed() []Category {
	var failed []Category
	for _, o := range r.Outcomes {
		if !o.OK() {
			failed = append(failed, o.Category)
		}
	}
	return failed
}

// Err combines every category failure and the score failure, if any.
func (r BatchResult) Err() error {
	var err error
	for _, o := range r.Outcomes {
		err = multierr.Append(err, o.Err)
	}
	return multierr.Append(err, r.ScoreErr)
}

type Reconciler struct {
	store store.Store
	now   func() time.Time
}

func NewReconciler(s store.Store, now func() time.Time) *Reconciler {
	if now == nil {
		now = time.Now
	}
	return &Reconciler{
		store: s,
		now:   now,
	}
}

func (r *Reconciler) UpsertExercise(
	ctx context.Context,
	userID string,
	exercise records.Exercise,
	value ExerciseValue,
) (*records.ExerciseRecord, error) {
	existing, err := r.store.FindExercise(ctx, userID, exercise)
	if err != nil {
		return nil, fmt.Errorf("find exercise: %w", err)
	}

	rec := records.NewExerciseRecord(userID, exercise, value.WeightKg, value.Unit)
	r.stamp(&rec.ID, &rec.CreatedAt, &rec.LastUpdate, metaOf(existing))

	if err := r.store.UpsertExercise(ctx, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *Reconciler) UpsertPhysique(
	ctx context.Context,
	userID string,
	muscleGroup records.MuscleGroup,
	rating int,
) (*records.PhysiqueRating, error) {
	existing, err := r.store.FindPhysique(ctx, userID, muscleGroup)
	if err != nil {
		return nil, fmt.Errorf("find physique: %w", err)
	}

	rec := records.NewPhysiqueRating(userID, muscleGroup, rating)
	r.stamp(&rec.ID, &rec.CreatedAt, &rec.LastUpdate, metaOf(existing))

	if err := r.store.UpsertPhysique(ctx, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *Reconciler) UpsertFrequency(ctx context.Context, userID string, daysPerWeek int) (*records.FrequencyRecord, error) {
	existing, err := r.store.FindFrequency(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("find frequency: %w", err)
	}

	rec := records.NewFrequencyRecord(userID, daysPerWeek)
	r.stamp(&rec.ID, &rec.CreatedAt, &rec.LastUpdate, metaOf(existing))

	if err := r.store.UpsertFrequency(ctx, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *Reconciler) UpsertScore(ctx context.Context, userID string, value float64) (*records.ScoreRecord, error) {
	existing, err := r.store.FindScore(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("find score: %w", err)
	}

	rec := records.ScoreRecord{
		UserID: userID,
		Score:  value,
	}
	r.stamp(&rec.ID, &rec.CreatedAt, &rec.LastUpdate, metaOf(existing))

	if err := r.store.UpsertScore(ctx, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Apply reconciles every touched category in a fixed order: exercises,
// physique, frequency. A failed category does not stop the others, and
// written siblings are not rolled back. The aggregate score is recomputed
// from the stored state and written only when every category succeeded.
func (r *Reconciler) Apply(ctx context.Context, userID string, batch Batch) (result BatchResult) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "reconciler.gymscore.apply")
	defer func() {
		span.SetAttributes(attribute.Int("failed", len(result.Failed())))
		tracing.EndSpanWithErrCheck(span, result.Err())
	}()

	for _, e := range records.AllExercises {
		value, ok := batch.Exercises[e]
		if !ok {
			continue
		}
		_, err := r.UpsertExercise(ctx, userID, e, value)
		result.Outcomes = append(result.Outcomes, outcome(ExerciseCategory(e), err))
	}

	if batch.Physique != nil {
		for _, mg := range records.AllMuscleGroups {
			_, err := r.UpsertPhysique(ctx, userID, mg, records.RatingOf(*batch.Physique, mg))
			result.Outcomes = append(result.Outcomes, outcome(PhysiqueCategory(mg), err))
		}
	}

	if batch.Frequency != nil {
		_, err := r.UpsertFrequency(ctx, userID, *batch.Frequency)
		result.Outcomes = append(result.Outcomes, outcome(CategoryFrequency, err))
	}

	if failed := result.Failed(); len(failed) > 0 {
		log.Errorf("gymscore: %d category writes failed for user %s, score not recomputed: %v", len(failed), userID, failed)
		result.ScoreSkipped = true
		return result
	}

	value, err := r.CurrentScore(ctx, userID)
	if err != nil {
		result.ScoreSkipped = true
		result.ScoreErr = fmt.Errorf("%w: %w", ErrScoreSkipped, err)
		return result
	}

	rec, err := r.UpsertScore(ctx, userID, value)
	if err != nil {
		result.ScoreSkipped = true
		result.ScoreErr = fmt.Errorf("%w [%s]: %w", ErrCategoryWrite, CategoryScore, err)
		return result
	}
	result.Score = rec

	return result
}

// CurrentScore computes the score over the latest stored value of every
// category. Missing categories count as zero. Physique ratings take the place
// of the pull weight as soon as one muscle group carries a real grade.
func (r *Reconciler) CurrentScore(ctx context.Context, userID string) (float64, error) {
	var ex score.Exercises
	targets := map[records.Exercise]*float64{
		records.BenchPress:   &ex.BenchKg,
		records.Squats:       &ex.SquatsKg,
		records.BicepsCurls:  &ex.CurlsKg,
		records.WideGripPull: &ex.PullKg,
	}
	for _, e := range records.AllExercises {
		rec, err := r.store.FindExercise(ctx, userID, e)
		if err != nil {
			return 0, fmt.Errorf("find exercise %s: %w", e, err)
		}
		if rec != nil {
			*targets[e] = rec.Weight
		}
	}

	var ratings score.Ratings
	rated := false
	for _, mg := range records.AllMuscleGroups {
		rec, err := r.store.FindPhysique(ctx, userID, mg)
		if err != nil {
			return 0, fmt.Errorf("find physique %s: %w", mg, err)
		}
		if rec == nil || !rec.Rated() {
			continue
		}
		n, _ := records.ParseGrade(rec.Grade)
		setRating(&ratings, mg, n)
		rated = true
	}

	freq, err := r.store.FindFrequency(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("find frequency: %w", err)
	}
	days := 0
	if freq != nil {
		days = freq.DaysPerWeek
	}

	if rated {
		return score.Compute(ex, days, &ratings), nil
	}
	return score.Compute(ex, days, nil), nil
}

type meta struct {
	id        int
	createdAt time.Time
}

type identified interface {
	*records.ExerciseRecord | *records.PhysiqueRating | *records.FrequencyRecord | *records.ScoreRecord
}

func metaOf[T identified](rec T) *meta {
	switch v := any(rec).(type) {
	case *records.ExerciseRecord:
		if v != nil {
			return &meta{v.ID, v.CreatedAt}
		}
	case *records.PhysiqueRating:
		if v != nil {
			return &meta{v.ID, v.CreatedAt}
		}
	case *records.FrequencyRecord:
		if v != nil {
			return &meta{v.ID, v.CreatedAt}
		}
	case *records.ScoreRecord:
		if v != nil {
			return &meta{v.ID, v.CreatedAt}
		}
	}
	return nil
}

// stamp keeps identity and creation time of an existing record; a new one
// gets CreatedAt = LastUpdate = now.
func (r *Reconciler) stamp(id *int, createdAt, lastUpdate *time.Time, existing *meta) {
	now := r.now()
	*lastUpdate = now
	if existing != nil {
		*id = existing.id
		*createdAt = existing.createdAt
		return
	}
	*createdAt = now
}

func outcome(c Category, err error) CategoryOutcome {
	if err != nil {
		err = fmt.Errorf("%w [%s]: %w", ErrCategoryWrite, c, err)
	}
	return CategoryOutcome{
		Category: c,
		Err:      err,
	}
}

func setRating(r *score.Ratings, mg records.MuscleGroup, n int) {
	switch mg {
	case records.Chest:
		r.Chest = n
	case records.Legs:
		r.Legs = n
	case records.Arms:
		r.Arms = n
	case records.Back:
		r.Back = n
	}
}
