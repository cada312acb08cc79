package gymscore

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/2beens/gymscore/internal/gymscore/analysis"
	"github.com/2beens/gymscore/internal/gymscore/rating"
	"github.com/2beens/gymscore/internal/gymscore/reconcile"
	"github.com/2beens/gymscore/internal/gymscore/records"
	"github.com/2beens/gymscore/internal/gymscore/score"
	"github.com/2beens/gymscore/internal/gymscore/store"
	"github.com/2beens/gymscore/internal/gymscore/units"
	"github.com/2beens/gymscore/internal/telemetry/metrics"
	"github.com/2beens/gymscore/internal/telemetry/tracing"
)

const FrequencyKey = "frequency"

type scoreboardCache interface {
	Get(ctx context.Context, userID string) (*Scoreboard, error)
	Set(ctx context.Context, sb *Scoreboard) error
	Invalidate(ctx context.Context, userID string) error
}

type ProfileInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type OnboardRequest struct {
	Bench     float64    `json:"bench"`
	Squats    float64    `json:"squats"`
	Curls     float64    `json:"curls"`
	Pull      float64    `json:"pull"`
	Unit      units.Unit `json:"unit"`
	Frequency int        `json:"frequency"`
	Photo     *Photo     `json:"photo,omitempty"`
	// ProceedWithoutPhysique falls back to the no-photo path when the photo
	// cannot be analyzed or parsed, instead of failing the whole request.
	ProceedWithoutPhysique bool          `json:"proceedWithoutPhysique"`
	Profile                *ProfileInput `json:"profile,omitempty"`
}

type EditRequest struct {
	// Values are keyed by exercise name ("Bench Press", ...) or "frequency".
	Values map[string]float64 `json:"values"`
	Unit   units.Unit         `json:"unit"`
}

type SubmitResult struct {
	Score *records.ScoreRecord `json:"score"`
	// Ratings are set only when a photo was analyzed and parsed.
	Ratings     *score.Ratings              `json:"ratings,omitempty"`
	RatingStage rating.Stage                `json:"ratingStage,omitempty"`
	Outcomes    []reconcile.CategoryOutcome `json:"outcomes"`
}

type Service struct {
	store      store.Store
	reconciler *reconcile.Reconciler
	analyzer   analysis.Analyzer
	parser     *rating.Parser
	cache      scoreboardCache
	metrics    *metrics.Manager
	now        func() time.Time
}

type NewServiceParams struct {
	Store    store.Store
	Analyzer analysis.Analyzer
	// Cache is optional.
	Cache   scoreboardCache
	Metrics *metrics.Manager
	Now     func() time.Time
}

func NewService(params NewServiceParams) *Service {
	now := params.Now
	if now == nil {
		now = time.Now
	}
	metricsManager := params.Metrics
	if metricsManager == nil {
		metricsManager = metrics.NewTestManager()
	}
	return &Service{
		store:      params.Store,
		reconciler: reconcile.NewReconciler(params.Store, now),
		analyzer:   params.Analyzer,
		parser:     rating.NewParser(),
		cache:      params.Cache,
		metrics:    metricsManager,
		now:        now,
	}
}

// AnalyzePhoto returns the raw analysis text, without parsing it.
func (s *Service) AnalyzePhoto(ctx context.Context, photo Photo) (string, error) {
	if s.analyzer == nil {
		return "", fmt.Errorf("%w: no analyzer configured", analysis.ErrAnalysisUnavailable)
	}

	start := time.Now()
	text, err := s.analyzer.Analyze(ctx, analysis.AnalyzeRequest{
		Image:    photo.Image,
		MimeType: photo.MimeType,
	})
	s.metrics.HistogramAnalysisDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		s.metrics.CounterAnalysisCalls.WithLabelValues("error").Inc()
		return "", err
	}
	s.metrics.CounterAnalysisCalls.WithLabelValues("ok").Inc()

	return text, nil
}

// RatePhoto analyzes the photo and parses the ratings out of the answer.
func (s *Service) RatePhoto(ctx context.Context, photo Photo) (score.Ratings, rating.Stage, error) {
	text, err := s.AnalyzePhoto(ctx, photo)
	if err != nil {
		return score.Ratings{}, rating.StageNone, err
	}

	r, stage, err := s.parser.Parse(text)
	if err != nil {
		s.metrics.CounterRatingParse.WithLabelValues("none").Inc()
		log.Warnf("gymscore: no ratings in analysis answer: %q", text)
		return score.Ratings{}, rating.StageNone, err
	}
	s.metrics.CounterRatingParse.WithLabelValues(string(stage)).Inc()

	return r, stage, nil
}

// Onboard stores the full first-run record set: four lifts, four physique
// rows and frequency, then the aggregate score.
func (s *Service) Onboard(ctx context.Context, userID string, req OnboardRequest) (_ *SubmitResult, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.gymscore.onboard")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if !records.ValidUserID(userID) {
		return nil, invalidInput("bad user id")
	}
	unit, err := validUnit(req.Unit)
	if err != nil {
		return nil, err
	}
	if req.Frequency < 0 || req.Frequency > records.MaxFrequency {
		return nil, invalidInput("frequency must be within [0, %d]", records.MaxFrequency)
	}

	result := &SubmitResult{}

	// sentinel "0/10" rows unless the photo yields ratings
	physique := &score.Ratings{}
	if req.Photo != nil {
		span.SetAttributes(attribute.Bool("photo", true))
		ratings, stage, err := s.RatePhoto(ctx, *req.Photo)
		switch {
		case err == nil:
			physique = &ratings
			result.Ratings = &ratings
			result.RatingStage = stage
		case req.ProceedWithoutPhysique:
			log.Warnf("gymscore: onboarding user %s without physique: %s", userID, err)
		default:
			return nil, err
		}
	}

	batch := reconcile.Batch{
		Exercises: map[records.Exercise]reconcile.ExerciseValue{
			records.BenchPress:   {WeightKg: units.Normalize(req.Bench, unit), Unit: unit},
			records.Squats:       {WeightKg: units.Normalize(req.Squats, unit), Unit: unit},
			records.BicepsCurls:  {WeightKg: units.Normalize(req.Curls, unit), Unit: unit},
			records.WideGripPull: {WeightKg: units.Normalize(req.Pull, unit), Unit: unit},
		},
		Physique:  physique,
		Frequency: &req.Frequency,
	}

	batchResult := s.reconciler.Apply(ctx, userID, batch)
	s.afterWrite(ctx, userID, "onboard", batchResult)

	if req.Profile != nil {
		if err := s.store.InsertProfileIfMissing(ctx, records.ProfileSummary{
			UserID:    userID,
			Name:      strings.TrimSpace(req.Profile.Name),
			Email:     strings.TrimSpace(req.Profile.Email),
			CreatedAt: s.now(),
		}); err != nil {
			log.Errorf("gymscore: failed to insert profile for %s: %s", userID, err)
		}
	}

	result.Score = batchResult.Score
	result.Outcomes = batchResult.Outcomes
	if err := batchResult.Err(); err != nil {
		return result, &PersistenceError{Failed: failedCategories(batchResult), Err: err}
	}

	return result, nil
}

// Edit updates only the submitted categories and recomputes the aggregate
// from everything stored, including the physique ratings from onboarding.
func (s *Service) Edit(ctx context.Context, userID string, req EditRequest) (_ *SubmitResult, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.gymscore.edit")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if !records.ValidUserID(userID) {
		return nil, invalidInput("bad user id")
	}
	if len(req.Values) == 0 {
		return nil, invalidInput("nothing to edit")
	}
	unit, err := validUnit(req.Unit)
	if err != nil {
		return nil, err
	}

	batch := reconcile.Batch{
		Exercises: make(map[records.Exercise]reconcile.ExerciseValue),
	}
	for key, value := range req.Values {
		if strings.EqualFold(strings.TrimSpace(key), FrequencyKey) {
			if batch.Frequency != nil {
				return nil, invalidInput("duplicate key %q", key)
			}
			days, err := validFrequency(value)
			if err != nil {
				return nil, err
			}
			batch.Frequency = &days
			continue
		}

		exercise, err := records.ParseExercise(key)
		if err != nil {
			return nil, invalidInput("%s", err)
		}
		if _, ok := batch.Exercises[exercise]; ok {
			return nil, invalidInput("duplicate key %q", key)
		}
		batch.Exercises[exercise] = reconcile.ExerciseValue{
			WeightKg: units.Normalize(value, unit),
			Unit:     unit,
		}
	}
	span.SetAttributes(attribute.Int("categories", len(req.Values)))

	batchResult := s.reconciler.Apply(ctx, userID, batch)
	s.afterWrite(ctx, userID, "edit", batchResult)

	result := &SubmitResult{
		Score:    batchResult.Score,
		Outcomes: batchResult.Outcomes,
	}
	if err := batchResult.Err(); err != nil {
		return result, &PersistenceError{Failed: failedCategories(batchResult), Err: err}
	}

	return result, nil
}

// Scoreboard reads the latest record of every category for the user.
func (s *Service) Scoreboard(ctx context.Context, userID string) (_ *Scoreboard, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.gymscore.scoreboard")
	defer func() {
		if errors.Is(err, ErrScoreboardNotFound) {
			span.End()
			return
		}
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if !records.ValidUserID(userID) {
		return nil, invalidInput("bad user id")
	}

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, userID)
		switch {
		case err != nil:
			s.metrics.CounterScoreboardCache.WithLabelValues("error").Inc()
			log.Warnf("gymscore: scoreboard cache get: %s", err)
		case cached != nil:
			s.metrics.CounterScoreboardCache.WithLabelValues("hit").Inc()
			return cached, nil
		default:
			s.metrics.CounterScoreboardCache.WithLabelValues("miss").Inc()
		}
	}

	sb := &Scoreboard{
		UserID:    userID,
		Exercises: []records.ExerciseRecord{},
		Physique:  []records.PhysiqueRating{},
	}

	if sb.Score, err = s.store.FindScore(ctx, userID); err != nil {
		return nil, fmt.Errorf("find score: %w", err)
	}
	if sb.Score == nil {
		return nil, ErrScoreboardNotFound
	}

	for _, e := range records.AllExercises {
		rec, err := s.store.FindExercise(ctx, userID, e)
		if err != nil {
			return nil, fmt.Errorf("find exercise %s: %w", e, err)
		}
		if rec != nil {
			sb.Exercises = append(sb.Exercises, *rec)
		}
	}
	for _, mg := range records.AllMuscleGroups {
		rec, err := s.store.FindPhysique(ctx, userID, mg)
		if err != nil {
			return nil, fmt.Errorf("find physique %s: %w", mg, err)
		}
		if rec != nil {
			sb.Physique = append(sb.Physique, *rec)
		}
	}
	if sb.Frequency, err = s.store.FindFrequency(ctx, userID); err != nil {
		return nil, fmt.Errorf("find frequency: %w", err)
	}
	if sb.Profile, err = s.store.FindProfile(ctx, userID); err != nil {
		return nil, fmt.Errorf("find profile: %w", err)
	}
	sb.Segments = computeSegments(sb)

	if s.cache != nil {
		if err := s.cache.Set(ctx, sb); err != nil {
			log.Warnf("gymscore: scoreboard cache set: %s", err)
		}
	}

	return sb, nil
}

func (s *Service) afterWrite(ctx context.Context, userID, flow string, result reconcile.BatchResult) {
	for _, c := range failedCategories(result) {
		s.metrics.CounterCategoryWriteFailures.WithLabelValues(string(c)).Inc()
	}
	if result.Score != nil {
		s.metrics.CounterScoreWrites.WithLabelValues(flow).Inc()
	}

	// some categories may have been written even when others failed
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, userID); err != nil {
			log.Errorf("gymscore: failed to invalidate scoreboard cache for %s: %s", userID, err)
		}
	}
}

// failedCategories lists the failed writes, the score included.
func failedCategories(result reconcile.BatchResult) []reconcile.Category {
	failed := result.Failed()
	if result.ScoreErr != nil {
		failed = append(failed, reconcile.CategoryScore)
	}
	return failed
}

func validUnit(u units.Unit) (units.Unit, error) {
	unit, err := units.ParseUnit(string(u))
	if err != nil {
		return "", invalidInput("%s", err)
	}
	return unit, nil
}

func validFrequency(value float64) (int, error) {
	if math.IsNaN(value) || value != math.Trunc(value) || value < 0 || value > records.MaxFrequency {
		return 0, invalidInput("frequency must be a whole number within [0, %d]", records.MaxFrequency)
	}
	return int(value), nil
}
