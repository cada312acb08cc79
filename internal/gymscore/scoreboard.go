package gymscore

import (
	"github.com/2beens/gymscore/internal/gymscore/records"
)

// Scoreboard is the public projection of a user's stored records.
type Scoreboard struct {
	UserID    string                   `json:"userId"`
	Score     *records.ScoreRecord     `json:"score"`
	Exercises []records.ExerciseRecord `json:"exercises"`
	Physique  []records.PhysiqueRating `json:"physique"`
	Frequency *records.FrequencyRecord `json:"frequency"`
	Profile   *records.ProfileSummary  `json:"profile,omitempty"`
	Segments  Segments                 `json:"segments"`
}

// Segments are display totals per body segment: each lift is paired with
// the physique rating of the muscle group it trains.
type Segments struct {
	Chest     float64 `json:"chest"`
	Legs      float64 `json:"legs"`
	Arms      float64 `json:"arms"`
	Back      float64 `json:"back"`
	Frequency float64 `json:"frequency"`
}

var exerciseSegment = map[records.Exercise]records.MuscleGroup{
	records.BenchPress:   records.Chest,
	records.Squats:       records.Legs,
	records.BicepsCurls:  records.Arms,
	records.WideGripPull: records.Back,
}

func computeSegments(sb *Scoreboard) Segments {
	totals := make(map[records.MuscleGroup]float64, len(records.AllMuscleGroups))
	for _, ex := range sb.Exercises {
		totals[exerciseSegment[ex.Exercise]] += ex.Points
	}
	for _, ph := range sb.Physique {
		totals[ph.MuscleGroup] += ph.Points
	}

	seg := Segments{
		Chest: totals[records.Chest],
		Legs:  totals[records.Legs],
		Arms:  totals[records.Arms],
		Back:  totals[records.Back],
	}
	if sb.Frequency != nil {
		seg.Frequency = sb.Frequency.Points
	}
	return seg
}
