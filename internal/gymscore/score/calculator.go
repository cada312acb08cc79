package score

const (
	ExerciseFactor  = 0.5
	PhysiqueFactor  = 10.0
	FrequencyFactor = 15.0
)

// Exercises holds the four lifts, already normalized to kilograms.
type Exercises struct {
	BenchKg  float64 `json:"benchKg"`
	SquatsKg float64 `json:"squatsKg"`
	CurlsKg  float64 `json:"curlsKg"`
	PullKg   float64 `json:"pullKg"`
}

// Ratings are physique grades per muscle group. The analysis contract is
// [1,10]; a 0 means the muscle group was not mentioned.
type Ratings struct {
	Chest int `json:"chest"`
	Legs  int `json:"legs"`
	Arms  int `json:"arms"`
	Back  int `json:"back"`
}

func (r Ratings) Sum() int {
	return r.Chest + r.Legs + r.Arms + r.Back
}

// Compute blends lifts, frequency and optional physique ratings into one score.
//
// With ratings present the wide grip pull weight is not counted: physique
// grading of all four groups replaces it. Without ratings, pull strength
// substitutes for the physique signal.
func Compute(ex Exercises, frequencyDaysPerWeek int, ratings *Ratings) float64 {
	total := ExercisePoints(ex.BenchKg) +
		ExercisePoints(ex.SquatsKg) +
		ExercisePoints(ex.CurlsKg) +
		FrequencyPoints(frequencyDaysPerWeek)

	if ratings != nil {
		total += PhysiqueFactor * float64(ratings.Sum())
	} else {
		total += ExercisePoints(ex.PullKg)
	}

	if total < 0 {
		return 0
	}
	return total
}

func ExercisePoints(kg float64) float64 {
	return kg * ExerciseFactor
}

func PhysiquePoints(rating int) float64 {
	return float64(rating) * PhysiqueFactor
}

func FrequencyPoints(daysPerWeek int) float64 {
	return float64(daysPerWeek) * FrequencyFactor
}
