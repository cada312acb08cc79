package rating

import (
	"encoding/json"
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/2beens/gymscore/internal/gymscore/score"
)

var ErrNoRating = errors.New("no rating found")

const (
	MinRating = 1
	MaxRating = 10
)

// Stage names the strategy that produced a result.
type Stage string

const (
	StageNone       Stage = ""
	StageStructured Stage = "structured"
	StageLabels     Stage = "labels"
)

// Strategy extracts ratings from model output, reporting false when it has
// nothing valid to offer so the next strategy can try.
type Strategy interface {
	Stage() Stage
	Extract(text string) (score.Ratings, bool)
}

type Parser struct {
	strategies []Strategy
}

// NewParser returns a parser trying the structured JSON strategy first and the
// label heuristic second.
func NewParser() *Parser {
	return NewParserWithStrategies(StructuredStrategy{}, LabelStrategy{})
}

func NewParserWithStrategies(strategies ...Strategy) *Parser {
	return &Parser{
		strategies: strategies,
	}
}

// Parse runs the strategies in order; the first success wins.
// A rating of 0 from the label stage means "not mentioned", which is a valid
// result and not the same as ErrNoRating.
func (p *Parser) Parse(text string) (score.Ratings, Stage, error) {
	for _, s := range p.strategies {
		if r, ok := s.Extract(text); ok {
			return r, s.Stage(), nil
		}
	}
	return score.Ratings{}, StageNone, ErrNoRating
}

// Parse uses the default parser.
func Parse(text string) (score.Ratings, Stage, error) {
	return defaultParser.Parse(text)
}

var defaultParser = NewParser()

var fencedBlockRegex = regexp.MustCompile("(?is)```(?:json)?\\s*(.+?)\\s*```")

// StructuredStrategy reads a JSON object (optionally inside a fenced block)
// with numeric chest, legs, arms and back fields, all within [1,10].
type StructuredStrategy struct{}

func (StructuredStrategy) Stage() Stage {
	return StageStructured
}

func (StructuredStrategy) Extract(text string) (score.Ratings, bool) {
	payload := text
	if m := fencedBlockRegex.FindStringSubmatch(text); len(m) == 2 {
		payload = m[1]
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(strings.TrimSpace(payload)), &fields); err != nil {
		return score.Ratings{}, false
	}

	var r score.Ratings
	targets := []struct {
		key string
		dst *int
	}{
		{"chest", &r.Chest},
		{"legs", &r.Legs},
		{"arms", &r.Arms},
		{"back", &r.Back},
	}
	for _, t := range targets {
		v, ok := ratingField(fields[t.key])
		if !ok {
			return score.Ratings{}, false
		}
		*t.dst = v
	}

	return r, true
}

// ratingField accepts only JSON numbers in [1,10]. Fractions are truncated.
func ratingField(raw json.RawMessage) (int, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		// strings, bools, nulls and objects end up here
		return 0, false
	}
	f, err := n.Float64()
	if err != nil {
		return 0, false
	}
	if f < MinRating || f > MaxRating {
		return 0, false
	}
	return int(f), true
}

var labelRegexes = []struct {
	label string
	re    *regexp.Regexp
}{
	{"chest", regexp.MustCompile(`(?i)chest\s*(\d{1,2})/10`)},
	{"legs", regexp.MustCompile(`(?i)legs\s*(\d{1,2})/10`)},
	{"back", regexp.MustCompile(`(?i)back\s*(\d{1,2})/10`)},
	{"arms", regexp.MustCompile(`(?i)arms\s*(\d{1,2})/10`)},
}

// LabelStrategy scans prose for "<Label> N/10". Labels not found count as 0.
// It fails when no label matches at all, or when any value exceeds 10.
type LabelStrategy struct{}

func (LabelStrategy) Stage() Stage {
	return StageLabels
}

func (LabelStrategy) Extract(text string) (score.Ratings, bool) {
	values := make(map[string]int, len(labelRegexes))
	matched := 0
	for _, l := range labelRegexes {
		m := l.re.FindStringSubmatch(text)
		if len(m) != 2 {
			continue
		}
		v, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		matched++
		values[l.label] = v
	}

	if matched == 0 {
		return score.Ratings{}, false
	}

	for _, v := range values {
		if v > MaxRating {
			return score.Ratings{}, false
		}
	}

	return score.Ratings{
		Chest: values["chest"],
		Legs:  values["legs"],
		Arms:  values["arms"],
		Back:  values["back"],
	}, true
}
