package mcp

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/2beens/gymscore/internal/gymscore"
	"github.com/2beens/gymscore/internal/gymscore/rating"
	"github.com/2beens/gymscore/internal/gymscore/records"
	"github.com/2beens/gymscore/internal/gymscore/score"
	"github.com/2beens/gymscore/internal/gymscore/units"
)

var errNoSchema = errors.New("schema is only available with the postgres store")

type scoreboardReader interface {
	Scoreboard(ctx context.Context, userID string) (*gymscore.Scoreboard, error)
}

// contextService provides gymscore data and what-if computations to the tools.
// Used by Handler for testability.
type contextService interface {
	GetScoreboard(ctx context.Context, userID string) (*gymscore.Scoreboard, error)
	ComputeScore(in ComputeScoreInput) (*ComputeScoreResult, error)
	ParseRatings(text string) (*ParseRatingsResult, error)
	GetSchema(ctx context.Context) (string, error)
}

// ComputeScoreResult is a score computed without storing anything.
type ComputeScoreResult struct {
	Score     float64         `json:"score"`
	Exercises score.Exercises `json:"exercises"`

	// PhysiquePath tells whether ratings replaced the pull weight.
	PhysiquePath bool `json:"physiquePath"`
}

type ParseRatingsResult struct {
	Ratings score.Ratings `json:"ratings"`
	Stage   rating.Stage  `json:"stage"`
}

type ContextService struct {
	scoreboards scoreboardReader
	schema      SchemaRepo
	parser      *rating.Parser
}

// NewContextService builds a ContextService. schemaRepo may be nil.
func NewContextService(scoreboards scoreboardReader, schemaRepo SchemaRepo) *ContextService {
	return &ContextService{
		scoreboards: scoreboards,
		schema:      schemaRepo,
		parser:      rating.NewParser(),
	}
}

func (s *ContextService) GetScoreboard(ctx context.Context, userID string) (*gymscore.Scoreboard, error) {
	return s.scoreboards.Scoreboard(ctx, userID)
}

func (s *ContextService) ComputeScore(in ComputeScoreInput) (*ComputeScoreResult, error) {
	unit, err := units.ParseUnit(in.Unit)
	if err != nil {
		return nil, err
	}
	if in.Frequency < 0 || in.Frequency > records.MaxFrequency {
		return nil, fmt.Errorf("frequency must be within [0, %d], got %d", records.MaxFrequency, in.Frequency)
	}

	ex := score.Exercises{
		BenchKg:  units.Normalize(in.Bench, unit),
		SquatsKg: units.Normalize(in.Squats, unit),
		CurlsKg:  units.Normalize(in.Curls, unit),
		PullKg:   units.Normalize(in.Pull, unit),
	}

	// all zero means no photo grading, same as the stored sentinel rows
	var ratings *score.Ratings
	if in.Ratings != nil && *in.Ratings != (score.Ratings{}) {
		if err := validRatings(*in.Ratings); err != nil {
			return nil, err
		}
		ratings = in.Ratings
	}

	return &ComputeScoreResult{
		Score:        score.Compute(ex, in.Frequency, ratings),
		Exercises:    ex,
		PhysiquePath: ratings != nil,
	}, nil
}

func validRatings(r score.Ratings) error {
	grades := []struct {
		name  string
		value int
	}{{"chest", r.Chest}, {"legs", r.Legs}, {"arms", r.Arms}, {"back", r.Back}}
	for _, g := range grades {
		if g.value < rating.MinRating || g.value > rating.MaxRating {
			return fmt.Errorf("%s rating must be within [%d, %d], got %d", g.name, rating.MinRating, rating.MaxRating, g.value)
		}
	}
	return nil
}

func (s *ContextService) ParseRatings(text string) (*ParseRatingsResult, error) {
	r, stage, err := s.parser.Parse(text)
	if err != nil {
		return nil, err
	}
	return &ParseRatingsResult{Ratings: r, Stage: stage}, nil
}

// GetSchema returns the DB schema (table names, columns, types) of the gymscore tables.
func (s *ContextService) GetSchema(ctx context.Context) (string, error) {
	if s.schema == nil {
		return "", errNoSchema
	}
	cols, err := s.schema.GetGymscoreColumns(ctx)
	if err != nil {
		return "", err
	}
	return formatGymscoreSchema(cols), nil
}

func formatGymscoreSchema(cols []SchemaColumn) string {
	if len(cols) == 0 {
		return "# Gymscore DB Schema\n\nNo gymscore tables found in the database.\n"
	}

	byTable := make(map[string][]SchemaColumn)
	for _, c := range cols {
		byTable[c.TableName] = append(byTable[c.TableName], c)
	}

	tableOrder := make([]string, 0, len(byTable))
	for t := range byTable {
		tableOrder = append(tableOrder, t)
	}
	sort.Strings(tableOrder)

	var b strings.Builder
	b.WriteString("# Gymscore DB Schema\n\n")
	b.WriteString("One current row per category per user; rows are updated in place.\n\n")

	for _, tableName := range tableOrder {
		b.WriteString("## ")
		b.WriteString(tableName)
		b.WriteString("\n\n| Column | Type | Nullable | Default |\n|--------|------|----------|--------|\n")
		for _, c := range byTable[tableName] {
			def := "-"
			if c.ColumnDef != nil && *c.ColumnDef != "" {
				def = *c.ColumnDef
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", c.ColumnName, c.DataType, c.IsNullable, def)
		}
		b.WriteString("\n")
	}

	return strings.TrimSuffix(b.String(), "\n\n") + "\n"
}
