package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/2beens/gymscore/internal/gymscore"
	"github.com/2beens/gymscore/internal/gymscore/rating"
	"github.com/2beens/gymscore/internal/gymscore/records"
	"github.com/2beens/gymscore/internal/gymscore/score"
)

const testUserID = "8d0f4c3e-5a3b-4b8e-9f57-1c2d3e4f5a6b"

// mockContextService implements contextService for tests.
type mockContextService struct {
	scoreboard    *gymscore.Scoreboard
	scoreboardErr error
	gotUserID     string
	computed      *ComputeScoreResult
	computeErr    error
	parsed        *ParseRatingsResult
	parseErr      error
	schema        string
	schemaErr     error
}

func (m *mockContextService) GetScoreboard(_ context.Context, userID string) (*gymscore.Scoreboard, error) {
	m.gotUserID = userID
	return m.scoreboard, m.scoreboardErr
}

func (m *mockContextService) ComputeScore(_ ComputeScoreInput) (*ComputeScoreResult, error) {
	return m.computed, m.computeErr
}

func (m *mockContextService) ParseRatings(_ string) (*ParseRatingsResult, error) {
	return m.parsed, m.parseErr
}

func (m *mockContextService) GetSchema(_ context.Context) (string, error) {
	return m.schema, m.schemaErr
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) != 1 {
		t.Fatalf("expected 1 content, got %d", len(res.Content))
	}
	tc, ok := res.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("expected *mcp.TextContent, got %T", res.Content[0])
	}
	return tc.Text
}

func TestHandler_GetGymscoreTool(t *testing.T) {
	t.Run("returns_scoreboard_json", func(t *testing.T) {
		svc := &mockContextService{
			scoreboard: &gymscore.Scoreboard{
				UserID: testUserID,
				Score:  &records.ScoreRecord{UserID: testUserID, Score: 230},
				Segments: gymscore.Segments{
					Chest: 50,
				},
			},
		}
		fn := NewHandler(svc).GetGymscoreTool()
		res, _, err := fn(context.Background(), &mcp.CallToolRequest{}, GetGymscoreInput{UserID: testUserID})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.IsError {
			t.Fatalf("unexpected IsError: %s", resultText(t, res))
		}
		if svc.gotUserID != testUserID {
			t.Fatalf("service called with %q, want %q", svc.gotUserID, testUserID)
		}

		var got gymscore.Scoreboard
		if err := json.Unmarshal([]byte(resultText(t, res)), &got); err != nil {
			t.Fatalf("result is not scoreboard json: %v", err)
		}
		if got.Score == nil || got.Score.Score != 230 {
			t.Fatalf("score = %+v, want 230", got.Score)
		}
		if got.Segments.Chest != 50 {
			t.Fatalf("chest segment = %v, want 50", got.Segments.Chest)
		}
	})

	t.Run("rejects_non_uuid", func(t *testing.T) {
		svc := &mockContextService{}
		fn := NewHandler(svc).GetGymscoreTool()
		res, _, err := fn(context.Background(), &mcp.CallToolRequest{}, GetGymscoreInput{UserID: "bob"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !res.IsError {
			t.Fatalf("expected IsError")
		}
		if svc.gotUserID != "" {
			t.Fatalf("service should not be called")
		}
	})

	t.Run("not_found", func(t *testing.T) {
		svc := &mockContextService{scoreboardErr: gymscore.ErrScoreboardNotFound}
		fn := NewHandler(svc).GetGymscoreTool()
		res, _, _ := fn(context.Background(), &mcp.CallToolRequest{}, GetGymscoreInput{UserID: testUserID})
		if !res.IsError {
			t.Fatalf("expected IsError")
		}
		if text := resultText(t, res); !strings.HasPrefix(text, "No gymscore yet") {
			t.Fatalf("unexpected text: %q", text)
		}
	})

	t.Run("store_error", func(t *testing.T) {
		svc := &mockContextService{scoreboardErr: errors.New("db gone")}
		fn := NewHandler(svc).GetGymscoreTool()
		res, _, _ := fn(context.Background(), &mcp.CallToolRequest{}, GetGymscoreInput{UserID: testUserID})
		if !res.IsError {
			t.Fatalf("expected IsError")
		}
		if text := resultText(t, res); !strings.Contains(text, "db gone") {
			t.Fatalf("error text %q does not contain cause", text)
		}
	})
}

func TestHandler_ComputeGymscoreTool(t *testing.T) {
	svc := &mockContextService{computed: &ComputeScoreResult{Score: 230}}
	fn := NewHandler(svc).ComputeGymscoreTool()
	res, _, err := fn(context.Background(), &mcp.CallToolRequest{}, ComputeScoreInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected IsError")
	}
	if text := resultText(t, res); !strings.Contains(text, `"score": 230`) {
		t.Fatalf("unexpected text: %q", text)
	}

	svc.computeErr = errors.New("unknown unit")
	res, _, _ = fn(context.Background(), &mcp.CallToolRequest{}, ComputeScoreInput{})
	if !res.IsError {
		t.Fatalf("expected IsError")
	}
}

func TestHandler_ParsePhysiqueRatingsTool(t *testing.T) {
	svc := &mockContextService{
		parsed: &ParseRatingsResult{
			Ratings: score.Ratings{Chest: 7, Legs: 6, Arms: 5, Back: 8},
			Stage:   rating.StageLabels,
		},
	}
	fn := NewHandler(svc).ParsePhysiqueRatingsTool()
	res, _, _ := fn(context.Background(), &mcp.CallToolRequest{}, ParseRatingsInput{Text: "Chest 7/10"})
	if res.IsError {
		t.Fatalf("unexpected IsError")
	}
	if text := resultText(t, res); !strings.Contains(text, `"stage": "labels"`) {
		t.Fatalf("unexpected text: %q", text)
	}

	svc.parseErr = rating.ErrNoRating
	res, _, _ = fn(context.Background(), &mcp.CallToolRequest{}, ParseRatingsInput{Text: "looks strong"})
	if !res.IsError {
		t.Fatalf("expected IsError")
	}
}

func TestHandler_GetGymscoreSchemaTool(t *testing.T) {
	t.Run("returns_schema", func(t *testing.T) {
		want := "## gymscore_score\n| col | type |\n"
		fn := NewHandler(&mockContextService{schema: want}).GetGymscoreSchemaTool()
		res, _, err := fn(context.Background(), &mcp.CallToolRequest{}, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.IsError {
			t.Fatalf("unexpected IsError")
		}
		if got := resultText(t, res); got != want {
			t.Fatalf("content text = %q, want %q", got, want)
		}
	})

	t.Run("returns_error_when_schema_fails", func(t *testing.T) {
		fn := NewHandler(&mockContextService{schemaErr: errors.New("db gone")}).GetGymscoreSchemaTool()
		res, _, err := fn(context.Background(), &mcp.CallToolRequest{}, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !res.IsError {
			t.Fatalf("expected IsError")
		}
		if got := resultText(t, res); got != "Error fetching schema: db gone" {
			t.Fatalf("unexpected text: %q", got)
		}
	})
}
