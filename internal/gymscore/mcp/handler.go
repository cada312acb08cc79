package mcp

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/2beens/gymscore/internal/gymscore"
	"github.com/2beens/gymscore/internal/gymscore/score"
)

// Handler handles MCP tool requests and responses: parses input, calls the service, formats MCP result.
type Handler struct {
	service contextService
}

func NewHandler(service contextService) *Handler {
	return &Handler{
		service: service,
	}
}

// GetGymscoreInput is the input for get_gymscore.
type GetGymscoreInput struct {
	UserID string `json:"user_id" jsonschema:"User id (UUID) whose scoreboard to fetch"`
}

// GetGymscoreTool returns the MCP tool handler for get_gymscore.
func (h *Handler) GetGymscoreTool() func(context.Context, *mcp.CallToolRequest, GetGymscoreInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in GetGymscoreInput) (*mcp.CallToolResult, any, error) {
		if _, err := uuid.Parse(in.UserID); err != nil {
			return errorResult("Invalid user_id: expected a UUID"), nil, nil
		}

		sb, err := h.service.GetScoreboard(ctx, in.UserID)
		if errors.Is(err, gymscore.ErrScoreboardNotFound) {
			return errorResult("No gymscore yet for user " + in.UserID), nil, nil
		}
		if err != nil {
			return errorResult("Error fetching gymscore: " + err.Error()), nil, nil
		}

		return jsonResult(sb)
	}
}

// ComputeScoreInput is the input for compute_gymscore.
type ComputeScoreInput struct {
	Bench     float64        `json:"bench" jsonschema:"Bench press weight"`
	Squats    float64        `json:"squats" jsonschema:"Squats weight"`
	Curls     float64        `json:"curls" jsonschema:"Biceps curls weight"`
	Pull      float64        `json:"pull" jsonschema:"Wide grip pull weight"`
	Unit      string         `json:"unit,omitempty" jsonschema:"Weight unit: kg (default) or lbs"`
	Frequency int            `json:"frequency" jsonschema:"Training days per week, 0-14"`
	Ratings   *score.Ratings `json:"ratings,omitempty" jsonschema:"Optional physique grades (1-10) for chest, legs, arms, back"`
}

// ComputeGymscoreTool returns the MCP tool handler for compute_gymscore.
func (h *Handler) ComputeGymscoreTool() func(context.Context, *mcp.CallToolRequest, ComputeScoreInput) (*mcp.CallToolResult, any, error) {
	return func(_ context.Context, _ *mcp.CallToolRequest, in ComputeScoreInput) (*mcp.CallToolResult, any, error) {
		res, err := h.service.ComputeScore(in)
		if err != nil {
			return errorResult("Invalid input: " + err.Error()), nil, nil
		}
		return jsonResult(res)
	}
}

// ParseRatingsInput is the input for parse_physique_ratings.
type ParseRatingsInput struct {
	Text string `json:"text" jsonschema:"Physique analysis text to extract ratings from"`
}

// ParsePhysiqueRatingsTool returns the MCP tool handler for parse_physique_ratings.
func (h *Handler) ParsePhysiqueRatingsTool() func(context.Context, *mcp.CallToolRequest, ParseRatingsInput) (*mcp.CallToolResult, any, error) {
	return func(_ context.Context, _ *mcp.CallToolRequest, in ParseRatingsInput) (*mcp.CallToolResult, any, error) {
		res, err := h.service.ParseRatings(in.Text)
		if err != nil {
			return errorResult("Error parsing ratings: " + err.Error()), nil, nil
		}
		return jsonResult(res)
	}
}

// GetGymscoreSchemaTool returns the MCP tool handler for get_gymscore_schema.
func (h *Handler) GetGymscoreSchemaTool() func(context.Context, *mcp.CallToolRequest, any) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ any) (*mcp.CallToolResult, any, error) {
		text, err := h.service.GetSchema(ctx)
		if err != nil {
			return errorResult("Error fetching schema: " + err.Error()), nil, nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: text}},
		}, nil, nil
	}
}

func jsonResult(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult("Error encoding result: " + err.Error()), nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil, nil
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}
}
