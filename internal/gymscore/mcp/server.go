package mcp

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const ServerName = "gymscore"

// NewServer builds an MCP server with gymscore tools: scoreboard read, what-if
// score computation and ratings parsing. The schema tool is only added when a
// postgres pool is given.
// Used by the main backend when mounting MCP at /mcp and by cmd/gymscore_mcp over stdio.
func NewServer(scoreboards scoreboardReader, pool *pgxpool.Pool) *mcp.Server {
	var schemaRepo SchemaRepo
	if pool != nil {
		schemaRepo = NewPoolSchemaRepo(pool)
	}
	h := NewHandler(NewContextService(scoreboards, schemaRepo))

	s := mcp.NewServer(&mcp.Implementation{
		Name:    ServerName,
		Version: "1.0.0",
	}, nil)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_gymscore",
		Description: "Returns the public scoreboard of a user: aggregate gym score, latest weight per exercise (kg), physique grades per muscle group, training frequency, profile name and per-segment totals. Arg: user_id (UUID).",
	}, h.GetGymscoreTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "compute_gymscore",
		Description: "Computes a gym score without storing anything. Args: bench, squats, curls, pull weights, unit (kg or lbs), frequency (days per week, 0-14); optional ratings (chest, legs, arms, back 1-10). Weights are clamped to 500 kg / 660 lbs. With ratings, the pull weight is replaced by physique grades.",
	}, h.ComputeGymscoreTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "parse_physique_ratings",
		Description: "Extracts chest, legs, arms and back grades from a physique analysis text. Tries a JSON object first, then 'Chest 7/10' style labels. Returns the ratings and which stage matched.",
	}, h.ParsePhysiqueRatingsTool())

	if schemaRepo != nil {
		mcp.AddTool(s, &mcp.Tool{
			Name:        "get_gymscore_schema",
			Description: "Returns the DB schema for gymscore tables (exercise, physique, frequency, score, profile): table names, columns, types, nullable, default.",
		}, h.GetGymscoreSchemaTool())
	}

	return s
}
