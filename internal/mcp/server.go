package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/server"
)

// New creates an MCP server with all tools registered.
func New(b Backend, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("PaceGuard", version,
		server.WithToolCapabilities(false),
		server.WithInstructions("PaceGuard running coach. Computes pace zones and session paces, predicts race times, checks weekly volume increases against injury-prevention rules and decides whether a plan should adapt after session feedback. Paces are seconds per km or m:ss strings."),
	)

	h := &handlers{backend: b, log: log}

	s.AddTools(
		server.ServerTool{Tool: toolFitnessScore, Handler: h.fitnessScore},
		server.ServerTool{Tool: toolComputePaceZones, Handler: h.computePaceZones},
		server.ServerTool{Tool: toolPaceForSession, Handler: h.paceForSession},
		server.ServerTool{Tool: toolPredictRaceTime, Handler: h.predictRaceTime},
		server.ServerTool{Tool: toolValidateWeeklyVolume, Handler: h.validateWeeklyVolume},
		server.ServerTool{Tool: toolEvaluateSessionFeedback, Handler: h.evaluateSessionFeedback},
	)

	return s
}

// handlers holds dependencies for MCP tool handlers.
type handlers struct {
	backend Backend
	log     *slog.Logger
}
