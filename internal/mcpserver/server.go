// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes WormBox tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/wormbox/internal/analysis"
	"github.com/starford/wormbox/internal/apperr"
)

const contractURI = "wormbox://aspects-format"

// Server wraps the MCP server with WormBox tools.
type Server struct {
	mcp    *server.MCPServer
	svc    *analysis.Service
	logger *slog.Logger
}

// New creates a new MCP server with all WormBox tools registered.
func New(svc *analysis.Service, logger *slog.Logger) *Server {
	s := &Server{svc: svc, logger: logger}

	s.mcp = server.NewMCPServer(
		"WormBox",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("analyze_folder",
		mcp.WithDescription("Run the measurement pipeline over the data folder and write the CSV report. "+
			"Returns the run summary and the report."),
		mcp.WithString("aspects_file", mcp.Description("Aspects file, relative to the data folder (default config.txt)")),
		mcp.WithString("output", mcp.Description("Report name; .csv is appended (default results)")),
		mcp.WithBoolean("skip_unchanged", mcp.Description("Skip the run when inputs match the last recorded run")),
	), s.analyzeFolder)

	s.mcp.AddTool(mcp.NewTool("evaluate_aspects",
		mcp.WithDescription("Evaluate aspect definitions against coordinate records given inline. "+
			"Nothing is written. Read the format contract first via get_aspects_contract "+
			"or the "+contractURI+" resource."),
		mcp.WithString("coordinates", mcp.Required(), mcp.Description("Coordinate records, one <image>:<landmark>\\t<x>\\t<y> per line")),
		mcp.WithString("aspects", mcp.Required(), mcp.Description("Aspects file content, one <name>:<definition> per line")),
	), s.evaluateAspects)

	s.mcp.AddTool(mcp.NewTool("list_coordinate_files",
		mcp.WithDescription("List the coordinate files of the data folder."),
		mcp.WithString("suffix", mcp.Description("File name suffix (default _data.txt)")),
	), s.listCoordinateFiles)

	s.mcp.AddTool(mcp.NewTool("list_runs",
		mcp.WithDescription("List recorded analysis runs of the data folder, newest first."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of runs (default 20)")),
	), s.listRuns)

	s.mcp.AddTool(mcp.NewTool("get_report",
		mcp.WithDescription("Return the CSV report of a recorded run."),
		mcp.WithString("run_id", mcp.Required(), mcp.Description("Run id as returned by analyze_folder or list_runs")),
	), s.getReport)

	s.mcp.AddTool(mcp.NewTool("get_aspects_contract",
		mcp.WithDescription("Returns the coordinate and aspects file format contract."),
	), s.getAspectsContract)

	s.mcp.AddResource(
		mcp.NewResource(contractURI, "Aspects Format Contract",
			mcp.WithResourceDescription("Coordinate file and aspects file formats."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readContractResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

type analyzeResult struct {
	RunID   string `json:"run_id,omitempty"`
	Output  string `json:"output,omitempty"`
	Images  int    `json:"images"`
	NACount int    `json:"na_count"`
	Skipped bool   `json:"skipped"`
	Report  string `json:"report,omitempty"`
}

func (s *Server) analyzeFolder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := s.svc.Run(ctx, analysis.Request{
		AspectsFile:   req.GetString("aspects_file", ""),
		Output:        req.GetString("output", ""),
		SkipUnchanged: req.GetBool("skip_unchanged", false),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	out := analyzeResult{
		RunID:   res.RunID,
		Output:  res.Output,
		Images:  res.Images,
		NACount: res.NACount,
		Skipped: res.Skipped,
	}
	if res.Report != nil {
		var b strings.Builder
		if err := res.Report.WriteCSV(&b); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		out.Report = b.String()
	}
	data, _ := json.MarshalIndent(out, "", "  ")
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) evaluateAspects(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	coords, err := req.RequireString("coordinates")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	aspects, err := req.RequireString("aspects")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	rep, _, err := analysis.Evaluate(coords, aspects, s.logger)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var b strings.Builder
	if err := rep.WriteCSV(&b); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) listCoordinateFiles(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	files, err := s.svc.ListCoordinateFiles(req.GetString("suffix", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(files) == 0 {
		return mcp.NewToolResultText("no coordinate files found"), nil
	}
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	return mcp.NewToolResultText(strings.Join(paths, "\n")), nil
}

func (s *Server) listRuns(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	runs := s.svc.Runs()
	if runs == nil {
		return mcp.NewToolResultError("run history is disabled"), nil
	}
	rows, err := runs.ListRuns(s.svc.Folder(), req.GetInt("limit", 20))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(rows) == 0 {
		return mcp.NewToolResultText("no runs recorded"), nil
	}
	data, _ := json.MarshalIndent(rows, "", "  ")
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) getReport(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("run_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	runs := s.svc.Runs()
	if runs == nil {
		return mcp.NewToolResultError("run history is disabled"), nil
	}
	run, err := runs.GetRun(id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("run not found: %s", id)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(run.ReportCSV), nil
}

func (s *Server) getAspectsContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(AspectsFormatContract), nil
}

func (s *Server) readContractResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      contractURI,
			MIMEType: "text/markdown",
			Text:     AspectsFormatContract,
		},
	}, nil
}
