package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/avishayil/git-llm-analyzer/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for repository resources.
	uriScheme = "repo://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Summary of the last ingestion.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "report",
		Name:        "report",
		Description: "Summary of the indexed repository: file counts, skipped files, corpus version",
		MIMEType:    "application/json",
	}, s.handleReportResource)

	// Loaded file paths.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "files",
		Name:        "files",
		Description: "Paths of every file loaded into the index",
		MIMEType:    "application/json",
	}, s.handleFilesResource)

	// Template for file content.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "files/{+path}",
		Name:        "file-content",
		Description: "Content of an indexed file",
		MIMEType:    "text/plain",
	}, s.handleFileContentResource)
}

// reportInfo is the JSON form of an ingest report.
type reportInfo struct {
	Name          string         `json:"name"`
	URL           string         `json:"url,omitempty"`
	Documents     int            `json:"documents"`
	Chunks        int            `json:"chunks"`
	FileTypes     string         `json:"file_types"`
	Skipped       map[string]int `json:"skipped,omitempty"`
	CorpusVersion string         `json:"corpus_version"`
}

func (s *Server) lastReport() *domain.IngestReport {
	if s.ports.Ingester == nil {
		return nil
	}
	return s.ports.Ingester.LastReport()
}

// handleReportResource returns the last ingest report.
func (s *Server) handleReportResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	report := s.lastReport()
	if report == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	info := reportInfo{
		Name:          report.Name,
		URL:           report.URL,
		Documents:     report.Documents(),
		Chunks:        report.Chunks,
		FileTypes:     report.FileTypeCounts(),
		Skipped:       report.WarningSummary(),
		CorpusVersion: report.CorpusVersion,
	}
	return jsonResource(req.Params.URI, info)
}

// handleFilesResource returns the loaded file paths.
func (s *Server) handleFilesResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	files := []string{}
	if report := s.lastReport(); report != nil {
		files = report.FileNames
	}
	return jsonResource(req.Params.URI, files)
}

// handleFileContentResource returns the content of one loaded file.
// Only paths listed in the last report are served.
func (s *Server) handleFileContentResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	report := s.lastReport()
	if report == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	// Extract the path from URI: repo://files/{path}
	rel := extractFilePath(req.Params.URI)
	if rel == "" || !slices.Contains(report.FileNames, rel) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	full := filepath.Join(report.Root, filepath.FromSlash(rel))
	if r, err := filepath.Rel(report.Root, full); err != nil || strings.HasPrefix(r, "..") {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	content, err := os.ReadFile(full)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", rel, err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/plain",
			Text:     string(content),
		}},
	}, nil
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractFilePath extracts the file path from a URI like repo://files/{path}.
func extractFilePath(uri string) string {
	const prefix = uriScheme + "files/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	return strings.TrimPrefix(uri, prefix)
}
