package mcp

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avishayil/git-llm-analyzer/internal/core/domain"
)

func TestExtractFilePath(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{
			name:     "valid file URI",
			uri:      "repo://files/internal/auth/login.go",
			expected: "internal/auth/login.go",
		},
		{
			name:     "invalid prefix",
			uri:      "file://files/main.go",
			expected: "",
		},
		{
			name:     "files listing",
			uri:      "repo://files",
			expected: "",
		},
		{
			name:     "empty URI",
			uri:      "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := extractFilePath(tt.uri)
			assert.Equal(t, tt.expected, result)
		})
	}
}

// Helper to create a ReadResourceRequest with the given URI.
func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

// newRepoFixture writes files under a temp root and returns a matching report.
func newRepoFixture(t *testing.T, files map[string]string) *domain.IngestReport {
	t.Helper()
	root := t.TempDir()
	report := &domain.IngestReport{
		Root:          root,
		Name:          "demo",
		URL:           "https://github.com/acme/demo",
		KindCounts:    map[domain.DocumentKind]int{domain.KindCode: len(files)},
		Chunks:        7,
		CorpusVersion: "v42",
		Warnings:      []domain.IngestionWarning{{Path: "logo.png", Reason: domain.ReasonUnsupported}},
	}
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o600))
		report.FileNames = append(report.FileNames, rel)
	}
	return report
}

func TestServer_handleReportResource(t *testing.T) {
	ctx := context.Background()

	t.Run("no report yet", func(t *testing.T) {
		server, err := NewServer(&Ports{Retriever: &mockRetriever{}})
		require.NoError(t, err)

		_, err = server.handleReportResource(ctx, makeReadResourceRequest("repo://report"))
		assert.Error(t, err)
	})

	t.Run("returns report summary", func(t *testing.T) {
		report := newRepoFixture(t, map[string]string{"main.go": "package main"})
		server, err := NewServer(&Ports{Retriever: &mockRetriever{}, Ingester: &mockIngester{report: report}})
		require.NoError(t, err)

		result, err := server.handleReportResource(ctx, makeReadResourceRequest("repo://report"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		text := result.Contents[0].Text
		assert.Contains(t, text, `"name": "demo"`)
		assert.Contains(t, text, `"chunks": 7`)
		assert.Contains(t, text, `"corpus_version": "v42"`)
		assert.Contains(t, text, `"unsupported": 1`)
		assert.Equal(t, "application/json", result.Contents[0].MIMEType)
	})
}

func TestServer_handleFilesResource(t *testing.T) {
	ctx := context.Background()

	t.Run("no report returns empty list", func(t *testing.T) {
		server, err := NewServer(&Ports{Retriever: &mockRetriever{}})
		require.NoError(t, err)

		result, err := server.handleFilesResource(ctx, makeReadResourceRequest("repo://files"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "[]", result.Contents[0].Text)
	})

	t.Run("lists loaded files", func(t *testing.T) {
		report := newRepoFixture(t, map[string]string{"pkg/a.go": "package pkg"})
		server, err := NewServer(&Ports{Retriever: &mockRetriever{}, Ingester: &mockIngester{report: report}})
		require.NoError(t, err)

		result, err := server.handleFilesResource(ctx, makeReadResourceRequest("repo://files"))

		require.NoError(t, err)
		assert.Contains(t, result.Contents[0].Text, "pkg/a.go")
	})
}

func TestServer_handleFileContentResource(t *testing.T) {
	ctx := context.Background()
	report := newRepoFixture(t, map[string]string{
		"internal/auth/login.go": "package auth\n",
	})
	server, err := NewServer(&Ports{Retriever: &mockRetriever{}, Ingester: &mockIngester{report: report}})
	require.NoError(t, err)

	t.Run("returns file content", func(t *testing.T) {
		result, err := server.handleFileContentResource(ctx, makeReadResourceRequest("repo://files/internal/auth/login.go"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "package auth\n", result.Contents[0].Text)
		assert.Equal(t, "text/plain", result.Contents[0].MIMEType)
	})

	t.Run("unknown file", func(t *testing.T) {
		_, err := server.handleFileContentResource(ctx, makeReadResourceRequest("repo://files/other.go"))
		assert.Error(t, err)
	})

	t.Run("path outside the repository", func(t *testing.T) {
		_, err := server.handleFileContentResource(ctx, makeReadResourceRequest("repo://files/../../etc/passwd"))
		assert.Error(t, err)
	})

	t.Run("no ingester", func(t *testing.T) {
		bare, err := NewServer(&Ports{Retriever: &mockRetriever{}})
		require.NoError(t, err)

		_, err = bare.handleFileContentResource(ctx, makeReadResourceRequest("repo://files/internal/auth/login.go"))
		assert.Error(t, err)
	})
}
