// Package mcp provides an MCP (Model Context Protocol) server adapter.
// It lets AI assistants search the indexed repository and ask questions
// about it.
package mcp

import "errors"

// ErrMissingRetriever is returned when the retriever is not provided.
var ErrMissingRetriever = errors.New("mcp: retriever is required")
