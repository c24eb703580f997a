package normalisers

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/avishayil/git-llm-analyzer/internal/core/domain"
)

func TestClassify(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0x0D, 'I', 'H', 'D', 'R'}
	zip := []byte{'P', 'K', 0x03, 0x04, 0x14, 0, 0, 0}

	tests := []struct {
		name string
		path string
		head []byte
		want domain.DocumentKind
		ok   bool
	}{
		{"go source", "cmd/main.go", []byte("package main"), domain.KindCode, true},
		{"python", "app.py", []byte("print(1)"), domain.KindCode, true},
		{"upper-case extension", "LEGACY.PY", []byte("x = 1"), domain.KindCode, true},
		{"markdown", "README.md", []byte("# Title"), domain.KindText, true},
		{"yaml", "ci/config.yml", []byte("a: 1"), domain.KindText, true},
		{"html is text", "docs/index.html", []byte("<html></html>"), domain.KindText, true},
		{"gitignore", ".gitignore", []byte("*.o"), domain.KindText, true},
		{"nested dotfile", "web/.dockerignore", []byte("node_modules"), domain.KindText, true},
		{"makefile", "Makefile", []byte("all:"), domain.KindCode, true},
		{"dockerfile", "build/Dockerfile", []byte("FROM alpine"), domain.KindCode, true},
		{"notebook", "nb/analysis.ipynb", []byte(`{"cells": []}`), domain.KindNotebook, true},
		{"empty file", "empty.txt", nil, domain.KindText, true},
		{"unsupported extension", "logo.svg", []byte("<svg/>"), "", false},
		{"no extension", "LICENSE", []byte("MIT"), "", false},
		{"png with text extension", "fake.txt", png, "", false},
		{"zip with code extension", "x.go", zip, "", false},
		{"nul byte", "data.json", []byte("{\x00}"), "", false},
		{"invalid utf8", "latin1.txt", []byte("caf\xe9 au lait"), "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, ok := Classify(tt.path, tt.head)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, kind)
		})
	}
}

func TestIsBinary_TruncatedRuneAtWindowEdge(t *testing.T) {
	head := append(bytes.Repeat([]byte("a"), SniffLen-1), "é"...)
	head = head[:SniffLen]

	assert.False(t, IsBinary(head))
}

func TestSupportedPath(t *testing.T) {
	assert.True(t, SupportedPath("cmd/main.go"))
	assert.True(t, SupportedPath("docs/README.MD"))
	assert.True(t, SupportedPath("Makefile"))
	assert.True(t, SupportedPath("notebooks/eda.ipynb"))
	assert.False(t, SupportedPath("assets/logo.png"))
	assert.False(t, SupportedPath("bin/tool"))
}

func TestMIMEType(t *testing.T) {
	assert.Equal(t, "text/plain", MIMEType(domain.KindCode, []byte("package x")))
	assert.Equal(t, "application/x-ipynb+json", MIMEType(domain.KindNotebook, []byte("{}")))
	assert.Equal(t, "application/zip", MIMEType(domain.KindText, []byte{'P', 'K', 0x03, 0x04, 0x14, 0, 0, 0}))
}
