package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRetrievalResult_Paths(t *testing.T) {
	r := &RetrievalResult{Hits: []ScoredChunk{
		{Chunk: Chunk{Path: "b.go"}},
		{Chunk: Chunk{Path: "a.go"}},
		{Chunk: Chunk{Path: "b.go"}},
	}}
	assert.Equal(t, []string{"b.go", "a.go"}, r.Paths())
	assert.False(t, r.IsEmpty())

	var empty *RetrievalResult
	assert.True(t, empty.IsEmpty())
	assert.Nil(t, empty.Paths())
}

func TestRetrievalMode_IsValid(t *testing.T) {
	for _, m := range []RetrievalMode{RetrievalLexical, RetrievalSemantic, RetrievalHybrid} {
		assert.True(t, m.IsValid(), m)
		assert.NotEqual(t, unknownDescription, m.Description())
	}
	assert.False(t, RetrievalMode("rrf").IsValid())
}

func TestIngestReport(t *testing.T) {
	r := &IngestReport{
		KindCounts: map[DocumentKind]int{KindCode: 3, KindText: 1, KindNotebook: 0},
		FileNames:  []string{"a.go", "b.go", "c.py", "README.md"},
		Warnings: []IngestionWarning{
			{Path: "logo.png", Reason: ReasonBinary},
			{Path: "big.json", Reason: ReasonTooLarge},
			{Path: "x.bin", Reason: ReasonBinary},
		},
	}

	assert.Equal(t, 4, r.Documents())
	assert.Equal(t, "code: 3, text: 1", r.FileTypeCounts())
	assert.Equal(t, map[string]int{ReasonBinary: 2, ReasonTooLarge: 1}, r.WarningSummary())
	assert.Equal(t, "logo.png: binary", r.Warnings[0].String())
}

func TestChunk_Len(t *testing.T) {
	assert.Equal(t, 7, Chunk{Start: 3, End: 10}.Len())
}
