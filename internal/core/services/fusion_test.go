package services

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avishayil/git-llm-analyzer/internal/core/ports/driven"
)

func hit(id string, ordinal int, score float64) driven.IndexHit {
	return driven.IndexHit{ChunkID: id, Ordinal: ordinal, Score: score}
}

func fusedIDs(hits []fusedHit) []string {
	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.chunkID
	}
	return ids
}

func TestMinMax(t *testing.T) {
	tests := []struct {
		name string
		hits []driven.IndexHit
		want map[string]float64
	}{
		{
			name: "empty list",
			hits: nil,
			want: map[string]float64{},
		},
		{
			name: "spread scores",
			hits: []driven.IndexHit{hit("a", 0, 10), hit("b", 1, 6), hit("c", 2, 2)},
			want: map[string]float64{"a": 1, "b": 0.505, "c": returnedFloor},
		},
		{
			name: "all equal map to one",
			hits: []driven.IndexHit{hit("a", 0, 0.3), hit("b", 1, 0.3)},
			want: map[string]float64{"a": 1, "b": 1},
		},
		{
			name: "single hit maps to one",
			hits: []driven.IndexHit{hit("a", 0, 4.2)},
			want: map[string]float64{"a": 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := minMax(tt.hits)
			require.Len(t, got, len(tt.want))
			for id, want := range tt.want {
				assert.InDelta(t, want, got[id], 1e-9, id)
			}
		})
	}
}

func TestFuse_CollapsesDuplicates(t *testing.T) {
	lexical := []driven.IndexHit{hit("a", 0, 8), hit("b", 1, 4), hit("c", 2, 0.5)}
	semantic := []driven.IndexHit{hit("b", 1, 0.9), hit("d", 3, 0.5), hit("a", 0, 0.1)}

	got := fuse(lexical, semantic, 0.5, 0.5, 10)

	require.Len(t, got, 4)
	seen := map[string]bool{}
	for _, h := range got {
		assert.False(t, seen[h.chunkID], "duplicate %s", h.chunkID)
		seen[h.chunkID] = true
	}

	// b: lexical floor + (1-floor)*(4-0.5)/7.5, semantic 1.
	wantLexical := returnedFloor + (1-returnedFloor)*3.5/7.5
	assert.Equal(t, "b", got[0].chunkID)
	assert.InDelta(t, 0.5*wantLexical+0.5*1, got[0].score, 1e-9)
	assert.InDelta(t, wantLexical, got[0].lexical, 1e-9)
	assert.InDelta(t, 1.0, got[0].semantic, 1e-9)
}

func TestFuse_MissingFromOneListScoresZeroThere(t *testing.T) {
	lexical := []driven.IndexHit{hit("a", 0, 5), hit("b", 1, 1)}
	semantic := []driven.IndexHit{hit("c", 2, 0.8), hit("d", 3, 0.2)}

	got := fuse(lexical, semantic, 1, 1, 10)

	byID := map[string]fusedHit{}
	for _, h := range got {
		byID[h.chunkID] = h
	}
	require.Contains(t, byID, "a")
	require.Contains(t, byID, "c")
	assert.Zero(t, byID["a"].semantic)
	assert.Zero(t, byID["c"].lexical)
	assert.InDelta(t, 1.0, byID["a"].score, 1e-9)
	assert.InDelta(t, 1.0, byID["c"].score, 1e-9)
}

func TestFuse_TiesBrokenByOrdinal(t *testing.T) {
	lexical := []driven.IndexHit{hit("late", 9, 3), hit("early", 2, 3)}
	semantic := []driven.IndexHit{hit("mid", 5, 0.7)}

	got := fuse(lexical, semantic, 1, 1, 10)

	assert.Equal(t, []string{"early", "mid", "late"}, fusedIDs(got))
}

func TestFuse_Weights(t *testing.T) {
	lexical := []driven.IndexHit{hit("lex", 0, 9), hit("other", 2, 1)}
	semantic := []driven.IndexHit{hit("sem", 1, 0.9), hit("other", 2, 0.1)}

	t.Run("lexical weight dominates", func(t *testing.T) {
		got := fuse(lexical, semantic, 0.9, 0.1, 1)
		assert.Equal(t, []string{"lex"}, fusedIDs(got))
	})

	t.Run("semantic weight dominates", func(t *testing.T) {
		got := fuse(lexical, semantic, 0.1, 0.9, 1)
		assert.Equal(t, []string{"sem"}, fusedIDs(got))
	})

	t.Run("zero semantic weight ranks lexical hits above absent ones", func(t *testing.T) {
		got := fuse(lexical, semantic, 1, 0, 3)
		assert.Equal(t, []string{"lex", "other", "sem"}, fusedIDs(got))
	})
}

func TestFuse_CutToK(t *testing.T) {
	lexical := []driven.IndexHit{hit("a", 0, 3), hit("b", 1, 2), hit("c", 2, 1)}

	assert.Len(t, fuse(lexical, nil, 0.5, 0.5, 2), 2)
	assert.Nil(t, fuse(lexical, nil, 0.5, 0.5, 0))
	assert.Empty(t, fuse(nil, nil, 0.5, 0.5, 5))
}

func TestFuse_Deterministic(t *testing.T) {
	lexical := []driven.IndexHit{hit("a", 0, 1), hit("b", 1, 1), hit("c", 2, 1)}
	semantic := []driven.IndexHit{hit("c", 2, 0.5), hit("b", 1, 0.5), hit("d", 3, 0.5)}

	first := fuse(lexical, semantic, 0.5, 0.5, 4)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, fuse(lexical, semantic, 0.5, 0.5, 4))
	}
}

func TestFuse_MonotonicInLexicalWeight(t *testing.T) {
	tests := []struct {
		name     string
		lexical  []driven.IndexHit
		semantic []driven.IndexHit
	}{
		{
			name:     "equal semantic scores",
			lexical:  []driven.IndexHit{hit("a", 3, 9), hit("b", 0, 4), hit("c", 1, 1)},
			semantic: []driven.IndexHit{hit("a", 3, 0.4), hit("b", 0, 0.4), hit("c", 1, 0.9)},
		},
		{
			name:     "bottom lexical hit against absent chunk",
			lexical:  []driven.IndexHit{hit("top", 5, 7), hit("bottom", 4, 2)},
			semantic: []driven.IndexHit{hit("bottom", 4, 0.6), hit("absent", 0, 0.6), hit("top", 5, 0.1)},
		},
		{
			name:    "lexical only",
			lexical: []driven.IndexHit{hit("x", 2, 3), hit("y", 1, 2), hit("z", 0, 1)},
		},
	}

	rng := rand.New(rand.NewSource(7))
	lexScores := []float64{1, 2, 3, 5}
	semScores := []float64{0.2, 0.5, 0.8}
	for n := 0; n < 25; n++ {
		var lexical, semantic []driven.IndexHit
		for i := 0; i < 8; i++ {
			id := fmt.Sprintf("c%d", i)
			if rng.Float64() < 0.7 {
				lexical = append(lexical, hit(id, i, lexScores[rng.Intn(len(lexScores))]))
			}
			if rng.Float64() < 0.6 {
				semantic = append(semantic, hit(id, i, semScores[rng.Intn(len(semScores))]))
			}
		}
		tests = append(tests, struct {
			name     string
			lexical  []driven.IndexHit
			semantic []driven.IndexHit
		}{fmt.Sprintf("random %d", n), lexical, semantic})
	}

	weights := []float64{0, 0.1, 0.25, 0.5, 0.75, 1, 2}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lex := map[string]float64{}
			sem := map[string]float64{}
			var ids []string
			seen := map[string]bool{}
			for _, h := range tt.lexical {
				lex[h.ChunkID] = h.Score
				if !seen[h.ChunkID] {
					seen[h.ChunkID] = true
					ids = append(ids, h.ChunkID)
				}
			}
			for _, h := range tt.semantic {
				sem[h.ChunkID] = h.Score
				if !seen[h.ChunkID] {
					seen[h.ChunkID] = true
					ids = append(ids, h.ChunkID)
				}
			}

			wasAhead := map[[2]string]bool{}
			for _, w := range weights {
				rank := map[string]int{}
				for i, h := range fuse(tt.lexical, tt.semantic, w, 0.5, len(ids)) {
					rank[h.chunkID] = i
				}
				require.Len(t, rank, len(ids))

				for _, x := range ids {
					for _, y := range ids {
						lx, xok := lex[x]
						ly, yok := lex[y]
						if !xok || (yok && lx <= ly) {
							continue
						}
						sx, sxok := sem[x]
						sy, syok := sem[y]
						if sxok != syok || sx != sy {
							continue
						}

						ahead := rank[x] < rank[y]
						pair := [2]string{x, y}
						if wasAhead[pair] {
							assert.True(t, ahead, "%s fell behind %s at lexical weight %v", x, y, w)
						}
						if w > 0 {
							assert.True(t, ahead, "%s not ahead of %s at lexical weight %v", x, y, w)
						}
						wasAhead[pair] = ahead
					}
				}
			}
		})
	}
}
