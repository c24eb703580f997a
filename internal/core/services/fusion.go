package services

import (
	"sort"

	"github.com/avishayil/git-llm-analyzer/internal/core/ports/driven"
)

// fusedHit is one chunk after weighted fusion, before hydration.
type fusedHit struct {
	chunkID  string
	ordinal  int
	score    float64
	lexical  float64
	semantic float64
}

// returnedFloor is the normalised score of the weakest hit in a list. It
// keeps a returned hit above a chunk the index did not return at all.
const returnedFloor = 0.01

// minMax rescales scores to [returnedFloor, 1] within one list.
// A list whose scores are all equal maps every member to 1.
func minMax(hits []driven.IndexHit) map[string]float64 {
	out := make(map[string]float64, len(hits))
	if len(hits) == 0 {
		return out
	}

	lo, hi := hits[0].Score, hits[0].Score
	for _, h := range hits[1:] {
		lo = min(lo, h.Score)
		hi = max(hi, h.Score)
	}

	span := hi - lo
	for _, h := range hits {
		if span == 0 {
			out[h.ChunkID] = 1
			continue
		}
		out[h.ChunkID] = returnedFloor + (1-returnedFloor)*(h.Score-lo)/span
	}
	return out
}

// fuse merges two ranked lists into one.
//
// Each list is min-max normalised on its own. A chunk missing from a list
// takes 0 from it; the weakest returned hit still takes returnedFloor. The fused score is the weighted sum of both components;
// results are ordered by fused score, then ordinal, and cut to k.
func fuse(lexical, semantic []driven.IndexHit, lexicalWeight, semanticWeight float64, k int) []fusedHit {
	if k <= 0 {
		return nil
	}

	nl := minMax(lexical)
	ns := minMax(semantic)

	merged := make(map[string]*fusedHit, len(lexical)+len(semantic))
	order := make([]*fusedHit, 0, len(lexical)+len(semantic))
	add := func(h driven.IndexHit) {
		if _, ok := merged[h.ChunkID]; ok {
			return
		}
		f := &fusedHit{
			chunkID:  h.ChunkID,
			ordinal:  h.Ordinal,
			lexical:  nl[h.ChunkID],
			semantic: ns[h.ChunkID],
		}
		f.score = lexicalWeight*f.lexical + semanticWeight*f.semantic
		merged[h.ChunkID] = f
		order = append(order, f)
	}
	for _, h := range lexical {
		add(h)
	}
	for _, h := range semantic {
		add(h)
	}

	sort.SliceStable(order, func(i, j int) bool {
		if order[i].score != order[j].score {
			return order[i].score > order[j].score
		}
		return order[i].ordinal < order[j].ordinal
	})

	if len(order) > k {
		order = order[:k]
	}
	out := make([]fusedHit, len(order))
	for i, f := range order {
		out[i] = *f
	}
	return out
}
