// Package hypothesis turns a finalized lattice into ranked, confidence-scored
// transcription alternatives.
package hypothesis

import (
	"fmt"
	"strings"

	"github.com/foxseedlab/latticed/internal/lattice"
)

// Alternative is one candidate transcription.
type Alternative struct {
	Transcript string
	Confidence float64
	AMScore    float64
	LMScore    float64
}

// Result holds the alternatives of one utterance, best first.
type Result struct {
	Alternatives []Alternative
}

func (r Result) Empty() bool {
	return len(r.Alternatives) == 0
}

func (r Result) Best() (Alternative, bool) {
	if r.Empty() {
		return Alternative{}, false
	}
	return r.Alternatives[0], true
}

// Confidence merges the two scores of a path into [0,1]. The coefficients are
// a calibrated fit and must not be changed.
func Confidence(lmScore, amScore float64, wordCount int) float64 {
	c := -0.0001466488*(2.388449*lmScore+amScore)/float64(wordCount+1) + 0.956
	return max(0.0, min(1.0, c))
}

// Extract reads the nBest lowest-cost paths of lat. An empty lattice, or one
// with no complete path, yields an empty Result and no error.
func Extract(symbols *lattice.SymbolTable, lat *lattice.Lattice, nBest int) (Result, error) {
	if lat.NumStates() == 0 {
		return Result{}, nil
	}
	paths, err := lattice.ShortestPaths(lat, nBest)
	if err != nil {
		return Result{}, err
	}

	alts := make([]Alternative, 0, len(paths))
	words := make([]string, 0, 16)
	for _, p := range paths {
		words = words[:0]
		for _, id := range p.Words {
			w, ok := symbols.Find(id)
			if !ok {
				return Result{}, fmt.Errorf("hypothesis: word id %d missing from symbol table", id)
			}
			words = append(words, w)
		}
		alts = append(alts, Alternative{
			Transcript: strings.Join(words, " "),
			LMScore:    p.Weight.Graph,
			AMScore:    p.Weight.Acoustic,
			Confidence: Confidence(p.Weight.Graph, p.Weight.Acoustic, len(p.Words)),
		})
	}
	return Result{Alternatives: alts}, nil
}
