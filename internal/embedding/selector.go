package embedding

import (
	"context"
	"fmt"
	"unicode"
)

// cjkThreshold is the share of CJK characters among letters above which a
// sample counts as CJK text.
const cjkThreshold = 0.2

// CJKRatio returns the share of Han, Hiragana and Katakana characters among the
// letters of sample.
func CJKRatio(sample string) float64 {
	var letters, cjk int
	for _, r := range sample {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		if IsCJK(r) {
			cjk++
		}
	}
	if letters == 0 {
		return 0
	}
	return float64(cjk) / float64(letters)
}

// ScriptSelector picks an embedder from the dominant script of a corpus sample.
type ScriptSelector struct {
	fallback Embedder
	cjk      Embedder
}

// NewScriptSelector returns a selector using cjk for CJK-dominant corpora and
// fallback otherwise. cjk may be nil.
func NewScriptSelector(fallback, cjk Embedder) *ScriptSelector {
	return &ScriptSelector{fallback: fallback, cjk: cjk}
}

// Select returns the embedder for sample after checking that it produces
// vectors of its declared dimension.
func (s *ScriptSelector) Select(ctx context.Context, sample string) (Embedder, error) {
	chosen := s.fallback
	if s.cjk != nil && CJKRatio(sample) > cjkThreshold {
		chosen = s.cjk
	}
	if chosen == nil {
		return nil, fmt.Errorf("no embedder configured")
	}
	probe := sample
	if r := []rune(probe); len(r) > 200 {
		probe = string(r[:200])
	}
	v, err := chosen.Embed(ctx, probe)
	if err != nil {
		return nil, fmt.Errorf("embedder %s unavailable: %w", chosen.Name(), err)
	}
	if len(v) != chosen.Dimensions() {
		return nil, fmt.Errorf("embedder %s returned %d dimensions, declared %d", chosen.Name(), len(v), chosen.Dimensions())
	}
	return chosen, nil
}

// Close closes both embedders.
func (s *ScriptSelector) Close() error {
	var err error
	if s.fallback != nil {
		err = s.fallback.Close()
	}
	if s.cjk != nil && s.cjk != s.fallback {
		if cerr := s.cjk.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
