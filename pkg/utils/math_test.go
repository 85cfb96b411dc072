package utils

import (
	"math"
	"testing"
)

func TestNormalizeL2(t *testing.T) {
	v := []float32{3, 4}
	NormalizeL2(v)
	if math.Abs(float64(v[0])-0.6) > 1e-6 || math.Abs(float64(v[1])-0.8) > 1e-6 {
		t.Errorf("got %v", v)
	}

	zero := []float32{0, 0}
	NormalizeL2(zero)
	if zero[0] != 0 || zero[1] != 0 {
		t.Errorf("zero vector changed: %v", zero)
	}
}

func TestNormalized_doesNotMutate(t *testing.T) {
	v := []float32{0, 2}
	out := Normalized(v)
	if v[1] != 2 {
		t.Errorf("input mutated: %v", v)
	}
	if out[1] != 1 {
		t.Errorf("got %v", out)
	}
}
