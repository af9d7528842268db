package embedding

import (
	"context"
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"
)

func TestMockEmbedder_Deterministic(t *testing.T) {
	e := NewMockEmbedder(16)
	ctx := context.Background()
	a, err := e.Embed(ctx, nil, []string{"教育效果提升", "AI提升效率"})
	if err != nil {
		t.Fatal(err)
	}
	b, _ := e.Embed(ctx, nil, []string{"教育效果提升"})
	if len(a) != 2 || len(a[0]) != 16 {
		t.Fatalf("shape: %d x %d", len(a), len(a[0]))
	}
	if !floats.Equal(a[0], b[0]) {
		t.Error("same text should give same embedding")
	}
	if math.Abs(floats.Norm(a[1], 2)-1) > 1e-9 {
		t.Errorf("embedding should be unit length, norm=%v", floats.Norm(a[1], 2))
	}
	if e.Calls() != 2 {
		t.Errorf("calls = %d", e.Calls())
	}
}

func TestMockEmbedder_Err(t *testing.T) {
	boom := errors.New("boom")
	e := NewMockEmbedder(0)
	e.Err = boom
	if _, err := e.Embed(context.Background(), nil, []string{"x"}); !errors.Is(err, boom) {
		t.Errorf("err = %v", err)
	}
	if e.Dimensions() != 64 {
		t.Errorf("default dimensions = %d", e.Dimensions())
	}
}

func TestHashString(t *testing.T) {
	if HashString("abc") != HashString("abc") {
		t.Error("hash should be deterministic")
	}
	if HashString("abc") < 0 {
		t.Error("hash should be non-negative")
	}
}
