package consensus

import (
	"math"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		text string
		want []string
	}{
		{"AI改善教育", []string{"ai", "改善教育"}},
		{"Climate change, climate CHANGE!", []string{"climate", "change"}},
		{"GDP增长3%", []string{"gdp", "增长", "3"}},
		{"  ,,, ", nil},
	}
	for _, tt := range tests {
		got := Tokenize(tt.text)
		if len(got) != len(tt.want) {
			t.Errorf("Tokenize(%q) = %v, want %v", tt.text, got, tt.want)
			continue
		}
		for _, w := range tt.want {
			if _, ok := got[w]; !ok {
				t.Errorf("Tokenize(%q) missing %q (got %v)", tt.text, w, got)
			}
		}
	}
}

func TestJaccard(t *testing.T) {
	a := Tokenize("ai 改善教育")
	b := Tokenize("AI 提升效率")
	if got := Jaccard(a, b); !near(got, 1.0/3) {
		t.Errorf("Jaccard = %v, want 1/3", got)
	}
	if got := Jaccard(a, a); got != 1 {
		t.Errorf("self Jaccard = %v", got)
	}
	if got := Jaccard(Tokenize(""), Tokenize("")); got != 0 {
		t.Errorf("empty Jaccard = %v", got)
	}
}

func TestLexicalConsensus(t *testing.T) {
	tests := []struct {
		name   string
		claims []string
		want   float64
	}{
		{"no claims", nil, 0.5},
		{"single claim", []string{"AI改善教育"}, 1},
		{"identical", []string{"same words", "same words"}, 1},
		{"disjoint", []string{"alpha", "beta"}, 0},
		{"three claims", []string{"AI改善教育", "AI提升效率", "教育效果提升"}, 1.0 / 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LexicalConsensus(tt.claims)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("LexicalConsensus = %v, want %v", got, tt.want)
			}
		})
	}
}
