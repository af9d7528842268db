package benchmark

import (
	"fmt"
	"testing"

	"github.com/Miyazak1/linklore-sub001/internal/consensus"
	"github.com/Miyazak1/linklore-sub001/internal/models"
	"github.com/Miyazak1/linklore-sub001/internal/pairs"
)

func BenchmarkLexicalConsensus(b *testing.B) {
	claims := make([]string, 200)
	for i := range claims {
		claims[i] = fmt.Sprintf("claim %d about remote work and 远程办公 number %d", i%17, i)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = consensus.LexicalConsensus(claims)
	}
}

func BenchmarkBuildPairs(b *testing.B) {
	docs := make([]*models.Document, 1000)
	for i := range docs {
		d := &models.Document{ID: fmt.Sprintf("d%d", i), TopicID: "t", AuthorID: fmt.Sprintf("u%d", i%25)}
		if i > 0 {
			parent := fmt.Sprintf("d%d", (i-1)/3)
			d.ParentID = &parent
		}
		docs[i] = d
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = pairs.BuildPairs(docs)
	}
}

func BenchmarkKeyPoints(b *testing.B) {
	perDoc := make([][]string, 100)
	for i := range perDoc {
		perDoc[i] = []string{fmt.Sprintf("point %d", i%10), fmt.Sprintf("point %d", i%7), "shared"}
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = consensus.KeyPoints(perDoc, 2, 5)
	}
}
