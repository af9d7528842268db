package models

import (
	"testing"
	"time"
)

func TestTopicDump_Validate(t *testing.T) {
	tests := []struct {
		name    string
		dump    *TopicDump
		wantErr bool
	}{
		{"empty topic", &TopicDump{}, true},
		{"valid", &TopicDump{TopicID: "t1", Documents: []DocumentInput{
			{ID: "d1", AuthorID: "u1"},
			{ID: "d2", AuthorID: "u2", ParentID: "d1"},
		}}, false},
		{"missing author", &TopicDump{TopicID: "t1", Documents: []DocumentInput{{ID: "d1"}}}, true},
		{"duplicate id", &TopicDump{TopicID: "t1", Documents: []DocumentInput{
			{ID: "d1", AuthorID: "u1"},
			{ID: "d1", AuthorID: "u2"},
		}}, true},
		{"unknown parent", &TopicDump{TopicID: "t1", Documents: []DocumentInput{
			{ID: "d2", AuthorID: "u2", ParentID: "nope"},
		}}, true},
		{"bad severity", &TopicDump{TopicID: "t1", Disagreements: []DisagreementInput{
			{Title: "x", Severity: "critical"},
		}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.dump.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSeverity_Rank(t *testing.T) {
	if SeverityHigh.Rank() != 3 || SeverityMedium.Rank() != 2 || SeverityLow.Rank() != 1 {
		t.Error("unexpected severity ranks")
	}
	if Severity("other").Rank() != 0 {
		t.Error("unknown severity should rank 0")
	}
}

func TestNeutralDefaults_SumToOne(t *testing.T) {
	r := NeutralPairResult()
	if r.ConsensusScore+r.DivergenceScore != 1 {
		t.Errorf("pair default sums to %v", r.ConsensusScore+r.DivergenceScore)
	}
	if r.Measured {
		t.Error("neutral result should not be measured")
	}
	s := DefaultSnapshot("t", time.Time{})
	if *s.ConsensusScore+*s.DivergenceScore != 1 || s.Data.Trend != TrendStable {
		t.Errorf("default snapshot: %+v", s.Data)
	}
}
