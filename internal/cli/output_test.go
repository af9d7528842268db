package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/Miyazak1/linklore-sub001/internal/models"
)

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", OutputText, false},
		{"text", OutputText, false},
		{"json", OutputJSON, false},
		{"yaml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseOutputFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseOutputFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestWriteSnapshot(t *testing.T) {
	snap := models.DefaultSnapshot("t1", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	snap.Data.KeyPoints = []string{"shared point"}

	var buf bytes.Buffer
	if err := WriteSnapshot(&buf, snap, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"Topic t1", "consensus:   0.5000", "trend:       stable", "not stored", "shared point"} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	if err := WriteSnapshot(&buf, snap, OutputJSON); err != nil {
		t.Fatal(err)
	}
	var decoded models.ConsensusSnapshot
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}
	if decoded.TopicID != "t1" || *decoded.ConsensusScore != 0.5 {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestWritePairResult(t *testing.T) {
	res := &models.PairResult{
		Consensus:       []models.ConsensusItem{{Text: "both agree", SupportCount: 2, Similarity: 0.8}},
		Disagreements:   []models.DisagreementItem{{Claim1: "yes", Claim2: "no", Description: "direct conflict", Similarity: 0.2}},
		ConsensusScore:  0.59,
		DivergenceScore: 0.41,
		Measured:        true,
	}
	var buf bytes.Buffer
	if err := WritePairResult(&buf, "alice", "bob", res, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"alice ↔ bob", "0.5900", "both agree", "yes  vs  no", "direct conflict"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestWritePairsAndRecords(t *testing.T) {
	var buf bytes.Buffer
	if err := WritePairs(&buf, nil, OutputText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "No user pairs") {
		t.Errorf("empty pairs output: %q", buf.String())
	}

	buf.Reset()
	pairs := []models.UserPair{{
		User1ID: "alice", User2ID: "bob", DocIDs: []string{"d1", "d2"},
		DiscussionPaths: []models.DiscussionPath{{Path: [2]string{"d1", "d2"}, Depth: 1, Direction: models.DirectionUser2ToUser1}},
	}}
	if err := WritePairs(&buf, pairs, OutputText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "d1 → d2  depth=1  user2->user1") {
		t.Errorf("pairs output: %q", buf.String())
	}

	buf.Reset()
	records := []*models.UserConsensus{{User1ID: "alice", User2ID: "bob", ConsensusScore: 0.7, Version: 3}}
	if err := WritePairRecords(&buf, records, OutputText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "consensus=0.7000") || !strings.Contains(buf.String(), "v3") {
		t.Errorf("records output: %q", buf.String())
	}
}

func TestWriteHistory(t *testing.T) {
	var buf bytes.Buffer
	score := 0.25
	snaps := []*models.ConsensusSnapshot{
		{SnapshotAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), ConsensusScore: &score, Data: models.ConsensusData{Trend: models.TrendStable}},
		{SnapshotAt: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
	}
	if err := WriteHistory(&buf, snaps, OutputText); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 || !strings.Contains(lines[0], "consensus=0.2500") || !strings.Contains(lines[1], "consensus=-") {
		t.Errorf("history output: %q", buf.String())
	}
}

func TestTruncateWords(t *testing.T) {
	if got := TruncateWords("one two three four", 2); got != "one two..." {
		t.Errorf("TruncateWords = %q", got)
	}
	if got := TruncateWords("short", 5); got != "short" {
		t.Errorf("TruncateWords = %q", got)
	}
}
