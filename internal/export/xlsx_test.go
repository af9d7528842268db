package export

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Miyazak1/linklore-sub001/internal/models"
)

func snapshot(at time.Time, score *float64, trend models.Trend) *models.ConsensusSnapshot {
	s := &models.ConsensusSnapshot{TopicID: "t1", SnapshotAt: at, ConsensusScore: score}
	if score != nil {
		d := 1 - *score
		s.DivergenceScore = &d
		s.Data = models.ConsensusData{
			ConsensusScore:  *score,
			DivergenceScore: d,
			Trend:           trend,
			KeyPoints:       []string{"shared point"},
			Disagreements:   []string{"效率（高）：是否提升效率"},
			Measured:        true,
			ClaimCount:      4,
			QualityDocCount: 2,
		}
	}
	return s
}

func ptr(v float64) *float64 { return &v }

func TestWriteSnapshotHistory(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	// Newest first, as returned by storage.
	snaps := []*models.ConsensusSnapshot{
		snapshot(base.Add(2*time.Hour), ptr(0.4), models.TrendConverging),
		snapshot(base.Add(time.Hour), nil, ""),
		snapshot(base, ptr(0.25), models.TrendStable),
	}

	var buf bytes.Buffer
	if err := WriteSnapshotHistory(&buf, "t1", snaps); err != nil {
		t.Fatal(err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := f.GetRows(historySheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 4 {
		t.Fatalf("history rows = %d, want 4", len(rows))
	}
	if rows[0][0] != "Snapshot At" || rows[0][1] != "Consensus" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][0] != base.Format(time.RFC3339) || rows[1][1] != "0.25" {
		t.Errorf("oldest row should come first: %v", rows[1])
	}
	if len(rows[2]) > 1 && rows[2][1] != "" {
		t.Errorf("missing score should be blank: %v", rows[2])
	}
	if rows[3][3] != string(models.TrendConverging) {
		t.Errorf("latest trend = %v", rows[3])
	}

	summary, err := f.GetRows(summarySheet)
	if err != nil {
		t.Fatal(err)
	}
	if summary[0][1] != "t1" || summary[1][1] != "3" {
		t.Errorf("summary head = %v", summary[:2])
	}
	found := false
	for _, r := range summary {
		if len(r) > 1 && r[1] == "效率（高）：是否提升效率" {
			found = true
		}
	}
	if !found {
		t.Errorf("summary should list disagreements: %v", summary)
	}
}

func TestSaveSnapshotHistory_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	if err := SaveSnapshotHistory(path, "t1", nil); err != nil {
		t.Fatal(err)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := f.GetRows(historySheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Errorf("empty history should only have a header, got %d rows", len(rows))
	}
}

func TestWriteSnapshotHistory_RoundsScores(t *testing.T) {
	snaps := []*models.ConsensusSnapshot{
		snapshot(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), ptr(0.123456789), models.TrendStable),
	}
	// 1 - 0.62 is not exactly 0.38 in binary floating point.
	snaps[0].DivergenceScore = ptr(1 - 0.62)

	var buf bytes.Buffer
	if err := WriteSnapshotHistory(&buf, "t1", snaps); err != nil {
		t.Fatal(err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := f.GetRows(historySheet)
	if err != nil {
		t.Fatal(err)
	}
	if rows[1][1] != "0.1235" || rows[1][2] != "0.38" {
		t.Errorf("scores = %q / %q, want 0.1235 / 0.38", rows[1][1], rows[1][2])
	}
}
