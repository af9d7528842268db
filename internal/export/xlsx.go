// Package export writes consensus snapshot history to Excel workbooks.
package export

import (
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Miyazak1/linklore-sub001/internal/models"
	"github.com/Miyazak1/linklore-sub001/pkg/utils"
)

const (
	historySheet = "History"
	summarySheet = "Summary"
)

var historyHeader = []interface{}{
	"Snapshot At", "Consensus", "Divergence", "Trend", "Measured", "Claims", "Quality Docs",
}

// WriteSnapshotHistory writes snaps as an xlsx workbook to w: a History sheet in
// chronological order with a consensus/divergence line chart, and a Summary
// sheet describing the most recent snapshot.
func WriteSnapshotHistory(w io.Writer, topicID string, snaps []*models.ConsensusSnapshot) error {
	f, err := build(topicID, snaps)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// SaveSnapshotHistory writes the workbook to path.
func SaveSnapshotHistory(path, topicID string, snaps []*models.ConsensusSnapshot) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := WriteSnapshotHistory(out, topicID, snaps); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

func build(topicID string, snaps []*models.ConsensusSnapshot) (*excelize.File, error) {
	ordered := append([]*models.ConsensusSnapshot(nil), snaps...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].SnapshotAt.Before(ordered[j].SnapshotAt)
	})

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", historySheet); err != nil {
		f.Close()
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, err
	}

	if err := writeHistory(f, ordered, bold); err != nil {
		f.Close()
		return nil, fmt.Errorf("history sheet: %w", err)
	}
	if err := writeSummary(f, topicID, ordered, bold); err != nil {
		f.Close()
		return nil, fmt.Errorf("summary sheet: %w", err)
	}
	return f, nil
}

func writeHistory(f *excelize.File, snaps []*models.ConsensusSnapshot, headerStyle int) error {
	if err := f.SetSheetRow(historySheet, "A1", &historyHeader); err != nil {
		return err
	}
	if err := f.SetCellStyle(historySheet, "A1", "G1", headerStyle); err != nil {
		return err
	}
	for i, s := range snaps {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			s.SnapshotAt.UTC().Format(time.RFC3339),
			score(s.ConsensusScore),
			score(s.DivergenceScore),
			string(s.Data.Trend),
			s.Data.Measured,
			s.Data.ClaimCount,
			s.Data.QualityDocCount,
		}
		if err := f.SetSheetRow(historySheet, cell, &row); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(historySheet, "A", "A", 24); err != nil {
		return err
	}
	if len(snaps) == 0 {
		return nil
	}

	last := len(snaps) + 1
	categories := fmt.Sprintf("%s!$A$2:$A$%d", historySheet, last)
	return f.AddChart(historySheet, "I2", &excelize.Chart{
		Type: excelize.Line,
		Series: []excelize.ChartSeries{
			{
				Name:       historySheet + "!$B$1",
				Categories: categories,
				Values:     fmt.Sprintf("%s!$B$2:$B$%d", historySheet, last),
			},
			{
				Name:       historySheet + "!$C$1",
				Categories: categories,
				Values:     fmt.Sprintf("%s!$C$2:$C$%d", historySheet, last),
			},
		},
		Title:  []excelize.RichTextRun{{Text: "Consensus over time"}},
		Legend: excelize.ChartLegend{Position: "bottom"},
	})
}

func writeSummary(f *excelize.File, topicID string, snaps []*models.ConsensusSnapshot, headerStyle int) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return err
	}
	rows := [][]interface{}{
		{"Topic", topicID},
		{"Snapshots", len(snaps)},
	}
	if n := len(snaps); n > 0 {
		latest := snaps[n-1]
		rows = append(rows,
			[]interface{}{"Latest At", latest.SnapshotAt.UTC().Format(time.RFC3339)},
			[]interface{}{"Consensus", score(latest.ConsensusScore)},
			[]interface{}{"Divergence", score(latest.DivergenceScore)},
			[]interface{}{"Trend", string(latest.Data.Trend)},
			[]interface{}{},
			[]interface{}{"Key Points"},
		)
		for _, p := range latest.Data.KeyPoints {
			rows = append(rows, []interface{}{"", p})
		}
		rows = append(rows, []interface{}{}, []interface{}{"Disagreements"})
		for _, d := range latest.Data.Disagreements {
			rows = append(rows, []interface{}{"", d})
		}
	}
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return err
		}
		if err := f.SetCellStyle(summarySheet, cell, cell, headerStyle); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(summarySheet, "A", "A", 16); err != nil {
		return err
	}
	return f.SetColWidth(summarySheet, "B", "B", 60)
}

// score returns the value rounded to four places, or nil so that missing scores stay blank.
func score(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return utils.Round(*v, 4)
}
