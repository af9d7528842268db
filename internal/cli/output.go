// Package cli formats command output for the linklore CLI.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Miyazak1/linklore-sub001/internal/models"
	"github.com/Miyazak1/linklore-sub001/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat validates a --output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case OutputText, "":
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text or json", s)
	}
}

const rule = "─────────────────────────────────────────────────────────"

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteSnapshot writes a topic consensus snapshot.
func WriteSnapshot(w io.Writer, snap *models.ConsensusSnapshot, format OutputFormat) error {
	if format == OutputJSON {
		return WriteJSON(w, snap)
	}
	fmt.Fprintf(w, "\nTopic %s at %s\n", snap.TopicID, snap.SnapshotAt.UTC().Format(time.RFC3339))
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "consensus:   %s\n", formatScore(snap.ConsensusScore))
	fmt.Fprintf(w, "divergence:  %s\n", formatScore(snap.DivergenceScore))
	fmt.Fprintf(w, "trend:       %s\n", snap.Data.Trend)
	fmt.Fprintf(w, "measured:    %t (%d claims from %d quality documents)\n",
		snap.Data.Measured, snap.Data.ClaimCount, snap.Data.QualityDocCount)
	if snap.ID == "" {
		fmt.Fprintln(w, "(default snapshot, not stored)")
	}
	writeList(w, "Key points", snap.Data.KeyPoints)
	writeList(w, "Disagreements", snap.Data.Disagreements)
	return nil
}

// WriteHistory writes one line per snapshot.
func WriteHistory(w io.Writer, snaps []*models.ConsensusSnapshot, format OutputFormat) error {
	if format == OutputJSON {
		return WriteJSON(w, snaps)
	}
	if len(snaps) == 0 {
		fmt.Fprintln(w, "No snapshots.")
		return nil
	}
	for _, s := range snaps {
		fmt.Fprintf(w, "%s  consensus=%s  trend=%s\n",
			s.SnapshotAt.UTC().Format(time.RFC3339), formatScore(s.ConsensusScore), s.Data.Trend)
	}
	return nil
}

// WritePairResult writes the outcome of a pair analysis.
func WritePairResult(w io.Writer, userA, userB string, res *models.PairResult, format OutputFormat) error {
	if format == OutputJSON {
		return WriteJSON(w, res)
	}
	fmt.Fprintf(w, "\n%s ↔ %s\n", userA, userB)
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "consensus:   %.4f\n", res.ConsensusScore)
	fmt.Fprintf(w, "divergence:  %.4f\n", res.DivergenceScore)
	fmt.Fprintf(w, "measured:    %t\n", res.Measured)
	if len(res.Consensus) > 0 {
		fmt.Fprintln(w, "\nConsensus:")
		for _, c := range res.Consensus {
			fmt.Fprintf(w, "  • %s  (support %d, similarity %.2f)\n", utils.Truncate(c.Text, 120), c.SupportCount, c.Similarity)
		}
	}
	if len(res.Disagreements) > 0 {
		fmt.Fprintln(w, "\nDisagreements:")
		for _, d := range res.Disagreements {
			fmt.Fprintf(w, "  • %s  vs  %s  (similarity %.2f)\n",
				utils.Truncate(d.Claim1, 60), utils.Truncate(d.Claim2, 60), d.Similarity)
			if d.Description != "" {
				fmt.Fprintf(w, "    %s\n", utils.Truncate(d.Description, 120))
			}
		}
	}
	return nil
}

// WritePairs writes identified user pairs.
func WritePairs(w io.Writer, pairs []models.UserPair, format OutputFormat) error {
	if format == OutputJSON {
		return WriteJSON(w, pairs)
	}
	if len(pairs) == 0 {
		fmt.Fprintln(w, "No user pairs.")
		return nil
	}
	for _, p := range pairs {
		fmt.Fprintf(w, "%s ↔ %s  docs=%d  replies=%d\n", p.User1ID, p.User2ID, len(p.DocIDs), len(p.DiscussionPaths))
		for _, path := range p.DiscussionPaths {
			fmt.Fprintf(w, "    %s → %s  depth=%d  %s\n", path.Path[0], path.Path[1], path.Depth, path.Direction)
		}
	}
	return nil
}

// WritePairRecords writes stored pair records.
func WritePairRecords(w io.Writer, records []*models.UserConsensus, format OutputFormat) error {
	if format == OutputJSON {
		return WriteJSON(w, records)
	}
	if len(records) == 0 {
		fmt.Fprintln(w, "No analyzed pairs.")
		return nil
	}
	for _, r := range records {
		fmt.Fprintf(w, "%s ↔ %s  consensus=%.4f  measured=%t  analyzed=%s  v%d\n",
			r.User1ID, r.User2ID, r.ConsensusScore, r.Measured,
			r.LastAnalyzedAt.UTC().Format(time.RFC3339), r.Version)
	}
	return nil
}

func writeList(w io.Writer, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s:\n", title)
	for _, it := range items {
		fmt.Fprintf(w, "  • %s\n", it)
	}
}

func formatScore(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.4f", *v)
}

// TruncateWords returns up to maxWords from the space-separated string.
func TruncateWords(s string, maxWords int) string {
	words := strings.Fields(s)
	if len(words) <= maxWords {
		return s
	}
	return strings.Join(words[:maxWords], " ") + "..."
}
