package preflight

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/trailblazer-io/trailblazer/internal/artifact"
	"github.com/trailblazer-io/trailblazer/internal/models"
	"github.com/trailblazer-io/trailblazer/internal/trailerr"
)

// PlanResult is the aggregate over many per-run preflight verdicts.
type PlanResult struct {
	Rows  []models.PlanReportRow
	Ready []string
	Blocked []string
}

// RunPlan validates every entry against its own run layout under
// workRoot and produces the aggregate report.
func RunPlan(workRoot string, entries []models.PlanEntry, cfg Config, cost *models.CostModel) (PlanResult, error) {
	if len(entries) == 0 {
		return PlanResult{}, trailerr.New(trailerr.KindMissingInput, "preflight.RunPlan", fmt.Errorf("no runs in plan"))
	}

	var result PlanResult
	for _, entry := range entries {
		layout := artifact.NewLayout(workRoot, entry.RunID)
		verdict, err := Validate(layout, cfg)
		if err != nil {
			// A fatal harness error validating one run still lets the
			// plan continue over the rest; it is recorded as blocked.
			verdict = models.Preflight{RunID: entry.RunID, Status: models.PreflightBlocked, Reasons: []string{err.Error()}}
		}
		if err := Write(layout, verdict); err != nil {
			return PlanResult{}, err
		}

		row := models.PlanReportRow{
			RunID:          entry.RunID,
			Status:         verdict.Status,
			Reasons:        verdict.Reasons,
			EmbeddableDocs: verdict.DocTotals.EmbeddableDocs,
			TotalChunks:    chunkCountFor(layout),
		}
		if cost != nil {
			row.EstimatedTokens = verdict.TokenStats.Total
			row.EstimatedCostUSD = float64(verdict.TokenStats.Total) / 1000 * cost.PricePer1k
			if cost.TpsPerWorker > 0 && cost.Workers > 0 {
				row.EstimatedSeconds = float64(verdict.TokenStats.Total) / (cost.TpsPerWorker * float64(cost.Workers))
			}
		}
		result.Rows = append(result.Rows, row)

		if verdict.Status == models.PreflightReady {
			result.Ready = append(result.Ready, entry.RunID)
		} else {
			result.Blocked = append(result.Blocked, entry.RunID)
		}
	}
	return result, nil
}

func chunkCountFor(layout artifact.Layout) int {
	count := 0
	if !artifact.Exists(layout.ChunksNDJSON()) {
		return 0
	}
	_ = artifact.DecodeLines[models.Chunk](layout.ChunksNDJSON(), func(_ models.Chunk, parseErr error) error {
		if parseErr == nil {
			count++
		}
		return nil
	})
	return count
}

// WriteReports writes ready.txt, blocked.txt, and csv/md/json
// aggregate reports under dir.
func (r PlanResult) WriteReports(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return trailerr.New(trailerr.KindConfiguration, "preflight.WriteReports", err)
	}

	if err := writeLines(filepath.Join(dir, "ready.txt"), r.Ready); err != nil {
		return err
	}
	if err := writeLines(filepath.Join(dir, "blocked.txt"), r.Blocked); err != nil {
		return err
	}
	if err := r.writeJSON(filepath.Join(dir, "report.json")); err != nil {
		return err
	}
	if err := r.writeCSV(filepath.Join(dir, "report.csv")); err != nil {
		return err
	}
	return r.writeMarkdown(filepath.Join(dir, "report.md"))
}

func writeLines(path string, lines []string) error {
	var buf bytes.Buffer
	for _, l := range lines {
		buf.WriteString(l)
		buf.WriteByte('\n')
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func (r PlanResult) writeJSON(path string) error {
	b, err := json.MarshalIndent(r.Rows, "", "  ")
	if err != nil {
		return trailerr.New(trailerr.KindParse, "preflight.writeJSON", err)
	}
	return os.WriteFile(path, b, 0o644)
}

func (r PlanResult) writeCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return trailerr.New(trailerr.KindConfiguration, "preflight.writeCSV", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	_ = w.Write([]string{"runId", "status", "reasons", "embeddableDocs", "totalChunks", "estimatedTokens", "estimatedCostUsd", "estimatedSeconds"})
	for _, row := range r.Rows {
		_ = w.Write([]string{
			row.RunID,
			string(row.Status),
			joinComma(row.Reasons),
			strconv.Itoa(row.EmbeddableDocs),
			strconv.Itoa(row.TotalChunks),
			strconv.Itoa(row.EstimatedTokens),
			strconv.FormatFloat(row.EstimatedCostUSD, 'f', 4, 64),
			strconv.FormatFloat(row.EstimatedSeconds, 'f', 2, 64),
		})
	}
	w.Flush()
	return w.Error()
}

func (r PlanResult) writeMarkdown(path string) error {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# Preflight Plan Report\n\n")
	fmt.Fprintf(&buf, "Ready: %d, Blocked: %d\n\n", len(r.Ready), len(r.Blocked))
	fmt.Fprintf(&buf, "| runId | status | reasons | embeddableDocs | totalChunks |\n")
	fmt.Fprintf(&buf, "|---|---|---|---|---|\n")
	for _, row := range r.Rows {
		fmt.Fprintf(&buf, "| %s | %s | %s | %d | %d |\n", row.RunID, row.Status, joinComma(row.Reasons), row.EmbeddableDocs, row.TotalChunks)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func joinComma(ss []string) string {
	var buf bytes.Buffer
	for i, s := range ss {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(s)
	}
	return buf.String()
}
