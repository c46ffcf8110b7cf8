package stats

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/verte-zerg/typerank/internal/model"
)

// RenderResult prints a single test result followed by its per-second chart.
func RenderResult(w io.Writer, res model.TestResult, width, height int, useColor bool) error {
	speed := res.WPM
	if IsCJK(res.Language) {
		speed = res.CPM
	}
	lines := []string{
		fmt.Sprintf("%s %d (%s)", res.Mode, res.ModeValue, res.Language),
		fmt.Sprintf("Speed: %d %s (raw %d)", speed, RateLabel(res.Language), res.RawWPM),
		fmt.Sprintf("Accuracy: %.2f%%", res.Accuracy),
		fmt.Sprintf("Consistency: %.2f%%", res.Consistency),
		fmt.Sprintf("Characters: %d/%d/%d/%d (correct/incorrect/extra/missed)",
			res.CorrectChars, res.IncorrectChars, res.ExtraChars, res.MissedChars),
		fmt.Sprintf("Top %d%% of typists", WPMPercentile(float64(res.WPM))),
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return PlotSeriesWithColor(w, "Test Chart", []Series{
		{Name: "WPM", Values: SampleValues(res.WPMHistory)},
		{Name: "Raw", Values: SampleValues(res.RawWPMHistory)},
		{Name: "Errors", Values: SampleValues(res.ErrorHistory)},
	}, width, height, useColor)
}

// RenderSummary prints aggregate numbers over a newest-first history.
func RenderSummary(w io.Writer, history []model.TestResult) error {
	if len(history) == 0 {
		_, err := fmt.Fprintln(w, "No tests found.")
		return err
	}
	var totalWPM, totalAcc, totalCons float64
	best := 0
	for _, r := range history {
		totalWPM += float64(r.WPM)
		totalAcc += r.Accuracy
		totalCons += r.Consistency
		if r.WPM > best {
			best = r.WPM
		}
	}
	count := float64(len(history))
	lines := []string{
		"Summary",
		fmt.Sprintf("Tests: %d", len(history)),
		fmt.Sprintf("Avg WPM: %.2f", totalWPM/count),
		fmt.Sprintf("Best WPM: %d", best),
		fmt.Sprintf("Avg Accuracy: %.2f%%", totalAcc/count),
		fmt.Sprintf("Avg Consistency: %.2f%%", totalCons/count),
		fmt.Sprintf("Trend: %s", Sparkline(chronologicalWPM(history))),
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderCurves prints WPM and accuracy learning curves, oldest on the left.
func RenderCurves(w io.Writer, history []model.TestResult, window, totalWidth, height int, useColor bool) error {
	if len(history) == 0 {
		return nil
	}
	wpms := chronologicalWPM(history)
	accs := make([]float64, len(history))
	for i := range history {
		accs[i] = history[len(history)-1-i].Accuracy
	}
	width := 0
	if totalWidth > 0 {
		width = PlotWidthFor(totalWidth)
	}
	return PlotSeriesWithColor(w, "Learning Curves", []Series{
		{Name: "WPM", Values: MovingAverage(wpms, window)},
		{Name: "Accuracy", Values: MovingAverage(accs, window)},
	}, width, height, useColor)
}

// RenderHistoryTable prints the newest results first.
func RenderHistoryTable(w io.Writer, history []model.TestResult, limit int) error {
	if len(history) == 0 {
		return nil
	}
	if limit > 0 && len(history) > limit {
		history = history[:limit]
	}
	headers := []string{"When", "Test", "WPM", "Raw", "Accuracy", "Consistency"}
	rows := make([][]string, 0, len(history))
	for _, r := range history {
		test := fmt.Sprintf("%s %s %d", r.Language, r.Mode, r.ModeValue)
		if r.Daily {
			test += " (daily)"
		}
		rows = append(rows, []string{
			r.Timestamp.Local().Format("2006-01-02 15:04"),
			test,
			fmt.Sprintf("%d", r.WPM),
			fmt.Sprintf("%d", r.RawWPM),
			fmt.Sprintf("%.2f%%", r.Accuracy),
			fmt.Sprintf("%.2f%%", r.Consistency),
		})
	}
	return writeTable(w, "History", headers, rows, map[int]bool{2: true, 3: true, 4: true, 5: true})
}

// RenderPersonalBests prints personal bests sorted by key.
func RenderPersonalBests(w io.Writer, pbs map[string]model.PersonalBest) error {
	if len(pbs) == 0 {
		_, err := fmt.Fprintln(w, "No personal bests yet.")
		return err
	}
	keys := make([]string, 0, len(pbs))
	for k := range pbs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		pb := pbs[k]
		rows = append(rows, []string{
			k,
			fmt.Sprintf("%d", pb.WPM),
			fmt.Sprintf("%.2f%%", pb.Accuracy),
			pb.Timestamp.Local().Format("2006-01-02"),
		})
	}
	return writeTable(w, "Personal Bests", []string{"Test", "WPM", "Accuracy", "Date"}, rows, map[int]bool{1: true, 2: true})
}

// RenderLeaderboard prints ranked entries, marking the highlighted rank.
func RenderLeaderboard(w io.Writer, title string, entries []model.LeaderboardEntry, highlight int) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "Leaderboard is empty.")
		return err
	}
	rows := make([][]string, 0, len(entries))
	for i, e := range entries {
		marker := ""
		if i+1 == highlight {
			marker = "<"
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			e.Username,
			fmt.Sprintf("%d", e.WPM),
			fmt.Sprintf("%.2f%%", e.Accuracy),
			marker,
		})
	}
	return writeTable(w, title, []string{"#", "Name", "WPM", "Accuracy", ""}, rows, map[int]bool{0: true, 2: true, 3: true})
}

func writeTable(w io.Writer, title string, headers []string, rows [][]string, rightAlign map[int]bool) error {
	if title != "" {
		if _, err := fmt.Fprintln(w, title); err != nil {
			return err
		}
	}
	for _, line := range formatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, strings.TrimRight(line, " ")); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

func chronologicalWPM(history []model.TestResult) []float64 {
	out := make([]float64, len(history))
	for i := range history {
		out[i] = float64(history[len(history)-1-i].WPM)
	}
	return out
}
