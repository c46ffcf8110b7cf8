package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/verte-zerg/typerank/internal/config"
	"github.com/verte-zerg/typerank/internal/daily"
	"github.com/verte-zerg/typerank/internal/generator"
	"github.com/verte-zerg/typerank/internal/leaderboard"
	"github.com/verte-zerg/typerank/internal/model"
	"github.com/verte-zerg/typerank/internal/result"
	"github.com/verte-zerg/typerank/internal/stats"
	"github.com/verte-zerg/typerank/internal/tui"
	"github.com/verte-zerg/typerank/internal/wordlist"
)

const (
	defaultHistoryLimit = 20
	defaultCurveWindow  = 10
	curveHeight         = 8
)

var (
	dailyDate   string
	dailyStatus bool

	historyLimit       int
	historyCurveWindow int
	historyClear       bool

	boardTime int

	submitLang string
	submitTime int

	configPrint bool
)

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func newDailyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "daily",
		Short: "Play the daily challenge",
		Args:  cobra.NoArgs,
		RunE:  runDailyCmd,
	}
	cmd.Flags().StringVar(&dailyDate, "date", "", "challenge date (YYYY-MM-DD, default: today)")
	cmd.Flags().BoolVar(&dailyStatus, "status", false, "print streaks instead of playing")
	return cmd
}

func runDailyCmd(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)
	a, err := openApp(ctx, cmd, dailyStatus)
	if err != nil {
		return err
	}
	defer a.Close()

	today := daily.Date(time.Now())
	if dailyStatus {
		return printDailyStatus(cmd, a.tracker, today)
	}

	date := dailyDate
	if date == "" {
		date = today
	}
	words, err := daily.Words(date)
	if err != nil {
		return err
	}
	if prev, ok := a.tracker.Completed(date); ok {
		logErrf("Challenge %s already completed at %d wpm; this run will not change the streak.\n", date, prev.WPM)
	}

	settings := practiceSettings(cmd, a.cfg.Practice)
	settings.Language = daily.Language
	m := tui.NewModel(tui.Options{
		Settings:   settings,
		DailyDate:  date,
		DailyWords: words,
		Generator:  generator.New(),
		Results:    a.results,
		Tracker:    a.tracker,
		Logger:     a.logger.Named("tui"),
	})
	return runProgram(m)
}

func printDailyStatus(cmd *cobra.Command, tracker *daily.Tracker, today string) error {
	state := tracker.State()
	out := cmd.OutOrStdout()
	lines := []string{
		fmt.Sprintf("Current streak: %d", daily.EffectiveStreak(state, today)),
		fmt.Sprintf("Longest streak: %d", state.LongestStreak),
		fmt.Sprintf("Completed challenges: %d", len(state.Results)),
	}
	if res, ok := tracker.Completed(today); ok {
		lines = append(lines, fmt.Sprintf("Today: %d wpm, %.2f%% accuracy", res.WPM, res.Accuracy))
	} else {
		lines = append(lines, "Today: not played yet")
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(out, line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent results and learning curves",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	cmd.Flags().IntVar(&historyLimit, "last", defaultHistoryLimit, "rows in the history table")
	cmd.Flags().IntVar(&historyCurveWindow, "curve-window", defaultCurveWindow, "moving average window")
	cmd.Flags().BoolVar(&historyClear, "clear", false, "delete history, keeping personal bests")
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	if historyCurveWindow <= 0 {
		return fmt.Errorf("--curve-window must be > 0")
	}
	ctx := commandContext(cmd)
	a, err := openApp(ctx, cmd, true)
	if err != nil {
		return err
	}
	defer a.Close()

	if historyClear {
		a.results.ClearHistory(ctx)
		_, err := fmt.Fprintln(cmd.OutOrStdout(), "History cleared.")
		return err
	}

	history := a.results.History()
	out := cmd.OutOrStdout()
	if err := stats.RenderSummary(out, history); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := stats.RenderHistoryTable(out, history, historyLimit); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := stats.RenderCurves(out, history, historyCurveWindow, 0, curveHeight, false); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newPBCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pb",
		Short: "Show personal bests",
		Args:  cobra.NoArgs,
		RunE:  runPBCmd,
	}
}

func runPBCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(commandContext(cmd), cmd, true)
	if err != nil {
		return err
	}
	defer a.Close()
	if err := stats.RenderPersonalBests(cmd.OutOrStdout(), a.results.PersonalBests()); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newLeaderboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Show the leaderboard for a time mode",
		Args:  cobra.NoArgs,
		RunE:  runLeaderboardCmd,
	}
	cmd.Flags().IntVar(&boardTime, "time", defaultTime, "time limit in seconds")
	return cmd
}

func runLeaderboardCmd(cmd *cobra.Command, _ []string) error {
	if boardTime <= 0 {
		return fmt.Errorf("--time must be > 0")
	}
	ctx := commandContext(cmd)
	a, err := openApp(ctx, cmd, true)
	if err != nil {
		return err
	}
	defer a.Close()

	entries, err := a.ranker.Rank(ctx, boardTime)
	if err != nil {
		// Rank still returns the synthetic board and the last good entries.
		a.logger.Warn("leaderboard fetch failed", zap.Error(err))
	}
	userID, username := a.identity()
	pos, found := leaderboard.Locate(entries, userID, username)

	out := cmd.OutOrStdout()
	title := fmt.Sprintf("Leaderboard (%s %d)", leaderboard.Mode, boardTime)
	highlight := 0
	if found {
		highlight = pos.Rank
	}
	if err := stats.RenderLeaderboard(out, title, entries, highlight); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if found {
		_, err = fmt.Fprintf(out, "%s is #%d of %d, ahead of %d%% of the board\n", pos.Entry.Username, pos.Rank, pos.Total, pos.Percentile)
	} else {
		_, err = fmt.Fprintf(out, "%s has no score on this board yet\n", username)
	}
	if err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newSubmitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a personal best to the leaderboard",
		Args:  cobra.NoArgs,
		RunE:  runSubmitCmd,
	}
	cmd.Flags().StringVar(&submitLang, "lang", defaultLang, "language of the personal best")
	cmd.Flags().IntVar(&submitTime, "time", defaultTime, "time limit in seconds")
	return cmd
}

func runSubmitCmd(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)
	a, err := openApp(ctx, cmd, true)
	if err != nil {
		return err
	}
	defer a.Close()

	key := result.PBKey(submitLang, leaderboard.Mode, submitTime)
	pb, ok := a.results.PersonalBest(key)
	if !ok {
		return fmt.Errorf("no personal best for %s", key)
	}
	userID, username := a.profile()
	entry := model.LeaderboardEntry{UserID: userID, Username: username, WPM: pb.WPM, Accuracy: pb.Accuracy}
	written, err := a.ranker.Submit(ctx, entry, submitTime)
	if err != nil {
		return err
	}
	msg := fmt.Sprintf("Submitted %d wpm for %s.", pb.WPM, key)
	if !written {
		msg = fmt.Sprintf("Kept the existing leaderboard score; %d wpm does not beat it.", pb.WPM)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), msg)
	return err
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
	cmd.Flags().BoolVar(&configPrint, "print", false, "print the parsed config instead of opening an editor")
	return cmd
}

func runConfigCmd(cmd *cobra.Command, _ []string) error {
	if configPrint {
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		data, err := config.Encode(cfg)
		if err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(configPath); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(configPath, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	editCmd := exec.Command(parts[0], append(parts[1:], configPath)...)
	editCmd.Stdin = os.Stdin
	editCmd.Stdout = os.Stdout
	editCmd.Stderr = os.Stderr
	if err := editCmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# typerank configuration
# Uncomment a value to enable it. CLI flags override config values.

[practice]
# lang = %q             # Language code
# mode = %q           # time or words
# time = %d               # Seconds per time test
# words = %d              # Words per words test
# punctuation = false     # Capitals and punctuation
# numbers = false         # Mix in numbers

[profile]
# username = %q       # Name shown on the leaderboard
# user-id is generated on first submit

[log]
# level = %q            # debug, info, warn or error
# path = %q
`,
		defaultLang,
		defaultMode,
		defaultTime,
		defaultWords,
		defaultUsername,
		defaultLogLevel,
		config.DefaultLogPath(),
	)
}

func newLangsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "langs",
		Short: "List available word list languages",
		Args:  cobra.NoArgs,
		RunE:  runLangsCmd,
	}
}

func runLangsCmd(cmd *cobra.Command, _ []string) error {
	langs, err := wordlist.NewProvider(config.DefaultWordListDir()).Languages()
	if err != nil {
		return err
	}
	for _, lang := range langs {
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), lang); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}
