// Package main provides the CLI entrypoint for typerank.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/verte-zerg/typerank/internal/cloudsync"
	"github.com/verte-zerg/typerank/internal/config"
	"github.com/verte-zerg/typerank/internal/daily"
	"github.com/verte-zerg/typerank/internal/generator"
	"github.com/verte-zerg/typerank/internal/leaderboard"
	"github.com/verte-zerg/typerank/internal/logging"
	"github.com/verte-zerg/typerank/internal/model"
	"github.com/verte-zerg/typerank/internal/result"
	"github.com/verte-zerg/typerank/internal/store"
	"github.com/verte-zerg/typerank/internal/tui"
	"github.com/verte-zerg/typerank/internal/wordlist"
)

const (
	defaultLang     = "en"
	defaultMode     = string(model.ModeTime)
	defaultTime     = 30
	defaultWords    = 25
	defaultLogLevel = "info"
	defaultUsername = "typist"

	flushTimeout = 5 * time.Second
)

var (
	practiceLang        string
	practiceMode        string
	practiceTime        int
	practiceWords       int
	practicePunctuation bool
	practiceNumbers     bool

	configPath string
	dbPath     string
	logLevel   string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "typerank",
		Short:         "Terminal typing test with personal bests, daily challenges and a leaderboard",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPracticeCmd,
	}

	rootCmd.Flags().StringVar(&practiceLang, "lang", defaultLang, "language code")
	rootCmd.Flags().StringVar(&practiceMode, "mode", defaultMode, "test mode (time|words)")
	rootCmd.Flags().IntVar(&practiceTime, "time", defaultTime, "time limit in seconds for time mode")
	rootCmd.Flags().IntVar(&practiceWords, "words", defaultWords, "word count for words mode")
	rootCmd.Flags().BoolVar(&practicePunctuation, "punctuation", false, "add capitals and punctuation")
	rootCmd.Flags().BoolVar(&practiceNumbers, "numbers", false, "mix numbers into the text")

	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultConfigPath(), "config file path")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", config.DefaultDBPath(), "database path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", defaultLogLevel, "log level (debug|info|warn|error)")

	rootCmd.AddCommand(newDailyCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newPBCmd())
	rootCmd.AddCommand(newLeaderboardCmd())
	rootCmd.AddCommand(newSubmitCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newLangsCmd())

	return rootCmd
}

// app holds the engine components shared by every command.
type app struct {
	cfg     config.FileConfig
	logger  *zap.Logger
	store   *store.Store
	syncer  *cloudsync.Syncer
	results *result.Aggregator
	tracker *daily.Tracker
	ranker  *leaderboard.Ranker
	words   *wordlist.Provider
}

// openApp loads config, opens the database and restores persisted state.
// Interactive commands pass console=false so log lines stay out of the TUI.
func openApp(ctx context.Context, cmd *cobra.Command, console bool) (*app, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "log-level", &logLevel, cfg.Log.Level)

	logPath := config.DefaultLogPath()
	if cfg.Log.Path != nil && *cfg.Log.Path != "" {
		logPath = *cfg.Log.Path
	}
	opts := logging.Options{Path: logPath, Level: logLevel}
	if console {
		opts.Console = os.Stderr
	}
	logger, err := logging.New(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}

	st, err := store.Open(dbPath)
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	syncer := cloudsync.New(st.Remote(), logger.Named("sync"), cloudsync.DefaultDebounce)
	a := &app{
		cfg:     cfg,
		logger:  logger,
		store:   st,
		syncer:  syncer,
		results: result.New(st.KV("results"), logger.Named("results"), syncer),
		tracker: daily.NewTracker(st.KV("daily"), logger.Named("daily"), syncer),
		ranker:  leaderboard.NewRanker(st.Leaderboard(), logger.Named("leaderboard")),
		words:   wordlist.NewProvider(config.DefaultWordListDir()),
	}
	a.results.Load(ctx)
	a.tracker.Load(ctx)
	return a, nil
}

// Close pushes pending sync payloads and releases the database.
func (a *app) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	if err := a.syncer.Flush(ctx); err != nil {
		a.logger.Warn("sync flush interrupted", zap.Error(err))
	}
	a.syncer.Close()
	if err := a.store.Close(); err != nil {
		logErrf("failed to close db: %v\n", err)
	}
	// Best-effort flush of buffered log entries.
	_ = a.logger.Sync()
}

// identity returns the configured leaderboard identity. userID is empty until the
// first submit.
func (a *app) identity() (userID, username string) {
	username = defaultUsername
	if a.cfg.Profile.Username != nil && strings.TrimSpace(*a.cfg.Profile.Username) != "" {
		username = strings.TrimSpace(*a.cfg.Profile.Username)
	} else if env := strings.TrimSpace(os.Getenv("USER")); env != "" {
		username = env
	}
	if a.cfg.Profile.UserID != nil {
		userID = *a.cfg.Profile.UserID
	}
	return userID, username
}

// profile is identity for submits: it creates a user ID on first use and records it
// in the config file.
func (a *app) profile() (userID, username string) {
	userID, username = a.identity()
	if userID != "" {
		return userID, username
	}
	userID = uuid.NewString()
	a.cfg.Profile.UserID = &userID
	if err := config.SetUserID(configPath, userID); err != nil {
		a.logger.Warn("failed to save generated user id", zap.Error(err))
	}
	return userID, username
}

func runPracticeCmd(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)
	a, err := openApp(ctx, cmd, false)
	if err != nil {
		return err
	}
	defer a.Close()

	settings := practiceSettings(cmd, a.cfg.Practice)
	if err := settings.Validate(); err != nil {
		return err
	}
	vocabulary, err := a.words.Words(settings.Language)
	if err != nil {
		return wordListLoadError(settings.Language, err)
	}

	m := tui.NewModel(tui.Options{
		Settings:   settings,
		Vocabulary: vocabulary,
		Generator:  generator.New(),
		Results:    a.results,
		Tracker:    a.tracker,
		Logger:     a.logger.Named("tui"),
	})
	if err := runProgram(m); err != nil {
		return err
	}
	if _, ok := m.Result(); ok {
		a.submitBest(ctx, settings)
	}
	return nil
}

func runProgram(m tea.Model) error {
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// submitBest sends the personal best for a time mode test to the leaderboard.
// Failures are logged only.
func (a *app) submitBest(ctx context.Context, settings model.Settings) {
	if settings.Mode != leaderboard.Mode {
		return
	}
	pb, ok := a.results.PersonalBest(result.PBKey(settings.Language, settings.Mode, settings.ModeValue()))
	if !ok {
		return
	}
	userID, username := a.profile()
	entry := model.LeaderboardEntry{UserID: userID, Username: username, WPM: pb.WPM, Accuracy: pb.Accuracy}
	if _, err := a.ranker.Submit(ctx, entry, settings.ModeValue()); err != nil {
		a.logger.Warn("leaderboard submit failed", zap.Error(err))
	}
}

// practiceSettings merges flags with the [practice] config section. Flags win when set.
func practiceSettings(cmd *cobra.Command, cfg config.PracticeConfig) model.Settings {
	applyStringConfig(cmd, "lang", &practiceLang, cfg.Lang)
	applyStringConfig(cmd, "mode", &practiceMode, cfg.Mode)
	applyIntConfig(cmd, "time", &practiceTime, cfg.Time)
	applyIntConfig(cmd, "words", &practiceWords, cfg.Words)
	applyBoolConfig(cmd, "punctuation", &practicePunctuation, cfg.Punctuation)
	applyBoolConfig(cmd, "numbers", &practiceNumbers, cfg.Numbers)

	settings := model.Settings{
		Language:    strings.ToLower(strings.TrimSpace(practiceLang)),
		Mode:        model.Mode(strings.ToLower(strings.TrimSpace(practiceMode))),
		TimeLimit:   practiceTime,
		WordCount:   practiceWords,
		Punctuation: practicePunctuation,
		Numbers:     practiceNumbers,
	}
	if cfg.UILanguage != nil {
		settings.UILanguage = *cfg.UILanguage
	}
	if cfg.Theme != nil {
		settings.Theme = *cfg.Theme
	}
	if cfg.Font != nil {
		settings.FontFamily = *cfg.Font
	}
	return settings
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func wordListLoadError(lang string, err error) error {
	lines := []string{
		fmt.Sprintf("failed to load word list: %v", err),
		fmt.Sprintf("expected word list at: %s/%s.txt", config.DefaultWordListDir(), lang),
	}
	if errors.Is(err, wordlist.ErrUnknownLanguage) {
		lines = append(lines, fmt.Sprintf("language %q not found", lang), "Run: typerank langs")
	}
	return fmt.Errorf("%s", strings.Join(lines, "\n"))
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
