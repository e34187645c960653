// Package main provides the CLI entrypoint for tuiquiz.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/tuiquiz/internal/config"
	"github.com/verte-zerg/tuiquiz/internal/content"
	"github.com/verte-zerg/tuiquiz/internal/history"
	"github.com/verte-zerg/tuiquiz/internal/model"
	"github.com/verte-zerg/tuiquiz/internal/selector"
	"github.com/verte-zerg/tuiquiz/internal/session"
	"github.com/verte-zerg/tuiquiz/internal/stats"
	"github.com/verte-zerg/tuiquiz/internal/statsui"
	"github.com/verte-zerg/tuiquiz/internal/store"
	"github.com/verte-zerg/tuiquiz/internal/tui"
)

const (
	defaultDomain      = "arithmetic"
	defaultCurveWindow = 5
	defaultTop         = 20
	defaultPlainWidth  = 80
	contentFileName    = "spelling.txt"
)

var (
	practiceDomain    string
	practiceTasks     int
	practiceSeconds   int
	practiceTableSize int
	practiceContent   string
	practiceDepth     int
	practiceHistory   int
	practiceSeed      int64
	practiceEphemeral bool

	dbPath string

	statsDomain      string
	statsLast        int
	statsCurveWindow int
	statsTop         int
	statsPlain       bool
)

func main() {
	if err := config.LoadDotenv(); err != nil {
		logErrf("%v\n", err)
	}
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "tuiquiz",
		Short:         "TUI flashcard trainer for times tables and spelling",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPracticeCmd,
	}

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (default: XDG data dir)")
	rootCmd.Flags().StringVar(&practiceDomain, "domain", defaultDomain, "quiz domain: arithmetic or spelling")
	rootCmd.Flags().IntVar(&practiceTasks, "tasks", session.DefaultTasks, "questions per session")
	rootCmd.Flags().IntVar(&practiceSeconds, "seconds", session.DefaultSeconds, "seconds per question (3-120)")
	rootCmd.Flags().IntVar(&practiceTableSize, "table-size", content.DefaultTableSize, "largest factor for arithmetic facts")
	rootCmd.Flags().StringVar(&practiceContent, "content", "", "spelling content file (lines, JSON, or NDJSON)")
	rootCmd.Flags().IntVar(&practiceDepth, "exclusion-depth", selector.DefaultDepth, "recent items kept out of the draw (0 selects the default)")
	rootCmd.Flags().IntVar(&practiceHistory, "history-size", history.DefaultSize, "recent items remembered per session")
	rootCmd.Flags().Int64Var(&practiceSeed, "seed", 0, "random seed (0 picks one)")
	rootCmd.Flags().BoolVar(&practiceEphemeral, "ephemeral", false, "keep stats in memory only")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newRecordsCmd())
	rootCmd.AddCommand(newCheckCmd())

	return rootCmd
}

func runPracticeCmd(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	env := config.ReadEnv(os.LookupEnv)
	fileCfg, err := config.LoadConfig(configPath(env))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	var kv store.KV
	if practiceEphemeral {
		kv = store.NewMemory()
	} else {
		st, err := store.Open(resolveDBPath(env))
		if err != nil {
			return fmt.Errorf("failed to open db: %w", err)
		}
		kv = st
	}
	defer func() {
		if cerr := kv.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	saved, ok, err := store.LoadSettings(ctx, kv)
	if err != nil {
		logErrf("failed to load settings: %v\n", err)
	}
	var last *model.Settings
	if ok {
		last = &saved
	}
	cfg, err := resolvePracticeConfig(cmd, last, env, fileCfg.Practice)
	if err != nil {
		return err
	}
	cfg = session.Normalize(cfg)
	if err := store.SaveSettings(ctx, kv, model.Settings{
		Domain:    cfg.Domain.String(),
		Tasks:     cfg.Tasks,
		Seconds:   cfg.Seconds,
		TableSize: cfg.TableSize,
	}); err != nil {
		logErrf("failed to save settings: %v\n", err)
	}

	pool := loadPool(cfg)

	warn := store.WithWarn(logErrf)
	st, err := store.LoadStats(ctx, kv, warn)
	if err != nil {
		return fmt.Errorf("failed to load stats: %w", err)
	}
	opts := []session.Option{
		session.WithPool(pool),
		session.WithLogger(logErrf),
		session.WithSessionLog(store.NewSessions(kv, warn)),
	}
	ctl := session.New(st, store.NewRecords(kv, warn), opts...)

	m := tui.NewModel(ctl, cfg)
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// resolvePracticeConfig layers defaults, saved settings, environment, and
// the config file under explicitly set flags.
func resolvePracticeConfig(cmd *cobra.Command, saved *model.Settings, env config.EnvConfig, file config.PracticeConfig) (model.Config, error) {
	if saved != nil {
		applyStringConfig(cmd, "domain", &practiceDomain, nonEmpty(saved.Domain))
		applyIntConfig(cmd, "tasks", &practiceTasks, positive(saved.Tasks))
		applyIntConfig(cmd, "seconds", &practiceSeconds, positive(saved.Seconds))
		applyIntConfig(cmd, "table-size", &practiceTableSize, positive(saved.TableSize))
	}

	applyStringConfig(cmd, "domain", &practiceDomain, env.Domain)
	applyStringConfig(cmd, "content", &practiceContent, env.Content)
	applyIntConfig(cmd, "tasks", &practiceTasks, env.Tasks)
	applyIntConfig(cmd, "seconds", &practiceSeconds, env.Seconds)

	applyStringConfig(cmd, "domain", &practiceDomain, file.Domain)
	applyIntConfig(cmd, "tasks", &practiceTasks, file.Tasks)
	applyIntConfig(cmd, "seconds", &practiceSeconds, file.Seconds)
	applyIntConfig(cmd, "table-size", &practiceTableSize, file.TableSize)
	applyStringConfig(cmd, "content", &practiceContent, file.Content)
	applyIntConfig(cmd, "exclusion-depth", &practiceDepth, file.ExclusionDepth)
	applyIntConfig(cmd, "history-size", &practiceHistory, file.HistorySize)
	applyInt64Config(cmd, "seed", &practiceSeed, file.Seed)

	domain, ok := model.ParseDomain(practiceDomain)
	if !ok {
		return model.Config{}, fmt.Errorf("unknown domain %q (use arithmetic or spelling)", practiceDomain)
	}
	if practiceTasks <= 0 {
		return model.Config{}, fmt.Errorf("--tasks must be > 0")
	}
	if practiceDepth < 0 {
		return model.Config{}, fmt.Errorf("--exclusion-depth must be >= 0")
	}
	return model.Config{
		Domain:         domain,
		Tasks:          practiceTasks,
		Seconds:        practiceSeconds,
		TableSize:      practiceTableSize,
		ContentPath:    expandHome(practiceContent),
		ExclusionDepth: practiceDepth,
		HistorySize:    practiceHistory,
		Seed:           practiceSeed,
	}, nil
}

func loadPool(cfg model.Config) []model.Item {
	if cfg.Domain == model.DomainSpelling && cfg.ContentPath == "" {
		if path := defaultContentPath(); path != "" {
			cfg.ContentPath = path
		}
	}
	res, err := content.Pool(cfg)
	if err != nil {
		logErrf("failed to load content, using built-in items: %v\n", err)
		return content.Fallback()
	}
	if res.Fallback && cfg.ContentPath != "" {
		logErrf("no usable items in %s; using built-in items\n", cfg.ContentPath)
	} else if res.Dropped > 0 {
		logErrf("skipped %d malformed or duplicate items in %s\n", res.Dropped, cfg.ContentPath)
	}
	return res.Items
}

func defaultContentPath() string {
	path := filepath.Join(config.DefaultContentDir(), contentFileName)
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := configPath(config.ReadEnv(os.LookupEnv))
	if err := config.EnsureTemplate(path); err != nil {
		return err
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show stats",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsDomain, "domain", "", "domain filter")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N sessions")
	cmd.Flags().IntVar(&statsCurveWindow, "curve-window", defaultCurveWindow, "moving average window")
	cmd.Flags().IntVar(&statsTop, "top", defaultTop, "limit items to the N weakest (0 for all)")
	cmd.Flags().BoolVar(&statsPlain, "plain", false, "print a plain report instead of the TUI")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	env := config.ReadEnv(os.LookupEnv)
	fileCfg, err := config.LoadConfig(configPath(env))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyIntConfig(cmd, "last", &statsLast, fileCfg.Stats.Last)
	applyIntConfig(cmd, "curve-window", &statsCurveWindow, fileCfg.Stats.Window)
	applyIntConfig(cmd, "top", &statsTop, fileCfg.Stats.Top)

	domain := ""
	if statsDomain != "" {
		d, ok := model.ParseDomain(statsDomain)
		if !ok {
			return fmt.Errorf("unknown domain %q (use arithmetic or spelling)", statsDomain)
		}
		domain = d.String()
	}
	if statsCurveWindow < 1 {
		return fmt.Errorf("--curve-window must be >= 1")
	}
	cfg := model.StatsConfig{
		Domain:      domain,
		Last:        statsLast,
		CurveWindow: statsCurveWindow,
		Top:         statsTop,
	}

	st, err := store.Open(resolveDBPath(env))
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	contentPath := ""
	if fileCfg.Practice.Content != nil {
		contentPath = expandHome(*fileCfg.Practice.Content)
	}
	labels := itemLabels(contentPath)

	out := cmd.OutOrStdout()
	if statsPlain || !isTerminal(out) {
		report, err := stats.BuildReport(ctx, st, cfg, store.WithWarn(logErrf))
		if err != nil {
			return fmt.Errorf("failed to build report: %w", err)
		}
		report.Labels = labels
		return report.Render(out, cfg.CurveWindow, terminalWidth(out)-12)
	}

	m := statsui.NewModel(st, cfg, labels)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}

func itemLabels(contentPath string) map[string]string {
	pool := content.Fallback()
	if contentPath == "" {
		contentPath = defaultContentPath()
	}
	if contentPath != "" {
		if res, err := content.LoadFile(contentPath); err == nil {
			pool = append(pool, res.Items...)
		}
	}
	return stats.Labels(pool)
}

func newRecordsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "records",
		Short: "List best records per mode",
		Args:  cobra.NoArgs,
		RunE:  runRecordsCmd,
	}
}

func runRecordsCmd(cmd *cobra.Command, _ []string) error {
	st, err := store.Open(resolveDBPath(config.ReadEnv(os.LookupEnv)))
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()
	recs, err := store.NewRecords(st, store.WithWarn(logErrf)).List(context.Background())
	if err != nil {
		return err
	}
	return stats.RenderBestRecords(cmd.OutOrStdout(), recs)
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <file>",
		Short: "Validate a spelling content file",
		Args:  cobra.ExactArgs(1),
		RunE:  runCheckCmd,
	}
}

func runCheckCmd(cmd *cobra.Command, args []string) error {
	path := expandHome(args[0])
	res, err := content.LoadFile(path)
	if err != nil && !errors.Is(err, content.ErrNoItems) {
		return err
	}
	if werr := writeCheckReport(cmd.OutOrStdout(), path, res); werr != nil {
		return fmt.Errorf("failed to write output: %w", werr)
	}
	return err
}

func writeCheckReport(w io.Writer, path string, res content.Result) error {
	categories := map[string]int{}
	for _, it := range res.Items {
		categories[it.Category]++
	}
	names := make([]string, 0, len(categories))
	for name := range categories {
		names = append(names, name)
	}
	sort.Strings(names)
	lines := []string{
		fmt.Sprintf("File: %s", path),
		fmt.Sprintf("Format: %s", res.Format),
		fmt.Sprintf("Items: %d", len(res.Items)),
		fmt.Sprintf("Dropped: %d", res.Dropped),
	}
	for _, name := range names {
		lines = append(lines, fmt.Sprintf("  %-12s %d", name, categories[name]))
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func configPath(env config.EnvConfig) string {
	if env.ConfigPath != nil {
		return expandHome(*env.ConfigPath)
	}
	return config.DefaultConfigPath()
}

func resolveDBPath(env config.EnvConfig) string {
	if dbPath != "" {
		return expandHome(dbPath)
	}
	if env.DBPath != nil {
		return expandHome(*env.DBPath)
	}
	return config.DefaultDBPath()
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok {
		return defaultPlainWidth
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return defaultPlainWidth
	}
	return width
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func positive(n int) *int {
	if n <= 0 {
		return nil
	}
	return &n
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

func applyInt64Config(cmd *cobra.Command, name string, target, value *int64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
