package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/codescope/codescope"
	"github.com/codescope/codescope/internal/config"
	"github.com/codescope/codescope/internal/jobstore"
	"github.com/codescope/codescope/internal/recommend"
	"github.com/codescope/codescope/internal/risk"
)

var flagFormat string

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "codescope",
	Short:         "Dependency graph, metrics, and risk analysis for source trees",
	Long:          "Codescope parses a project with tree-sitter, builds a typed dependency graph, computes complexity and maintainability metrics, and scores per-file risk.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return validateFormat(flagFormat)
	},
	// No Run; prints help by default.
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format: json|text")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(jobsCmd)
}

func validateFormat(f string) error {
	if f != "json" && f != "text" {
		return fmt.Errorf("invalid format %q (want json or text)", f)
	}
	return nil
}

var (
	flagLanguages string
	flagProject   string
	flagTop       int
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [path]",
	Short: "Analyze a source tree and report metrics, risks, and diagnostics",
	Long:  "Walks the target directory (honoring .gitignore), runs the full analysis pipeline, and prints the project report.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAnalyze,
}

func init() {
	f := analyzeCmd.Flags()
	f.Int("workers", 0, "parse worker pool size (0 = number of CPUs)")
	f.Int("file-timeout-ms", 10000, "per-file parse timeout in milliseconds")
	f.Int("cache-size", 4096, "content cache capacity in entries")
	f.String("job-db", "", "SQLite path for job history (empty disables)")
	f.String("risk-script", "", "Risor risk expression file (empty = weighted scorer)")
	f.String("recommend-url", "", "recommendation service base URL (empty disables)")
	f.Bool("verbose", false, "debug logging")
	f.Float64("risk-complexity", risk.DefaultWeights.Complexity, "risk weight: complexity")
	f.Float64("risk-maintainability", risk.DefaultWeights.Maintainability, "risk weight: maintainability")
	f.Float64("risk-fan-in", risk.DefaultWeights.FanIn, "risk weight: fan-in")
	f.Float64("risk-fan-out", risk.DefaultWeights.FanOut, "risk weight: fan-out")

	f.StringVar(&flagLanguages, "languages", "", "comma-separated language filter (e.g. python,typescript)")
	f.StringVar(&flagProject, "project", "", "project id recorded on the job (default: directory name)")
	f.IntVar(&flagTop, "top", 10, "number of highest-risk files to show")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	start := time.Now()

	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}
	setupLogging(cfg.Verbose)

	targetDir, err := resolveTargetDir(args)
	if err != nil {
		return err
	}
	projectID := flagProject
	if projectID == "" {
		projectID = filepath.Base(targetDir)
	}

	snap, err := collectSnapshot(targetDir, projectID)
	if err != nil {
		return fmt.Errorf("collecting files: %w", err)
	}
	slog.Debug("snapshot collected", "files", len(snap.Files))

	opts := []codescope.Option{
		codescope.WithWorkers(cfg.Workers),
		codescope.WithFileTimeout(time.Duration(cfg.FileTimeoutMS) * time.Millisecond),
		codescope.WithCacheSize(cfg.CacheSize),
	}
	if flagLanguages != "" {
		langs := strings.Split(flagLanguages, ",")
		for i := range langs {
			langs[i] = strings.TrimSpace(langs[i])
		}
		opts = append(opts, codescope.WithLanguages(langs...))
	}
	if cfg.RiskScript != "" {
		src, err := os.ReadFile(cfg.RiskScript)
		if err != nil {
			return fmt.Errorf("reading risk script: %w", err)
		}
		opts = append(opts, codescope.WithScorer(risk.NewScriptScorer(string(src))))
	} else {
		opts = append(opts, codescope.WithScorer(risk.NewWeightedScorer(cfg.Risk)))
	}
	if cfg.JobDB != "" {
		store, err := jobstore.NewStore(cfg.JobDB)
		if err != nil {
			return err
		}
		if err := store.Migrate(); err != nil {
			store.Close()
			return err
		}
		opts = append(opts, codescope.WithJobStore(store))
	}

	engine, err := codescope.New(opts...)
	if err != nil {
		return fmt.Errorf("creating engine: %w", err)
	}
	defer engine.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	jobID, err := engine.Submit(ctx, snap)
	if err != nil {
		return fmt.Errorf("submitting job: %w", err)
	}

	res, err := waitForResult(engine, jobID)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Analyzed %d files in %s\n",
		len(snap.Files), time.Since(start).Round(time.Millisecond))

	if cfg.RecommendURL != "" {
		client := recommend.NewClient(&recommend.Config{
			BaseURL: cfg.RecommendURL,
			APIKey:  cfg.RecommendKey,
		})
		recs, err := client.Recommend(ctx, res.RecommendationPayload())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: recommendations unavailable: %s\n", err)
		} else {
			return outputResult(os.Stdout, flagFormat, res, flagTop, recs)
		}
	}
	return outputResult(os.Stdout, flagFormat, res, flagTop, nil)
}

// waitForResult polls job status until terminal, reporting progress on
// stderr.
func waitForResult(engine *codescope.Engine, jobID string) (*codescope.Result, error) {
	lastProgress := -1
	for {
		st, err := engine.Status(jobID)
		if err != nil {
			return nil, err
		}
		if st.Progress != lastProgress {
			fmt.Fprintf(os.Stderr, "\r%s %3d%%", st.State, st.Progress)
			lastProgress = st.Progress
		}
		if st.State.Terminal() {
			fmt.Fprintln(os.Stderr)
			if st.State != codescope.StateCompleted {
				return nil, fmt.Errorf("job %s: %s", st.State, st.Error)
			}
			return engine.Result(jobID)
		}
		time.Sleep(50 * time.Millisecond)
	}
}

var flagJobsLimit int

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List recent analysis jobs from the history database",
	RunE:  runJobs,
}

func init() {
	jobsCmd.Flags().String("job-db", "", "SQLite path for job history")
	jobsCmd.Flags().IntVar(&flagJobsLimit, "limit", 20, "maximum number of jobs to list")
}

func runJobs(cmd *cobra.Command, args []string) error {
	dbPath, _ := cmd.Flags().GetString("job-db")
	if dbPath == "" {
		dbPath = os.Getenv("CODESCOPE_JOB_DB")
	}
	if dbPath == "" {
		return fmt.Errorf("no job database: pass --job-db or set CODESCOPE_JOB_DB")
	}
	store, err := jobstore.NewStore(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.Migrate(); err != nil {
		return err
	}

	recs, err := store.List(flagJobsLimit)
	if err != nil {
		return err
	}
	return outputJobs(os.Stdout, flagFormat, recs)
}

func setupLogging(verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// resolveTargetDir returns the absolute path of the directory to analyze.
func resolveTargetDir(args []string) (string, error) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving path %q: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("directory not found: %s", abs)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("not a directory: %s", abs)
	}
	return abs, nil
}
