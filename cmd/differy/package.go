package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/yuya-takeyama/differy/internal/config"
	"github.com/yuya-takeyama/differy/internal/logging"
	"github.com/yuya-takeyama/differy/internal/worker"
	"github.com/yuya-takeyama/differy/pkg/archive"
	"github.com/yuya-takeyama/differy/pkg/logger"
	"github.com/yuya-takeyama/differy/pkg/release"
)

type packageOptions struct {
	output         string
	configFile     string
	window         int
	concurrency    int
	stateFile      string
	excludes       []string
	quiet          bool
	resultJSONFile string
}

// RunResult is written by --result-json-file.
type RunResult struct {
	Revision string          `json:"revision"`
	Archives []ResultArchive `json:"archives"`
	Updates  []string        `json:"updates"`
	Skipped  []string        `json:"skipped"`
	State    string          `json:"state"`
}

type ResultArchive struct {
	Path    string `json:"path"`
	Entries int    `json:"entries"`
	Size    int64  `json:"size"`
}

func newPackageCmd() *cobra.Command {
	opts := &packageOptions{}

	cmd := &cobra.Command{
		Use:     "package <PATH> <REVISION>",
		Aliases: []string{"release"},
		Short:   "Build checksum, update and content archives for a revision",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPackage(cmd, opts, args[0], args[1])
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", ".", "Output directory")
	cmd.Flags().StringVar(&opts.configFile, "config", "", "YAML configuration file")
	cmd.Flags().IntVar(&opts.window, "window", release.DefaultWindow, "Number of older revisions to build updates from")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", worker.DefaultConcurrency, "Number of concurrent operations")
	cmd.Flags().StringVar(&opts.stateFile, "state-file", "", "Release state file (default <output>/update.json)")
	cmd.Flags().StringSliceVar(&opts.excludes, "exclude", nil, "Exclude patterns (multiple allowed)")
	cmd.Flags().BoolVar(&opts.quiet, "quiet", false, "Suppress non-error output")
	cmd.Flags().StringVar(&opts.resultJSONFile, "result-json-file", "", "Path to output result as JSON file")
	return cmd
}

// loadConfig reads --config and lets explicitly set flags win.
func loadConfig(cmd *cobra.Command, path string) (config.Config, error) {
	cfg := config.Default()
	if path != "" {
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return config.Config{}, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("window") {
		cfg.Window, _ = flags.GetInt("window")
	}
	if flags.Changed("concurrency") {
		cfg.Concurrency, _ = flags.GetInt("concurrency")
	}
	if flags.Changed("state-file") {
		cfg.StateFile, _ = flags.GetString("state-file")
	}
	if flags.Changed("exclude") {
		excludes, _ := flags.GetStringSlice("exclude")
		cfg.Excludes = append(cfg.Excludes, excludes...)
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func runPackage(cmd *cobra.Command, opts *packageOptions, root, revision string) error {
	started := time.Now()

	cfg, err := loadConfig(cmd, opts.configFile)
	if err != nil {
		return err
	}
	rw, err := cfg.Rewriter()
	if err != nil {
		return fmt.Errorf("invalid rewrite configuration: %w", err)
	}

	if err := os.MkdirAll(opts.output, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	statePath := cfg.StateFile
	if !filepath.IsAbs(statePath) {
		statePath = filepath.Join(opts.output, statePath)
	}

	var progress logger.Logger = &logger.VerboseLogger{}
	if opts.quiet {
		progress = &logger.QuietLogger{}
	}

	o := release.NewOrchestrator(root, revision,
		archive.NewBuilder(opts.output, rw, cfg.Excludes),
		release.WithWindow(cfg.Window),
		release.WithConcurrency(cfg.Concurrency),
		release.WithExcludes(cfg.Excludes),
		release.WithStatePath(statePath),
		release.WithLogger(progress),
	)

	report, err := o.Run(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to package %s: %w", revision, err)
	}

	if opts.resultJSONFile != "" {
		if err := writeRunResult(opts.resultJSONFile, revision, report); err != nil {
			return fmt.Errorf("failed to write result JSON: %w", err)
		}
	}

	if !opts.quiet {
		logging.PrintSummary(cmd.ErrOrStderr(), logging.Summary{
			Files:        int64(report.Files),
			BytesHashed:  report.Stats.BytesHashed,
			Updates:      len(report.Updates),
			Skipped:      len(report.Skipped),
			Archives:     len(report.Archives),
			ArchiveBytes: report.ArchiveBytes(),
			Duration:     time.Since(started),
		})
	}
	return nil
}

func writeRunResult(path, revision string, report release.Report) error {
	result := RunResult{
		Revision: revision,
		Archives: []ResultArchive{},
		Updates:  append([]string{}, report.Updates...),
		Skipped:  append([]string{}, report.Skipped...),
		State:    report.StatePath,
	}
	for _, a := range report.Archives {
		result.Archives = append(result.Archives, ResultArchive{
			Path:    a.Path,
			Entries: a.Entries,
			Size:    a.Size,
		})
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}
