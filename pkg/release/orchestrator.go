package release

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/apex/log"

	"github.com/yuya-takeyama/differy/internal/domain"
	"github.com/yuya-takeyama/differy/internal/worker"
	"github.com/yuya-takeyama/differy/pkg/archive"
	"github.com/yuya-takeyama/differy/pkg/diff"
	"github.com/yuya-takeyama/differy/pkg/executor"
	"github.com/yuya-takeyama/differy/pkg/logger"
	"github.com/yuya-takeyama/differy/pkg/manifest"
	"github.com/yuya-takeyama/differy/pkg/rewrite"
)

const (
	DefaultWindow = 14
	StateFileName = "update.json"
)

// Variants are the variants every release publishes.
var Variants = []rewrite.Variant{rewrite.VariantApp, rewrite.VariantWeb}

type Orchestrator struct {
	root        string
	revision    string
	builder     *archive.Builder
	statePath   string
	window      int
	concurrency int
	excludes    []string
	logger      logger.Logger
	now         func() time.Time
}

type Option func(*Orchestrator)

// WithWindow sets how many older revisions get an update bundle.
func WithWindow(n int) Option {
	return func(o *Orchestrator) { o.window = n }
}

// WithConcurrency bounds both hashing and archive building.
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) { o.concurrency = n }
}

func WithExcludes(patterns []string) Option {
	return func(o *Orchestrator) { o.excludes = patterns }
}

// WithStatePath overrides <output>/update.json.
func WithStatePath(path string) Option {
	return func(o *Orchestrator) { o.statePath = path }
}

func WithLogger(l logger.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithNow is useful for tests.
func WithNow(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// NewOrchestrator prepares a release of the tree at root as revision.
// Archives go to the builder's output directory.
func NewOrchestrator(root, revision string, builder *archive.Builder, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		root:        root,
		revision:    revision,
		builder:     builder,
		statePath:   filepath.Join(builder.OutputDir(), StateFileName),
		window:      DefaultWindow,
		concurrency: worker.DefaultConcurrency,
		logger:      &logger.NullLogger{},
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Report describes a finished run.
type Report struct {
	Files     int
	Stats     worker.Stats
	Updates   []string
	Skipped   []string
	Archives  []archive.Result
	State     State
	StatePath string
}

// ArchiveBytes sums the size of every written archive.
func (r Report) ArchiveBytes() int64 {
	var n int64
	for _, a := range r.Archives {
		n += a.Size
	}
	return n
}

// Run performs the release. The state file is written only when every
// step succeeded and ctx was not canceled.
func (o *Orchestrator) Run(ctx context.Context) (Report, error) {
	report := Report{StatePath: o.statePath}

	state, err := LoadState(o.statePath)
	if err != nil {
		log.WithError(err).Info("no usable release state, starting fresh")
	}

	o.logger.PhaseStart("snapshot", 0)
	current, err := manifest.Snapshot(ctx, o.root, manifest.SnapshotOptions{
		Excludes:    o.excludes,
		Concurrency: o.concurrency,
		Stats:       &report.Stats,
	})
	if err != nil {
		return report, err
	}
	report.Files = len(current)
	o.logger.PhaseComplete("snapshot", len(current))

	sum, err := o.builder.BuildChecksum(current, o.revision)
	if err != nil {
		return report, err
	}
	report.Archives = append(report.Archives, sum)
	o.logger.ItemProcessed("checksum", sum.Path, "write")

	exec := executor.NewExecutor(o.logger, o.concurrency)

	candidates := Candidates(state, o.revision, o.window)
	o.logger.PhaseStart("update", len(candidates))
	for _, from := range candidates {
		if err := ctx.Err(); err != nil {
			return report, canceled(err)
		}

		old, err := o.builder.LoadChecksum(from)
		if err != nil {
			o.logger.Skipped("update", from, &domain.OpError{
				Op:   "release.load_candidate",
				Kind: domain.KindCandidateUnavailable,
				Err:  err,
			})
			report.Skipped = append(report.Skipped, from)
			continue
		}

		d := diff.Compute(old, current)
		prefix := archive.UpdatePrefix(o.revision, from)
		if _, err := o.builder.WriteDiff(prefix, d); err != nil {
			return report, err
		}

		results := exec.Execute(ctx, o.updateJobs(d, prefix))
		if err := o.collect(ctx, &report, results); err != nil {
			return report, err
		}
		report.Updates = append(report.Updates, from)
	}
	o.logger.PhaseComplete("update", len(report.Updates))

	o.logger.PhaseStart("content", len(Variants))
	results := exec.Execute(ctx, o.contentJobs())
	if err := o.collect(ctx, &report, results); err != nil {
		return report, err
	}
	if _, err := o.builder.WriteContentListing(o.revision, current); err != nil {
		return report, err
	}
	o.logger.PhaseComplete("content", len(results))

	if err := ctx.Err(); err != nil {
		return report, canceled(err)
	}

	now := o.now().UTC()
	report.State = State{
		Date:    &now,
		Latest:  o.revision,
		Updates: append([]string{}, report.Updates...),
	}
	if err := SaveState(o.statePath, report.State); err != nil {
		return report, err
	}
	return report, nil
}

func (o *Orchestrator) updateJobs(d diff.Diff, prefix string) []executor.Job {
	jobs := make([]executor.Job, 0, len(Variants))
	for _, v := range Variants {
		v := v
		jobs = append(jobs, executor.Job{
			Phase: "update",
			Name:  archive.UpdateName(prefix, v),
			Run: func(ctx context.Context) (archive.Result, error) {
				return o.builder.BuildUpdate(ctx, o.root, d, prefix, v)
			},
		})
	}
	return jobs
}

func (o *Orchestrator) contentJobs() []executor.Job {
	jobs := make([]executor.Job, 0, len(Variants))
	for _, v := range Variants {
		v := v
		jobs = append(jobs, executor.Job{
			Phase: "content",
			Name:  archive.ContentName(o.revision, v),
			Run: func(ctx context.Context) (archive.Result, error) {
				return o.builder.BuildContent(ctx, o.root, o.revision, v)
			},
		})
	}
	return jobs
}

func (o *Orchestrator) collect(ctx context.Context, report *Report, results []executor.Result) error {
	if err := ctx.Err(); err != nil {
		return canceled(err)
	}
	if err := executor.FirstError(results); err != nil {
		return fmt.Errorf("failed to build archive: %w", err)
	}
	for _, r := range results {
		report.Archives = append(report.Archives, r.Archive)
	}
	return nil
}

func canceled(err error) error {
	return &domain.OpError{Op: "release.run", Kind: domain.KindCanceled, Err: err}
}
