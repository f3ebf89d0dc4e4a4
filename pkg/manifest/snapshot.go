package manifest

import (
	"context"
	"errors"

	"github.com/yuya-takeyama/differy/internal/domain"
	"github.com/yuya-takeyama/differy/internal/walker"
	"github.com/yuya-takeyama/differy/internal/worker"
)

// SnapshotOptions configures Snapshot.
type SnapshotOptions struct {
	Excludes    []string
	Concurrency int
	Stats       *worker.Stats // optional, receives hashing totals
}

// Snapshot hashes every regular file under root and returns the manifest
// sorted by path. Symlinks are not followed. Any file that cannot be read
// fails the whole snapshot.
func Snapshot(ctx context.Context, root string, opts SnapshotOptions) (Manifest, error) {
	w, err := walker.NewWalker(root, opts.Excludes)
	if err != nil {
		return nil, &domain.OpError{Op: "manifest.snapshot", Kind: domain.KindIO, Path: root, Err: err}
	}

	files, err := w.Walk(ctx)
	if err != nil {
		return nil, &domain.OpError{Op: "manifest.snapshot", Kind: snapshotKind(err), Path: root, Err: err}
	}

	results, err := worker.NewPool(opts.Concurrency).Execute(ctx, files)
	if err != nil {
		return nil, &domain.OpError{Op: "manifest.snapshot", Kind: snapshotKind(err), Path: root, Err: err}
	}

	if opts.Stats != nil {
		worker.UpdateStats(opts.Stats, results)
	}

	m := make(Manifest, 0, len(results))
	for _, r := range results {
		m = append(m, Entry{Hash: r.Hash, Path: r.File.RelPath})
	}
	return m.Sorted(), nil
}

func snapshotKind(err error) domain.ErrorKind {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return domain.KindCanceled
	}
	return domain.KindIO
}
