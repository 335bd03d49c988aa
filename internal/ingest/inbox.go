package ingest

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/finsight-dev/finsight/internal/importer"
)

// InboxItem is one inbox file after parsing. Exactly one of Preview and Err is set.
type InboxItem struct {
	File    importer.FileInfo
	Preview *Preview
	Err     error
}

// PrepareInbox parses every supported file in <root>/inbox/ concurrently.
// Items come back in file name order; per-file failures are reported on the
// item and do not stop the others.
func (p *Pipeline) PrepareInbox(ctx context.Context, root string) ([]InboxItem, error) {
	files, err := p.registry.Scan(root)
	if err != nil {
		return nil, err
	}

	items := make([]InboxItem, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(p.concurrency, 1))
	for i, f := range files {
		i, f := i, f
		items[i].File = f
		g.Go(func() error {
			pv, err := p.prepareFile(gctx, f)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				items[i].Err = err
				return nil
			}
			items[i].Preview = pv
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("preparing inbox: %w", err)
	}
	return items, nil
}

func (p *Pipeline) prepareFile(ctx context.Context, f importer.FileInfo) (*Preview, error) {
	fh, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", f.Name, err)
	}
	defer fh.Close()
	return p.Prepare(ctx, f.Name, fh)
}
