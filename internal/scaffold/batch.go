package scaffold

import (
	"context"

	"github.com/handiism/expstart/internal/model"
	"golang.org/x/sync/errgroup"
)

// BuildAll builds every request, at most limit at a time, and returns the
// reports in request order. A limit below one means one at a time.
//
// Requests that share a root are serialized by the Builder's Locker.
// Cancelling ctx stops requests that have not started yet; their report
// slots stay nil and ctx's error is returned.
func (b *Builder) BuildAll(ctx context.Context, reqs []model.Request, limit int) ([]*Report, error) {
	if limit < 1 {
		limit = 1
	}

	reports := make([]*Report, len(reqs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, req := range reqs {
		g.Go(func() error {
			report, err := b.Build(ctx, req)
			if err != nil {
				return err
			}
			reports[i] = report
			return nil
		})
	}

	return reports, g.Wait()
}
