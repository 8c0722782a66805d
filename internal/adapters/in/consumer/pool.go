package consumer

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Pool runs independent workers side by side, one goroutine each.
type Pool struct {
	workers []*Worker
}

func NewPool(workers ...*Worker) *Pool {
	return &Pool{workers: workers}
}

// Run blocks until every worker has returned.
func (p *Pool) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, w := range p.workers {
		g.Go(func() error {
			return w.Run(ctx)
		})
	}
	return g.Wait()
}

// Stop asks every worker to finish its current iteration and exit.
func (p *Pool) Stop() {
	for _, w := range p.workers {
		w.Stop()
	}
}
