package stats

import (
	"context"
	"io"

	"github.com/verte-zerg/keyrush/internal/model"
)

// ResultReader is the read side of the result store.
type ResultReader interface {
	List(ctx context.Context, cfg model.StatsConfig) ([]model.Result, error)
	Aggregate(ctx context.Context, cfg model.StatsConfig) (model.Aggregate, error)
}

// Report contains precomputed data for stats rendering.
type Report struct {
	Results   []model.Result
	Aggregate model.Aggregate
}

// BuildReport loads filtered results, most recent first, and their aggregate.
func BuildReport(ctx context.Context, st ResultReader, cfg model.StatsConfig) (Report, error) {
	results, err := st.List(ctx, cfg)
	if err != nil {
		return Report{}, err
	}
	agg, err := st.Aggregate(ctx, cfg)
	if err != nil {
		return Report{}, err
	}
	return Report{Results: results, Aggregate: agg}, nil
}

// Render writes the summary followed by the trend charts.
func (r Report) Render(w io.Writer, window int) error {
	if err := RenderSummary(w, r.Aggregate, r.Results); err != nil {
		return err
	}
	return RenderCurves(w, r.Results, window)
}
