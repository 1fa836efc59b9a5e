package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ogulcanaydogan/fairness-check/internal/aggregate"
	"github.com/ogulcanaydogan/fairness-check/internal/fairness"
	"github.com/ogulcanaydogan/fairness-check/internal/gateway"
	"github.com/ogulcanaydogan/fairness-check/internal/verdict"
	"github.com/ogulcanaydogan/fairness-check/pkg/types"
)

var (
	ErrNoRows       = errors.New("dataset has no rows")
	ErrTotalFailure = errors.New("prediction failures exceed the tolerated rate")
	ErrInterrupted  = errors.New("evaluation interrupted")
)

const maxRecordedFailures = 20

type Options struct {
	Thresholds  types.Thresholds
	Concurrency int
	// MaxFailureRate is the highest tolerated share of failed rows. A run
	// where every row fails is always fatal.
	MaxFailureRate float64
	ProgressEvery  int
	Logger         logrus.FieldLogger
}

func DefaultOptions() Options {
	return Options{
		Thresholds:     types.DefaultThresholds(),
		Concurrency:    1,
		MaxFailureRate: 1.0,
		ProgressEvery:  10,
	}
}

type run struct {
	opts  Options
	log   logrus.FieldLogger
	total int
	agg   *aggregate.Aggregator

	mu            sync.Mutex
	completed     int
	failed        int
	abandoned     int
	failures      []types.RowFailure
	failedByGroup map[string]int
}

// Run scores every row through p, aggregates the successful predictions by
// sensitive group, and evaluates the fairness thresholds. Per-row failures
// are counted and excluded. When ctx is cancelled no further rows are
// dispatched; in-flight rows drain and, if anything was aggregated, the
// partial report is returned together with an ErrInterrupted error.
func Run(ctx context.Context, rows []types.DatasetRow, p gateway.Predictor, opts Options) (types.FairnessReport, error) {
	if len(rows) == 0 {
		return types.FairnessReport{}, ErrNoRows
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	r := &run{
		opts:          opts,
		log:           opts.Logger,
		total:         len(rows),
		agg:           aggregate.New(),
		failedByGroup: make(map[string]int),
	}
	if r.log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		r.log = l
	}

	g := new(errgroup.Group)
	g.SetLimit(opts.Concurrency)
	dispatched := 0
	for _, row := range rows {
		if ctx.Err() != nil {
			break
		}
		dispatched++
		row := row
		g.Go(func() error {
			r.score(ctx, p, row)
			return nil
		})
	}
	_ = g.Wait()

	skipped := len(rows) - dispatched + r.abandoned
	if skipped > 0 {
		if r.agg.Rows() == 0 {
			return types.FairnessReport{}, fmt.Errorf("%w before any row was scored: %w", ErrInterrupted, context.Cause(ctx))
		}
		rep, err := r.report(rows, skipped, false)
		if err != nil {
			return types.FairnessReport{}, err
		}
		return rep, fmt.Errorf("%w after %d of %d rows: %w", ErrInterrupted, rep.EvaluatedRows+rep.FailedRows, len(rows), context.Cause(ctx))
	}

	if r.failed == len(rows) {
		return types.FairnessReport{}, fmt.Errorf("%w: all %d rows failed, first error: %s", ErrTotalFailure, len(rows), r.firstFailure())
	}
	if rate := float64(r.failed) / float64(len(rows)); rate > opts.MaxFailureRate {
		return types.FairnessReport{}, fmt.Errorf("%w: %d of %d rows failed (%.2f > %.2f), first error: %s", ErrTotalFailure, r.failed, len(rows), rate, opts.MaxFailureRate, r.firstFailure())
	}
	return r.report(rows, 0, true)
}

func (r *run) score(ctx context.Context, p gateway.Predictor, row types.DatasetRow) {
	pred, err := p.Predict(ctx, row.Features)
	if err != nil {
		r.mu.Lock()
		defer r.mu.Unlock()
		if ctx.Err() != nil {
			r.abandoned++
			return
		}
		r.failed++
		r.failedByGroup[row.SensitiveGroup]++
		r.failures = append(r.failures, types.RowFailure{Row: row.Index, Message: err.Error()})
		r.log.WithFields(logrus.Fields{"row": row.Index, "group": row.SensitiveGroup}).WithError(err).Warn("prediction failed")
		return
	}

	r.agg.Add(types.PredictionRecord{
		TrueLabel:      row.TrueLabel,
		PredictedLabel: pred,
		SensitiveGroup: row.SensitiveGroup,
	})

	r.mu.Lock()
	r.completed++
	done := r.completed
	r.mu.Unlock()
	if every := r.opts.ProgressEvery; every > 0 && done%every == 0 {
		r.log.WithFields(logrus.Fields{"scored": done, "total": r.total}).Info("progress")
	}
}

func (r *run) report(rows []types.DatasetRow, skipped int, complete bool) (types.FairnessReport, error) {
	tallies, err := r.agg.Finalize()
	if err != nil {
		return types.FairnessReport{}, err
	}
	metrics, err := fairness.Compute(tallies)
	if err != nil {
		return types.FairnessReport{}, err
	}
	accuracy, err := fairness.Accuracy(tallies)
	if err != nil {
		return types.FairnessReport{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	failures := append([]types.RowFailure(nil), r.failures...)
	sort.Slice(failures, func(i, j int) bool { return failures[i].Row < failures[j].Row })
	if len(failures) > maxRecordedFailures {
		failures = failures[:maxRecordedFailures]
	}

	return verdict.Evaluate(verdict.Summary{
		TotalRows:     len(rows),
		EvaluatedRows: r.agg.Rows(),
		FailedRows:    r.failed,
		SkippedRows:   skipped,
		Complete:      complete,
		Accuracy:      accuracy,
		Metrics:       metrics,
		Groups:        r.groups(rows, tallies),
		Failures:      failures,
	}, r.opts.Thresholds), nil
}

// groups lists every group of the input, including those whose rows all
// failed. Callers hold r.mu.
func (r *run) groups(rows []types.DatasetRow, tallies map[string]types.GroupTally) []types.GroupSummary {
	byGroup := make(map[string]types.GroupSummary)
	for _, s := range fairness.Summaries(tallies) {
		byGroup[s.Group] = s
	}
	for _, row := range rows {
		if _, ok := byGroup[row.SensitiveGroup]; !ok {
			byGroup[row.SensitiveGroup] = types.GroupSummary{Group: row.SensitiveGroup}
		}
	}
	out := make([]types.GroupSummary, 0, len(byGroup))
	for g, s := range byGroup {
		s.Failed = r.failedByGroup[g]
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Group < out[j].Group })
	return out
}

func (r *run) firstFailure() string {
	if len(r.failures) == 0 {
		return "none recorded"
	}
	first := r.failures[0]
	for _, f := range r.failures[1:] {
		if f.Row < first.Row {
			first = f
		}
	}
	return fmt.Sprintf("row %d: %s", first.Row, first.Message)
}
