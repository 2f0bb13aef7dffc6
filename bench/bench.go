// Package bench runs several search strategies over the same positions and
// compares their answers and their effort.
package bench

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sort"
	"time"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gonum.org/v1/gonum/stat"
	"gopkg.in/yaml.v3"

	"github.com/domino14/gamesearch/move"
	"github.com/domino14/gamesearch/search"
)

var ErrDisagreement = errors.New("strategies disagree on the value of a position")

// Setup builds a fresh game for a position and returns the move that led
// to it. Every strategy gets its own game, so a Setup must not share
// mutable state between calls.
type Setup struct {
	Name string
	New  func(opts *search.Options) (search.Searchable, *move.Move, error)
}

type Result struct {
	Position        string        `yaml:"position"`
	Strategy        string        `yaml:"strategy"`
	Best            string        `yaml:"best"`
	Value           float64       `yaml:"value"`
	MovesConsidered int           `yaml:"moves_considered"`
	Elapsed         time.Duration `yaml:"elapsed"`
}

type Summary struct {
	Strategy    string  `yaml:"strategy"`
	Positions   int     `yaml:"positions"`
	TotalMoves  int     `yaml:"total_moves"`
	MeanMoves   float64 `yaml:"mean_moves"`
	StdDevMoves float64 `yaml:"stddev_moves"`

	samples []float64
}

type Report struct {
	LookAhead     int        `yaml:"lookahead"`
	AlphaBeta     bool       `yaml:"alpha_beta"`
	Quiescence    bool       `yaml:"quiescence"`
	Results       []Result   `yaml:"results"`
	Summaries     []*Summary `yaml:"summaries"`
	Disagreements []string   `yaml:"disagreements,omitempty"`
}

// Compare searches every position with every kind of strategy, all
// concurrently. The report is returned even when the strategies disagree;
// the error then wraps ErrDisagreement.
func Compare(ctx context.Context, setups []Setup, kinds []search.Kind, opts search.Options) (*Report, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	results := make([][]Result, len(setups))
	for i := range results {
		results[i] = make([]Result, len(kinds))
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for pi, setup := range setups {
		for ki, kind := range kinds {
			g.Go(func() error {
				o := opts
				o.Strategy = kind
				r, err := runOne(ctx, setup, o)
				if err != nil {
					return fmt.Errorf("%v with %v: %w", setup.Name, kind, err)
				}
				results[pi][ki] = r
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &Report{
		LookAhead:  opts.LookAhead,
		AlphaBeta:  opts.AlphaBeta,
		Quiescence: opts.Quiescence,
	}
	summaries := map[string]*Summary{}
	for pi, row := range results {
		report.Results = append(report.Results, row...)
		values := lo.Uniq(lo.Map(row, func(r Result, _ int) float64 { return r.Value }))
		if len(values) > 1 {
			report.Disagreements = append(report.Disagreements,
				fmt.Sprintf("%v: %v", setups[pi].Name, lo.Map(row, func(r Result, _ int) string {
					return fmt.Sprintf("%v=%v", r.Strategy, r.Value)
				})))
		}
		for _, r := range row {
			s, ok := summaries[r.Strategy]
			if !ok {
				s = &Summary{Strategy: r.Strategy}
				summaries[r.Strategy] = s
				report.Summaries = append(report.Summaries, s)
			}
			s.Positions++
			s.TotalMoves += r.MovesConsidered
			s.samples = append(s.samples, float64(r.MovesConsidered))
		}
	}
	for _, s := range report.Summaries {
		s.MeanMoves, s.StdDevMoves = stat.MeanStdDev(s.samples, nil)
	}
	sort.SliceStable(report.Summaries, func(i, j int) bool {
		return report.Summaries[i].TotalMoves < report.Summaries[j].TotalMoves
	})
	if len(report.Disagreements) > 0 {
		return report, fmt.Errorf("%w: %d positions", ErrDisagreement, len(report.Disagreements))
	}
	return report, nil
}

func runOne(ctx context.Context, setup Setup, opts search.Options) (Result, error) {
	game, lastMove, err := setup.New(&opts)
	if err != nil {
		return Result{}, err
	}
	s := search.NewStrategy(opts, game)
	tstart := time.Now()
	best := s.Search(ctx, lastMove, nil, opts.LookAhead, 0, -search.Infinity, search.Infinity, nil)
	if s.Interrupted() {
		return Result{}, ctx.Err()
	}
	r := Result{
		Position:        setup.Name,
		Strategy:        opts.Strategy.String(),
		Value:           lastMove.InheritedValue(),
		MovesConsidered: s.MovesConsidered(),
		Elapsed:         time.Since(tstart),
	}
	if best != nil {
		r.Best = best.ShortDescription()
	}
	log.Debug().
		Str("position", r.Position).
		Str("strategy", r.Strategy).
		Str("best", r.Best).
		Float64("value", r.Value).
		Int("moves-considered", r.MovesConsidered).
		Msg("bench-result")
	return r, nil
}

// Fprint writes a human-readable summary, with a histogram of the moves
// considered per position for each strategy.
func (r *Report) Fprint(w io.Writer) error {
	p := message.NewPrinter(language.English)
	p.Fprintf(w, "lookahead %d, alpha-beta %v, quiescence %v\n\n", r.LookAhead, r.AlphaBeta, r.Quiescence)
	p.Fprintf(w, "%-18s %10s %14s %12s %12s\n", "strategy", "positions", "total moves", "mean", "stddev")
	for _, s := range r.Summaries {
		p.Fprintf(w, "%-18s %10d %14d %12.1f %12.1f\n",
			s.Strategy, s.Positions, s.TotalMoves, s.MeanMoves, s.StdDevMoves)
	}
	for _, s := range r.Summaries {
		if len(s.samples) == 0 {
			continue
		}
		p.Fprintf(w, "\nmoves considered per position, %v:\n", s.Strategy)
		if err := histogram.Fprint(w, histogram.Hist(10, s.samples), histogram.Linear(40)); err != nil {
			return err
		}
	}
	for _, d := range r.Disagreements {
		p.Fprintf(w, "\nDISAGREEMENT %v\n", d)
	}
	return nil
}

// WriteYAML writes the full report.
func (r *Report) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(r)
}
