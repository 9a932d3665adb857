// Package ensemble repeats the (draw, evaluate) unit of work over an ensemble of initial
// conditions.
//
// Frames are independent: each is drawn from its own PCG source seeded with (Seed, frame
// index), so a run is reproducible regardless of worker count or scheduling.
package ensemble

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/aristath/wigner/pkg/logger"
	"github.com/aristath/wigner/pkg/operators"
	"github.com/aristath/wigner/pkg/phasespace"
	"github.com/aristath/wigner/pkg/samplers"
)

// Options configures a Runner
type Options struct {
	NFrames int
	Workers int // 0 means DefaultWorkers()
	Seed    uint64

	// Engine is handed to the sampler when it has none of its own
	Engine phasespace.Engine
}

// Frame is one drawn initial condition and its importance weight
type Frame struct {
	Index    int
	Snapshot *phasespace.Snapshot
	Weight   float64
}

// Result of one ensemble run
type Result struct {
	RunID      string
	Frames     []Frame
	MeanWeight float64
	StdDev     float64
	StdErr     float64
	Elapsed    time.Duration
}

// Weights returns the frame weights in frame order
func (r *Result) Weights() []float64 {
	weights := make([]float64, len(r.Frames))
	for i, f := range r.Frames {
		weights[i] = f.Weight
	}
	return weights
}

// Runner draws frames from a sampler and weights them against an operator
type Runner struct {
	op      operators.Operator
	sampler samplers.Sampler
	opts    Options
	log     zerolog.Logger
}

// DefaultWorkers is the number of physical cores, or the logical CPU count when it
// cannot be determined
func DefaultWorkers() int {
	n, err := cpu.Counts(false)
	if err != nil || n < 1 {
		return runtime.NumCPU()
	}
	return n
}

// NewRunner validates opts and returns a runner. The sampler is usually op.DefaultSampler().
func NewRunner(op operators.Operator, sampler samplers.Sampler, opts Options, log zerolog.Logger) (*Runner, error) {
	if op == nil || sampler == nil {
		return nil, fmt.Errorf("%w: runner needs an operator and a sampler", phasespace.ErrUnimplemented)
	}
	if opts.NFrames < 1 {
		return nil, fmt.Errorf("invalid frame count %d: must be at least 1", opts.NFrames)
	}
	if opts.Workers < 0 {
		return nil, fmt.Errorf("invalid worker count %d", opts.Workers)
	}
	if opts.Workers == 0 {
		opts.Workers = DefaultWorkers()
	}

	return &Runner{
		op:      op,
		sampler: sampler,
		opts:    opts,
		log:     logger.ForComponent(log, "ensemble"),
	}, nil
}

// Options returns the effective options
func (r *Runner) Options() Options {
	return r.opts
}

// Run draws NFrames initial snapshots from the first snapshot of prev and weights each one.
// The sampler is prepared with NFrames and, when it has no engine, with Options.Engine.
// The first failing frame cancels the rest.
func (r *Runner) Run(ctx context.Context, prev phasespace.Trajectory) (*Result, error) {
	runID := uuid.New().String()
	log := r.log.With().Str("run_id", runID).Logger()
	start := time.Now()

	if _, err := r.sampler.Engine(); err != nil {
		r.sampler.Prepare(r.opts.NFrames, r.opts.Engine)
	} else {
		r.sampler.Prepare(r.opts.NFrames, nil)
	}

	log.Info().
		Int("n_frames", r.opts.NFrames).
		Int("workers", r.opts.Workers).
		Uint64("seed", r.opts.Seed).
		Msg("Starting ensemble run")

	base := prev.First()
	frames := make([]Frame, r.opts.NFrames)

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)

	for i := range frames {
		if gCtx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			frame, err := r.frame(base, i)
			if err != nil {
				return fmt.Errorf("frame %d: %w", i, err)
			}
			frames[i] = frame
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Ensemble run failed")
		return nil, fmt.Errorf("ensemble run %s failed: %w", runID, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("ensemble run %s cancelled: %w", runID, err)
	}

	result := &Result{RunID: runID, Frames: frames}
	weights := result.Weights()
	if len(weights) > 1 {
		result.MeanWeight, result.StdDev = stat.MeanStdDev(weights, nil)
		result.StdErr = result.StdDev / math.Sqrt(float64(len(weights)))
	} else {
		result.MeanWeight = weights[0]
	}
	result.Elapsed = time.Since(start)

	log.Info().
		Float64("mean_weight", result.MeanWeight).
		Float64("std_err", result.StdErr).
		Dur("elapsed", result.Elapsed).
		Msg("Ensemble run complete")

	return result, nil
}

func (r *Runner) frame(base *phasespace.Snapshot, index int) (Frame, error) {
	src := rand.NewPCG(r.opts.Seed, uint64(index))
	snap, err := r.sampler.GenerateInitialSnapshot(base, src)
	if err != nil {
		return Frame{}, fmt.Errorf("failed to draw snapshot: %w", err)
	}
	weight, err := r.op.Correction(snap, r.sampler)
	if err != nil {
		return Frame{}, fmt.Errorf("failed to weight snapshot: %w", err)
	}
	return Frame{Index: index, Snapshot: snap, Weight: weight}, nil
}
