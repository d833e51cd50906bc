// Package optindex searches over coordinate permutations for the one
// whose induced Hilbert curve minimizes the estimated cluster count
// (C5 OptimalIndex).
package optindex

import (
	"context"
	"math/big"
	"math/rand"
	"sort"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/therealutkarshpriyadarshi/slash/pkg/clustercounter"
	"github.com/therealutkarshpriyadarshi/slash/pkg/hilbert"
	"github.com/therealutkarshpriyadarshi/slash/pkg/observability"
	"github.com/therealutkarshpriyadarshi/slash/pkg/point"
)

// Params configures the permutation search.
type Params struct {
	MaxTrials                     int
	MaxIterationsWithoutImprovement int
	BitsPerDimension               int // 0 means auto-derive from data
	UseSample                      bool
	Workers                        int
	CounterParams                  clustercounter.Params
	ProgressLogInterval            time.Duration
}

// DefaultParams returns a standalone search budget. Its MaxTrials (200)
// and MaxIterationsWithoutImprovement (30) are larger than
// config.Default()'s index.budget values (20 and 5).
func DefaultParams() Params {
	return Params{
		MaxTrials:                       200,
		MaxIterationsWithoutImprovement: 30,
		BitsPerDimension:                0,
		UseSample:                       false,
		Workers:                         4,
		CounterParams:                   clustercounter.DefaultParams(),
		ProgressLogInterval:             500 * time.Millisecond,
	}
}

// Result is the winning permutation and the curve statistics it produced.
type Result struct {
	Permutation  hilbert.Permutation
	BitsPerDim   int
	DeltaSquared uint64
	ClusterCount int
	TrialsRun    int
	CurveOrder   []int // indices into the original points slice, in curve order
}

type trialOutcome struct {
	perm         hilbert.Permutation
	curveOrder   []int
	clusterCount int
	deltaSquared uint64
}

// Search runs the worker-pool permutation search over pts (with raw
// coordinates rows, one row per point in the same order). log may be nil.
func Search(ctx context.Context, pts []point.Point, rows [][]uint32, params Params, log *observability.Logger) (Result, error) {
	dim := len(rows[0])
	bitsPerDim := params.BitsPerDimension
	if bitsPerDim <= 0 {
		var maxCoord uint32
		for _, p := range pts {
			if m := p.MaxCoord(); m > maxCoord {
				maxCoord = m
			}
		}
		bitsPerDim = hilbert.BitsPerDim(maxCoord)
	}

	balancer := buildBalancer(rows, params.UseSample, bitsPerDim)

	rng := rand.New(rand.NewSource(1))
	limiter := rate.NewLimiter(rate.Every(params.ProgressLogInterval), 1)

	jobs := make(chan hilbert.Permutation)
	results := make(chan trialOutcome)

	workers := params.Workers
	if workers < 1 {
		workers = 1
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for perm := range jobs {
				outcome, err := runTrial(pts, rows, perm, balancer, dim, bitsPerDim, params.CounterParams)
				if err != nil {
					continue
				}
				results <- outcome
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	go func() {
		defer close(jobs)
		for i := 0; i < params.MaxTrials; i++ {
			select {
			case <-ctx.Done():
				return
			case jobs <- hilbert.Random(dim, rng):
			}
		}
	}()

	var best *trialOutcome
	trialsRun := 0
	noImprovement := 0
	for outcome := range results {
		o := outcome
		trialsRun++
		improved := best == nil || isBetter(o, *best)
		if improved {
			best = &o
			noImprovement = 0
		} else {
			noImprovement++
		}
		if log != nil && limiter.Allow() {
			log.Infof("optindex: trial %d/%d, best cluster count %d", trialsRun, params.MaxTrials, clusterCountOf(best))
		}
		if noImprovement >= params.MaxIterationsWithoutImprovement {
			break
		}
	}

	if best == nil {
		return Result{}, errNoTrials
	}
	return Result{
		Permutation:  best.perm,
		BitsPerDim:   bitsPerDim,
		DeltaSquared: best.deltaSquared,
		ClusterCount: best.clusterCount,
		TrialsRun:    trialsRun,
		CurveOrder:   best.curveOrder,
	}, nil
}

// isBetter implements the tie-break rule from spec §4.4: prefer fewer
// clusters, and among equal counts prefer the smaller Δ².
func isBetter(a, b trialOutcome) bool {
	if a.clusterCount != b.clusterCount {
		return a.clusterCount < b.clusterCount
	}
	return a.deltaSquared < b.deltaSquared
}

func clusterCountOf(o *trialOutcome) int {
	if o == nil {
		return -1
	}
	return o.clusterCount
}

func runTrial(pts []point.Point, rows [][]uint32, perm hilbert.Permutation, balancer *hilbert.Balancer, dim, bitsPerDim int, counterParams clustercounter.Params) (trialOutcome, error) {
	tr, err := hilbert.New(dim, bitsPerDim)
	if err != nil {
		return trialOutcome{}, err
	}

	type keyed struct {
		idx int
		key *big.Int
	}
	keys := make([]keyed, len(rows))
	for i, row := range rows {
		permuted := perm.Permuted(row)
		var forHilbert []uint32
		if balancer != nil {
			forHilbert = perm.Permuted(balancer.Balance(row))
		} else {
			forHilbert = permuted
		}
		idx, err := tr.Index(forHilbert)
		if err != nil {
			return trialOutcome{}, err
		}
		keys[i] = keyed{idx: i, key: idx}
	}
	sort.Slice(keys, func(a, b int) bool { return keys[a].key.Cmp(keys[b].key) < 0 })

	order := make([]int, len(keys))
	ordered := make([]point.Point, len(keys))
	for i, k := range keys {
		order[i] = k.idx
		ordered[i] = pts[k.idx]
	}

	counterResult, err := clustercounter.Count(ordered, counterParams)
	if err != nil {
		return trialOutcome{}, err
	}

	return trialOutcome{
		perm:         perm,
		curveOrder:   order,
		clusterCount: counterResult.ClusterCount,
		deltaSquared: counterResult.DeltaSquared,
	}, nil
}

func buildBalancer(rows [][]uint32, useSample bool, bitsPerDim int) *hilbert.Balancer {
	if len(rows) == 0 {
		return nil
	}
	if useSample {
		rng := rand.New(rand.NewSource(2))
		return hilbert.NewApproximateBalancer(rows, len(rows), bitsPerDim, rng)
	}
	return hilbert.NewExactBalancer(rows, bitsPerDim)
}

type searchError string

func (e searchError) Error() string { return string(e) }

const errNoTrials = searchError("optindex: no trial completed successfully")
