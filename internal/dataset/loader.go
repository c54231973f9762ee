package dataset

import (
	"context"
	"errors"
	"math/rand"
	"sync"

	"gonum.org/v1/gonum/mat"

	"void-forge/internal/model"
)

// Loader yields one epoch of batches per Batches call: every example
// exactly once, in an order reshuffled per epoch.
type Loader interface {
	Batches(ctx context.Context) (<-chan model.Batch, <-chan error)
	Len() int
}

// BatchLoader decodes examples across a worker pool and assembles them
// into fixed-size batches; the final batch of an epoch may be short.
type BatchLoader struct {
	ds         *VoiceDataset
	batchSize  int
	numWorkers int
	rng        *rand.Rand
}

// NewBatchLoader constructs a loader with its own seeded shuffle rng.
func NewBatchLoader(ds *VoiceDataset, batchSize, numWorkers int, seed int64) (*BatchLoader, error) {
	if ds == nil {
		return nil, errors.New("loader: dataset is required")
	}
	if batchSize <= 0 {
		return nil, errors.New("loader: batch size must be > 0")
	}
	if numWorkers <= 0 {
		numWorkers = 1
	}
	return &BatchLoader{
		ds:         ds,
		batchSize:  batchSize,
		numWorkers: numWorkers,
		rng:        rand.New(rand.NewSource(seed)),
	}, nil
}

// Len returns the number of batches per epoch.
func (l *BatchLoader) Len() int {
	return (l.ds.Len() + l.batchSize - 1) / l.batchSize
}

type loadJob struct {
	pos   int // position in the shuffled epoch order
	index int // example index in the dataset
}

type loadResult struct {
	pos      int
	features []float64
	label    int
}

// Batches starts one epoch. The error channel carries the first failure;
// the batch channel closes when the epoch completes or aborts.
func (l *BatchLoader) Batches(parent context.Context) (<-chan model.Batch, <-chan error) {
	out := make(chan model.Batch, 1)
	errCh := make(chan error, 1)

	perm := l.rng.Perm(l.ds.Len())

	ctx, cancel := context.WithCancel(parent)
	jobs := make(chan loadJob, l.numWorkers)
	results := make(chan loadResult, l.numWorkers)

	go func() {
		defer close(jobs)
		for pos, index := range perm {
			select {
			case <-ctx.Done():
				return
			case jobs <- loadJob{pos: pos, index: index}:
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < l.numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				features, err := l.ds.load(job.index)
				if err != nil {
					select {
					case errCh <- err:
					default:
					}
					cancel()
					return
				}
				res := loadResult{pos: job.pos, features: features, label: l.ds.examples[job.index].label}
				select {
				case <-ctx.Done():
					return
				case results <- res:
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	go func() {
		defer cancel()
		defer close(out)
		l.assemble(ctx, results, out, errCh, len(perm))
	}()

	return out, errCh
}

// assemble restores the shuffled epoch order from out-of-order worker
// results and groups consecutive examples into batches.
func (l *BatchLoader) assemble(ctx context.Context, results <-chan loadResult, out chan<- model.Batch, errCh chan<- error, total int) {
	pending := make(map[int]loadResult)
	next := 0

	var features []float64
	var labels []int
	flush := func() bool {
		if len(labels) == 0 {
			return true
		}
		batch := model.Batch{
			Inputs: mat.NewDense(len(labels), l.ds.featureSize, features),
			Labels: labels,
		}
		features = nil
		labels = nil
		select {
		case <-ctx.Done():
			return false
		case out <- batch:
			return true
		}
	}

	for next < total {
		res, ok := pending[next]
		if !ok {
			select {
			case <-ctx.Done():
				return
			case r, open := <-results:
				if !open {
					// Workers stopped early; the cause is already on errCh.
					return
				}
				pending[r.pos] = r
			}
			continue
		}
		delete(pending, next)
		next++

		features = append(features, res.features...)
		labels = append(labels, res.label)
		if len(labels) == l.batchSize {
			if !flush() {
				return
			}
		}
	}
	flush()
}
