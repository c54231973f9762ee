package metrics

// EpochTally accumulates per-batch loss values and accuracy fractions
// across one epoch over one data split.
type EpochTally struct {
	Loss    float64
	Acc     float64
	Batches int
}

// Add folds one batch into the tally. acc is the fraction of the batch
// predicted correctly, in [0,1], not a count.
func (t *EpochTally) Add(loss, acc float64) {
	t.Loss += loss
	t.Acc += acc
	t.Batches++
}

// MeanLoss is the per-batch average loss; 0 for an empty tally.
func (t *EpochTally) MeanLoss() float64 {
	if t.Batches == 0 {
		return 0
	}
	return t.Loss / float64(t.Batches)
}

// MeanAcc is the per-batch average accuracy; 0 for an empty tally.
func (t *EpochTally) MeanAcc() float64 {
	if t.Batches == 0 {
		return 0
	}
	return t.Acc / float64(t.Batches)
}
