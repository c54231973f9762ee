package trainer

// Score is one split's averaged metrics for a single epoch.
type Score struct {
	Loss float64
	Acc  float64
}

// Epoch is one row of the run history. Validation is nil when no
// validation split was supplied for the run.
type Epoch struct {
	TrainLoss float64
	TrainAcc  float64

	Validation *Score
}

// History is the per-epoch record of a run, in epoch order.
type History []Epoch
