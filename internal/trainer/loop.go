package trainer

import (
	"context"
	"errors"
	"log"
	"time"

	"gonum.org/v1/gonum/mat"

	"void-forge/internal/dataset"
	"void-forge/internal/device"
	"void-forge/internal/metrics"
	"void-forge/internal/model"
	"void-forge/internal/nn"
)

const defaultLogEvery = 50

// RunOptions captures the collaborators and knobs for a training run.
type RunOptions struct {
	Net        model.Network
	Loss       nn.Loss
	Opt        nn.Optimizer
	Device     device.Device
	Train      dataset.Loader
	Validation dataset.Loader // optional
	Epochs     int
	Logger     metrics.Logger
	LogEvery   int
}

// Run executes the training workload: Epochs passes over the training
// split, each optionally followed by a validation pass. Failures from
// the model, loss, optimizer or data pipeline abort the run; the
// History built so far is returned alongside the error.
func Run(ctx context.Context, opts RunOptions) (History, error) {
	if opts.Epochs < 0 {
		return nil, errors.New("trainer: epochs must be >= 0")
	}
	if opts.Net == nil || opts.Loss == nil || opts.Opt == nil || opts.Train == nil {
		return nil, errors.New("trainer: net, loss, optimizer and training data are required")
	}
	if opts.Logger == nil {
		opts.Logger = metrics.NopLogger{}
	}
	if opts.LogEvery <= 0 {
		opts.LogEvery = defaultLogEvery
	}

	history := make(History, 0, opts.Epochs)
	for i := 0; i < opts.Epochs; i++ {
		log.Printf("epoch %d/%d", i+1, opts.Epochs)

		sumLoss, sumAcc, err := trainEpoch(ctx, opts.Net, opts.Train, opts.Loss, opts.Opt, opts.Device, opts.LogEvery)
		if err != nil {
			return history, err
		}
		batches := float64(opts.Train.Len())
		if batches == 0 {
			batches = 1
		}
		entry := Epoch{TrainLoss: sumLoss / batches, TrainAcc: sumAcc / batches}
		opts.Logger.Log(map[string]float64{
			"training_loss": entry.TrainLoss,
			"training_acc":  entry.TrainAcc,
		})
		log.Printf("training loss=%.4f acc=%.4f", entry.TrainLoss, entry.TrainAcc)

		if opts.Validation != nil {
			vLoss, vAcc, err := ValidateEpoch(ctx, opts.Net, opts.Validation, opts.Loss, opts.Device)
			if err != nil {
				return history, err
			}
			vBatches := float64(opts.Validation.Len())
			if vBatches == 0 {
				vBatches = 1
			}
			entry.Validation = &Score{Loss: vLoss / vBatches, Acc: vAcc / vBatches}
			opts.Logger.Log(map[string]float64{
				"testing_loss": entry.Validation.Loss,
				"testing_acc":  entry.Validation.Acc,
			})
			log.Printf("testing loss=%.4f acc=%.4f", entry.Validation.Loss, entry.Validation.Acc)
		}

		history = append(history, entry)
	}
	return history, nil
}

// TrainEpoch runs one pass over the training split: forward, loss,
// backward, optimizer step per batch. It returns the sums of per-batch
// loss values and accuracy fractions; callers normalize by batch count.
func TrainEpoch(ctx context.Context, net model.Network, train dataset.Loader, lossFn nn.Loss, opt nn.Optimizer, dev device.Device) (float64, float64, error) {
	return trainEpoch(ctx, net, train, lossFn, opt, dev, defaultLogEvery)
}

func trainEpoch(ctx context.Context, net model.Network, train dataset.Loader, lossFn nn.Loss, opt nn.Optimizer, dev device.Device, logEvery int) (float64, float64, error) {
	batches, errs := train.Batches(ctx)

	var tally metrics.EpochTally
	var window metrics.Window
	for {
		startData := time.Now()
		select {
		case <-ctx.Done():
			return tally.Loss, tally.Acc, ctx.Err()
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if err != nil {
				return tally.Loss, tally.Acc, err
			}
		case batch, ok := <-batches:
			if !ok {
				if err := drainErr(errs); err != nil {
					return tally.Loss, tally.Acc, err
				}
				return tally.Loss, tally.Acc, nil
			}
			dataTime := time.Since(startData)

			startCompute := time.Now()
			batch = dev.Place(batch)
			logits := net.Forward(batch.Inputs, model.Train)
			lossVal := lossFn.Forward(logits, batch.Labels)

			nn.ZeroGrad(net.Parameters())
			if err := net.Backward(lossFn.Backward(logits, batch.Labels)); err != nil {
				return tally.Loss, tally.Acc, err
			}
			opt.Step(net.Parameters())
			computeTime := time.Since(startCompute)

			tally.Add(lossVal, batchAccuracy(logits, batch.Labels))
			window.Record(batch.Size(), dataTime, computeTime, lossVal)
			if tally.Batches%logEvery == 0 {
				snap := window.Snapshot()
				log.Printf("batch=%d examples_per_sec=%.1f data_ms=%.2f compute_ms=%.2f loss=%.4f",
					tally.Batches,
					snap.ExamplesPerSec,
					snap.AvgDataMS,
					snap.AvgComputeMS,
					snap.LastLoss,
				)
			}
		}
	}
}

// ValidateEpoch runs one pass over a held-out split with the network in
// evaluation mode. No gradients are computed and no parameter is
// mutated; an eval-mode forward records nothing for Backward to use.
func ValidateEpoch(ctx context.Context, net model.Network, eval dataset.Loader, lossFn nn.Loss, dev device.Device) (float64, float64, error) {
	batches, errs := eval.Batches(ctx)

	var tally metrics.EpochTally
	for {
		select {
		case <-ctx.Done():
			return tally.Loss, tally.Acc, ctx.Err()
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if err != nil {
				return tally.Loss, tally.Acc, err
			}
		case batch, ok := <-batches:
			if !ok {
				if err := drainErr(errs); err != nil {
					return tally.Loss, tally.Acc, err
				}
				return tally.Loss, tally.Acc, nil
			}
			batch = dev.Place(batch)
			logits := net.Forward(batch.Inputs, model.Eval)
			tally.Add(lossFn.Forward(logits, batch.Labels), batchAccuracy(logits, batch.Labels))
		}
	}
}

// batchAccuracy returns the fraction of rows whose argmax matches the
// label, in [0,1].
func batchAccuracy(logits *mat.Dense, labels []int) float64 {
	if len(labels) == 0 {
		return 0
	}
	correct := 0
	rows, cols := logits.Dims()
	for i := 0; i < rows && i < len(labels); i++ {
		best := 0
		bestVal := logits.At(i, 0)
		for c := 1; c < cols; c++ {
			if v := logits.At(i, c); v > bestVal {
				bestVal = v
				best = c
			}
		}
		if best == labels[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(labels))
}

// drainErr collects a pending pipeline error after the batch channel
// closed, without blocking on an already-drained channel.
func drainErr(errs <-chan error) error {
	if errs == nil {
		return nil
	}
	select {
	case err, ok := <-errs:
		if ok {
			return err
		}
	default:
	}
	return nil
}
