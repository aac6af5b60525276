package train

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/propnet-ml/propnet/internal/nn"
	"github.com/propnet-ml/propnet/internal/optim"
	"github.com/propnet-ml/propnet/internal/tensor"
)

// History records per-epoch metrics of one Fit call. Slices are indexed
// by epoch, starting at zero. The validation slices stay all-zero when
// training runs without a validation split.
type History struct {
	TrainLoss     []float64
	TrainAccuracy []float64
	ValLoss       []float64
	ValAccuracy   []float64

	// BestEpoch is the zero-based epoch whose parameters the network
	// holds after Fit returns: the epoch with the highest validation
	// accuracy, or highest training accuracy when no validation split
	// was configured. Ties keep the earliest epoch.
	BestEpoch int
}

// Trainer drives mini-batch training of a network with an optimizer.
type Trainer struct {
	net *nn.Network
	opt optim.Optimizer
	cfg Config
}

// NewTrainer validates the configuration and builds a trainer.
func NewTrainer(net *nn.Network, opt optim.Optimizer, cfg Config) (*Trainer, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Trainer{net: net, opt: opt, cfg: cfg}, nil
}

// Fit trains the network for the configured number of epochs and leaves
// it holding the parameters of the best epoch.
//
// The optimizer is cleared first, so a trainer can be reused for
// independent runs. When a validation split is configured the tail of
// the dataset is held out and never trained on; shuffling, when enabled,
// reorders only the training portion between epochs.
func (t *Trainer) Fit(ds *Dataset) (*History, error) {
	if ds.Len() == 0 {
		return nil, fmt.Errorf("train: empty dataset: %w", nn.ErrInvalidShape)
	}
	t.opt.Clear()
	rng := rand.New(rand.NewSource(t.cfg.Seed))

	trainSet, valSet := ds.Split(t.cfg.ValidationSplit)
	if trainSet.Len() == 0 {
		return nil, fmt.Errorf("train: validation split %g leaves no training samples: %w",
			t.cfg.ValidationSplit, optim.ErrInvalidHyperparameter)
	}

	hist := &History{
		TrainLoss:     make([]float64, 0, t.cfg.Epochs),
		TrainAccuracy: make([]float64, 0, t.cfg.Epochs),
		ValLoss:       make([]float64, 0, t.cfg.Epochs),
		ValAccuracy:   make([]float64, 0, t.cfg.Epochs),
	}

	var bestParams []nn.LayerParams
	bestScore := math.Inf(-1)

	for epoch := 0; epoch < t.cfg.Epochs; epoch++ {
		if t.cfg.Shuffle {
			trainSet.Shuffle(rng)
		}
		err := trainSet.Batches(t.cfg.BatchSize, func(x, target *tensor.Tensor) error {
			t.net.Forward(x)
			grads := t.net.Backpropagate(x, target)
			for i, d := range t.opt.Deltas(grads, x.Shape()[0]) {
				if d.Weight == nil {
					continue
				}
				t.net.Layer(i).UpdateParameters(d.Weight, d.Bias)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}

		trainLoss, trainAcc := t.evaluate(trainSet)
		hist.TrainLoss = append(hist.TrainLoss, trainLoss)
		hist.TrainAccuracy = append(hist.TrainAccuracy, trainAcc)

		score := trainAcc
		var valLoss, valAcc float64
		if valSet != nil {
			valLoss, valAcc = t.evaluate(valSet)
			score = valAcc
		}
		hist.ValLoss = append(hist.ValLoss, valLoss)
		hist.ValAccuracy = append(hist.ValAccuracy, valAcc)

		if score > bestScore {
			bestScore = score
			hist.BestEpoch = epoch
			bestParams = t.net.Snapshot()
		}

		if t.cfg.LogEvery > 0 && (epoch+1)%t.cfg.LogEvery == 0 {
			fmt.Printf("epoch %d/%d  loss=%.6f acc=%.4f  val_loss=%.6f val_acc=%.4f\n",
				epoch+1, t.cfg.Epochs, trainLoss, trainAcc, valLoss, valAcc)
		}
	}

	if err := t.net.Restore(bestParams); err != nil {
		return nil, err
	}
	return hist, nil
}

// evaluate computes the mean per-sample loss and the accuracy on a
// dataset, without touching the layer caches.
func (t *Trainer) evaluate(ds *Dataset) (loss, acc float64) {
	pred := t.net.Predict(ds.Samples())
	loss = t.net.ErrorFunc().Loss(pred, ds.Labels()) / float64(ds.Len())
	return loss, Accuracy(pred, ds.Labels())
}

// Accuracy compares predictions against labels row by row. Single-column
// labels are matched by rounding the prediction; wider labels by the
// position of the row maximum.
func Accuracy(pred, labels *tensor.Tensor) float64 {
	n := labels.Shape()[0]
	if n == 0 {
		return 0
	}
	hits := 0
	if labels.Shape()[1] == 1 {
		p, l := pred.Data(), labels.Data()
		for i := 0; i < n; i++ {
			if math.Round(p[i]) == l[i] {
				hits++
			}
		}
	} else {
		p, l := pred.ArgMaxRows(), labels.ArgMaxRows()
		for i := 0; i < n; i++ {
			if p[i] == l[i] {
				hits++
			}
		}
	}
	return float64(hits) / float64(n)
}
