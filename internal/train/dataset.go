// Package train implements the epoch-based training loop: dataset
// handling, mini-batching, validation splits and best-epoch tracking.
package train

import (
	"fmt"
	"math/rand"

	"github.com/propnet-ml/propnet/internal/nn"
	"github.com/propnet-ml/propnet/internal/tensor"
)

// Dataset pairs a batch of samples with their labels. Row i of the
// sample tensor belongs to row i of the label tensor.
type Dataset struct {
	samples *tensor.Tensor
	labels  *tensor.Tensor
}

// NewDataset creates a dataset from a sample tensor [N, ...] and a label
// tensor [N, ...] with matching batch dimension.
func NewDataset(samples, labels *tensor.Tensor) (*Dataset, error) {
	if len(samples.Shape()) < 2 || len(labels.Shape()) < 2 {
		return nil, fmt.Errorf("train: samples and labels need a batch dimension, got %v and %v: %w",
			samples.Shape(), labels.Shape(), nn.ErrInvalidShape)
	}
	if samples.Shape()[0] != labels.Shape()[0] {
		return nil, fmt.Errorf("train: %d samples but %d labels: %w",
			samples.Shape()[0], labels.Shape()[0], nn.ErrShapeMismatch)
	}
	return &Dataset{samples: samples, labels: labels}, nil
}

// Len returns the number of samples.
func (d *Dataset) Len() int { return d.samples.Shape()[0] }

// Samples returns the sample tensor.
func (d *Dataset) Samples() *tensor.Tensor { return d.samples }

// Labels returns the label tensor.
func (d *Dataset) Labels() *tensor.Tensor { return d.labels }

// SampleShape returns the shape of one sample, without the batch
// dimension.
func (d *Dataset) SampleShape() tensor.Shape { return d.samples.Shape().Sample() }

// LabelShape returns the shape of one label, without the batch dimension.
func (d *Dataset) LabelShape() tensor.Shape { return d.labels.Shape().Sample() }

// Shuffle permutes the samples in place, keeping each label with its
// sample.
func (d *Dataset) Shuffle(rng *rand.Rand) {
	perm := rng.Perm(d.Len())
	d.samples = gatherRows(d.samples, perm)
	d.labels = gatherRows(d.labels, perm)
}

// gatherRows reorders the leading dimension of t by the permutation.
func gatherRows(t *tensor.Tensor, perm []int) *tensor.Tensor {
	out := tensor.Zeros(t.Shape().Clone())
	rowLen := t.NumElements() / t.Shape()[0]
	src := t.Data()
	dst := out.Data()
	for i, p := range perm {
		copy(dst[i*rowLen:(i+1)*rowLen], src[p*rowLen:(p+1)*rowLen])
	}
	return out
}

// Slice returns the rows [start, end) as a new dataset. The data is
// copied.
func (d *Dataset) Slice(start, end int) *Dataset {
	return &Dataset{
		samples: d.samples.Rows(start, end),
		labels:  d.labels.Rows(start, end),
	}
}

// Split cuts off the last floor(N*frac) samples as a validation set and
// returns (training, validation). A fraction of zero returns the whole
// dataset as training and a nil validation set. Both returned datasets
// are independent of the receiver, so shuffling one does not reorder
// the other.
func (d *Dataset) Split(frac float64) (*Dataset, *Dataset) {
	n := int(float64(d.Len()) * frac)
	if n == 0 {
		return &Dataset{samples: d.samples, labels: d.labels}, nil
	}
	cut := d.Len() - n
	return d.Slice(0, cut), d.Slice(cut, d.Len())
}

// Batches calls fn for every consecutive mini-batch of at most size
// rows. The final batch may be smaller.
func (d *Dataset) Batches(size int, fn func(x, t *tensor.Tensor) error) error {
	for start := 0; start < d.Len(); start += size {
		end := min(start+size, d.Len())
		if err := fn(d.samples.Rows(start, end), d.labels.Rows(start, end)); err != nil {
			return err
		}
	}
	return nil
}

// OneHot encodes integer class labels as a [N, classes] tensor with a
// single one per row.
func OneHot(labels []int, classes int) (*tensor.Tensor, error) {
	if classes <= 0 {
		return nil, fmt.Errorf("train: one-hot needs a positive class count, got %d: %w",
			classes, nn.ErrInvalidShape)
	}
	out := tensor.Zeros(tensor.Shape{len(labels), classes})
	for i, l := range labels {
		if l < 0 || l >= classes {
			return nil, fmt.Errorf("train: label %d out of range [0, %d): %w",
				l, classes, nn.ErrInvalidShape)
		}
		out.Set(1, i, l)
	}
	return out, nil
}
