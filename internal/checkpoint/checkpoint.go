// Package checkpoint persists network parameters in a small binary
// format:
//
//	[4 bytes: Magic "PNET"]
//	[4 bytes: Version (uint32 LE)]
//	[8 bytes: Header size (uint64 LE)]
//	[Header: JSON layer metadata]
//	[32 bytes: SHA-256 of the data section]
//	[Data: raw float64 values, little endian]
//
// The data section holds every layer's weight then bias, in layer order,
// with parameter-free layers contributing nothing.
package checkpoint

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/propnet-ml/propnet/internal/nn"
	"github.com/propnet-ml/propnet/internal/tensor"
)

// Format constants.
const (
	MagicBytes    = "PNET"
	FormatVersion = 1
	checksumSize  = 32
	maxHeaderSize = 1 << 20
)

// header is the JSON metadata between the fixed prefix and the data
// section.
type header struct {
	Layers []layerMeta `json:"layers"`
}

// layerMeta records one layer's parameter shapes. Both shapes are nil
// for parameter-free layers.
type layerMeta struct {
	WeightShape []int `json:"weightShape,omitempty"`
	BiasShape   []int `json:"biasShape,omitempty"`
}

// Save writes the parameters to a file.
func Save(path string, params []nn.LayerParams) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("checkpoint: create %s: %w", path, err)
	}
	defer f.Close()
	if err := Write(f, params); err != nil {
		return err
	}
	return f.Close()
}

// Load reads parameters from a file.
func Load(path string) ([]nn.LayerParams, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}

// Write encodes the parameters to w.
func Write(w io.Writer, params []nn.LayerParams) error {
	hdr := header{Layers: make([]layerMeta, len(params))}
	var data bytes.Buffer
	for i, p := range params {
		if p.Weight == nil {
			continue
		}
		hdr.Layers[i] = layerMeta{
			WeightShape: []int(p.Weight.Shape()),
			BiasShape:   []int(p.Bias.Shape()),
		}
		writeFloats(&data, p.Weight.Data())
		writeFloats(&data, p.Bias.Data())
	}

	headerJSON, err := json.Marshal(hdr)
	if err != nil {
		return fmt.Errorf("checkpoint: marshal header: %w", err)
	}

	if _, err := io.WriteString(w, MagicBytes); err != nil {
		return fmt.Errorf("checkpoint: write magic bytes: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(FormatVersion)); err != nil {
		return fmt.Errorf("checkpoint: write version: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint64(len(headerJSON))); err != nil {
		return fmt.Errorf("checkpoint: write header size: %w", err)
	}
	if _, err := w.Write(headerJSON); err != nil {
		return fmt.Errorf("checkpoint: write header: %w", err)
	}
	sum := sha256.Sum256(data.Bytes())
	if _, err := w.Write(sum[:]); err != nil {
		return fmt.Errorf("checkpoint: write checksum: %w", err)
	}
	if _, err := w.Write(data.Bytes()); err != nil {
		return fmt.Errorf("checkpoint: write data: %w", err)
	}
	return nil
}

// Read decodes parameters from r, verifying the checksum of the data
// section.
func Read(r io.Reader) ([]nn.LayerParams, error) {
	magic := make([]byte, len(MagicBytes))
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, fmt.Errorf("checkpoint: read magic bytes: %w", err)
	}
	if string(magic) != MagicBytes {
		return nil, fmt.Errorf("checkpoint: got %q: %w", magic, ErrInvalidMagic)
	}

	var version uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, fmt.Errorf("checkpoint: read version: %w", err)
	}
	if version != FormatVersion {
		return nil, fmt.Errorf("checkpoint: version %d: %w", version, ErrUnsupportedVersion)
	}

	var headerSize uint64
	if err := binary.Read(r, binary.LittleEndian, &headerSize); err != nil {
		return nil, fmt.Errorf("checkpoint: read header size: %w", err)
	}
	if headerSize > maxHeaderSize {
		return nil, fmt.Errorf("checkpoint: header of %d bytes: %w", headerSize, ErrCorruptHeader)
	}

	headerJSON := make([]byte, headerSize)
	if _, err := io.ReadFull(r, headerJSON); err != nil {
		return nil, fmt.Errorf("checkpoint: read header: %w", err)
	}
	var hdr header
	if err := json.Unmarshal(headerJSON, &hdr); err != nil {
		return nil, fmt.Errorf("checkpoint: decode header: %w", err)
	}

	var stored [checksumSize]byte
	if _, err := io.ReadFull(r, stored[:]); err != nil {
		return nil, fmt.Errorf("checkpoint: read checksum: %w", err)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: read data: %w", err)
	}
	if sha256.Sum256(data) != stored {
		return nil, fmt.Errorf("checkpoint: %w", ErrChecksumMismatch)
	}

	params := make([]nn.LayerParams, len(hdr.Layers))
	offset := 0
	for i, meta := range hdr.Layers {
		if meta.WeightShape == nil {
			continue
		}
		weight, n, err := readTensor(data[offset:], meta.WeightShape)
		if err != nil {
			return nil, fmt.Errorf("checkpoint: layer %d weight: %w", i, err)
		}
		offset += n
		bias, n, err := readTensor(data[offset:], meta.BiasShape)
		if err != nil {
			return nil, fmt.Errorf("checkpoint: layer %d bias: %w", i, err)
		}
		offset += n
		params[i] = nn.LayerParams{Weight: weight, Bias: bias}
	}
	if offset != len(data) {
		return nil, fmt.Errorf("checkpoint: %d trailing data bytes: %w",
			len(data)-offset, ErrCorruptHeader)
	}
	return params, nil
}

func writeFloats(buf *bytes.Buffer, vals []float64) {
	b := make([]byte, 8)
	for _, v := range vals {
		binary.LittleEndian.PutUint64(b, math.Float64bits(v))
		buf.Write(b)
	}
}

// readTensor decodes one tensor from the front of data, returning it and
// the number of bytes consumed.
func readTensor(data []byte, shape []int) (*tensor.Tensor, int, error) {
	s := tensor.Shape(shape)
	if err := s.Validate(); err != nil {
		return nil, 0, fmt.Errorf("shape %v: %w", shape, ErrCorruptHeader)
	}
	n := s.NumElements() * 8
	if len(data) < n {
		return nil, 0, fmt.Errorf("need %d bytes, have %d: %w", n, len(data), ErrCorruptHeader)
	}
	vals := make([]float64, s.NumElements())
	for i := range vals {
		vals[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[i*8:]))
	}
	t, err := tensor.FromSlice(vals, s)
	if err != nil {
		return nil, 0, err
	}
	return t, n, nil
}
