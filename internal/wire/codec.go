// Package wire implements the binary routing-message format §6 exposes to
// remote consumers: a header followed by the delay matrix then the gain
// matrix, input-major. The magic values are part of the wire contract and
// must never change.
package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

const (
	// MagicRouting identifies a routing-matrix payload.
	MagicRouting uint32 = 0x57534652
	// MagicSpec identifies a construction-time specification header.
	MagicSpec uint32 = 0x57534649
)

// Header precedes the delay/gain matrices in a routing-message payload.
type Header struct {
	Magic      uint32
	NumInputs  uint32
	NumOutputs uint32
}

// SpecHeader describes the engine's construction-time capacity.
type SpecHeader struct {
	Magic                uint32
	NumInputs            uint32
	NumOutputs           uint32
	MaxSamplesPerChannel uint32
	MaxDelaySamples       uint32
}

// EncodeRouting serialises a routing matrix: header, then delays
// (input-major), then gains (input-major).
func EncodeRouting(numInputs, numOutputs int, delays, gains []float32) ([]byte, error) {
	n := numInputs * numOutputs
	if len(delays) != n || len(gains) != n {
		return nil, fmt.Errorf("wire: expected %d delay/gain values, got %d/%d", n, len(delays), len(gains))
	}

	buf := new(bytes.Buffer)
	hdr := Header{Magic: MagicRouting, NumInputs: uint32(numInputs), NumOutputs: uint32(numOutputs)}
	if err := binary.Write(buf, binary.LittleEndian, hdr); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.LittleEndian, delays); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.LittleEndian, gains); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeRouting parses a payload produced by EncodeRouting.
func DecodeRouting(data []byte) (numInputs, numOutputs int, delays, gains []float32, err error) {
	r := bytes.NewReader(data)

	var hdr Header
	if err = binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return
	}
	if hdr.Magic != MagicRouting {
		err = fmt.Errorf("wire: bad routing magic %#x", hdr.Magic)
		return
	}

	numInputs = int(hdr.NumInputs)
	numOutputs = int(hdr.NumOutputs)
	n := numInputs * numOutputs

	delays = make([]float32, n)
	if err = binary.Read(r, binary.LittleEndian, delays); err != nil {
		return
	}
	gains = make([]float32, n)
	if err = binary.Read(r, binary.LittleEndian, gains); err != nil {
		return
	}
	return
}

// EncodeSpec serialises a construction-time specification header.
func EncodeSpec(s SpecHeader) ([]byte, error) {
	s.Magic = MagicSpec
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeSpec parses a payload produced by EncodeSpec.
func DecodeSpec(data []byte) (SpecHeader, error) {
	var s SpecHeader
	r := bytes.NewReader(data)
	if err := binary.Read(r, binary.LittleEndian, &s); err != nil {
		return s, err
	}
	if s.Magic != MagicSpec {
		return s, fmt.Errorf("wire: bad spec magic %#x", s.Magic)
	}
	return s, nil
}
