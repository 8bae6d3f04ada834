package wire_test

import (
	"testing"

	"github.com/san-kum/wfsrender/internal/wire"
)

func TestEncodeDecodeRoutingRoundTrip(t *testing.T) {
	numInputs, numOutputs := 3, 4
	n := numInputs * numOutputs
	delays := make([]float32, n)
	gains := make([]float32, n)
	for i := 0; i < n; i++ {
		delays[i] = float32(i) * 0.001
		gains[i] = float32(i) * 0.1
	}

	payload, err := wire.EncodeRouting(numInputs, numOutputs, delays, gains)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	gotInputs, gotOutputs, gotDelays, gotGains, err := wire.DecodeRouting(payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if gotInputs != numInputs || gotOutputs != numOutputs {
		t.Fatalf("dimension mismatch: got (%d,%d) want (%d,%d)", gotInputs, gotOutputs, numInputs, numOutputs)
	}
	for i := range delays {
		if gotDelays[i] != delays[i] || gotGains[i] != gains[i] {
			t.Fatalf("value mismatch at %d: delay %v/%v gain %v/%v", i, gotDelays[i], delays[i], gotGains[i], gains[i])
		}
	}
}

func TestEncodeRoutingDimensionMismatch(t *testing.T) {
	_, err := wire.EncodeRouting(2, 2, make([]float32, 3), make([]float32, 4))
	if err == nil {
		t.Fatal("expected an error for mismatched delay/gain slice lengths")
	}
}

func TestDecodeRoutingBadMagic(t *testing.T) {
	bad := make([]byte, 12)
	if _, _, _, _, err := wire.DecodeRouting(bad); err == nil {
		t.Fatal("expected a bad-magic error")
	}
}

func TestEncodeDecodeSpecRoundTrip(t *testing.T) {
	spec := wire.SpecHeader{
		NumInputs:            8,
		NumOutputs:           16,
		MaxSamplesPerChannel: 512,
		MaxDelaySamples:      48000,
	}

	payload, err := wire.EncodeSpec(spec)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	got, err := wire.DecodeSpec(payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Magic != wire.MagicSpec {
		t.Fatalf("magic = %#x, want %#x", got.Magic, wire.MagicSpec)
	}
	if got.NumInputs != spec.NumInputs || got.NumOutputs != spec.NumOutputs ||
		got.MaxSamplesPerChannel != spec.MaxSamplesPerChannel || got.MaxDelaySamples != spec.MaxDelaySamples {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, spec)
	}
}

func TestDecodeSpecBadMagic(t *testing.T) {
	bad := make([]byte, 20)
	if _, err := wire.DecodeSpec(bad); err == nil {
		t.Fatal("expected a bad-magic error")
	}
}

func TestMagicValuesArePinned(t *testing.T) {
	if wire.MagicRouting != 0x57534652 {
		t.Fatalf("MagicRouting changed: %#x", wire.MagicRouting)
	}
	if wire.MagicSpec != 0x57534649 {
		t.Fatalf("MagicSpec changed: %#x", wire.MagicSpec)
	}
}
