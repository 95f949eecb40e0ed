package audio

import (
	"math"
	"testing"
)

func TestRMSOfEmptyBlockIsZero(t *testing.T) {
	t.Parallel()

	if got := RMS(nil); got != 0 {
		t.Fatalf("RMS(nil) = %v", got)
	}
	if got := RMSInt16(nil); got != 0 {
		t.Fatalf("RMSInt16(nil) = %v", got)
	}
	// A single trailing odd byte carries no sample.
	if got := RMS([]byte{0x7f}); got != 0 {
		t.Fatalf("RMS(odd byte) = %v", got)
	}
}

func TestRMSOfSquareWave(t *testing.T) {
	t.Parallel()

	samples := make([]int16, 160)
	for i := range samples {
		samples[i] = 16384 // half scale
	}
	got := RMSInt16(samples)
	if math.Abs(float64(got)-0.5) > 1e-4 {
		t.Fatalf("RMSInt16(half-scale square) = %v, want 0.5", got)
	}
}

func TestRMSBytesMatchesInt16(t *testing.T) {
	t.Parallel()

	samples := []int16{0, 1000, -1000, 32767, -32768, 123}
	a := RMSInt16(samples)
	b := RMS(int16ToBytes(samples))
	if math.Abs(float64(a-b)) > 1e-6 {
		t.Fatalf("byte and int16 paths disagree: %v vs %v", a, b)
	}
}

func TestRMSSilenceIsQuiet(t *testing.T) {
	t.Parallel()

	if got := RMSInt16(make([]int16, 1600)); got != 0 {
		t.Fatalf("RMS of digital silence = %v, want 0", got)
	}
}

func TestVADGateRejectsInvalidArguments(t *testing.T) {
	t.Parallel()

	if _, err := NewVADGate(0, 44100); err == nil {
		t.Fatalf("unsupported sample rate should fail")
	}
	if _, err := NewVADGate(4, 16000); err == nil {
		t.Fatalf("mode above 3 should fail")
	}
	if _, err := NewVADGate(-1, 16000); err == nil {
		t.Fatalf("negative mode should fail")
	}
}
