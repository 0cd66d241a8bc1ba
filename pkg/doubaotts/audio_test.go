package doubaotts

import (
	"bytes"
	"testing"
)

func TestAudioAssembler_Concatenation(t *testing.T) {
	chunks := [][]byte{
		[]byte("B1"),
		{}, // zero-length chunks are legal
		[]byte("B2B2"),
		nil,
		[]byte("B3"),
	}

	var a audioAssembler
	for i, c := range chunks {
		if err := a.append(c); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	got := a.finalize()
	want := []byte("B1B2B2B3")
	if !bytes.Equal(got, want) {
		t.Errorf("finalized = %q, want %q", got, want)
	}
}

func TestAudioAssembler_FinalizeOnce(t *testing.T) {
	var a audioAssembler
	if err := a.append([]byte("x")); err != nil {
		t.Fatal(err)
	}

	if got := a.finalize(); string(got) != "x" {
		t.Errorf("first finalize = %q, want %q", got, "x")
	}
	if got := a.finalize(); got != nil {
		t.Errorf("second finalize = %q, want nil", got)
	}
	if err := a.append([]byte("y")); err == nil {
		t.Error("append after finalize should fail")
	}
}

func TestAudioAssembler_Empty(t *testing.T) {
	var a audioAssembler
	if !a.empty() {
		t.Error("fresh assembler should be empty")
	}

	// Zero-length chunks do not make the buffer non-empty.
	if err := a.append(nil); err != nil {
		t.Fatal(err)
	}
	if !a.empty() {
		t.Error("assembler with only zero-length chunks should be empty")
	}

	if err := a.append([]byte{0}); err != nil {
		t.Fatal(err)
	}
	if a.empty() {
		t.Error("assembler with bytes should not be empty")
	}
}
