package poseidon

import (
	"math/big"
	"testing"
)

func TestConvertBaseRoundTrip(t *testing.T) {
	original := []*big.Int{big.NewInt(200), big.NewInt(37), big.NewInt(255), big.NewInt(1)}

	packed, err := ConvertBase(original, 8, 248)
	if err != nil {
		t.Fatalf("ConvertBase(8->248) error = %v", err)
	}
	back, err := ConvertBase(packed, 248, 8)
	if err != nil {
		t.Fatalf("ConvertBase(248->8) error = %v", err)
	}
	if len(back) < len(original) {
		t.Fatalf("round trip truncated: got %d digits, want at least %d", len(back), len(original))
	}
	for i, want := range original {
		if back[i].Cmp(want) != 0 {
			t.Errorf("digit %d = %s, want %s", i, back[i], want)
		}
	}
	for i := len(original); i < len(back); i++ {
		if back[i].Sign() != 0 {
			t.Errorf("expected zero padding at digit %d, got %s", i, back[i])
		}
	}
}

func TestConvertBaseOutputLength(t *testing.T) {
	in := make([]*big.Int, 16)
	for i := range in {
		in[i] = big.NewInt(0)
	}
	out, err := ConvertBase(in, 8, 248)
	if err != nil {
		t.Fatalf("ConvertBase() error = %v", err)
	}
	wantLen := (16*8 + 247) / 248
	if len(out) != wantLen {
		t.Errorf("len(out) = %d, want %d", len(out), wantLen)
	}
}

func TestConvertBaseRSALimbs(t *testing.T) {
	// 64-bit limb -> 248-bit field pack, the second direction the builder uses.
	limbs := []*big.Int{big.NewInt(1), big.NewInt(2), big.NewInt(3)}
	out, err := ConvertBase(limbs, 64, 248)
	if err != nil {
		t.Fatalf("ConvertBase(64->248) error = %v", err)
	}
	wantLen := (3*64 + 247) / 248
	if len(out) != wantLen {
		t.Errorf("len(out) = %d, want %d", len(out), wantLen)
	}
}

func TestConvertBaseInvalidWidth(t *testing.T) {
	if _, err := ConvertBase([]*big.Int{big.NewInt(1)}, 0, 8); err != ErrInvalidBase {
		t.Errorf("expected ErrInvalidBase, got %v", err)
	}
	if _, err := ConvertBase([]*big.Int{big.NewInt(1)}, 8, 0); err != ErrInvalidBase {
		t.Errorf("expected ErrInvalidBase, got %v", err)
	}
}

func TestConvertBaseEmptyInput(t *testing.T) {
	out, err := ConvertBase(nil, 8, 248)
	if err != nil {
		t.Fatalf("ConvertBase(nil) error = %v", err)
	}
	if len(out) != 0 {
		t.Errorf("expected empty output, got %d elements", len(out))
	}
}
