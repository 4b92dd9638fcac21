package patronage

import (
	"math/big"
	"testing"
)

func TestSplitAmountFloorsFee(t *testing.T) {
	cases := []struct {
		name    string
		amount  int64
		rateBps uint32
		fee     int64
	}{
		{name: "typical rate", amount: 2_000_000, rateBps: 250, fee: 50_000},
		{name: "large payment", amount: 10_000_000, rateBps: 250, fee: 250_000},
		{name: "zero rate", amount: 1_000_000, rateBps: 0, fee: 0},
		{name: "cap rate", amount: 1_000_000, rateBps: FeeRateCapBps, fee: 100_000},
		{name: "floors toward zero", amount: 999, rateBps: 250, fee: 24},
		{name: "tiny amount rounds to zero fee", amount: 39, rateBps: 250, fee: 0},
		{name: "single unit", amount: 1, rateBps: 1000, fee: 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fee, net := SplitAmount(big.NewInt(tc.amount), tc.rateBps)
			if fee.Cmp(big.NewInt(tc.fee)) != 0 {
				t.Fatalf("unexpected fee: got %s want %d", fee, tc.fee)
			}
			sum := new(big.Int).Add(fee, net)
			if sum.Cmp(big.NewInt(tc.amount)) != 0 {
				t.Fatalf("fee+net must reconstruct the amount: %s + %s != %d", fee, net, tc.amount)
			}
		})
	}
}

func TestSplitAmountReconstructsAcrossRange(t *testing.T) {
	rates := []uint32{0, 1, 97, 250, 500, FeeRateCapBps}
	for amount := int64(0); amount <= 50_000; amount += 1_237 {
		for _, rate := range rates {
			fee, net := SplitAmount(big.NewInt(amount), rate)
			sum := new(big.Int).Add(fee, net)
			if sum.Cmp(big.NewInt(amount)) != 0 {
				t.Fatalf("amount %d rate %d: fee %s + net %s != amount", amount, rate, fee, net)
			}
			expected := amount * int64(rate) / 10_000
			if fee.Cmp(big.NewInt(expected)) != 0 {
				t.Fatalf("amount %d rate %d: fee %s, want %d", amount, rate, fee, expected)
			}
		}
	}
}

func TestSplitAmountDegenerateInputs(t *testing.T) {
	fee, net := SplitAmount(nil, 250)
	if fee.Sign() != 0 || net.Sign() != 0 {
		t.Fatalf("nil amount should split to zero: fee=%s net=%s", fee, net)
	}
	fee, net = SplitAmount(big.NewInt(-5), 250)
	if fee.Sign() != 0 || net.Sign() != 0 {
		t.Fatalf("negative amount should split to zero: fee=%s net=%s", fee, net)
	}
}
