package patronage

import "math/big"

// FeeRateCapBps bounds the platform fee rate to 10% of the gross amount.
const FeeRateCapBps = 1000

// SplitAmount computes the platform fee and the net business amount for the
// supplied gross amount at the given basis-point rate. The fee is floored, so
// fee+net always reconstructs the gross amount exactly.
func SplitAmount(amount *big.Int, rateBps uint32) (fee *big.Int, net *big.Int) {
	fee = big.NewInt(0)
	if amount == nil || amount.Sign() <= 0 {
		return fee, big.NewInt(0)
	}
	net = new(big.Int).Set(amount)
	if rateBps == 0 {
		return fee, net
	}
	fee = new(big.Int).Mul(amount, big.NewInt(int64(rateBps)))
	fee = fee.Div(fee, big.NewInt(10_000))
	if fee.Sign() <= 0 {
		return big.NewInt(0), net
	}
	net = net.Sub(net, fee)
	return fee, net
}
