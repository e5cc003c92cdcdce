package field

import "math/big"

// IntToBytes returns the minimal big-endian encoding of a non-negative integer.
// Zero encodes as a single zero byte so the result is never empty.
func IntToBytes(x *big.Int) []byte {
	if x.Sign() == 0 {
		return []byte{0}
	}
	return x.Bytes()
}

// BytesToInt interprets b as a big-endian unsigned integer.
func BytesToInt(b []byte) *big.Int {
	return new(big.Int).SetBytes(b)
}
