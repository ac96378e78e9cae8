// Package secure zeroes key material once a submission is done with it.
package secure

import (
	"math/big"
	"runtime"
)

// Zeroize overwrites b with zeros.
func Zeroize(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(b)
}

// ZeroizeBig clears the limbs backing n and resets it to zero.
func ZeroizeBig(n *big.Int) {
	if n == nil {
		return
	}
	words := n.Bits()
	for i := range words {
		words[i] = 0
	}
	n.SetInt64(0)
	runtime.KeepAlive(words)
}
