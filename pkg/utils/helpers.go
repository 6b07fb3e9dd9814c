package utils

import (
	"fmt"
	"math/big"
)

// EncodeEvenHex renders a non-negative integer as 0x-prefixed lowercase hex padded to an
// even number of digits ("0x00", "0x0a", "0x0100"). This is the field encoding of the
// checkpoint store, shared with files produced by earlier tooling.
func EncodeEvenHex(n *big.Int) string {
	s := fmt.Sprintf("%x", n)
	if len(s)%2 == 1 {
		s = "0" + s
	}
	return "0x" + s
}
