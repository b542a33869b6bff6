package address

import (
	"math/big"

	"github.com/blkindex/blkindex/pkg/util"
)

const base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

var base58Radix = big.NewInt(58)

// Base58Check encodes version ‖ payload with a four-byte double-SHA256
// checksum over the standard Bitcoin alphabet.
func Base58Check(version byte, payload []byte) string {
	data := make([]byte, 0, 1+len(payload)+4)
	data = append(data, version)
	data = append(data, payload...)
	checksum := util.DoubleSHA256(data)
	data = append(data, checksum[:4]...)
	return base58Encode(data)
}

func base58Encode(data []byte) string {
	n := new(big.Int).SetBytes(data)
	mod := new(big.Int)

	out := make([]byte, 0, len(data)*138/100+1)
	for n.Sign() > 0 {
		n.DivMod(n, base58Radix, mod)
		out = append(out, base58Alphabet[mod.Int64()])
	}

	// Leading zero bytes encode as '1'.
	for _, b := range data {
		if b != 0 {
			break
		}
		out = append(out, '1')
	}

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return string(out)
}
