package address

import "fmt"

// BIP-173 bech32 encoding for v0 witness programs.

const bech32Charset = "qpzry9x8gf2tvdw0s3jn54khce6mua7l"

var bech32Generator = [5]uint32{0x3b6a57b2, 0x26508e6d, 0x1ea119fa, 0x3d4233dd, 0x2a1462b3}

// EncodeSegWit encodes a witness version and program as a bech32 address.
func EncodeSegWit(hrp string, witVer byte, program []byte) (string, error) {
	if witVer > 16 {
		return "", fmt.Errorf("invalid witness version %d", witVer)
	}
	converted, err := convertBits(program, 8, 5, true)
	if err != nil {
		return "", err
	}

	data := make([]byte, 0, 1+len(converted)+6)
	data = append(data, witVer)
	data = append(data, converted...)
	data = append(data, bech32Checksum(hrp, data)...)

	out := make([]byte, 0, len(hrp)+1+len(data))
	out = append(out, hrp...)
	out = append(out, '1')
	for _, d := range data {
		out = append(out, bech32Charset[d])
	}
	return string(out), nil
}

func bech32HRPExpand(hrp string) []byte {
	out := make([]byte, 0, len(hrp)*2+1)
	for i := 0; i < len(hrp); i++ {
		out = append(out, hrp[i]>>5)
	}
	out = append(out, 0)
	for i := 0; i < len(hrp); i++ {
		out = append(out, hrp[i]&31)
	}
	return out
}

func bech32Polymod(values []byte) uint32 {
	chk := uint32(1)
	for _, v := range values {
		top := chk >> 25
		chk = (chk&0x1ffffff)<<5 ^ uint32(v)
		for i := 0; i < 5; i++ {
			if (top>>uint(i))&1 == 1 {
				chk ^= bech32Generator[i]
			}
		}
	}
	return chk
}

func bech32Checksum(hrp string, data []byte) []byte {
	values := append(bech32HRPExpand(hrp), data...)
	values = append(values, 0, 0, 0, 0, 0, 0)
	polymod := bech32Polymod(values) ^ 1
	out := make([]byte, 6)
	for i := 0; i < 6; i++ {
		out[i] = byte(polymod >> uint(5*(5-i)) & 31)
	}
	return out
}

// convertBits regroups data between bit widths, padding the tail when
// requested.
func convertBits(data []byte, fromBits, toBits uint, pad bool) ([]byte, error) {
	var acc, bits uint32
	maxv := uint32(1)<<toBits - 1
	out := make([]byte, 0, (len(data)*int(fromBits)+int(toBits)-1)/int(toBits))

	for _, v := range data {
		if uint32(v)>>fromBits != 0 {
			return nil, fmt.Errorf("value %d exceeds %d bits", v, fromBits)
		}
		acc = acc<<fromBits | uint32(v)
		bits += uint32(fromBits)
		for bits >= uint32(toBits) {
			bits -= uint32(toBits)
			out = append(out, byte(acc>>bits&maxv))
		}
	}

	if pad {
		if bits > 0 {
			out = append(out, byte(acc<<(uint32(toBits)-bits)&maxv))
		}
	} else if bits >= uint32(fromBits) || acc<<(uint32(toBits)-bits)&maxv != 0 {
		return nil, fmt.Errorf("invalid padding")
	}
	return out, nil
}
