package address

import (
	"crypto/sha256"

	"golang.org/x/crypto/ripemd160"

	"github.com/blkindex/blkindex/internal/coin"
)

// ScriptClass is the recognised template of an output script.
type ScriptClass int

const (
	NonStandard ScriptClass = iota
	PubKeyHash
	ScriptHash
	PubKey
	WitnessPubKeyHash
	WitnessScriptHash
	NullData
)

func (sc ScriptClass) String() string {
	switch sc {
	case PubKeyHash:
		return "p2pkh"
	case ScriptHash:
		return "p2sh"
	case PubKey:
		return "p2pk"
	case WitnessPubKeyHash:
		return "p2wpkh"
	case WitnessScriptHash:
		return "p2wsh"
	case NullData:
		return "op_return"
	}
	return "nonstandard"
}

// ClassifyScript matches an output script against the canonical templates.
// Push-prefixed P2PK forms are tested before the witness templates; the
// pushless P2PK forms come after them so a v0 witness program whose hash
// happens to end in OP_CHECKSIG is not misclassified.
func ClassifyScript(script []byte) ScriptClass {
	n := len(script)
	switch {
	case n == 25 && script[0] == 0x76 && script[1] == 0xa9 && script[2] == 0x14 &&
		script[23] == 0x88 && script[24] == 0xac:
		return PubKeyHash
	case n == 23 && script[0] == 0xa9 && script[1] == 0x14 && script[22] == 0x87:
		return ScriptHash
	case n == 35 && script[0] == 0x21 && script[34] == 0xac:
		return PubKey
	case n == 67 && script[0] == 0x41 && script[66] == 0xac:
		return PubKey
	case n == 22 && script[0] == 0x00 && script[1] == 0x14:
		return WitnessPubKeyHash
	case n == 34 && script[0] == 0x00 && script[1] == 0x20:
		return WitnessScriptHash
	case (n == 34 || n == 68) && script[n-1] == 0xac:
		return PubKey
	case n > 0 && script[0] == 0x6a:
		return NullData
	}
	return NonStandard
}

// FromScript derives the human-readable address for an output script, or
// nil when the script carries none (OP_RETURN, non-standard, malformed).
func FromScript(script []byte, c coin.Coin) *string {
	switch ClassifyScript(script) {
	case PubKeyHash:
		return strPtr(Base58Check(c.PubKeyHashVersion(), script[3:23]))
	case ScriptHash:
		return strPtr(Base58Check(c.ScriptHashVersion(), script[2:22]))
	case PubKey:
		pubkey := extractPubKey(script)
		if pubkey == nil {
			return nil
		}
		return strPtr(Base58Check(c.PubKeyHashVersion(), Hash160(pubkey)))
	case WitnessPubKeyHash:
		return encodeWitness(c, script[2:22])
	case WitnessScriptHash:
		return encodeWitness(c, script[2:34])
	}
	return nil
}

// extractPubKey pulls the public key out of a P2PK script, accepting both
// push-prefixed and bare layouts. Returns nil unless the key is 33 or 65
// bytes.
func extractPubKey(script []byte) []byte {
	var pubkey []byte
	switch {
	case len(script) == 35 && script[0] == 0x21:
		pubkey = script[1:34]
	case len(script) == 67 && script[0] == 0x41:
		pubkey = script[1:66]
	default:
		pubkey = script[:len(script)-1]
	}
	if len(pubkey) != 33 && len(pubkey) != 65 {
		return nil
	}
	return pubkey
}

func encodeWitness(c coin.Coin, program []byte) *string {
	addr, err := EncodeSegWit(c.Bech32HRP(), 0, program)
	if err != nil {
		return nil
	}
	return strPtr(addr)
}

// FromScriptSig extracts a P2PKH address from a scriptSig by scanning for a
// DER signature marker followed by a 33- or 65-byte public key push. This
// is best-effort for P2PKH-spending inputs; anything else returns nil.
func FromScriptSig(scriptSig []byte, c coin.Coin) *string {
	if len(scriptSig) < 33 {
		return nil
	}
	for i := 0; i < len(scriptSig); i++ {
		if scriptSig[i] != 0x30 || i+1 >= len(scriptSig) {
			continue
		}
		sigLen := int(scriptSig[i+1])
		if sigLen == 0 || i+2+sigLen >= len(scriptSig) {
			continue
		}
		pushPos := i + 2 + sigLen
		pubkeyLen := int(scriptSig[pushPos])
		if (pubkeyLen == 33 || pubkeyLen == 65) && pushPos+1+pubkeyLen <= len(scriptSig) {
			pubkey := scriptSig[pushPos+1 : pushPos+1+pubkeyLen]
			return strPtr(Base58Check(c.PubKeyHashVersion(), Hash160(pubkey)))
		}
		// First plausible signature did not lead to a key push; give up.
		break
	}
	return nil
}

// Hash160 computes RIPEMD160(SHA256(b)).
func Hash160(b []byte) []byte {
	sum := sha256.Sum256(b)
	h := ripemd160.New()
	h.Write(sum[:])
	return h.Sum(nil)
}

func strPtr(s string) *string {
	return &s
}
