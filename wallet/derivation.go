package wallet

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
	"errors"
)

// hardenedOffset marks a hardened index in a BIP-32 style path. SLIP-0010
// ed25519 derivation only supports hardened steps.
const hardenedOffset uint32 = 0x80000000

// SolanaDerivationPath is the fixed path m/44'/501'/0'/0' used by Solana
// wallets, so a phrase imported here matches other wallet software.
var SolanaDerivationPath = []uint32{
	44 | hardenedOffset,
	501 | hardenedOffset,
	0 | hardenedOffset,
	0 | hardenedOffset,
}

var errNonHardenedStep = errors.New("ed25519 derivation requires hardened path steps")

// DeriveSeed walks a SLIP-0010 ed25519 derivation path over a BIP-39 seed
// and returns the 32-byte key seed at the leaf.
func DeriveSeed(seed []byte, path []uint32) ([]byte, error) {
	mac := hmac.New(sha512.New, []byte("ed25519 seed"))
	mac.Write(seed)
	sum := mac.Sum(nil)
	key, chainCode := sum[:32], sum[32:]

	for _, index := range path {
		if index < hardenedOffset {
			return nil, errNonHardenedStep
		}

		data := make([]byte, 0, 1+32+4)
		data = append(data, 0x00)
		data = append(data, key...)
		data = binary.BigEndian.AppendUint32(data, index)

		mac = hmac.New(sha512.New, chainCode)
		mac.Write(data)
		sum = mac.Sum(nil)
		key, chainCode = sum[:32], sum[32:]
	}

	return key, nil
}
