package wallet

import (
	"fmt"

	"github.com/vulpemventures/go-bip39"

	"github.com/grokini/tradebot/core"
)

// mnemonicEntropySize yields a 12-word recovery phrase.
const mnemonicEntropySize = 128

// NewMnemonic returns a new BIP-39 recovery phrase.
func NewMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(mnemonicEntropySize)
	if err != nil {
		return "", err
	}
	return bip39.NewMnemonic(entropy)
}

// SeedFromMnemonic validates the phrase checksum and returns the BIP-39 seed.
// Validation happens before any derivation is attempted.
func SeedFromMnemonic(phrase string) ([]byte, error) {
	if !bip39.IsMnemonicValid(phrase) {
		return nil, fmt.Errorf("%w: checksum validation failed", core.ErrInvalidMnemonic)
	}
	return bip39.NewSeed(phrase, ""), nil
}
