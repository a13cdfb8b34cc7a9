// Package wallet implements keypair custody: generation, import from a
// base58 secret key or a BIP-39 recovery phrase, and local signing. Secret
// material never leaves the process and is never logged.
package wallet

import (
	"crypto/ed25519"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/grokini/tradebot/core"
)

// Signer owns a keypair on behalf of a single user session.
type Signer struct {
	privateKey solana.PrivateKey
	phrase     string
}

// Generate produces a fresh keypair derived from a newly generated recovery
// phrase, so the phrase alone reproduces the keypair.
func Generate() (*Signer, error) {
	phrase, err := NewMnemonic()
	if err != nil {
		return nil, fmt.Errorf("failed to generate mnemonic: %w", err)
	}
	signer, err := FromMnemonic(phrase)
	if err != nil {
		return nil, err
	}
	return signer, nil
}

// FromSecretKey reconstructs a signer from a base58-encoded 64-byte secret
// key.
func FromSecretKey(encoded string) (*Signer, error) {
	key, err := solana.PrivateKeyFromBase58(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidKeyFormat, err)
	}
	if len(key) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("%w: secret key must be %d bytes, got %d",
			core.ErrInvalidKeyFormat, ed25519.PrivateKeySize, len(key))
	}

	// The last 32 bytes of an ed25519 private key are the public key;
	// a mismatch means the encoded material is not a real keypair.
	derived := ed25519.NewKeyFromSeed(key[:ed25519.SeedSize])
	if !key.PublicKey().Equals(solana.PublicKeyFromBytes(derived[ed25519.SeedSize:])) {
		return nil, fmt.Errorf("%w: public key mismatch", core.ErrInvalidKeyFormat)
	}

	return &Signer{privateKey: key}, nil
}

// FromMnemonic validates the phrase checksum and derives the keypair along
// the fixed Solana derivation path, deterministically.
func FromMnemonic(phrase string) (*Signer, error) {
	seed, err := SeedFromMnemonic(phrase)
	if err != nil {
		return nil, err
	}

	derived, err := DeriveSeed(seed, SolanaDerivationPath)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}

	key := solana.PrivateKey(ed25519.NewKeyFromSeed(derived))
	return &Signer{privateKey: key, phrase: phrase}, nil
}

// Address returns the base58 public address.
func (s *Signer) Address() string {
	return s.privateKey.PublicKey().String()
}

// PublicKey returns the signer's public key.
func (s *Signer) PublicKey() solana.PublicKey {
	return s.privateKey.PublicKey()
}

// RecoveryPhrase returns the mnemonic the keypair was derived from, or ""
// for imported raw secrets.
func (s *Signer) RecoveryPhrase() string {
	return s.phrase
}

// SecretKey returns the base58-encoded secret material. Callers show it to
// the owning user exactly once or hand it to the encrypted store; it must
// never reach a log line or a remote service.
func (s *Signer) SecretKey() string {
	return s.privateKey.String()
}

// Sign signs msg with the secret key. Signatures verify against Address.
func (s *Signer) Sign(msg []byte) (solana.Signature, error) {
	return s.privateKey.Sign(msg)
}

// SignerFor returns the private key for pubkey, in the shape the transaction
// signing callback expects, or nil when the key is not ours.
func (s *Signer) SignerFor(pubkey solana.PublicKey) *solana.PrivateKey {
	if !s.privateKey.PublicKey().Equals(pubkey) {
		return nil
	}
	key := s.privateKey
	return &key
}

// Zero wipes the secret material. The signer is unusable afterwards.
func (s *Signer) Zero() {
	for i := range s.privateKey {
		s.privateKey[i] = 0
	}
	s.privateKey = nil
	s.phrase = ""
}
