package wallet

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grokini/tradebot/core"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func TestFromMnemonic_Deterministic(t *testing.T) {
	first, err := FromMnemonic(testMnemonic)
	require.NoError(t, err)

	second, err := FromMnemonic(testMnemonic)
	require.NoError(t, err)

	require.Equal(t, first.Address(), second.Address())
	require.Equal(t, testMnemonic, first.RecoveryPhrase())
}

func TestFromMnemonic_InvalidChecksum(t *testing.T) {
	_, err := FromMnemonic("abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon")
	require.ErrorIs(t, err, core.ErrInvalidMnemonic)

	_, err = FromMnemonic("definitely not a mnemonic")
	require.ErrorIs(t, err, core.ErrInvalidMnemonic)
}

func TestGenerate_PhraseReproducesKeypair(t *testing.T) {
	signer, err := Generate()
	require.NoError(t, err)
	require.NotEmpty(t, signer.RecoveryPhrase())

	restored, err := FromMnemonic(signer.RecoveryPhrase())
	require.NoError(t, err)
	require.Equal(t, signer.Address(), restored.Address())
}

func TestSigner_SignVerifiesAgainstAddress(t *testing.T) {
	signer, err := Generate()
	require.NoError(t, err)

	msg := []byte("transaction payload")
	sig, err := signer.Sign(msg)
	require.NoError(t, err)

	pub := ed25519.PublicKey(signer.PublicKey().Bytes())
	require.True(t, ed25519.Verify(pub, msg, sig[:]))
}

func TestFromSecretKey_RoundTrip(t *testing.T) {
	signer, err := Generate()
	require.NoError(t, err)

	imported, err := FromSecretKey(signer.SecretKey())
	require.NoError(t, err)
	require.Equal(t, signer.Address(), imported.Address())
	require.Empty(t, imported.RecoveryPhrase())
}

func TestFromSecretKey_Invalid(t *testing.T) {
	_, err := FromSecretKey("not-a-base58-key!!!")
	require.ErrorIs(t, err, core.ErrInvalidKeyFormat)
}

func TestSigner_Zero(t *testing.T) {
	signer, err := Generate()
	require.NoError(t, err)

	signer.Zero()
	require.Empty(t, signer.RecoveryPhrase())
	require.Empty(t, signer.SecretKey())
}

func TestDeriveSeed_RejectsNonHardenedStep(t *testing.T) {
	seed, err := SeedFromMnemonic(testMnemonic)
	require.NoError(t, err)

	_, err = DeriveSeed(seed, []uint32{44})
	require.Error(t, err)
}
