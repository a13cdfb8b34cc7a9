package wallet

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncryptDecrypt(t *testing.T) {
	sealed, err := Encrypt("super-secret-key-material", "correct horse battery staple")
	require.NoError(t, err)
	require.NotEmpty(t, sealed.CipherText)
	require.NotEmpty(t, sealed.Nonce)
	require.NotEmpty(t, sealed.AuthTag)
	require.NotEmpty(t, sealed.Salt)

	plain, err := Decrypt(sealed, "correct horse battery staple")
	require.NoError(t, err)
	require.Equal(t, "super-secret-key-material", plain)
}

func TestDecrypt_WrongPassphrase(t *testing.T) {
	sealed, err := Encrypt("secret", "right")
	require.NoError(t, err)

	_, err = Decrypt(sealed, "wrong")
	require.ErrorIs(t, err, ErrBadCypherText)
}

func TestDecrypt_TamperedTag(t *testing.T) {
	sealed, err := Encrypt("secret", "passphrase")
	require.NoError(t, err)

	sealed.AuthTag[0] ^= 0xff
	_, err = Decrypt(sealed, "passphrase")
	require.ErrorIs(t, err, ErrBadCypherText)
}

func TestEncrypt_Validation(t *testing.T) {
	_, err := Encrypt("", "passphrase")
	require.ErrorIs(t, err, ErrNullPlainText)

	_, err = Encrypt("secret", "")
	require.ErrorIs(t, err, ErrNullPassphrase)
}

func TestEncrypt_FreshNoncePerRecord(t *testing.T) {
	first, err := Encrypt("secret", "passphrase")
	require.NoError(t, err)
	second, err := Encrypt("secret", "passphrase")
	require.NoError(t, err)

	require.NotEqual(t, first.Nonce, second.Nonce)
	require.NotEqual(t, first.Salt, second.Salt)
}
