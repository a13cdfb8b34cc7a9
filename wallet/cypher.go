package wallet

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/scrypt"
)

// Sealed is an encrypted secret at rest: AES-256-GCM ciphertext with its
// nonce and authentication tag kept as separate fields, plus the scrypt salt
// used to stretch the passphrase. Plaintext secret material is never stored.
type Sealed struct {
	CipherText []byte `json:"ciphertext"`
	Nonce      []byte `json:"nonce"`
	AuthTag    []byte `json:"auth_tag"`
	Salt       []byte `json:"salt"`
}

var (
	ErrNullPlainText  = errors.New("plaintext must not be null")
	ErrNullPassphrase = errors.New("passphrase must not be null")
	ErrBadCypherText  = errors.New("cyphertext cannot be decrypted")
)

// scrypt parameters for key stretching; 32-byte key for AES-256.
const (
	scryptN      = 1 << 15
	scryptR      = 8
	scryptP      = 1
	cipherKeyLen = 32
	saltLen      = 32
)

// Encrypt seals a plaintext secret under a passphrase-derived key with a
// fresh per-record salt and nonce.
func Encrypt(plaintext, passphrase string) (*Sealed, error) {
	if len(plaintext) == 0 {
		return nil, ErrNullPlainText
	}
	if len(passphrase) == 0 {
		return nil, ErrNullPassphrase
	}

	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}

	gcm, err := newGCM([]byte(passphrase), salt)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}

	sealed := gcm.Seal(nil, nonce, []byte(plaintext), nil)
	tagStart := len(sealed) - gcm.Overhead()

	return &Sealed{
		CipherText: sealed[:tagStart],
		Nonce:      nonce,
		AuthTag:    sealed[tagStart:],
		Salt:       salt,
	}, nil
}

// Decrypt opens a sealed secret with the passphrase. Tampering with any
// field fails authentication.
func Decrypt(sealed *Sealed, passphrase string) (string, error) {
	if len(passphrase) == 0 {
		return "", ErrNullPassphrase
	}

	gcm, err := newGCM([]byte(passphrase), sealed.Salt)
	if err != nil {
		return "", err
	}

	data := make([]byte, 0, len(sealed.CipherText)+len(sealed.AuthTag))
	data = append(data, sealed.CipherText...)
	data = append(data, sealed.AuthTag...)

	plaintext, err := gcm.Open(nil, sealed.Nonce, data, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadCypherText, err)
	}
	return string(plaintext), nil
}

func newGCM(passphrase, salt []byte) (cipher.AEAD, error) {
	key, err := scrypt.Key(passphrase, salt, scryptN, scryptR, scryptP, cipherKeyLen)
	if err != nil {
		return nil, err
	}
	blockCipher, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(blockCipher)
}
