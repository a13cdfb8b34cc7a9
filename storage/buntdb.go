// Package storage persists wallet records in BuntDB. Secret material is
// sealed with the wallet cypher before it touches the database; only the
// public address, the ciphertext and its encryption parameters are at rest.
package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/tidwall/buntdb"

	"github.com/grokini/tradebot/wallet"
)

// WalletRecord is one persisted wallet: public address plus the sealed
// secret. Plaintext keys are never written.
type WalletRecord struct {
	UserID    int64          `json:"user_id"`
	Address   string         `json:"address"`
	Sealed    *wallet.Sealed `json:"sealed"`
	CreatedAt time.Time      `json:"created_at"`
}

// WalletStore stores encrypted wallets keyed by owner and address.
type WalletStore struct {
	db *buntdb.DB
}

// NewFromMemory creates an in-memory store; wallets live for the process
// lifetime only.
func NewFromMemory() (*WalletStore, error) {
	return New(":memory:")
}

// NewFromFile creates a file-backed store.
func NewFromFile(file string) (*WalletStore, error) {
	return New(file)
}

// New opens a BuntDB-backed wallet store.
func New(sourceFile string) (*WalletStore, error) {
	db, err := buntdb.Open(sourceFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open buntdb: %w", err)
	}

	if err := db.SetConfig(buntdb.Config{
		SyncPolicy: buntdb.EverySecond,
	}); err != nil {
		return nil, fmt.Errorf("failed to configure buntdb: %w", err)
	}

	return &WalletStore{db: db}, nil
}

// Save seals the signer's secret key under the passphrase and stores the
// record.
func (s *WalletStore) Save(userID int64, signer *wallet.Signer, passphrase string) error {
	sealed, err := wallet.Encrypt(signer.SecretKey(), passphrase)
	if err != nil {
		return fmt.Errorf("failed to seal wallet: %w", err)
	}

	record := WalletRecord{
		UserID:    userID,
		Address:   signer.Address(),
		Sealed:    sealed,
		CreatedAt: time.Now().UTC(),
	}

	content, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal wallet record: %w", err)
	}

	return s.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(walletKey(userID, record.Address), string(content), nil)
		return err
	})
}

// Load decrypts a stored wallet back into a signer.
func (s *WalletStore) Load(userID int64, address, passphrase string) (*wallet.Signer, error) {
	var record WalletRecord
	err := s.db.View(func(tx *buntdb.Tx) error {
		value, err := tx.Get(walletKey(userID, address))
		if err != nil {
			return fmt.Errorf("wallet not found: %w", err)
		}
		return json.Unmarshal([]byte(value), &record)
	})
	if err != nil {
		return nil, err
	}

	secret, err := wallet.Decrypt(record.Sealed, passphrase)
	if err != nil {
		return nil, fmt.Errorf("failed to unseal wallet: %w", err)
	}

	return wallet.FromSecretKey(secret)
}

// List returns the wallet records owned by a user, secrets still sealed.
func (s *WalletStore) List(userID int64) ([]WalletRecord, error) {
	records := make([]WalletRecord, 0)
	err := s.db.View(func(tx *buntdb.Tx) error {
		return tx.AscendKeys(fmt.Sprintf("wallet:%d:*", userID), func(_, value string) bool {
			var record WalletRecord
			if err := json.Unmarshal([]byte(value), &record); err == nil {
				records = append(records, record)
			}
			return true
		})
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Delete removes a stored wallet record.
func (s *WalletStore) Delete(userID int64, address string) error {
	return s.db.Update(func(tx *buntdb.Tx) error {
		_, err := tx.Delete(walletKey(userID, address))
		return err
	})
}

// Close releases the underlying database.
func (s *WalletStore) Close() error {
	return s.db.Close()
}

func walletKey(userID int64, address string) string {
	return fmt.Sprintf("wallet:%d:%s", userID, address)
}
