package storage

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grokini/tradebot/wallet"
)

func TestWalletStore_SaveLoad(t *testing.T) {
	store, err := NewFromMemory()
	require.NoError(t, err)
	defer store.Close()

	signer, err := wallet.Generate()
	require.NoError(t, err)

	require.NoError(t, store.Save(42, signer, "passphrase"))

	loaded, err := store.Load(42, signer.Address(), "passphrase")
	require.NoError(t, err)
	require.Equal(t, signer.Address(), loaded.Address())
}

func TestWalletStore_LoadWrongPassphrase(t *testing.T) {
	store, err := NewFromMemory()
	require.NoError(t, err)
	defer store.Close()

	signer, err := wallet.Generate()
	require.NoError(t, err)
	require.NoError(t, store.Save(42, signer, "passphrase"))

	_, err = store.Load(42, signer.Address(), "wrong")
	require.Error(t, err)
}

func TestWalletStore_NoPlaintextAtRest(t *testing.T) {
	store, err := NewFromMemory()
	require.NoError(t, err)
	defer store.Close()

	signer, err := wallet.Generate()
	require.NoError(t, err)
	secret := signer.SecretKey()
	require.NoError(t, store.Save(7, signer, "passphrase"))

	records, err := store.List(7)
	require.NoError(t, err)
	require.Len(t, records, 1)

	raw, err := json.Marshal(records[0])
	require.NoError(t, err)
	require.False(t, strings.Contains(string(raw), secret))
	require.Equal(t, signer.Address(), records[0].Address)
}

func TestWalletStore_Delete(t *testing.T) {
	store, err := NewFromMemory()
	require.NoError(t, err)
	defer store.Close()

	signer, err := wallet.Generate()
	require.NoError(t, err)
	require.NoError(t, store.Save(9, signer, "passphrase"))
	require.NoError(t, store.Delete(9, signer.Address()))

	records, err := store.List(9)
	require.NoError(t, err)
	require.Empty(t, records)
}
