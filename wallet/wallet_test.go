package wallet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Standard BIP39 test vector mnemonic; the m/44'/60'/0'/0/0 address is a
// published reference value.
const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func TestDeriveAddressKnownVector(t *testing.T) {
	addr, err := DeriveAddress(testMnemonic, 0)
	require.NoError(t, err)
	assert.Equal(t, "0x9858EfFD232B4033E47d90003D41EC34EcaEda94", addr.Hex())
}

func TestDeriveAddressDistinctIndexes(t *testing.T) {
	a0, err := DeriveAddress(testMnemonic, 0)
	require.NoError(t, err)
	a1, err := DeriveAddress(testMnemonic, 1)
	require.NoError(t, err)
	assert.NotEqual(t, a0, a1)
}

func TestDeriveKeyInvalidMnemonic(t *testing.T) {
	_, err := DeriveKey("definitely not a mnemonic", 0)
	assert.Error(t, err)
}

func TestSignerAddressMatchesDerivation(t *testing.T) {
	signer, err := NewSigner(testMnemonic, 0)
	require.NoError(t, err)

	addr, err := DeriveAddress(testMnemonic, 0)
	require.NoError(t, err)
	assert.Equal(t, addr, signer.Address())
}
