package ledger

import (
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAccountData(t *testing.T) {
	owner := solana.TokenProgramID
	data := createAccountData(1461600, MintAccountSize, owner)

	require.Len(t, data, 52)
	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(data[0:4]))
	assert.Equal(t, uint64(1461600), binary.LittleEndian.Uint64(data[4:12]))
	assert.Equal(t, uint64(82), binary.LittleEndian.Uint64(data[12:20]))
	assert.Equal(t, owner[:], data[20:52])
}

func TestInitializeMintData(t *testing.T) {
	authority := solana.MustPublicKeyFromBase58("SysvarRent111111111111111111111111111111111")
	data := initializeMintData(0, authority)

	require.Len(t, data, 67)
	assert.Equal(t, byte(0), data[0], "instruction tag")
	assert.Equal(t, byte(0), data[1], "decimals")
	assert.Equal(t, authority[:], data[2:34])
	// No freeze authority: COption tag 0 followed by zero padding.
	assert.Equal(t, byte(0), data[34])
	for _, b := range data[35:] {
		assert.Equal(t, byte(0), b)
	}
}

func TestInitializeAccountData(t *testing.T) {
	assert.Equal(t, []byte{1}, initializeAccountData())
}

func TestMintToData(t *testing.T) {
	data := mintToData(1)

	require.Len(t, data, 9)
	assert.Equal(t, byte(7), data[0], "instruction tag")
	assert.Equal(t, uint64(1), binary.LittleEndian.Uint64(data[1:9]))
}
