package ledger

import (
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
)

// SPL token account sizes in bytes. Rent-exempt minimums are quoted against
// these exact values.
const (
	MintAccountSize  uint64 = 82
	TokenAccountSize uint64 = 165
)

// System program instruction index.
const sysCreateAccount uint32 = 0

// Token program instruction indexes.
const (
	tokenInitializeMint    byte = 0
	tokenInitializeAccount byte = 1
	tokenMintTo            byte = 7
)

// createAccountData encodes the system program CreateAccount payload:
// u32 index, u64 lamports, u64 space, then the 32-byte owner program.
func createAccountData(lamports, space uint64, owner solana.PublicKey) []byte {
	data := make([]byte, 4+8+8+32)
	binary.LittleEndian.PutUint32(data[0:4], sysCreateAccount)
	binary.LittleEndian.PutUint64(data[4:12], lamports)
	binary.LittleEndian.PutUint64(data[12:20], space)
	copy(data[20:52], owner[:])
	return data
}

// initializeMintData encodes InitializeMint with zero decimals, the mint
// authority, and no freeze authority (COption tag 0 plus padding).
func initializeMintData(decimals byte, mintAuthority solana.PublicKey) []byte {
	data := make([]byte, 1+1+32+1+32)
	data[0] = tokenInitializeMint
	data[1] = decimals
	copy(data[2:34], mintAuthority[:])
	data[34] = 0
	return data
}

// initializeAccountData encodes InitializeAccount. The owner and mint ride
// in the account metas, not the data.
func initializeAccountData() []byte {
	return []byte{tokenInitializeAccount}
}

// mintToData encodes MintTo with a u64 little-endian amount.
func mintToData(amount uint64) []byte {
	data := make([]byte, 1+8)
	data[0] = tokenMintTo
	binary.LittleEndian.PutUint64(data[1:9], amount)
	return data
}
