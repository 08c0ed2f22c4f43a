package ledger

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// MintParams describes one certificate mint attempt. FeePayer is the wallet
// that funds the transaction: the learner in the co-sign flow, the issuer in
// the custodial flow. Recipient owns the resulting token account.
type MintParams struct {
	Issuer    solana.PrivateKey
	FeePayer  solana.PublicKey
	Recipient solana.PublicKey
}

// MintTransaction is a built, server-signed mint transaction. Fresh mint and
// token-account keypairs are generated per attempt, so an abandoned prepare
// leaves nothing on chain to collide with.
type MintTransaction struct {
	Tx           *solana.Transaction
	Base64       string
	MintAddress  solana.PublicKey
	TokenAccount solana.PublicKey
}

// BuildMintTransaction assembles the five-instruction mint sequence: create
// the mint account, initialize the mint (supply fixed at one, no freeze
// authority), create the recipient token account, initialize it, then mint
// the single token. The issuer funds both rent deposits and authorizes the
// mint-to, so its signature is always required; it and the fresh keypairs
// are signed in, and the fee payer's slot is left open when the fee payer
// is the learner.
func BuildMintTransaction(ctx context.Context, client Client, params MintParams) (*MintTransaction, error) {
	mintKey, err := solana.NewRandomPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("ledger.BuildMintTransaction: generating mint key: %w", err)
	}
	tokenAccountKey, err := solana.NewRandomPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("ledger.BuildMintTransaction: generating token account key: %w", err)
	}

	mintPubkey := mintKey.PublicKey()
	tokenAccountPubkey := tokenAccountKey.PublicKey()
	issuerPubkey := params.Issuer.PublicKey()

	mintRent, err := client.RentExemptMinimum(ctx, MintAccountSize)
	if err != nil {
		return nil, err
	}
	tokenAccountRent, err := client.RentExemptMinimum(ctx, TokenAccountSize)
	if err != nil {
		return nil, err
	}

	blockhash, err := client.LatestBlockhash(ctx)
	if err != nil {
		return nil, err
	}

	instructions := []solana.Instruction{
		solana.NewInstruction(
			solana.SystemProgramID,
			solana.AccountMetaSlice{
				solana.NewAccountMeta(issuerPubkey, true, true),
				solana.NewAccountMeta(mintPubkey, true, true),
			},
			createAccountData(mintRent, MintAccountSize, solana.TokenProgramID),
		),
		// The mint is its own authority; its keypair never leaves the
		// server, so supply is frozen at one after this transaction.
		solana.NewInstruction(
			solana.TokenProgramID,
			solana.AccountMetaSlice{
				solana.NewAccountMeta(mintPubkey, true, false),
				solana.NewAccountMeta(solana.SysVarRentPubkey, false, false),
			},
			initializeMintData(0, mintPubkey),
		),
		solana.NewInstruction(
			solana.SystemProgramID,
			solana.AccountMetaSlice{
				solana.NewAccountMeta(issuerPubkey, true, true),
				solana.NewAccountMeta(tokenAccountPubkey, true, true),
			},
			createAccountData(tokenAccountRent, TokenAccountSize, solana.TokenProgramID),
		),
		solana.NewInstruction(
			solana.TokenProgramID,
			solana.AccountMetaSlice{
				solana.NewAccountMeta(tokenAccountPubkey, true, false),
				solana.NewAccountMeta(mintPubkey, false, false),
				solana.NewAccountMeta(params.Recipient, false, false),
				solana.NewAccountMeta(solana.SysVarRentPubkey, false, false),
			},
			initializeAccountData(),
		),
		solana.NewInstruction(
			solana.TokenProgramID,
			solana.AccountMetaSlice{
				solana.NewAccountMeta(mintPubkey, true, false),
				solana.NewAccountMeta(tokenAccountPubkey, true, false),
				solana.NewAccountMeta(issuerPubkey, false, true),
			},
			mintToData(1),
		),
	}

	tx, err := solana.NewTransaction(
		instructions,
		blockhash,
		solana.TransactionPayer(params.FeePayer),
	)
	if err != nil {
		return nil, fmt.Errorf("ledger.BuildMintTransaction: %w", err)
	}

	signers := map[solana.PublicKey]solana.PrivateKey{
		mintPubkey:         mintKey,
		tokenAccountPubkey: tokenAccountKey,
		issuerPubkey:       params.Issuer,
	}
	if _, err := tx.PartialSign(func(key solana.PublicKey) *solana.PrivateKey {
		if private, ok := signers[key]; ok {
			return &private
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("ledger.BuildMintTransaction: signing: %w", err)
	}

	serialized, err := tx.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("ledger.BuildMintTransaction: serializing: %w", err)
	}

	return &MintTransaction{
		Tx:           tx,
		Base64:       base64.StdEncoding.EncodeToString(serialized),
		MintAddress:  mintPubkey,
		TokenAccount: tokenAccountPubkey,
	}, nil
}
