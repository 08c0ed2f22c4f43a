package ledger

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubClient answers the RPC reads BuildMintTransaction needs.
type stubClient struct {
	mintRent    uint64
	accountRent uint64
	blockhash   solana.Hash
}

func (c *stubClient) RentExemptMinimum(ctx context.Context, dataSize uint64) (uint64, error) {
	if dataSize == MintAccountSize {
		return c.mintRent, nil
	}
	return c.accountRent, nil
}

func (c *stubClient) LatestBlockhash(ctx context.Context) (solana.Hash, error) {
	return c.blockhash, nil
}

func (c *stubClient) SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	return solana.Signature{}, nil
}

func (c *stubClient) ConfirmTransaction(ctx context.Context, signature solana.Signature) error {
	return nil
}

func TestBuildMintTransaction(t *testing.T) {
	issuer, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	learner, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)

	client := &stubClient{
		mintRent:    1461600,
		accountRent: 2039280,
		blockhash:   solana.Hash{9, 9, 9},
	}

	mintTx, err := BuildMintTransaction(context.Background(), client, MintParams{
		Issuer:    issuer,
		FeePayer:  learner.PublicKey(),
		Recipient: learner.PublicKey(),
	})
	require.NoError(t, err)

	require.Len(t, mintTx.Tx.Message.Instructions, 5)
	assert.Equal(t, learner.PublicKey(), mintTx.Tx.Message.AccountKeys[0], "fee payer leads the account list")
	assert.NotEqual(t, solana.PublicKey{}, mintTx.MintAddress)
	assert.NotEqual(t, mintTx.MintAddress, mintTx.TokenAccount)

	// The issuer funds rent and authorizes the mint-to, so it is a required
	// signer alongside the learner, the mint and the token account.
	issuerIndex := -1
	for i, key := range mintTx.Tx.Message.AccountKeys {
		if key == issuer.PublicKey() {
			issuerIndex = i
		}
	}
	require.NotEqual(t, -1, issuerIndex, "issuer must appear in the account list")
	assert.EqualValues(t, 4, mintTx.Tx.Message.Header.NumRequiredSignatures)

	// Partial signing fills the issuer slot and leaves the learner's open.
	require.Len(t, mintTx.Tx.Signatures, 4)
	assert.Equal(t, solana.Signature{}, mintTx.Tx.Signatures[0], "learner slot stays open")
	assert.NotEqual(t, solana.Signature{}, mintTx.Tx.Signatures[issuerIndex])

	// The mint-to authority account is the issuer.
	mintTo := mintTx.Tx.Message.Instructions[4]
	require.Len(t, mintTo.Accounts, 3)
	assert.Equal(t, issuer.PublicKey(), mintTx.Tx.Message.AccountKeys[mintTo.Accounts[2]])

	// Serialized form round-trips through base64.
	raw, err := base64.StdEncoding.DecodeString(mintTx.Base64)
	require.NoError(t, err)
	assert.NotEmpty(t, raw)

	// Fresh keypairs on every attempt.
	second, err := BuildMintTransaction(context.Background(), client, MintParams{
		Issuer:    issuer,
		FeePayer:  learner.PublicKey(),
		Recipient: learner.PublicKey(),
	})
	require.NoError(t, err)
	assert.NotEqual(t, mintTx.MintAddress, second.MintAddress)
}
