//go:generate mockery --name Client --output ./mocks --outpkg mocks --case=underscore
package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// Client is the narrow view of the Solana RPC surface the certificate flow
// needs. Keeping it small makes the service testable without a validator.
type Client interface {
	RentExemptMinimum(ctx context.Context, dataSize uint64) (uint64, error)
	LatestBlockhash(ctx context.Context) (solana.Hash, error)
	SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
	ConfirmTransaction(ctx context.Context, signature solana.Signature) error
}

type rpcClient struct {
	rpc *rpc.Client
}

// NewRPCClient wires a Client against the given RPC endpoint.
func NewRPCClient(endpoint string) Client {
	return &rpcClient{rpc: rpc.New(endpoint)}
}

func (c *rpcClient) RentExemptMinimum(ctx context.Context, dataSize uint64) (uint64, error) {
	lamports, err := c.rpc.GetMinimumBalanceForRentExemption(ctx, dataSize, rpc.CommitmentConfirmed)
	if err != nil {
		return 0, fmt.Errorf("rpcClient.RentExemptMinimum: %w", err)
	}
	return lamports, nil
}

func (c *rpcClient) LatestBlockhash(ctx context.Context) (solana.Hash, error) {
	out, err := c.rpc.GetLatestBlockhash(ctx, rpc.CommitmentConfirmed)
	if err != nil {
		return solana.Hash{}, fmt.Errorf("rpcClient.LatestBlockhash: %w", err)
	}
	return out.Value.Blockhash, nil
}

func (c *rpcClient) SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	sig, err := c.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		PreflightCommitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("rpcClient.SendTransaction: %w", err)
	}
	return sig, nil
}

// ConfirmTransaction polls signature status until the transaction reaches
// the confirmed commitment level. The caller's context bounds the wait.
func (c *rpcClient) ConfirmTransaction(ctx context.Context, signature solana.Signature) error {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		out, err := c.rpc.GetSignatureStatuses(ctx, true, signature)
		if err != nil {
			return fmt.Errorf("rpcClient.ConfirmTransaction: %w", err)
		}
		if len(out.Value) > 0 && out.Value[0] != nil {
			status := out.Value[0]
			if status.Err != nil {
				return fmt.Errorf("rpcClient.ConfirmTransaction: transaction failed on chain: %v", status.Err)
			}
			if status.ConfirmationStatus == rpc.ConfirmationStatusConfirmed ||
				status.ConfirmationStatus == rpc.ConfirmationStatusFinalized {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("rpcClient.ConfirmTransaction: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

// ParseSecretKey accepts either the JSON byte-array format solana-keygen
// writes or a base58 string.
func ParseSecretKey(raw string) (solana.PrivateKey, error) {
	if len(raw) > 0 && raw[0] == '[' {
		var bytes []byte
		if err := json.Unmarshal([]byte(raw), &bytes); err != nil {
			return nil, fmt.Errorf("ledger.ParseSecretKey: %w", err)
		}
		if len(bytes) != 64 {
			return nil, fmt.Errorf("ledger.ParseSecretKey: expected 64 bytes, got %d", len(bytes))
		}
		return solana.PrivateKey(bytes), nil
	}
	key, err := solana.PrivateKeyFromBase58(raw)
	if err != nil {
		return nil, fmt.Errorf("ledger.ParseSecretKey: %w", err)
	}
	return key, nil
}

// LoadIssuerKey parses the configured issuer secret key. A missing key is
// fatal unless allowEphemeral is set; the ephemeral fallback generates a
// throwaway keypair so environments without ledger credentials still start.
// The second return value reports whether the fallback was taken.
func LoadIssuerKey(secret string, allowEphemeral bool) (solana.PrivateKey, bool, error) {
	if secret != "" {
		key, err := ParseSecretKey(secret)
		if err != nil {
			return nil, false, err
		}
		return key, false, nil
	}
	if !allowEphemeral {
		return nil, false, fmt.Errorf("ledger.LoadIssuerKey: no issuer secret key configured")
	}
	key, err := solana.NewRandomPrivateKey()
	if err != nil {
		return nil, false, fmt.Errorf("ledger.LoadIssuerKey: %w", err)
	}
	return key, true, nil
}
