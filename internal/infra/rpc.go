package infra

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go/rpc"
)

// NewRPCClient builds a Solana JSON-RPC client and verifies the node answers.
func NewRPCClient(ctx context.Context, url string) (*rpc.Client, error) {
	if url == "" {
		return nil, fmt.Errorf("rpc url is required")
	}

	client := rpc.New(url)

	if _, err := client.GetHealth(ctx); err != nil {
		return nil, fmt.Errorf("rpc health check: %w", err)
	}

	return client, nil
}
