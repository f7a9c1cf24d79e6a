package wallet

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

// ChainReader is the second step of the lookup chain: creation transaction
// to block number, block number to timestamp.
type ChainReader interface {
	TxBlockNumber(ctx context.Context, txHash common.Hash) (uint64, error)
	BlockTime(ctx context.Context, blockNumber uint64) (time.Time, error)
}

// RPCChain implements ChainReader over an Ethereum JSON-RPC endpoint.
type RPCChain struct {
	client *ethclient.Client
}

// DialChain connects to the configured RPC endpoint.
func DialChain(rawURL string) (*RPCChain, error) {
	client, err := ethclient.Dial(rawURL)
	if err != nil {
		return nil, fmt.Errorf("wallet: dial chain rpc %s: %w", rawURL, err)
	}
	return &RPCChain{client: client}, nil
}

// TxBlockNumber resolves the block that mined the given transaction.
func (c *RPCChain) TxBlockNumber(ctx context.Context, txHash common.Hash) (uint64, error) {
	receipt, err := c.client.TransactionReceipt(ctx, txHash)
	if err != nil {
		return 0, fmt.Errorf("wallet: tx receipt %s: %w", txHash.Hex(), err)
	}
	if receipt.BlockNumber == nil {
		return 0, fmt.Errorf("wallet: tx %s has no block number", txHash.Hex())
	}
	return receipt.BlockNumber.Uint64(), nil
}

// BlockTime resolves a block number to its wall-clock timestamp.
func (c *RPCChain) BlockTime(ctx context.Context, blockNumber uint64) (time.Time, error) {
	header, err := c.client.HeaderByNumber(ctx, new(big.Int).SetUint64(blockNumber))
	if err != nil {
		return time.Time{}, fmt.Errorf("wallet: header %d: %w", blockNumber, err)
	}
	return time.Unix(int64(header.Time), 0).UTC(), nil
}

// Close releases the underlying RPC connection.
func (c *RPCChain) Close() {
	c.client.Close()
}
