package wallet

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"log"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

const erc20ApproveABI = `[{"inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"name":"approve","outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"}]`

const (
	approveGasLimit = 100000
	swapGasLimit    = 600000
)

// Signer owns the daemon's private key and submits signed transactions.
type Signer struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

// NewSigner derives the signing key from a mnemonic at the given index.
func NewSigner(mnemonic string, index uint32) (*Signer, error) {
	key, err := DeriveKey(mnemonic, index)
	if err != nil {
		return nil, err
	}
	return &Signer{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

// Address returns the signer's address.
func (s *Signer) Address() common.Address {
	return s.address
}

// SendTx signs and broadcasts a contract call, returning the tx hash. It does
// not wait for mining; callers that need a receipt poll for it themselves.
func (s *Signer) SendTx(ctx context.Context, rpc *ethclient.Client, chainID *big.Int, to common.Address, value *big.Int, data []byte, gasLimit uint64) (string, error) {
	nonce, err := rpc.PendingNonceAt(ctx, s.address)
	if err != nil {
		return "", fmt.Errorf("getting nonce: %w", err)
	}

	gasPrice, err := rpc.SuggestGasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("getting gas price: %w", err)
	}

	if value == nil {
		value = big.NewInt(0)
	}

	tx := types.NewTransaction(nonce, to, value, gasLimit, gasPrice, data)
	signedTx, err := types.SignTx(tx, types.NewEIP155Signer(chainID), s.key)
	if err != nil {
		return "", fmt.Errorf("signing tx: %w", err)
	}

	if err := rpc.SendTransaction(ctx, signedTx); err != nil {
		return "", fmt.Errorf("sending tx: %w", err)
	}

	log.Printf("Tx sent: %s", signedTx.Hash().Hex())
	return signedTx.Hash().Hex(), nil
}

// Approve grants the spender the maximum allowance on token and returns the
// tx hash without waiting for confirmation.
func (s *Signer) Approve(ctx context.Context, rpc *ethclient.Client, chainID *big.Int, token, spender common.Address) (string, error) {
	parsed, err := abi.JSON(strings.NewReader(erc20ApproveABI))
	if err != nil {
		return "", err
	}

	data, err := parsed.Pack("approve", spender, math.MaxBig256)
	if err != nil {
		return "", fmt.Errorf("packing approve: %w", err)
	}

	return s.SendTx(ctx, rpc, chainID, token, big.NewInt(0), data, approveGasLimit)
}

// Call submits a prepared aggregator transaction (router call or deposit).
func (s *Signer) Call(ctx context.Context, rpc *ethclient.Client, chainID *big.Int, to common.Address, value *big.Int, data []byte) (string, error) {
	return s.SendTx(ctx, rpc, chainID, to, value, data, swapGasLimit)
}
