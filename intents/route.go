package intents

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/openbridge/swapd/swap"
)

const erc20TransferABI = `[{"inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"name":"transfer","outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"}]`

const (
	nativeTransferGas = 21000
	erc20TransferGas  = 100000
)

// route is one deposit-address quote. Execution is a plain transfer of the
// input to the deposit address; the settlement network does the rest.
type route struct {
	provider *Provider

	from   swap.Asset
	to     swap.Asset
	amount *big.Int
	output *big.Int

	depositAddr   common.Address
	correlationID string

	rpc     *ethclient.Client
	chainID *big.Int
}

func (r *route) Provider() string {
	return r.provider.Name()
}

func (r *route) Kind() swap.Kind {
	return swap.KindCrossChain
}

func (r *route) Output() *big.Int {
	return r.output
}

// NeedsApproval is always false: deposits are transfers, not router calls,
// so no allowance is involved.
func (r *route) NeedsApproval(ctx context.Context) (bool, error) {
	return false, nil
}

func (r *route) Spender() (common.Address, bool) {
	return common.Address{}, false
}

func (r *route) Approve(ctx context.Context) (string, error) {
	return "", swap.ErrApprovalUnsupported
}

// Swap transfers the input amount to the deposit address and reports the tx
// hash upstream so settlement can pick it up faster.
func (r *route) Swap(ctx context.Context) (swap.ExecuteResult, error) {
	var txHash string
	var err error

	if r.from.IsNative() {
		txHash, err = r.provider.signer.SendTx(ctx, r.rpc, r.chainID, r.depositAddr, r.amount, nil, nativeTransferGas)
	} else {
		var data []byte
		data, err = packTransfer(r.depositAddr, r.amount)
		if err == nil {
			txHash, err = r.provider.signer.SendTx(ctx, r.rpc, r.chainID, r.from.Address, big.NewInt(0), data, erc20TransferGas)
		}
	}
	if err != nil {
		return swap.ExecuteResult{}, fmt.Errorf("intents deposit transfer for %s -> %s: %w", r.from, r.to, err)
	}

	r.provider.submitDepositTx(ctx, txHash, r.depositAddr)

	return swap.ExecuteResult{
		TxHash:     txHash,
		ExternalID: r.depositAddr.Hex(),
	}, nil
}

func packTransfer(to common.Address, amount *big.Int) ([]byte, error) {
	parsed, err := abi.JSON(strings.NewReader(erc20TransferABI))
	if err != nil {
		return nil, err
	}
	data, err := parsed.Pack("transfer", to, amount)
	if err != nil {
		return nil, fmt.Errorf("packing transfer: %w", err)
	}
	return data, nil
}
