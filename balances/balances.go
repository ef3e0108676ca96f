// Package balances reads native and ERC-20 balances for the swap endpoints
// and the sequencer's pre-flight check.
package balances

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/openbridge/swapd/swap"
)

var multicallAddr = common.HexToAddress("0xcA11bde05977b3631167028862bE2a173976CA11")

var erc20ABI abi.ABI
var multicallABI abi.ABI

const multicallJSON = `[
{"inputs":[{"components":[{"name":"target","type":"address"},{"name":"allowFailure","type":"bool"},{"name":"callData","type":"bytes"}],"name":"calls","type":"tuple[]"}],"name":"aggregate3","outputs":[{"components":[{"name":"success","type":"bool"},{"name":"returnData","type":"bytes"}],"name":"returnData","type":"tuple[]"}],"stateMutability":"payable","type":"function"},
{"inputs":[{"name":"addr","type":"address"}],"name":"getEthBalance","outputs":[{"name":"balance","type":"uint256"}],"stateMutability":"view","type":"function"}]`

func init() {
	var err error
	erc20ABI, err = abi.JSON(strings.NewReader(`[
{"inputs":[{"name":"account","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
{"inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"name":"allowance","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"}]`))
	if err != nil {
		panic(err)
	}
	multicallABI, err = abi.JSON(strings.NewReader(multicallJSON))
	if err != nil {
		panic(err)
	}
}

// TokenBalance returns the ERC-20 balance (smallest unit) of holder.
func TokenBalance(ctx context.Context, rpc *ethclient.Client, token, holder common.Address) (*big.Int, error) {
	data, err := erc20ABI.Pack("balanceOf", holder)
	if err != nil {
		return nil, err
	}

	output, err := rpc.CallContract(ctx, ethereum.CallMsg{
		To:   &token,
		Data: data,
	}, nil)
	if err != nil {
		return nil, err
	}

	if len(output) < 32 {
		return big.NewInt(0), nil
	}

	return new(big.Int).SetBytes(output), nil
}

// Allowance returns the amount the spender may currently move on behalf of
// the owner for the given ERC-20.
func Allowance(ctx context.Context, rpc *ethclient.Client, token, owner, spender common.Address) (*big.Int, error) {
	data, err := erc20ABI.Pack("allowance", owner, spender)
	if err != nil {
		return nil, err
	}

	output, err := rpc.CallContract(ctx, ethereum.CallMsg{
		To:   &token,
		Data: data,
	}, nil)
	if err != nil {
		return nil, err
	}

	if len(output) < 32 {
		return big.NewInt(0), nil
	}

	return new(big.Int).SetBytes(output), nil
}

// Balance returns the holder's balance of the given asset, dispatching to the
// native or ERC-20 path on the zero-address sentinel.
func Balance(ctx context.Context, rpc *ethclient.Client, asset swap.Asset, holder common.Address) (*big.Int, error) {
	if asset.IsNative() {
		return rpc.BalanceAt(ctx, holder, nil)
	}
	return TokenBalance(ctx, rpc, asset.Address, holder)
}

// PairBalance holds the native + token balances for one endpoint wallet.
type PairBalance struct {
	Address       string `json:"address"`
	Chain         string `json:"chain"`
	NativeBalance string `json:"native_balance"` // wei string
	TokenBalance  string `json:"token_balance"`  // smallest unit string
}

// FetchPair retrieves native and token balances for a holder in a single
// Multicall3 round trip.
func FetchPair(ctx context.Context, rpc *ethclient.Client, chain string, token, holder common.Address) (PairBalance, error) {
	type call3 struct {
		Target       common.Address
		AllowFailure bool
		CallData     []byte
	}

	ethBalData, err := multicallABI.Pack("getEthBalance", holder)
	if err != nil {
		return PairBalance{}, fmt.Errorf("packing getEthBalance: %w", err)
	}
	balOfData, err := erc20ABI.Pack("balanceOf", holder)
	if err != nil {
		return PairBalance{}, fmt.Errorf("packing balanceOf: %w", err)
	}

	calls := []call3{
		{Target: multicallAddr, AllowFailure: true, CallData: ethBalData},
		{Target: token, AllowFailure: true, CallData: balOfData},
	}

	callData, err := multicallABI.Pack("aggregate3", calls)
	if err != nil {
		return PairBalance{}, fmt.Errorf("packing aggregate3: %w", err)
	}

	output, err := rpc.CallContract(ctx, ethereum.CallMsg{
		To:   &multicallAddr,
		Data: callData,
	}, nil)
	if err != nil {
		return PairBalance{}, fmt.Errorf("calling aggregate3: %w", err)
	}

	decoded, err := multicallABI.Unpack("aggregate3", output)
	if err != nil {
		return PairBalance{}, fmt.Errorf("unpacking aggregate3: %w", err)
	}

	rawResults, ok := decoded[0].([]struct {
		Success    bool   `json:"success"`
		ReturnData []byte `json:"returnData"`
	})
	if !ok {
		return PairBalance{}, fmt.Errorf("unexpected aggregate3 return type")
	}

	native := big.NewInt(0)
	tok := big.NewInt(0)
	if len(rawResults) > 0 && rawResults[0].Success && len(rawResults[0].ReturnData) >= 32 {
		native.SetBytes(rawResults[0].ReturnData)
	}
	if len(rawResults) > 1 && rawResults[1].Success && len(rawResults[1].ReturnData) >= 32 {
		tok.SetBytes(rawResults[1].ReturnData)
	}

	return PairBalance{
		Address:       holder.Hex(),
		Chain:         chain,
		NativeBalance: native.String(),
		TokenBalance:  tok.String(),
	}, nil
}
