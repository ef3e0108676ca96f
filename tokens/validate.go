package tokens

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/openbridge/swapd/swap"
)

const erc20MetaABI = `[
	{"inputs":[],"name":"name","outputs":[{"name":"","type":"string"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"symbol","outputs":[{"name":"","type":"string"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"stateMutability":"view","type":"function"}
]`

var metaABI = mustParseABI(erc20MetaABI)

func mustParseABI(s string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(s))
	if err != nil {
		panic(err)
	}
	return parsed
}

// Validate confirms that addr hosts an ERC-20 contract on the network and
// returns its on-chain metadata. A registry hit short-circuits the RPC
// round trips.
func Validate(ctx context.Context, rpc *ethclient.Client, network string, addr common.Address) (Token, error) {
	if t, ok := Lookup(network, addr); ok {
		return t, nil
	}

	code, err := rpc.CodeAt(ctx, addr, nil)
	if err != nil {
		return Token{}, fmt.Errorf("checking contract code: %w", err)
	}
	if len(code) == 0 {
		return Token{}, fmt.Errorf("no contract at %s on %s", addr.Hex(), network)
	}

	name, err := callString(ctx, rpc, addr, "name")
	if err != nil {
		return Token{}, fmt.Errorf("token name: %w", err)
	}
	symbol, err := callString(ctx, rpc, addr, "symbol")
	if err != nil {
		return Token{}, fmt.Errorf("token symbol: %w", err)
	}
	decimals, err := callDecimals(ctx, rpc, addr)
	if err != nil {
		return Token{}, fmt.Errorf("token decimals: %w", err)
	}

	return Token{
		Asset: swap.Asset{
			Network:  network,
			Address:  addr,
			Symbol:   symbol,
			Decimals: decimals,
		},
		Name: name,
	}, nil
}

func callString(ctx context.Context, rpc *ethclient.Client, addr common.Address, method string) (string, error) {
	data, err := metaABI.Pack(method)
	if err != nil {
		return "", err
	}
	out, err := rpc.CallContract(ctx, ethereum.CallMsg{To: &addr, Data: data}, nil)
	if err != nil {
		return "", err
	}
	var s string
	if err := metaABI.UnpackIntoInterface(&s, method, out); err != nil {
		return "", err
	}
	return s, nil
}

func callDecimals(ctx context.Context, rpc *ethclient.Client, addr common.Address) (int, error) {
	data, err := metaABI.Pack("decimals")
	if err != nil {
		return 0, err
	}
	out, err := rpc.CallContract(ctx, ethereum.CallMsg{To: &addr, Data: data}, nil)
	if err != nil {
		return 0, err
	}
	var d uint8
	if err := metaABI.UnpackIntoInterface(&d, "decimals", out); err != nil {
		return 0, err
	}
	return int(d), nil
}
