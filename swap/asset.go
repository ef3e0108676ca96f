package swap

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ZeroAddress is the native-asset sentinel: the all-zero address stands for
// the chain's native coin rather than an ERC-20 contract.
var ZeroAddress = common.Address{}

var hexAddrRe = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// Asset identifies a token on a specific network.
type Asset struct {
	Network  string
	Address  common.Address // zero for the native asset
	Symbol   string
	Decimals int
}

// ParseAddress validates and parses a token address. The zero address is
// accepted as the native sentinel; anything else must be 40 hex characters.
func ParseAddress(s string) (common.Address, error) {
	if !hexAddrRe.MatchString(s) {
		return common.Address{}, fmt.Errorf("invalid token address %q", s)
	}
	return common.HexToAddress(s), nil
}

// IsNative returns true if the asset is the chain's native coin.
func (a Asset) IsNative() bool {
	return a.Address == ZeroAddress
}

// String returns the asset as NETWORK.SYMBOL or NETWORK.SYMBOL-0xCONTRACT.
func (a Asset) String() string {
	chain := strings.ToUpper(a.Network)
	if a.IsNative() {
		return fmt.Sprintf("%s.%s", chain, strings.ToUpper(a.Symbol))
	}
	return fmt.Sprintf("%s.%s-%s", chain, strings.ToUpper(a.Symbol), a.Address.Hex())
}
