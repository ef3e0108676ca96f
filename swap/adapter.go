package swap

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Aggregator responses are not uniform: depending on the route type the
// meaningful trade object may sit at the top level or nested one level under
// "trade", "crossChain", or "onChainTrade", and field names for the approval
// spender vary by provider generation. NormalizeTrade flattens all supported
// shapes into TradeFields once, at the quote boundary.

// TxRequest is a prepared transaction embedded in an aggregator payload.
type TxRequest struct {
	To    common.Address
	Data  []byte
	Value *big.Int
}

// TradeFields is the normalized view of one raw aggregator trade payload.
type TradeFields struct {
	ProviderTag      string
	OutputAmount     *big.Int // smallest units; zero when unparseable
	OutputDisplay    string   // raw decimal string as reported
	Spender          common.Address
	HasSpender       bool
	ApprovalRequired *bool // nil when the payload carries no signal
	Tx               *TxRequest
}

// nested object search order, per the shapes the aggregator is known to emit.
// "onChainTrade" is consulted for the spender address only.
var nestKeys = []string{"trade", "", "crossChain"}

const spenderOnlyKey = "onChainTrade"

var spenderKeys = []string{"spenderAddress", "contractAddress", "approveAddress", "routerAddress"}
var approvalKeys = []string{"needApprove", "needsApprove", "approveRequired"}
var providerKeys = []string{"provider", "type", "tradeType", "dexName"}

// NormalizeTrade extracts the canonical trade fields from a raw payload.
// destDecimals is the destination token precision used to scale the output.
func NormalizeTrade(raw map[string]any, destDecimals int) (TradeFields, error) {
	if raw == nil {
		return TradeFields{}, fmt.Errorf("empty trade payload")
	}

	candidates := make([]map[string]any, 0, 3)
	for _, key := range nestKeys {
		if key == "" {
			candidates = append(candidates, raw)
			continue
		}
		if sub, ok := raw[key].(map[string]any); ok {
			candidates = append(candidates, sub)
		}
	}

	var f TradeFields

	for _, c := range candidates {
		if f.OutputDisplay == "" {
			if to, ok := c["to"].(map[string]any); ok {
				if amt, ok := to["tokenAmount"].(string); ok && amt != "" {
					f.OutputDisplay = amt
				}
			}
		}
		if f.ProviderTag == "" {
			for _, k := range providerKeys {
				if v, ok := c[k].(string); ok && v != "" {
					f.ProviderTag = v
					break
				}
			}
		}
		if f.ApprovalRequired == nil {
			for _, k := range approvalKeys {
				if v, ok := c[k].(bool); ok {
					b := v
					f.ApprovalRequired = &b
					break
				}
			}
		}
		if !f.HasSpender {
			f.Spender, f.HasSpender = findSpender(c)
		}
		if f.Tx == nil {
			f.Tx = findTx(c)
		}
	}

	// Address-only fallback nesting level.
	if !f.HasSpender {
		if sub, ok := raw[spenderOnlyKey].(map[string]any); ok {
			f.Spender, f.HasSpender = findSpender(sub)
		}
	}

	f.OutputAmount = ParseDecimal(f.OutputDisplay, destDecimals)
	return f, nil
}

func findSpender(c map[string]any) (common.Address, bool) {
	for _, k := range spenderKeys {
		s, ok := c[k].(string)
		if !ok {
			continue
		}
		addr, err := ParseAddress(s)
		if err != nil || addr == ZeroAddress {
			continue
		}
		return addr, true
	}
	return common.Address{}, false
}

func findTx(c map[string]any) *TxRequest {
	var obj map[string]any
	if sub, ok := c["transaction"].(map[string]any); ok {
		obj = sub
	} else if sub, ok := c["tx"].(map[string]any); ok {
		obj = sub
	} else {
		return nil
	}

	toStr, _ := obj["to"].(string)
	to, err := ParseAddress(toStr)
	if err != nil {
		return nil
	}

	dataStr, _ := obj["data"].(string)
	data, err := hexutil.Decode(dataStr)
	if err != nil {
		return nil
	}

	value := new(big.Int)
	switch v := obj["value"].(type) {
	case string:
		if v != "" {
			if parsed, ok := new(big.Int).SetString(v, 10); ok {
				value = parsed
			}
		}
	case float64:
		value.SetInt64(int64(v))
	}

	return &TxRequest{To: to, Data: data, Value: value}
}
