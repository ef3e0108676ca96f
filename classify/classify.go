// Package classify maps arbitrary swap errors to a small set of user-facing
// categories. Aggregator and RPC failures arrive in wildly different forms:
// wrapped causes, provider wrapper prefixes, or signals buried in a serialized
// payload. Classification walks the whole chain before giving up.
package classify

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// Category is a user-facing error category.
type Category string

const (
	UserRejected          Category = "user_rejected"
	InsufficientFunds     Category = "insufficient_funds"
	InsufficientLiquidity Category = "insufficient_liquidity"
	SlippageTooLow        Category = "slippage_too_low"
	AmountTooHigh         Category = "amount_too_high"
	AmountTooLow          Category = "amount_too_low"
	RatesUpdated          Category = "rates_updated"
	WalletNotConnected    Category = "wallet_not_connected"
	NetworkError          Category = "network_error"
	ApprovalFailed        Category = "approval_failed"
	SwapFailed            Category = "swap_failed"
	NoRouteFound          Category = "no_route_found"
	Unknown               Category = "unknown"
)

// Outcome is the classified result shown to the user.
type Outcome struct {
	Category Category
	Title    string
	Message  string
	Warning  bool // true for outcomes that are not really errors (e.g. rejection)
}

// crossChainWrap is the provider wrapper prefix stripped to surface the inner
// cause in fallback messages.
const crossChainWrap = "cross-chain swap failed:"

var walletPrefixes = []string{
	"metamask tx signature:",
	"returned error:",
	"rpc error:",
	"execution reverted:",
	"error:",
}

var (
	addrRe = regexp.MustCompile(`0x[0-9a-fA-F]{40}`)
	urlRe  = regexp.MustCompile(`https?://\S+`)
)

type pattern struct {
	category Category
	title    string
	warning  bool
	phrases  []string
}

// patterns are checked in order; the first match across the error chain wins.
var patterns = []pattern{
	{UserRejected, "Transaction rejected", true, []string{
		"user rejected", "user denied", "rejected the request",
		"action_rejected", "request rejected", "code 4001",
	}},
	{InsufficientFunds, "Insufficient funds", false, []string{
		"insufficient funds", "insufficient balance", "exceeds balance",
		"transfer amount exceeds", "not enough funds",
	}},
	{NetworkError, "Network error", false, []string{
		"network error", "cors", "failed to fetch", "connection refused",
		"connection reset", "service unavailable", "deadline exceeded",
		"api error",
	}},
	{InsufficientLiquidity, "Insufficient liquidity", false, []string{
		"insufficient liquidity", "no liquidity",
	}},
	{SlippageTooLow, "Slippage too low", false, []string{
		"slippage", "return amount is not enough", "min return",
	}},
	{AmountTooHigh, "Amount too high", false, []string{
		"amount is too high", "exceeds maximum", "above maximum",
	}},
	{AmountTooLow, "Amount too low", false, []string{
		"amount is too low", "less than minimum", "below minimum",
	}},
	{RatesUpdated, "Rates updated", true, []string{
		"rates updated", "price changed", "quote expired",
	}},
	{WalletNotConnected, "Wallet not connected", false, []string{
		"wallet not connected", "no wallet", "not connected",
	}},
	{NoRouteFound, "No routes found", false, []string{
		"no routes", "no route found", "no trades available",
	}},
}

// Classify maps err to an Outcome. The error chain is unwrapped recursively;
// when no structured text matches, a JSON-serialized form of the error is
// scanned as a last resort before the generic fallback.
func Classify(err error) Outcome {
	if err == nil {
		return Outcome{Category: Unknown, Title: "Swap failed", Message: "Unknown error"}
	}

	texts := chainTexts(err)
	for _, p := range patterns {
		for _, text := range texts {
			if matchesAny(text, p.phrases) {
				return Outcome{
					Category: p.category,
					Title:    p.title,
					Message:  CleanMessage(pickMessage(texts, p.phrases)),
					Warning:  p.warning,
				}
			}
		}
	}

	// Some SDK errors carry the signal only inside a serialized payload.
	if serialized := serializeError(err); serialized != "" {
		for _, p := range patterns {
			if matchesAny(serialized, p.phrases) {
				return Outcome{
					Category: p.category,
					Title:    p.title,
					Message:  CleanMessage(err.Error()),
					Warning:  p.warning,
				}
			}
		}
	}

	// Generic fallback: surface the innermost cause of a wrapped
	// cross-chain failure rather than the wrapper itself.
	msg := err.Error()
	if idx := strings.Index(strings.ToLower(msg), crossChainWrap); idx != -1 {
		msg = strings.TrimSpace(msg[idx+len(crossChainWrap):])
	}
	return Outcome{Category: SwapFailed, Title: "Swap failed", Message: CleanMessage(msg)}
}

// ClassifyApproval is Classify with ApprovalFailed substituted for the
// generic fallback category.
func ClassifyApproval(err error) Outcome {
	out := Classify(err)
	if out.Category == SwapFailed {
		out.Category = ApprovalFailed
		out.Title = "Approval failed"
	}
	return out
}

// chainTexts collects the lowercased message of every error in the chain.
func chainTexts(err error) []string {
	var texts []string
	seen := 0
	for err != nil && seen < 16 {
		texts = append(texts, strings.ToLower(err.Error()))
		err = errors.Unwrap(err)
		seen++
	}
	return texts
}

func matchesAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}

// pickMessage returns the innermost chain text that matched, so the message
// shown is the cause rather than the outermost wrapper.
func pickMessage(texts []string, phrases []string) string {
	for i := len(texts) - 1; i >= 0; i-- {
		if matchesAny(texts[i], phrases) {
			return texts[i]
		}
	}
	return texts[0]
}

func serializeError(err error) string {
	data, jsonErr := json.Marshal(err)
	if jsonErr != nil || string(data) == "{}" {
		return strings.ToLower(fmt.Sprintf("%+v", err))
	}
	return strings.ToLower(string(data))
}

// CleanMessage normalizes a raw error message for display: wallet prefixes
// stripped, hex addresses redacted, URLs removed, first letter capitalized.
func CleanMessage(msg string) string {
	msg = strings.TrimSpace(msg)
	for {
		stripped := false
		lower := strings.ToLower(msg)
		for _, prefix := range walletPrefixes {
			if strings.HasPrefix(lower, prefix) {
				msg = strings.TrimSpace(msg[len(prefix):])
				stripped = true
				break
			}
		}
		if !stripped {
			break
		}
	}

	msg = addrRe.ReplaceAllString(msg, "[address]")
	msg = urlRe.ReplaceAllString(msg, "")
	msg = strings.Join(strings.Fields(msg), " ")

	if msg == "" {
		return "Unknown error"
	}

	runes := []rune(msg)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
