package types

import (
	"regexp"
	"sort"
)

const (
	LumaTokenSymbol = "LMT"

	DefaultTokenDecimals int32 = 8
)

type TokenInfo struct {
	Symbol   string `json:"symbol"`
	Decimals int32  `json:"decimals"`
}

var (
	tokenSymbolRegex = regexp.MustCompile(`^[A-Z][A-Z0-9]{1,9}$`)

	knownTokens = map[string]TokenInfo{
		LumaTokenSymbol: {Symbol: LumaTokenSymbol, Decimals: 8},
	}
)

func IsValidTokenSymbol(symbol string) bool {
	return tokenSymbolRegex.MatchString(symbol)
}

// GetTokenInfo returns the registered token, unknown symbols get DefaultTokenDecimals.
func GetTokenInfo(symbol string) TokenInfo {
	if t, ok := knownTokens[symbol]; ok {
		return t
	}
	return TokenInfo{Symbol: symbol, Decimals: DefaultTokenDecimals}
}

func SortedSymbols(m map[string]Amount) []string {
	symbols := make([]string, 0, len(m))
	for s := range m {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}
