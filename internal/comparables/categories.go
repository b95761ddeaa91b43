package comparables

import (
	"regexp"
	"strings"
)

// categoryIDs maps provider display names to the slugs the market tool
// accepts where the slug cannot be derived from the name.
var categoryIDs = map[string]string{
	"Decentralized Finance (DeFi)": "decentralized-finance-defi",
	"Yield Farming":                "yield-farming",
	"BNB Chain Ecosystem":          "binance-smart-chain",
	"Lending/Borrowing Protocols":  "lending-borrowing",
	"Avalanche Ecosystem":          "avalanche-ecosystem",
	"Polygon Ecosystem":            "polygon-ecosystem",
	"Near Protocol Ecosystem":      "near-protocol-ecosystem",
	"Fantom Ecosystem":             "fantom-ecosystem",
	"Harmony Ecosystem":            "harmony-ecosystem",
	"Arbitrum Ecosystem":           "arbitrum-ecosystem",
	"Ethereum Ecosystem":           "ethereum-ecosystem",
	"Optimism Ecosystem":           "optimism-ecosystem",
	"Base Ecosystem":               "base-ecosystem",
	"Layer 1":                      "layer-1",
	"Smart Contract Platform":      "smart-contract-platform",
	"DEX":                          "decentralized-exchange",
	"Centralized Exchange (CEX)":   "centralized-exchange-token-cex",
	"Artificial Intelligence":      "artificial-intelligence",
	"Meme Token":                   "meme-token",
	"Dog Themed Coins":             "dog-themed-coins",
	"DePIN":                        "depin",
	"Infrastructure":               "infrastructure",
	"Liquid Staking":               "liquid-staking",
	"Proof of Stake (PoS)":         "proof-of-stake-pos",
	"Proof of Work (PoW)":          "proof-of-work-pow",
}

var (
	parenthetical = regexp.MustCompile(`\s*\([^)]*\)`)
	whitespace    = regexp.MustCompile(`\s+`)
	hyphenRuns    = regexp.MustCompile(`-+`)
)

// CategoryID translates a category display name into a provider slug.
func CategoryID(displayName string) string {
	if id, ok := categoryIDs[displayName]; ok {
		return id
	}
	return Slugify(displayName)
}

// Slugify lowercases name, drops parenthesized text and joins words with hyphens.
// "Layer 1 (L1)" becomes "layer-1".
func Slugify(name string) string {
	s := strings.ToLower(name)
	s = parenthetical.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "/", "-")
	s = whitespace.ReplaceAllString(s, "-")
	s = hyphenRuns.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
