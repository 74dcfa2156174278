package model

// TokenKind tells how a token balance is read on chain.
type TokenKind string

const (
	KindNative TokenKind = "native"
	KindERC20  TokenKind = "erc20"
)

// Token describes one watchable asset.
type Token struct {
	Symbol   string    `yaml:"symbol" json:"symbol"`
	Kind     TokenKind `yaml:"kind" json:"kind"`
	Contract string    `yaml:"contract" json:"contract,omitempty"`
	// Decimals is the fallback used when the contract does not answer decimals().
	Decimals int `yaml:"decimals" json:"decimals"`
}
