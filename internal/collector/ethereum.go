package collector

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"net/url"
	"strings"
	"time"

	"YieldSentinel/internal/model"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/shopspring/decimal"
)

const erc20ABI = `[
	{"constant":true,"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"symbol","outputs":[{"name":"","type":"string"}],"type":"function"}
]`

const (
	defaultDecimals = 18
	maxDecimals     = 255
)

var erc20 = mustParseABI(erc20ABI)

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(err)
	}
	return parsed
}

// ParseAddress accepts only 0x-prefixed 20-byte hex addresses.
func ParseAddress(s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	if len(s) != 42 || !strings.HasPrefix(s, "0x") || !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	return common.HexToAddress(s), nil
}

// EthSource implements BalanceSource over Ethereum JSON-RPC.
type EthSource struct {
	client  *ethclient.Client
	timeout time.Duration
	known   map[common.Address]model.Token
}

// NewEthSource dials rpcURL with optional proxy support. known supplies
// symbol/decimals fallbacks for contracts that do not answer the metadata calls.
func NewEthSource(ctx context.Context, rpcURL, proxyURL string, timeout time.Duration, known []model.Token) (*EthSource, error) {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	rc, err := rpc.DialOptions(ctx, rpcURL, rpc.WithHTTPClient(&http.Client{Transport: transport}))
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", rpcURL, err)
	}

	s := &EthSource{
		client:  ethclient.NewClient(rc),
		timeout: timeout,
		known:   make(map[common.Address]model.Token),
	}
	for _, t := range known {
		if t.Kind == model.KindERC20 && common.IsHexAddress(t.Contract) {
			s.known[common.HexToAddress(t.Contract)] = t
		}
	}
	return s, nil
}

func (s *EthSource) Name() string { return "ethereum-rpc" }

// Close releases the underlying RPC client.
func (s *EthSource) Close() { s.client.Close() }

func (s *EthSource) NativeBalance(ctx context.Context, owner string) (decimal.Decimal, error) {
	addr, err := ParseAddress(owner)
	if err != nil {
		return decimal.Zero, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	wei, err := s.client.BalanceAt(ctx, addr, nil)
	if err != nil {
		return decimal.Zero, classify("eth_getBalance", err)
	}
	return decimal.NewFromBigInt(wei, -defaultDecimals), nil
}

func (s *EthSource) TokenBalance(ctx context.Context, contract, owner string) (string, decimal.Decimal, error) {
	ownerAddr, err := ParseAddress(owner)
	if err != nil {
		return "", decimal.Zero, err
	}
	token, err := ParseAddress(contract)
	if err != nil {
		return "", decimal.Zero, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	data, err := erc20.Pack("balanceOf", ownerAddr)
	if err != nil {
		return "", decimal.Zero, fmt.Errorf("pack balanceOf: %w", err)
	}
	out, err := s.call(ctx, token, data)
	if err != nil {
		return "", decimal.Zero, err
	}
	raw := decodeUint(out)

	symbol, decimals, err := s.metadata(ctx, token)
	if err != nil {
		return "", decimal.Zero, err
	}
	return symbol, decimal.NewFromBigInt(raw, -int32(decimals)), nil
}

func (s *EthSource) metadata(ctx context.Context, token common.Address) (string, int, error) {
	known, isKnown := s.known[token]

	data, _ := erc20.Pack("decimals")
	out, err := s.call(ctx, token, data)
	if err != nil {
		return "", 0, err
	}
	if len(out) == 0 && isKnown {
		return known.Symbol, known.Decimals, nil
	}
	// decimals() is a uint8; a wider word is a broken contract.
	word := decodeUint(out)
	if !word.IsUint64() || word.Uint64() > maxDecimals {
		return "", 0, fmt.Errorf("decimals of %s: %w: out of range value %s", token.Hex(), ErrRemote, word)
	}
	decimals := int(word.Uint64())
	if decimals == 0 {
		decimals = defaultDecimals
	}

	data, _ = erc20.Pack("symbol")
	out, err = s.call(ctx, token, data)
	if err != nil {
		return "", 0, err
	}
	symbol := decodeSymbol(out)
	switch {
	case symbol != "":
	case isKnown:
		symbol = known.Symbol
	default:
		symbol = "TOKEN"
	}
	return symbol, decimals, nil
}

func (s *EthSource) call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	out, err := s.client.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, classify("eth_call", err)
	}
	return out, nil
}

func (s *EthSource) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// classify maps go-ethereum errors onto the package sentinels: a JSON-RPC
// error object is ErrRemote, everything else (HTTP status, network, timeout)
// is ErrTransport.
func classify(method string, err error) error {
	var httpErr rpc.HTTPError
	if errors.As(err, &httpErr) {
		return fmt.Errorf("%s: %w: %v", method, ErrTransport, err)
	}
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		return fmt.Errorf("%s: %w: %v", method, ErrRemote, err)
	}
	return fmt.Errorf("%s: %w: %v", method, ErrTransport, err)
}

func decodeUint(out []byte) *big.Int {
	if len(out) > 32 {
		out = out[:32]
	}
	return new(big.Int).SetBytes(out)
}

// decodeSymbol handles both the standard dynamic string and the legacy
// bytes32 return shape.
func decodeSymbol(out []byte) string {
	if len(out) == 0 {
		return ""
	}
	if vals, err := erc20.Unpack("symbol", out); err == nil && len(vals) == 1 {
		if s, ok := vals[0].(string); ok {
			return s
		}
	}
	if len(out) == 32 {
		return string(bytes.TrimRight(out, "\x00"))
	}
	return ""
}
