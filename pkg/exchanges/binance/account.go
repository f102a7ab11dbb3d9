package binance

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"github.com/LeonardoVieira1630/Quan-Digital/pkg/exchanges/interfaces"
	"github.com/LeonardoVieira1630/Quan-Digital/pkg/logging"
)

// MinOrderQuantity is the smallest base-asset order size the exchange
// accepts on the BTC contract, and the resolution QuantityFromUSD
// truncates to.
var MinOrderQuantity = decimal.New(1, -3)

// Ping checks REST connectivity. Usable before Connect.
func (c *Connector) Ping(ctx context.Context) error {
	_, err := c.doPublic(ctx, "/fapi/v1/ping", nil)
	return err
}

// ServerTime returns the exchange's clock. Usable before Connect.
func (c *Connector) ServerTime(ctx context.Context) (time.Time, error) {
	data, err := c.doPublic(ctx, "/fapi/v1/time", nil)
	if err != nil {
		return time.Time{}, err
	}
	var payload struct {
		ServerTime int64 `json:"serverTime"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return time.Time{}, fmt.Errorf("failed to decode server time: %w", err)
	}
	return time.UnixMilli(payload.ServerTime).UTC(), nil
}

// GetTicker returns the most recent traded price for the symbol.
func (c *Connector) GetTicker(ctx context.Context, symbol string) (*interfaces.Ticker, error) {
	if err := c.requireConnected(); err != nil {
		return nil, err
	}
	if symbol == "" {
		return nil, interfaces.ErrInvalidSymbol
	}
	p := newParams().Add("symbol", strings.ToUpper(symbol))
	data, err := c.doPublic(ctx, "/fapi/v1/ticker/price", p)
	if err != nil {
		return nil, err
	}
	var payload struct {
		Symbol string          `json:"symbol"`
		Price  decimal.Decimal `json:"price"`
		Time   int64           `json:"time"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode ticker: %w", err)
	}
	return &interfaces.Ticker{
		Symbol:    payload.Symbol,
		LastPrice: payload.Price.InexactFloat64(),
		Time:      time.UnixMilli(payload.Time).UTC(),
	}, nil
}

// PositionRisk returns the open position state for the symbol, one entry
// per position side in hedge mode, a single BOTH entry in one-way mode.
// Flat symbols still produce entries with a zero amount.
func (c *Connector) PositionRisk(ctx context.Context, symbol string) ([]interfaces.Position, error) {
	if err := c.requireConnected(); err != nil {
		return nil, err
	}
	p := newParams()
	if symbol != "" {
		p.Add("symbol", strings.ToUpper(symbol))
	}
	data, err := c.doSigned(ctx, http.MethodGet, "/fapi/v2/positionRisk", p)
	if err != nil {
		return nil, err
	}
	var payload []struct {
		Symbol           string          `json:"symbol"`
		PositionSide     string          `json:"positionSide"`
		PositionAmt      decimal.Decimal `json:"positionAmt"`
		EntryPrice       decimal.Decimal `json:"entryPrice"`
		MarkPrice        decimal.Decimal `json:"markPrice"`
		UnrealizedProfit decimal.Decimal `json:"unRealizedProfit"`
		LiquidationPrice decimal.Decimal `json:"liquidationPrice"`
		Leverage         string          `json:"leverage"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode position risk: %w", err)
	}
	positions := make([]interfaces.Position, 0, len(payload))
	for _, entry := range payload {
		leverage, _ := strconv.Atoi(entry.Leverage)
		positions = append(positions, interfaces.Position{
			Symbol:           entry.Symbol,
			PositionSide:     interfaces.PositionSide(entry.PositionSide),
			Amount:           entry.PositionAmt,
			EntryPrice:       entry.EntryPrice,
			MarkPrice:        entry.MarkPrice,
			UnrealizedProfit: entry.UnrealizedProfit,
			LiquidationPrice: entry.LiquidationPrice,
			Leverage:         leverage,
		})
	}
	return positions, nil
}

// SetHedgeMode switches the account between hedge mode (LONG and SHORT
// tracked independently) and one-way mode. The exchange rejects a switch
// to the mode already active; that rejection is folded into success since
// the account is in the requested state either way.
func (c *Connector) SetHedgeMode(ctx context.Context, enabled bool) error {
	if err := c.requireConnected(); err != nil {
		return err
	}
	p := newParams().Add("dualSidePosition", strconv.FormatBool(enabled))
	_, err := c.doSigned(ctx, http.MethodPost, "/fapi/v1/positionSide/dual", p)
	if err != nil {
		if exchErr, ok := interfaces.AsExchangeError(err); ok &&
			exchErr.Kind == interfaces.KindPositionSideUnchanged {
			return nil
		}
		return err
	}
	c.logger.Info("position mode changed", logging.Bool("hedge_mode", enabled))
	return nil
}

// HedgeMode reports whether the account is in hedge mode.
func (c *Connector) HedgeMode(ctx context.Context) (bool, error) {
	if err := c.requireConnected(); err != nil {
		return false, err
	}
	data, err := c.doSigned(ctx, http.MethodGet, "/fapi/v1/positionSide/dual", newParams())
	if err != nil {
		return false, err
	}
	var payload struct {
		DualSidePosition bool `json:"dualSidePosition"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return false, fmt.Errorf("failed to decode position mode: %w", err)
	}
	return payload.DualSidePosition, nil
}

// AccountBalance returns every asset balance in the futures wallet.
func (c *Connector) AccountBalance(ctx context.Context) ([]interfaces.Balance, error) {
	if err := c.requireConnected(); err != nil {
		return nil, err
	}
	data, err := c.doSigned(ctx, http.MethodGet, "/fapi/v2/balance", newParams())
	if err != nil {
		return nil, err
	}
	var payload []struct {
		Asset            string          `json:"asset"`
		Balance          decimal.Decimal `json:"balance"`
		AvailableBalance decimal.Decimal `json:"availableBalance"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode balances: %w", err)
	}
	balances := make([]interfaces.Balance, 0, len(payload))
	for _, entry := range payload {
		balances = append(balances, interfaces.Balance{
			Asset:     entry.Asset,
			Balance:   entry.Balance,
			Available: entry.AvailableBalance,
		})
	}
	return balances, nil
}

// AssetBalance returns the wallet balance of a single asset, zero when
// the asset is absent from the wallet.
func (c *Connector) AssetBalance(ctx context.Context, asset string) (decimal.Decimal, error) {
	balances, err := c.AccountBalance(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	asset = strings.ToUpper(asset)
	for _, balance := range balances {
		if balance.Asset == asset {
			return balance.Balance, nil
		}
	}
	return decimal.Zero, nil
}

// QuantityFromUSD converts a USD notional into a base-asset quantity at
// the current ticker price, truncated to the exchange's quantity step.
// Truncation, not rounding: the result must never spend more than the
// notional. Notionals too small to reach a tradeable size are an error
// rather than a zero-quantity order the exchange would reject.
func (c *Connector) QuantityFromUSD(ctx context.Context, symbol string, usd decimal.Decimal) (decimal.Decimal, error) {
	ticker, err := c.GetTicker(ctx, symbol)
	if err != nil {
		return decimal.Zero, err
	}
	price := decimal.NewFromFloat(ticker.LastPrice)
	if price.Sign() <= 0 {
		return decimal.Zero, interfaces.NewMarketError(symbol, "no market price", nil)
	}
	quantity := usd.Div(price).RoundDown(3)
	if quantity.LessThan(MinOrderQuantity) {
		return decimal.Zero, interfaces.NewMarketError(symbol,
			fmt.Sprintf("%s USD buys less than the minimum order quantity of %s", usd, MinOrderQuantity), nil)
	}
	return quantity, nil
}

// ExchangeInfo is the subset of exchange metadata the connector exposes.
type ExchangeInfo struct {
	Timezone   string       `json:"timezone"`
	ServerTime int64        `json:"serverTime"`
	Symbols    []SymbolInfo `json:"symbols"`
}

// SymbolInfo describes one tradeable contract.
type SymbolInfo struct {
	Symbol            string `json:"symbol"`
	Status            string `json:"status"`
	BaseAsset         string `json:"baseAsset"`
	QuoteAsset        string `json:"quoteAsset"`
	PricePrecision    int    `json:"pricePrecision"`
	QuantityPrecision int    `json:"quantityPrecision"`
}

// GetExchangeInfo returns trading rules and symbol metadata. Usable
// before Connect.
func (c *Connector) GetExchangeInfo(ctx context.Context) (*ExchangeInfo, error) {
	data, err := c.doPublic(ctx, "/fapi/v1/exchangeInfo", nil)
	if err != nil {
		return nil, err
	}
	var info ExchangeInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to decode exchange info: %w", err)
	}
	return &info, nil
}
