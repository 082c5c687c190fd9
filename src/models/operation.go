package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AssetType classifies the traded instrument for tax purposes.
type AssetType string

const (
	AssetAcao   AssetType = "acao"
	AssetETF    AssetType = "etf"
	AssetFII    AssetType = "fii"
	AssetBDR    AssetType = "bdr"
	AssetOpcao  AssetType = "opcao"
	AssetCripto AssetType = "cripto"
)

// AssetTypes lists every recognized asset type, in display order.
var AssetTypes = []AssetType{AssetAcao, AssetETF, AssetFII, AssetBDR, AssetOpcao, AssetCripto}

func (a AssetType) Valid() bool {
	switch a {
	case AssetAcao, AssetETF, AssetFII, AssetBDR, AssetOpcao, AssetCripto:
		return true
	}
	return false
}

// OperationType distinguishes purchases from sales.
type OperationType string

const (
	OperationBuy  OperationType = "compra"
	OperationSell OperationType = "venda"
)

var OperationTypes = []OperationType{OperationBuy, OperationSell}

func (o OperationType) Valid() bool {
	return o == OperationBuy || o == OperationSell
}

// TradeCategory separates swing trades (buy and sell on different days)
// from day trades, which follow their own rate and retention rules.
type TradeCategory string

const (
	SwingTrade TradeCategory = "swing_trade"
	DayTrade   TradeCategory = "day_trade"
)

var TradeCategories = []TradeCategory{SwingTrade, DayTrade}

func (t TradeCategory) Valid() bool {
	return t == SwingTrade || t == DayTrade
}

// Operation is an immutable record of a single buy or sell.
// OperationDate uses the YYYY-MM-DD format; for buys TotalCost includes
// brokerage fees and is the cost-basis contribution, while sell proceeds
// are always Quantity * UnitPrice.
type Operation struct {
	ID            string          `json:"id"`
	AssetCode     string          `json:"asset_code"`
	AssetType     AssetType       `json:"asset_type"`
	TradeCategory TradeCategory   `json:"trade_category"`
	OperationType OperationType   `json:"operation_type"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	TotalCost     decimal.Decimal `json:"total_cost"`
	OperationDate string          `json:"operation_date"`
	CreatedAt     string          `json:"created_at,omitempty"`
}

// NormalizedAssetCode returns the asset code in its canonical uppercase form.
func (op Operation) NormalizedAssetCode() string {
	return strings.ToUpper(strings.TrimSpace(op.AssetCode))
}

// DateFormat is the canonical layout for OperationDate.
const DateFormat = "2006-01-02"

// ErrInvalidOperation marks an operation that fails the engine's
// data-integrity checks and must be excluded from any recompute.
var ErrInvalidOperation = errors.New("invalid operation")

// Validate checks the operation against the engine's contract. It returns
// the first violation wrapped in ErrInvalidOperation, or nil.
func (op Operation) Validate() error {
	switch {
	case op.NormalizedAssetCode() == "":
		return fmt.Errorf("%w: asset code is empty", ErrInvalidOperation)
	case !op.AssetType.Valid():
		return fmt.Errorf("%w: unknown asset type %q", ErrInvalidOperation, op.AssetType)
	case !op.TradeCategory.Valid():
		return fmt.Errorf("%w: unknown trade category %q", ErrInvalidOperation, op.TradeCategory)
	case !op.OperationType.Valid():
		return fmt.Errorf("%w: unknown operation type %q", ErrInvalidOperation, op.OperationType)
	case !op.Quantity.IsPositive():
		return fmt.Errorf("%w: quantity must be positive", ErrInvalidOperation)
	case !op.UnitPrice.IsPositive():
		return fmt.Errorf("%w: unit price must be positive", ErrInvalidOperation)
	case op.TotalCost.IsNegative():
		return fmt.Errorf("%w: total cost must not be negative", ErrInvalidOperation)
	}
	if _, err := time.Parse(DateFormat, op.OperationDate); err != nil {
		return fmt.Errorf("%w: invalid operation date %q", ErrInvalidOperation, op.OperationDate)
	}
	return nil
}
