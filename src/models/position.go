package models

import "github.com/shopspring/decimal"

// Position is the running cost-basis state for one asset code. It is
// owned exclusively by the position processor during a recompute pass
// and never mutated after the pass is published.
type Position struct {
	AssetCode       string          `json:"asset_code"`
	AssetType       AssetType       `json:"asset_type"`
	HeldQuantity    decimal.Decimal `json:"held_quantity"`
	AverageUnitCost decimal.Decimal `json:"average_unit_cost"`
}

// RealizedResult is the outcome of a single sell, immutable once produced.
// GainLoss is Proceeds - CostBasisConsumed; IRRetained is tax withheld at
// source on the sale (the day-trade "dedo-duro"), possibly zero.
type RealizedResult struct {
	AssetCode         string          `json:"asset_code"`
	AssetType         AssetType       `json:"asset_type"`
	TradeCategory     TradeCategory   `json:"trade_category"`
	OperationDate     string          `json:"operation_date"`
	Quantity          decimal.Decimal `json:"quantity"`
	Proceeds          decimal.Decimal `json:"proceeds"`
	CostBasisConsumed decimal.Decimal `json:"cost_basis_consumed"`
	GainLoss          decimal.Decimal `json:"gain_loss"`
	IRRetained        decimal.Decimal `json:"ir_retained"`
}

// InvalidOperation records one operation that was excluded from a
// recompute pass, together with the reason it failed validation.
type InvalidOperation struct {
	OperationID string `json:"operation_id"`
	AssetCode   string `json:"asset_code"`
	Reason      string `json:"reason"`
}

// RecomputeResult is the full output of one position recompute pass over
// the complete operation history. Two passes over the same history are
// guaranteed to produce identical results.
type RecomputeResult struct {
	Positions map[string]*Position `json:"positions"`
	Realized  []RealizedResult     `json:"realized"`
	Skipped   []InvalidOperation   `json:"skipped,omitempty"`
}
