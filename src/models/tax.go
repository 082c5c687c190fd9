package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Lane identifies one loss-carryforward lane: losses of a given asset
// type and trade category only offset later profits in the same lane.
type Lane struct {
	AssetType     AssetType     `json:"asset_type"`
	TradeCategory TradeCategory `json:"trade_category"`
}

func (l Lane) String() string {
	return fmt.Sprintf("%s/%s", l.AssetType, l.TradeCategory)
}

// MonthlyBucket aggregates the realized sell results of one lane in one
// calendar month. Months without sells produce no bucket at all.
type MonthlyBucket struct {
	Year            int             `json:"year"`
	Month           int             `json:"month"`
	AssetType       AssetType       `json:"asset_type"`
	TradeCategory   TradeCategory   `json:"trade_category"`
	TotalSales      decimal.Decimal `json:"total_sales"`
	NetResult       decimal.Decimal `json:"net_result"`
	IRRetainedTotal decimal.Decimal `json:"ir_retained_total"`
}

// Lane returns the loss-carryforward lane this bucket belongs to.
func (b MonthlyBucket) Lane() Lane {
	return Lane{AssetType: b.AssetType, TradeCategory: b.TradeCategory}
}

// LossCarryState accumulates unabsorbed losses per lane across months.
// Values are never negative; a lane absent from the map carries nothing.
type LossCarryState map[Lane]decimal.Decimal

// TaxComputation is the tax outcome for one monthly bucket.
type TaxComputation struct {
	Year             int             `json:"year"`
	Month            int             `json:"month"`
	AssetType        AssetType       `json:"asset_type"`
	TradeCategory    TradeCategory   `json:"trade_category"`
	TotalSales       decimal.Decimal `json:"total_sales"`
	TaxableProfit    decimal.Decimal `json:"taxable_profit"`
	TaxRate          decimal.Decimal `json:"tax_rate"`
	TaxDue           decimal.Decimal `json:"tax_due"`
	IRRetained       decimal.Decimal `json:"ir_retained"`
	NetTaxDue        decimal.Decimal `json:"net_tax_due"`
	ExemptionApplied bool            `json:"exemption_applied"`
}

// TaxResult is the full output of one tax computation pass: every bucket's
// computation plus the loss-carry state left after the final month. Both
// are freshly built per pass and never shared between passes.
type TaxResult struct {
	Computations []TaxComputation `json:"computations"`
	LossCarry    LossCarryState   `json:"loss_carry"`
}

// DARFReport is the payable summary for one requested (year, month).
type DARFReport struct {
	Year     int              `json:"year"`
	Month    int              `json:"month"`
	Items    []TaxComputation `json:"items"`
	TotalDue decimal.Decimal  `json:"total_due"`
}

// PortfolioSummary is the dashboard view derived from a recompute pass:
// open positions valued at average cost plus realized profit to date.
type PortfolioSummary struct {
	TotalInvested      decimal.Decimal            `json:"total_invested"`
	TotalCurrentValue  decimal.Decimal            `json:"total_current_value"`
	TotalRealizedGain  decimal.Decimal            `json:"total_realized_gain"`
	AssetsDistribution map[string]decimal.Decimal `json:"assets_distribution"`
}
