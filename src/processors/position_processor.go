package processors

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/username/darfolio/backend/src/models"
	"github.com/username/darfolio/backend/src/taxrules"
)

// PositionProcessor replays the complete operation history and maintains
// one weighted-average cost position per asset. It is stateless between
// calls: every recompute starts from an empty position map, so the same
// history always produces the same positions and realized results.
type PositionProcessor struct {
	rules *taxrules.Resolver
}

func NewPositionProcessor(rules *taxrules.Resolver) *PositionProcessor {
	return &PositionProcessor{rules: rules}
}

// Recompute replays the full operation set in chronological order.
// Operations that fail validation are excluded and reported in
// RecomputeResult.Skipped; the remaining operations still recompute.
// A sell exceeding the held quantity aborts the whole pass with
// ErrInsufficientPosition, since continuing would misstate liability.
func (p *PositionProcessor) Recompute(ops []models.Operation) (*models.RecomputeResult, error) {
	// Sort a copy, stably: same-day operations keep their insertion order.
	sorted := make([]models.Operation, len(ops))
	copy(sorted, ops)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].OperationDate < sorted[j].OperationDate
	})

	result := &models.RecomputeResult{
		Positions: make(map[string]*models.Position),
		Realized:  []models.RealizedResult{},
	}

	for _, op := range sorted {
		if err := op.Validate(); err != nil {
			result.Skipped = append(result.Skipped, models.InvalidOperation{
				OperationID: op.ID,
				AssetCode:   op.NormalizedAssetCode(),
				Reason:      err.Error(),
			})
			continue
		}

		code := op.NormalizedAssetCode()
		switch op.OperationType {
		case models.OperationBuy:
			pos, ok := result.Positions[code]
			if !ok {
				// Positions are created lazily on the first buy.
				pos = &models.Position{AssetCode: code, AssetType: op.AssetType}
				result.Positions[code] = pos
			}
			applyBuy(pos, op)
		case models.OperationSell:
			pos, ok := result.Positions[code]
			if !ok {
				return nil, fmt.Errorf("%w: sell of %s (operation %s) with no prior position", ErrInsufficientPosition, code, op.ID)
			}
			realized, err := p.applySell(pos, op)
			if err != nil {
				return nil, err
			}
			result.Realized = append(result.Realized, realized)
		}
	}

	return result, nil
}

// applyBuy folds a purchase into the position's weighted-average cost.
// TotalCost already includes brokerage fees, so the average absorbs them.
func applyBuy(pos *models.Position, op models.Operation) {
	newQuantity := pos.HeldQuantity.Add(op.Quantity)
	carriedCost := pos.HeldQuantity.Mul(pos.AverageUnitCost)
	pos.AverageUnitCost = carriedCost.Add(op.TotalCost).Div(newQuantity)
	pos.HeldQuantity = newQuantity
}

// applySell consumes quantity at the running average cost and emits the
// realized result. The average cost of the remaining shares is invariant
// to a sell.
func (p *PositionProcessor) applySell(pos *models.Position, op models.Operation) (models.RealizedResult, error) {
	if op.Quantity.GreaterThan(pos.HeldQuantity) {
		return models.RealizedResult{}, fmt.Errorf("%w: %s sell of %s on %s exceeds held %s (operation %s)",
			ErrInsufficientPosition, pos.AssetCode, op.Quantity, op.OperationDate, pos.HeldQuantity, op.ID)
	}

	costBasis := op.Quantity.Mul(pos.AverageUnitCost)
	proceeds := op.Quantity.Mul(op.UnitPrice)
	gainLoss := proceeds.Sub(costBasis)
	pos.HeldQuantity = pos.HeldQuantity.Sub(op.Quantity)

	retained, err := p.retainedAtSource(op, gainLoss)
	if err != nil {
		return models.RealizedResult{}, err
	}

	return models.RealizedResult{
		AssetCode:         pos.AssetCode,
		AssetType:         op.AssetType,
		TradeCategory:     op.TradeCategory,
		OperationDate:     op.OperationDate,
		Quantity:          op.Quantity,
		Proceeds:          proceeds,
		CostBasisConsumed: costBasis,
		GainLoss:          gainLoss,
		IRRetained:        retained,
	}, nil
}

// retainedAtSource computes the tax withheld on a sell under the rules in
// force at its date (the 1% day-trade "dedo-duro" in the default tables).
func (p *PositionProcessor) retainedAtSource(op models.Operation, gainLoss decimal.Decimal) (decimal.Decimal, error) {
	if !gainLoss.IsPositive() {
		return decimal.Zero, nil
	}
	table, err := p.rules.ForDate(op.OperationDate)
	if err != nil {
		return decimal.Decimal{}, err
	}
	rule, err := table.Rule(op.AssetType, op.TradeCategory)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if rule.IRRetentionRate.IsZero() {
		return decimal.Zero, nil
	}
	return gainLoss.Mul(rule.IRRetentionRate).Round(2), nil
}
