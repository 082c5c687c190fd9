package processors

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/username/darfolio/backend/src/models"
	"github.com/username/darfolio/backend/src/taxrules"
	"github.com/username/darfolio/backend/src/utils"
)

// TaxProcessor applies exemption, rate and loss-carryforward rules to
// monthly buckets. Loss carryforward is an explicit fold: each lane's
// months are processed strictly in chronological order, carrying an
// accumulator that is created fresh for every pass.
type TaxProcessor struct {
	rules *taxrules.Resolver
}

func NewTaxProcessor(rules *taxrules.Resolver) *TaxProcessor {
	return &TaxProcessor{rules: rules}
}

// ComputeTaxes produces one TaxComputation per bucket. A missing lane
// rule aborts the pass (taxrules.ErrMissingRate); the engine never
// defaults a rate to zero. Two buckets for the same lane and month, or a
// lane fed backwards in time, surface as ErrOrderingViolation.
func (p *TaxProcessor) ComputeTaxes(buckets []models.MonthlyBucket) (*models.TaxResult, error) {
	byLane := make(map[models.Lane][]models.MonthlyBucket)
	for _, b := range buckets {
		byLane[b.Lane()] = append(byLane[b.Lane()], b)
	}

	lanes := make([]models.Lane, 0, len(byLane))
	for lane := range byLane {
		lanes = append(lanes, lane)
	}
	sort.Slice(lanes, func(i, j int) bool {
		if lanes[i].AssetType != lanes[j].AssetType {
			return lanes[i].AssetType < lanes[j].AssetType
		}
		return lanes[i].TradeCategory < lanes[j].TradeCategory
	})

	result := &models.TaxResult{
		Computations: []models.TaxComputation{},
		LossCarry:    models.LossCarryState{},
	}
	for _, lane := range lanes {
		laneBuckets := byLane[lane]
		sort.SliceStable(laneBuckets, func(i, j int) bool {
			if laneBuckets[i].Year != laneBuckets[j].Year {
				return laneBuckets[i].Year < laneBuckets[j].Year
			}
			return laneBuckets[i].Month < laneBuckets[j].Month
		})
		computations, carry, err := p.computeLane(lane, laneBuckets)
		if err != nil {
			return nil, err
		}
		result.Computations = append(result.Computations, computations...)
		if carry.IsPositive() {
			result.LossCarry[lane] = carry
		}
	}

	sort.SliceStable(result.Computations, func(i, j int) bool {
		a, b := result.Computations[i], result.Computations[j]
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		if a.Month != b.Month {
			return a.Month < b.Month
		}
		if a.AssetType != b.AssetType {
			return a.AssetType < b.AssetType
		}
		return a.TradeCategory < b.TradeCategory
	})
	return result, nil
}

// computeLane folds one lane's buckets in month order, threading the
// loss-carry accumulator between steps.
func (p *TaxProcessor) computeLane(lane models.Lane, buckets []models.MonthlyBucket) ([]models.TaxComputation, decimal.Decimal, error) {
	computations := make([]models.TaxComputation, 0, len(buckets))
	carry := decimal.Zero
	prevYear, prevMonth := 0, 0

	for _, bucket := range buckets {
		if bucket.Year < prevYear || (bucket.Year == prevYear && bucket.Month <= prevMonth) {
			return nil, decimal.Zero, fmt.Errorf("%w: lane %s saw %04d-%02d after %04d-%02d",
				ErrOrderingViolation, lane, bucket.Year, bucket.Month, prevYear, prevMonth)
		}
		prevYear, prevMonth = bucket.Year, bucket.Month

		table, err := p.rules.ForDate(utils.MonthStart(bucket.Year, bucket.Month))
		if err != nil {
			return nil, decimal.Zero, err
		}
		rule, err := table.Rule(lane.AssetType, lane.TradeCategory)
		if err != nil {
			return nil, decimal.Zero, err
		}

		var comp models.TaxComputation
		comp, carry = computeBucket(bucket, rule, carry)
		computations = append(computations, comp)
	}
	return computations, carry, nil
}

// computeBucket applies one month's rules to one bucket and returns the
// computation together with the updated loss carry.
func computeBucket(bucket models.MonthlyBucket, rule taxrules.LaneRule, carry decimal.Decimal) (models.TaxComputation, decimal.Decimal) {
	comp := models.TaxComputation{
		Year:          bucket.Year,
		Month:         bucket.Month,
		AssetType:     bucket.AssetType,
		TradeCategory: bucket.TradeCategory,
		TotalSales:    bucket.TotalSales,
		TaxableProfit: decimal.Zero,
		TaxRate:       decimal.Zero,
		TaxDue:        decimal.Zero,
		IRRetained:    bucket.IRRetainedTotal,
		NetTaxDue:     decimal.Zero,
	}

	exemptEligible := rule.ExemptionThreshold.IsPositive() &&
		bucket.TotalSales.LessThanOrEqual(rule.ExemptionThreshold)

	switch {
	case bucket.NetResult.IsNegative():
		// Losses are recognized even under the exemption threshold: the
		// exemption waives tax on gains, it does not forgive losses.
		carry = carry.Add(bucket.NetResult.Abs())

	case exemptEligible && bucket.NetResult.IsPositive():
		comp.ExemptionApplied = true

	default:
		consumed := decimal.Min(carry, bucket.NetResult)
		carry = carry.Sub(consumed)
		comp.TaxableProfit = bucket.NetResult.Sub(consumed)
		comp.TaxRate = rule.RateFor(comp.TaxableProfit)
		comp.TaxDue = comp.TaxableProfit.Mul(comp.TaxRate).Round(2)
	}

	comp.NetTaxDue = decimal.Max(decimal.Zero, comp.TaxDue.Sub(comp.IRRetained))
	return comp, carry
}
