package processors

import (
	"fmt"
	"sort"

	"github.com/username/darfolio/backend/src/models"
	"github.com/username/darfolio/backend/src/utils"
)

// MonthlyAggregator folds realized sell results into one bucket per
// (year, month, asset type, trade category). Months without sells simply
// produce no bucket; downstream code treats absence as "no obligation".
type MonthlyAggregator struct{}

func NewMonthlyAggregator() *MonthlyAggregator {
	return &MonthlyAggregator{}
}

type bucketKey struct {
	year, month int
	lane        models.Lane
}

// Aggregate consumes the realized results of one full recompute pass.
// Output order is deterministic: ascending by year, month, asset type,
// trade category.
func (a *MonthlyAggregator) Aggregate(realized []models.RealizedResult) ([]models.MonthlyBucket, error) {
	grouped := make(map[bucketKey]*models.MonthlyBucket)
	for _, r := range realized {
		year, month, err := utils.YearMonth(r.OperationDate)
		if err != nil {
			// Realized results carry dates that already passed operation
			// validation, so this only trips on a corrupted pass.
			return nil, fmt.Errorf("aggregating %s result dated %q: %w", r.AssetCode, r.OperationDate, err)
		}
		key := bucketKey{year: year, month: month, lane: models.Lane{AssetType: r.AssetType, TradeCategory: r.TradeCategory}}

		bucket, ok := grouped[key]
		if !ok {
			bucket = &models.MonthlyBucket{
				Year:          year,
				Month:         month,
				AssetType:     r.AssetType,
				TradeCategory: r.TradeCategory,
			}
			grouped[key] = bucket
		}
		bucket.TotalSales = bucket.TotalSales.Add(r.Proceeds)
		bucket.NetResult = bucket.NetResult.Add(r.GainLoss)
		bucket.IRRetainedTotal = bucket.IRRetainedTotal.Add(r.IRRetained)
	}

	buckets := make([]models.MonthlyBucket, 0, len(grouped))
	for _, b := range grouped {
		buckets = append(buckets, *b)
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].Year != buckets[j].Year {
			return buckets[i].Year < buckets[j].Year
		}
		if buckets[i].Month != buckets[j].Month {
			return buckets[i].Month < buckets[j].Month
		}
		if buckets[i].AssetType != buckets[j].AssetType {
			return buckets[i].AssetType < buckets[j].AssetType
		}
		return buckets[i].TradeCategory < buckets[j].TradeCategory
	})
	return buckets, nil
}
