package services

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"github.com/username/darfolio/backend/src/logger"
	"github.com/username/darfolio/backend/src/models"
	"github.com/username/darfolio/backend/src/processors"
)

type darfServiceImpl struct {
	store             OperationStore
	positionProcessor *processors.PositionProcessor
	aggregator        *processors.MonthlyAggregator
	taxProcessor      *processors.TaxProcessor
	reportCache       *cache.Cache

	// recomputeMu serializes snapshot builds: single writer, many readers.
	recomputeMu sync.Mutex
}

func NewDarfService(
	store OperationStore,
	positionProcessor *processors.PositionProcessor,
	aggregator *processors.MonthlyAggregator,
	taxProcessor *processors.TaxProcessor,
	reportCache *cache.Cache,
) DarfService {
	return &darfServiceImpl{
		store:             store,
		positionProcessor: positionProcessor,
		aggregator:        aggregator,
		taxProcessor:      taxProcessor,
		reportCache:       reportCache,
	}
}

func (s *darfServiceImpl) CreateOperation(op models.Operation) (*models.Operation, error) {
	op.AssetCode = op.NormalizedAssetCode()
	if op.ID == "" {
		op.ID = uuid.NewString()
	}
	if op.CreatedAt == "" {
		op.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	if err := op.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.InsertOperation(op); err != nil {
		return nil, err
	}
	s.InvalidateCache()
	logger.L.Info("Operation recorded", "id", op.ID, "assetCode", op.AssetCode, "operationType", op.OperationType)
	return &op, nil
}

func (s *darfServiceImpl) ListOperations(filter OperationFilter) ([]models.Operation, error) {
	operations, err := s.store.ListOperations()
	if err != nil {
		return nil, err
	}
	if filter.AssetCode == "" && filter.AssetType == "" {
		return operations, nil
	}
	filtered := make([]models.Operation, 0, len(operations))
	for _, op := range operations {
		if filter.AssetCode != "" && op.NormalizedAssetCode() != filter.AssetCode {
			continue
		}
		if filter.AssetType != "" && op.AssetType != filter.AssetType {
			continue
		}
		filtered = append(filtered, op)
	}
	return filtered, nil
}

func (s *darfServiceImpl) DeleteOperation(id string) error {
	if err := s.store.DeleteOperation(id); err != nil {
		return err
	}
	s.InvalidateCache()
	logger.L.Info("Operation deleted", "id", id)
	return nil
}

// Snapshot returns the published engine snapshot, building one when none
// exists. A build runs the full pipeline over the complete history and
// publishes a fresh, immutable result set; concurrent readers either get
// the previous snapshot or wait for the new one, never a half-built pass.
func (s *darfServiceImpl) Snapshot() (*EngineSnapshot, error) {
	if cached, found := s.reportCache.Get(ckEngineSnapshot); found {
		return cached.(*EngineSnapshot), nil
	}

	s.recomputeMu.Lock()
	defer s.recomputeMu.Unlock()

	// Another caller may have finished the build while we waited.
	if cached, found := s.reportCache.Get(ckEngineSnapshot); found {
		return cached.(*EngineSnapshot), nil
	}

	startTime := time.Now()
	operations, err := s.store.ListOperations()
	if err != nil {
		return nil, fmt.Errorf("%w: loading operations: %w", ErrRecomputeFailed, err)
	}

	recomputed, err := s.positionProcessor.Recompute(operations)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRecomputeFailed, err)
	}
	buckets, err := s.aggregator.Aggregate(recomputed.Realized)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRecomputeFailed, err)
	}
	taxResult, err := s.taxProcessor.ComputeTaxes(buckets)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRecomputeFailed, err)
	}

	snapshot := &EngineSnapshot{
		Recompute: recomputed,
		Buckets:   buckets,
		Tax:       taxResult,
		Summary:   buildPortfolioSummary(operations, recomputed),
	}
	s.reportCache.Set(ckEngineSnapshot, snapshot, DefaultCacheExpiration)

	logger.L.Info("Engine snapshot rebuilt",
		"operations", len(operations),
		"skipped", len(recomputed.Skipped),
		"realized", len(recomputed.Realized),
		"buckets", len(buckets),
		"durationMs", time.Since(startTime).Milliseconds())
	return snapshot, nil
}

func (s *darfServiceImpl) GetDARFReport(year, month int) (*models.DARFReport, error) {
	snapshot, err := s.Snapshot()
	if err != nil {
		return nil, err
	}

	report := &models.DARFReport{
		Year:     year,
		Month:    month,
		Items:    []models.TaxComputation{},
		TotalDue: decimal.Zero,
	}
	for _, comp := range snapshot.Tax.Computations {
		if comp.Year == year && comp.Month == month {
			report.Items = append(report.Items, comp)
			report.TotalDue = report.TotalDue.Add(comp.NetTaxDue)
		}
	}
	return report, nil
}

func (s *darfServiceImpl) GetPortfolioSummary() (*models.PortfolioSummary, error) {
	snapshot, err := s.Snapshot()
	if err != nil {
		return nil, err
	}
	return snapshot.Summary, nil
}

func (s *darfServiceImpl) InvalidateCache() {
	s.reportCache.Delete(ckEngineSnapshot)
}

// buildPortfolioSummary values open positions at average cost and totals
// the cost of every purchase that entered the ledger.
func buildPortfolioSummary(operations []models.Operation, recomputed *models.RecomputeResult) *models.PortfolioSummary {
	summary := &models.PortfolioSummary{
		TotalInvested:      decimal.Zero,
		TotalCurrentValue:  decimal.Zero,
		TotalRealizedGain:  decimal.Zero,
		AssetsDistribution: map[string]decimal.Decimal{},
	}
	for _, op := range operations {
		if op.OperationType == models.OperationBuy && op.Validate() == nil {
			summary.TotalInvested = summary.TotalInvested.Add(op.TotalCost)
		}
	}
	for _, r := range recomputed.Realized {
		summary.TotalRealizedGain = summary.TotalRealizedGain.Add(r.GainLoss)
	}
	for code, pos := range recomputed.Positions {
		if !pos.HeldQuantity.IsPositive() {
			continue
		}
		value := pos.HeldQuantity.Mul(pos.AverageUnitCost).Round(2)
		summary.AssetsDistribution[code] = value
		summary.TotalCurrentValue = summary.TotalCurrentValue.Add(value)
	}
	summary.TotalInvested = summary.TotalInvested.Round(2)
	summary.TotalRealizedGain = summary.TotalRealizedGain.Round(2)
	return summary
}
