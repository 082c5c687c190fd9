// backend/src/services/interfaces.go
package services

import (
	"errors"
	"time"

	"github.com/username/darfolio/backend/src/models"
)

const (
	ckEngineSnapshot = "engine_snapshot"

	DefaultCacheExpiration = 15 * time.Minute
	CacheCleanupInterval   = 30 * time.Minute
)

// Define common service errors
var (
	ErrOperationNotFound = errors.New("operation not found")
	ErrRecomputeFailed   = errors.New("tax recompute failed")
)

// OperationStore is the engine's external collaborator: it supplies the
// ordered operation history and accepts appends. Listing returns the
// operations in insertion order, which the recompute pass relies on to
// break same-day ties deterministically.
type OperationStore interface {
	ListOperations() ([]models.Operation, error)
	InsertOperation(op models.Operation) error
	DeleteOperation(id string) error
}

// OperationFilter narrows ListOperationsFiltered results. Zero values
// match everything.
type OperationFilter struct {
	AssetCode string
	AssetType models.AssetType
}

// EngineSnapshot is the fully materialized output of one recompute pass:
// positions, realized results, monthly buckets and tax computations, all
// immutable once published. Concurrent readers share a snapshot; a new
// pass replaces it wholesale.
type EngineSnapshot struct {
	Recompute *models.RecomputeResult
	Buckets   []models.MonthlyBucket
	Tax       *models.TaxResult
	Summary   *models.PortfolioSummary
}

// DarfService is the application-facing surface of the tax engine.
type DarfService interface {
	CreateOperation(op models.Operation) (*models.Operation, error)
	ListOperations(filter OperationFilter) ([]models.Operation, error)
	DeleteOperation(id string) error

	// Snapshot returns the current engine snapshot, recomputing from the
	// full operation history when no published snapshot exists.
	Snapshot() (*EngineSnapshot, error)

	GetDARFReport(year, month int) (*models.DARFReport, error)
	GetPortfolioSummary() (*models.PortfolioSummary, error)

	InvalidateCache()
}
