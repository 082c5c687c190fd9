package services

import (
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/username/darfolio/backend/src/models"
)

// sqliteOperationStore persists operations in the application database.
// Decimal columns are stored as text to avoid any float round-trip.
type sqliteOperationStore struct {
	db *sql.DB
}

// NewSQLiteOperationStore wraps the given database handle as an OperationStore.
func NewSQLiteOperationStore(db *sql.DB) OperationStore {
	return &sqliteOperationStore{db: db}
}

func (s *sqliteOperationStore) ListOperations() ([]models.Operation, error) {
	rows, err := s.db.Query(`
		SELECT id, asset_code, asset_type, trade_category, operation_type,
		       quantity, unit_price, total_cost, operation_date, created_at
		FROM operations
		ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying operations: %w", err)
	}
	defer rows.Close()

	var operations []models.Operation
	for rows.Next() {
		var op models.Operation
		var quantity, unitPrice, totalCost string
		if err := rows.Scan(&op.ID, &op.AssetCode, &op.AssetType, &op.TradeCategory, &op.OperationType,
			&quantity, &unitPrice, &totalCost, &op.OperationDate, &op.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning operation row: %w", err)
		}
		if op.Quantity, err = decimal.NewFromString(quantity); err != nil {
			return nil, fmt.Errorf("operation %s: bad quantity %q: %w", op.ID, quantity, err)
		}
		if op.UnitPrice, err = decimal.NewFromString(unitPrice); err != nil {
			return nil, fmt.Errorf("operation %s: bad unit price %q: %w", op.ID, unitPrice, err)
		}
		if op.TotalCost, err = decimal.NewFromString(totalCost); err != nil {
			return nil, fmt.Errorf("operation %s: bad total cost %q: %w", op.ID, totalCost, err)
		}
		operations = append(operations, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating operations: %w", err)
	}
	return operations, nil
}

func (s *sqliteOperationStore) InsertOperation(op models.Operation) error {
	_, err := s.db.Exec(`
		INSERT INTO operations
			(id, asset_code, asset_type, trade_category, operation_type,
			 quantity, unit_price, total_cost, operation_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		op.ID, op.AssetCode, string(op.AssetType), string(op.TradeCategory), string(op.OperationType),
		op.Quantity.String(), op.UnitPrice.String(), op.TotalCost.String(), op.OperationDate, op.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting operation %s: %w", op.ID, err)
	}
	return nil
}

func (s *sqliteOperationStore) DeleteOperation(id string) error {
	result, err := s.db.Exec(`DELETE FROM operations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting operation %s: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting operation %s: %w", id, err)
	}
	if affected == 0 {
		return ErrOperationNotFound
	}
	return nil
}
