package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func validOperation() Operation {
	return Operation{
		ID:            "op-1",
		AssetCode:     "PETR4",
		AssetType:     AssetAcao,
		TradeCategory: SwingTrade,
		OperationType: OperationBuy,
		Quantity:      decimal.RequireFromString("100"),
		UnitPrice:     decimal.RequireFromString("10"),
		TotalCost:     decimal.RequireFromString("1000"),
		OperationDate: "2025-03-05",
	}
}

func TestOperationValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Operation)
		wantErr string
	}{
		{"valid", func(op *Operation) {}, ""},
		{"empty asset code", func(op *Operation) { op.AssetCode = "  " }, "asset code is empty"},
		{"unknown asset type", func(op *Operation) { op.AssetType = "stock" }, "unknown asset type"},
		{"unknown trade category", func(op *Operation) { op.TradeCategory = "scalping" }, "unknown trade category"},
		{"unknown operation type", func(op *Operation) { op.OperationType = "short" }, "unknown operation type"},
		{"zero quantity", func(op *Operation) { op.Quantity = decimal.Zero }, "quantity must be positive"},
		{"negative price", func(op *Operation) { op.UnitPrice = decimal.RequireFromString("-1") }, "unit price must be positive"},
		{"negative total cost", func(op *Operation) { op.TotalCost = decimal.RequireFromString("-5") }, "total cost must not be negative"},
		{"bad date", func(op *Operation) { op.OperationDate = "05-03-2025" }, "invalid operation date"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			op := validOperation()
			tc.mutate(&op)
			err := op.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidOperation)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestNormalizedAssetCode(t *testing.T) {
	op := Operation{AssetCode: "  petr4 "}
	assert.Equal(t, "PETR4", op.NormalizedAssetCode())
}
