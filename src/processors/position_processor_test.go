package processors

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/darfolio/backend/src/models"
	"github.com/username/darfolio/backend/src/taxrules"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func buyOp(code, date, quantity, unitPrice, totalCost string) models.Operation {
	return models.Operation{
		ID:            "buy-" + code + "-" + date,
		AssetCode:     code,
		AssetType:     models.AssetAcao,
		TradeCategory: models.SwingTrade,
		OperationType: models.OperationBuy,
		Quantity:      decimal.RequireFromString(quantity),
		UnitPrice:     decimal.RequireFromString(unitPrice),
		TotalCost:     decimal.RequireFromString(totalCost),
		OperationDate: date,
	}
}

func sellOp(code, date, quantity, unitPrice string) models.Operation {
	return models.Operation{
		ID:            "sell-" + code + "-" + date,
		AssetCode:     code,
		AssetType:     models.AssetAcao,
		TradeCategory: models.SwingTrade,
		OperationType: models.OperationSell,
		Quantity:      decimal.RequireFromString(quantity),
		UnitPrice:     decimal.RequireFromString(unitPrice),
		TotalCost:     decimal.RequireFromString(quantity).Mul(decimal.RequireFromString(unitPrice)),
		OperationDate: date,
	}
}

func newPositionProcessor() *PositionProcessor {
	return NewPositionProcessor(taxrules.Default())
}

func TestRecomputeWeightedAverageCost(t *testing.T) {
	p := newPositionProcessor()

	result, err := p.Recompute([]models.Operation{
		buyOp("PETR4", "2025-01-10", "100", "10", "1000"),
		buyOp("PETR4", "2025-01-20", "100", "20", "2000"),
		sellOp("PETR4", "2025-02-05", "50", "18"),
	})
	require.NoError(t, err)

	pos := result.Positions["PETR4"]
	require.NotNil(t, pos)
	assert.True(t, pos.AverageUnitCost.Equal(dec(t, "15")), "average cost = %s", pos.AverageUnitCost)
	assert.True(t, pos.HeldQuantity.Equal(dec(t, "150")))

	require.Len(t, result.Realized, 1)
	realized := result.Realized[0]
	assert.True(t, realized.CostBasisConsumed.Equal(dec(t, "750")), "cost basis = %s", realized.CostBasisConsumed)
	assert.True(t, realized.Proceeds.Equal(dec(t, "900")))
	assert.True(t, realized.GainLoss.Equal(dec(t, "150")))
}

func TestRecomputeSellKeepsAverageCost(t *testing.T) {
	p := newPositionProcessor()

	result, err := p.Recompute([]models.Operation{
		buyOp("VALE3", "2025-01-10", "100", "50", "5000"),
		sellOp("VALE3", "2025-01-25", "40", "80"),
	})
	require.NoError(t, err)

	pos := result.Positions["VALE3"]
	require.NotNil(t, pos)
	// The sell price never moves the average cost of what remains.
	assert.True(t, pos.AverageUnitCost.Equal(dec(t, "50")))
	assert.True(t, pos.HeldQuantity.Equal(dec(t, "60")))
}

func TestRecomputeBuyFeesEnterAverageCost(t *testing.T) {
	p := newPositionProcessor()

	// 100 units at 10 plus 5 of brokerage: total cost 1005.
	result, err := p.Recompute([]models.Operation{
		buyOp("PETR4", "2025-03-05", "100", "10", "1005"),
	})
	require.NoError(t, err)

	pos := result.Positions["PETR4"]
	require.NotNil(t, pos)
	assert.True(t, pos.AverageUnitCost.Equal(dec(t, "10.05")), "average cost = %s", pos.AverageUnitCost)
}

func TestRecomputeInsufficientPosition(t *testing.T) {
	p := newPositionProcessor()

	_, err := p.Recompute([]models.Operation{
		buyOp("PETR4", "2025-01-10", "50", "10", "500"),
		sellOp("PETR4", "2025-01-20", "60", "12"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientPosition)
}

func TestRecomputeSellWithoutPosition(t *testing.T) {
	p := newPositionProcessor()

	_, err := p.Recompute([]models.Operation{
		sellOp("XPTO3", "2025-01-20", "10", "12"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientPosition)
}

func TestRecomputeSortsByDate(t *testing.T) {
	p := newPositionProcessor()

	// Input arrives unsorted; the sell is dated after both buys.
	result, err := p.Recompute([]models.Operation{
		sellOp("PETR4", "2025-03-01", "100", "20"),
		buyOp("PETR4", "2025-01-20", "50", "12", "600"),
		buyOp("PETR4", "2025-01-10", "50", "8", "400"),
	})
	require.NoError(t, err)

	require.Len(t, result.Realized, 1)
	assert.True(t, result.Realized[0].CostBasisConsumed.Equal(dec(t, "1000")))
}

func TestRecomputeNormalizesAssetCode(t *testing.T) {
	p := newPositionProcessor()

	result, err := p.Recompute([]models.Operation{
		buyOp("petr4", "2025-01-10", "100", "10", "1000"),
		buyOp(" PETR4 ", "2025-01-20", "100", "10", "1000"),
	})
	require.NoError(t, err)

	require.Len(t, result.Positions, 1)
	pos := result.Positions["PETR4"]
	require.NotNil(t, pos)
	assert.True(t, pos.HeldQuantity.Equal(dec(t, "200")))
}

func TestRecomputeCollectsInvalidOperations(t *testing.T) {
	p := newPositionProcessor()

	bad := buyOp("PETR4", "2025-01-15", "1", "1", "1")
	bad.Quantity = decimal.Zero

	badType := buyOp("PETR4", "2025-01-16", "1", "1", "1")
	badType.AssetType = "fundo-imobiliario"

	result, err := p.Recompute([]models.Operation{
		buyOp("PETR4", "2025-01-10", "100", "10", "1000"),
		bad,
		badType,
	})
	require.NoError(t, err)

	// Valid operations still recompute; invalid ones are reported.
	require.Len(t, result.Skipped, 2)
	assert.Contains(t, result.Skipped[0].Reason, "quantity must be positive")
	assert.Contains(t, result.Skipped[1].Reason, "unknown asset type")
	assert.True(t, result.Positions["PETR4"].HeldQuantity.Equal(dec(t, "100")))
}

func TestRecomputeDayTradeRetention(t *testing.T) {
	p := newPositionProcessor()

	buy := buyOp("WINFUT", "2025-04-07", "10", "100", "1000")
	buy.TradeCategory = models.DayTrade
	sell := sellOp("WINFUT", "2025-04-07", "10", "110")
	sell.TradeCategory = models.DayTrade

	result, err := p.Recompute([]models.Operation{buy, sell})
	require.NoError(t, err)

	require.Len(t, result.Realized, 1)
	realized := result.Realized[0]
	assert.True(t, realized.GainLoss.Equal(dec(t, "100")))
	// 1% withheld at source on the positive day-trade result.
	assert.True(t, realized.IRRetained.Equal(dec(t, "1")), "retained = %s", realized.IRRetained)
}

func TestRecomputeNoRetentionOnLoss(t *testing.T) {
	p := newPositionProcessor()

	buy := buyOp("WINFUT", "2025-04-07", "10", "100", "1000")
	buy.TradeCategory = models.DayTrade
	sell := sellOp("WINFUT", "2025-04-07", "10", "90")
	sell.TradeCategory = models.DayTrade

	result, err := p.Recompute([]models.Operation{buy, sell})
	require.NoError(t, err)

	require.Len(t, result.Realized, 1)
	assert.True(t, result.Realized[0].IRRetained.IsZero())
}

func TestRecomputeIsIdempotent(t *testing.T) {
	p := newPositionProcessor()

	ops := []models.Operation{
		buyOp("PETR4", "2025-01-10", "100", "10", "1000"),
		buyOp("VALE3", "2025-01-12", "30", "60", "1800"),
		sellOp("PETR4", "2025-02-05", "40", "12"),
		buyOp("PETR4", "2025-02-10", "10", "11", "110"),
		sellOp("VALE3", "2025-02-20", "30", "55"),
	}

	first, err := p.Recompute(ops)
	require.NoError(t, err)
	second, err := p.Recompute(ops)
	require.NoError(t, err)

	assert.Equal(t, first.Realized, second.Realized)
	assert.Equal(t, first.Positions, second.Positions)
}

func TestRecomputeNeverNegativePosition(t *testing.T) {
	p := newPositionProcessor()

	result, err := p.Recompute([]models.Operation{
		buyOp("PETR4", "2025-01-10", "100", "10", "1000"),
		sellOp("PETR4", "2025-01-20", "100", "12"),
	})
	require.NoError(t, err)

	pos := result.Positions["PETR4"]
	require.NotNil(t, pos)
	assert.True(t, pos.HeldQuantity.IsZero())
	// Position objects survive at zero quantity, they are not deleted.
	assert.True(t, pos.AverageUnitCost.Equal(dec(t, "10")))
}
