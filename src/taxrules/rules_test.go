package taxrules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/darfolio/backend/src/models"
)

func TestDefaultCoversEveryLane(t *testing.T) {
	resolver := Default()

	table, err := resolver.ForDate("2025-06-01")
	require.NoError(t, err)

	for _, assetType := range models.AssetTypes {
		for _, category := range models.TradeCategories {
			_, err := table.Rule(assetType, category)
			assert.NoError(t, err, "lane %s/%s", assetType, category)
		}
	}
}

func TestDefaultReferenceValues(t *testing.T) {
	table, err := Default().ForDate("2025-06-01")
	require.NoError(t, err)

	stockSwing, err := table.Rule(models.AssetAcao, models.SwingTrade)
	require.NoError(t, err)
	assert.True(t, stockSwing.Rate.Equal(decimal.RequireFromString("0.15")))
	assert.True(t, stockSwing.ExemptionThreshold.Equal(decimal.RequireFromString("20000")))

	stockDay, err := table.Rule(models.AssetAcao, models.DayTrade)
	require.NoError(t, err)
	assert.True(t, stockDay.Rate.Equal(decimal.RequireFromString("0.20")))
	assert.True(t, stockDay.IRRetentionRate.Equal(decimal.RequireFromString("0.01")))
	assert.True(t, stockDay.ExemptionThreshold.IsZero())

	fiiSwing, err := table.Rule(models.AssetFII, models.SwingTrade)
	require.NoError(t, err)
	assert.True(t, fiiSwing.Rate.Equal(decimal.RequireFromString("0.20")))
	assert.True(t, fiiSwing.ExemptionThreshold.IsZero())
}

func TestRateForProgressiveBrackets(t *testing.T) {
	rule := LaneRule{
		Brackets: []Bracket{
			{UpTo: decimal.RequireFromString("5000000"), Rate: decimal.RequireFromString("0.15")},
			{UpTo: decimal.RequireFromString("10000000"), Rate: decimal.RequireFromString("0.175")},
			{Rate: decimal.RequireFromString("0.225")},
		},
	}

	tests := []struct {
		profit string
		want   string
	}{
		{"1000", "0.15"},
		{"5000000", "0.15"},
		{"5000000.01", "0.175"},
		{"50000000", "0.225"},
	}
	for _, tc := range tests {
		got := rule.RateFor(decimal.RequireFromString(tc.profit))
		assert.True(t, got.Equal(decimal.RequireFromString(tc.want)), "profit %s: rate %s", tc.profit, got)
	}
}

func TestResolverPicksLatestEffectiveTable(t *testing.T) {
	resolver, err := NewResolver(
		Table{EffectiveFrom: "2024-01-01", Lanes: map[string]LaneRule{}},
		Table{EffectiveFrom: "2025-01-01", Lanes: map[string]LaneRule{}},
	)
	require.NoError(t, err)

	table, err := resolver.ForDate("2024-06-15")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01", table.EffectiveFrom)

	table, err = resolver.ForDate("2025-01-01")
	require.NoError(t, err)
	assert.Equal(t, "2025-01-01", table.EffectiveFrom)

	_, err = resolver.ForDate("2023-12-31")
	assert.ErrorIs(t, err, ErrNoTable)
}

func TestLoadFromJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.json")
	content := `{
		"tables": [
			{
				"effective_from": "2025-01-01",
				"lanes": {
					"acao/swing_trade": {
						"rate": "0.17",
						"exemption_threshold": "25000"
					}
				}
			}
		]
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	resolver, err := Load(path)
	require.NoError(t, err)

	table, err := resolver.ForDate("2025-03-01")
	require.NoError(t, err)
	rule, err := table.Rule(models.AssetAcao, models.SwingTrade)
	require.NoError(t, err)
	assert.True(t, rule.Rate.Equal(decimal.RequireFromString("0.17")))
	assert.True(t, rule.ExemptionThreshold.Equal(decimal.RequireFromString("25000")))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}
