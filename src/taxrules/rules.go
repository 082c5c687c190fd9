// Package taxrules holds the tax-law reference data the engine applies:
// per-lane rates, exemption thresholds and withholding rates, organized
// as effective-dated tables so historical months are taxed under the
// law in force at the time. Values are data, not code; the compiled-in
// defaults can be replaced wholesale via TAX_RULES_PATH.
package taxrules

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/username/darfolio/backend/src/models"
)

var (
	// ErrMissingRate means the table in force has no rule for an
	// asset/category combination. The computation must abort rather
	// than guess a rate.
	ErrMissingRate = errors.New("no tax rule configured for lane")

	// ErrNoTable means no rate table is effective for the requested date.
	ErrNoTable = errors.New("no tax rule table effective for date")
)

// Bracket is one tier of a progressive rate schedule. A zero UpTo marks
// the open-ended top tier. The tier is selected by taxable profit and its
// rate applies to the whole profit, not just the slice above the cutoff.
type Bracket struct {
	UpTo decimal.Decimal `json:"up_to"`
	Rate decimal.Decimal `json:"rate"`
}

// LaneRule is the set of rules for one (asset type, trade category) lane.
type LaneRule struct {
	Rate decimal.Decimal `json:"rate"`

	// Brackets, when present, override Rate with a progressive schedule.
	Brackets []Bracket `json:"brackets,omitempty"`

	// ExemptionThreshold is the lane's monthly sales ceiling below which
	// gains are exempt. Zero means the lane is never exempt.
	ExemptionThreshold decimal.Decimal `json:"exemption_threshold"`

	// IRRetentionRate is withheld at source on each positive sell result.
	IRRetentionRate decimal.Decimal `json:"ir_retention_rate"`
}

// RateFor returns the rate applicable to the given taxable profit,
// consulting the progressive schedule when one is configured.
func (r LaneRule) RateFor(taxableProfit decimal.Decimal) decimal.Decimal {
	if len(r.Brackets) == 0 {
		return r.Rate
	}
	for _, b := range r.Brackets {
		if b.UpTo.IsZero() || taxableProfit.LessThanOrEqual(b.UpTo) {
			return b.Rate
		}
	}
	return r.Brackets[len(r.Brackets)-1].Rate
}

// Table is one dated snapshot of the full rule set. Lanes are keyed by
// "<asset_type>/<trade_category>", e.g. "acao/swing_trade".
type Table struct {
	EffectiveFrom string              `json:"effective_from"`
	Lanes         map[string]LaneRule `json:"lanes"`
}

func laneKey(assetType models.AssetType, category models.TradeCategory) string {
	return string(assetType) + "/" + string(category)
}

// Rule returns the rule for a lane, or ErrMissingRate if the table has none.
func (t *Table) Rule(assetType models.AssetType, category models.TradeCategory) (LaneRule, error) {
	rule, ok := t.Lanes[laneKey(assetType, category)]
	if !ok {
		return LaneRule{}, fmt.Errorf("%w: %s/%s (effective %s)", ErrMissingRate, assetType, category, t.EffectiveFrom)
	}
	return rule, nil
}

// Resolver selects the table in force for a given date from a history of
// effective-dated tables.
type Resolver struct {
	tables []Table // sorted ascending by EffectiveFrom
}

// NewResolver builds a resolver over the given tables.
func NewResolver(tables ...Table) (*Resolver, error) {
	if len(tables) == 0 {
		return nil, errors.New("at least one tax rule table is required")
	}
	sorted := make([]Table, len(tables))
	copy(sorted, tables)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].EffectiveFrom < sorted[j].EffectiveFrom
	})
	return &Resolver{tables: sorted}, nil
}

// ForDate returns the latest table whose EffectiveFrom is on or before
// the given YYYY-MM-DD date.
func (r *Resolver) ForDate(date string) (*Table, error) {
	var match *Table
	for i := range r.tables {
		if r.tables[i].EffectiveFrom <= date {
			match = &r.tables[i]
		}
	}
	if match == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoTable, date)
	}
	return match, nil
}

// ruleFile is the on-disk layout accepted by Load.
type ruleFile struct {
	Tables []Table `json:"tables"`
}

// Load reads a rule-table history from a JSON file.
func Load(path string) (*Resolver, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading tax rules file %s: %w", path, err)
	}
	var file ruleFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing tax rules file %s: %w", path, err)
	}
	return NewResolver(file.Tables...)
}
