package taxrules

import (
	"github.com/shopspring/decimal"
	"github.com/username/darfolio/backend/src/models"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic("taxrules: bad literal " + s)
	}
	return d
}

// Default returns the compiled-in reference rule set.
//
// Reference values: swing-trade stocks/ETFs/BDRs/options at 15% with the
// R$20,000 monthly exemption on stocks only; FIIs at 20% with no
// exemption; crypto on a progressive schedule above a R$35,000 monthly
// exemption; every day-trade lane at 20% with the 1% withholding at
// source. These figures track current law and are expected to change;
// production deployments should ship a TAX_RULES_PATH file instead of
// relying on this snapshot.
func Default() *Resolver {
	dayTrade := LaneRule{
		Rate:            dec("0.20"),
		IRRetentionRate: dec("0.01"),
	}
	swing15 := LaneRule{Rate: dec("0.15")}

	lanes := map[string]LaneRule{
		laneKey(models.AssetAcao, models.SwingTrade): {
			Rate:               dec("0.15"),
			ExemptionThreshold: dec("20000"),
		},
		laneKey(models.AssetETF, models.SwingTrade):   swing15,
		laneKey(models.AssetBDR, models.SwingTrade):   swing15,
		laneKey(models.AssetOpcao, models.SwingTrade): swing15,
		laneKey(models.AssetFII, models.SwingTrade): {
			Rate: dec("0.20"),
		},
		laneKey(models.AssetCripto, models.SwingTrade): {
			Rate:               dec("0.15"),
			ExemptionThreshold: dec("35000"),
			Brackets: []Bracket{
				{UpTo: dec("5000000"), Rate: dec("0.15")},
				{UpTo: dec("10000000"), Rate: dec("0.175")},
				{UpTo: dec("30000000"), Rate: dec("0.20")},
				{Rate: dec("0.225")},
			},
		},
	}
	for _, at := range models.AssetTypes {
		lanes[laneKey(at, models.DayTrade)] = dayTrade
	}

	resolver, err := NewResolver(Table{
		EffectiveFrom: "0001-01-01",
		Lanes:         lanes,
	})
	if err != nil {
		panic("taxrules: default table invalid: " + err.Error())
	}
	return resolver
}
