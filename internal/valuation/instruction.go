package valuation

import "github.com/mhorak/ibfolio/internal/model"

// instruction classifies a position against the user's price zones: Buy at
// or below the buy zone, Sell at or above the sell zone, Hold between.
// The returned percentages are the distance from the current price to each
// zone, relative to the price.
func instruction(price float64, meta model.MetadataOverride) (string, float64, float64) {
	instr := model.InstructionHold
	var pctBuy, pctSell float64

	if price <= 0 {
		return instr, pctBuy, pctSell
	}

	if meta.BuyZone != nil && *meta.BuyZone > 0 {
		bz := *meta.BuyZone
		pctBuy = (price - bz) / price * 100
		if price <= bz {
			instr = model.InstructionBuy
		}
	}
	if meta.SellZone != nil && *meta.SellZone > 0 {
		sz := *meta.SellZone
		pctSell = (sz - price) / price * 100
		if price >= sz {
			instr = model.InstructionSell
		}
	}

	return instr, pctBuy, pctSell
}
