package settlement

import (
	"math/big"

	"virtual-swap/pkg/amount"
	"virtual-swap/pkg/rate"
	"virtual-swap/pkg/slippage"
	"virtual-swap/pkg/types"
)

// Summary renders the frozen settlement for the review step
func (m *Machine) Summary(p ConfirmParams) types.ReviewDisplay {
	swap := m.swap
	s := m.settlement
	if s.Amount == nil {
		s = m.proposal
	}

	d := types.ReviewDisplay{
		FromSymbol: swap.SynthFrom.Symbol,
		FromAmount: displayAmount(s.Amount, swap.SynthFrom.Decimals),
	}
	if s.Action != ActionSettle {
		return d
	}

	d.ToSymbol = swap.TokenTo.Symbol
	d.Pair = swap.Pair()
	if m.quote == nil {
		return d
	}

	d.ToAmount = displayAmount(m.quote.Output, swap.TokenTo.Decimals)
	d.Rate = rate.FormatRate(m.quote.ExchangeRate)
	d.PriceImpact = rate.FormatImpact(m.quote.PriceImpact)
	d.HighImpact = m.quote.HighImpact
	if swap.SwapType.SettlesToToken() {
		d.MinOutput = displayAmount(slippage.MinOutput(m.quote.Output, p.Slippage), swap.TokenTo.Decimals)
		d.DeadlineMinutes = p.Deadline.Minutes()
	}
	return d
}

func displayAmount(a *big.Int, decimals int) string {
	if a == nil {
		return ""
	}
	return amount.Commify(amount.Format(a, decimals, amount.DisplayPlaces))
}
