package settlement

import (
	"fmt"
	"math/big"
	"time"

	"virtual-swap/pkg/amount"
	"virtual-swap/pkg/deadline"
	apperr "virtual-swap/pkg/errors"
	"virtual-swap/pkg/notify"
	"virtual-swap/pkg/rate"
	"virtual-swap/pkg/slippage"
	"virtual-swap/pkg/types"
)

// State is the lifecycle position of a pending swap settlement
type State string

const (
	StateWaiting    State = "WAITING"
	StateReady      State = "READY"
	StateReviewing  State = "REVIEWING"
	StateConfirming State = "CONFIRMING"
	StateDone       State = "DONE"
	StateFailed     State = "FAILED"
)

// Terminal reports whether no further transitions are possible
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// Action is what the user chose to do with the synth balance
type Action string

const (
	ActionNone     Action = ""
	ActionWithdraw Action = "withdraw"
	ActionSettle   Action = "settle"
)

// Valid reports whether a is withdraw or settle
func (a Action) Valid() bool {
	return a == ActionWithdraw || a == ActionSettle
}

// Settlement is the action and amount the user is working with
type Settlement struct {
	Action Action
	Amount *big.Int
}

// Quote is the priced result of a calcCompleteToToken request
type Quote struct {
	Seq    uint64
	Amount *big.Int
	Output *big.Int
	rate.Info
}

// Options tune the confirmation gate
type Options struct {
	// HighImpactThreshold defaults to 5%
	HighImpactThreshold *big.Int
	// RequireAckForWithdraw applies the high impact gate to withdrawals too
	RequireAckForWithdraw bool
	// PriceFrom and PriceTo seed the USD prices of the two assets
	PriceFrom rate.Price
	PriceTo   rate.Price
}

// ConfirmParams carries the user's preferences at confirmation time
type ConfirmParams struct {
	Slippage slippage.Tolerance
	Deadline deadline.Selection
	Now      time.Time
}

// Machine drives one pending swap through settlement. It is not safe for
// concurrent use; Session serialises access to it.
type Machine struct {
	swap  types.PendingSwap
	opts  Options
	state State
	secs  int64

	proposal   Settlement
	settlement Settlement

	seq          uint64
	quotePending bool
	quote        *Quote

	acknowledged bool
	txHash       string
	err          error
}

// NewMachine starts a machine in WAITING, or READY when the countdown has
// already elapsed
func NewMachine(swap types.PendingSwap, secondsRemaining int64, opts Options) *Machine {
	if opts.HighImpactThreshold == nil {
		opts.HighImpactThreshold = rate.DefaultHighImpactThreshold
	}
	if secondsRemaining < 0 {
		secondsRemaining = 0
	}

	m := &Machine{
		swap:  swap,
		opts:  opts,
		state: StateWaiting,
		secs:  secondsRemaining,
	}
	if secondsRemaining == 0 {
		m.state = StateReady
	}
	return m
}

// State returns the current state
func (m *Machine) State() State {
	return m.state
}

// Swap returns the pending swap being settled
func (m *Machine) Swap() types.PendingSwap {
	return m.swap
}

// SecondsRemaining returns the last countdown value seen
func (m *Machine) SecondsRemaining() int64 {
	return m.secs
}

// Settlement returns the frozen settlement while reviewing or later
func (m *Machine) Settlement() Settlement {
	return m.settlement
}

// Quote returns the latest accepted quote, if any
func (m *Machine) Quote() *Quote {
	return m.quote
}

// QuotePending reports whether the latest quote request is still outstanding
func (m *Machine) QuotePending() bool {
	return m.quotePending
}

// TxHash returns the submitted settlement transaction hash
func (m *Machine) TxHash() string {
	return m.txHash
}

// Err returns the failure that moved the machine to FAILED
func (m *Machine) Err() error {
	return m.err
}

// Tick records a countdown value. The countdown never goes back up here;
// use Refresh for an externally re-raised value.
func (m *Machine) Tick(secondsRemaining int64) []Intent {
	if secondsRemaining < 0 {
		secondsRemaining = 0
	}
	if secondsRemaining < m.secs {
		m.secs = secondsRemaining
	}
	if m.state == StateWaiting && m.secs == 0 {
		m.state = StateReady
	}
	return nil
}

// Refresh replaces the countdown with an externally fetched value
func (m *Machine) Refresh(secondsRemaining int64) []Intent {
	if secondsRemaining < 0 {
		secondsRemaining = 0
	}
	m.secs = secondsRemaining
	return m.Tick(secondsRemaining)
}

// Propose records the user's current action and amount. Swaps that settle
// into a token get a quote request; any earlier request becomes stale.
func (m *Machine) Propose(action Action, amt *big.Int) ([]Intent, error) {
	if m.state != StateReady {
		return nil, apperr.NewInvalidStateError(fmt.Sprintf("cannot propose a settlement while %s", m.state))
	}
	if action != ActionNone && !action.Valid() {
		return nil, apperr.NewValidationError(fmt.Sprintf("unknown action %q", action))
	}
	if err := m.checkAmount(amt); err != nil {
		return nil, err
	}

	m.proposal = Settlement{Action: action, Amount: new(big.Int).Set(amt)}
	return m.requestQuote(amt), nil
}

// QuoteResolved applies the result of the quote request with the given
// sequence number. Results for superseded requests are rejected with a
// QuoteStaleError which callers drop.
func (m *Machine) QuoteResolved(seq uint64, output *big.Int, err error) error {
	if seq != m.seq || !m.quotePending || (m.state != StateReady && m.state != StateReviewing) {
		return apperr.NewQuoteStaleError(seq, m.seq)
	}

	m.quotePending = false
	if err == nil && output == nil {
		err = fmt.Errorf("empty result")
	}
	if err != nil {
		m.quote = nil
		return fmt.Errorf("failed to calculate settlement output: %w", err)
	}

	m.quote = &Quote{
		Seq:    seq,
		Amount: new(big.Int).Set(m.proposal.Amount),
		Output: new(big.Int).Set(output),
	}
	m.reprice()
	return nil
}

// UpdatePrices replaces the USD prices and re-derives the quote's impact
func (m *Machine) UpdatePrices(from, to rate.Price) {
	m.opts.PriceFrom = from
	m.opts.PriceTo = to
	m.reprice()
}

// Review freezes the settlement for confirmation. Reviewing an amount that
// has not been proposed yet proposes it first.
func (m *Machine) Review(action Action, amt *big.Int) ([]Intent, error) {
	if m.state != StateReady {
		return nil, apperr.NewInvalidStateError(fmt.Sprintf("cannot review a settlement while %s", m.state))
	}
	if !action.Valid() {
		return nil, apperr.NewValidationError("an action is required to review a settlement")
	}

	// completeToSynth moves the whole balance
	if action == ActionSettle && m.swap.SwapType == types.SwapTokenToSynth {
		amt = m.swap.SynthBalance
	}
	if err := m.checkAmount(amt); err != nil {
		return nil, err
	}
	if amt.Sign() == 0 {
		return nil, apperr.NewValidationError("settlement amount must be greater than zero")
	}

	var intents []Intent
	if m.proposal.Amount == nil || m.proposal.Amount.Cmp(amt) != 0 {
		m.proposal = Settlement{Action: action, Amount: new(big.Int).Set(amt)}
		intents = m.requestQuote(amt)
	}

	m.proposal.Action = action
	m.settlement = Settlement{Action: action, Amount: new(big.Int).Set(amt)}
	m.acknowledged = false
	m.state = StateReviewing
	return intents, nil
}

// NeedsAcknowledgment reports whether Confirm is gated on Acknowledge
func (m *Machine) NeedsAcknowledgment() bool {
	if m.state != StateReviewing || m.quote == nil || !m.quote.HighImpact {
		return false
	}
	if m.settlement.Action == ActionWithdraw {
		return m.opts.RequireAckForWithdraw
	}
	return true
}

// Acknowledged reports whether the high impact warning was accepted
func (m *Machine) Acknowledged() bool {
	return m.acknowledged
}

// Acknowledge accepts the high price impact warning for this review
func (m *Machine) Acknowledge() error {
	if m.state != StateReviewing {
		return apperr.NewInvalidStateError(fmt.Sprintf("nothing to acknowledge while %s", m.state))
	}
	m.acknowledged = true
	return nil
}

// Cancel abandons the current settlement and returns to READY
func (m *Machine) Cancel() error {
	switch m.state {
	case StateWaiting:
		return nil
	case StateReady, StateReviewing:
		m.proposal = Settlement{}
		m.settlement = Settlement{}
		m.acknowledged = false
		m.quote = nil
		m.quotePending = false
		m.seq++
		m.state = StateReady
		return nil
	default:
		return apperr.NewInvalidStateError(fmt.Sprintf("cannot cancel a settlement while %s", m.state))
	}
}

// Confirm dispatches the reviewed settlement. A gated confirmation without
// acknowledgment returns no intents and no error.
func (m *Machine) Confirm(p ConfirmParams) ([]Intent, error) {
	if m.state != StateReviewing {
		return nil, apperr.NewInvalidStateError(fmt.Sprintf("cannot confirm a settlement while %s", m.state))
	}
	if m.NeedsAcknowledgment() && !m.acknowledged {
		return nil, nil
	}
	if m.swap.ItemID == nil {
		return nil, apperr.NewValidationError("pending swap has no item id")
	}

	s := m.settlement
	call := SettlementCall{ItemID: new(big.Int).Set(m.swap.ItemID), Amount: new(big.Int).Set(s.Amount)}

	switch {
	case s.Action == ActionWithdraw:
		call.Kind = CallWithdraw

	case s.Action == ActionSettle && m.swap.SwapType.SettlesToToken():
		if m.quote == nil {
			m.settlement = Settlement{}
			m.acknowledged = false
			m.state = StateReady
			return nil, apperr.NewInvalidStateError("no quote available for settlement")
		}
		if p.Now.IsZero() {
			p.Now = time.Now()
		}
		dl, err := deadline.Resolve(p.Now, p.Deadline)
		if err != nil {
			return nil, err
		}
		call.Kind = CallCompleteToToken
		call.MinOutput = slippage.MinOutput(m.quote.Output, p.Slippage)
		call.Deadline = dl

	case s.Action == ActionSettle && m.swap.SwapType == types.SwapTokenToSynth:
		call.Kind = CallCompleteToSynth

	default:
		return nil, apperr.NewInvalidStateError(fmt.Sprintf("cannot %s a %s swap", s.Action, m.swap.SwapType))
	}

	m.state = StateConfirming
	return []Intent{call}, nil
}

// Submitted records the hash of the dispatched transaction
func (m *Machine) Submitted(txHash string) []Intent {
	if m.state != StateConfirming {
		return nil
	}
	m.txHash = txHash
	return []Intent{Notification{TxHash: txHash, Category: notify.CategoryPending}}
}

// Resolved finishes the settlement. A nil error means the transaction was
// mined successfully.
func (m *Machine) Resolved(err error) []Intent {
	if m.state != StateConfirming {
		return nil
	}

	if err != nil {
		m.state = StateFailed
		m.err = apperr.NewSettlementFailure(err)
		if m.txHash == "" {
			return nil
		}
		return []Intent{Notification{TxHash: m.txHash, Category: notify.CategoryError}}
	}

	m.state = StateDone
	return []Intent{
		Notification{TxHash: m.txHash, Category: notify.CategorySuccess},
		Close{},
	}
}

func (m *Machine) checkAmount(amt *big.Int) error {
	if err := amount.Validate(amt); err != nil {
		return err
	}
	if m.swap.SynthBalance != nil && amt.Cmp(m.swap.SynthBalance) > 0 {
		return apperr.NewValidationError("amount exceeds synth balance")
	}
	return nil
}

func (m *Machine) requestQuote(amt *big.Int) []Intent {
	m.seq++
	m.quote = nil

	if amt.Sign() == 0 || m.swap.ItemID == nil || !m.swap.SwapType.SettlesToToken() {
		m.quotePending = false
		return nil
	}

	m.quotePending = true
	return []Intent{QuoteRequest{
		Seq:    m.seq,
		ItemID: new(big.Int).Set(m.swap.ItemID),
		Amount: new(big.Int).Set(amt),
	}}
}

func (m *Machine) reprice() {
	if m.quote == nil {
		return
	}
	m.quote.Info = rate.Calculate(
		m.quote.Amount, m.swap.SynthFrom.Decimals, m.opts.PriceFrom,
		m.quote.Output, m.swap.TokenTo.Decimals, m.opts.PriceTo,
		m.opts.HighImpactThreshold,
	)
}
