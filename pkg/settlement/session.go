package settlement

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"go.uber.org/zap"

	"virtual-swap/pkg/bridge"
	apperr "virtual-swap/pkg/errors"
	"virtual-swap/pkg/notify"
	"virtual-swap/pkg/rate"
	"virtual-swap/pkg/types"
)

// Session owns one Machine and performs the side effects its transitions
// request. All machine access goes through the session's lock.
type Session struct {
	mu     sync.Mutex
	m      *Machine
	bridge bridge.Bridge
	sink   notify.Sink
	logger *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	ready     chan struct{}
	readyOnce sync.Once
	done      chan struct{}
	doneOnce  sync.Once

	quoteSignal  chan struct{}
	lastQuoteErr error
}

// View is a point-in-time copy of a session's machine
type View struct {
	State            State
	SecondsRemaining int64
	Settlement       Settlement
	Quote            *Quote
	NeedsAck         bool
	Acknowledged     bool
	TxHash           string
	Err              error
}

// NewSession starts a session for a pending swap. Cancelling ctx aborts
// outstanding quote and settlement calls.
func NewSession(ctx context.Context, swap types.PendingSwap, secondsRemaining int64, opts Options, b bridge.Bridge, sink notify.Sink, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sink == nil {
		sink = &notify.Recorder{}
	}
	ctx, cancel := context.WithCancel(ctx)

	s := &Session{
		m:           NewMachine(swap, secondsRemaining, opts),
		bridge:      b,
		sink:        sink,
		logger:      logger.With(zap.String("item_id", swap.ItemID.String())),
		ctx:         ctx,
		cancel:      cancel,
		ready:       make(chan struct{}),
		done:        make(chan struct{}),
		quoteSignal: make(chan struct{}),
	}
	s.checkReady()
	return s
}

// ID is the pending swap's item id
func (s *Session) ID() string {
	return s.m.swap.ItemID.String()
}

// Swap returns the pending swap
func (s *Session) Swap() types.PendingSwap {
	return s.m.swap
}

// Tick feeds a countdown value to the machine
func (s *Session) Tick(secondsRemaining int64) {
	s.mu.Lock()
	before := s.m.State()
	intents := s.m.Tick(secondsRemaining)
	after := s.m.State()
	s.mu.Unlock()

	if before != after {
		s.logger.Info("pending swap ready to settle")
	}
	s.checkReady()
	s.run(intents)
}

// Refresh applies an externally fetched countdown value
func (s *Session) Refresh(secondsRemaining int64) {
	s.mu.Lock()
	intents := s.m.Refresh(secondsRemaining)
	s.mu.Unlock()

	s.checkReady()
	s.run(intents)
}

func (s *Session) Propose(action Action, amt *big.Int) error {
	s.mu.Lock()
	intents, err := s.m.Propose(action, amt)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.run(intents)
	return nil
}

func (s *Session) Review(action Action, amt *big.Int) error {
	s.mu.Lock()
	intents, err := s.m.Review(action, amt)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.logger.Info("reviewing settlement", zap.String("action", string(action)))
	s.run(intents)
	return nil
}

func (s *Session) Acknowledge() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m.Acknowledge()
}

func (s *Session) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m.Cancel()
}

func (s *Session) UpdatePrices(from, to rate.Price) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m.UpdatePrices(from, to)
}

// Confirm dispatches the reviewed settlement. It reports false when the
// confirmation was gated on an acknowledgment.
func (s *Session) Confirm(p ConfirmParams) (bool, error) {
	s.mu.Lock()
	intents, err := s.m.Confirm(p)
	s.mu.Unlock()
	if err != nil {
		s.logger.Warn("settlement not confirmed", zap.Error(err))
		return false, err
	}
	if len(intents) == 0 {
		return false, nil
	}

	s.run(intents)
	return true, nil
}

// Snapshot copies the machine's observable state
func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		State:            s.m.State(),
		SecondsRemaining: s.m.SecondsRemaining(),
		Settlement:       s.m.Settlement(),
		NeedsAck:         s.m.NeedsAcknowledgment(),
		Acknowledged:     s.m.Acknowledged(),
		TxHash:           s.m.TxHash(),
		Err:              s.m.Err(),
	}
	if q := s.m.Quote(); q != nil {
		cp := *q
		v.Quote = &cp
	}
	return v
}

// Summary renders the review step
func (s *Session) Summary(p ConfirmParams) types.ReviewDisplay {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m.Summary(p)
}

// WaitReady blocks until the countdown has elapsed
func (s *Session) WaitReady(ctx context.Context) error {
	select {
	case <-s.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AwaitQuote blocks until the outstanding quote request resolves. It returns
// nil without error when no quote applies to the current proposal.
func (s *Session) AwaitQuote(ctx context.Context) (*Quote, error) {
	for {
		s.mu.Lock()
		q := s.m.Quote()
		pending := s.m.QuotePending()
		qerr := s.lastQuoteErr
		signal := s.quoteSignal
		s.mu.Unlock()

		if q != nil {
			cp := *q
			return &cp, nil
		}
		if !pending {
			return nil, qerr
		}

		select {
		case <-signal:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// AwaitReviewQuote waits for the quote of the reviewed settlement. A failed
// quote only blocks settling into a token; withdrawals go ahead without one.
func (s *Session) AwaitReviewQuote(ctx context.Context) (*Quote, error) {
	q, err := s.AwaitQuote(ctx)
	if err == nil || ctx.Err() != nil {
		return q, err
	}

	s.mu.Lock()
	action := s.m.Settlement().Action
	s.mu.Unlock()

	if action == ActionWithdraw {
		s.logger.Warn("withdrawing without a quote", zap.Error(err))
		return nil, nil
	}
	return nil, err
}

// Done is closed once the settlement reaches DONE or FAILED
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Err returns the settlement failure, if any
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m.Err()
}

// Close aborts outstanding calls and waits for them to return
func (s *Session) Close() {
	s.cancel()
	s.wg.Wait()
}

func (s *Session) checkReady() {
	s.mu.Lock()
	state := s.m.State()
	s.mu.Unlock()

	if state != StateWaiting {
		s.readyOnce.Do(func() { close(s.ready) })
	}
}

func (s *Session) finish() {
	s.doneOnce.Do(func() { close(s.done) })
}

// run performs intents in order. Notifications are delivered synchronously
// so a pending toast always precedes its outcome.
func (s *Session) run(intents []Intent) {
	for _, in := range intents {
		switch in := in.(type) {
		case QuoteRequest:
			s.wg.Add(1)
			go s.fetchQuote(in)
		case SettlementCall:
			s.wg.Add(1)
			go s.dispatch(in)
		case Notification:
			s.sink.Notify(s.ctx, in.TxHash, in.Category)
		case Close:
			s.finish()
		}
	}
}

func (s *Session) fetchQuote(req QuoteRequest) {
	defer s.wg.Done()

	out, err := s.bridge.CalcCompleteToToken(s.ctx, req.ItemID, req.Amount)

	s.mu.Lock()
	defer s.mu.Unlock()

	rerr := s.m.QuoteResolved(req.Seq, out, err)
	if apperr.IsType(rerr, apperr.ErrQuoteStale) {
		s.logger.Debug("dropping superseded quote", zap.Uint64("seq", req.Seq))
		return
	}

	s.lastQuoteErr = rerr
	if rerr != nil {
		s.logger.Warn("quote request failed", zap.Uint64("seq", req.Seq), zap.Error(rerr))
	} else {
		s.logger.Debug("quote received", zap.Uint64("seq", req.Seq), zap.String("output", out.String()))
	}

	close(s.quoteSignal)
	s.quoteSignal = make(chan struct{})
}

func (s *Session) dispatch(call SettlementCall) {
	defer s.wg.Done()

	s.logger.Info("dispatching settlement",
		zap.String("call", string(call.Kind)),
		zap.String("amount", call.Amount.String()),
	)

	tx, err := s.send(call)
	if err != nil {
		s.resolve(err)
		return
	}

	s.mu.Lock()
	intents := s.m.Submitted(tx.Hash())
	s.mu.Unlock()
	s.run(intents)

	s.resolve(tx.Wait(s.ctx))
}

func (s *Session) send(call SettlementCall) (bridge.Tx, error) {
	switch call.Kind {
	case CallWithdraw:
		return s.bridge.Withdraw(s.ctx, call.ItemID, call.Amount)
	case CallCompleteToToken:
		return s.bridge.CompleteToToken(s.ctx, call.ItemID, call.Amount, call.MinOutput, call.Deadline)
	case CallCompleteToSynth:
		return s.bridge.CompleteToSynth(s.ctx, call.ItemID)
	default:
		return nil, fmt.Errorf("unknown settlement call %q", call.Kind)
	}
}

func (s *Session) resolve(err error) {
	s.mu.Lock()
	intents := s.m.Resolved(err)
	terminal := s.m.State().Terminal()
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("settlement failed", zap.Error(err))
	} else {
		s.logger.Info("settlement complete")
	}

	s.run(intents)
	if terminal {
		s.finish()
	}
}
