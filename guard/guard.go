// Package guard enforces the live-mode balance floor. While live trading is
// enabled, no buy is admitted that would drop the account balance below the
// floor captured when the mode was switched on.
package guard

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/rustyeddy/tradeguard/notify"
	"github.com/rustyeddy/tradeguard/oracle"
	"github.com/rustyeddy/tradeguard/store"
)

// ErrOracleUnavailable reports that the balance oracle could not answer.
// Callers must treat it as a denial, never as permission.
var ErrOracleUnavailable = oracle.ErrUnavailable

// epsilon absorbs rounding slack when comparing against the floor. Carried
// over from the original admission rule; with decimal arithmetic it only
// matters for balances that were captured from float-formatted sources.
var epsilon = decimal.New(1, -9) // 1e-9

// Status is a read-only snapshot of the guard state. Other components read
// guard state through here, never through the guard's storage keys.
type Status struct {
	Enabled           bool
	Floor             decimal.Decimal
	FloorCaptured     bool
	RealizedProfitETH decimal.Decimal
	RealizedProfitUSD decimal.Decimal
}

// Guard owns the live-mode state for one user: the enabled flag, the balance
// floor and the realized-profit accumulator. It is safe for concurrent use;
// the oracle is never called while the state lock is held, so an admission
// check can overlap a mode toggle (the check re-reads the balance anyway).
type Guard struct {
	userID   string
	store    store.Store
	oracle   oracle.Oracle
	notifier notify.Notifier
	log      zerolog.Logger

	mu        sync.Mutex
	enabled   bool
	floor     decimal.Decimal
	hasFloor  bool
	profitETH decimal.Decimal
	profitUSD decimal.Decimal
}

// New restores guard state for userID from the store. Missing or corrupt
// keys fall back to the disabled, no-floor state with a logged warning; a
// broken store must never block a session from starting (it just cannot
// enable live mode safely until recapture succeeds).
func New(userID string, st store.Store, or oracle.Oracle, n notify.Notifier, log zerolog.Logger) *Guard {
	g := &Guard{
		userID:   userID,
		store:    st,
		oracle:   or,
		notifier: n,
		log:      log.With().Str("component", "guard").Str("user", userID).Logger(),
	}
	g.restore()
	return g
}

func (g *Guard) modeKey() string      { return "live:mode:" + g.userID }
func (g *Guard) floorKey() string     { return "live:floor:" + g.userID }
func (g *Guard) profitETHKey() string { return "live:profit:eth:" + g.userID }
func (g *Guard) profitUSDKey() string { return "live:profit:usd:" + g.userID }

func (g *Guard) restore() {
	g.enabled = g.loadFlag(g.modeKey())
	g.floor, g.hasFloor = g.loadDecimal(g.floorKey())
	g.profitETH, _ = g.loadDecimal(g.profitETHKey())
	g.profitUSD, _ = g.loadDecimal(g.profitUSDKey())
}

func (g *Guard) loadFlag(key string) bool {
	raw, ok, err := g.store.Get(key)
	if err != nil {
		g.log.Warn().Err(err).Str("key", key).Msg("load failed, assuming disabled")
		return false
	}
	return ok && string(raw) == "1"
}

func (g *Guard) loadDecimal(key string) (decimal.Decimal, bool) {
	raw, ok, err := g.store.Get(key)
	if err != nil {
		g.log.Warn().Err(err).Str("key", key).Msg("load failed, treating as absent")
		return decimal.Decimal{}, false
	}
	if !ok {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(string(raw))
	if err != nil {
		g.log.Warn().Err(err).Str("key", key).Str("value", string(raw)).Msg("corrupt value, treating as absent")
		return decimal.Decimal{}, false
	}
	return d, true
}

// persist writes one key, logging instead of failing: a dead store degrades
// record keeping, not the in-memory decision state.
func (g *Guard) persist(key, value string) {
	if err := g.store.Set(key, []byte(value)); err != nil {
		g.log.Warn().Err(err).Str("key", key).Msg("persist failed")
	}
}

// SetLiveMode enables or disables live trading. The first enable captures
// the floor from a fresh oracle read; later enables keep the existing floor,
// so toggling the switch off and on cannot reset the safety baseline (only
// RecaptureStartingBalance moves it). Enabling fails, state unchanged, when
// the oracle is unavailable. Disabling never touches the floor.
func (g *Guard) SetLiveMode(ctx context.Context, on bool) error {
	if !on {
		g.mu.Lock()
		g.enabled = false
		g.persist(g.modeKey(), "0")
		g.mu.Unlock()

		g.notifier.Notify(notify.Info, "Live mode disabled", "Real-funds trading is off. The balance floor is kept.")
		g.log.Info().Msg("live mode disabled")
		return nil
	}

	balance, err := g.oracle.GetBalance(ctx)
	if err != nil {
		g.notifier.Notify(notify.Error, "Live mode not enabled", "Could not read the account balance: "+err.Error())
		g.log.Warn().Err(err).Msg("enable refused, oracle unavailable")
		return fmt.Errorf("capture floor: %w", err)
	}

	g.mu.Lock()
	if !g.hasFloor {
		g.floor = balance
		g.hasFloor = true
		// Floor first: if the mode write is lost, a stale "disabled"
		// flag is safe, while an enabled flag without a floor is not.
		g.persist(g.floorKey(), balance.String())
	}
	floor := g.floor
	g.enabled = true
	g.persist(g.modeKey(), "1")
	g.mu.Unlock()

	g.notifier.Notify(notify.Success, "Live mode enabled",
		fmt.Sprintf("Balance floor at %s.", floor.String()))
	g.log.Info().Str("floor", floor.String()).Msg("live mode enabled")
	return nil
}

// RecaptureStartingBalance overwrites the floor with a fresh oracle read,
// independent of whether live mode is on. This is the only way to move the
// floor besides enabling live mode.
func (g *Guard) RecaptureStartingBalance(ctx context.Context) error {
	balance, err := g.oracle.GetBalance(ctx)
	if err != nil {
		g.notifier.Notify(notify.Error, "Floor not recaptured", "Could not read the account balance: "+err.Error())
		g.log.Warn().Err(err).Msg("recapture refused, oracle unavailable")
		return fmt.Errorf("recapture floor: %w", err)
	}

	g.mu.Lock()
	g.floor = balance
	g.hasFloor = true
	g.persist(g.floorKey(), balance.String())
	g.mu.Unlock()

	g.notifier.Notify(notify.Success, "Floor recaptured",
		fmt.Sprintf("Balance floor is now %s.", balance.String()))
	g.log.Info().Str("floor", balance.String()).Msg("floor recaptured")
	return nil
}

// CanExecuteRealBuy decides whether a buy of amount may run. false with a
// nil error is a policy denial (live mode off, no floor, or the buy would
// breach the floor); ErrOracleUnavailable means the balance is unknown and
// the caller must deny.
//
// The balance is re-read on every call: it can move between calls from
// spends outside this process, so cached state is never trusted.
func (g *Guard) CanExecuteRealBuy(ctx context.Context, amount decimal.Decimal) (bool, error) {
	g.mu.Lock()
	enabled, hasFloor, floor := g.enabled, g.hasFloor, g.floor
	g.mu.Unlock()

	if !enabled || !hasFloor {
		return false, nil
	}

	balance, err := g.oracle.GetBalance(ctx)
	if err != nil {
		g.notifier.Notify(notify.Warning, "Buy blocked", "Balance check failed: "+err.Error())
		g.log.Warn().Err(err).Msg("admission refused, oracle unavailable")
		return false, fmt.Errorf("admission check: %w", err)
	}

	spend := amount
	if spend.IsNegative() {
		spend = decimal.Zero
	}

	postBuy := balance.Sub(spend)
	if postBuy.LessThan(floor.Sub(epsilon)) {
		g.notifier.Notify(notify.Warning, "Risk guard blocked buy",
			fmt.Sprintf("Buying %s would leave %s, below the floor of %s.",
				amount.String(), postBuy.String(), floor.String()))
		g.log.Info().
			Str("amount", amount.String()).
			Str("balance", balance.String()).
			Str("floor", floor.String()).
			Msg("buy denied")
		return false, nil
	}

	return true, nil
}

// LockRealizedProfit folds a closed position's profit (or loss) into the
// accumulator. ethUSDPrice may be zero when no quote is available; the USD
// leg then simply does not move. Never fails: the arithmetic is local and
// persistence is best effort.
func (g *Guard) LockRealizedProfit(profitETH, ethUSDPrice decimal.Decimal) {
	g.mu.Lock()
	g.profitETH = g.profitETH.Add(profitETH)
	g.profitUSD = g.profitUSD.Add(profitETH.Mul(ethUSDPrice))
	g.persist(g.profitETHKey(), g.profitETH.String())
	g.persist(g.profitUSDKey(), g.profitUSD.String())
	totalETH := g.profitETH
	g.mu.Unlock()

	g.notifier.Notify(notify.Info, "Profit locked",
		fmt.Sprintf("Realized %s ETH this trade, %s ETH total.", profitETH.String(), totalETH.String()))
	g.log.Info().
		Str("delta_eth", profitETH.String()).
		Str("total_eth", totalETH.String()).
		Msg("realized profit locked")
}

// Status returns a snapshot of the guard state.
func (g *Guard) Status() Status {
	g.mu.Lock()
	defer g.mu.Unlock()

	return Status{
		Enabled:           g.enabled,
		Floor:             g.floor,
		FloorCaptured:     g.hasFloor,
		RealizedProfitETH: g.profitETH,
		RealizedProfitUSD: g.profitUSD,
	}
}
