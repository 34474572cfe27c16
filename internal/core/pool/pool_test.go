package pool

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghostpool/gopoold/internal/assets"
	"github.com/ghostpool/gopoold/internal/staking"
)

const (
	alice    = "alice"
	bob      = "bob"
	treasury = "treasury"
)

// testEnv wires a pool to a fake delegator, an in-memory bank for both
// asset legs, a memory sink, and a controllable clock.
type testEnv struct {
	pool   *Pool
	staker *staking.Fake
	bank   *assets.Bank
	sink   *MemorySink
	now    time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		staker: staking.NewFake(),
		bank:   assets.NewBank(),
		sink:   NewMemorySink(),
		now:    time.Unix(1_700_000_000, 0).UTC(),
	}
	env.pool = New(
		Params{Treasury: treasury},
		env.staker,
		env.bank,
		env.bank,
		WithSink(env.sink),
		WithClock(func() time.Time { return env.now }),
	)
	env.bank.Mint(alice, 100_000_000_000)
	env.bank.Mint(bob, 100_000_000_000)
	return env
}

func (env *testEnv) advance(d time.Duration) {
	env.now = env.now.Add(d)
}

// bootstrap seeds the pool with the spec's 1e9/1e9 first deposit.
func (env *testEnv) bootstrap(t *testing.T) uint64 {
	t.Helper()
	minted, err := env.pool.AddLiquidity(alice, 1_000_000_000, 1_000_000_000, 0)
	require.NoError(t, err)
	return minted
}

// requireConsistent asserts the partition invariant and that the tracked
// staked amount mirrors the external delegator.
func (env *testEnv) requireConsistent(t *testing.T) {
	t.Helper()
	staked, buffer := env.pool.StakingInfo()
	base, _ := env.pool.Reserves()
	require.Equal(t, base, staked+buffer, "staked+buffer must equal reserveBase")
	require.Equal(t, staked, env.staker.Delegated(), "tracked stake must mirror delegator")
}

func TestAddLiquidityBootstrap(t *testing.T) {
	env := newTestEnv(t)

	minted := env.bootstrap(t)

	// isqrt(1e9 * 1e9) = 1e9, minus the locked minimum of 1000.
	assert.Equal(t, uint64(999_999_000), minted)
	assert.Equal(t, uint64(1_000_000_000), env.pool.LpTotalSupply())
	assert.Equal(t, minted, env.pool.LpBalanceOf(alice))

	base, quote := env.pool.Reserves()
	assert.Equal(t, uint64(1_000_000_000), base)
	assert.Equal(t, uint64(1_000_000_000), quote)

	// 10% buffer target: 1e8 stays liquid, the rest is delegated.
	staked, buffer := env.pool.StakingInfo()
	assert.Equal(t, uint64(100_000_000), buffer)
	assert.Equal(t, uint64(900_000_000), staked)
	env.requireConsistent(t)

	ev, ok := env.sink.Last().(LiquidityAdded)
	require.True(t, ok)
	assert.Equal(t, alice, ev.Provider)
	assert.Equal(t, minted, ev.LpMinted)
}

func TestAddLiquidityValidation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name            string
		baseIn, quoteIn uint64
		minLpOut        uint64
		want            error
	}{
		{"zero_base", 0, 1000, 0, ErrZeroAmount},
		{"zero_quote", 1000, 0, 0, ErrZeroAmount},
		{"initial_too_low", 10, 10, 0, ErrInsufficientInitialLiquidity},
		{"initial_equals_minimum", 1000, 1000, 0, ErrInsufficientInitialLiquidity},
		{"slippage", 1_000_000_000, 1_000_000_000, 1_000_000_000, ErrSlippageExceeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.pool.AddLiquidity(alice, tt.baseIn, tt.quoteIn, tt.minLpOut)
			assert.ErrorIs(t, err, tt.want)

			base, quote := env.pool.Reserves()
			assert.Zero(t, base)
			assert.Zero(t, quote)
			assert.Zero(t, env.pool.LpTotalSupply())
		})
	}
}

func TestAddLiquidityProportional(t *testing.T) {
	env := newTestEnv(t)
	env.bootstrap(t)

	// Balanced second deposit mints pro rata against the 1e9 supply.
	minted, err := env.pool.AddLiquidity(bob, 500_000_000, 500_000_000, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(500_000_000), minted)

	base, quote := env.pool.Reserves()
	assert.Equal(t, uint64(1_500_000_000), base)
	assert.Equal(t, uint64(1_500_000_000), quote)
	env.requireConsistent(t)
}

func TestAddLiquidityImbalancedUsesSmallerRatio(t *testing.T) {
	env := newTestEnv(t)
	env.bootstrap(t)

	// Quote side is the limiting ratio; the extra base is donated to the
	// pool rather than minting additional shares.
	minted, err := env.pool.AddLiquidity(bob, 500_000_000, 100_000_000, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(100_000_000), minted)
	env.requireConsistent(t)
}

func TestAddLiquidityProductGrows(t *testing.T) {
	env := newTestEnv(t)
	env.bootstrap(t)

	for _, amt := range []uint64{1_000, 77_777, 12_345_678} {
		b0, q0 := env.pool.Reserves()
		minted, err := env.pool.AddLiquidity(bob, amt, amt, 0)
		require.NoError(t, err)
		require.NotZero(t, minted)

		b1, q1 := env.pool.Reserves()
		require.True(t, b1 > b0 && q1 > q0, "reserve product must strictly grow")
	}
}

func TestSwapBaseForQuote(t *testing.T) {
	env := newTestEnv(t)
	env.bootstrap(t)

	bobQuoteBefore := env.bank.BalanceOf(bob)
	out, err := env.pool.SwapBaseForQuote(bob, 100_000_000, 0)
	require.NoError(t, err)

	// effIn = 1e8 * 9970/10000 = 99_700_000
	// out   = 99_700_000 * 1e9 / (1e9 + 99_700_000) = 90_661_089
	assert.Equal(t, uint64(90_661_089), out)
	assert.Equal(t, bobQuoteBefore+out, env.bank.BalanceOf(bob))

	base, quote := env.pool.Reserves()
	assert.Equal(t, uint64(1_100_000_000), base)
	assert.Equal(t, uint64(1_000_000_000-90_661_089), quote)

	// Buffer settles at 10% of the grown base reserve.
	_, buffer := env.pool.StakingInfo()
	assert.Equal(t, uint64(110_000_000), buffer)
	env.requireConsistent(t)

	// Fee keeps the invariant product from shrinking.
	require.GreaterOrEqual(t, base*quote, uint64(1_000_000_000)*uint64(1_000_000_000))
}

func TestSwapOutputMonotonic(t *testing.T) {
	// Holding reserves fixed, output strictly increases with input.
	var prev uint64
	for _, in := range []uint64{1_000, 10_000, 1_000_000, 50_000_000, 400_000_000} {
		out := amountOut(in, 1_000_000_000, 1_000_000_000, DefaultSwapFeeBps)
		require.Greater(t, out, prev, "amountOut must grow with amountIn")
		require.Less(t, out, uint64(1_000_000_000), "output approaches but never reaches reserveOut")
		prev = out
	}
}

func TestSwapBaseForQuoteSlippage(t *testing.T) {
	env := newTestEnv(t)
	env.bootstrap(t)

	_, err := env.pool.SwapBaseForQuote(bob, 100_000_000, 95_000_000)
	assert.ErrorIs(t, err, ErrSlippageExceeded)

	base, quote := env.pool.Reserves()
	assert.Equal(t, uint64(1_000_000_000), base)
	assert.Equal(t, uint64(1_000_000_000), quote)
}

func TestSwapQuoteForBase(t *testing.T) {
	env := newTestEnv(t)
	env.bootstrap(t)

	// Buffer is 1e8; a small reverse swap settles from it directly.
	out, err := env.pool.SwapQuoteForBase(bob, 10_000_000, 0)
	require.NoError(t, err)
	require.NotZero(t, out)
	require.LessOrEqual(t, out, uint64(100_000_000))

	base, quote := env.pool.Reserves()
	assert.Equal(t, uint64(1_000_000_000-out), base)
	assert.Equal(t, uint64(1_010_000_000), quote)
	env.requireConsistent(t)
}

func TestSwapQuoteForBaseInsufficientBuffer(t *testing.T) {
	env := newTestEnv(t)
	env.bootstrap(t)

	// A quote-in large enough to price out more base than the 1e8 buffer.
	quoteIn := uint64(500_000_000)
	priced := env.pool.QuoteQuoteForBase(quoteIn)
	require.Greater(t, priced, uint64(100_000_000), "test premise: output exceeds buffer")

	_, err := env.pool.SwapQuoteForBase(bob, quoteIn, 0)
	assert.ErrorIs(t, err, ErrInsufficientBuffer)

	base, quote := env.pool.Reserves()
	assert.Equal(t, uint64(1_000_000_000), base)
	assert.Equal(t, uint64(1_000_000_000), quote)
	env.requireConsistent(t)
}

func TestSwapZeroAmount(t *testing.T) {
	env := newTestEnv(t)
	env.bootstrap(t)

	_, err := env.pool.SwapBaseForQuote(bob, 0, 0)
	assert.ErrorIs(t, err, ErrZeroAmount)
	_, err = env.pool.SwapQuoteForBase(bob, 0, 0)
	assert.ErrorIs(t, err, ErrZeroAmount)
}

func TestRemoveLiquidity(t *testing.T) {
	env := newTestEnv(t)
	env.bootstrap(t)

	// Bob deposits then removes everything; the pro-rata payout returns
	// his deposit exactly at unchanged reserves.
	minted, err := env.pool.AddLiquidity(bob, 500_000_000, 500_000_000, 0)
	require.NoError(t, err)

	bobQuoteBefore := env.bank.BalanceOf(bob)
	rec, err := env.pool.RemoveLiquidity(bob, minted, 0, 0)
	require.NoError(t, err)

	assert.Equal(t, uint64(500_000_000), rec.BaseAmount)
	assert.Equal(t, uint64(500_000_000), rec.QuoteAmount)
	assert.Equal(t, minted, rec.LpBurned)
	assert.Equal(t, bob, rec.Owner)
	assert.Equal(t, env.now.Add(DefaultUnbondingPeriod), rec.ClaimableAt)
	assert.False(t, rec.Claimed)
	assert.Equal(t, StatusPending, rec.StatusAt(env.now))

	// Quote leg settles immediately; base leg is queued.
	assert.Equal(t, bobQuoteBefore+rec.QuoteAmount, env.bank.BalanceOf(bob))
	assert.Zero(t, env.pool.LpBalanceOf(bob))

	// Reserves drop right away even though base has not been paid out.
	base, quote := env.pool.Reserves()
	assert.Equal(t, uint64(1_000_000_000), base)
	assert.Equal(t, uint64(1_000_000_000), quote)
	env.requireConsistent(t)
}

func TestRemoveLiquidityRoundTripLoss(t *testing.T) {
	env := newTestEnv(t)
	env.bootstrap(t)

	// Odd amounts force rounding; the loss is at most 1 unit per asset.
	deposit := uint64(333_333_337)
	minted, err := env.pool.AddLiquidity(bob, deposit, deposit, 0)
	require.NoError(t, err)

	rec, err := env.pool.RemoveLiquidity(bob, minted, 0, 0)
	require.NoError(t, err)
	assert.InDelta(t, float64(deposit), float64(rec.BaseAmount), 1)
	assert.InDelta(t, float64(deposit), float64(rec.QuoteAmount), 1)
	assert.LessOrEqual(t, rec.BaseAmount, deposit)
	assert.LessOrEqual(t, rec.QuoteAmount, deposit)
}

func TestRemoveLiquidityDrawsFromStaked(t *testing.T) {
	env := newTestEnv(t)
	env.bootstrap(t)

	// Alice's full position exceeds the 1e8 buffer, so the shortfall is
	// undelegated through the staking interface.
	delegatedBefore := env.staker.Delegated()
	lp := env.pool.LpBalanceOf(alice)
	rec, err := env.pool.RemoveLiquidity(alice, lp, 0, 0)
	require.NoError(t, err)

	require.Greater(t, rec.BaseAmount, uint64(100_000_000))
	assert.Equal(t, delegatedBefore-(rec.BaseAmount-100_000_000), env.staker.Delegated())

	_, buffer := env.pool.StakingInfo()
	assert.Zero(t, buffer)
	env.requireConsistent(t)
}

func TestRemoveLiquidityValidation(t *testing.T) {
	env := newTestEnv(t)
	env.bootstrap(t)

	_, err := env.pool.RemoveLiquidity(alice, 0, 0, 0)
	assert.ErrorIs(t, err, ErrZeroAmount)

	_, err = env.pool.RemoveLiquidity(bob, 1, 0, 0)
	assert.ErrorIs(t, err, ErrInsufficientLpBalance)

	lp := env.pool.LpBalanceOf(alice)
	_, err = env.pool.RemoveLiquidity(alice, lp, 2_000_000_000, 0)
	assert.ErrorIs(t, err, ErrSlippageExceeded)
}

func TestClaimLifecycle(t *testing.T) {
	env := newTestEnv(t)
	env.bootstrap(t)

	minted, err := env.pool.AddLiquidity(bob, 500_000_000, 500_000_000, 0)
	require.NoError(t, err)
	rec, err := env.pool.RemoveLiquidity(bob, minted, 0, 0)
	require.NoError(t, err)

	// Too early.
	_, err = env.pool.Claim(bob, rec.ID)
	assert.ErrorIs(t, err, ErrStillUnbonding)

	// Wrong owner.
	env.advance(DefaultUnbondingPeriod + time.Second)
	_, err = env.pool.Claim(alice, rec.ID)
	assert.ErrorIs(t, err, ErrNotOwner)

	// Unknown id.
	_, err = env.pool.Claim(bob, rec.ID+99)
	assert.ErrorIs(t, err, ErrWithdrawalNotFound)

	// Matured claim pays exactly once.
	bobBefore := env.bank.BalanceOf(bob)
	amount, err := env.pool.Claim(bob, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.BaseAmount, amount)
	assert.Equal(t, bobBefore+amount, env.bank.BalanceOf(bob))

	got, err := env.pool.Withdrawal(rec.ID)
	require.NoError(t, err)
	assert.True(t, got.Claimed)
	assert.Equal(t, StatusClaimed, got.StatusAt(env.now))

	// Second claim always fails.
	_, err = env.pool.Claim(bob, rec.ID)
	assert.ErrorIs(t, err, ErrAlreadyClaimed)
}

func TestUserWithdrawals(t *testing.T) {
	env := newTestEnv(t)
	env.bootstrap(t)

	minted, err := env.pool.AddLiquidity(bob, 600_000_000, 600_000_000, 0)
	require.NoError(t, err)

	first, err := env.pool.RemoveLiquidity(bob, minted/2, 0, 0)
	require.NoError(t, err)
	second, err := env.pool.RemoveLiquidity(bob, minted/4, 0, 0)
	require.NoError(t, err)

	recs := env.pool.UserWithdrawals(bob)
	require.Len(t, recs, 2)
	assert.Equal(t, first.ID, recs[0].ID)
	assert.Equal(t, second.ID, recs[1].ID)
	assert.Greater(t, second.ID, first.ID)

	assert.Empty(t, env.pool.UserWithdrawals(alice))
}

func TestCompound(t *testing.T) {
	env := newTestEnv(t)
	env.bootstrap(t)

	env.staker.AccrueReward(10_000_000)

	baseBefore, _ := env.pool.Reserves()
	supplyBefore := env.pool.LpTotalSupply()

	added, err := env.pool.Compound()
	require.NoError(t, err)

	// 10% protocol fee to the treasury, the rest into reserves.
	assert.Equal(t, uint64(9_000_000), added)
	assert.Equal(t, uint64(1_000_000), env.bank.BalanceOf(treasury))

	baseAfter, _ := env.pool.Reserves()
	assert.Equal(t, baseBefore+added, baseAfter)
	assert.Equal(t, supplyBefore, env.pool.LpTotalSupply(), "compounding must not mint LP")
	env.requireConsistent(t)

	ev, ok := env.sink.Last().(Compounded)
	require.True(t, ok)
	assert.Equal(t, uint64(10_000_000), ev.RewardsHarvested)
	assert.Equal(t, uint64(1_000_000), ev.ProtocolFee)
	assert.Equal(t, uint64(9_000_000), ev.RewardsToPool)

	// LP value per share grew without supply change.
	b, q := env.pool.LpValue(supplyBefore)
	assert.Equal(t, baseAfter, b)
	assert.Equal(t, uint64(1_000_000_000), q)
}

func TestCompoundNoRewards(t *testing.T) {
	env := newTestEnv(t)
	env.bootstrap(t)

	added, err := env.pool.Compound()
	require.NoError(t, err)
	assert.Zero(t, added)

	// No event emitted for the no-op.
	events := env.sink.Events()
	require.Len(t, events, 1) // only the bootstrap deposit
}

func TestExternalFailureLeavesStateUntouched(t *testing.T) {
	t.Run("delegate_fails_on_deposit", func(t *testing.T) {
		env := newTestEnv(t)
		env.staker.DelegateErr = errors.New("validator offline")

		aliceBefore := env.bank.BalanceOf(alice)
		_, err := env.pool.AddLiquidity(alice, 1_000_000_000, 1_000_000_000, 0)
		assert.ErrorIs(t, err, ErrExternalCall)

		base, quote := env.pool.Reserves()
		assert.Zero(t, base)
		assert.Zero(t, quote)
		assert.Zero(t, env.pool.LpTotalSupply())
		// Quote leg was pulled then refunded.
		assert.Equal(t, aliceBefore, env.bank.BalanceOf(alice))
	})

	t.Run("transfer_fails_on_swap", func(t *testing.T) {
		env := newTestEnv(t)
		env.bootstrap(t)

		env.bank.FailNext = errors.New("token contract down")
		_, err := env.pool.SwapBaseForQuote(bob, 100_000_000, 0)
		assert.ErrorIs(t, err, ErrExternalCall)

		base, quote := env.pool.Reserves()
		assert.Equal(t, uint64(1_000_000_000), base)
		assert.Equal(t, uint64(1_000_000_000), quote)
		env.requireConsistent(t)
	})

	t.Run("undelegate_fails_on_remove", func(t *testing.T) {
		env := newTestEnv(t)
		env.bootstrap(t)

		env.staker.UndelegateErr = errors.New("auction busy")
		lp := env.pool.LpBalanceOf(alice)
		_, err := env.pool.RemoveLiquidity(alice, lp, 0, 0)
		assert.ErrorIs(t, err, ErrExternalCall)

		assert.Equal(t, lp, env.pool.LpBalanceOf(alice))
		base, quote := env.pool.Reserves()
		assert.Equal(t, uint64(1_000_000_000), base)
		assert.Equal(t, uint64(1_000_000_000), quote)
		env.requireConsistent(t)
	})

	t.Run("reward_query_fails_on_compound", func(t *testing.T) {
		env := newTestEnv(t)
		env.bootstrap(t)

		env.staker.RewardErr = errors.New("rpc timeout")
		_, err := env.pool.Compound()
		assert.ErrorIs(t, err, ErrExternalCall)
		env.requireConsistent(t)
	})
}

func TestTransferLp(t *testing.T) {
	env := newTestEnv(t)
	minted := env.bootstrap(t)

	require.NoError(t, env.pool.TransferLp(alice, bob, 1000))
	assert.Equal(t, minted-1000, env.pool.LpBalanceOf(alice))
	assert.Equal(t, uint64(1000), env.pool.LpBalanceOf(bob))

	err := env.pool.TransferLp(bob, alice, 5000)
	assert.ErrorIs(t, err, ErrInsufficientLpBalance)

	err = env.pool.TransferLp(alice, bob, 0)
	assert.ErrorIs(t, err, ErrZeroAmount)
}

func TestSnapshotRestore(t *testing.T) {
	env := newTestEnv(t)
	env.bootstrap(t)

	minted, err := env.pool.AddLiquidity(bob, 500_000_000, 500_000_000, 0)
	require.NoError(t, err)
	rec, err := env.pool.RemoveLiquidity(bob, minted/2, 0, 0)
	require.NoError(t, err)

	snap := env.pool.Snapshot()
	records := env.pool.UserWithdrawals(bob)

	// Restore into a fresh pool wired to equivalent collaborators.
	restored := New(Params{Treasury: treasury}, env.staker, env.bank, env.bank,
		WithClock(func() time.Time { return env.now }))
	restored.Restore(snap, records)

	assert.Equal(t, records, restored.UserWithdrawals(bob))

	assert.Equal(t, env.pool.LpTotalSupply(), restored.LpTotalSupply())
	assert.Equal(t, env.pool.LpBalanceOf(bob), restored.LpBalanceOf(bob))

	b0, q0 := env.pool.Reserves()
	b1, q1 := restored.Reserves()
	assert.Equal(t, b0, b1)
	assert.Equal(t, q0, q1)

	got, err := restored.Withdrawal(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.BaseAmount, got.BaseAmount)

	// The restored pool keeps allocating fresh ids.
	more, err := restored.RemoveLiquidity(bob, 1000, 0, 0)
	require.NoError(t, err)
	assert.Greater(t, more.ID, rec.ID)
}

func TestQuoteViewsMatchSwaps(t *testing.T) {
	env := newTestEnv(t)
	env.bootstrap(t)

	quoted := env.pool.QuoteBaseForQuote(100_000_000)
	out, err := env.pool.SwapBaseForQuote(bob, 100_000_000, 0)
	require.NoError(t, err)
	assert.Equal(t, quoted, out)
}
