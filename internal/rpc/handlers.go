package rpc

import (
	"encoding/json"
	"time"

	"github.com/ghostpool/gopoold/internal/core/pool"
)

// decodeParams unmarshals the single params object into dst. A nil params
// payload leaves dst at its zero value.
func decodeParams(params json.RawMessage, dst interface{}) *RpcError {
	if params == nil {
		return nil
	}
	if err := json.Unmarshal(params, dst); err != nil {
		return rpcErrInvalidParams("Invalid params: " + err.Error())
	}
	return nil
}

// withdrawalView is a record plus its clock-derived status.
type withdrawalView struct {
	pool.WithdrawalRecord
	Status pool.WithdrawalStatus `json:"status"`
}

func viewOf(rec pool.WithdrawalRecord, now time.Time) withdrawalView {
	return withdrawalView{WithdrawalRecord: rec, Status: rec.StatusAt(now)}
}

// PingMethod answers liveness probes.
type PingMethod struct{}

func (m *PingMethod) Handle(_ *RpcContext, _ json.RawMessage) (interface{}, *RpcError) {
	return map[string]interface{}{}, nil
}

// ServerInfoMethod reports daemon build and pool summary information.
type ServerInfoMethod struct {
	services *Services
}

func (m *ServerInfoMethod) Handle(_ *RpcContext, _ json.RawMessage) (interface{}, *RpcError) {
	base, quote := m.services.Pool.Reserves()
	staked, buffer := m.services.Pool.StakingInfo()

	return map[string]interface{}{
		"version":        m.services.Version,
		"uptime_seconds": int64(time.Since(m.services.Started).Seconds()),
		"pool": map[string]interface{}{
			"reserve_base":    base,
			"reserve_quote":   quote,
			"staked_base":     staked,
			"buffer_base":     buffer,
			"lp_total_supply": m.services.Pool.LpTotalSupply(),
		},
	}, nil
}

// PoolInfoMethod reports the full accounting state and parameters.
type PoolInfoMethod struct {
	services *Services
}

func (m *PoolInfoMethod) Handle(_ *RpcContext, _ json.RawMessage) (interface{}, *RpcError) {
	state := m.services.Pool.StateSnapshot()
	params := m.services.Pool.Params()

	return map[string]interface{}{
		"reserve_base":    state.ReserveBase,
		"reserve_quote":   state.ReserveQuote,
		"staked_base":     state.StakedBase,
		"buffer_base":     state.BufferBase,
		"lp_total_supply": m.services.Pool.LpTotalSupply(),
		"params": map[string]interface{}{
			"buffer_target_bps": params.BufferTargetBps,
			"swap_fee_bps":      params.SwapFeeBps,
			"protocol_fee_bps":  params.ProtocolFeeBps,
			"minimum_liquidity": params.MinimumLiquidity,
			"unbonding_period":  params.UnbondingPeriod.String(),
			"treasury":          params.Treasury,
		},
	}, nil
}

// QuoteMethod prices a swap without executing it.
type QuoteMethod struct {
	services *Services
}

func (m *QuoteMethod) Handle(_ *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	var req struct {
		Direction string `json:"direction"`
		AmountIn  uint64 `json:"amount_in"`
	}
	if rpcErr := decodeParams(params, &req); rpcErr != nil {
		return nil, rpcErr
	}

	var out uint64
	switch req.Direction {
	case "base_to_quote":
		out = m.services.Pool.QuoteBaseForQuote(req.AmountIn)
	case "quote_to_base":
		out = m.services.Pool.QuoteQuoteForBase(req.AmountIn)
	default:
		return nil, rpcErrInvalidParams("direction must be base_to_quote or quote_to_base")
	}

	return map[string]interface{}{
		"direction":  req.Direction,
		"amount_in":  req.AmountIn,
		"amount_out": out,
	}, nil
}

// LpValueMethod reports the underlying assets an LP amount represents.
type LpValueMethod struct {
	services *Services
}

func (m *LpValueMethod) Handle(_ *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	var req struct {
		LpAmount uint64 `json:"lp_amount"`
	}
	if rpcErr := decodeParams(params, &req); rpcErr != nil {
		return nil, rpcErr
	}

	base, quote := m.services.Pool.LpValue(req.LpAmount)
	return map[string]interface{}{
		"lp_amount":   req.LpAmount,
		"base_value":  base,
		"quote_value": quote,
	}, nil
}

// LpBalanceMethod reports a holder's LP balance.
type LpBalanceMethod struct {
	services *Services
}

func (m *LpBalanceMethod) Handle(_ *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	var req struct {
		Holder string `json:"holder"`
	}
	if rpcErr := decodeParams(params, &req); rpcErr != nil {
		return nil, rpcErr
	}
	if req.Holder == "" {
		return nil, rpcErrInvalidParams("holder is required")
	}

	return map[string]interface{}{
		"holder":  req.Holder,
		"balance": m.services.Pool.LpBalanceOf(req.Holder),
	}, nil
}

// UserWithdrawalsMethod lists every withdrawal record for an owner.
type UserWithdrawalsMethod struct {
	services *Services
}

func (m *UserWithdrawalsMethod) Handle(_ *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	var req struct {
		Owner string `json:"owner"`
	}
	if rpcErr := decodeParams(params, &req); rpcErr != nil {
		return nil, rpcErr
	}
	if req.Owner == "" {
		return nil, rpcErrInvalidParams("owner is required")
	}

	now := m.services.Pool.Now()
	recs := m.services.Pool.UserWithdrawals(req.Owner)
	views := make([]withdrawalView, 0, len(recs))
	for _, rec := range recs {
		views = append(views, viewOf(rec, now))
	}

	return map[string]interface{}{
		"owner":       req.Owner,
		"withdrawals": views,
	}, nil
}

// WithdrawalMethod fetches a single withdrawal record.
type WithdrawalMethod struct {
	services *Services
}

func (m *WithdrawalMethod) Handle(_ *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	var req struct {
		ID uint64 `json:"id"`
	}
	if rpcErr := decodeParams(params, &req); rpcErr != nil {
		return nil, rpcErr
	}

	rec, err := m.services.Pool.Withdrawal(req.ID)
	if err != nil {
		return nil, engineError(err)
	}

	return map[string]interface{}{
		"withdrawal": viewOf(rec, m.services.Pool.Now()),
	}, nil
}

// AddLiquidityMethod deposits both assets and mints LP shares.
type AddLiquidityMethod struct {
	services *Services
}

func (m *AddLiquidityMethod) Handle(_ *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	var req struct {
		Provider string `json:"provider"`
		BaseIn   uint64 `json:"base_in"`
		QuoteIn  uint64 `json:"quote_in"`
		MinLpOut uint64 `json:"min_lp_out"`
	}
	if rpcErr := decodeParams(params, &req); rpcErr != nil {
		return nil, rpcErr
	}
	if req.Provider == "" {
		return nil, rpcErrInvalidParams("provider is required")
	}

	minted, err := m.services.Pool.AddLiquidity(req.Provider, req.BaseIn, req.QuoteIn, req.MinLpOut)
	if err != nil {
		return nil, engineError(err)
	}

	return map[string]interface{}{
		"provider":  req.Provider,
		"lp_minted": minted,
	}, nil
}

// RemoveLiquidityMethod burns LP shares and opens a withdrawal record.
type RemoveLiquidityMethod struct {
	services *Services
}

func (m *RemoveLiquidityMethod) Handle(_ *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	var req struct {
		Provider    string `json:"provider"`
		LpAmount    uint64 `json:"lp_amount"`
		MinBaseOut  uint64 `json:"min_base_out"`
		MinQuoteOut uint64 `json:"min_quote_out"`
	}
	if rpcErr := decodeParams(params, &req); rpcErr != nil {
		return nil, rpcErr
	}
	if req.Provider == "" {
		return nil, rpcErrInvalidParams("provider is required")
	}

	rec, err := m.services.Pool.RemoveLiquidity(req.Provider, req.LpAmount, req.MinBaseOut, req.MinQuoteOut)
	if err != nil {
		return nil, engineError(err)
	}

	return map[string]interface{}{
		"withdrawal": viewOf(*rec, m.services.Pool.Now()),
	}, nil
}

// SwapMethod executes a swap in either direction.
type SwapMethod struct {
	services *Services
}

func (m *SwapMethod) Handle(_ *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	var req struct {
		Sender       string `json:"sender"`
		Direction    string `json:"direction"`
		AmountIn     uint64 `json:"amount_in"`
		MinAmountOut uint64 `json:"min_amount_out"`
	}
	if rpcErr := decodeParams(params, &req); rpcErr != nil {
		return nil, rpcErr
	}
	if req.Sender == "" {
		return nil, rpcErrInvalidParams("sender is required")
	}

	var (
		out uint64
		err error
	)
	switch req.Direction {
	case "base_to_quote":
		out, err = m.services.Pool.SwapBaseForQuote(req.Sender, req.AmountIn, req.MinAmountOut)
	case "quote_to_base":
		out, err = m.services.Pool.SwapQuoteForBase(req.Sender, req.AmountIn, req.MinAmountOut)
	default:
		return nil, rpcErrInvalidParams("direction must be base_to_quote or quote_to_base")
	}
	if err != nil {
		return nil, engineError(err)
	}

	return map[string]interface{}{
		"sender":     req.Sender,
		"direction":  req.Direction,
		"amount_in":  req.AmountIn,
		"amount_out": out,
	}, nil
}

// ClaimMethod pays out a matured withdrawal.
type ClaimMethod struct {
	services *Services
}

func (m *ClaimMethod) Handle(_ *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	var req struct {
		Owner        string `json:"owner"`
		WithdrawalID uint64 `json:"withdrawal_id"`
	}
	if rpcErr := decodeParams(params, &req); rpcErr != nil {
		return nil, rpcErr
	}
	if req.Owner == "" {
		return nil, rpcErrInvalidParams("owner is required")
	}

	amount, err := m.services.Pool.Claim(req.Owner, req.WithdrawalID)
	if err != nil {
		return nil, engineError(err)
	}

	return map[string]interface{}{
		"owner":         req.Owner,
		"withdrawal_id": req.WithdrawalID,
		"base_amount":   amount,
	}, nil
}

// CompoundMethod harvests staking rewards into the reserves. It is
// permissionless and takes no parameters.
type CompoundMethod struct {
	services *Services
}

func (m *CompoundMethod) Handle(_ *RpcContext, _ json.RawMessage) (interface{}, *RpcError) {
	added, err := m.services.Pool.Compound()
	if err != nil {
		return nil, engineError(err)
	}

	return map[string]interface{}{
		"rewards_to_pool": added,
	}, nil
}

// TransferLpMethod moves LP shares between holders.
type TransferLpMethod struct {
	services *Services
}

func (m *TransferLpMethod) Handle(_ *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	var req struct {
		From   string `json:"from"`
		To     string `json:"to"`
		Amount uint64 `json:"amount"`
	}
	if rpcErr := decodeParams(params, &req); rpcErr != nil {
		return nil, rpcErr
	}
	if req.From == "" || req.To == "" {
		return nil, rpcErrInvalidParams("from and to are required")
	}

	if err := m.services.Pool.TransferLp(req.From, req.To, req.Amount); err != nil {
		return nil, engineError(err)
	}

	return map[string]interface{}{
		"from":   req.From,
		"to":     req.To,
		"amount": req.Amount,
	}, nil
}

// HistoryMethod queries the event journal.
type HistoryMethod struct {
	services *Services
}

func (m *HistoryMethod) Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	var req struct {
		Kind  string `json:"kind"`
		Limit int    `json:"limit"`
	}
	if rpcErr := decodeParams(params, &req); rpcErr != nil {
		return nil, rpcErr
	}
	if m.services.Journal == nil {
		return nil, rpcErrInternal("history journal is not configured")
	}

	var (
		entries interface{}
		err     error
	)
	if req.Kind != "" {
		entries, err = m.services.Journal.ByKind(ctx.Context, req.Kind, req.Limit)
	} else {
		entries, err = m.services.Journal.Recent(ctx.Context, req.Limit)
	}
	if err != nil {
		return nil, rpcErrInternal(err.Error())
	}

	return map[string]interface{}{
		"events": entries,
	}, nil
}
