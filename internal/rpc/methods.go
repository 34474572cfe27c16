package rpc

// registerAllMethods sets up the complete method registry.
func (s *Server) registerAllMethods() {
	// Server methods
	s.registry.Register("ping", &PingMethod{})
	s.registry.Register("server_info", &ServerInfoMethod{services: s.services})

	// Pool view methods
	s.registry.Register("pool_info", &PoolInfoMethod{services: s.services})
	s.registry.Register("quote", &QuoteMethod{services: s.services})
	s.registry.Register("lp_value", &LpValueMethod{services: s.services})
	s.registry.Register("lp_balance", &LpBalanceMethod{services: s.services})
	s.registry.Register("user_withdrawals", &UserWithdrawalsMethod{services: s.services})
	s.registry.Register("withdrawal", &WithdrawalMethod{services: s.services})

	// Pool operations
	s.registry.Register("add_liquidity", &AddLiquidityMethod{services: s.services})
	s.registry.Register("remove_liquidity", &RemoveLiquidityMethod{services: s.services})
	s.registry.Register("swap", &SwapMethod{services: s.services})
	s.registry.Register("claim", &ClaimMethod{services: s.services})
	s.registry.Register("compound", &CompoundMethod{services: s.services})
	s.registry.Register("transfer_lp", &TransferLpMethod{services: s.services})

	// History
	s.registry.Register("history", &HistoryMethod{services: s.services})
}
