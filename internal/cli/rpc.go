package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

var rpcURL string

// rpcCmd represents the rpc command group
var rpcCmd = &cobra.Command{
	Use:   "rpc",
	Short: "RPC client commands",
	Long:  `Send JSON-RPC requests to a running poold instance and print the result.`,
}

func init() {
	rootCmd.AddCommand(rpcCmd)
	rpcCmd.PersistentFlags().StringVar(&rpcURL, "url", "http://127.0.0.1:7145/", "poold RPC endpoint")

	rpcCmd.AddCommand(
		pingCmd,
		serverInfoCmd,
		poolInfoCmd,
		quoteCmd,
		lpValueCmd,
		lpBalanceCmd,
		userWithdrawalsCmd,
		historyCmd,
		jsonCmd,
	)
}

// executeMethod posts a request envelope and pretty-prints the result object.
func executeMethod(method string, params interface{}) error {
	envelope := map[string]interface{}{"method": method}
	if params != nil {
		envelope["params"] = []interface{}{params}
	}
	body, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Post(rpcURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var response struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(raw, &response); err != nil || response.Result == nil {
		return fmt.Errorf("malformed response: %s", raw)
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, response.Result, "", "  "); err != nil {
		fmt.Println(string(response.Result))
		return nil
	}
	fmt.Println(pretty.String())
	return nil
}

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Ping the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return executeMethod("ping", nil)
	},
}

var serverInfoCmd = &cobra.Command{
	Use:   "server_info",
	Short: "Get server information",
	RunE: func(cmd *cobra.Command, args []string) error {
		return executeMethod("server_info", nil)
	},
}

var poolInfoCmd = &cobra.Command{
	Use:   "pool_info",
	Short: "Get pool reserves, staking split and parameters",
	RunE: func(cmd *cobra.Command, args []string) error {
		return executeMethod("pool_info", nil)
	},
}

var quoteCmd = &cobra.Command{
	Use:   "quote <base_to_quote|quote_to_base> <amount_in>",
	Short: "Quote a swap without executing it",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid amount: %w", err)
		}
		return executeMethod("quote", map[string]interface{}{
			"direction": args[0],
			"amount_in": amount,
		})
	},
}

var lpValueCmd = &cobra.Command{
	Use:   "lp_value <lp_amount>",
	Short: "Get the underlying asset value of an LP amount",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid amount: %w", err)
		}
		return executeMethod("lp_value", map[string]interface{}{"lp_amount": amount})
	},
}

var lpBalanceCmd = &cobra.Command{
	Use:   "lp_balance <holder>",
	Short: "Get a holder's LP balance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return executeMethod("lp_balance", map[string]interface{}{"holder": args[0]})
	},
}

var userWithdrawalsCmd = &cobra.Command{
	Use:   "user_withdrawals <owner>",
	Short: "List an owner's withdrawal records",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return executeMethod("user_withdrawals", map[string]interface{}{"owner": args[0]})
	},
}

var historyCmd = &cobra.Command{
	Use:   "history [kind] [limit]",
	Short: "Get recent journaled pool events",
	RunE: func(cmd *cobra.Command, args []string) error {
		params := map[string]interface{}{}
		if len(args) > 0 {
			params["kind"] = args[0]
		}
		if len(args) > 1 {
			limit, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid limit: %w", err)
			}
			params["limit"] = limit
		}
		return executeMethod("history", params)
	},
}

// Generic JSON command for any method
var jsonCmd = &cobra.Command{
	Use:   "json <method> <json_params>",
	Short: "Execute any RPC method with JSON parameters",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var params interface{}
		if err := json.Unmarshal([]byte(args[1]), &params); err != nil {
			return fmt.Errorf("invalid JSON parameters: %w", err)
		}
		return executeMethod(args[0], params)
	},
}
