package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"time"

	"deriverse-journal/internal/api"
	"deriverse-journal/internal/logger"
	"deriverse-journal/internal/types"
)

// Deriverse program log tags. Spot and perp markets report through separate
// message families with the same field layout.
const (
	tagSpotPlaceOrder = 10
	tagSpotFill       = 11
	tagSpotFees       = 15
	tagPerpPlaceOrder = 18
	tagPerpFill       = 19
	tagPerpFees       = 23
)

const (
	defaultFetchLimit = 200
	maxFetchLimit     = 500
	// getTransaction calls issued concurrently per batch, to stay under
	// public RPC rate limits.
	txFetchConcurrency = 4
)

// DeriverseConfig points the adapter at a Deriverse deployment.
type DeriverseConfig struct {
	RPCURL    string
	ProgramID string
	Version   int
}

// DeriverseClient fetches a trader's recent transactions over Solana
// JSON-RPC and decodes Deriverse program logs into normalized trades.
type DeriverseClient struct {
	cfg DeriverseConfig
	rpc *api.Client
}

// NewDeriverseClient builds a client for the configured deployment.
func NewDeriverseClient(cfg DeriverseConfig) *DeriverseClient {
	return &DeriverseClient{
		cfg: cfg,
		rpc: api.NewClient(api.WithBaseURL(cfg.RPCURL), api.WithLogging(true)),
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type signatureInfo struct {
	Signature string `json:"signature"`
	Slot      uint64 `json:"slot"`
}

type transactionResult struct {
	Slot      uint64 `json:"slot"`
	BlockTime *int64 `json:"blockTime"`
	Meta      *struct {
		LogMessages []string `json:"logMessages"`
	} `json:"meta"`
}

// Decoded log event variants. Unknown tags are skipped at decode time so a
// program upgrade cannot break the import.

type placeOrderEvent struct {
	OrderID   uint64
	InstrID   uint32
	OrderType types.OrderType
}

type fillEvent struct {
	OrderID uint64
	Side    types.Side
	Price   float64
	Qty     float64
	Perp    bool
}

type feesEvent struct {
	Fees float64
}

// FetchTrades pulls up to limit recent transactions for trader and decodes
// their fills. PnL is not recoverable from logs alone (that would need
// position reconstruction), so decoded trades carry pnl 0 and null prices;
// volume, fee and count metrics still work.
func (c *DeriverseClient) FetchTrades(ctx context.Context, trader string, limit int) ([]types.NormalizedTrade, error) {
	if trader == "" {
		return nil, fmt.Errorf("missing trader address")
	}
	if limit <= 0 {
		limit = defaultFetchLimit
	}
	if limit > maxFetchLimit {
		limit = maxFetchLimit
	}

	sigs, err := c.signaturesForAddress(ctx, trader, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch signatures for %s: %w", trader, err)
	}

	// Order metadata spans transactions: a fill may land in a later tx
	// than its placement.
	orderInstr := make(map[uint64]uint32)
	orderType := make(map[uint64]types.OrderType)
	var trades []types.NormalizedTrade

	for i := 0; i < len(sigs); i += txFetchConcurrency {
		end := i + txFetchConcurrency
		if end > len(sigs) {
			end = len(sigs)
		}
		txs := c.fetchTransactionBatch(ctx, sigs[i:end])

		for _, tx := range txs {
			if tx == nil || tx.Meta == nil || len(tx.Meta.LogMessages) == 0 {
				continue
			}
			events := decodeLogMessages(tx.Meta.LogMessages)
			if len(events) == 0 {
				continue
			}

			// First pass: placements map order ids onto instruments and
			// order types.
			for _, ev := range events {
				if place, ok := ev.(placeOrderEvent); ok {
					orderInstr[place.OrderID] = place.InstrID
					orderType[place.OrderID] = place.OrderType
				}
			}

			// Fees report per transaction, not per fill; attribute the tx
			// total to each decoded fill.
			var feesTotal float64
			for _, ev := range events {
				if fee, ok := ev.(feesEvent); ok {
					feesTotal += fee.Fees
				}
			}

			for _, ev := range events {
				fill, ok := ev.(fillEvent)
				if !ok {
					continue
				}
				trades = append(trades, c.fillToTrade(tx, fill, orderInstr, orderType, feesTotal))
			}
		}
	}

	if err := types.ValidateBatch(trades); err != nil {
		return nil, fmt.Errorf("decoded batch invalid: %w", err)
	}
	logger.Import(ctx, "deriverse", len(trades))
	return trades, nil
}

func (c *DeriverseClient) fillToTrade(tx *transactionResult, fill fillEvent, orderInstr map[uint64]uint32, orderType map[uint64]types.OrderType, feesTotal float64) types.NormalizedTrade {
	// The SDK exposes no tickers, only instrument ids.
	symbol := "UNKNOWN"
	if instr, ok := orderInstr[fill.OrderID]; ok {
		symbol = fmt.Sprintf("INSTR-%d", instr)
	}
	ot := types.OrderUnknown
	if known, ok := orderType[fill.OrderID]; ok {
		ot = known
	}

	kind, tag := "spot", tagSpotFill
	if fill.Perp {
		kind, tag = "perp", tagPerpFill
	}

	var size *float64
	if !math.IsNaN(fill.Qty) {
		size = types.Float64Ptr(fill.Qty)
	}

	return types.NormalizedTrade{
		ID:        fmt.Sprintf("onchain-%d-%d-%d", tx.Slot, fill.OrderID, tag),
		Ts:        blockTime(tx),
		Symbol:    symbol,
		Side:      fill.Side,
		OrderType: ot,
		Size:      size,
		PnLUSD:    0,
		FeesUSD:   feesTotal,
		Tags:      []string{},
		Notes:     fmt.Sprintf("Decoded from Deriverse transaction logs (%s fill)", kind),
	}
}

func (c *DeriverseClient) signaturesForAddress(ctx context.Context, address string, limit int) ([]signatureInfo, error) {
	var result []signatureInfo
	err := c.call(ctx, "getSignaturesForAddress", []any{address, map[string]any{"limit": limit}}, &result)
	return result, err
}

func (c *DeriverseClient) fetchTransactionBatch(ctx context.Context, sigs []signatureInfo) []*transactionResult {
	txs := make([]*transactionResult, len(sigs))
	var wg sync.WaitGroup
	for i := range sigs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var tx transactionResult
			params := []any{sigs[i].Signature, map[string]any{
				"encoding":                       "json",
				"maxSupportedTransactionVersion": 0,
			}}
			if err := c.call(ctx, "getTransaction", params, &tx); err != nil {
				// A single unreadable transaction should not sink the
				// import; it simply contributes no fills.
				logger.Warn(ctx, "skipping unreadable transaction", "signature", sigs[i].Signature, "error", err)
				return
			}
			txs[i] = &tx
		}(i)
	}
	wg.Wait()
	return txs
}

func (c *DeriverseClient) call(ctx context.Context, method string, params []any, out any) error {
	req := api.NewRequest("POST", "").
		WithContext(ctx).
		WithBody(rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params})

	// Public RPC endpoints rate-limit aggressively; back off and retry.
	resp, err := c.rpc.DoWithRetry(req, api.DefaultRetryConfig())
	if err != nil {
		return err
	}

	var envelope struct {
		Result json.RawMessage `json:"result"`
		Error  *rpcError       `json:"error"`
	}
	if err := json.Unmarshal(resp.Body, &envelope); err != nil {
		return fmt.Errorf("malformed rpc response: %w", err)
	}
	if envelope.Error != nil {
		return fmt.Errorf("rpc %s failed: %s (code %d)", method, envelope.Error.Message, envelope.Error.Code)
	}
	if string(envelope.Result) == "null" {
		return fmt.Errorf("rpc %s returned no result", method)
	}
	return json.Unmarshal(envelope.Result, out)
}

// blockTime converts a transaction's block time to a local timestamp,
// falling back to now when the node did not report one.
func blockTime(tx *transactionResult) time.Time {
	if tx.BlockTime == nil || *tx.BlockTime == 0 {
		return time.Now()
	}
	return time.Unix(*tx.BlockTime, 0)
}
