// Command lobengine wires an in-process fx.App around internal/engine for
// manual smoke-testing. It is not a production transport surface — §6
// treats RPC/CLI/env binding as an out-of-scope external collaborator —
// it exists so the full admit->match->emit wiring can be exercised end to
// end without a network stack, the way the teacher's cmd/*/main.go files
// each bootstrap one service's fx.App.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hftcore/lobengine/internal/config"
	"github.com/hftcore/lobengine/internal/engine"
	"github.com/hftcore/lobengine/internal/types"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func main() {
	fileCfg, err := config.Load("")
	if err != nil {
		fmt.Println("config: falling back to defaults:", err)
	}
	logger, err := config.NewLogger(fileCfg)
	if err != nil {
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	var eng *engine.Engine
	app := fx.New(
		fx.Supply(fileCfg.ToEngineConfig()),
		fx.Supply(logger),
		engine.Module,
		fx.Populate(&eng),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := app.Start(ctx); err != nil {
		logger.Fatal("engine: failed to start", zap.Error(err))
	}
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer stopCancel()
		_ = app.Stop(stopCtx)
	}()

	eng.AddSymbol("BTCUSD")
	fmt.Println("lobengine smoke harness ready. Commands: buy <price> <qty> | sell <price> <qty> | depth | quit")

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "quit", "exit":
			return
		case "depth":
			snapshot, ok := eng.Depth("BTCUSD", 10)
			if !ok {
				fmt.Println("unknown symbol")
				continue
			}
			fmt.Printf("bids=%v asks=%v\n", snapshot.Bids, snapshot.Asks)
		case "buy", "sell":
			if len(fields) != 3 {
				fmt.Println("usage: buy|sell <price> <qty>")
				continue
			}
			price, err1 := strconv.ParseFloat(fields[1], 64)
			qty, err2 := strconv.ParseFloat(fields[2], 64)
			if err1 != nil || err2 != nil {
				fmt.Println("invalid price/qty")
				continue
			}
			side := types.Buy
			if fields[0] == "sell" {
				side = types.Sell
			}
			resp := eng.SubmitOrder(engine.SubmitOrderRequest{
				Symbol:   "BTCUSD",
				Side:     side,
				Type:     types.Limit,
				Price:    types.NewPriceFromFloat(price),
				Quantity: types.NewQuantityFromFloat(qty),
				ClientID: types.NewClientId(),
			})
			fmt.Printf("status=%s order_id=%d trades=%d remaining=%s\n",
				resp.Status, resp.OrderID, len(resp.Trades), resp.RemainingQuantity)
		default:
			fmt.Println("unknown command")
		}
	}
}
