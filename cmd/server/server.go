package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"wagerex/internal/common"
	"wagerex/internal/config"
	"wagerex/internal/engine"
	"wagerex/internal/events"
	"wagerex/internal/ledger"
	"wagerex/internal/money"
	wagernet "wagerex/internal/net"
	"wagerex/internal/receipt"
	"wagerex/internal/store"
)

func main() {
	flags := pflag.NewFlagSet("wagerex-server", pflag.ExitOnError)
	configPath := flags.String("config", "", "path to an optional YAML config file")
	flags.String("address", "", "listen address")
	flags.Int("port", 0, "listen port")
	flags.String("owner", "", "account authorised to call set_result")
	flags.Int("workers", 0, "connection worker pool size (validated only; the TCP server always runs 10 workers)")
	flags.Int("default-batch-size", 0, "default settlement batch size (validated only; each settle request carries its own batch size)")
	flags.String("ws-address", "", "websocket audit feed listen address")
	flags.String("log-level", "", "zerolog level (debug, info, warn, error)")
	if err := flags.Parse(os.Args[1:]); err != nil {
		log.Fatal().Err(err).Msg("failed parsing flags")
	}

	cfg, err := config.Load(*configPath, flags)
	if err != nil {
		log.Fatal().Err(err).Msg("failed loading config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	ws := events.NewWSBroadcaster(log.Logger)
	logSink := events.NewLogSink(log.Logger)
	sink := multiSink{logSink, ws}

	eng := engine.New(cfg.Owner, ledger.New(), receipt.New(), store.New(), sink)
	srv := wagernet.New(cfg.Address, cfg.Port, engineAdapter{eng})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	httpSrv := &http.Server{Addr: cfg.WSAddress, Handler: ws}
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("websocket feed stopped")
		}
	}()
	go func() {
		<-ctx.Done()
		_ = httpSrv.Close()
	}()

	go srv.Run(ctx)
	<-ctx.Done()
}

// multiSink fans every record out to more than one EventSink (the structured
// log and the live websocket feed).
type multiSink []events.EventSink

func (m multiSink) OrderPlaced(e events.OrderPlaced) {
	for _, s := range m {
		s.OrderPlaced(e)
	}
}
func (m multiSink) OrderMatched(e events.OrderMatched) {
	for _, s := range m {
		s.OrderMatched(e)
	}
}
func (m multiSink) OrderCanceled(e events.OrderCanceled) {
	for _, s := range m {
		s.OrderCanceled(e)
	}
}
func (m multiSink) MarketClosed(e events.MarketClosed) {
	for _, s := range m {
		s.MarketClosed(e)
	}
}
func (m multiSink) BetRefunded(e events.BetRefunded) {
	for _, s := range m {
		s.BetRefunded(e)
	}
}
func (m multiSink) RewardDistributed(e events.RewardDistributed) {
	for _, s := range m {
		s.RewardDistributed(e)
	}
}
func (m multiSink) StatusCounterUpdated(e events.StatusCounterUpdated) {
	for _, s := range m {
		s.StatusCounterUpdated(e)
	}
}

// engineAdapter narrows *engine.Engine to the net.Engine interface,
// converting engine's richer domain types to the wire-facing views net
// expects.
type engineAdapter struct {
	eng *engine.Engine
}

func (a engineAdapter) PlaceOrder(owner string, market, selection uint64, side common.Side, odds uint64, stake money.Scaled, token string, nonce, now uint64) (uint64, error) {
	return a.eng.PlaceOrder(owner, market, selection, side, odds, stake, token, nonce, now)
}

func (a engineAdapter) CancelOrder(id uint64, now uint64) error {
	return a.eng.CancelOrder(id, now)
}

func (a engineAdapter) Expire(market, now uint64) error {
	return a.eng.Expire(market, now)
}

func (a engineAdapter) SetResult(caller string, market uint64, scoreHome, scoreAway uint32) error {
	return a.eng.SetResult(caller, market, scoreHome, scoreAway)
}

func (a engineAdapter) SettleBatch(market uint64, batchSize int) (common.SettlementStatus, error) {
	return a.eng.SettleBatch(market, batchSize)
}

func (a engineAdapter) GetBook(market, selection uint64) (wagernet.BookView, error) {
	view, err := a.eng.GetBook(market, selection)
	if err != nil {
		return wagernet.BookView{}, err
	}
	return wagernet.BookView{
		BackLiquidity: view.BackLiquidity,
		LayLiquidity:  view.LayLiquidity,
		BestBackOdds:  view.BestBackOdds,
		BestLayOdds:   view.BestLayOdds,
	}, nil
}

func (a engineAdapter) GetOrder(id uint64) (wagernet.OrderView, error) {
	o, err := a.eng.GetOrder(id)
	if err != nil {
		return wagernet.OrderView{}, err
	}
	return wagernet.OrderView{
		ID:              o.ID,
		Status:          o.Status,
		Matched:         o.Matched,
		Unmatched:       o.Unmatched,
		PotentialProfit: o.PotentialProfit,
	}, nil
}
