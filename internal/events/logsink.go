package events

import "github.com/rs/zerolog"

// LogSink writes every record as a structured zerolog event. cmd/server
// wires it up alongside a WSBroadcaster, fanning each record out to both.
type LogSink struct {
	log zerolog.Logger
}

// NewLogSink wraps an existing logger, tagging every event with
// component=events.
func NewLogSink(log zerolog.Logger) *LogSink {
	return &LogSink{log: log.With().Str("component", "events").Logger()}
}

func (s *LogSink) OrderPlaced(e OrderPlaced) {
	s.log.Info().
		Uint64("market", e.Market).
		Uint64("selection", e.Selection).
		Uint64("order", e.OrderID).
		Str("owner", e.Owner).
		Str("side", e.Side.String()).
		Uint64("odds", e.Odds).
		Str("stake", e.Stake.String()).
		Msg("order placed")
}

func (s *LogSink) OrderMatched(e OrderMatched) {
	s.log.Info().
		Uint64("market", e.Market).
		Uint64("selection", e.Selection).
		Uint64("taker", e.TakerID).
		Uint64("maker", e.RestingMakerID).
		Uint64("odds", e.Odds).
		Str("amount", e.Amount.String()).
		Msg("order matched")
}

func (s *LogSink) OrderCanceled(e OrderCanceled) {
	s.log.Info().
		Uint64("market", e.Market).
		Uint64("selection", e.Selection).
		Uint64("order", e.OrderID).
		Str("refunded", e.Refunded.String()).
		Msg("order canceled")
}

func (s *LogSink) MarketClosed(e MarketClosed) {
	s.log.Info().Uint64("market", e.Market).Msg("market closed")
}

func (s *LogSink) BetRefunded(e BetRefunded) {
	s.log.Info().
		Uint64("market", e.Market).
		Uint64("selection", e.Selection).
		Uint64("order", e.OrderID).
		Str("owner", e.Owner).
		Str("amount", e.Amount.String()).
		Msg("bet refunded")
}

func (s *LogSink) RewardDistributed(e RewardDistributed) {
	s.log.Info().
		Uint64("market", e.Market).
		Uint64("order", e.OrderID).
		Str("owner", e.Owner).
		Str("amount", e.Amount.String()).
		Msg("reward distributed")
}

func (s *LogSink) StatusCounterUpdated(e StatusCounterUpdated) {
	s.log.Debug().
		Uint64("market", e.Market).
		Uint64("selection", e.Selection).
		Str("old", e.Old.String()).
		Str("new", e.New.String()).
		Msg("status counter updated")
}
