package net

import (
	"encoding/binary"
	"errors"

	"wagerex/internal/common"
	"wagerex/internal/money"
)

var (
	ErrInvalidMessageType = errors.New("net: invalid message type")
	ErrMessageTooShort    = errors.New("net: message too short for its declared field lengths")
)

type MessageType uint16

const (
	Heartbeat MessageType = iota
	PlaceOrder
	CancelOrder
	Expire
	SetResult
	SettleBatch
	GetBook
)

type ReportType uint8

const (
	PlacementReport ReportType = iota
	FillReport
	BookReport
	SettlementBatchReport
	ErrorReport
)

type Message interface {
	GetType() MessageType
}

const (
	baseMessageHeaderLen  = 2
	placeOrderFixedLen    = 8 + 8 + 1 + 8 + 8 + 8 + 8 + 1 + 1
	cancelOrderMessageLen = 8 + 8
	expireMessageLen      = 8 + 8
	setResultFixedLen     = 8 + 4 + 4 + 1
	settleBatchMessageLen = 8 + 4
	getBookMessageLen     = 8 + 8 + 1
)

// BaseMessage carries the wire message type every concrete message embeds.
type BaseMessage struct {
	TypeOf MessageType
}

func (m BaseMessage) GetType() MessageType { return m.TypeOf }

// parseMessage dispatches on the leading 2-byte type field and parses the
// remainder of buf into the matching concrete message.
func parseMessage(buf []byte) (Message, error) {
	if len(buf) < baseMessageHeaderLen {
		return nil, ErrMessageTooShort
	}
	typeOf := MessageType(binary.BigEndian.Uint16(buf[0:2]))
	body := buf[2:]
	switch typeOf {
	case Heartbeat:
		return BaseMessage{TypeOf: Heartbeat}, nil
	case PlaceOrder:
		return parsePlaceOrder(body)
	case CancelOrder:
		return parseCancelOrder(body)
	case Expire:
		return parseExpire(body)
	case SetResult:
		return parseSetResult(body)
	case SettleBatch:
		return parseSettleBatch(body)
	case GetBook:
		return parseGetBook(body)
	default:
		return nil, ErrInvalidMessageType
	}
}

// PlaceOrderMessage places a single back or lay order against a market
// selection.
//
// Wire layout: market(8) selection(8) side(1) odds(8) stake(8) nonce(8)
// now(8) token_len(1) owner_len(1) token(n) owner(m).
type PlaceOrderMessage struct {
	BaseMessage
	Market    uint64
	Selection uint64
	Side      common.Side
	Odds      uint64
	Stake     money.Scaled
	Nonce     uint64
	Now       uint64
	Token     string
	Owner     string
}

func parsePlaceOrder(body []byte) (PlaceOrderMessage, error) {
	if len(body) < placeOrderFixedLen {
		return PlaceOrderMessage{}, ErrMessageTooShort
	}
	m := PlaceOrderMessage{BaseMessage: BaseMessage{TypeOf: PlaceOrder}}
	m.Market = binary.BigEndian.Uint64(body[0:8])
	m.Selection = binary.BigEndian.Uint64(body[8:16])
	m.Side = common.Side(body[16])
	m.Odds = binary.BigEndian.Uint64(body[17:25])
	m.Stake = money.FromUint64(binary.BigEndian.Uint64(body[25:33]))
	m.Nonce = binary.BigEndian.Uint64(body[33:41])
	m.Now = binary.BigEndian.Uint64(body[41:49])
	tokenLen := int(body[49])
	ownerLen := int(body[50])

	want := placeOrderFixedLen + tokenLen + ownerLen
	if len(body) < want {
		return PlaceOrderMessage{}, ErrMessageTooShort
	}
	off := placeOrderFixedLen
	m.Token = string(body[off : off+tokenLen])
	off += tokenLen
	m.Owner = string(body[off : off+ownerLen])
	return m, nil
}

// CancelOrderMessage withdraws an order's unmatched residual.
//
// Wire layout: order_id(8) now(8).
type CancelOrderMessage struct {
	BaseMessage
	OrderID uint64
	Now     uint64
}

func parseCancelOrder(body []byte) (CancelOrderMessage, error) {
	if len(body) < cancelOrderMessageLen {
		return CancelOrderMessage{}, ErrMessageTooShort
	}
	return CancelOrderMessage{
		BaseMessage: BaseMessage{TypeOf: CancelOrder},
		OrderID:     binary.BigEndian.Uint64(body[0:8]),
		Now:         binary.BigEndian.Uint64(body[8:16]),
	}, nil
}

// ExpireMessage closes a market whose close timestamp has passed and
// refunds every order still resting on its books.
//
// Wire layout: market(8) now(8).
type ExpireMessage struct {
	BaseMessage
	Market uint64
	Now    uint64
}

func parseExpire(body []byte) (ExpireMessage, error) {
	if len(body) < expireMessageLen {
		return ExpireMessage{}, ErrMessageTooShort
	}
	return ExpireMessage{
		BaseMessage: BaseMessage{TypeOf: Expire},
		Market:      binary.BigEndian.Uint64(body[0:8]),
		Now:         binary.BigEndian.Uint64(body[8:16]),
	}, nil
}

// SetResultMessage records a closed market's final score, owner-only.
//
// Wire layout: market(8) score_home(4) score_away(4) caller_len(1) caller(n).
type SetResultMessage struct {
	BaseMessage
	Market    uint64
	ScoreHome uint32
	ScoreAway uint32
	Caller    string
}

func parseSetResult(body []byte) (SetResultMessage, error) {
	if len(body) < setResultFixedLen {
		return SetResultMessage{}, ErrMessageTooShort
	}
	m := SetResultMessage{BaseMessage: BaseMessage{TypeOf: SetResult}}
	m.Market = binary.BigEndian.Uint64(body[0:8])
	m.ScoreHome = binary.BigEndian.Uint32(body[8:12])
	m.ScoreAway = binary.BigEndian.Uint32(body[12:16])
	callerLen := int(body[16])
	if len(body) < setResultFixedLen+callerLen {
		return SetResultMessage{}, ErrMessageTooShort
	}
	m.Caller = string(body[setResultFixedLen : setResultFixedLen+callerLen])
	return m, nil
}

// SettleBatchMessage advances a settled market's cursor by up to batch_size
// orders.
//
// Wire layout: market(8) batch_size(4).
type SettleBatchMessage struct {
	BaseMessage
	Market    uint64
	BatchSize uint32
}

func parseSettleBatch(body []byte) (SettleBatchMessage, error) {
	if len(body) < settleBatchMessageLen {
		return SettleBatchMessage{}, ErrMessageTooShort
	}
	return SettleBatchMessage{
		BaseMessage: BaseMessage{TypeOf: SettleBatch},
		Market:      binary.BigEndian.Uint64(body[0:8]),
		BatchSize:   binary.BigEndian.Uint32(body[8:12]),
	}, nil
}

// GetBookMessage queries the best odds and liquidity of both sides of one
// market selection's order book. The reply is a BookSnapshot; the side byte
// is parsed but does not change what the reply contains.
//
// Wire layout: market(8) selection(8) side(1).
type GetBookMessage struct {
	BaseMessage
	Market    uint64
	Selection uint64
	Side      common.Side
}

func parseGetBook(body []byte) (GetBookMessage, error) {
	if len(body) < getBookMessageLen {
		return GetBookMessage{}, ErrMessageTooShort
	}
	return GetBookMessage{
		BaseMessage: BaseMessage{TypeOf: GetBook},
		Market:      binary.BigEndian.Uint64(body[0:8]),
		Selection:   binary.BigEndian.Uint64(body[8:16]),
		Side:        common.Side(body[16]),
	}, nil
}

// Report is the wire envelope a placement, cancellation, or error reply is
// serialized as.
//
// Wire layout: report_type(1) order_id(8) status(1) matched(8) unmatched(8)
// potential_profit(8) err_len(2) err(n).
type Report struct {
	Type            ReportType
	OrderID         uint64
	Status          common.BetStatus
	Matched         money.Scaled
	Unmatched       money.Scaled
	PotentialProfit money.Scaled
	Err             string
}

const reportFixedLen = 1 + 8 + 1 + 8 + 8 + 8 + 2

// Serialize converts the report to its wire form.
func (r *Report) Serialize() []byte {
	buf := make([]byte, reportFixedLen+len(r.Err))
	buf[0] = byte(r.Type)
	binary.BigEndian.PutUint64(buf[1:9], r.OrderID)
	buf[9] = byte(r.Status)
	binary.BigEndian.PutUint64(buf[10:18], r.Matched.Uint64())
	binary.BigEndian.PutUint64(buf[18:26], r.Unmatched.Uint64())
	binary.BigEndian.PutUint64(buf[26:34], r.PotentialProfit.Uint64())
	binary.BigEndian.PutUint16(buf[34:36], uint16(len(r.Err)))
	copy(buf[reportFixedLen:], r.Err)
	return buf
}

func newErrorReport(err error) []byte {
	r := Report{Type: ErrorReport, Err: err.Error()}
	return r.Serialize()
}

// PlaceOrderFixedLen exposes the fixed-field length of a PlaceOrderMessage
// body (excluding the 2-byte type header and the variable token/owner
// strings), so callers can size a buffer before appending those strings.
func PlaceOrderFixedLen() int { return placeOrderFixedLen }

// ErrorText extracts the error string from a serialized ErrorReport.
func ErrorText(buf []byte) string {
	if len(buf) < reportFixedLen {
		return ""
	}
	errLen := int(binary.BigEndian.Uint16(buf[34:36]))
	if len(buf) < reportFixedLen+errLen {
		return ""
	}
	return string(buf[reportFixedLen : reportFixedLen+errLen])
}

// ParseReport decodes a serialized Report (a placement or fill reply).
func ParseReport(buf []byte) (Report, error) {
	if len(buf) < reportFixedLen {
		return Report{}, ErrMessageTooShort
	}
	r := Report{
		Type:            ReportType(buf[0]),
		OrderID:         binary.BigEndian.Uint64(buf[1:9]),
		Status:          common.BetStatus(buf[9]),
		Matched:         money.FromUint64(binary.BigEndian.Uint64(buf[10:18])),
		Unmatched:       money.FromUint64(binary.BigEndian.Uint64(buf[18:26])),
		PotentialProfit: money.FromUint64(binary.BigEndian.Uint64(buf[26:34])),
	}
	r.Err = ErrorText(buf)
	return r, nil
}

// ParseBookSnapshot decodes a serialized BookSnapshot.
func ParseBookSnapshot(buf []byte) (BookSnapshot, error) {
	if len(buf) < bookSnapshotLen {
		return BookSnapshot{}, ErrMessageTooShort
	}
	return BookSnapshot{
		Market:        binary.BigEndian.Uint64(buf[1:9]),
		Selection:     binary.BigEndian.Uint64(buf[9:17]),
		BestBackOdds:  binary.BigEndian.Uint64(buf[17:25]),
		BestLayOdds:   binary.BigEndian.Uint64(buf[25:33]),
		BackLiquidity: money.FromUint64(binary.BigEndian.Uint64(buf[33:41])),
		LayLiquidity:  money.FromUint64(binary.BigEndian.Uint64(buf[41:49])),
	}, nil
}

// ParseSettlementReport decodes a serialized SettlementReport.
func ParseSettlementReport(buf []byte) (SettlementReport, error) {
	if len(buf) < settlementReportLen {
		return SettlementReport{}, ErrMessageTooShort
	}
	return SettlementReport{
		Market: binary.BigEndian.Uint64(buf[1:9]),
		Cursor: binary.BigEndian.Uint64(buf[9:17]),
		Status: common.SettlementStatus(buf[17]),
	}, nil
}

// BookSnapshot answers a GetBook query: the current best odds and liquidity
// on each side of one market selection.
//
// Wire layout: report_type(1) market(8) selection(8) best_back_odds(8)
// best_lay_odds(8) back_liquidity(8) lay_liquidity(8).
type BookSnapshot struct {
	Market        uint64
	Selection     uint64
	BestBackOdds  uint64
	BestLayOdds   uint64
	BackLiquidity money.Scaled
	LayLiquidity  money.Scaled
}

const bookSnapshotLen = 1 + 8 + 8 + 8 + 8 + 8 + 8

func (b *BookSnapshot) Serialize() []byte {
	buf := make([]byte, bookSnapshotLen)
	buf[0] = byte(BookReport)
	binary.BigEndian.PutUint64(buf[1:9], b.Market)
	binary.BigEndian.PutUint64(buf[9:17], b.Selection)
	binary.BigEndian.PutUint64(buf[17:25], b.BestBackOdds)
	binary.BigEndian.PutUint64(buf[25:33], b.BestLayOdds)
	binary.BigEndian.PutUint64(buf[33:41], b.BackLiquidity.Uint64())
	binary.BigEndian.PutUint64(buf[41:49], b.LayLiquidity.Uint64())
	return buf
}

// SettlementReport answers a SettleBatch call: how far the cursor has
// advanced and whether settlement has Completed.
//
// Wire layout: report_type(1) market(8) cursor(8) status(1).
type SettlementReport struct {
	Market uint64
	Cursor uint64
	Status common.SettlementStatus
}

const settlementReportLen = 1 + 8 + 8 + 1

func (r *SettlementReport) Serialize() []byte {
	buf := make([]byte, settlementReportLen)
	buf[0] = byte(SettlementBatchReport)
	binary.BigEndian.PutUint64(buf[1:9], r.Market)
	binary.BigEndian.PutUint64(buf[9:17], r.Cursor)
	buf[17] = byte(r.Status)
	return buf
}
