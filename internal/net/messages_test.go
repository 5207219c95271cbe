package net

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wagerex/internal/common"
	"wagerex/internal/money"
)

func encodeHeader(t MessageType) []byte {
	buf := make([]byte, 2)
	binary.BigEndian.PutUint16(buf, uint16(t))
	return buf
}

func TestParsePlaceOrderRoundTrip(t *testing.T) {
	body := make([]byte, placeOrderFixedLen)
	binary.BigEndian.PutUint64(body[0:8], 1)
	binary.BigEndian.PutUint64(body[8:16], 2)
	body[16] = byte(common.Back)
	binary.BigEndian.PutUint64(body[17:25], 200)
	binary.BigEndian.PutUint64(body[25:33], 10000)
	binary.BigEndian.PutUint64(body[33:41], 42)
	binary.BigEndian.PutUint64(body[41:49], 7)
	body[49] = 3 // token len
	body[50] = 5 // owner len
	body = append(body, []byte("tok")...)
	body = append(body, []byte("alice")...)

	buf := append(encodeHeader(PlaceOrder), body...)
	msg, err := parseMessage(buf)
	require.NoError(t, err)

	po, ok := msg.(PlaceOrderMessage)
	require.True(t, ok)
	assert.Equal(t, uint64(1), po.Market)
	assert.Equal(t, uint64(2), po.Selection)
	assert.Equal(t, common.Back, po.Side)
	assert.Equal(t, uint64(200), po.Odds)
	assert.True(t, po.Stake.Cmp(money.FromUint64(10000)) == 0)
	assert.Equal(t, "tok", po.Token)
	assert.Equal(t, "alice", po.Owner)
}

func TestParsePlaceOrderTooShort(t *testing.T) {
	buf := append(encodeHeader(PlaceOrder), make([]byte, 10)...)
	_, err := parseMessage(buf)
	assert.ErrorIs(t, err, ErrMessageTooShort)
}

func TestParseCancelOrder(t *testing.T) {
	body := make([]byte, cancelOrderMessageLen)
	binary.BigEndian.PutUint64(body[0:8], 99)
	binary.BigEndian.PutUint64(body[8:16], 1000)
	buf := append(encodeHeader(CancelOrder), body...)

	msg, err := parseMessage(buf)
	require.NoError(t, err)
	co, ok := msg.(CancelOrderMessage)
	require.True(t, ok)
	assert.Equal(t, uint64(99), co.OrderID)
	assert.Equal(t, uint64(1000), co.Now)
}

func TestParseSetResult(t *testing.T) {
	body := make([]byte, setResultFixedLen)
	binary.BigEndian.PutUint64(body[0:8], 5)
	binary.BigEndian.PutUint32(body[8:12], 2)
	binary.BigEndian.PutUint32(body[12:16], 0)
	body[16] = 5 // caller len
	body = append(body, []byte("owner")...)
	buf := append(encodeHeader(SetResult), body...)

	msg, err := parseMessage(buf)
	require.NoError(t, err)
	sr, ok := msg.(SetResultMessage)
	require.True(t, ok)
	assert.Equal(t, uint64(5), sr.Market)
	assert.Equal(t, uint32(2), sr.ScoreHome)
	assert.Equal(t, "owner", sr.Caller)
}

func TestParseUnknownMessageType(t *testing.T) {
	buf := encodeHeader(MessageType(999))
	_, err := parseMessage(buf)
	assert.ErrorIs(t, err, ErrInvalidMessageType)
}

func TestReportSerializeRoundTripsFixedFields(t *testing.T) {
	r := Report{
		Type:            PlacementReport,
		OrderID:         7,
		Status:          common.Matched,
		Matched:         money.FromUint64(500),
		Unmatched:       money.FromUint64(0),
		PotentialProfit: money.FromUint64(125),
	}
	buf := r.Serialize()
	require.Len(t, buf, reportFixedLen)
	assert.Equal(t, byte(PlacementReport), buf[0])
	assert.Equal(t, uint64(7), binary.BigEndian.Uint64(buf[1:9]))
	assert.Equal(t, byte(common.Matched), buf[9])
}

func TestBookSnapshotSerialize(t *testing.T) {
	b := BookSnapshot{
		Market:        1,
		Selection:     2,
		BestBackOdds:  210,
		BestLayOdds:   190,
		BackLiquidity: money.FromUint64(1000),
		LayLiquidity:  money.FromUint64(2000),
	}
	buf := b.Serialize()
	require.Len(t, buf, bookSnapshotLen)
	assert.Equal(t, byte(BookReport), buf[0])
	assert.Equal(t, uint64(210), binary.BigEndian.Uint64(buf[17:25]))
}
