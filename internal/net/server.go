package net

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"wagerex/internal/common"
	"wagerex/internal/money"
)

const (
	maxRecvSize        = 4 * 1024
	defaultNWorkers    = 10
	defaultConnTimeout = 5 * time.Second
)

// ClientSession is one connected TCP session.
type ClientSession struct {
	conn net.Conn
}

// clientMessage links an already-parsed message to the connection it must
// be replied to on.
type clientMessage struct {
	clientAddress string
	message       Message
}

// Engine is the subset of internal/engine.Engine the server depends on, so
// tests can substitute a fake without standing up a full engine.
type Engine interface {
	PlaceOrder(owner string, market, selection uint64, side common.Side, odds uint64, stake money.Scaled, token string, nonce uint64, now uint64) (uint64, error)
	CancelOrder(id uint64, now uint64) error
	Expire(market, now uint64) error
	SetResult(caller string, market uint64, scoreHome, scoreAway uint32) error
	SettleBatch(market uint64, batchSize int) (common.SettlementStatus, error)
	GetBook(market, selection uint64) (BookView, error)
	GetOrder(id uint64) (OrderView, error)
}

// BookView and OrderView mirror the fields of engine.BookView/engine.Order
// that cross the wire, decoupling this package from engine's concrete types.
type BookView struct {
	BackLiquidity money.Scaled
	LayLiquidity  money.Scaled
	BestBackOdds  uint64
	BestLayOdds   uint64
}

type OrderView struct {
	ID              uint64
	Status          common.BetStatus
	Matched         money.Scaled
	Unmatched       money.Scaled
	PotentialProfit money.Scaled
}

// Server is a TCP front end over an Engine: it accepts connections, parses
// the wire protocol, dispatches each message to the engine, and writes back
// a Report.
type Server struct {
	address string
	port    int
	engine  Engine
	pool    WorkerPool

	cancel context.CancelFunc

	sessionsMu sync.Mutex
	sessions   map[string]ClientSession

	inbox chan clientMessage
}

// New returns a Server bound to address:port, dispatching to engine.
func New(address string, port int, engine Engine) *Server {
	return &Server{
		address:  address,
		port:     port,
		engine:   engine,
		pool:     NewWorkerPool(defaultNWorkers),
		sessions: make(map[string]ClientSession),
		inbox:    make(chan clientMessage, 1),
	}
}

// Shutdown stops the server's Run loop.
func (s *Server) Shutdown() {
	log.Info().Msg("server shutting down")
	if s.cancel != nil {
		s.cancel()
	}
}

// Run accepts connections until ctx is cancelled or Shutdown is called.
func (s *Server) Run(ctx context.Context) {
	defer s.Shutdown()

	ctx, s.cancel = context.WithCancel(ctx)
	t, ctx := tomb.WithContext(ctx)

	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", fmt.Sprintf("%s:%d", s.address, s.port))
	if err != nil {
		log.Error().Err(err).Msg("unable to start listener")
		return
	}
	// Closing the listener on cancellation unblocks a pending Accept, so the
	// loop below sees ctx.Done without waiting for another connection.
	go func() {
		<-ctx.Done()
		if err := listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			log.Error().Err(err).Msg("unable to close listener")
		}
	}()

	t.Go(func() error {
		s.pool.Setup(t, s.handleConnection)
		return nil
	})
	t.Go(func() error {
		return s.sessionHandler(t)
	})

	log.Info().Str("address", listener.Addr().String()).Msg("server listening")

	for {
		select {
		case <-ctx.Done():
			return
		default:
			conn, err := listener.Accept()
			if err != nil {
				log.Error().Err(err).Msg("error accepting client")
				continue
			}
			log.Info().Str("address", conn.RemoteAddr().String()).Msg("client connected")
			s.addSession(conn)
			s.pool.AddTask(conn)
		}
	}
}

// sessionHandler drains parsed messages and dispatches each to the engine,
// one at a time, so the single-threaded Engine never sees concurrent calls.
func (s *Server) sessionHandler(t *tomb.Tomb) error {
	for {
		select {
		case <-t.Dying():
			return nil
		case msg := <-s.inbox:
			if err := s.dispatch(msg); err != nil {
				log.Error().Err(err).Str("client", msg.clientAddress).Msg("error dispatching message")
				s.reply(msg.clientAddress, newErrorReport(err))
			}
		}
	}
}

func (s *Server) dispatch(msg clientMessage) error {
	switch m := msg.message.(type) {
	case BaseMessage:
		return nil // heartbeat: nothing to do
	case PlaceOrderMessage:
		return s.handlePlaceOrder(msg.clientAddress, m)
	case CancelOrderMessage:
		return s.handleCancelOrder(msg.clientAddress, m)
	case ExpireMessage:
		return s.engine.Expire(m.Market, m.Now)
	case SetResultMessage:
		return s.engine.SetResult(m.Caller, m.Market, m.ScoreHome, m.ScoreAway)
	case SettleBatchMessage:
		return s.handleSettleBatch(msg.clientAddress, m)
	case GetBookMessage:
		return s.handleGetBook(msg.clientAddress, m)
	default:
		return ErrInvalidMessageType
	}
}

func (s *Server) handlePlaceOrder(client string, m PlaceOrderMessage) error {
	id, err := s.engine.PlaceOrder(m.Owner, m.Market, m.Selection, m.Side, m.Odds, m.Stake, m.Token, m.Nonce, m.Now)
	if err != nil {
		return err
	}
	return s.replyOrder(client, id)
}

func (s *Server) handleCancelOrder(client string, m CancelOrderMessage) error {
	if err := s.engine.CancelOrder(m.OrderID, m.Now); err != nil {
		return err
	}
	return s.replyOrder(client, m.OrderID)
}

func (s *Server) replyOrder(client string, id uint64) error {
	o, err := s.engine.GetOrder(id)
	if err != nil {
		return err
	}
	report := Report{
		Type:            PlacementReport,
		OrderID:         o.ID,
		Status:          o.Status,
		Matched:         o.Matched,
		Unmatched:       o.Unmatched,
		PotentialProfit: o.PotentialProfit,
	}
	s.reply(client, report.Serialize())
	return nil
}

func (s *Server) handleSettleBatch(client string, m SettleBatchMessage) error {
	status, err := s.engine.SettleBatch(m.Market, int(m.BatchSize))
	if err != nil {
		return err
	}
	report := SettlementReport{Market: m.Market, Status: status}
	s.reply(client, report.Serialize())
	return nil
}

func (s *Server) handleGetBook(client string, m GetBookMessage) error {
	view, err := s.engine.GetBook(m.Market, m.Selection)
	if err != nil {
		return err
	}
	snap := BookSnapshot{
		Market:        m.Market,
		Selection:     m.Selection,
		BestBackOdds:  view.BestBackOdds,
		BestLayOdds:   view.BestLayOdds,
		BackLiquidity: view.BackLiquidity,
		LayLiquidity:  view.LayLiquidity,
	}
	s.reply(client, snap.Serialize())
	return nil
}

// reply writes a pre-serialized report back to a still-connected client.
// A write failure just drops the session; the client will notice on its
// next read.
func (s *Server) reply(clientAddress string, payload []byte) {
	s.sessionsMu.Lock()
	sess, ok := s.sessions[clientAddress]
	s.sessionsMu.Unlock()
	if !ok {
		return
	}
	if _, err := sess.conn.Write(payload); err != nil {
		log.Error().Err(err).Str("client", clientAddress).Msg("unable to write reply")
		s.removeSession(clientAddress)
	}
}

// handleConnection reads one message off conn, hands it to sessionHandler,
// and re-queues the connection for its next message. Any error returned
// from here is fatal to the worker pool's tomb.
func (s *Server) handleConnection(t *tomb.Tomb, task any) error {
	conn, ok := task.(net.Conn)
	if !ok {
		return ErrInvalidMessageType
	}

	if err := conn.SetDeadline(time.Now().Add(defaultConnTimeout)); err != nil {
		log.Error().Err(err).Str("address", conn.RemoteAddr().String()).Msg("failed setting deadline")
		return nil
	}

	buf := make([]byte, maxRecvSize)
	select {
	case <-t.Dying():
		return nil
	default:
		n, err := conn.Read(buf)
		if err != nil {
			s.removeSession(conn.RemoteAddr().String())
			return nil
		}

		message, err := parseMessage(buf[:n])
		if err != nil {
			log.Error().Err(err).Str("address", conn.RemoteAddr().String()).Msg("error parsing message")
			s.reply(conn.RemoteAddr().String(), newErrorReport(err))
			s.pool.AddTask(conn)
			return nil
		}

		s.inbox <- clientMessage{clientAddress: conn.RemoteAddr().String(), message: message}
		s.pool.AddTask(conn)
	}
	return nil
}

func (s *Server) addSession(conn net.Conn) {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()
	s.sessions[conn.RemoteAddr().String()] = ClientSession{conn: conn}
}

func (s *Server) removeSession(address string) {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()
	delete(s.sessions, address)
}
