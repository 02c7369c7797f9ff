// Package connection carries envelopes over WebSocket, one envelope per binary frame.
package connection

import (
	"context"
	"errors"
	"fmt"
	"git.gammaspectra.live/IronFish/network/network/identity"
	"git.gammaspectra.live/IronFish/network/network/message"
	"git.gammaspectra.live/IronFish/network/network/metrics"
	"git.gammaspectra.live/IronFish/network/network/peer"
	"git.gammaspectra.live/IronFish/network/utils"
	"net/http"
	"nhooyr.io/websocket"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultMaxPayloadSize bounds a single inbound envelope payload
const DefaultMaxPayloadSize = 256 * 1024

// BadMessageDisconnectTime is how long a peer that sent an undecodable frame is asked to stay away
const BadMessageDisconnectTime = time.Minute * 5

const writeTimeout = time.Second * 10

var ErrClosed = errors.New("connection closed")

// Handler receives every decoded inbound message, in arrival order, from the read loop
type Handler func(c *Connection, m message.Message)

type Options struct {
	// MaxPayloadSize defaults to DefaultMaxPayloadSize
	MaxPayloadSize uint64
	Handler        Handler
}

type Connection struct {
	IsIncomingConnection bool
	ConnectionTime       time.Time
	Address              string

	local   *peer.LocalPeer
	conn    *websocket.Conn
	decoder message.Decoder
	handler Handler

	// remote is the last Identify received from the other side
	remote atomic.Pointer[message.Identify]

	closed       atomic.Bool
	closeChannel chan struct{}

	sendLock sync.Mutex
}

func newConnection(local *peer.LocalPeer, conn *websocket.Conn, address string, incoming bool, options Options) *Connection {
	if options.MaxPayloadSize == 0 {
		options.MaxPayloadSize = DefaultMaxPayloadSize
	}
	conn.SetReadLimit(int64(options.MaxPayloadSize) + message.HeaderSize)

	return &Connection{
		IsIncomingConnection: incoming,
		ConnectionTime:       time.Now(),
		Address:              address,
		local:                local,
		conn:                 conn,
		decoder:              message.Decoder{MaxPayloadSize: options.MaxPayloadSize},
		handler:              options.Handler,
		closeChannel:         make(chan struct{}),
	}
}

// Dial opens an outgoing connection to a ws:// or wss:// url
func Dial(ctx context.Context, local *peer.LocalPeer, url string, options Options) (*Connection, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	utils.Logf("[Connection] Outgoing connection to %s", url)
	return newConnection(local, conn, url, false, options), nil
}

// Accept upgrades an incoming HTTP request
func Accept(writer http.ResponseWriter, request *http.Request, local *peer.LocalPeer, options Options) (*Connection, error) {
	conn, err := websocket.Accept(writer, request, nil)
	if err != nil {
		return nil, fmt.Errorf("accept %s: %w", request.RemoteAddr, err)
	}
	utils.Logf("[Connection] Incoming connection from %s", request.RemoteAddr)
	return newConnection(local, conn, request.RemoteAddr, true, options), nil
}

// Remote returns the handshake received from the other side, nil before it arrives
func (c *Connection) Remote() *message.Identify {
	return c.remote.Load()
}

func (c *Connection) RemoteIdentity() *identity.Identity {
	if remote := c.remote.Load(); remote != nil {
		i := remote.Identity
		return &i
	}
	return nil
}

func (c *Connection) Closed() bool {
	return c.closed.Load()
}

// Done is closed once the connection is closed
func (c *Connection) Done() <-chan struct{} {
	return c.closeChannel
}

// Send frames and writes m. Sends on one connection are serialised, in call order.
func (c *Connection) Send(ctx context.Context, m message.Message) error {
	if c.closed.Load() {
		return ErrClosed
	}

	buf, err := message.MarshalWithMetadata(m)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", m.Type(), err)
	}

	c.sendLock.Lock()
	defer c.sendLock.Unlock()

	if latency := c.local.SimulateLatency; latency > 0 {
		timer := time.NewTimer(latency)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}

	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	if err = c.conn.Write(writeCtx, websocket.MessageBinary, buf); err != nil {
		c.close(websocket.StatusInternalError, "write failed")
		return fmt.Errorf("send %s: %w", m.Type(), err)
	}

	metrics.MessagesSent.WithLabelValues(m.Type().String()).Inc()
	return nil
}

// SendIdentify sends this node's handshake. It panics when the local chain has no head.
func (c *Connection) SendIdentify(ctx context.Context) error {
	return c.Send(ctx, c.local.GetIdentifyMessage())
}

// Run reads frames until the connection closes or ctx is done.
// A frame that does not decode ends the connection after a Disconnecting notice attempt.
func (c *Connection) Run(ctx context.Context) error {
	defer c.close(websocket.StatusNormalClosure, "closing")

	for {
		messageType, data, err := c.conn.Read(ctx)
		if err != nil {
			if c.closed.Load() || ctx.Err() != nil || websocket.CloseStatus(err) != -1 {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}

		if messageType != websocket.MessageBinary {
			err = fmt.Errorf("%w: unexpected %s frame", message.ErrMalformedPayload, messageType)
			c.onBadMessage(ctx, err)
			return err
		}

		m, err := c.decoder.Unmarshal(data)
		if err != nil {
			c.onBadMessage(ctx, err)
			return err
		}

		metrics.MessagesReceived.WithLabelValues(m.Type().String()).Inc()

		if identify, ok := m.(*message.Identify); ok {
			c.remote.Store(identify)
			utils.Logf("[Connection] %s identified as %s (%s, version %d) at sequence %d", c.Address, utils.Shorten(identify.Identity.String(), 6), identify.Agent, identify.Version, identify.Sequence)
		}

		if c.handler != nil {
			c.handler(c, m)
		}
	}
}

func (c *Connection) onBadMessage(ctx context.Context, err error) {
	metrics.DecodeErrors.WithLabelValues(message.ErrorKind(err)).Inc()
	utils.Errorf("[Connection] Bad message from %s: %s", c.Address, err)

	notice := &message.Disconnecting{
		SourceIdentity:      c.local.Identity(),
		DestinationIdentity: c.RemoteIdentity(),
		Reason:              message.DisconnectingReasonBadMessage,
		DisconnectUntil:     uint64(time.Now().Add(BadMessageDisconnectTime).UnixMilli()),
	}
	if sendErr := c.Send(ctx, notice); sendErr != nil {
		utils.Debugf("[Connection] Could not notify %s of disconnect: %s", c.Address, sendErr)
	}

	c.close(websocket.StatusUnsupportedData, message.DisconnectingReasonBadMessage.String())
}

// Disconnect sends a Disconnecting notice with reason and closes the connection
func (c *Connection) Disconnect(ctx context.Context, reason message.DisconnectingReason, until time.Time) {
	notice := &message.Disconnecting{
		SourceIdentity:      c.local.Identity(),
		DestinationIdentity: c.RemoteIdentity(),
		Reason:              reason,
	}
	if !until.IsZero() {
		notice.DisconnectUntil = uint64(until.UnixMilli())
	}
	if err := c.Send(ctx, notice); err != nil {
		utils.Debugf("[Connection] Could not notify %s of disconnect: %s", c.Address, err)
	}
	c.close(websocket.StatusNormalClosure, reason.String())
}

func (c *Connection) Close() {
	c.close(websocket.StatusNormalClosure, "closing")
}

func (c *Connection) close(code websocket.StatusCode, reason string) {
	if c.closed.Swap(true) {
		return
	}

	_ = c.conn.Close(code, reason)
	close(c.closeChannel)
	utils.Logf("[Connection] Closed %s: %s", c.Address, reason)
}
