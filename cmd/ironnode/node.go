package main

import (
	"context"
	"errors"
	"fmt"
	"git.gammaspectra.live/IronFish/network/chain"
	"git.gammaspectra.live/IronFish/network/chain/zmq"
	"git.gammaspectra.live/IronFish/network/network/connection"
	"git.gammaspectra.live/IronFish/network/network/identity"
	"git.gammaspectra.live/IronFish/network/network/message"
	"git.gammaspectra.live/IronFish/network/network/peer"
	"git.gammaspectra.live/IronFish/network/network/workerpool"
	"git.gammaspectra.live/IronFish/network/utils"
	"golang.org/x/exp/slices"
	"golang.org/x/sync/errgroup"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// PeerListResponseMaxPeers caps the peers returned for a PeerListRequest
const PeerListResponseMaxPeers = 50

const signalUnboxTimeout = time.Second * 5

type Node struct {
	settings map[string]string

	local   *peer.LocalPeer
	tracker *chain.Tracker
	pool    *workerpool.Pool

	connectionsLock sync.RWMutex
	connections     []*connection.Connection

	// OnSignal receives decrypted signals addressed to this node. Set it before Run.
	OnSignal func(source identity.Identity, signal string)

	ctx context.Context
}

func NewNode(ctx context.Context, settings map[string]string) (*Node, error) {
	n := &Node{
		settings: settings,
		tracker:  chain.NewTracker(nil),
		ctx:      ctx,
	}

	var privateIdentity *identity.PrivateIdentity
	var err error
	if secret, ok := settings["identity"]; ok && secret != "" {
		if privateIdentity, err = identity.PrivateIdentityFromString(secret); err != nil {
			return nil, fmt.Errorf("identity: %w", err)
		}
	} else if privateIdentity, err = identity.GeneratePrivateIdentity(nil); err != nil {
		return nil, fmt.Errorf("identity: %w", err)
	}

	workers, _ := strconv.Atoi(settings["workers"])
	n.pool = workerpool.New(workers, identity.NewCodec(identity.DefaultSharedKeyCacheSize))

	version, err := strconv.ParseUint(settings["version"], 10, 32)
	if err != nil {
		return nil, fmt.Errorf("version: %w", err)
	}

	if n.local, err = peer.NewLocalPeer(privateIdentity, settings["agent"], uint32(version), n.tracker, n.pool); err != nil {
		return nil, err
	}

	n.local.SetName(settings["name"])

	if port, err := strconv.ParseUint(settings["external-port"], 10, 16); err == nil && port != 0 {
		n.local.SetPort(uint16(port))
	} else if listen, ok := settings["listen"]; ok && listen != "" {
		if _, p, err := net.SplitHostPort(listen); err == nil {
			if port, err := strconv.ParseUint(p, 10, 16); err == nil && port != 0 {
				n.local.SetPort(uint16(port))
			}
		}
	}

	if latency, ok := settings["latency"]; ok && latency != "" {
		if n.local.SimulateLatency, err = time.ParseDuration(latency); err != nil {
			return nil, fmt.Errorf("latency: %w", err)
		}
	}

	return n, nil
}

func (n *Node) LocalPeer() *peer.LocalPeer {
	return n.local
}

func (n *Node) Tracker() *chain.Tracker {
	return n.tracker
}

func (n *Node) Connections() []*connection.Connection {
	n.connectionsLock.RLock()
	defer n.connectionsLock.RUnlock()
	return slices.Clone(n.connections)
}

func (n *Node) GetConnectionByIdentity(i identity.Identity) *connection.Connection {
	n.connectionsLock.RLock()
	defer n.connectionsLock.RUnlock()
	if index := slices.IndexFunc(n.connections, func(c *connection.Connection) bool {
		remote := c.RemoteIdentity()
		return remote != nil && *remote == i
	}); index != -1 {
		return n.connections[index]
	}
	return nil
}

func (n *Node) addConnection(c *connection.Connection) {
	n.connectionsLock.Lock()
	defer n.connectionsLock.Unlock()
	n.connections = append(n.connections, c)
}

func (n *Node) removeConnection(c *connection.Connection) {
	n.connectionsLock.Lock()
	defer n.connectionsLock.Unlock()
	if i := slices.Index(n.connections, c); i != -1 {
		n.connections = slices.Delete(n.connections, i, i+1)
	}
}

func (n *Node) options() connection.Options {
	return connection.Options{
		Handler: n.handleMessage,
	}
}

// serveConnection sends the handshake and runs c until it closes
func (n *Node) serveConnection(ctx context.Context, c *connection.Connection) error {
	n.addConnection(c)
	defer n.removeConnection(c)
	defer c.Close()

	if err := c.SendIdentify(ctx); err != nil {
		return err
	}
	return c.Run(ctx)
}

func (n *Node) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	if n.tracker.Head() == nil {
		writer.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	c, err := connection.Accept(writer, request, n.local, n.options())
	if err != nil {
		utils.Errorf("[Node] %s", err)
		return
	}
	if err = n.serveConnection(request.Context(), c); err != nil {
		utils.Noticef("[Node] Connection from %s ended: %s", c.Address, err)
	}
}

func (n *Node) Connect(url string) error {
	ctx, cancel := context.WithTimeout(n.ctx, time.Second*10)
	defer cancel()
	c, err := connection.Dial(ctx, n.local, url, n.options())
	if err != nil {
		return err
	}
	go func() {
		if err := n.serveConnection(n.ctx, c); err != nil {
			utils.Noticef("[Node] Connection to %s ended: %s", url, err)
		}
	}()
	return nil
}

func (n *Node) handleMessage(c *connection.Connection, m message.Message) {
	switch m := m.(type) {
	case *message.PeerListRequest:
		if err := c.Send(n.ctx, n.peerList(c)); err != nil {
			utils.Noticef("[Node] Could not send peer list to %s: %s", c.Address, err)
		}
	case *message.GetBlocksRequest:
		// block storage lives in the chain process
		if err := c.Send(n.ctx, &message.CannotSatisfyRequest{RpcId: m.RpcId}); err != nil {
			utils.Noticef("[Node] Could not answer %s: %s", c.Address, err)
		}
	case *message.Signal:
		n.handleSignal(c, m)
	case *message.SignalRequest:
		if m.Destination != n.local.Identity() {
			n.relay(m.Destination, m)
		}
	case *message.Disconnecting:
		utils.Logf("[Node] %s disconnecting: %s", c.Address, m.Reason)
		c.Close()
	}
}

// handleSignal runs on the connection read loop. Unboxing waits on the worker pool inline, so a
// peer flooding signals is slowed down by its own read loop instead of piling up goroutines.
func (n *Node) handleSignal(c *connection.Connection, m *message.Signal) {
	if m.Destination != n.local.Identity() {
		n.relay(m.Destination, m)
		return
	}

	ctx, cancel := context.WithTimeout(n.ctx, signalUnboxTimeout)
	defer cancel()
	plaintext, ok, err := n.local.UnboxMessage(ctx, m.Signal, m.Nonce, m.Source)
	if err != nil {
		utils.Errorf("[Node] Could not unbox signal from %s: %s", utils.Shorten(m.Source.String(), 6), err)
		return
	}
	if !ok {
		utils.Noticef("[Node] Discarding unauthenticated signal from %s via %s", utils.Shorten(m.Source.String(), 6), c.Address)
		return
	}
	utils.Debugf("[Node] Signal from %s: %d bytes", utils.Shorten(m.Source.String(), 6), len(plaintext))
	if n.OnSignal != nil {
		n.OnSignal(m.Source, plaintext)
	}
}

func (n *Node) relay(destination identity.Identity, m message.Message) {
	target := n.GetConnectionByIdentity(destination)
	if target == nil {
		utils.Debugf("[Node] No connection to %s, dropping %s", utils.Shorten(destination.String(), 6), m.Type())
		return
	}
	if err := target.Send(n.ctx, m); err != nil {
		utils.Noticef("[Node] Could not relay %s to %s: %s", m.Type(), target.Address, err)
	}
}

func (n *Node) peerList(exclude *connection.Connection) *message.PeerList {
	list := &message.PeerList{}
	for _, c := range n.Connections() {
		if c == exclude {
			continue
		}
		remote := c.Remote()
		if remote == nil {
			continue
		}
		address := c.Address
		if c.IsIncomingConnection {
			// only the host part is meaningful for incoming peers
			if host, _, err := net.SplitHostPort(address); err == nil {
				address = host
			}
		}
		list.Peers = append(list.Peers, message.PeerAddress{
			Identity: remote.Identity,
			Name:     remote.Name,
			Address:  &address,
			Port:     remote.Port,
		})
		if len(list.Peers) >= PeerListResponseMaxPeers {
			break
		}
	}
	return list
}

// waitForHead blocks until the tracker knows a chain head
func (n *Node) waitForHead(ctx context.Context) error {
	if n.tracker.Head() != nil {
		return nil
	}
	for range utils.ContextTick(ctx, time.Millisecond*500) {
		if n.tracker.Head() != nil {
			return nil
		}
	}
	return ctx.Err()
}

func (n *Node) Run() error {
	g, ctx := errgroup.WithContext(n.ctx)

	if endpoint := n.settings["zmq-url"]; endpoint != "" {
		g.Go(func() error {
			client := zmq.NewClient(endpoint)
			defer client.Close()
			return client.Listen(ctx, func(head *zmq.MinimalChainHead) {
				n.tracker.Update(head.ChainHead())
			})
		})
	}

	if listen := n.settings["listen"]; listen != "" {
		server := &http.Server{
			Addr:              listen,
			ReadHeaderTimeout: time.Second * 2,
			Handler:           n,
		}
		g.Go(func() error {
			utils.Logf("[Node] Listening on %s", listen)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			return server.Close()
		})
	}

	g.Go(func() error {
		if err := n.waitForHead(ctx); err != nil {
			return nil
		}
		for _, url := range strings.Split(n.settings["connect"], ",") {
			if url = strings.TrimSpace(url); url == "" {
				continue
			}
			if err := n.Connect(url); err != nil {
				utils.Errorf("[Node] Error connecting to peer %s: %s", url, err)
			}
		}
		return nil
	})

	return g.Wait()
}

func (n *Node) Close() {
	for _, c := range n.Connections() {
		c.Disconnect(context.Background(), message.DisconnectingReasonShuttingDown, time.Time{})
	}
	n.pool.Close()
}
