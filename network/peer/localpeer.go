// Package peer holds the local node's networking identity and assembles its handshake.
package peer

import (
	"context"
	"errors"
	"git.gammaspectra.live/IronFish/network/network/identity"
	"git.gammaspectra.live/IronFish/network/network/message"
	"git.gammaspectra.live/IronFish/network/network/workerpool"
	"git.gammaspectra.live/IronFish/network/types"
	"git.gammaspectra.live/IronFish/network/utils"
	"time"
)

// HeadProvider exposes the current chain head. Head returns nil until a genesis block is known.
type HeadProvider interface {
	Head() *types.ChainHead
}

var (
	ErrMissingIdentity = errors.New("local peer requires a private identity")
	ErrMissingChain    = errors.New("local peer requires a chain head provider")
	ErrMissingPool     = errors.New("local peer requires a worker pool")
)

// LocalPeer is this node as seen by other peers.
//
// Identity, agent and version never change after construction. Port and name are plain fields
// without synchronisation: the owner must not mutate them while connections read them.
type LocalPeer struct {
	privateIdentity *identity.PrivateIdentity
	publicIdentity  identity.Identity

	agent   string
	version uint32

	chain HeadProvider
	pool  *workerpool.Pool

	port *uint16
	name *string

	// SimulateLatency delays every outbound send on connections owned by this peer. Test use only.
	SimulateLatency time.Duration
}

func NewLocalPeer(privateIdentity *identity.PrivateIdentity, agent string, version uint32, chain HeadProvider, pool *workerpool.Pool) (*LocalPeer, error) {
	if privateIdentity == nil {
		return nil, ErrMissingIdentity
	}
	if chain == nil {
		return nil, ErrMissingChain
	}
	if pool == nil {
		return nil, ErrMissingPool
	}

	p := &LocalPeer{
		privateIdentity: privateIdentity,
		publicIdentity:  privateIdentity.Identity(),
		agent:           agent,
		version:         version,
		chain:           chain,
		pool:            pool,
	}

	utils.Logf("[LocalPeer] Identity %s, agent %s, version %d", utils.Shorten(p.publicIdentity.String(), 6), agent, version)

	return p, nil
}

func (p *LocalPeer) Identity() identity.Identity {
	return p.publicIdentity
}

func (p *LocalPeer) PrivateIdentity() *identity.PrivateIdentity {
	return p.privateIdentity
}

func (p *LocalPeer) Agent() string {
	return p.agent
}

func (p *LocalPeer) Version() uint32 {
	return p.version
}

func (p *LocalPeer) Chain() HeadProvider {
	return p.chain
}

// GetIdentifyMessage builds the handshake from the current chain head.
// It panics when no head exists, a node cannot join the network without a genesis block.
func (p *LocalPeer) GetIdentifyMessage() *message.Identify {
	head := p.chain.Head()
	if head == nil {
		panic("cannot connect to the network without a genesis block")
	}

	return &message.Identify{
		Agent:    p.agent,
		Version:  p.version,
		Head:     head.Hash,
		Sequence: head.Sequence,
		Work:     head.Work.String(),
		Identity: p.publicIdentity,
		Name:     p.name,
		Port:     p.port,
	}
}

// BoxMessage encrypts plaintext for recipient on the worker pool.
// ctx bounds only the wait, the job itself still runs.
func (p *LocalPeer) BoxMessage(ctx context.Context, plaintext string, recipient identity.Identity) (identity.BoxedMessage, error) {
	select {
	case result := <-p.pool.BoxMessage(plaintext, p.privateIdentity, recipient):
		return result.Boxed, result.Err
	case <-ctx.Done():
		return identity.BoxedMessage{}, ctx.Err()
	}
}

// UnboxMessage decrypts a message sent by sender to this peer on the worker pool.
// ok is false when the message is not authentic; err is only set for pool or context failures.
func (p *LocalPeer) UnboxMessage(ctx context.Context, boxedMessage, nonce string, sender identity.Identity) (message string, ok bool, err error) {
	select {
	case result := <-p.pool.UnboxMessage(boxedMessage, nonce, sender, p.privateIdentity):
		if !result.Ok && result.Err == nil {
			utils.Debugf("[LocalPeer] Could not unbox message from %s", utils.Shorten(sender.String(), 6))
		}
		return result.Message, result.Ok, result.Err
	case <-ctx.Done():
		return "", false, ctx.Err()
	}
}

func (p *LocalPeer) SetPort(port uint16) {
	p.port = &port
}

func (p *LocalPeer) ClearPort() {
	p.port = nil
}

func (p *LocalPeer) Port() *uint16 {
	return p.port
}

// SetName sets the advertised name, an empty name clears it
func (p *LocalPeer) SetName(name string) {
	if name == "" {
		p.name = nil
		return
	}
	p.name = &name
}

func (p *LocalPeer) Name() *string {
	return p.name
}
