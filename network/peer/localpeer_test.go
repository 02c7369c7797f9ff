package peer

import (
	"context"
	"strings"
	"testing"
	"time"

	"git.gammaspectra.live/IronFish/network/network/identity"
	"git.gammaspectra.live/IronFish/network/network/workerpool"
	"git.gammaspectra.live/IronFish/network/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticHead struct {
	head *types.ChainHead
}

func (s *staticHead) Head() *types.ChainHead {
	return s.head
}

func newTestPeer(t *testing.T, head *types.ChainHead) (*LocalPeer, *workerpool.Pool) {
	t.Helper()

	privateIdentity, err := identity.GeneratePrivateIdentity(nil)
	require.NoError(t, err)

	pool := workerpool.New(2, nil)
	t.Cleanup(pool.Close)

	p, err := NewLocalPeer(privateIdentity, "node/1.0", 1, &staticHead{head: head}, pool)
	require.NoError(t, err)
	return p, pool
}

func TestNewLocalPeerValidation(t *testing.T) {
	t.Parallel()

	privateIdentity, err := identity.GeneratePrivateIdentity(nil)
	require.NoError(t, err)
	pool := workerpool.New(1, nil)
	defer pool.Close()

	_, err = NewLocalPeer(nil, "a", 1, &staticHead{}, pool)
	assert.ErrorIs(t, err, ErrMissingIdentity)
	_, err = NewLocalPeer(privateIdentity, "a", 1, nil, pool)
	assert.ErrorIs(t, err, ErrMissingChain)
	_, err = NewLocalPeer(privateIdentity, "a", 1, &staticHead{}, nil)
	assert.ErrorIs(t, err, ErrMissingPool)

	p, err := NewLocalPeer(privateIdentity, "a", 1, &staticHead{}, pool)
	require.NoError(t, err)
	assert.Equal(t, privateIdentity.Identity(), p.Identity())
}

func TestGetIdentifyMessageWithoutHead(t *testing.T) {
	t.Parallel()

	p, _ := newTestPeer(t, nil)
	require.PanicsWithValue(t, "cannot connect to the network without a genesis block", func() {
		p.GetIdentifyMessage()
	})
}

func TestGetIdentifyMessage(t *testing.T) {
	t.Parallel()

	head := &types.ChainHead{
		Hash:     types.MustHashFromString(strings.Repeat("aa", types.HashSize)),
		Sequence: 5,
		Work:     types.WorkFrom64(100),
	}
	p, _ := newTestPeer(t, head)

	m := p.GetIdentifyMessage()
	assert.Equal(t, "node/1.0", m.Agent)
	assert.Equal(t, uint32(1), m.Version)
	assert.Equal(t, head.Hash, m.Head)
	assert.Equal(t, uint64(5), m.Sequence)
	assert.Equal(t, "100", m.Work)
	assert.Equal(t, p.Identity(), m.Identity)
	assert.Nil(t, m.Name)
	assert.Nil(t, m.Port)

	p.SetName("miner")
	p.SetPort(9033)
	m = p.GetIdentifyMessage()
	require.NotNil(t, m.Name)
	require.NotNil(t, m.Port)
	assert.Equal(t, "miner", *m.Name)
	assert.Equal(t, uint16(9033), *m.Port)

	p.SetName("")
	p.ClearPort()
	m = p.GetIdentifyMessage()
	assert.Nil(t, m.Name)
	assert.Nil(t, m.Port)
}

func TestLocalPeerBoxUnbox(t *testing.T) {
	t.Parallel()

	alice, _ := newTestPeer(t, nil)
	bob, _ := newTestPeer(t, nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	boxed, err := alice.BoxMessage(ctx, "sdp offer", bob.Identity())
	require.NoError(t, err)

	plaintext, ok, err := bob.UnboxMessage(ctx, boxed.BoxedMessage, boxed.Nonce, alice.Identity())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "sdp offer", plaintext)

	// alice cannot read a message addressed to bob
	_, ok, err = alice.UnboxMessage(ctx, boxed.BoxedMessage, boxed.Nonce, alice.Identity())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLocalPeerClosedPool(t *testing.T) {
	t.Parallel()

	p, pool := newTestPeer(t, nil)
	pool.Close()

	_, err := p.BoxMessage(context.Background(), "x", p.Identity())
	assert.ErrorIs(t, err, workerpool.ErrPoolClosed)

	_, ok, err := p.UnboxMessage(context.Background(), "", "", p.Identity())
	assert.ErrorIs(t, err, workerpool.ErrPoolClosed)
	assert.False(t, ok)
}

func TestLocalPeerCancelledWait(t *testing.T) {
	t.Parallel()

	p, _ := newTestPeer(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// either the result or the cancellation may win, neither may block
	_, err := p.BoxMessage(ctx, "x", p.Identity())
	if err != nil {
		assert.ErrorIs(t, err, context.Canceled)
	}
}
