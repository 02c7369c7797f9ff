package zmq

import "git.gammaspectra.live/IronFish/network/types"

type Topic string

const (
	TopicUnknown Topic = "unknown"

	TopicMinimalChainHead Topic = "json-minimal-chain_head"
)

// MinimalChainHead is the payload of TopicMinimalChainHead
type MinimalChainHead types.ChainHead

func (m *MinimalChainHead) ChainHead() *types.ChainHead {
	return (*types.ChainHead)(m)
}
