package types

// ChainHead is the tip of the local chain as seen by the networking layer.
type ChainHead struct {
	Hash     Hash   `json:"hash"`
	Sequence uint64 `json:"sequence"`
	Work     Work   `json:"work"`
}
