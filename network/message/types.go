package message

import "fmt"

// MessageType is the registry code carried in the first byte of every envelope.
// Codes are stable: new kinds are appended, never renumbered.
type MessageType uint8

const (
	MessageDisconnecting = MessageType(iota)
	MessageCannotSatisfyRequest
	MessageGetBlocksRequest
	MessageGetBlocksResponse
	MessageIdentify
	MessagePeerList
	MessagePeerListRequest
	MessageSignal
	MessageSignalRequest

	messageTypeCount
)

func (t MessageType) String() string {
	switch t {
	case MessageDisconnecting:
		return "Disconnecting"
	case MessageCannotSatisfyRequest:
		return "CannotSatisfyRequest"
	case MessageGetBlocksRequest:
		return "GetBlocksRequest"
	case MessageGetBlocksResponse:
		return "GetBlocksResponse"
	case MessageIdentify:
		return "Identify"
	case MessagePeerList:
		return "PeerList"
	case MessagePeerListRequest:
		return "PeerListRequest"
	case MessageSignal:
		return "Signal"
	case MessageSignalRequest:
		return "SignalRequest"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(t))
	}
}

func (t MessageType) Known() bool {
	return t < messageTypeCount && registry[t] != nil
}

type decodeFunc func(payload []byte) (Message, error)

// registry maps a code to its decoder. It is filled once in init and only read afterwards.
var registry [messageTypeCount]decodeFunc

func register[T any, PT interface {
	*T
	Message
}](t MessageType) {
	registry[t] = func(payload []byte) (Message, error) {
		m := PT(new(T))
		if err := m.UnmarshalBinary(payload); err != nil {
			return nil, err
		}
		return m, nil
	}
}

func init() {
	register[Disconnecting](MessageDisconnecting)
	register[CannotSatisfyRequest](MessageCannotSatisfyRequest)
	register[GetBlocksRequest](MessageGetBlocksRequest)
	register[GetBlocksResponse](MessageGetBlocksResponse)
	register[Identify](MessageIdentify)
	register[PeerList](MessagePeerList)
	register[PeerListRequest](MessagePeerListRequest)
	register[Signal](MessageSignal)
	register[SignalRequest](MessageSignalRequest)
}
