package message

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"git.gammaspectra.live/IronFish/network/network/identity"
	"git.gammaspectra.live/IronFish/network/utils"
	"time"
)

type DisconnectingReason uint8

const (
	DisconnectingReasonShuttingDown = DisconnectingReason(iota)
	DisconnectingReasonCongested
	// DisconnectingReasonBadMessage the sender could not decode something we sent
	DisconnectingReasonBadMessage
	DisconnectingReasonBannedPeer
)

func (r DisconnectingReason) String() string {
	switch r {
	case DisconnectingReasonShuttingDown:
		return "ShuttingDown"
	case DisconnectingReasonCongested:
		return "Congested"
	case DisconnectingReasonBadMessage:
		return "BadMessage"
	case DisconnectingReasonBannedPeer:
		return "BannedPeer"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(r))
	}
}

// Disconnecting is sent right before closing a connection. DisconnectUntil is a unix timestamp
// in milliseconds before which the sender asks not to be reconnected to.
type Disconnecting struct {
	SourceIdentity      identity.Identity
	DestinationIdentity *identity.Identity
	Reason              DisconnectingReason
	DisconnectUntil     uint64
}

func (m *Disconnecting) Until() time.Time {
	return time.UnixMilli(int64(m.DisconnectUntil))
}

func (m *Disconnecting) Type() MessageType {
	return MessageDisconnecting
}

func (m *Disconnecting) BufferLength() int {
	return utils.VarStringSize(string(m.SourceIdentity)) +
		optionalStringSize(m.DestinationIdentity) +
		1 +
		8
}

func (m *Disconnecting) MarshalBinary() ([]byte, error) {
	return m.AppendBinary(make([]byte, 0, m.BufferLength()))
}

func (m *Disconnecting) AppendBinary(preAllocatedBuf []byte) (buf []byte, err error) {
	buf = utils.AppendVarString(preAllocatedBuf, string(m.SourceIdentity))
	buf = appendOptionalString(buf, m.DestinationIdentity)
	buf = append(buf, byte(m.Reason))
	buf = binary.LittleEndian.AppendUint64(buf, m.DisconnectUntil)
	return buf, nil
}

func (m *Disconnecting) FromReader(reader *bytes.Reader) (err error) {
	var source string
	if source, err = readVarString(reader); err != nil {
		return err
	}
	m.SourceIdentity = identity.Identity(source)
	if m.DestinationIdentity, err = readOptionalString[identity.Identity](reader); err != nil {
		return err
	}
	var reason byte
	if reason, err = reader.ReadByte(); err != nil {
		return err
	}
	m.Reason = DisconnectingReason(reason)
	return binary.Read(reader, binary.LittleEndian, &m.DisconnectUntil)
}

func (m *Disconnecting) UnmarshalBinary(data []byte) error {
	return unmarshalPayload(data, m.FromReader)
}
