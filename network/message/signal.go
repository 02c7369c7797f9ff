package message

import (
	"bytes"
	"git.gammaspectra.live/IronFish/network/network/identity"
	"git.gammaspectra.live/IronFish/network/utils"
)

// Signal relays encrypted connection signaling from Source to Destination. Relaying peers only
// see ciphertext, the destination opens it with identity.UnboxMessage.
type Signal struct {
	Source      identity.Identity
	Destination identity.Identity
	Nonce       string
	Signal      string
}

func NewSignal(source, destination identity.Identity, boxed identity.BoxedMessage) *Signal {
	return &Signal{
		Source:      source,
		Destination: destination,
		Nonce:       boxed.Nonce,
		Signal:      boxed.BoxedMessage,
	}
}

func (m *Signal) Boxed() identity.BoxedMessage {
	return identity.BoxedMessage{
		Nonce:        m.Nonce,
		BoxedMessage: m.Signal,
	}
}

func (m *Signal) Type() MessageType {
	return MessageSignal
}

func (m *Signal) BufferLength() int {
	return utils.VarStringSize(string(m.Source)) +
		utils.VarStringSize(string(m.Destination)) +
		utils.VarStringSize(m.Nonce) +
		utils.VarStringSize(m.Signal)
}

func (m *Signal) MarshalBinary() ([]byte, error) {
	return m.AppendBinary(make([]byte, 0, m.BufferLength()))
}

func (m *Signal) AppendBinary(preAllocatedBuf []byte) (buf []byte, err error) {
	buf = preAllocatedBuf
	buf = utils.AppendVarString(buf, string(m.Source))
	buf = utils.AppendVarString(buf, string(m.Destination))
	buf = utils.AppendVarString(buf, m.Nonce)
	buf = utils.AppendVarString(buf, m.Signal)
	return buf, nil
}

func (m *Signal) FromReader(reader *bytes.Reader) (err error) {
	var source, destination string
	if source, err = readVarString(reader); err != nil {
		return err
	}
	if destination, err = readVarString(reader); err != nil {
		return err
	}
	m.Source, m.Destination = identity.Identity(source), identity.Identity(destination)
	if m.Nonce, err = readVarString(reader); err != nil {
		return err
	}
	if m.Signal, err = readVarString(reader); err != nil {
		return err
	}
	return nil
}

func (m *Signal) UnmarshalBinary(data []byte) error {
	return unmarshalPayload(data, m.FromReader)
}

// SignalRequest asks Destination, through relays, to start signaling with Source
type SignalRequest struct {
	Source      identity.Identity
	Destination identity.Identity
}

func (m *SignalRequest) Type() MessageType {
	return MessageSignalRequest
}

func (m *SignalRequest) BufferLength() int {
	return utils.VarStringSize(string(m.Source)) + utils.VarStringSize(string(m.Destination))
}

func (m *SignalRequest) MarshalBinary() ([]byte, error) {
	return m.AppendBinary(make([]byte, 0, m.BufferLength()))
}

func (m *SignalRequest) AppendBinary(preAllocatedBuf []byte) (buf []byte, err error) {
	buf = utils.AppendVarString(preAllocatedBuf, string(m.Source))
	buf = utils.AppendVarString(buf, string(m.Destination))
	return buf, nil
}

func (m *SignalRequest) FromReader(reader *bytes.Reader) (err error) {
	var source, destination string
	if source, err = readVarString(reader); err != nil {
		return err
	}
	if destination, err = readVarString(reader); err != nil {
		return err
	}
	m.Source, m.Destination = identity.Identity(source), identity.Identity(destination)
	return nil
}

func (m *SignalRequest) UnmarshalBinary(data []byte) error {
	return unmarshalPayload(data, m.FromReader)
}
