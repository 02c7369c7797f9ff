package message

import (
	"bytes"
	"encoding/binary"
	"git.gammaspectra.live/IronFish/network/types"
	"git.gammaspectra.live/IronFish/network/utils"
	"io"
)

// RpcId pairs a response with the request that caused it
type RpcId uint32

// CannotSatisfyRequest tells the requester that the request identified by RpcId will not be answered
type CannotSatisfyRequest struct {
	RpcId RpcId
}

func (m *CannotSatisfyRequest) Type() MessageType {
	return MessageCannotSatisfyRequest
}

func (m *CannotSatisfyRequest) BufferLength() int {
	return 4
}

func (m *CannotSatisfyRequest) MarshalBinary() ([]byte, error) {
	return m.AppendBinary(make([]byte, 0, m.BufferLength()))
}

func (m *CannotSatisfyRequest) AppendBinary(preAllocatedBuf []byte) ([]byte, error) {
	return binary.LittleEndian.AppendUint32(preAllocatedBuf, uint32(m.RpcId)), nil
}

func (m *CannotSatisfyRequest) FromReader(reader *bytes.Reader) error {
	return binary.Read(reader, binary.LittleEndian, &m.RpcId)
}

func (m *CannotSatisfyRequest) UnmarshalBinary(data []byte) error {
	return unmarshalPayload(data, m.FromReader)
}

// GetBlocksRequest asks for up to Limit blocks starting at Start
type GetBlocksRequest struct {
	RpcId RpcId
	Start types.Hash
	Limit uint16
}

func (m *GetBlocksRequest) Type() MessageType {
	return MessageGetBlocksRequest
}

func (m *GetBlocksRequest) BufferLength() int {
	return 4 + types.HashSize + 2
}

func (m *GetBlocksRequest) MarshalBinary() ([]byte, error) {
	return m.AppendBinary(make([]byte, 0, m.BufferLength()))
}

func (m *GetBlocksRequest) AppendBinary(preAllocatedBuf []byte) (buf []byte, err error) {
	buf = binary.LittleEndian.AppendUint32(preAllocatedBuf, uint32(m.RpcId))
	buf = append(buf, m.Start[:]...)
	buf = binary.LittleEndian.AppendUint16(buf, m.Limit)
	return buf, nil
}

func (m *GetBlocksRequest) FromReader(reader *bytes.Reader) (err error) {
	if err = binary.Read(reader, binary.LittleEndian, &m.RpcId); err != nil {
		return err
	}
	if _, err = io.ReadFull(reader, m.Start[:]); err != nil {
		return err
	}
	return binary.Read(reader, binary.LittleEndian, &m.Limit)
}

func (m *GetBlocksRequest) UnmarshalBinary(data []byte) error {
	return unmarshalPayload(data, m.FromReader)
}

// GetBlocksResponse carries serialized blocks. Block encoding belongs to the chain and is opaque here.
type GetBlocksResponse struct {
	RpcId  RpcId
	Blocks [][]byte
}

func (m *GetBlocksResponse) Type() MessageType {
	return MessageGetBlocksResponse
}

func (m *GetBlocksResponse) BufferLength() (n int) {
	n = 4 + utils.UVarInt64Size(len(m.Blocks))
	for _, b := range m.Blocks {
		n += utils.UVarInt64Size(len(b)) + len(b)
	}
	return n
}

func (m *GetBlocksResponse) MarshalBinary() ([]byte, error) {
	return m.AppendBinary(make([]byte, 0, m.BufferLength()))
}

func (m *GetBlocksResponse) AppendBinary(preAllocatedBuf []byte) (buf []byte, err error) {
	buf = binary.LittleEndian.AppendUint32(preAllocatedBuf, uint32(m.RpcId))
	buf = binary.AppendUvarint(buf, uint64(len(m.Blocks)))
	for _, b := range m.Blocks {
		buf = utils.AppendVarBytes(buf, b)
	}
	return buf, nil
}

func (m *GetBlocksResponse) FromReader(reader *bytes.Reader) (err error) {
	if err = binary.Read(reader, binary.LittleEndian, &m.RpcId); err != nil {
		return err
	}
	var count uint64
	// each block carries at least its length prefix
	if count, err = readCount(reader, 1); err != nil {
		return err
	}
	m.Blocks = make([][]byte, count)
	for i := range m.Blocks {
		if m.Blocks[i], err = readVarBytes(reader); err != nil {
			return err
		}
	}
	return nil
}

func (m *GetBlocksResponse) UnmarshalBinary(data []byte) error {
	return unmarshalPayload(data, m.FromReader)
}
