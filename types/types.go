package types

import (
	"bytes"
	"encoding/hex"
	"errors"
	"git.gammaspectra.live/IronFish/network/utils"
)

const HashSize = 32

// Hash is a block hash as carried on the wire. Its text form is 64 lowercase hex characters.
type Hash [HashSize]byte

var ZeroHash Hash

var errWrongHashSize = errors.New("wrong hash size")

func (h Hash) MarshalJSON() ([]byte, error) {
	return utils.MarshalJSON(h.String())
}

func HashFromString(s string) (Hash, error) {
	var h Hash
	if buf, err := hex.DecodeString(s); err != nil {
		return h, err
	} else {
		if len(buf) != HashSize {
			return h, errWrongHashSize
		}
		copy(h[:], buf)
		return h, nil
	}
}

func MustHashFromString(s string) Hash {
	if h, err := HashFromString(s); err != nil {
		panic(err)
	} else {
		return h
	}
}

func HashFromBytes(buf []byte) (h Hash) {
	if len(buf) != HashSize {
		return
	}
	copy(h[:], buf)
	return
}

func (h Hash) Equals(o Hash) bool {
	return bytes.Equal(h[:], o[:])
}

func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

func (h *Hash) UnmarshalJSON(b []byte) error {
	var s string
	if err := utils.UnmarshalJSON(b, &s); err != nil {
		return err
	}

	if r, err := HashFromString(s); err != nil {
		return err
	} else {
		*h = r
		return nil
	}
}
