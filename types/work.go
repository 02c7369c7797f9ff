package types

import (
	"errors"
	"git.gammaspectra.live/IronFish/network/utils"
	"github.com/holiman/uint256"
)

// Work is the cumulative proof-of-work of a chain, compared between peers to judge chain strength.
// Its text form is a base 10 integer.
type Work uint256.Int

var ZeroWork Work

var errInvalidWork = errors.New("invalid work value")

func WorkFrom64(v uint64) Work {
	return Work(*uint256.NewInt(v))
}

func WorkFromString(s string) (Work, error) {
	var v uint256.Int
	if err := v.SetFromDecimal(s); err != nil {
		return ZeroWork, errInvalidWork
	}
	return Work(v), nil
}

func MustWorkFromString(s string) Work {
	if w, err := WorkFromString(s); err != nil {
		panic(err)
	} else {
		return w
	}
}

func (w Work) Int() *uint256.Int {
	v := uint256.Int(w)
	return &v
}

func (w Work) IsZero() bool {
	return w.Int().IsZero()
}

func (w Work) Cmp(o Work) int {
	return w.Int().Cmp(o.Int())
}

func (w Work) Add(o Work) Work {
	return Work(*new(uint256.Int).Add(w.Int(), o.Int()))
}

func (w Work) Add64(v uint64) Work {
	return Work(*new(uint256.Int).AddUint64(w.Int(), v))
}

func (w Work) String() string {
	return w.Int().Dec()
}

func (w Work) MarshalJSON() ([]byte, error) {
	return utils.MarshalJSON(w.String())
}

func (w *Work) UnmarshalJSON(b []byte) error {
	var s string
	if err := utils.UnmarshalJSON(b, &s); err != nil {
		return err
	}

	if r, err := WorkFromString(s); err != nil {
		return err
	} else {
		*w = r
		return nil
	}
}
