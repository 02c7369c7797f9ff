// Package identity implements peer identities and the authenticated encryption used to pass
// signaling data between two peers through untrusted relays.
//
// An Identity is the base64 encoding of a Curve25519 public key. Boxing uses NaCl box
// (x25519, xsalsa20, poly1305) with a fresh random nonce per message.
package identity

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/nacl/box"
	"io"
)

const (
	PublicKeySize = 32
	SecretKeySize = 32
	NonceSize     = 24

	// IdentityLength is the length of a base64 encoded public key
	IdentityLength = 44
)

var ErrInvalidIdentity = errors.New("invalid identity")
var ErrInvalidSecretKey = errors.New("invalid secret key")

// Identity is the public half of a peer key pair. It identifies a peer for the lifetime of the key pair.
type Identity string

func IdentityFromPublicKey(publicKey *[PublicKeySize]byte) Identity {
	return Identity(base64.StdEncoding.EncodeToString(publicKey[:]))
}

func (i Identity) PublicKey() (*[PublicKeySize]byte, error) {
	if len(i) != IdentityLength {
		return nil, fmt.Errorf("%w: length %d", ErrInvalidIdentity, len(i))
	}
	// strict decoding rejects non-zero padding bits, so one key has exactly one Identity
	buf, err := base64.StdEncoding.Strict().DecodeString(string(i))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidIdentity, err)
	}
	if len(buf) != PublicKeySize {
		return nil, fmt.Errorf("%w: key size %d", ErrInvalidIdentity, len(buf))
	}
	var k [PublicKeySize]byte
	copy(k[:], buf)
	return &k, nil
}

func (i Identity) Valid() bool {
	_, err := i.PublicKey()
	return err == nil
}

func (i Identity) String() string {
	return string(i)
}

// PrivateIdentity is a full key pair. It is never transmitted.
type PrivateIdentity struct {
	PublicKey [PublicKeySize]byte
	SecretKey [SecretKeySize]byte
}

func GeneratePrivateIdentity(random io.Reader) (*PrivateIdentity, error) {
	if random == nil {
		random = rand.Reader
	}
	publicKey, secretKey, err := box.GenerateKey(random)
	if err != nil {
		return nil, err
	}
	return &PrivateIdentity{
		PublicKey: *publicKey,
		SecretKey: *secretKey,
	}, nil
}

func NewPrivateIdentity(secretKey [SecretKeySize]byte) *PrivateIdentity {
	p := &PrivateIdentity{
		SecretKey: secretKey,
	}
	curve25519.ScalarBaseMult(&p.PublicKey, &p.SecretKey)
	return p
}

// PrivateIdentityFromString loads a key pair from the hex encoded secret key
func PrivateIdentityFromString(s string) (*PrivateIdentity, error) {
	buf, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSecretKey, err)
	}
	if len(buf) != SecretKeySize {
		return nil, fmt.Errorf("%w: size %d", ErrInvalidSecretKey, len(buf))
	}
	var secretKey [SecretKeySize]byte
	copy(secretKey[:], buf)
	return NewPrivateIdentity(secretKey), nil
}

// Identity derives the public identity. It is pure and does not touch the secret key.
func (p *PrivateIdentity) Identity() Identity {
	return IdentityFromPublicKey(&p.PublicKey)
}

// SecretString returns the hex encoded secret key, as accepted by PrivateIdentityFromString
func (p *PrivateIdentity) SecretString() string {
	return hex.EncodeToString(p.SecretKey[:])
}

// ToIdentity is Identity as a free function, for use as a func value
func ToIdentity(p *PrivateIdentity) Identity {
	return p.Identity()
}
