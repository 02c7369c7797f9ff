package identity

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"git.gammaspectra.live/IronFish/network/network/metrics"
	"git.gammaspectra.live/IronFish/network/utils"
	"golang.org/x/crypto/nacl/box"
	"io"
)

// BoxedMessage is ciphertext plus the nonce needed to open it. Both are base64 encoded and only useful together.
type BoxedMessage struct {
	Nonce        string `json:"nonce"`
	BoxedMessage string `json:"boxedMessage"`
}

var ErrMissingSender = errors.New("missing sender identity")

const DefaultSharedKeyCacheSize = 1024

// sharedKeyId is keyed on the local secret, the public half of a PrivateIdentity is caller supplied
type sharedKeyId struct {
	LocalSecret [SecretKeySize]byte
	Remote      [PublicKeySize]byte
}

// Codec boxes and unboxes signaling payloads. Shared keys derived for a (local, remote) pair are
// kept in an LRU cache, so repeated signaling with the same peer skips the key exchange.
type Codec struct {
	random     io.Reader
	sharedKeys *utils.LRUCache[sharedKeyId, *[32]byte]
}

// NewCodec creates a Codec with cacheSize shared keys cached. A cacheSize <= 0 disables the cache.
func NewCodec(cacheSize int) *Codec {
	c := &Codec{
		random: rand.Reader,
	}
	if cacheSize > 0 {
		c.sharedKeys = utils.NewLRUCache[sharedKeyId, *[32]byte](cacheSize)
	}
	return c
}

var defaultCodec = NewCodec(0)

func (c *Codec) sharedKey(local *PrivateIdentity, remote *[PublicKeySize]byte) *[32]byte {
	if c.sharedKeys == nil {
		var key [32]byte
		box.Precompute(&key, remote, &local.SecretKey)
		return &key
	}

	id := sharedKeyId{LocalSecret: local.SecretKey, Remote: *remote}
	if key, ok := c.sharedKeys.Get(id); ok {
		return key
	}

	var key [32]byte
	box.Precompute(&key, remote, &local.SecretKey)
	c.sharedKeys.Set(id, &key)
	return &key
}

// BoxMessage encrypts plaintext so only the holder of recipient's secret key can read it, and
// so that it authenticates as coming from sender.
func (c *Codec) BoxMessage(plaintext string, sender *PrivateIdentity, recipient Identity) (BoxedMessage, error) {
	if sender == nil {
		return BoxedMessage{}, ErrMissingSender
	}

	recipientKey, err := recipient.PublicKey()
	if err != nil {
		return BoxedMessage{}, err
	}

	var nonce [NonceSize]byte
	if _, err = io.ReadFull(c.random, nonce[:]); err != nil {
		return BoxedMessage{}, fmt.Errorf("nonce: %w", err)
	}

	sealed := box.SealAfterPrecomputation(nil, []byte(plaintext), &nonce, c.sharedKey(sender, recipientKey))

	metrics.BoxedMessages.Inc()

	return BoxedMessage{
		Nonce:        base64.StdEncoding.EncodeToString(nonce[:]),
		BoxedMessage: base64.StdEncoding.EncodeToString(sealed),
	}, nil
}

// UnboxMessage opens a boxed message. ok is false whenever the input is malformed or does not
// authenticate for the sender / recipient pair; this is expected from misbehaving peers and is not an error.
func (c *Codec) UnboxMessage(boxedMessage, nonce string, sender Identity, recipient *PrivateIdentity) (message string, ok bool) {
	defer func() {
		if !ok {
			metrics.UnboxFailures.Inc()
		}
	}()

	if recipient == nil {
		return "", false
	}

	senderKey, err := sender.PublicKey()
	if err != nil {
		return "", false
	}

	nonceBuf, err := base64.StdEncoding.DecodeString(nonce)
	if err != nil || len(nonceBuf) != NonceSize {
		return "", false
	}
	var n [NonceSize]byte
	copy(n[:], nonceBuf)

	sealed, err := base64.StdEncoding.DecodeString(boxedMessage)
	if err != nil || len(sealed) < box.Overhead {
		return "", false
	}

	opened, ok := box.OpenAfterPrecomputation(nil, sealed, &n, c.sharedKey(recipient, senderKey))
	if !ok {
		return "", false
	}
	return string(opened), true
}

// BoxMessage uses a Codec without shared key cache
func BoxMessage(plaintext string, sender *PrivateIdentity, recipient Identity) (BoxedMessage, error) {
	return defaultCodec.BoxMessage(plaintext, sender, recipient)
}

// UnboxMessage uses a Codec without shared key cache
func UnboxMessage(boxedMessage, nonce string, sender Identity, recipient *PrivateIdentity) (string, bool) {
	return defaultCodec.UnboxMessage(boxedMessage, nonce, sender, recipient)
}
