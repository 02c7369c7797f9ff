// Package zmq subscribes to chain head notifications published by the chain process.
package zmq

import (
	"bytes"
	"context"
	"fmt"
	"git.gammaspectra.live/IronFish/network/utils"
	"github.com/go-zeromq/zmq4"
	"golang.org/x/exp/slices"
	"strings"
)

type Client struct {
	endpoint string
	topics   []Topic
	sub      zmq4.Socket
}

// NewClient instantiates a client for endpoint, including the scheme, for example tcp://127.0.0.1:9035.
// Without topics it subscribes to TopicMinimalChainHead.
func NewClient(endpoint string, topics ...Topic) *Client {
	if len(topics) == 0 {
		topics = []Topic{TopicMinimalChainHead}
	}
	return &Client{
		endpoint: endpoint,
		topics:   topics,
	}
}

// Listen subscribes and blocks delivering chain heads until ctx is done or the socket fails.
// It returns nil once ctx is done.
func (c *Client) Listen(ctx context.Context, chainHead func(head *MinimalChainHead)) error {
	if err := c.listen(ctx, c.topics...); err != nil {
		return fmt.Errorf("listen on '%s': %w", c.topicList(), err)
	}

	utils.Logf("[ChainZMQ] Subscribed to %s on %s", c.topicList(), c.endpoint)

	if err := c.loop(chainHead); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("loop: %w", err)
	}

	return nil
}

func (c *Client) Close() error {
	if c.sub == nil {
		return nil
	}

	return c.sub.Close()
}

func (c *Client) topicList() string {
	r := make([]string, 0, len(c.topics))
	for _, s := range c.topics {
		r = append(r, string(s))
	}
	return strings.Join(r, ", ")
}

func (c *Client) listen(ctx context.Context, topics ...Topic) error {
	c.sub = zmq4.NewSub(ctx)

	err := c.sub.Dial(c.endpoint)
	if err != nil {
		return fmt.Errorf("dial '%s': %w", c.endpoint, err)
	}

	for _, topic := range topics {
		err = c.sub.SetOption(zmq4.OptionSubscribe, string(topic))
		if err != nil {
			return fmt.Errorf("subscribe: %w", err)
		}
	}

	return nil
}

func (c *Client) loop(chainHead func(head *MinimalChainHead)) error {
	for {
		msg, err := c.sub.Recv()
		if err != nil {
			return fmt.Errorf("recv: %w", err)
		}

		for _, frame := range msg.Frames {
			if err := c.ingestFrame(chainHead, frame); err != nil {
				// a bad notification does not take the feed down
				utils.Errorf("[ChainZMQ] Could not consume frame: %s", err)
			}
		}
	}
}

func (c *Client) ingestFrame(chainHead func(head *MinimalChainHead), frame []byte) error {
	topic, gson, err := JSONFromFrame(frame)
	if err != nil {
		return fmt.Errorf("json from frame: %w", err)
	}

	if slices.Index(c.topics, topic) == -1 {
		return fmt.Errorf("topic '%s' doesn't match expected any of '%s'", topic, c.topicList())
	}

	switch topic {
	case TopicMinimalChainHead:
		element, err := DecodeMinimalChainHead(gson)
		if err != nil {
			return err
		}
		chainHead(element)
		return nil
	default:
		return fmt.Errorf("unhandled topic '%s'", topic)
	}
}

func DecodeMinimalChainHead(gson []byte) (*MinimalChainHead, error) {
	element := &MinimalChainHead{}
	if err := utils.UnmarshalJSON(gson, element); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	return element, nil
}

// JSONFromFrame splits a "topic:json" frame
func JSONFromFrame(frame []byte) (Topic, []byte, error) {
	parts := bytes.SplitN(frame, []byte(":"), 2)
	if len(parts) != 2 {
		return TopicUnknown, nil, fmt.Errorf("malformed: expected 2 parts, got %d", len(parts))
	}

	topic, gson := string(parts[0]), parts[1]

	switch topic {
	case string(TopicMinimalChainHead):
		return TopicMinimalChainHead, gson, nil
	}

	return TopicUnknown, nil, fmt.Errorf("unknown topic '%s'", topic)
}
