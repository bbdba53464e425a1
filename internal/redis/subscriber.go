package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
)

type Subscriber struct {
	client *redis.Client
}

func NewSubscriber(client *redis.Client) *Subscriber {
	return &Subscriber{client: client}
}

// Subscribe blocks on the given channel patterns until ctx is cancelled,
// invoking handler for every message received.
func (s *Subscriber) Subscribe(ctx context.Context, patterns []string, handler func(channel string, payload []byte)) error {
	sub := s.client.PSubscribe(ctx, patterns...)
	defer sub.Close()

	for {
		msg, err := sub.ReceiveMessage(ctx)
		if err != nil {
			return err
		}
		handler(msg.Channel, []byte(msg.Payload))
	}
}
