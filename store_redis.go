package socketio

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	redis "github.com/redis/go-redis/v9"
)

// redisStore carries dispatch messages between nodes over redis pub/sub.
// Channel names are namespaced with the configured prefix so several
// clusters can share one redis.
type redisStore struct {
	pub    *redis.Client
	sub    *redis.PubSub
	prefix string

	mutex    sync.RWMutex
	handlers map[string]func(DispatchMessage)
	closed   bool
}

// NewRedisStore connects to redis and returns a cluster-wide Store.
func NewRedisStore(opts *RedisStoreConfig) (Store, error) {
	cfg := getRedisConfig(opts)

	redisCli := redis.NewClient(&redis.Options{
		Addr:     cfg.getAddr(),
		Network:  cfg.Network,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx := context.TODO()
	if err := redisCli.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis store: %w", err)
	}

	rs := &redisStore{
		pub:      redisCli,
		sub:      redisCli.Subscribe(ctx),
		prefix:   cfg.Prefix,
		handlers: make(map[string]func(DispatchMessage)),
	}

	go rs.dispatch()

	return rs, nil
}

func (s *redisStore) channelName(channel string) string {
	return s.prefix + "#" + channel
}

func (s *redisStore) Publish(channel string, msg DispatchMessage) error {
	s.mutex.RLock()
	closed := s.closed
	s.mutex.RUnlock()
	if closed {
		return ErrStoreClosed
	}

	payload, err := json.Marshal(&msg)
	if err != nil {
		return fmt.Errorf("redis store publish: %w", err)
	}

	return s.pub.Publish(context.TODO(), s.channelName(channel), payload).Err()
}

func (s *redisStore) Subscribe(channel string, h func(DispatchMessage)) error {
	s.mutex.Lock()
	if s.closed {
		s.mutex.Unlock()
		return ErrStoreClosed
	}
	s.handlers[channel] = h
	s.mutex.Unlock()

	return s.sub.Subscribe(context.TODO(), s.channelName(channel))
}

func (s *redisStore) Unsubscribe(channel string) error {
	s.mutex.Lock()
	delete(s.handlers, channel)
	s.mutex.Unlock()

	return s.sub.Unsubscribe(context.TODO(), s.channelName(channel))
}

func (s *redisStore) Close() error {
	s.mutex.Lock()
	s.closed = true
	s.handlers = make(map[string]func(DispatchMessage))
	s.mutex.Unlock()

	if err := s.sub.Close(); err != nil {
		return err
	}
	return s.pub.Close()
}

func (s *redisStore) dispatch() {
	ch := s.sub.ChannelWithSubscriptions()
	for rec := range ch {
		switch m := rec.(type) {
		case *redis.Message:
			s.onMessage(m.Channel, []byte(m.Payload))
		case *redis.Subscription:
			// subscription confirmations are not interesting
		case error:
			return
		}
	}
}

func (s *redisStore) onMessage(channel string, payload []byte) {
	name, ok := strings.CutPrefix(channel, s.prefix+"#")
	if !ok {
		return
	}

	var msg DispatchMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		logger().V(1).Info("redis store: dropping malformed message", "channel", name, "err", err)
		return
	}

	s.mutex.RLock()
	h := s.handlers[name]
	s.mutex.RUnlock()

	if h != nil {
		h(msg)
	}
}
