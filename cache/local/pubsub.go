package local

import (
	"context"
	"sync"
)

// LocalMessage is an in-process pub/sub message.
type LocalMessage struct {
	Channel string
	Payload string
}

// LocalPubSub fans published messages out to in-process subscribers.
// It carries the chat channel when the server runs without Redis.
type LocalPubSub struct {
	mu      sync.RWMutex
	nextID  int64
	subs    map[string]map[int64]chan *LocalMessage
	bufSize int
}

// NewPubSub creates a LocalPubSub with the given per-subscriber buffer
// size.
func NewPubSub(bufSize int) *LocalPubSub {
	if bufSize <= 0 {
		bufSize = 256
	}
	return &LocalPubSub{
		subs:    make(map[string]map[int64]chan *LocalMessage),
		bufSize: bufSize,
	}
}

// Publish delivers the message to every current subscriber of the
// channel. A subscriber whose buffer is full misses the message rather
// than blocking the publisher.
func (ps *LocalPubSub) Publish(_ context.Context, channel, message string) error {
	msg := &LocalMessage{Channel: channel, Payload: message}
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	for _, ch := range ps.subs[channel] {
		select {
		case ch <- msg:
		default:
		}
	}
	return nil
}

// Subscribe registers one receiving channel across all the given
// channels. The cancel function unsubscribes and closes the channel;
// calling it more than once is not supported.
func (ps *LocalPubSub) Subscribe(_ context.Context, channels ...string) (<-chan *LocalMessage, func(), error) {
	ch := make(chan *LocalMessage, ps.bufSize)

	ps.mu.Lock()
	ps.nextID++
	id := ps.nextID
	for _, name := range channels {
		if ps.subs[name] == nil {
			ps.subs[name] = make(map[int64]chan *LocalMessage)
		}
		ps.subs[name][id] = ch
	}
	ps.mu.Unlock()

	cancel := func() {
		ps.mu.Lock()
		defer ps.mu.Unlock()
		for _, name := range channels {
			delete(ps.subs[name], id)
			if len(ps.subs[name]) == 0 {
				delete(ps.subs, name)
			}
		}
		close(ch)
	}
	return ch, cancel, nil
}
