package mq

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

const memoryBuffer = 64

// Memory is an in-process broadcast bus. Each subscriber gets its own
// buffered queue; a full queue drops the message for that subscriber.
type Memory struct {
	mu     sync.RWMutex
	subs   map[string]map[int]chan Message
	nextID int
	closed bool
}

func NewMemory() *Memory {
	return &Memory{subs: make(map[string]map[int]chan Message)}
}

func (m *Memory) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	if channel == "" {
		return "", errors.New("memory channel is required")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return "", errors.New("memory bus closed")
	}

	msg := Message{ID: uuid.NewString(), Data: data, Attributes: attrs}
	for _, ch := range m.subs[channel] {
		select {
		case ch <- msg:
		default:
		}
	}
	return msg.ID, nil
}

func (m *Memory) Subscribe(ctx context.Context, channel string, handler Handler) error {
	if channel == "" {
		return errors.New("memory channel is required")
	}

	ch := make(chan Message, memoryBuffer)
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return errors.New("memory bus closed")
	}
	if m.subs[channel] == nil {
		m.subs[channel] = make(map[int]chan Message)
	}
	id := m.nextID
	m.nextID++
	m.subs[channel][id] = ch
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		delete(m.subs[channel], id)
		m.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-ch:
			// No redelivery in memory; a failed handler loses the message.
			_ = handler(ctx, msg)
		}
	}
}

// Subscribers returns the number of active subscriptions on channel.
func (m *Memory) Subscribers(channel string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subs[channel])
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
