package services

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/obotesoftech/prisonreturns/internal/logging"
	"github.com/obotesoftech/prisonreturns/internal/mq"
	"github.com/obotesoftech/prisonreturns/types"
)

// EventChatMessage is published on mq.ChannelChat for every posted message.
const EventChatMessage = "chat.message"

const chatPageSize = 200

var phonePattern = regexp.MustCompile(`^\d{10}$`)

// ChatRepository defines persistence operations for the chat log.
type ChatRepository interface {
	Append(ctx context.Context, msg types.ChatMessage) (types.ChatMessage, error)
	ListAfter(ctx context.Context, afterID int64, limit int) ([]types.ChatMessage, error)
}

// ChatIdentityStore keeps the chat identity on a session.
type ChatIdentityStore interface {
	SetChatIdentity(ctx context.Context, sessionID string, identity types.ChatIdentity) error
}

// ChatService relays messages in the single shared room.
type ChatService struct {
	repo     ChatRepository
	sessions ChatIdentityStore
	bus      Publisher
	log      logging.Logger
	now      func() time.Time
}

func NewChatService(repo ChatRepository, sessions ChatIdentityStore, bus Publisher, log logging.Logger) *ChatService {
	return &ChatService{
		repo:     repo,
		sessions: sessions,
		bus:      bus,
		log:      log.With("component", "chat"),
		now:      time.Now,
	}
}

// ChatIdentityFor validates a 10-digit phone number or email address and
// derives its display name: ddd-ddd-dddd for phones, the local part for
// email addresses.
func ChatIdentityFor(identifier string) (types.ChatIdentity, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return types.ChatIdentity{}, invalid("identifier", "please enter your phone number or email address")
	}

	switch {
	case phonePattern.MatchString(identifier):
		return types.ChatIdentity{
			Identifier:  identifier,
			DisplayName: identifier[0:3] + "-" + identifier[3:6] + "-" + identifier[6:],
		}, nil
	case emailPattern.MatchString(identifier):
		return types.ChatIdentity{
			Identifier:  identifier,
			DisplayName: identifier[:strings.Index(identifier, "@")],
		}, nil
	default:
		return types.ChatIdentity{}, invalid("identifier", "please enter a valid 10-digit phone number or email address")
	}
}

// SignIn sets the chat identity of the caller's session.
func (s *ChatService) SignIn(ctx context.Context, caller types.Session, identifier string) (types.ChatIdentity, error) {
	identity, err := ChatIdentityFor(identifier)
	if err != nil {
		return types.ChatIdentity{}, err
	}
	if err := s.sessions.SetChatIdentity(ctx, caller.ID, identity); err != nil {
		return types.ChatIdentity{}, err
	}
	return identity, nil
}

// Post appends a message to the room and broadcasts it.
func (s *ChatService) Post(ctx context.Context, caller types.Session, text string) (types.ChatMessage, error) {
	if caller.Chat == nil {
		return types.ChatMessage{}, ErrChatSignInRequired
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return types.ChatMessage{}, invalid("message", "message is empty")
	}

	msg, err := s.repo.Append(ctx, types.ChatMessage{
		Sender:     caller.Chat.DisplayName,
		Identifier: caller.Chat.Identifier,
		Message:    text,
		Timestamp:  s.now().UTC(),
		Kind:       types.MessageKindMessage,
	})
	if err != nil {
		return types.ChatMessage{}, err
	}

	if s.bus != nil {
		payload, err := json.Marshal(msg)
		if err == nil {
			_, err = s.bus.Publish(ctx, mq.ChannelChat, payload, map[string]string{mq.AttrEvent: EventChatMessage})
		}
		if err != nil {
			s.log.Warn(ctx, "broadcast chat message", "id", msg.ID, "error", err)
		}
	}
	return msg, nil
}

// Poll returns messages after afterID in id order, without the caller's
// own messages. Callers pass the highest id they have seen.
func (s *ChatService) Poll(ctx context.Context, caller types.Session, afterID int64) ([]types.ChatMessage, int64, error) {
	if caller.Chat == nil {
		return nil, afterID, ErrChatSignInRequired
	}

	msgs, err := s.repo.ListAfter(ctx, afterID, chatPageSize)
	if err != nil {
		return nil, afterID, err
	}

	cursor := afterID
	out := make([]types.ChatMessage, 0, len(msgs))
	for _, m := range msgs {
		if m.ID > cursor {
			cursor = m.ID
		}
		if m.Sender == caller.Chat.DisplayName {
			continue
		}
		out = append(out, m)
	}
	return out, cursor, nil
}
