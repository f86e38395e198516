package realtime

import (
	"encoding/json"

	"github.com/obotesoftech/prisonreturns/internal/mq"
	"github.com/obotesoftech/prisonreturns/types"
)

// ReturnVisibility limits a return event to sessions that may list the return.
func ReturnVisibility(msg mq.Message) Filter {
	var record types.ReturnRecord
	if err := json.Unmarshal(msg.Data, &record); err != nil {
		return func(types.Session) bool { return false }
	}
	return func(s types.Session) bool {
		switch {
		case s.Role.Unrestricted():
			return true
		case s.Role.Restricted():
			return s.Identifier == record.SubmittedBy
		default:
			return false
		}
	}
}

// ChatAudience sends a chat event to chat-signed-in sessions other than
// the sender.
func ChatAudience(msg mq.Message) Filter {
	var chat types.ChatMessage
	if err := json.Unmarshal(msg.Data, &chat); err != nil {
		return func(types.Session) bool { return false }
	}
	return func(s types.Session) bool {
		return s.Chat != nil && s.Chat.DisplayName != chat.Sender
	}
}
