package amqp

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"gastos/internal/core"
)

// ItemLearnedType is the AMQP message type for catalog learning events.
const ItemLearnedType = "item.learned"

// ItemLearnedMessage announces that a user saved an expense for an item the
// catalog should remember. The worker upserts it into the user's catalog.
type ItemLearnedMessage struct {
	MessageID string           `json:"message_id"`
	UserID    string           `json:"user_id"`
	Item      core.CatalogItem `json:"item"`
	Timestamp time.Time        `json:"timestamp"`
}

func NewItemLearnedMessage(userID string, item core.CatalogItem) *ItemLearnedMessage {
	return &ItemLearnedMessage{
		MessageID: uuid.NewString(),
		UserID:    userID,
		Item:      item,
		Timestamp: time.Now(),
	}
}

func (m *ItemLearnedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ItemLearnedMessageFromJSON decodes and validates a message body.
func ItemLearnedMessageFromJSON(data []byte) (*ItemLearnedMessage, error) {
	var msg ItemLearnedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if strings.TrimSpace(msg.UserID) == "" {
		return nil, errors.New("item.learned: missing user_id")
	}
	if strings.TrimSpace(msg.Item.Name) == "" {
		return nil, errors.New("item.learned: missing item name")
	}
	return &msg, nil
}
