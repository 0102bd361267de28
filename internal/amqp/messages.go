package amqp

import (
	"encoding/json"
	"time"
)

const (
	ActionScheduled = "scheduled"
	ActionCancelled = "cancelled"
)

// MealEventMessage is the lightweight notification published whenever a meal
// record changes. It carries only identifiers; the ledger worker fetches the
// full record from the database so it always exports the current state.
type MealEventMessage struct {
	MealID    int64     `json:"mealId"`
	UserID    int64     `json:"userId"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

func NewMealEventMessage(mealID, userID int64, action string) *MealEventMessage {
	return &MealEventMessage{
		MealID:    mealID,
		UserID:    userID,
		Action:    action,
		Timestamp: time.Now(),
	}
}

func (m *MealEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func MealEventMessageFromJSON(data []byte) (*MealEventMessage, error) {
	var msg MealEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
