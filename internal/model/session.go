package model

import "time"

// Session is a stored conversation.
type Session struct {
	ID        string    `json:"session_id" bson:"_id"`
	History   []Content `json:"history" bson:"history"`
	UpdatedAt time.Time `json:"last_updated" bson:"updated_at"`
}

// Message is a flattened view of a turn used by the conversations listing.
type Message struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// Conversation summarizes a session for listing.
type Conversation struct {
	SessionID   string    `json:"sessionId"`
	Messages    []Message `json:"messages"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// Summarize flattens a session into a Conversation.
func (s Session) Summarize() Conversation {
	messages := make([]Message, 0, len(s.History))
	for _, c := range s.History {
		messages = append(messages, Message{Role: c.Role, Text: c.FirstText()})
	}
	return Conversation{SessionID: s.ID, Messages: messages, LastUpdated: s.UpdatedAt}
}
