package models

import "time"

// ChatMessage is one entry of a user's conversation history.
type ChatMessage struct {
	Role string    `json:"role"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// ChatSession is the per-user conversation kept in the session store.
type ChatSession struct {
	UserID    string        `json:"user_id"`
	History   []ChatMessage `json:"history"`
	UpdatedAt time.Time     `json:"updated_at"`
}

type ChatRequest struct {
	Message string `json:"message" validate:"required,max=4000"`
}

type ChatResponse struct {
	UserID          string `json:"user_id"`
	Response        string `json:"response"`
	SessionLen      int    `json:"session_len"`
	MessageReceived string `json:"message_received"`
}

type ChatHistoryResponse struct {
	UserID       string        `json:"user_id"`
	History      []ChatMessage `json:"history"`
	MessageCount int           `json:"message_count"`
}

type ChatClearedResponse struct {
	UserID string `json:"user_id"`
	Status string `json:"status"`
}
