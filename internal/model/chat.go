package model

import "time"

type ChatRoom struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type ChatMessage struct {
	ID         int64     `json:"id"`
	ChatRoomID int64     `json:"chat_room_id"`
	SenderID   int64     `json:"sender_id"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}
