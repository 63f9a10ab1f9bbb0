package domain

import "time"

// BroadcastUserID — адресат широковещательного сообщения.
const BroadcastUserID = "ALL"

// Message — запись в ленте сообщений пользователя.
type Message struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	IsRead    bool      `json:"isRead"`
	FromAdmin bool      `json:"fromAdmin"`
}

func NewMessage(id, userID, title, content string, fromAdmin bool, now time.Time) *Message {
	return &Message{
		ID:        id,
		UserID:    userID,
		Title:     title,
		Content:   content,
		Timestamp: now,
		FromAdmin: fromAdmin,
	}
}

// IsBroadcast сообщает, что сообщение адресовано всем.
func (m *Message) IsBroadcast() bool {
	return m.UserID == BroadcastUserID
}

// VisibleTo сообщает, видит ли пользователь сообщение.
func (m *Message) VisibleTo(userID string) bool {
	return m.IsBroadcast() || m.UserID == userID
}

// CountsAsUnread — флаг прочтения учитывается только для личных сообщений.
func (m *Message) CountsAsUnread() bool {
	return !m.IsBroadcast() && !m.IsRead
}
