package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MessageStatus string

const (
	MessageUnread    MessageStatus = "unread"
	MessageRead      MessageStatus = "read"
	MessageResponded MessageStatus = "responded"
)

// SystemSenderName marks inbox rows generated by the storefront itself.
const SystemSenderName = "SYSTEM"

// Message is a row in the admin inbox: either a customer contact form
// submission or a system notice addressed to one admin.
type Message struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CustomerName   string             `bson:"customerName" json:"customerName"`
	CustomerEmail  string             `bson:"customerEmail" json:"customerEmail"`
	CustomerPhone  string             `bson:"customerPhone,omitempty" json:"customerPhone,omitempty"`
	RecipientEmail string             `bson:"recipientEmail,omitempty" json:"recipientEmail,omitempty"`
	Subject        string             `bson:"subject" json:"subject"`
	Body           string             `bson:"message" json:"message"`
	Status         MessageStatus      `bson:"status" json:"status"`
	AdminResponse  string             `bson:"adminResponse,omitempty" json:"adminResponse,omitempty"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (m Message) IsSystem() bool {
	return m.CustomerName == SystemSenderName
}

func ParseMessageStatus(raw string) (MessageStatus, bool) {
	switch s := MessageStatus(raw); s {
	case MessageUnread, MessageRead, MessageResponded:
		return s, true
	default:
		return "", false
	}
}

var messageStatusOrder = map[MessageStatus]int{
	MessageUnread:    0,
	MessageRead:      1,
	MessageResponded: 2,
}

// CanMoveTo reports whether a message may go from s to next. Messages only
// move forward through unread, read and responded. Staying put is allowed so
// a response can be edited.
func (s MessageStatus) CanMoveTo(next MessageStatus) bool {
	from, ok := messageStatusOrder[s]
	if !ok {
		return false
	}
	to, ok := messageStatusOrder[next]
	if !ok {
		return false
	}
	return to >= from
}

type MessageTransitionError struct {
	From MessageStatus
	To   MessageStatus
}

func (e MessageTransitionError) Error() string {
	return fmt.Sprintf("message cannot move from %s to %s", e.From, e.To)
}
