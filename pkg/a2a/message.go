package a2a

import (
	"strings"

	"github.com/cohesivestack/valgo"
	"github.com/google/uuid"
)

// Role distinguishes the two parties that may author a Message.
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

/*
Message represents all non-artifact communication between client and agent.
MessageID is required (Validate rejects a blank one; the constructors in
this package assign one); TaskID/ContextID are optional grouping identifiers.
*/
type Message struct {
	Role      Role           `json:"role"`
	Parts     []Part         `json:"parts"`
	MessageID string         `json:"messageId"`
	TaskID    string         `json:"taskId,omitempty"`
	ContextID string         `json:"contextId,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

func NewTextMessage(role Role, text string) *Message {
	return &Message{
		Role:      role,
		Parts:     []Part{NewTextPart(text)},
		MessageID: uuid.New().String(),
	}
}

func NewFileMessage(role Role, file *FilePart) *Message {
	return &Message{
		Role:      role,
		Parts:     []Part{{Type: PartTypeFile, File: file}},
		MessageID: uuid.New().String(),
	}
}

func NewDataMessage(role Role, data map[string]any) *Message {
	return &Message{
		Role:      role,
		Parts:     []Part{NewDataPart(data, "")},
		MessageID: uuid.New().String(),
	}
}

// Validate enforces the Message invariants: role present, at least one Part,
// message id present.
func (msg *Message) Validate() *valgo.Validation {
	return valgo.Is(
		valgo.String(string(msg.Role), "role").Not().Blank(),
		valgo.String(msg.MessageID, "messageId").Not().Blank(),
		valgo.Int(len(msg.Parts), "parts").GreaterThan(0),
	)
}

// String concatenates the text of all text Parts, ignoring file/data parts.
// Useful for logging and for agent callbacks that only care about text.
func (msg *Message) String() string {
	var sb strings.Builder

	for _, part := range msg.Parts {
		if part.Type == PartTypeText {
			sb.WriteString(part.Text)
		}
	}

	return sb.String()
}
