package models

import (
	"bytes"
	"encoding/json"

	"github.com/WoushouW/woushBOT/internal/snowflake"
)

// MessageAuthor decodes either a plain username string or an author object.
type MessageAuthor struct {
	ID       snowflake.ID `json:"id"`
	Username string       `json:"username"`
	Avatar   *string      `json:"avatar"`
	Bot      bool         `json:"bot"`
}

func (a *MessageAuthor) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if string(data) == "null" {
		*a = MessageAuthor{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		*a = MessageAuthor{Username: name}
		return nil
	}
	type plain MessageAuthor
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*a = MessageAuthor(p)
	return nil
}

type Message struct {
	ID          snowflake.ID    `json:"id"`
	ChannelID   snowflake.ID    `json:"channel_id"`
	Content     string          `json:"content"`
	Author      MessageAuthor   `json:"author"`
	AuthorID    snowflake.ID    `json:"author_id"`
	Timestamp   Timestamp       `json:"timestamp"`
	Attachments json.RawMessage `json:"attachments,omitempty"`
	Embeds      json.RawMessage `json:"embeds,omitempty"`
}

// AuthorName returns the best available author label.
func (m Message) AuthorName() string {
	if m.Author.Username != "" {
		return m.Author.Username
	}
	if !m.AuthorID.IsZero() {
		return m.AuthorID.String()
	}
	return "unknown"
}

// HasEmbeds reports whether the message carries at least one embed.
func (m Message) HasEmbeds() bool {
	e := bytes.TrimSpace(m.Embeds)
	return len(e) > 2 && string(e) != "null"
}

// AuthorUserID returns the author's id from either payload shape.
func (m Message) AuthorUserID() snowflake.ID {
	if !m.Author.ID.IsZero() {
		return m.Author.ID
	}
	return m.AuthorID
}
