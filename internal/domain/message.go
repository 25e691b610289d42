package domain

import "context"

// Messenger is the messaging surface: it delivers a payload to a channel
type Messenger interface {
	Send(ctx context.Context, channelID string, msg Message) error
}

// Message is a structured chat message: an optional content line and embed
type Message struct {
	Content string
	Embed   *Embed
}

// Text returns a plain text message
func Text(text string) Message {
	return Message{Content: text}
}

// Embed is the rich part of a message
type Embed struct {
	Title        string
	Description  string
	URL          string
	Color        int
	ImageURL     string
	ThumbnailURL string
	Fields       []EmbedField
	Footer       string
}

// EmbedField is a name/value pair rendered inside an embed
type EmbedField struct {
	Name   string
	Value  string
	Inline bool
}

// AddField appends a field and returns the embed for chaining
func (e *Embed) AddField(name, value string, inline bool) *Embed {
	e.Fields = append(e.Fields, EmbedField{Name: name, Value: value, Inline: inline})
	return e
}
