package models

import (
	"bytes"
	"html/template"
	"time"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting"
	"github.com/yuin/goldmark/extension"
)

// Message represents an individual entry in the conversation transcript. Insertion order is
// meaningful; the slice of messages held by the session is the chronological transcript.
type Message struct {
	ID        string
	Role      Role
	Content   string
	Timestamp time.Time

	// Pending marks the in-flight assistant placeholder. At most one message is pending at
	// any time, and it is always the most recently appended assistant message. The
	// placeholder is resolved in place when the backend call settles; it is never removed.
	Pending bool
}

// Role represents the role of a message participant.
type Role string

const (
	// RoleUser represents a message typed by the user.
	RoleUser Role = "user"
	// RoleAssistant represents a message produced by the answering backend, including the
	// seeded greeting and pending placeholders.
	RoleAssistant Role = "assistant"
)

var markdown = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		highlighting.NewHighlighting(
			highlighting.WithStyle("monokai"),
		),
	),
)

// RenderHTML converts a message's markdown content into HTML for the transcript view.
func RenderHTML(content string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(content), &buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}
