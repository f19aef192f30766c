package models

import (
	"encoding/base64"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Role represents the sender of a message.
type Role string

// Role constants.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a single conversation message. Messages are
// append-only; insertion order is chronological order.
type Message struct {
	// ID is the server-assigned id, or a client-generated UUID for
	// locally appended messages.
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	MediaURLs []string  `json:"mediaUrls,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Summary is a conversation as it appears in list views. It never
// carries messages.
type Summary struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Model        string    `json:"model"`
	MessageCount int       `json:"messageCount"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Conversation is a fully loaded conversation, including its complete
// message list.
type Conversation struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Model     string    `json:"model"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Messages  []Message `json:"messages"`
}

// Media is an attachment payload as the backend consumes it: a base64
// data URI plus file metadata.
type Media struct {
	Base64   string `json:"base64"`
	FileName string `json:"fileName"`
	MimeType string `json:"mimeType"`
}

// Attachment is a media file staged for sending.
type Attachment struct {
	FileName string
	MimeType string
	Data     []byte
}

// LoadAttachment reads a file from disk and stages it as an attachment.
// The MIME type is taken from the extension, falling back to content
// sniffing.
func LoadAttachment(path string) (Attachment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Attachment{}, fmt.Errorf("reading attachment: %w", err)
	}

	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}

	return Attachment{
		FileName: filepath.Base(path),
		MimeType: mimeType,
		Data:     data,
	}, nil
}

// DataURI encodes the attachment as a base64 data URI.
func (a Attachment) DataURI() string {
	return "data:" + a.MimeType + ";base64," + base64.StdEncoding.EncodeToString(a.Data)
}

// Media converts the attachment to its wire form.
func (a Attachment) Media() Media {
	return Media{
		Base64:   a.DataURI(),
		FileName: a.FileName,
		MimeType: a.MimeType,
	}
}
