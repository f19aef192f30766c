package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/medchat/medchat/internal/models"
)

type createConversationRequest struct {
	Name  string `json:"name"`
	Model string `json:"model"`
}

type sendMessageRequest struct {
	Message string         `json:"message"`
	Media   []models.Media `json:"media,omitempty"`
}

// sendMessageResponse is the envelope around the assistant reply.
type sendMessageResponse struct {
	Message models.Message `json:"message"`
	Usage   *Usage         `json:"usage,omitempty"`
}

// Usage is token accounting attached to a send-message response.
type Usage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
}

// CreateConversation creates a conversation and returns its summary row.
func (c *Client) CreateConversation(ctx context.Context, name, model string) (*models.Summary, error) {
	var summary models.Summary
	err := c.do(ctx, http.MethodPost, "/conversations/create",
		createConversationRequest{Name: name, Model: model}, &summary)
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

// ListConversations fetches all conversation summaries.
func (c *Client) ListConversations(ctx context.Context) ([]models.Summary, error) {
	var summaries []models.Summary
	if err := c.do(ctx, http.MethodGet, "/conversations", nil, &summaries); err != nil {
		return nil, err
	}
	return summaries, nil
}

// GetConversation fetches one conversation with its full message list.
func (c *Client) GetConversation(ctx context.Context, id int64) (*models.Conversation, error) {
	var conv models.Conversation
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/conversations/%d", id), nil, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

// DeleteConversation deletes a conversation by id.
func (c *Client) DeleteConversation(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/conversations/%d", id), nil, nil)
}

// SendMessage posts a user message, optionally with inline media, and
// returns the assistant reply.
func (c *Client) SendMessage(ctx context.Context, id int64, text string, media []models.Media) (*models.Message, error) {
	var resp sendMessageResponse
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/conversations/%d/message", id),
		sendMessageRequest{Message: text, Media: media}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp.Message, nil
}
