package api

import (
	"context"
	"net/http"
)

// ModelInfo describes a model available on the backend's inference host.
type ModelInfo struct {
	Name       string `json:"name"`
	ModifiedAt string `json:"modified_at"`
	Size       int64  `json:"size"`
}

type listModelsResponse struct {
	Models []ModelInfo `json:"models"`
}

// ListModels fetches the models available for new conversations.
func (c *Client) ListModels(ctx context.Context) ([]ModelInfo, error) {
	var resp listModelsResponse
	if err := c.do(ctx, http.MethodGet, "/api/tags", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Models, nil
}
