package api

import (
	"context"
	"net/http"

	"github.com/medchat/medchat/internal/models"
)

type uploadMediaResponse struct {
	URL string `json:"url"`
}

// UploadMedia uploads a base64-encoded media payload and returns the
// hosted URL.
func (c *Client) UploadMedia(ctx context.Context, m models.Media) (string, error) {
	var resp uploadMediaResponse
	if err := c.do(ctx, http.MethodPost, "/media/upload", m, &resp); err != nil {
		return "", err
	}
	return resp.URL, nil
}
