package civic

import (
	"context"
	"net/url"
	"strings"

	"whorep/internal/provider"
)

// Client queries the civic-information provider.
type Client struct {
	base   *provider.Client
	url    string
	apiKey string
}

func NewClient(baseURL, apiKey string, opts ...provider.Option) *Client {
	return &Client{
		base:   provider.NewClient("civic", opts...),
		url:    strings.TrimRight(baseURL, "/"),
		apiKey: apiKey,
	}
}

// Representatives fetches every office and official for address.
func (c *Client) Representatives(ctx context.Context, address string) (*Payload, error) {
	if strings.TrimSpace(c.apiKey) == "" {
		return nil, provider.NewError(provider.CategoryAuth, c.base.Name(), "no API key configured", nil)
	}
	query := url.Values{}
	query.Set("address", address)
	query.Set("key", c.apiKey)

	var payload Payload
	if err := c.base.GetJSON(ctx, c.url+"/representatives", query, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}
