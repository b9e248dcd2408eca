package finance

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"strconv"
	"strings"

	"whorep/internal/provider"
)

const (
	methodContributors = "candContrib"
	methodIndustries   = "candIndustry"
)

// Client queries the campaign-finance provider.
type Client struct {
	base           *provider.Client
	url            string
	apiKey         string
	quota          *provider.Quota
	fallbackCycles []string
	logger         *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithQuota caps the number of provider calls; nil means unlimited.
func WithQuota(q *provider.Quota) ClientOption {
	return func(c *Client) {
		c.quota = q
	}
}

// WithFallbackCycles sets the election cycles retried, in order, when the
// current-cycle request fails.
func WithFallbackCycles(cycles ...string) ClientOption {
	return func(c *Client) {
		c.fallbackCycles = cycles
	}
}

func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithProviderOptions(opts ...provider.Option) ClientOption {
	return func(c *Client) {
		c.base = provider.NewClient("finance", opts...)
	}
}

func NewClient(baseURL, apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		base:   provider.NewClient("finance"),
		url:    baseURL,
		apiKey: apiKey,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "finance")
	return c
}

// Contributors returns the candidate's top contributing organizations.
func (c *Client) Contributors(ctx context.Context, id string) ([]Contribution, error) {
	resp, err := fetch[contributorsResponse](ctx, c, methodContributors, id)
	if err != nil {
		return nil, err
	}
	out := make([]Contribution, 0, len(resp.Response.Contributors.Contributor))
	for _, row := range resp.Response.Contributors.Contributor {
		out = append(out, Contribution{
			Name:       row.text("org_name"),
			Total:      row.amount("total"),
			Committee:  row.amount("pacs"),
			Individual: row.amount("indivs"),
		})
	}
	return out, nil
}

// Industries returns the candidate's top contributing industries.
func (c *Client) Industries(ctx context.Context, id string) ([]Contribution, error) {
	resp, err := fetch[industriesResponse](ctx, c, methodIndustries, id)
	if err != nil {
		return nil, err
	}
	out := make([]Contribution, 0, len(resp.Response.Industries.Industry))
	for _, row := range resp.Response.Industries.Industry {
		out = append(out, Contribution{
			Name:       row.text("industry_name"),
			Individual: row.amount("indivs"),
			Committee:  row.amount("pacs"),
			Total:      row.amount("total"),
		})
	}
	return out, nil
}

type contributorsResponse struct {
	Response struct {
		Contributors struct {
			Contributor attributeList `json:"contributor"`
		} `json:"contributors"`
	} `json:"response"`
}

type industriesResponse struct {
	Response struct {
		Industries struct {
			Industry attributeList `json:"industry"`
		} `json:"industries"`
	} `json:"response"`
}

// fetch tries the current cycle, then each fallback cycle.
func fetch[T any](ctx context.Context, c *Client, method, id string) (*T, error) {
	if strings.TrimSpace(c.apiKey) == "" {
		return nil, provider.NewError(provider.CategoryAuth, c.base.Name(), "no API key configured", nil)
	}
	if strings.TrimSpace(id) == "" {
		return nil, provider.NewError(provider.CategoryNotFound, c.base.Name(), "empty candidate id", nil)
	}

	cycles := append([]string{""}, c.fallbackCycles...)
	var lastErr error
	for _, cycle := range cycles {
		if !c.quota.Take() {
			return nil, provider.NewError(provider.CategoryQuotaExhausted, c.base.Name(), "daily request quota exhausted", nil)
		}
		query := url.Values{}
		query.Set("method", method)
		query.Set("output", "json")
		query.Set("cid", id)
		query.Set("apikey", c.apiKey)
		if cycle != "" {
			query.Set("cycle", cycle)
		}

		var out T
		err := c.base.GetJSON(ctx, c.url, query, &out)
		if err == nil {
			return &out, nil
		}
		lastErr = err
		if provider.CategoryOf(err) == provider.CategoryAuth || ctx.Err() != nil {
			break
		}
		c.logger.Debug("finance lookup failed, trying older cycle", "method", method, "cid", id, "cycle", cycle, "error", err)
	}
	return nil, lastErr
}

// attributeList decodes the provider's list encoding, which collapses a
// single-element list to a bare object.
type attributeList []attributes

type attributes struct {
	Attributes map[string]any `json:"@attributes"`
}

func (l *attributeList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}
	if data[0] == '{' {
		var one attributes
		if err := json.Unmarshal(data, &one); err != nil {
			return err
		}
		*l = attributeList{one}
		return nil
	}
	var many []attributes
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*l = many
	return nil
}

func (a attributes) text(key string) string {
	value, ok := a.Attributes[key]
	if !ok || value == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(value))
}

func (a attributes) amount(key string) int64 {
	switch v := a.Attributes[key].(type) {
	case float64:
		return int64(math.Round(v))
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		return int64(math.Round(parsed))
	default:
		return 0
	}
}
