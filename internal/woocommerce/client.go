// Package woocommerce is a read-only client for the legacy WooCommerce
// store that used to back the public catalog.
package woocommerce

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"alugserv/internal/config"
)

// APIError is returned for transport failures and non-200 responses.
type APIError struct {
	Message string `json:"message"`
	Code    int    `json:"code,omitempty"`
}

func (e *APIError) Error() string { return "woocommerce: " + e.Message }

type Client struct {
	http *resty.Client
}

func New(cfg config.WooCommerce) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	version := cfg.APIVersion
	if version == "" {
		version = "wc/v3"
	}
	hc := resty.New().
		SetBaseURL(cfg.StoreURL+"/wp-json/"+version).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetQueryParams(map[string]string{
			"consumer_key":    cfg.ConsumerKey,
			"consumer_secret": cfg.ConsumerSecret,
		})
	return &Client{http: hc}
}

func (c *Client) get(ctx context.Context, endpoint string, params map[string]string, out any) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(endpoint)
	if err != nil {
		return &APIError{Message: err.Error()}
	}
	if resp.StatusCode() != http.StatusOK {
		return &APIError{Message: fmt.Sprintf("HTTP Error: %d", resp.StatusCode()), Code: resp.StatusCode()}
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return &APIError{Message: "invalid response: " + err.Error()}
	}
	return nil
}

type ProductQuery struct {
	Page     int
	PerPage  int
	Search   string
	Category int64
}

// Products lists published products ordered by title (search results keep
// the store's relevance order).
func (c *Client) Products(ctx context.Context, q ProductQuery) ([]Product, error) {
	params := map[string]string{
		"page":     strconv.Itoa(q.Page),
		"per_page": strconv.Itoa(q.PerPage),
		"status":   "publish",
	}
	if q.Search != "" {
		params["search"] = q.Search
	} else {
		params["orderby"] = "title"
		params["order"] = "asc"
	}
	if q.Category > 0 {
		params["category"] = strconv.FormatInt(q.Category, 10)
	}
	var raw []wcProduct
	if err := c.get(ctx, "products", params, &raw); err != nil {
		return nil, err
	}
	out := make([]Product, 0, len(raw))
	for _, p := range raw {
		out = append(out, formatProduct(p))
	}
	return out, nil
}

func (c *Client) Product(ctx context.Context, id int64) (Product, error) {
	var raw wcProduct
	if err := c.get(ctx, "products/"+strconv.FormatInt(id, 10), nil, &raw); err != nil {
		return Product{}, err
	}
	return formatProduct(raw), nil
}

type CategoryQuery struct {
	Slug   string
	Parent *int64
}

// Categories lists up to 100 categories by name, empty ones included.
func (c *Client) Categories(ctx context.Context, q CategoryQuery) ([]Category, error) {
	params := map[string]string{
		"per_page":   "100",
		"orderby":    "name",
		"order":      "asc",
		"hide_empty": "false",
	}
	if q.Slug != "" {
		params = map[string]string{"slug": q.Slug}
	}
	if q.Parent != nil {
		params["parent"] = strconv.FormatInt(*q.Parent, 10)
	}
	var raw []wcCategory
	if err := c.get(ctx, "products/categories", params, &raw); err != nil {
		return nil, err
	}
	out := make([]Category, 0, len(raw))
	for _, rc := range raw {
		out = append(out, formatCategory(rc))
	}
	return out, nil
}

func (c *Client) Category(ctx context.Context, id int64) (Category, error) {
	var raw wcCategory
	if err := c.get(ctx, "products/categories/"+strconv.FormatInt(id, 10), nil, &raw); err != nil {
		return Category{}, err
	}
	return formatCategory(raw), nil
}

// CategoryBySlug returns nil when no category has the slug.
func (c *Client) CategoryBySlug(ctx context.Context, slug string) (*Category, error) {
	cats, err := c.Categories(ctx, CategoryQuery{Slug: slug})
	if err != nil || len(cats) == 0 {
		return nil, err
	}
	return &cats[0], nil
}
