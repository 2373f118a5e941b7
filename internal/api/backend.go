package api

import (
	"context"
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"github.com/vbonduro/ecoleta/internal/domain"
)

// DefaultBackendURL is where the collection points API listens in development.
const DefaultBackendURL = "http://localhost:3333"

var (
	titlePolicyOnce sync.Once
	titlePolicy     *bluemonday.Policy
)

// Backend talks to the collection points API.
type Backend struct {
	*Client
}

func NewBackend(baseURL string) *Backend {
	return &Backend{Client: NewClient(baseURL)}
}

// ListItems fetches the item categories a point can collect.
func (b *Backend) ListItems(ctx context.Context) ([]domain.Item, error) {
	var body struct {
		SerializeItem []domain.Item `json:"serializeItem"`
	}
	if err := b.getJSON(ctx, "/items", &body); err != nil {
		return nil, err
	}

	items := make([]domain.Item, 0, len(body.SerializeItem))
	for _, item := range body.SerializeItem {
		item.Title = plainText(item.Title)
		items = append(items, item)
	}
	return items, nil
}

// CreatePoint registers a collection point. The response body is ignored.
func (b *Backend) CreatePoint(ctx context.Context, p domain.Point) error {
	if p.Items == nil {
		p.Items = []int64{}
	}
	return b.postJSON(ctx, "/points", p)
}

// plainText strips any markup from s and returns the bare text.
func plainText(s string) string {
	titlePolicyOnce.Do(func() {
		titlePolicy = bluemonday.StrictPolicy()
	})
	// The policy escapes entities; templates escape again on output.
	return strings.TrimSpace(html.UnescapeString(titlePolicy.Sanitize(s)))
}
