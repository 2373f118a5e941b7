package api

import (
	"context"
	"net/url"
	"slices"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultGeographyURL is the IBGE localities API.
const DefaultGeographyURL = "https://servicodados.ibge.gov.br/api/v1/localidades"

// sharedLookupTimeout bounds a shared upstream request, which no single
// caller can cancel.
const sharedLookupTimeout = 30 * time.Second

// Geography looks up Brazilian states and their municipalities. Identical
// lookups running at the same time share one upstream request. The request
// outlives the cancellation of any one caller; each caller stops waiting
// when its own context is done.
type Geography struct {
	*Client
	group singleflight.Group
}

func NewGeography(baseURL string) *Geography {
	return &Geography{Client: NewClient(baseURL)}
}

type ufResponse struct {
	Sigla string `json:"sigla"`
}

type cityResponse struct {
	Nome string `json:"nome"`
}

// ListUFs returns the state abbreviations in the order the service lists them.
func (g *Geography) ListUFs(ctx context.Context) ([]string, error) {
	return g.names(ctx, "/estados", func(ctx context.Context) ([]string, error) {
		var body []ufResponse
		if err := g.getJSON(ctx, "/estados", &body); err != nil {
			return nil, err
		}
		ufs := make([]string, 0, len(body))
		for _, uf := range body {
			ufs = append(ufs, uf.Sigla)
		}
		return ufs, nil
	})
}

// ListCities returns the municipality names of the given state.
func (g *Geography) ListCities(ctx context.Context, uf string) ([]string, error) {
	path := "/estados/" + url.PathEscape(uf) + "/municipios"
	return g.names(ctx, path, func(ctx context.Context) ([]string, error) {
		var body []cityResponse
		if err := g.getJSON(ctx, path, &body); err != nil {
			return nil, err
		}
		cities := make([]string, 0, len(body))
		for _, city := range body {
			cities = append(cities, city.Nome)
		}
		return cities, nil
	})
}

// names runs fetch through the singleflight group keyed by path. The fetch
// gets a context carrying the starting caller's values but not its
// cancellation. Each caller gets its own copy of the result.
func (g *Geography) names(ctx context.Context, path string, fetch func(context.Context) ([]string, error)) ([]string, error) {
	ch := g.group.DoChan(path, func() (any, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedLookupTimeout)
		defer cancel()
		return fetch(shared)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return slices.Clone(res.Val.([]string)), nil
	}
}
