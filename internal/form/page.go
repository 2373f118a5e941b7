// Package form holds the state of the collection point registration page
// and the operations the page's events drive.
package form

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/vbonduro/ecoleta/internal/domain"
)

// HomeRoute is where the user is sent after a successful registration.
const HomeRoute = "/"

var (
	ErrClosed       = errors.New("form: page is closed")
	ErrUnknownUF    = errors.New("form: unknown uf")
	ErrUnknownField = errors.New("form: unknown field")
	ErrSubmitting   = errors.New("form: submission already in progress")
)

// Backend is the subset of api.Backend the page requires.
type Backend interface {
	ListItems(ctx context.Context) ([]domain.Item, error)
	CreatePoint(ctx context.Context, p domain.Point) error
}

// Geography is the subset of api.Geography the page requires.
type Geography interface {
	ListUFs(ctx context.Context) ([]string, error)
	ListCities(ctx context.Context, uf string) ([]string, error)
}

// Page is the state of one visitor's registration form. Events may arrive
// concurrently; state changes are serialized by mu and no network call is
// made while holding it.
type Page struct {
	backend   Backend
	geography Geography
	logger    *slog.Logger

	mu         sync.Mutex
	mounted    bool
	closed     bool
	submitting bool
	// cityToken identifies the latest UF change. A city response is applied
	// only if it carries the current token.
	cityToken uint64

	items            []domain.Item
	ufs              []string
	cities           []string
	initialPosition  domain.GeoPosition
	positionResolved bool
	formData         domain.FormData
	selectedItems    []int64
	selectedUF       string
	selectedCity     string
	selectedPosition domain.GeoPosition
	alerts           []Alert
}

// NewPage returns an unmounted page with no UF or city selected.
func NewPage(backend Backend, geography Geography, logger *slog.Logger) *Page {
	if logger == nil {
		logger = slog.Default()
	}
	return &Page{
		backend:      backend,
		geography:    geography,
		logger:       logger,
		selectedUF:   domain.None,
		selectedCity: domain.None,
	}
}

// Mount loads the item categories and the UF list. The two fetches run
// concurrently and independently; Mount returns once both have finished.
// A failed fetch leaves its list empty and queues an alert.
func (p *Page) Mount(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	if p.mounted {
		p.mu.Unlock()
		return nil
	}
	p.mounted = true
	p.mu.Unlock()

	var wg sync.WaitGroup
	wg.Go(func() { p.loadItems(ctx) })
	wg.Go(func() { p.loadUFs(ctx) })
	wg.Wait()
	return nil
}

func (p *Page) loadItems(ctx context.Context) {
	items, err := p.backend.ListItems(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	if err != nil {
		p.fail(ItemsFetchFailed, err)
		return
	}
	p.items = items
}

func (p *Page) loadUFs(ctx context.Context) {
	ufs, err := p.geography.ListUFs(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	if err != nil {
		p.fail(UfFetchFailed, err)
		return
	}
	p.ufs = ufs
}

// Close disposes of the page. Results of requests still in flight are
// dropped and every later operation returns ErrClosed.
func (p *Page) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
}

// Closed reports whether the page has been closed.
func (p *Page) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// ResolveInitialPosition records the device location used to center the
// map. Only the first call has an effect.
func (p *Page) ResolveInitialPosition(pos domain.GeoPosition) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	if p.positionResolved {
		return nil
	}
	p.initialPosition = pos
	p.positionResolved = true
	return nil
}

// SelectUF changes the selected state and clears the selected city. For any
// value other than domain.None it fetches the state's cities. If another UF
// is selected before the response arrives, the response is discarded.
func (p *Page) SelectUF(ctx context.Context, uf string) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	if uf != domain.None && !slices.Contains(p.ufs, uf) {
		p.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrUnknownUF, uf)
	}
	p.selectedUF = uf
	p.selectedCity = domain.None
	p.cityToken++
	token := p.cityToken
	p.mu.Unlock()

	if uf == domain.None {
		return nil
	}

	cities, err := p.geography.ListCities(ctx, uf)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	if token != p.cityToken {
		p.logger.Debug("discarding stale city list", "uf", uf)
		return nil
	}
	if err != nil {
		p.fail(CityFetchFailed, fmt.Errorf("uf %s: %w", uf, err))
		return nil
	}
	p.cities = cities
	return nil
}

// SelectCity sets the selected city. The value is not checked against the
// fetched list.
func (p *Page) SelectCity(city string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	p.selectedCity = city
	return nil
}

// ClickMap moves the point's marker to pos.
func (p *Page) ClickMap(pos domain.GeoPosition) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	p.selectedPosition = pos
	return nil
}

// ChangeInput stores value in the contact field whose input is called name.
func (p *Page) ChangeInput(name, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	switch name {
	case "name":
		p.formData.Name = value
	case "email":
		p.formData.Email = value
	case "whatsapp":
		p.formData.Whatsapp = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return nil
}

// ToggleItem adds id to the selected items, or removes it if already there.
func (p *Page) ToggleItem(id int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	if slices.Contains(p.selectedItems, id) {
		p.selectedItems = slices.DeleteFunc(p.selectedItems, func(v int64) bool { return v == id })
	} else {
		p.selectedItems = append(p.selectedItems, id)
	}
	return nil
}

// Submit sends the point built from the current state to the backend. On
// success the page is closed and the caller should navigate to HomeRoute. On
// failure an alert is queued, the error is returned and the state is left as
// it was so the user can try again.
func (p *Page) Submit(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	if p.submitting {
		p.mu.Unlock()
		return ErrSubmitting
	}
	p.submitting = true
	point := p.pointLocked()
	p.mu.Unlock()

	err := p.backend.CreatePoint(ctx, point)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.submitting = false
	if err != nil {
		if !p.closed {
			p.fail(SubmitFailed, err)
		}
		return fmt.Errorf("failed to create point: %w", err)
	}

	p.closed = true
	p.logger.Info("collection point created",
		"uf", point.UF,
		"city", point.City,
		"items", len(point.Items),
	)
	return nil
}

// pointLocked builds the submit payload. Callers hold mu.
func (p *Page) pointLocked() domain.Point {
	return domain.Point{
		Name:      p.formData.Name,
		Email:     p.formData.Email,
		Whatsapp:  p.formData.Whatsapp,
		UF:        p.selectedUF,
		City:      p.selectedCity,
		Latitude:  p.selectedPosition.Lat(),
		Longitude: p.selectedPosition.Lng(),
		Items:     slices.Clone(p.selectedItems),
	}
}

// DrainAlerts returns the queued alerts in the order they were raised and
// clears the queue.
func (p *Page) DrainAlerts() []Alert {
	p.mu.Lock()
	defer p.mu.Unlock()
	alerts := p.alerts
	p.alerts = nil
	return alerts
}

// fail logs err and queues the alert for f. Callers hold mu.
func (p *Page) fail(f Failure, err error) {
	p.logger.Error("page operation failed", "failure", f.String(), "error", err)
	p.alerts = append(p.alerts, newAlert(f))
}
