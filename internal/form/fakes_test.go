package form

import (
	"context"
	"sync"

	"github.com/vbonduro/ecoleta/internal/domain"
)

type fakeBackend struct {
	mu sync.Mutex

	items     []domain.Item
	itemsErr  error
	itemsGate chan struct{}
	listCalls int

	createErr     error
	createGate    chan struct{}
	createEntered chan struct{}
	created       []domain.Point
}

func (f *fakeBackend) ListItems(_ context.Context) ([]domain.Item, error) {
	f.mu.Lock()
	f.listCalls++
	gate := f.itemsGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return f.items, f.itemsErr
}

func (f *fakeBackend) CreatePoint(_ context.Context, p domain.Point) error {
	f.mu.Lock()
	f.created = append(f.created, p)
	gate := f.createGate
	f.mu.Unlock()
	if gate != nil {
		f.createEntered <- struct{}{}
		<-gate
	}
	return f.createErr
}

func (f *fakeBackend) Created() []domain.Point {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Point(nil), f.created...)
}

type fakeGeography struct {
	mu sync.Mutex

	ufs    []string
	ufsErr error

	cities    map[string][]string
	citiesErr map[string]error
	// gates holds requests for a UF until the channel is closed; entered
	// receives the UF when such a request starts waiting.
	gates     map[string]chan struct{}
	entered   chan string
	cityCalls []string
}

func (f *fakeGeography) ListUFs(_ context.Context) ([]string, error) {
	return f.ufs, f.ufsErr
}

func (f *fakeGeography) ListCities(_ context.Context, uf string) ([]string, error) {
	f.mu.Lock()
	f.cityCalls = append(f.cityCalls, uf)
	gate := f.gates[uf]
	f.mu.Unlock()
	if gate != nil {
		f.entered <- uf
		<-gate
	}
	return f.cities[uf], f.citiesErr[uf]
}

func (f *fakeGeography) CityCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.cityCalls...)
}

func newFakeGeography() *fakeGeography {
	return &fakeGeography{
		ufs: []string{"SP", "RJ"},
		cities: map[string][]string{
			"SP": {"Campinas", "São Paulo"},
			"RJ": {"Niterói", "Rio de Janeiro"},
		},
		citiesErr: map[string]error{},
		gates:     map[string]chan struct{}{},
		entered:   make(chan string, 1),
	}
}
