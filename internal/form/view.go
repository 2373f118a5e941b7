package form

import (
	"slices"

	"github.com/vbonduro/ecoleta/internal/domain"
)

// View is a copy of the page state taken for rendering.
type View struct {
	Items            []domain.Item
	UFs              []string
	Cities           []string
	InitialPosition  domain.GeoPosition
	PositionResolved bool
	FormData         domain.FormData
	SelectedUF       string
	SelectedCity     string
	SelectedPosition domain.GeoPosition
	SelectedItems    []int64
}

// View returns a snapshot of the page state.
func (p *Page) View() View {
	p.mu.Lock()
	defer p.mu.Unlock()
	return View{
		Items:            slices.Clone(p.items),
		UFs:              slices.Clone(p.ufs),
		Cities:           slices.Clone(p.cities),
		InitialPosition:  p.initialPosition,
		PositionResolved: p.positionResolved,
		FormData:         p.formData,
		SelectedUF:       p.selectedUF,
		SelectedCity:     p.selectedCity,
		SelectedPosition: p.selectedPosition,
		SelectedItems:    slices.Clone(p.selectedItems),
	}
}

// IsSelected reports whether the item with the given id is selected.
func (v View) IsSelected(id int64) bool {
	return slices.Contains(v.SelectedItems, id)
}
