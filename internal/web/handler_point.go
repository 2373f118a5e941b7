package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"slices"
	"strconv"

	"github.com/vbonduro/ecoleta/internal/config"
	"github.com/vbonduro/ecoleta/internal/domain"
	"github.com/vbonduro/ecoleta/internal/form"
)

const (
	sessionCookie = "ecoleta_session"
	formPath      = "/create-point"
	// alertEvent is the client-side event carrying alert messages.
	alertEvent = "ecoleta:alert"
)

// contactFields are the inputs the form posts on submit. Their values may be
// newer than the last debounced input event.
var contactFields = []string{"name", "email", "whatsapp"}

type createPointData struct {
	View   form.View
	Map    config.MapSettings
	Alerts []string
}

func (s *Server) handleCreatePointPage(w http.ResponseWriter, r *http.Request) {
	// Reloading the page starts over, as a fresh mount would.
	if c, err := r.Cookie(sessionCookie); err == nil {
		s.sessions.Remove(c.Value)
	}

	page := s.newPage()
	if err := page.Mount(r.Context()); err != nil {
		http.Error(w, "failed to load form", http.StatusInternalServerError)
		s.logger.Error("mount page failed", "error", err)
		return
	}
	id := s.sessions.Add(page)

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     formPath,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	s.renderForm(w, page)
}

func (s *Server) renderForm(w http.ResponseWriter, page *form.Page) {
	data := createPointData{
		View:   page.View(),
		Map:    s.mapCfg,
		Alerts: alertMessages(page.DrainAlerts()),
	}
	if err := s.renderPage(w, data,
		"base.html", "pages/create_point.html", "partials/cities.html", "partials/items.html",
	); err != nil {
		s.logger.Error("render page failed", "page", "create_point", "error", err)
	}
}

func (s *Server) handleInitialPosition(w http.ResponseWriter, r *http.Request) {
	page, id, ok := s.pageFromRequest(w, r)
	if !ok {
		return
	}
	pos, err := parsePosition(r)
	if err != nil {
		http.Error(w, "invalid position", http.StatusBadRequest)
		return
	}
	if err := page.ResolveInitialPosition(pos); err != nil {
		s.writeError(w, id, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMapClick(w http.ResponseWriter, r *http.Request) {
	page, id, ok := s.pageFromRequest(w, r)
	if !ok {
		return
	}
	pos, err := parsePosition(r)
	if err != nil {
		http.Error(w, "invalid position", http.StatusBadRequest)
		return
	}
	if err := page.ClickMap(pos); err != nil {
		s.writeError(w, id, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleInputChange applies every posted field to the contact data. htmx
// posts the changed input as name=value.
func (s *Server) handleInputChange(w http.ResponseWriter, r *http.Request) {
	page, id, ok := s.pageFromRequest(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "failed to parse form", http.StatusBadRequest)
		return
	}

	names := make([]string, 0, len(r.PostForm))
	for name := range r.PostForm {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		if err := page.ChangeInput(name, r.PostForm.Get(name)); err != nil {
			s.writeError(w, id, err)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSelectUF stores the state and answers with the refreshed city select.
func (s *Server) handleSelectUF(w http.ResponseWriter, r *http.Request) {
	page, id, ok := s.pageFromRequest(w, r)
	if !ok {
		return
	}
	if err := page.SelectUF(r.Context(), r.FormValue("uf")); err != nil {
		s.writeError(w, id, err)
		return
	}

	s.sendAlerts(w, page)
	if err := s.renderPartial(w, "partials/cities.html", page.View()); err != nil {
		s.logger.Error("render partial failed", "partial", "cities", "error", err)
	}
}

func (s *Server) handleSelectCity(w http.ResponseWriter, r *http.Request) {
	page, id, ok := s.pageFromRequest(w, r)
	if !ok {
		return
	}
	if err := page.SelectCity(r.FormValue("city")); err != nil {
		s.writeError(w, id, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleToggleItem flips one item and answers with the refreshed item grid.
func (s *Server) handleToggleItem(w http.ResponseWriter, r *http.Request) {
	page, id, ok := s.pageFromRequest(w, r)
	if !ok {
		return
	}
	itemID, err := parseID(r)
	if err != nil {
		http.Error(w, "invalid item id", http.StatusBadRequest)
		return
	}
	if err := page.ToggleItem(itemID); err != nil {
		s.writeError(w, id, err)
		return
	}

	if err := s.renderPartial(w, "partials/items.html", page.View()); err != nil {
		s.logger.Error("render partial failed", "partial", "items", "error", err)
	}
}

// handleSubmit sends the point. Contact fields posted with the form are
// applied first. The city is not: it is reset when the UF changes, so a
// posted city may still belong to the previous UF. On success the visitor is
// sent home; on failure the alert is shown and the form stays as it was.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	page, id, ok := s.pageFromRequest(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "failed to parse form", http.StatusBadRequest)
		return
	}
	for _, name := range contactFields {
		values, ok := r.PostForm[name]
		if !ok {
			continue
		}
		if err := page.ChangeInput(name, values[0]); err != nil {
			s.writeError(w, id, err)
			return
		}
	}

	err := page.Submit(r.Context())
	if errors.Is(err, form.ErrClosed) || errors.Is(err, form.ErrSubmitting) {
		s.writeError(w, id, err)
		return
	}
	if err != nil {
		if isHTMX(r) {
			s.sendAlerts(w, page)
			w.WriteHeader(http.StatusNoContent)
			return
		}
		s.renderForm(w, page)
		return
	}

	s.sessions.Remove(id)
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Path: formPath, MaxAge: -1})
	if isHTMX(r) {
		w.Header().Set("HX-Redirect", form.HomeRoute)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, form.HomeRoute, http.StatusSeeOther)
}

// pageFromRequest resolves the visitor's page from the session cookie. When
// there is none it writes 410 and, for htmx, sends the browser back to a
// fresh form.
func (s *Server) pageFromRequest(w http.ResponseWriter, r *http.Request) (*form.Page, string, bool) {
	c, err := r.Cookie(sessionCookie)
	if err == nil {
		if page, ok := s.sessions.Get(c.Value); ok {
			return page, c.Value, true
		}
	}
	if isHTMX(r) {
		w.Header().Set("HX-Redirect", formPath)
	}
	http.Error(w, "form session expired", http.StatusGone)
	return nil, "", false
}

// writeError maps page errors to statuses. A closed page is dropped from
// the session store.
func (s *Server) writeError(w http.ResponseWriter, id string, err error) {
	switch {
	case errors.Is(err, form.ErrClosed):
		s.sessions.Remove(id)
		http.Error(w, "form session expired", http.StatusGone)
	case errors.Is(err, form.ErrUnknownUF), errors.Is(err, form.ErrUnknownField):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, form.ErrSubmitting):
		http.Error(w, "submission in progress", http.StatusConflict)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
		s.logger.Error("page operation failed", "error", err)
	}
}

// sendAlerts moves the page's queued alerts into an HX-Trigger header. It
// must run before the status is written.
func (s *Server) sendAlerts(w http.ResponseWriter, page *form.Page) {
	messages := alertMessages(page.DrainAlerts())
	if len(messages) == 0 {
		return
	}
	trigger, err := json.Marshal(map[string]any{
		alertEvent: map[string]any{"messages": messages},
	})
	if err != nil {
		s.logger.Error("encode alerts failed", "error", err)
		return
	}
	w.Header().Set("HX-Trigger", string(trigger))
}

func alertMessages(alerts []form.Alert) []string {
	messages := make([]string, 0, len(alerts))
	for _, a := range alerts {
		if a.Message != "" {
			messages = append(messages, a.Message)
		}
	}
	return messages
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

func parsePosition(r *http.Request) (domain.GeoPosition, error) {
	lat, err := strconv.ParseFloat(r.FormValue("lat"), 64)
	if err != nil {
		return domain.GeoPosition{}, err
	}
	lng, err := strconv.ParseFloat(r.FormValue("lng"), 64)
	if err != nil {
		return domain.GeoPosition{}, err
	}
	if !finite(lat) || !finite(lng) {
		return domain.GeoPosition{}, fmt.Errorf("position %v,%v is not finite", lat, lng)
	}
	return domain.GeoPosition{lat, lng}, nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// parseID extracts the {id} path variable and returns it as int64.
func parseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}
