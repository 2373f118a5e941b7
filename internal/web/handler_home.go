package web

import (
	"net/http"
)

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if err := s.renderPage(w, nil, "base.html", "pages/home.html"); err != nil {
		s.logger.Error("render page failed", "page", "home", "error", err)
	}
}
