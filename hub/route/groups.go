package route

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

func (s *server) ruleGroupRouter() http.Handler {
	r := chi.NewRouter()
	r.Get("/", s.getRuleGroups)

	r.Route("/{id}", func(r chi.Router) {
		r.Use(parseGroupID)
		r.Put("/", s.toggleRuleGroup)
		r.Put("/outbound", s.updateRuleGroupOutbound)
	})
	return r
}

func parseGroupID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := getEscapeParam(r, "id")
		ctx := context.WithValue(r.Context(), CtxKeyGroupID, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *server) getRuleGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := s.store.RuleGroups(r.Context())
	if err != nil {
		renderError(w, r, err)
		return
	}
	renderList(w, r, groups)
}

func (s *server) toggleRuleGroup(w http.ResponseWriter, r *http.Request) {
	id := r.Context().Value(CtxKeyGroupID).(string)
	req := struct {
		Enabled *bool `json:"enabled"`
	}{}
	if err := render.DecodeJSON(r.Body, &req); err != nil || req.Enabled == nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrBadRequest)
		return
	}

	if err := s.store.ToggleRuleGroup(r.Context(), id, *req.Enabled); err != nil {
		renderError(w, r, err)
		return
	}
	render.NoContent(w, r)
}

func (s *server) updateRuleGroupOutbound(w http.ResponseWriter, r *http.Request) {
	id := r.Context().Value(CtxKeyGroupID).(string)
	req := struct {
		Outbound string `json:"outbound"`
	}{}
	if err := render.DecodeJSON(r.Body, &req); err != nil || req.Outbound == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrBadRequest)
		return
	}

	if err := s.store.UpdateRuleGroupOutbound(r.Context(), id, req.Outbound); err != nil {
		renderError(w, r, err)
		return
	}
	render.NoContent(w, r)
}

func (s *server) getFilters(w http.ResponseWriter, r *http.Request) {
	filters, err := s.store.Filters(r.Context())
	if err != nil {
		renderError(w, r, err)
		return
	}
	renderList(w, r, filters)
}

func (s *server) getCountryGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := s.store.CountryGroups(r.Context())
	if err != nil {
		renderError(w, r, err)
		return
	}
	renderList(w, r, groups)
}
