package route

import (
	"context"
	"net/http"

	R "github.com/xiaobei/singbox-manager/rule"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

func (s *server) ruleRouter() http.Handler {
	r := chi.NewRouter()
	r.Get("/", s.getRules)
	r.Post("/", s.addRule)

	r.Route("/{id}", func(r chi.Router) {
		r.Use(parseRuleID)
		r.Put("/", s.updateRule)
		r.Delete("/", s.deleteRule)
	})
	return r
}

func parseRuleID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := getEscapeParam(r, "id")
		ctx := context.WithValue(r.Context(), CtxKeyRuleID, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *server) getRules(w http.ResponseWriter, r *http.Request) {
	rules, err := s.store.Rules(r.Context())
	if err != nil {
		renderError(w, r, err)
		return
	}
	renderList(w, r, rules)
}

func (s *server) addRule(w http.ResponseWriter, r *http.Request) {
	rule := R.Rule{}
	if err := render.DecodeJSON(r.Body, &rule); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrBadRequest)
		return
	}

	created, err := s.store.AddRule(r.Context(), rule)
	if err != nil {
		renderError(w, r, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, render.M{"data": created})
}

func (s *server) updateRule(w http.ResponseWriter, r *http.Request) {
	id := r.Context().Value(CtxKeyRuleID).(string)
	rule := R.Rule{}
	if err := render.DecodeJSON(r.Body, &rule); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrBadRequest)
		return
	}

	if err := s.store.UpdateRule(r.Context(), id, rule); err != nil {
		renderError(w, r, err)
		return
	}
	render.NoContent(w, r)
}

func (s *server) deleteRule(w http.ResponseWriter, r *http.Request) {
	id := r.Context().Value(CtxKeyRuleID).(string)
	if err := s.store.DeleteRule(r.Context(), id); err != nil {
		renderError(w, r, err)
		return
	}
	render.NoContent(w, r)
}

func (s *server) getRouteRules(w http.ResponseWriter, r *http.Request) {
	rules, err := s.store.Rules(r.Context())
	if err != nil {
		renderError(w, r, err)
		return
	}
	groups, err := s.store.RuleGroups(r.Context())
	if err != nil {
		renderError(w, r, err)
		return
	}
	parsed, err := R.ParseRouteRules(rules, groups)
	if err != nil {
		renderError(w, r, err)
		return
	}
	renderList(w, r, parsed)
}
