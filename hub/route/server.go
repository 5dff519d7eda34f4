package route

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/xiaobei/singbox-manager/component/ruleset"
	C "github.com/xiaobei/singbox-manager/constant"
	"github.com/xiaobei/singbox-manager/log"
	R "github.com/xiaobei/singbox-manager/rule"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
)

type Option struct {
	AllowOrigins []string
}

type server struct {
	store    R.Store
	verifier ruleset.Verifier
}

// Router serves the management API over store and verifier.
func Router(store R.Store, verifier ruleset.Verifier, option Option) http.Handler {
	s := &server{store: store, verifier: verifier}

	origins := option.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE"},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}).Handler)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, ErrNotFound)
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/version", version)
		r.Get("/logs", getLogs)
		r.Mount("/rule-groups", s.ruleGroupRouter())
		r.Mount("/rules", s.ruleRouter())
		r.Get("/filters", s.getFilters)
		r.Get("/country-groups", s.getCountryGroups)
		r.Get("/ruleset/validate", s.validateRuleSet)
		r.Get("/route-rules", s.getRouteRules)
	})
	return r
}

// Start serves handler on addr until ctx is done.
func Start(ctx context.Context, addr string, handler http.Handler) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		log.Errorln("API listen error: %s", err)
		return err
	}
	log.Infoln("RESTful API listening at: %s", l.Addr().String())

	srv := &http.Server{Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Errorln("API serve error: %s", err)
		return err
	}
	return nil
}

func version(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, render.M{"name": C.Name, "version": C.Version})
}

func getEscapeParam(r *http.Request, paramName string) string {
	param := chi.URLParam(r, paramName)
	if newParam, err := url.PathUnescape(param); err == nil {
		param = newParam
	}
	return param
}

// renderError maps store errors to status codes.
func renderError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, R.ErrNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, ErrNotFound)
	case errors.Is(err, R.ErrEmptyName), errors.Is(err, R.ErrEmptyValues),
		errors.Is(err, R.ErrBadType), errors.Is(err, R.ErrNoOutbound):
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, newError(err.Error()))
	default:
		log.Warnln("[API] %s %s: %s", r.Method, r.URL.Path, err.Error())
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, newError(err.Error()))
	}
}

func renderList[T any](w http.ResponseWriter, r *http.Request, items []T) {
	if items == nil {
		items = []T{}
	}
	render.JSON(w, r, render.M{"data": items})
}
