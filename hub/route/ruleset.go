package route

import (
	"net/http"
	"strings"

	C "github.com/xiaobei/singbox-manager/constant"

	"github.com/go-chi/render"
)

func (s *server) validateRuleSet(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	kind, err := C.ParseRuleType(query.Get("type"))
	if err != nil || !kind.IsRuleSet() {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, newError("type must be geosite or geoip"))
		return
	}
	name := strings.TrimSpace(query.Get("name"))
	if name == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, newError("name is required"))
		return
	}

	result, err := s.verifier.Validate(r.Context(), kind, name)
	if err != nil {
		render.Status(r, http.StatusBadGateway)
		render.JSON(w, r, newError(err.Error()))
		return
	}
	render.JSON(w, r, result)
}
