package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/eonlab/eon-accounts/internal/domain"
	"github.com/eonlab/eon-accounts/internal/http/middleware"
	"github.com/eonlab/eon-accounts/internal/http/response"
	"github.com/eonlab/eon-accounts/internal/service"
)

type Handlers struct {
	profileService   service.ProfileService
	lifecycleService service.LifecycleService
	codeService      service.CodeService
}

func New(
	profileService service.ProfileService,
	lifecycleService service.LifecycleService,
	codeService service.CodeService,
) *Handlers {
	return &Handlers{
		profileService:   profileService,
		lifecycleService: lifecycleService,
		codeService:      codeService,
	}
}

// principal pulls the authenticated caller or writes a 401.
func principal(w http.ResponseWriter, r *http.Request) (domain.Principal, bool) {
	p, ok := middleware.Principal(r)
	if !ok {
		response.Unauthorized(w, "authentication required")
	}
	return p, ok
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func parsePagination(r *http.Request) (limit, offset int) {
	limit = 20
	offset = 0

	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	return limit, offset
}
