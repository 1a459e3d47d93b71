package controllers

import (
	"net/http"
	"strings"

	"github.com/lockerhub/lockerhub-backend/api/middleware"
	"github.com/lockerhub/lockerhub-backend/api/validators"
	"github.com/lockerhub/lockerhub-backend/internal/policy"
	pkgerrors "github.com/lockerhub/lockerhub-backend/pkg/errors"
)

const tokenHeader = "X-LockerHub-Token"

func principalFrom(r *http.Request) (policy.Principal, error) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		return policy.Principal{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return p, nil
}

func unavailable(name string) error {
	return pkgerrors.New(pkgerrors.CodeInternal, name+" service unavailable")
}

// optionalNote trims a note and drops it when nothing is left.
func optionalNote(raw *string) *string {
	if raw == nil {
		return nil
	}
	note := sanitize(*raw)
	if note == "" {
		return nil
	}
	return &note
}

func sanitize(raw string) string {
	return validators.SanitizeString(raw, 0)
}

// parseEnumQuery reads an optional enum query parameter through its parser.
func parseEnumQuery[T ~string](r *http.Request, key string, parse func(string) (T, error)) (*T, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	value, err := parse(raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+key).WithDetails(map[string]any{"field": key})
	}
	return &value, nil
}

// pageParams reads the shared limit/cursor pair for paginated listings.
func pageParams(r *http.Request) (int, string, error) {
	limit, err := validators.ParseQueryInt(r, "limit", 20, 1, 100)
	if err != nil {
		return 0, "", err
	}
	return limit, strings.TrimSpace(r.URL.Query().Get("cursor")), nil
}
