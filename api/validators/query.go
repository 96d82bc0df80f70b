package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/Prem931993/buytown-sub000/pkg/errors"
)

// ParseQueryInt reads an optional integer query parameter bounded by
// [lo, hi]. An absent parameter yields def.
func ParseQueryInt(r *http.Request, key string, def, lo, hi int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeValidation, err, key+" must be an integer").WithDetails(map[string]any{"field": key})
	}
	if n < lo || n > hi {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, key+" is out of range").WithDetails(map[string]any{"field": key, "min": lo, "max": hi})
	}
	return n, nil
}
