package api

import (
	"fmt"
	"net/url"
	"strconv"
)

// paramError reports an unparseable or out of range query parameter.
type paramError struct {
	name   string
	reason string
}

func (e *paramError) Error() string {
	return fmt.Sprintf("invalid query parameter %q: %s", e.name, e.reason)
}

func intParam(q url.Values, name string, def, lo, hi int) (int, error) {
	raw := q.Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &paramError{name, "must be an integer"}
	}
	if v < lo || v > hi {
		return 0, &paramError{name, fmt.Sprintf("must be between %d and %d", lo, hi)}
	}
	return v, nil
}

func floatParam(q url.Values, name string, def, lo, hi float64) (float64, error) {
	raw := q.Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &paramError{name, "must be a number"}
	}
	if v < lo || v > hi {
		return 0, &paramError{name, fmt.Sprintf("must be between %g and %g", lo, hi)}
	}
	return v, nil
}

func boolParam(q url.Values, name string, def bool) (bool, error) {
	raw := q.Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, &paramError{name, "must be a boolean"}
	}
	return v, nil
}
