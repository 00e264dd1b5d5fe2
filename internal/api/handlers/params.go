package handlers

import (
	"net/url"
	"strconv"
	"time"

	"spendwise-be/internal/apperrors"
)

// dateLayouts are the formats accepted for date query parameters.
var dateLayouts = []string{time.RFC3339, "2006-01-02"}

func parseDateParam(values url.Values, key string) (*time.Time, error) {
	raw := values.Get(key)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return &t, nil
		}
	}
	return nil, apperrors.NewValidation(key, "Must be an RFC 3339 timestamp or a YYYY-MM-DD date")
}

func parseFloatParam(values url.Values, key string) *float64 {
	raw := values.Get(key)
	if raw == "" {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &f
}

func parseIntParam(values url.Values, key string, fallback int) int {
	raw := values.Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

func parseBoolParam(values url.Values, key string) *bool {
	raw := values.Get(key)
	if raw == "" {
		return nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &b
}
