package services

import (
	"context"
	"strings"
)

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func normaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// pageBounds clamps pagination input to sane defaults.
func pageBounds(page, perPage int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 || perPage > 200 {
		perPage = 50
	}
	return page, perPage
}
