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

// normaliseEmail trims and lowercases an address so lookups and the unique index agree.
func normaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
