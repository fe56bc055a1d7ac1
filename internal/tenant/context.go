// Package tenant carries the id of the owner a request acts for. Authentication
// happens upstream; the gateway forwards the authenticated user id in a header.
package tenant

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

const OwnerHeader = "X-User-ID"

type contextKey string

const ownerKey contextKey = "owner"

func WithOwner(ctx context.Context, ownerID int64) context.Context {
	return context.WithValue(ctx, ownerKey, ownerID)
}

// OwnerID returns the owner stored by WithOwner.
func OwnerID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(ownerKey).(int64)
	return id, ok
}

// ParseOwner validates a raw header value.
func ParseOwner(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid owner id %q", raw)
	}
	return id, nil
}
