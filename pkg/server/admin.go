package server

import (
	"context"
	"fmt"

	"grundbuch-online/portal/pkg/security/secrets"
)

const adminKeyName = secrets.AdminAPIKey

// noAdminKey is used when no secret source is wired; the admin routes then
// answer 503.
type noAdminKey struct{}

func (noAdminKey) Lookup(ctx context.Context, name string) (string, error) {
	return "", fmt.Errorf("%w: %s", secrets.ErrNotFound, name)
}
