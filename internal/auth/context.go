package auth

import (
	"context"

	"github.com/hausledger/backend/internal/apperrors"
)

type contextKey string

const userClaimsKey contextKey = "userClaims"

// withUserClaims returns a context carrying the authenticated user.
func withUserClaims(ctx context.Context, claims *UserClaims) context.Context {
	return context.WithValue(ctx, userClaimsKey, claims)
}

// GetUserClaims extracts user claims from the context.
func GetUserClaims(ctx context.Context) (*UserClaims, bool) {
	claims, ok := ctx.Value(userClaimsKey).(*UserClaims)
	return claims, ok
}

// RequireAuth extracts user claims from context or returns an
// unauthenticated error.
func RequireAuth(ctx context.Context) (*UserClaims, error) {
	claims, ok := GetUserClaims(ctx)
	if !ok {
		return nil, apperrors.ErrUnauthenticated
	}
	return claims, nil
}
