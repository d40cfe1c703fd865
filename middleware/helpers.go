package middleware

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v4"
)

// Имена JWT claims
const (
	jwtClaimUserID = "user_id"
	jwtClaimRole   = "role"
)

var errNoClaims = errors.New("token claims not found in context")

func claimsFromContext(ctx context.Context) (jwt.MapClaims, error) {
	claims, ok := ctx.Value(userContextKey).(jwt.MapClaims)
	if !ok {
		return nil, errNoClaims
	}
	return claims, nil
}

// GetUserIDFromContext returns the positive user ID of the authenticated
// request. The claim may be a JSON number or a numeric string.
func GetUserIDFromContext(ctx context.Context) (int, error) {
	claims, err := claimsFromContext(ctx)
	if err != nil {
		return 0, err
	}

	var userID int
	switch v := claims[jwtClaimUserID].(type) {
	case float64:
		// числа в MapClaims приходят как float64
		if v != float64(int(v)) {
			return 0, fmt.Errorf("'%s' claim is not an integer: %v", jwtClaimUserID, v)
		}
		userID = int(v)
	case string:
		if userID, err = strconv.Atoi(v); err != nil {
			return 0, fmt.Errorf("'%s' claim is not a number: %q", jwtClaimUserID, v)
		}
	case nil:
		return 0, fmt.Errorf("missing '%s' claim in token", jwtClaimUserID)
	default:
		return 0, fmt.Errorf("invalid type for '%s' claim: %T", jwtClaimUserID, v)
	}

	if userID <= 0 {
		return 0, fmt.Errorf("invalid user ID in '%s' claim: %d", jwtClaimUserID, userID)
	}
	return userID, nil
}

func GetUserRoleFromContext(ctx context.Context) (Role, error) {
	claims, err := claimsFromContext(ctx)
	if err != nil {
		return "", err
	}

	roleStr, ok := claims[jwtClaimRole].(string)
	if !ok {
		return "", fmt.Errorf("missing or non-string '%s' claim", jwtClaimRole)
	}

	role := Role(roleStr)
	switch role {
	case RoleAdmin, RoleOrganizer, RolePlayer:
		return role, nil
	default:
		return "", fmt.Errorf("invalid role value in claim: %q", roleStr)
	}
}
