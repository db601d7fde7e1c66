package serverutils

import (
	"errors"
	"slices"

	"refund-lifecycle-be/pkg/refund"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleCustomer = "customer"
	RoleStaff    = "staff"
	RoleAdmin    = "admin"

	// RoleGateway is held by payment-provider callbacks.
	RoleGateway = "gateway"
)

// Locals keys set by JwtMiddleware.
const (
	LocalActor = "actor"
	LocalRole  = "role"
)

// JwtMiddleware verifies an HS256 bearer token signed with secret and stores its
// subject and role in the request locals.
func JwtMiddleware(secret string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		authHeader := ctx.Get("Authorization")
		if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
			return &refund.AuthorizationError{Operation: "access " + ctx.Path(), Err: refund.ErrUnauthorized}
		}
		tokenStr := authHeader[7:]

		token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid {
			return &refund.AuthorizationError{Operation: "access " + ctx.Path(), Err: refund.ErrUnauthorized}
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return &refund.AuthorizationError{Operation: "access " + ctx.Path(), Err: errors.New("invalid claims")}
		}

		subject, _ := claims.GetSubject()
		if subject == "" {
			subject, _ = claims["user_id"].(string)
		}
		role, _ := claims["role"].(string)
		if role == "" {
			role = RoleCustomer
		}

		ctx.Locals(LocalActor, subject)
		ctx.Locals(LocalRole, role)
		return ctx.Next()
	}
}

// RequireRole rejects callers whose role is not one of roles. It must run after JwtMiddleware.
func RequireRole(roles ...string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		role, _ := ctx.Locals(LocalRole).(string)
		if role == "" {
			return &refund.AuthorizationError{Operation: ctx.Method() + " " + ctx.Path(), Err: refund.ErrUnauthorized}
		}
		if !slices.Contains(roles, role) {
			return &refund.AuthorizationError{Operation: ctx.Method() + " " + ctx.Path(), Err: refund.ErrForbidden}
		}
		return ctx.Next()
	}
}

// StaffOnly admits staff and admins.
func StaffOnly() fiber.Handler {
	return RequireRole(RoleStaff, RoleAdmin)
}

// Actor returns the authenticated subject, or "" before JwtMiddleware ran.
func Actor(ctx *fiber.Ctx) string {
	actor, _ := ctx.Locals(LocalActor).(string)
	return actor
}

// SignToken issues an HS256 token. It exists for the operator CLI and tests.
func SignToken(secret, subject, role string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  subject,
		"role": role,
	})
	return token.SignedString([]byte(secret))
}
