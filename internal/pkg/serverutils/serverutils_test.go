package serverutils

import (
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	"refund-lifecycle-be/internal/pkg/logger"
	"refund-lifecycle-be/pkg/idempotency"
	"refund-lifecycle-be/pkg/production"
	"refund-lifecycle-be/pkg/refund"
	"refund-lifecycle-be/pkg/workflow"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "request validation", err: &RequestValidationError{Fields: map[string]string{"order_ref": "is required"}}, want: fiber.StatusBadRequest},
		{name: "domain validation", err: &refund.ValidationError{Fields: map[string]string{"reason": "unknown"}}, want: fiber.StatusBadRequest},
		{name: "board validation", err: &production.ValidationError{Fields: map[string]string{"quantity": "must be positive"}}, want: fiber.StatusBadRequest},
		{name: "unauthenticated", err: &refund.AuthorizationError{Operation: "list", Err: refund.ErrUnauthorized}, want: fiber.StatusUnauthorized},
		{name: "forbidden", err: &refund.AuthorizationError{Operation: "list", Err: refund.ErrForbidden}, want: fiber.StatusForbidden},
		{name: "wrapped not found", err: fmt.Errorf("load: %w", refund.ErrNotFound), want: fiber.StatusNotFound},
		{name: "board not found", err: production.ErrNotFound, want: fiber.StatusNotFound},
		{name: "board transition", err: &workflow.InvalidTransitionError{From: "shipped", To: "queued"}, want: fiber.StatusConflict},
		{name: "version conflict", err: refund.ErrConcurrentModification, want: fiber.StatusConflict},
		{name: "retry limit", err: refund.ErrRetryLimitReached, want: fiber.StatusConflict},
		{name: "idempotency in progress", err: idempotency.ErrInProgress, want: fiber.StatusConflict},
		{name: "gateway", err: &refund.GatewayError{Provider: "stripe", Retryable: true, Message: "timeout"}, want: fiber.StatusBadGateway},
		{name: "fiber error", err: fiber.NewError(fiber.StatusRequestEntityTooLarge, "too big"), want: fiber.StatusRequestEntityTooLarge},
		{name: "unknown", err: errors.New("disk on fire"), want: fiber.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := MapError(tt.err)
			assert.Equal(t, tt.want, body.Code)
			assert.False(t, body.Success)
		})
	}
}

func TestMapErrorDetails(t *testing.T) {
	body := MapError(&refund.GatewayError{Provider: "midtrans", Retryable: false, Message: "declined"})
	assert.Equal(t, false, body.Details["retryable"])
	assert.Equal(t, "midtrans", body.Details["provider"])

	body = MapError(errors.New("secret connection string leaked"))
	assert.Equal(t, "Internal server error", body.Message)

	body = MapError(&RequestValidationError{Fields: map[string]string{"order_ref": "is required"}})
	assert.Equal(t, "is required", body.Errors["order_ref"])
}

type createReq struct {
	OrderRef     string `validate:"required"`
	RefundAmount int64  `validate:"gte=0"`
	Currency     string `validate:"omitempty,len=3"`
}

func TestValidateRequest(t *testing.T) {
	err := ValidateRequest(createReq{RefundAmount: -1, Currency: "EURO"})
	var verr *RequestValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "is required", verr.Fields["order_ref"])
	assert.Equal(t, "must be greater than or equal to 0", verr.Fields["refund_amount"])
	assert.Equal(t, "must have length 3", verr.Fields["currency"])

	assert.NoError(t, ValidateRequest(createReq{OrderRef: "ord-1"}))
}

func newAuthApp(secret string, guard ...fiber.Handler) *fiber.App {
	app := fiber.New()
	app.Use(ErrorHandlerMiddleware(logger.NewNopLogger()))
	handlers := append([]fiber.Handler{JwtMiddleware(secret)}, guard...)
	handlers = append(handlers, func(ctx *fiber.Ctx) error {
		return ctx.JSON(SuccessResponse("ok", fiber.Map{"actor": Actor(ctx), "role": ctx.Locals(LocalRole)}))
	})
	app.Get("/whoami", handlers...)
	return app
}

func TestJwtMiddleware(t *testing.T) {
	const secret = "test-secret"
	app := newAuthApp(secret, StaffOnly())

	staff, err := SignToken(secret, "staff-1", RoleStaff)
	require.NoError(t, err)
	customer, err := SignToken(secret, "cus-1", RoleCustomer)
	require.NoError(t, err)
	forged, err := SignToken("other-secret", "staff-1", RoleStaff)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "missing header", header: "", want: fiber.StatusUnauthorized},
		{name: "not bearer", header: "Basic abc", want: fiber.StatusUnauthorized},
		{name: "wrong signature", header: "Bearer " + forged, want: fiber.StatusUnauthorized},
		{name: "customer on staff route", header: "Bearer " + customer, want: fiber.StatusForbidden},
		{name: "staff", header: "Bearer " + staff, want: fiber.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/whoami", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}
