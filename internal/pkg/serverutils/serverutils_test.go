package serverutils

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"ai-docview-be/internal/service"
	"ai-docview-be/pkg/view"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: doc", service.ErrDocumentNotFound), fiber.StatusNotFound},
		{fmt.Errorf("%w: doc", service.ErrNoIntermediateResult), fiber.StatusConflict},
		{fmt.Errorf("%w: qa", service.ErrViewNotReady), fiber.StatusNotFound},
		{fmt.Errorf("%w: %q", view.ErrInvalidView, "podcast"), fiber.StatusBadRequest},
		{fmt.Errorf("%w: qa: %w", service.ErrViewProcessingFailure, fmt.Errorf("boom")), fiber.StatusUnprocessableEntity},
		{fmt.Errorf("%w: podcast", view.ErrNotRegistered), fiber.StatusBadRequest},
		{service.ErrProcessingTimeout, fiber.StatusGatewayTimeout},
		{fiber.NewError(fiber.StatusTeapot, "tea"), fiber.StatusTeapot},
		{fmt.Errorf("disk full"), fiber.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, StatusFor(tc.err), tc.err.Error())
	}
}

func TestValidateRequest(t *testing.T) {
	type req struct {
		Content string `validate:"required"`
		View    string `validate:"max=3"`
	}

	assert.NoError(t, ValidateRequest(req{Content: "x", View: "qa"}))

	err := ValidateRequest(req{View: "learning"})
	require.Error(t, err)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "is required", ve.Fields["content"])
	assert.Equal(t, "must be at most 3", ve.Fields["view"])
	assert.Equal(t, fiber.StatusBadRequest, StatusFor(err))
}

func TestErrorHandlerMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(ErrorHandlerMiddleware())
	app.Get("/missing", func(ctx *fiber.Ctx) error {
		return fmt.Errorf("%w: doc-1", service.ErrDocumentNotFound)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	var out Response[any]
	require.NoError(t, json.Unmarshal(body, &out))
	assert.False(t, out.Success)
	assert.Equal(t, 404, out.Code)
	assert.Contains(t, out.Message, "doc-1")
}

func TestJwtMiddleware(t *testing.T) {
	const secret = "test-secret"
	app := fiber.New()
	app.Get("/guarded", JwtMiddleware(secret), func(ctx *fiber.Ctx) error {
		return ctx.JSON(SuccessResponse("ok", ctx.Locals("subject")))
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/guarded", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "svc-a",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(secret))
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/guarded", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	req = httptest.NewRequest("GET", "/guarded", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestJwtMiddleware_DisabledWithoutSecret(t *testing.T) {
	app := fiber.New()
	app.Get("/open", JwtMiddleware(""), func(ctx *fiber.Ctx) error {
		return ctx.SendStatus(fiber.StatusNoContent)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/open", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}
