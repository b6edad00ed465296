package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-minimart-pos/internal/apperr"
	"go-minimart-pos/internal/middleware"
	"go-minimart-pos/internal/model"
	"go-minimart-pos/internal/repository"
	"go-minimart-pos/internal/testutil"
	"go-minimart-pos/pkg/jwt"
)

type errorBody struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code"`
	Details map[string]interface{} `json:"details"`
}

func do(t *testing.T, app *fiber.App, req *http.Request) (int, errorBody) {
	t.Helper()
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var body errorBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestRespondError(t *testing.T) {
	id := uuid.New()
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", apperr.ErrInsufficientStock.With("product_id", id.String()), http.StatusBadRequest, "INSUFFICIENT_STOCK"},
		{"not found", apperr.NotFound("invoice", id), http.StatusNotFound, "NOT_FOUND"},
		{"conflict", apperr.ErrDuplicate, http.StatusConflict, "DUPLICATE"},
		{"unknown", errors.New("connection reset"), http.StatusInternalServerError, "INTERNAL"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error { return respondError(c, tc.err) })

			status, body := do(t, app, httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.code, body.Code)
			assert.NotEmpty(t, body.Error)
		})
	}

	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return respondError(c, apperr.ErrInsufficientStock.With("product_id", id.String()))
	})
	_, body := do(t, app, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, id.String(), body.Details["product_id"])
}

func TestQueryTime_EndOfDay(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		from, to, err := queryRange(c)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"from": from.Format("15:04:05"), "to": to.Format("15:04:05")})
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/?from=2026-03-01&to=2026-03-31", nil))
	require.NoError(t, err)
	var got map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "00:00:00", got["from"])
	assert.Equal(t, "23:59:59", got["to"])

	status, body := do(t, app, httptest.NewRequest(http.MethodGet, "/?from=March", nil))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, apperr.ErrInvalidInput.Code, body.Code)
}

func TestRequireAuth(t *testing.T) {
	db := testutil.NewDB(t)
	users := repository.NewUserRepo(db)

	view := model.Privilege{Code: model.PrivProductView, Name: "View products"}
	require.NoError(t, db.Create(&view).Error)
	user := &model.User{
		Email:        "staff@example.com",
		FullName:     "Minh Staff",
		IsActive:     true,
		TokenVersion: "v1",
		Privileges:   []model.Privilege{view},
	}
	require.NoError(t, user.SetPassword("secret123"))
	require.NoError(t, db.Create(user).Error)

	app := fiber.New()
	app.Get("/products", middleware.RequireAuth(users), middleware.RequirePrivilege(model.PrivProductView),
		func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"user": actor(c).Name}) })
	app.Get("/reports", middleware.RequireAuth(users), middleware.RequirePrivilege(model.PrivReportView),
		func(c *fiber.Ctx) error { return c.SendStatus(http.StatusOK) })

	request := func(path, token string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		return req
	}

	token, err := jwt.GenerateToken(user.ID, user.Email, user.FullName, model.RoleEmployee, nil, "v1")
	require.NoError(t, err)

	resp, err := app.Test(request("/products", token))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var got map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "Minh Staff", got["user"])

	status, body := do(t, app, request("/reports", token))
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", body.Code)

	status, body = do(t, app, request("/products", ""))
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", body.Code)

	status, _ = do(t, app, request("/products", "not-a-token"))
	assert.Equal(t, http.StatusUnauthorized, status)

	// a newer login rotates the version
	require.NoError(t, db.Model(&model.User{}).Where("id = ?", user.ID).Update("token_version", "v2").Error)
	status, body = do(t, app, request("/products", token))
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Contains(t, body.Error, "another device")
}
