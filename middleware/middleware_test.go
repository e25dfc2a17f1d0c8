package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"leadengine/config"
	"leadengine/models"
	"leadengine/utils"
)

func TestCORS(t *testing.T) {
	app := fiber.New()
	app.Use(CORS(CORSConfig{
		AllowedOrigins:   []string{"https://site.example.com"},
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST"},
		MaxAge:           600,
	}))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

	req := httptest.NewRequest("OPTIONS", "/", nil)
	req.Header.Set("Origin", "https://site.example.com")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "https://site.example.com", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "600", resp.Header.Get("Access-Control-Max-Age"))
	assert.Equal(t, "GET,POST", resp.Header.Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Credentials"))
}

func TestOriginMatcher(t *testing.T) {
	m := newOriginMatcher([]string{"https://site.example.com/", "https://*.preview.example.com"})

	assert.True(t, m.allows("https://site.example.com"))
	assert.True(t, m.allows("https://pr-42.preview.example.com"))
	assert.False(t, m.allows("https://preview.example.com"))
	assert.False(t, m.allows("http://pr-42.preview.example.com"))
	assert.False(t, m.allows("https://evilpreview.example.com"))
	assert.False(t, m.allows(""))
}

func TestCORSAnyOrigin(t *testing.T) {
	app := fiber.New()
	app.Use(CORS(CORSConfig{AllowCredentials: true}))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Origin", "https://anywhere.test")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Credentials"))
}

func TestFormRateLimiter(t *testing.T) {
	app := fiber.New()
	app.Post("/form", FormRateLimiter(2, nil), func(c *fiber.Ctx) error { return c.SendString("ok") })

	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest("POST", "/form", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	}
	resp, err := app.Test(httptest.NewRequest("POST", "/form", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
}

func TestRateLimitStorageDisabled(t *testing.T) {
	assert.Nil(t, RateLimitStorage(config.RedisConfig{Enabled: false}))
}

func TestMetrics(t *testing.T) {
	app := fiber.New()
	app.Use(Metrics())
	app.Get("/things/:id", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusTeapot) })
	app.Get("/metrics", MetricsHandler())

	RecordProspectQualified("tier_2")
	RecordEmail("report", true)

	_, err := app.Test(httptest.NewRequest("GET", "/things/42", nil))
	require.NoError(t, err)

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `http_requests_total{method="GET",path="/things/:id",status="418"}`)
	assert.Contains(t, string(body), `prospects_qualified_total{tier="tier_2"}`)
	assert.Contains(t, string(body), `emails_sent_total{kind="report",status="sent"}`)
}

func newAdminDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

var adminColumns = []string{"id", "email", "password_hash", "token_version", "name", "is_active", "created_at", "updated_at"}

func TestProtected(t *testing.T) {
	config.AppConfig.JWTSecret = "middleware-secret"
	db, mock := newAdminDB(t)

	app := fiber.New()
	app.Get("/me", Protected(db), func(c *fiber.Ctx) error {
		admin := c.Locals("admin").(*models.AdminUser)
		return c.SendString(admin.Email)
	})

	access, refresh, err := utils.GenerateJWTToken(&models.AdminUser{Model: gorm.Model{ID: 1}, TokenVersion: 1})
	require.NoError(t, err)

	t.Run("missing token", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/me", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("bad format", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/me", nil)
		req.Header.Set("Authorization", "Token abc")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("refresh token rejected", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/me", nil)
		req.Header.Set("Authorization", "Bearer "+refresh)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("valid token", func(t *testing.T) {
		mock.ExpectQuery(`SELECT \* FROM "admin_users"`).
			WillReturnRows(sqlmock.NewRows(adminColumns).
				AddRow(1, "admin@example.com", "hash", 1, "Admin", true, time.Now(), time.Now()))

		req := httptest.NewRequest("GET", "/me", nil)
		req.Header.Set("Authorization", "Bearer "+access)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, "admin@example.com", string(body))
	})

	t.Run("stale token version", func(t *testing.T) {
		mock.ExpectQuery(`SELECT \* FROM "admin_users"`).
			WillReturnRows(sqlmock.NewRows(adminColumns).
				AddRow(1, "admin@example.com", "hash", 2, "Admin", true, time.Now(), time.Now()))

		req := httptest.NewRequest("GET", "/me", nil)
		req.AddCookie(&http.Cookie{Name: "access_token", Value: access})
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("inactive admin", func(t *testing.T) {
		mock.ExpectQuery(`SELECT \* FROM "admin_users"`).
			WillReturnRows(sqlmock.NewRows(adminColumns).
				AddRow(1, "admin@example.com", "hash", 1, "Admin", false, time.Now(), time.Now()))

		req := httptest.NewRequest("GET", "/me", nil)
		req.Header.Set("Authorization", "Bearer "+access)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
