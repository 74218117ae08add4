package controllers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/template/html/v2"
	"github.com/markbates/goth"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/SubTrack/app/repository/memory"
	"github.com/ManuelReschke/SubTrack/internal/pkg/calendar/calendartest"
	"github.com/ManuelReschke/SubTrack/internal/pkg/credentials"
	"github.com/ManuelReschke/SubTrack/internal/pkg/installments"
	"github.com/ManuelReschke/SubTrack/internal/pkg/middleware"
	"github.com/ManuelReschke/SubTrack/internal/pkg/security"
	appsession "github.com/ManuelReschke/SubTrack/internal/pkg/session"
	"github.com/ManuelReschke/SubTrack/internal/pkg/statistics"
	"github.com/ManuelReschke/SubTrack/internal/pkg/subscriptions"
	"github.com/ManuelReschke/SubTrack/internal/pkg/users"
)

var testNow = time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	app     *fiber.App
	auth    *AuthController
	users   *memory.Users
	subs    *memory.Subscriptions
	insts   *memory.Installments
	gateway *calendartest.Gateway
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	box, err := security.NewTokenBox("test-secret")
	require.NoError(t, err)

	userRepo := memory.NewUsers()
	subs := memory.NewSubscriptions()
	insts := memory.NewInstallments(subs)
	subs.Installments = insts
	store := credentials.NewStore(memory.NewProviderAccounts(), box)
	gateway := calendartest.NewGateway()

	deps := installments.Deps{
		Installments:  insts,
		Subscriptions: subs,
		Users:         userRepo,
		Credentials:   store,
		Gateway:       gateway,
	}
	engine := installments.NewEngine(deps, installments.Config{
		APIURL: "http://subtrack.test",
		Now:    func() time.Time { return testNow },
	})
	stats := statistics.NewService(subs, insts, engine, nil)
	sessions := session.New(appsession.Options(false, nil))

	auth := NewAuthController(users.NewService(userRepo, store, "IDR"), sessions)
	auth.completeAuth = func(c *fiber.Ctx) (goth.User, error) {
		return goth.User{
			UserID:       "g-1",
			Email:        "jane@example.com",
			Name:         "Jane",
			AccessToken:  "at-1",
			RefreshToken: "rt-1",
		}, nil
	}
	userCtl := NewUserController(users.NewService(userRepo, store, "IDR"))
	subCtl := NewSubscriptionController(subscriptions.NewService(deps, engine), stats)
	instCtl := NewInstallmentController(installments.NewService(deps, engine), stats)
	dashCtl := NewDashboardController(stats)

	app := fiber.New(fiber.Config{Views: html.New("../../views", ".html")})
	app.Use(middleware.UserContextMiddleware(sessions))

	app.Get("/auth/me", auth.HandleMe)
	app.Post("/auth/logout", auth.HandleLogout)
	app.Get("/auth/:provider/callback", auth.HandleOAuthCallback)

	app.Get("/installments/confirm", instCtl.HandleConfirmPage)
	app.Post("/installments/confirm", instCtl.HandleConfirmForm)

	api := app.Group("/api")
	api.Post("/installments/confirm", instCtl.HandleConfirm)
	requireAuth := middleware.RequireAPISessionAuth
	api.Get("/users/me", requireAuth, userCtl.HandleGetMe)
	api.Put("/users/me", requireAuth, userCtl.HandleUpdateMe)
	api.Get("/subscriptions", requireAuth, subCtl.HandleList)
	api.Post("/subscriptions", requireAuth, subCtl.HandleCreate)
	api.Get("/subscriptions/upcoming", requireAuth, subCtl.HandleUpcoming)
	api.Get("/subscriptions/:id", requireAuth, subCtl.HandleGet)
	api.Put("/subscriptions/:id", requireAuth, subCtl.HandleUpdate)
	api.Delete("/subscriptions/:id", requireAuth, subCtl.HandleDelete)
	api.Get("/installments", requireAuth, instCtl.HandleList)
	api.Put("/installments/:id/paid", requireAuth, instCtl.HandleMarkPaid)
	api.Get("/dashboard", requireAuth, dashCtl.HandleDashboard)

	return &testEnv{app: app, auth: auth, users: userRepo, subs: subs, insts: insts, gateway: gateway}
}

// login runs the OAuth callback and returns the session cookie.
func (e *testEnv) login(t *testing.T) *http.Cookie {
	t.Helper()
	resp := e.do(t, http.MethodGet, "/auth/google/callback", "", nil)
	require.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	for _, c := range resp.Cookies() {
		if c.Name == "session_id" {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func (e *testEnv) do(t *testing.T, method, path, body string, cookie *http.Cookie) *http.Response {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func dataOf(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	body := decode(t, resp)
	data, ok := body["data"].(map[string]interface{})
	require.True(t, ok, "response has no data object: %v", body)
	return data
}

func listOf(t *testing.T, resp *http.Response) []interface{} {
	t.Helper()
	body := decode(t, resp)
	data, ok := body["data"].([]interface{})
	require.True(t, ok, "response has no data list: %v", body)
	return data
}
