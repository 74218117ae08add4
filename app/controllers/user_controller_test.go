package controllers

import (
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetMe(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t)

	resp := env.do(t, http.MethodGet, "/api/users/me", "", cookie)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	data := dataOf(t, resp)
	assert.Equal(t, "jane@example.com", data["email"])
	assert.Nil(t, data["birthdate"])
	assert.Nil(t, data["age"])
	assert.NotNil(t, data["last_login_at"])
}

func TestUpdateMe(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t)

	resp := env.do(t, http.MethodPut, "/api/users/me", `{"name":"Jane Doe","currency":"usd","country":"Germany","birthdate":"1990-05-01"}`, cookie)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	data := dataOf(t, resp)
	assert.Equal(t, "Jane Doe", data["name"])
	assert.Equal(t, "USD", data["currency"])
	assert.Equal(t, "Germany", data["country"])
	assert.Equal(t, "1990-05-01", data["birthdate"])
	assert.NotNil(t, data["age"])

	resp = env.do(t, http.MethodPut, "/api/users/me", `{"country":null}`, cookie)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	data = dataOf(t, resp)
	assert.Nil(t, data["country"])
	assert.Equal(t, "Jane Doe", data["name"])
}

func TestUpdateMeRejectsInvalidInput(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t)

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{name: "bad birthdate", body: `{"birthdate":"yesterday"}`, field: "birthdate"},
		{name: "unknown currency", body: `{"currency":"ZZZ"}`, field: "currency"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.do(t, http.MethodPut, "/api/users/me", tt.body, cookie)
			require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
			body := decode(t, resp)
			assert.Equal(t, "validation_error", body["error"])
			assert.Equal(t, tt.field, body["field"])
		})
	}
}

func TestUpdateMeMalformedBody(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t)

	resp := env.do(t, http.MethodPut, "/api/users/me", `{"name":`, cookie)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
