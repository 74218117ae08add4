package controllers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const netflixBody = `{"name":"Netflix","day":15,"price":"12.5","type":"MONTHLY"}`

func createSubscription(t *testing.T, env *testEnv, cookie *http.Cookie, body string) map[string]interface{} {
	t.Helper()
	resp := env.do(t, http.MethodPost, "/api/subscriptions", body, cookie)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	return dataOf(t, resp)
}

func TestCreateSubscription(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t)

	data := createSubscription(t, env, cookie, netflixBody)
	assert.NotEmpty(t, data["id"])
	assert.Equal(t, "Netflix", data["name"])
	assert.Equal(t, "12.50", data["price"])
	assert.Equal(t, "MONTHLY", data["type"])
	assert.Equal(t, "D_1", data["reminder_start"])
	assert.Equal(t, true, data["active"])
	assert.Nil(t, data["month"])

	stored, err := env.insts.ListBySubscriptionID(context.Background(), data["id"].(string))
	require.NoError(t, err)
	require.NotEmpty(t, stored)
	assert.Equal(t, "2024-01-15", stored[0].Date.Format("2006-01-02"))
	assert.NotEmpty(t, env.gateway.Created())
}

func TestCreateSubscriptionValidation(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t)

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{name: "missing name", body: `{"day":1,"price":"1","type":"MONTHLY"}`, field: "name"},
		{name: "unknown type", body: `{"name":"x","day":1,"price":"1","type":"WEEKLY"}`, field: "type"},
		{name: "yearly without month", body: `{"name":"x","day":1,"price":"1","type":"YEARLY"}`, field: "month"},
		{name: "negative price", body: `{"name":"x","day":1,"price":"-1","type":"MONTHLY"}`, field: "price"},
		{name: "bad last day", body: `{"name":"x","day":1,"price":"1","type":"MONTHLY","last_day":"soon"}`, field: "last_day"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.do(t, http.MethodPost, "/api/subscriptions", tt.body, cookie)
			require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, tt.field, decode(t, resp)["field"])
		})
	}
	assert.Equal(t, 0, len(env.gateway.Created()))
}

func TestListSubscriptions(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t)

	createSubscription(t, env, cookie, netflixBody)
	createSubscription(t, env, cookie, `{"name":"Old gym","day":3,"price":"30","type":"MONTHLY","last_day":"2023-12-31"}`)

	resp := env.do(t, http.MethodGet, "/api/subscriptions", "", cookie)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Len(t, listOf(t, resp), 2)

	resp = env.do(t, http.MethodGet, "/api/subscriptions?activeOnly=true", "", cookie)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	list := listOf(t, resp)
	require.Len(t, list, 1)
	assert.Equal(t, "Netflix", list[0].(map[string]interface{})["name"])
}

func TestUpcomingSubscriptions(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t)
	createSubscription(t, env, cookie, netflixBody)

	resp := env.do(t, http.MethodGet, "/api/subscriptions/upcoming?days=10", "", cookie)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	list := listOf(t, resp)
	require.Len(t, list, 1)
	assert.Equal(t, "2024-01-15", list[0].(map[string]interface{})["next_payment_date"])

	resp = env.do(t, http.MethodGet, "/api/subscriptions/upcoming?days=2", "", cookie)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Empty(t, listOf(t, resp))

	resp = env.do(t, http.MethodGet, "/api/subscriptions/upcoming?days=abc", "", cookie)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestUpdateSubscription(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t)
	created := createSubscription(t, env, cookie, `{"name":"Netflix","description":"family plan","day":15,"price":"12.5","type":"MONTHLY"}`)
	path := "/api/subscriptions/" + created["id"].(string)

	resp := env.do(t, http.MethodPut, path, `{"name":"Netflix HD","description":null,"price":"15"}`, cookie)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	data := dataOf(t, resp)
	assert.Equal(t, "Netflix HD", data["name"])
	assert.Nil(t, data["description"])
	assert.Equal(t, "15.00", data["price"])
	assert.Equal(t, float64(15), data["day"])

	resp = env.do(t, http.MethodPut, path, `{"type":"YEARLY"}`, cookie)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "month", decode(t, resp)["field"])
}

func TestSubscriptionOwnership(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t)
	created := createSubscription(t, env, cookie, netflixBody)

	sub, err := env.subs.GetByID(context.Background(), created["id"].(string))
	require.NoError(t, err)
	sub.UserID = "someone-else"
	require.NoError(t, env.subs.Update(context.Background(), sub))

	path := "/api/subscriptions/" + sub.ID
	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		resp := env.do(t, method, path, "", cookie)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode, method)
	}
	resp := env.do(t, http.MethodPut, path, `{"name":"mine"}`, cookie)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestDeleteSubscription(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t)
	created := createSubscription(t, env, cookie, netflixBody)
	path := "/api/subscriptions/" + created["id"].(string)
	events := len(env.gateway.Created())

	resp := env.do(t, http.MethodDelete, path, "", cookie)
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.Len(t, env.gateway.Deleted(), events)
	assert.Equal(t, 0, env.insts.Len())

	resp = env.do(t, http.MethodGet, path, "", cookie)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
