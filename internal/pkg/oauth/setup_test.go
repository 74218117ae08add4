package oauth

import (
	"net/url"
	"testing"

	"github.com/markbates/goth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallbackURL(t *testing.T) {
	assert.Equal(t, "https://subtrack.example.com/auth/google/callback", Config{BaseURL: "https://subtrack.example.com/"}.CallbackURL())
}

func TestGoogleProviderRequestsCalendarOffline(t *testing.T) {
	p := NewGoogleProvider(Config{GoogleKey: "key", GoogleSecret: "secret", BaseURL: "http://localhost:4000"})

	sess, err := p.BeginAuth("state-1")
	require.NoError(t, err)
	authURL, err := sess.GetAuthURL()
	require.NoError(t, err)

	u, err := url.Parse(authURL)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.Equal(t, "consent", q.Get("prompt"))
	assert.Equal(t, "http://localhost:4000/auth/google/callback", q.Get("redirect_uri"))
	assert.Contains(t, q.Get("scope"), CalendarScope)
	assert.Contains(t, q.Get("scope"), "email")
}

func TestSetupRegistersGoogle(t *testing.T) {
	Setup(Config{GoogleKey: "key", GoogleSecret: "secret", BaseURL: "http://localhost:4000"})
	t.Cleanup(goth.ClearProviders)

	p, err := goth.GetProvider("google")
	require.NoError(t, err)
	assert.Equal(t, "google", p.Name())
}
