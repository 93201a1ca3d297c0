package web

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeNext(t *testing.T) {
	cases := map[string]string{
		"":                     "/",
		"/reasons":             "/reasons",
		"/pastwork/1/edit?x=1": "/pastwork/1/edit?x=1",
		"//evil.example":       "/",
		"/\\evil.example":      "/",
		"https://evil.example": "/",
		"reasons":              "/",
	}
	for in, want := range cases {
		assert.Equal(t, want, safeNext(in), in)
	}
}

func TestIPLimiter(t *testing.T) {
	l := newIPLimiter(time.Minute, 2)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"), "burst exhausted")
	assert.True(t, l.Allow("b"), "buckets are per client")

	now = now.Add(time.Minute)
	assert.True(t, l.Allow("a"), "one token refilled")
	assert.False(t, l.Allow("a"))

	now = now.Add(time.Hour)
	l.Allow("c")
	assert.Equal(t, 1, l.size(), "idle clients are swept")
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "203.0.113.9:5555"
	assert.Equal(t, "203.0.113.9", clientIP(r))

	r.RemoteAddr = "unix"
	assert.Equal(t, "unix", clientIP(r))
}

func TestFormDecoder(t *testing.T) {
	d := newFormDecoder()

	post := func(v url.Values) *http.Request {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(v.Encode()))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return r
	}

	var pw pastWorkForm
	errs, err := d.decode(post(url.Values{
		"name":        {"  Tracker  "},
		"description": {strings.Repeat("d", 76)},
		"github_link": {"github.com/x"},
		"page_link":   {""},
		"csrf":        {"ignored"},
	}), &pw)
	require.NoError(t, err)
	assert.Equal(t, "Tracker", pw.Name)
	assert.Equal(t, "Ensure this value has at most 75 characters (it has 76).", errs.Get("description"))
	assert.Equal(t, "Enter a valid URL.", errs.Get("github_link"))
	assert.False(t, errs.Has("page_link"))
	assert.False(t, errs.Has("name"))

	var mf messageForm
	errs, err = d.decode(post(url.Values{"reason": {"abc"}, "name": {""}, "email": {"x@example.com"}, "message": {"hi"}}), &mf)
	require.NoError(t, err)
	assert.Equal(t, "Enter a valid value.", errs.Get("reason"))
	assert.Equal(t, "This field is required.", errs.Get("name"))
	assert.False(t, errs.Has("email"))
}

func TestWebLinkValidation(t *testing.T) {
	d := newFormDecoder()

	cases := []struct {
		link string
		ok   bool
	}{
		{"https://github.com/example/app", true},
		{"http://example.com", true},
		{"FTP://files.example.com/pub", true},
		{"ftps://files.example.com", true},
		{"javascript:alert(1)", false},
		{"mailto:someone@example.com", false},
		{"data:text/html,hi", false},
		{"https://", false},
		{"/relative/path", false},
	}
	for _, c := range cases {
		t.Run(c.link, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(url.Values{
				"name":        {"n"},
				"description": {"d"},
				"github_link": {c.link},
			}.Encode()))
			r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

			var pw pastWorkForm
			errs, err := d.decode(r, &pw)
			require.NoError(t, err)
			assert.Equal(t, !c.ok, errs.Has("github_link"))
			if !c.ok {
				assert.Equal(t, "Enter a valid URL.", errs.Get("github_link"))
			}
		})
	}
}
