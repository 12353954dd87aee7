package server

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"messenger/internal/config"
	"messenger/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Env:                  "test",
		Port:                 "0",
		JWTSecret:            "test-secret-at-least-32-characters!!",
		JWTTTLHours:          1,
		AllowedOrigins:       "http://localhost:5173",
		ImageStore:           "disk",
		ImageBaseURL:         "http://images.test",
		ImageMaxUploadSizeMB: 5,
		AvatarSize:           64,
	}
}

func newTestApp(t *testing.T) (*fiber.App, *testutil.ImageStoreStub) {
	t.Helper()
	images := testutil.NewImageStoreStub()
	s := NewServer(testConfig(), testutil.NewTestDB(t), nil, images)
	return s.App(), images
}

type apiResponse struct {
	Status int
	Body   []byte
}

func (r apiResponse) decode(t *testing.T, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.Body, v), string(r.Body))
}

func (r apiResponse) errorCode(t *testing.T) string {
	t.Helper()
	var body struct {
		Code string `json:"code"`
	}
	r.decode(t, &body)
	return body.Code
}

func do(t *testing.T, app *fiber.App, method, path, token string, body any) apiResponse {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return send(t, app, req)
}

func send(t *testing.T, app *fiber.App, req *http.Request) apiResponse {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return apiResponse{Status: resp.StatusCode, Body: raw}
}

// signup registers username and returns its token and id.
func signup(t *testing.T, app *fiber.App, username string) (string, uint) {
	t.Helper()
	res := do(t, app, http.MethodPost, "/api/signup", "", map[string]string{
		"username":        username,
		"email":           username + "@example.com",
		"password":        "password123",
		"confirmPassword": "password123",
	})
	require.Equal(t, http.StatusCreated, res.Status, string(res.Body))

	var out struct {
		Token string `json:"token"`
		User  struct {
			ID uint `json:"id"`
		} `json:"user"`
	}
	res.decode(t, &out)
	require.NotEmpty(t, out.Token)
	return out.Token, out.User.ID
}

func TestHealthChecks(t *testing.T) {
	app, _ := newTestApp(t)

	assert200 := func(path string) {
		res := do(t, app, http.MethodGet, path, "", nil)
		require.Equal(t, http.StatusOK, res.Status, path)
	}
	assert200("/health/live")
	assert200("/health/ready")
	assert200("/metrics")

	var ready struct {
		Checks map[string]string `json:"checks"`
	}
	do(t, app, http.MethodGet, "/health/ready", "", nil).decode(t, &ready)
	require.Equal(t, "healthy", ready.Checks["database"])
	require.Equal(t, "disabled", ready.Checks["redis"])
}

func TestUnknownRouteUsesErrorShape(t *testing.T) {
	app, _ := newTestApp(t)

	res := do(t, app, http.MethodGet, "/api/nope", "", nil)
	require.Equal(t, http.StatusUnauthorized, res.Status)
	require.Equal(t, "TOKEN_MISSING", res.errorCode(t))

	res = do(t, app, http.MethodGet, "/nope", "", nil)
	require.Equal(t, http.StatusNotFound, res.Status)
	require.Equal(t, "NOT_FOUND", res.errorCode(t))
}
