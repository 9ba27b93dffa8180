package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"cinelog/internal/config"
	"cinelog/internal/models"
	"cinelog/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testServer struct {
	*Server
	app *fiber.App
	db  *gorm.DB
}

func newTestServer(t *testing.T, flags string) *testServer {
	t.Helper()
	t.Setenv("APP_ENV", "test")

	db := testutil.NewTestDB(t)
	cfg := &config.Config{
		JWTSecret:    "test-secret",
		JWTExpiresIn: time.Hour,
		UploadDir:    t.TempDir(),
		FeatureFlags: flags,
		Env:          "test",
	}
	s, err := NewServerWithDeps(cfg, db, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.hub.Shutdown(t.Context()) })

	return &testServer{Server: s, app: s.NewApp(), db: db}
}

// do sends a request and decodes the JSON response body into a map.
func (ts *testServer) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	return ts.send(t, req, token)
}

func (ts *testServer) send(t *testing.T, req *http.Request, token string) (int, map[string]any) {
	t.Helper()
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	out := map[string]any{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &out)
	}
	return resp.StatusCode, out
}

// register creates an account through the API and returns its token and id.
func (ts *testServer) register(t *testing.T, nickname string) (string, uint) {
	t.Helper()
	status, body := ts.do(t, http.MethodPost, "/api/auth/register", "", fiber.Map{
		"email":    nickname + "@example.com",
		"password": "secret123",
		"nickname": nickname,
	})
	require.Equal(t, http.StatusCreated, status, body)
	user := body["user"].(map[string]any)
	return body["token"].(string), uint(user["id"].(float64))
}

func (ts *testServer) promote(t *testing.T, userID uint) {
	t.Helper()
	require.NoError(t, ts.db.Model(&models.User{}).Where("id = ?", userID).Update("is_admin", true).Error)
}

type formFile struct {
	field    string
	filename string
	content  []byte
}

func multipartRequest(t *testing.T, method, path string, values map[string]string, files ...formFile) *http.Request {
	t.Helper()
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for k, v := range values {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.field, f.filename))
		h.Set("Content-Type", "image/png")
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(f.content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, path, buf)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	return req
}

func fieldNames(body map[string]any) []string {
	raw, _ := body["errors"].([]any)
	names := make([]string, 0, len(raw))
	for _, e := range raw {
		names = append(names, e.(map[string]any)["field"].(string))
	}
	return names
}

func testRequest(method, path string) *http.Request {
	return httptest.NewRequest(method, path, nil)
}
