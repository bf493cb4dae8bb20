// Package apitest drives the full route table through fiber's app.Test.
package apitest

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"lms/middleware"
	"lms/routers"
	"lms/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

// Envelope is the {status, message, data} response body.
type Envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Decode unmarshals Data into dst.
func (e Envelope) Decode(t testing.TB, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(e.Data, dst), "data: %s", e.Data)
}

func NewApp() *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler})
	routers.Setup(app)
	return app
}

// Client sends requests to App, carrying the session cookie once logged in.
type Client struct {
	T      testing.TB
	App    *fiber.App
	Cookie *http.Cookie
	Header map[string]string
}

func NewClient(t testing.TB, app *fiber.App) *Client {
	return &Client{T: t, App: app, Header: map[string]string{}}
}

// Login signs in as email with testutil.Password and keeps the cookie.
func Login(t testing.TB, app *fiber.App, email string) *Client {
	t.Helper()
	c := NewClient(t, app)
	resp, env := c.JSON(http.MethodPost, "/auth/login", map[string]string{
		"email":    email,
		"password": testutil.Password,
		"deviceId": "test-device",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode, env.Message)
	require.NotNil(t, c.Cookie, "login must set the session cookie")
	return c
}

func (c *Client) do(req *http.Request) (*http.Response, Envelope) {
	c.T.Helper()
	if c.Cookie != nil {
		req.AddCookie(c.Cookie)
	}
	for k, v := range c.Header {
		req.Header.Set(k, v)
	}
	resp, err := c.App.Test(req, -1)
	require.NoError(c.T, err)

	for _, ck := range resp.Cookies() {
		if ck.Name == middleware.SessionCookie {
			if ck.Value == "" {
				c.Cookie = nil
			} else {
				c.Cookie = &http.Cookie{Name: ck.Name, Value: ck.Value}
			}
		}
	}

	var env Envelope
	body, err := io.ReadAll(resp.Body)
	require.NoError(c.T, err)
	if len(body) > 0 {
		require.NoError(c.T, json.Unmarshal(body, &env), "body: %s", body)
	}
	return resp, env
}

// JSON sends body (nil for none) as JSON.
func (c *Client) JSON(method, path string, body interface{}) (*http.Response, Envelope) {
	c.T.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.T, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req)
}

// File is one file part of a multipart request.
type File struct {
	Field   string
	Name    string
	Content []byte
}

// Multipart sends fields (repeated keys allowed) and files as multipart/form-data.
func (c *Client) Multipart(method, path string, fields map[string][]string, files ...File) (*http.Response, Envelope) {
	c.T.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, values := range fields {
		for _, v := range values {
			require.NoError(c.T, w.WriteField(k, v))
		}
	}
	for _, f := range files {
		part, err := w.CreateFormFile(f.Field, f.Name)
		require.NoError(c.T, err)
		_, err = part.Write(f.Content)
		require.NoError(c.T, err)
	}
	require.NoError(c.T, w.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return c.do(req)
}

// PNG is a minimal valid PNG image.
var PNG = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a,
	0x00, 0x00, 0x00, 0x0d, 0x49, 0x48, 0x44, 0x52,
	0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4,
	0x89, 0x00, 0x00, 0x00, 0x0a, 0x49, 0x44, 0x41,
	0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00,
	0x00, 0x00, 0x00, 0x49, 0x45, 0x4e, 0x44, 0xae,
	0x42, 0x60, 0x82,
}

// PDF is a minimal PDF header, enough for content sniffing.
var PDF = []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n<<>>\n%%EOF\n")
