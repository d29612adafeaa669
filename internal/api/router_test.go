package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/kmehta/taskhub-be/internal/auth"
	"github.com/kmehta/taskhub-be/internal/database"
	"github.com/kmehta/taskhub-be/internal/mail"
	"github.com/kmehta/taskhub-be/internal/services"
)

func newTestRouter(t *testing.T) *chi.Mux {
	t.Helper()

	db, err := database.New(":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { db.Close() })

	tokens := auth.NewTokenService("api-test-secret")
	userService := services.NewUserService(db, tokens, mail.Noop{})
	taskService := services.NewTaskService(db)
	return NewRouter(userService, taskService, tokens, "http://localhost:3000")
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

// registerUser signs up a fresh account and returns its id and session token.
func registerUser(t *testing.T, router http.Handler, email string) (string, string) {
	t.Helper()

	rec := doJSON(t, router, http.MethodPost, "/users", "", map[string]any{
		"name":     "Priya Sharma",
		"email":    email,
		"password": "longhorse42",
		"age":      30,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := decodeBody(t, rec)
	user, ok := body["user"].(map[string]any)
	require.True(t, ok)
	id, _ := user["id"].(string)
	token, _ := body["token"].(string)
	require.NotEmpty(t, id)
	require.NotEmpty(t, token)
	return id, token
}

func makePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8((x + y) % 256), G: 99, B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func uploadAvatar(t *testing.T, router http.Handler, token, filename string, data []byte) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("avatar", filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/users/me/avatar", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func createTask(t *testing.T, router http.Handler, token, description string, completed bool) string {
	t.Helper()

	rec := doJSON(t, router, http.MethodPost, "/tasks", token, map[string]any{
		"description": description,
		"completed":   completed,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id, _ := decodeBody(t, rec)["id"].(string)
	require.NotEmpty(t, id)
	return id
}

func listDescriptions(t *testing.T, router http.Handler, token, query string) []string {
	t.Helper()

	rec := doJSON(t, router, http.MethodGet, "/tasks"+query, token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var tasks []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tasks))
	out := make([]string, len(tasks))
	for i, task := range tasks {
		out[i], _ = task["description"].(string)
	}
	return out
}

func uniqueEmail(i int) string {
	return fmt.Sprintf("user%d@example.com", i)
}
