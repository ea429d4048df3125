package storage

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/pashagolub/pgxmock/v3"
)

func asUser(id string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("user_id", id)
		return c.Next()
	}
}

func TestAvatarUploadAndServe(t *testing.T) {
	mock := newMock(t)
	mock.ExpectExec(`INSERT INTO storage_objects`).
		WithArgs(pgxmock.AnyArg(), "user-1", pgxmock.AnyArg(), KindAvatar).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	app := fiber.New()
	store := NewDiskStore(t.TempDir(), "http://localhost/storage")
	RegisterRoutes(app.Group("/storage"), NewService(mock, store, nil), asUser("user-1"))

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, _ := w.CreateFormFile("file", "me.png")
	_, _ = part.Write([]byte("png-bytes"))
	_ = w.Close()

	req := httptest.NewRequest(http.MethodPost, "/storage/avatars", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusCreated {
		t.Fatalf("upload status: %v", err)
	}
	var out struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || out.ID == "" {
		t.Fatalf("decode: %v", err)
	}

	path := strings.TrimPrefix(out.URL, "http://localhost")
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, path, nil))
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("serve status: %v", err)
	}
	served, _ := io.ReadAll(resp.Body)
	if string(served) != "png-bytes" {
		t.Fatalf("unexpected body %q", served)
	}
}

func TestAvatarUploadMissingFile(t *testing.T) {
	app := fiber.New()
	RegisterRoutes(app.Group("/storage"), NewService(nil, NewDiskStore(t.TempDir(), "http://x"), nil), asUser("user-1"))

	resp, _ := app.Test(httptest.NewRequest(http.MethodPost, "/storage/avatars", nil))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad request")
	}
}
