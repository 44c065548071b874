package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"testing"

	"ai-docview-be/internal/dto"
	"ai-docview-be/internal/entity"
	"ai-docview-be/internal/pkg/serverutils"
	"ai-docview-be/internal/service"
	"ai-docview-be/pkg/view"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubService overrides only what the tests touch; anything else panics.
type stubService struct {
	service.IDocumentService
	ingested *dto.IngestDocumentRequest
}

func (s *stubService) ProcessDocument(ctx context.Context, req *dto.IngestDocumentRequest) (*dto.ProcessDocumentResponse, error) {
	s.ingested = req
	return &dto.ProcessDocumentResponse{DocumentId: "doc-1", PrimaryView: "qa"}, nil
}

func (s *stubService) GetView(ctx context.Context, documentId string, name string) (*dto.ViewResultResponse, error) {
	return nil, fmt.Errorf("%w: %s", service.ErrViewNotReady, name)
}

func (s *stubService) SwitchView(ctx context.Context, documentId string, target string) (*service.SwitchResult, error) {
	return &service.SwitchResult{
		View:      view.KindSystem,
		FromCache: true,
		Result:    &entity.ViewResult{DocumentId: documentId, View: view.KindSystem, ResultData: view.ResultData{"components": []interface{}{}}},
	}, nil
}

func newApp(svc service.IDocumentService) *fiber.App {
	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware())
	NewDocumentController(svc).RegisterRoutes(app.Group("/api"), serverutils.JwtMiddleware(""))
	return app
}

func decode(t *testing.T, body io.Reader) map[string]interface{} {
	t.Helper()
	raw, err := io.ReadAll(body)
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestIngest_JSON(t *testing.T) {
	svc := &stubService{}
	req := httptest.NewRequest("POST", "/api/document/v1", bytes.NewBufferString(`{"content":"hello"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := newApp(svc).Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.Equal(t, "hello", svc.ingested.Content)

	body := decode(t, resp.Body)
	assert.Equal(t, "doc-1", body["data"].(map[string]interface{})["document_id"])
}

func TestIngest_Multipart(t *testing.T) {
	svc := &stubService{}
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("document_id", "doc-9"))
	part, err := w.CreateFormFile("file", "notes.md")
	require.NoError(t, err)
	_, _ = part.Write([]byte("# Title\n\nBody"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/api/document/v1", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := newApp(svc).Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.Equal(t, "doc-9", svc.ingested.DocumentId)
	assert.Equal(t, "notes.md", svc.ingested.Filename)
	assert.Equal(t, "# Title\n\nBody", svc.ingested.Content)
}

func TestIngest_ValidationFails(t *testing.T) {
	req := httptest.NewRequest("POST", "/api/document/v1", bytes.NewBufferString(`{"filename":"a.txt"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := newApp(&stubService{}).Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestView_NotReadyIs404(t *testing.T) {
	resp, err := newApp(&stubService{}).Test(httptest.NewRequest("GET", "/api/document/v1/doc-1/views/system", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestSwitch(t *testing.T) {
	req := httptest.NewRequest("POST", "/api/document/v1/doc-1/switch", bytes.NewBufferString(`{"view":"architecture"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := newApp(&stubService{}).Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	data := decode(t, resp.Body)["data"].(map[string]interface{})
	assert.Equal(t, "system", data["view"])
	assert.Equal(t, true, data["from_cache"])
	assert.Equal(t, "doc-1", data["result"].(map[string]interface{})["document_id"])
}
