package service

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knowhive/knowhive/app/core"
	"github.com/knowhive/knowhive/app/core/coretest"
	"github.com/knowhive/knowhive/cmd/service/handler"
	"github.com/knowhive/knowhive/pkg/security"
)

const password = "Secr3t!pass"

type envelope struct {
	Message   string              `json:"message"`
	Data      json.RawMessage     `json:"data"`
	Errors    map[string][]string `json:"errors"`
	RequestID string              `json:"request_id"`
}

type testServer struct {
	t      *testing.T
	core   *core.Core
	engine *gin.Engine
	token  string
}

func newTestServer(t *testing.T) *testServer {
	gin.SetMode(gin.TestMode)
	env := coretest.New(t, nil)
	srv := &handler.HttpSrv{Core: env.Core, Engine: env.Core.HttpEngine()}
	setupHttpRouter(srv)
	return &testServer{t: t, core: env.Core, engine: srv.Engine}
}

func (s *testServer) do(req *http.Request) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	if s.token != "" {
		req.Header.Set(security.TOKEN_KEY, security.TOKEN_PREFIX+s.token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var body envelope
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &body))
	}
	return w, body
}

func (s *testServer) json(method, path string, payload any) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	var buf bytes.Buffer
	if payload != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(payload))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return s.do(req)
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func (s *testServer) signUp(email string) string {
	s.t.Helper()
	w, body := s.json(http.MethodPost, "/api/v1/user/create", gin.H{
		"first_name": "Ada",
		"last_name":  "Lovelace",
		"email":      email,
		"password":   password,
	})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	id := decode[map[string]any](s.t, body.Data)["id"].(string)

	w, body = s.json(http.MethodPost, "/api/v1/user/login", gin.H{"email": email, "password": password})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	s.token = decode[map[string]any](s.t, body.Data)["access_token"].(string)
	return id
}

func TestCreateUser(t *testing.T) {
	s := newTestServer(t)
	payload := gin.H{
		"first_name": "Ann",
		"last_name":  "Lee",
		"email":      "ann@x.com",
		"password":   "Str0ng!Pass",
	}

	w, body := s.json(http.MethodPost, "/api/v1/user/create", payload)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "Created", body.Message)
	assert.NotEmpty(t, body.RequestID)

	data := decode[map[string]any](t, body.Data)
	assert.NotEmpty(t, data["id"])
	assert.Equal(t, "ann@x.com", data["email"])
	assert.NotContains(t, data, "password")
	assert.NotContains(t, w.Body.String(), "Str0ng!Pass")

	w, body = s.json(http.MethodPost, "/api/v1/user/create", payload)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Validation failed", body.Message)
	assert.Equal(t, []string{"Email already registered"}, body.Errors["email"])
	n, err := s.core.Store().UserStore().Count(context.Background(), map[string]any{"email": "ann@x.com"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	s.signUp("ada@example.com")
	w, body = s.json(http.MethodGet, "/api/v1/user/"+data["id"].(string), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCreateUser_BindingRules(t *testing.T) {
	s := newTestServer(t)

	w, body := s.json(http.MethodPost, "/api/v1/user/create", gin.H{
		"first_name": "Ada",
		"last_name":  "Lovelace",
		"email":      "Ada.L@example.com",
		"password":   "weak",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, body.Errors, "email")
	assert.Contains(t, body.Errors, "password")
	assert.NotContains(t, body.Errors, "first_name")
}

func TestAuthorization(t *testing.T) {
	s := newTestServer(t)

	w, body := s.json(http.MethodGet, "/api/v1/llm/list", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Unauthorized", body.Message)

	s.token = "garbage"
	w, _ = s.json(http.MethodGet, "/api/v1/llm/list", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = s.json(http.MethodPost, "/api/v1/user/login", gin.H{"email": "nobody@example.com", "password": password})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	id := s.signUp("ada@example.com")
	w, body = s.json(http.MethodGet, "/api/v1/user/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Success", body.Message)
	assert.Equal(t, id, decode[map[string]any](t, body.Data)["id"])

	other := newTestServerSharing(s)
	other.signUp("grace@example.com")
	w, _ = other.json(http.MethodGet, "/api/v1/user/"+id, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

// newTestServerSharing returns a client on the same engine with its own token.
func newTestServerSharing(s *testServer) *testServer {
	return &testServer{t: s.t, core: s.core, engine: s.engine}
}

func TestKnowledgeBaseFlow(t *testing.T) {
	s := newTestServer(t)
	s.signUp("ada@example.com")

	w, body := s.json(http.MethodPost, "/api/v1/llm/create", gin.H{
		"provider":   "openai",
		"model_name": "gpt-4o-mini",
		"api_key":    "sk-test",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotContains(t, w.Body.String(), "sk-test")
	llmID := decode[map[string]any](t, body.Data)["id"].(string)

	w, body = s.json(http.MethodPost, "/api/v1/kb/create", gin.H{
		"llm_model_id":       llmID,
		"embedding_model_id": llmID,
		"name":               "papers",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	kbID := decode[map[string]any](t, body.Data)["id"].(string)

	w, body = s.json(http.MethodGet, "/api/v1/kb/search?query=pap", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, decode[[]map[string]any](t, body.Data), 1)

	w, _ = s.json(http.MethodGet, "/api/v1/kb/unknown", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	var form bytes.Buffer
	mw := multipart.NewWriter(&form)
	part, err := mw.CreateFormFile("file", "notes.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("hello knowledge"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/kb/"+kbID+"/document/upload", &form)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w, body = s.do(req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	doc := decode[map[string]any](t, body.Data)
	assert.Equal(t, "notes.txt", doc["name"])
	assert.Equal(t, "pending", doc["status"])
	docID := doc["id"].(string)

	w, _ = s.do(httptest.NewRequest(http.MethodGet, "/api/v1/kb/"+kbID+"/document/"+docID+"/file", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hello knowledge", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "notes.txt")

	w, body = s.json(http.MethodPut, "/api/v1/kb/"+kbID+"/document/action/"+docID+"?action=ready", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Document status cannot change from pending to ready", body.Message)

	w, body = s.json(http.MethodPost, "/api/v1/kb/"+kbID+"/document/"+docID+"/chunk/create", gin.H{"content": "hello"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	chunkID := decode[map[string]any](t, body.Data)["id"].(string)

	w, _ = s.json(http.MethodPut, "/api/v1/kb/"+kbID+"/document/"+docID+"/chunk/action/"+chunkID+"?action=explode", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.json(http.MethodPut, "/api/v1/kb/action/"+kbID+"?action=sync", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = s.json(http.MethodDelete, "/api/v1/kb/"+kbID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = s.json(http.MethodGet, "/api/v1/kb/"+kbID+"/document/"+docID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProbes(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/liveliness", "/readiness", "/health"} {
		w, body := s.json(http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.Equal(t, "Success", body.Message, path)
	}

	w, _ := s.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "knowhive_core_api_response_time")

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/user/create", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w, _ = s.do(req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}
