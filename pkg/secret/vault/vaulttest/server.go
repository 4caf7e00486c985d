// Package vaulttest runs an in-process stand-in for the KV v2 secret engine.
package vaulttest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

type version struct {
	data      map[string]any
	createdAt time.Time
}

type Server struct {
	*httptest.Server
	Token string

	mu       sync.Mutex
	secrets  map[string][]version
	failWith int
}

// NewServer starts a fake store accepting only token. Close it when done.
func NewServer(token string) *Server {
	s := &Server{
		Token:   token,
		secrets: make(map[string][]version),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/auth/token/lookup-self", s.lookupSelf)
	mux.HandleFunc("PUT /v1/{mount}/data/{path...}", s.write)
	mux.HandleFunc("POST /v1/{mount}/data/{path...}", s.write)
	mux.HandleFunc("GET /v1/{mount}/data/{path...}", s.read)
	mux.HandleFunc("DELETE /v1/{mount}/metadata/{path...}", s.deleteMetadata)
	s.Server = httptest.NewServer(s.auth(mux))
	return s
}

// FailWith makes every secret operation answer with status until reset with 0.
func (s *Server) FailWith(status int) {
	s.mu.Lock()
	s.failWith = status
	s.mu.Unlock()
}

// Versions reports how many versions are kept for mount/path.
func (s *Server) Versions(mount, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.secrets[mount+"/"+path])
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (s *Server) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Vault-Token") != s.Token {
			writeJSON(w, http.StatusForbidden, map[string]any{"errors": []string{"permission denied"}})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) failure(w http.ResponseWriter) bool {
	s.mu.Lock()
	status := s.failWith
	s.mu.Unlock()
	if status == 0 {
		return false
	}
	writeJSON(w, status, map[string]any{"errors": []string{http.StatusText(status)}})
	return true
}

func (s *Server) lookupSelf(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{"id": s.Token, "policies": []string{"root"}},
	})
}

func metadata(v version, n int) map[string]any {
	return map[string]any{
		"created_time":    v.createdAt.Format(time.RFC3339Nano),
		"custom_metadata": nil,
		"deletion_time":   "",
		"destroyed":       false,
		"version":         n,
	}
}

func (s *Server) write(w http.ResponseWriter, r *http.Request) {
	if s.failure(w) {
		return
	}

	var body struct {
		Data map[string]any `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"errors": []string{err.Error()}})
		return
	}

	key := r.PathValue("mount") + "/" + r.PathValue("path")
	v := version{data: body.Data, createdAt: time.Now().UTC()}

	s.mu.Lock()
	s.secrets[key] = append(s.secrets[key], v)
	n := len(s.secrets[key])
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"data": metadata(v, n)})
}

func (s *Server) read(w http.ResponseWriter, r *http.Request) {
	if s.failure(w) {
		return
	}

	key := r.PathValue("mount") + "/" + r.PathValue("path")
	s.mu.Lock()
	versions := s.secrets[key]
	s.mu.Unlock()

	if len(versions) == 0 {
		writeJSON(w, http.StatusNotFound, map[string]any{"errors": []string{}})
		return
	}

	latest := versions[len(versions)-1]
	writeJSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{
			"data":     latest.data,
			"metadata": metadata(latest, len(versions)),
		},
	})
}

func (s *Server) deleteMetadata(w http.ResponseWriter, r *http.Request) {
	if s.failure(w) {
		return
	}

	key := r.PathValue("mount") + "/" + r.PathValue("path")
	s.mu.Lock()
	delete(s.secrets, key)
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}
