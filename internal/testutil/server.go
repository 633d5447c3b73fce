package testutil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/chazuruo/pdeck/internal/models"
)

// Server exposes a FakeCollection over the collection service's HTTP API.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	requests []*http.Request
}

// NewServer starts an HTTP server backed by fake and closes it when the test ends.
// Unknown ids answer 200 with {"error": "..."} like the real service;
// injected failures answer 500 with {"detail": "..."}.
func NewServer(t *testing.T, fake *FakeCollection) *Server {
	t.Helper()

	s := &Server{}
	mux := http.NewServeMux()

	mux.HandleFunc("GET /prompts", func(w http.ResponseWriter, r *http.Request) {
		prompts, err := fake.ListPrompts(r.Context(), r.URL.Query().Get("search"))
		reply(w, prompts, err)
	})
	mux.HandleFunc("POST /prompts", func(w http.ResponseWriter, r *http.Request) {
		var d models.Draft
		if !decode(w, r, &d) {
			return
		}
		p, err := fake.CreatePrompt(r.Context(), d)
		reply(w, p, err)
	})
	mux.HandleFunc("PUT /prompts/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		var d models.Draft
		if !decode(w, r, &d) {
			return
		}
		p, err := fake.UpdatePrompt(r.Context(), id, d)
		reply(w, p, err)
	})
	mux.HandleFunc("DELETE /prompts/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		reply(w, message("Prompt deleted"), fake.DeletePrompt(r.Context(), id))
	})
	mux.HandleFunc("POST /prompts/{id}/copy", func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		reply(w, message("Prompt copied"), fake.DuplicatePrompt(r.Context(), id))
	})

	mux.HandleFunc("GET /categories", func(w http.ResponseWriter, r *http.Request) {
		cats, err := fake.ListCategories(r.Context())
		reply(w, cats, err)
	})
	mux.HandleFunc("POST /categories", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Name string `json:"name"`
		}
		if !decode(w, r, &body) {
			return
		}
		c, err := fake.CreateCategory(r.Context(), body.Name)
		reply(w, c, err)
	})
	mux.HandleFunc("DELETE /categories/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		reply(w, message("Category deleted"), fake.DeleteCategory(r.Context(), id))
	})

	mux.HandleFunc("GET /tags", func(w http.ResponseWriter, r *http.Request) {
		tags, err := fake.ListTags(r.Context())
		reply(w, tags, err)
	})
	mux.HandleFunc("POST /tags", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Name string `json:"name"`
		}
		if !decode(w, r, &body) {
			return
		}
		tag, err := fake.CreateTag(r.Context(), body.Name)
		reply(w, tag, err)
	})
	mux.HandleFunc("DELETE /tags/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		reply(w, message("Tag deleted"), fake.DeleteTag(r.Context(), id))
	})

	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, r.Clone(r.Context()))
		s.mu.Unlock()
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(s.Close)

	return s
}

// Requests returns the requests received so far.
func (s *Server) Requests() []*http.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*http.Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// LastRequest returns the most recent request, or nil.
func (s *Server) LastRequest() *http.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return nil
	}
	return s.requests[len(s.requests)-1]
}

func message(msg string) map[string]string {
	return map[string]string{"message": msg}
}

func reply(w http.ResponseWriter, v any, err error) {
	w.Header().Set("Content-Type", "application/json")
	var missing missingError
	switch {
	case errors.As(err, &missing):
		_ = json.NewEncoder(w).Encode(map[string]string{"error": missing.Error()})
	case err != nil:
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"detail": err.Error()})
	default:
		_ = json.NewEncoder(w).Encode(v)
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(map[string]string{"detail": err.Error()})
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (models.ID, bool) {
	n, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(map[string]string{"detail": "id must be an integer"})
		return models.ID(0), false
	}
	return models.ID(n), true
}
