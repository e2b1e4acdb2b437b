package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/custodia-labs/similarity-core/internal/core/domain"
)

// embeddingServer answers every request with one vector per input. Vectors
// are returned in reverse order to exercise index-based reordering.
func embeddingServer(t *testing.T, dim int) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req embeddingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		resp := embeddingResponse{Object: "list", Model: req.Model}
		for i := len(req.Input) - 1; i >= 0; i-- {
			vec := make([]float32, dim)
			vec[i%dim] = float32(i + 1)
			resp.Data = append(resp.Data, embeddingData{Object: "embedding", Index: i, Embedding: vec})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestOpenAI(t *testing.T, baseURL string, dim int) *OpenAIEmbedding {
	t.Helper()
	svc, err := NewOpenAIEmbedding(OpenAIConfig{
		APIKey:     "sk-test",
		Model:      "text-embedding-3-small",
		BaseURL:    baseURL,
		Dimensions: dim,
		BatchSize:  8,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return svc
}

func TestNewOpenAIEmbedding_RequiresAPIKeyOrBaseURL(t *testing.T) {
	_, err := NewOpenAIEmbedding(OpenAIConfig{Model: "text-embedding-3-small"})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestNewOpenAIEmbedding_Defaults(t *testing.T) {
	svc, err := NewOpenAIEmbedding(OpenAIConfig{APIKey: "sk-test"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if svc.model != "text-embedding-3-small" {
		t.Errorf("expected default model text-embedding-3-small, got %s", svc.model)
	}
	if svc.baseURL != "https://api.openai.com/v1" {
		t.Errorf("expected default base URL, got %s", svc.baseURL)
	}
	if svc.MaxBatchSize() != 64 {
		t.Errorf("expected default batch size 64, got %d", svc.MaxBatchSize())
	}
	if !svc.Deterministic() {
		t.Error("expected deterministic embedder")
	}
}

func TestNewOpenAIEmbedding_LocalServerWithoutKey(t *testing.T) {
	svc, err := NewOpenAIEmbedding(OpenAIConfig{BaseURL: "http://localhost:11434/v1/", Model: "nomic-embed-text", Dimensions: 768})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if svc.baseURL != "http://localhost:11434/v1" {
		t.Errorf("expected trailing slash trimmed, got %s", svc.baseURL)
	}
}

func TestOpenAIEmbedding_Dimensions(t *testing.T) {
	testCases := []struct {
		model      string
		configured int
		dimensions int
	}{
		{"text-embedding-3-small", 0, 1536},
		{"text-embedding-3-large", 0, 3072},
		{"text-embedding-ada-002", 0, 1536},
		{"unknown-model", 0, 1536}, // defaults to 1536
		{"text-embedding-3-large", 256, 256},
	}

	for _, tc := range testCases {
		t.Run(tc.model, func(t *testing.T) {
			svc, err := NewOpenAIEmbedding(OpenAIConfig{APIKey: "sk-test", Model: tc.model, Dimensions: tc.configured})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if svc.Dimensions() != tc.dimensions {
				t.Errorf("expected dimensions %d, got %d", tc.dimensions, svc.Dimensions())
			}
			if svc.Model() != tc.model {
				t.Errorf("expected model %s, got %s", tc.model, svc.Model())
			}
		})
	}
}

func TestOpenAIEmbedding_Close(t *testing.T) {
	svc := newTestOpenAI(t, "http://localhost", 3)
	if err := svc.Close(); err != nil {
		t.Errorf("expected no error from Close, got %v", err)
	}
}

func TestOpenAIEmbedding_Embed_EmptyInput(t *testing.T) {
	svc := newTestOpenAI(t, "http://localhost", 3)

	result, err := svc.Embed(context.Background(), []string{})
	if err != nil {
		t.Errorf("unexpected error for empty input: %v", err)
	}
	if result != nil {
		t.Error("expected nil result for empty input")
	}
}

func TestOpenAIEmbedding_Embed_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/embeddings" {
			t.Errorf("expected /embeddings, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Error("expected Authorization header")
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Error("expected Content-Type application/json")
		}

		var req embeddingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		if req.Dimensions != 3 {
			t.Errorf("expected reduced dimensions 3 in request, got %d", req.Dimensions)
		}

		resp := embeddingResponse{
			Object: "list",
			Data: []embeddingData{
				{Object: "embedding", Index: 1, Embedding: []float32{0.4, 0.5, 0.6}},
				{Object: "embedding", Index: 0, Embedding: []float32{0.1, 0.2, 0.3}},
			},
			Model: "text-embedding-3-small",
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	svc := newTestOpenAI(t, server.URL, 3)
	result, err := svc.Embed(context.Background(), []string{"first", "second"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result) != 2 {
		t.Fatalf("expected 2 embeddings, got %d", len(result))
	}
	if result[0][0] != 0.1 || result[1][0] != 0.4 {
		t.Errorf("embeddings not restored to input order: %v", result)
	}
}

func TestOpenAIEmbedding_Embed_PreservesOrder(t *testing.T) {
	server := embeddingServer(t, 8)
	svc := newTestOpenAI(t, server.URL, 8)

	result, err := svc.Embed(context.Background(), []string{"a", "b", "c", "d"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, vec := range result {
		if vec[i] != float32(i+1) {
			t.Errorf("embedding %d out of order: %v", i, vec)
		}
	}
}

func TestOpenAIEmbedding_Embed_BatchTooLarge(t *testing.T) {
	svc := newTestOpenAI(t, "http://localhost", 3)

	_, err := svc.Embed(context.Background(), make([]string, 9))
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestOpenAIEmbedding_Embed_WrongDimension(t *testing.T) {
	server := embeddingServer(t, 4)
	svc := newTestOpenAI(t, server.URL, 3)

	_, err := svc.Embed(context.Background(), []string{"test"})
	if !errors.Is(err, domain.ErrModelMismatch) {
		t.Errorf("expected ErrModelMismatch, got %v", err)
	}
}

func TestOpenAIEmbedding_Embed_MissingVectors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(embeddingResponse{Object: "list"})
	}))
	defer server.Close()

	svc := newTestOpenAI(t, server.URL, 3)
	_, err := svc.Embed(context.Background(), []string{"test"})
	if !errors.Is(err, domain.ErrEmbeddingUnavailable) {
		t.Errorf("expected ErrEmbeddingUnavailable for a partial batch, got %v", err)
	}
}

func TestOpenAIEmbedding_Embed_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "Invalid API key", "type": "invalid_request_error", "code": "invalid_api_key"}}`))
	}))
	defer server.Close()

	svc := newTestOpenAI(t, server.URL, 3)
	_, err := svc.Embed(context.Background(), []string{"test"})
	if err == nil {
		t.Fatal("expected error for API error response")
	}
	if errors.Is(err, domain.ErrEmbeddingUnavailable) {
		t.Error("auth errors must not be retried")
	}
}

func TestOpenAIEmbedding_Embed_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("invalid json"))
	}))
	defer server.Close()

	svc := newTestOpenAI(t, server.URL, 3)
	_, err := svc.Embed(context.Background(), []string{"test"})
	if err == nil {
		t.Error("expected error for invalid JSON response")
	}
}

func TestOpenAIEmbedding_Embed_TransientStatuses(t *testing.T) {
	for _, status := range []int{http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusServiceUnavailable} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error": "try later"}`))
		}))

		svc := newTestOpenAI(t, server.URL, 3)
		_, err := svc.Embed(context.Background(), []string{"test"})
		if !errors.Is(err, domain.ErrEmbeddingUnavailable) {
			t.Errorf("status %d: expected ErrEmbeddingUnavailable, got %v", status, err)
		}
		server.Close()
	}
}

func TestOpenAIEmbedding_Embed_NetworkError(t *testing.T) {
	// Use invalid URL to trigger network error
	svc := newTestOpenAI(t, "http://localhost:99999", 3)

	_, err := svc.Embed(context.Background(), []string{"test"})
	if !errors.Is(err, domain.ErrEmbeddingUnavailable) {
		t.Errorf("expected ErrEmbeddingUnavailable for network error, got %v", err)
	}
}

func TestOpenAIEmbedding_HealthCheck(t *testing.T) {
	server := embeddingServer(t, 3)
	svc := newTestOpenAI(t, server.URL, 3)

	if err := svc.HealthCheck(context.Background()); err != nil {
		t.Errorf("expected no error from health check, got %v", err)
	}
}
