// Package gateway is the HTTP client for the MedBot backend: a readiness
// poll and a chat exchange. Everything else in the application treats the
// backend as this two-operation collaborator.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"medbot/internal/state"
)

// Client is the remote gateway consumed by the UI. Implementations must be
// safe to call from bubbletea commands (one call at a time per composer).
type Client interface {
	Status(ctx context.Context) (*StatusResponse, error)
	Chat(ctx context.Context, message string) (*ChatResponse, error)
}

// StatusResponse is the body of GET /api/status.
type StatusResponse struct {
	DatasetLoaded bool `json:"dataset_loaded"`
	// RAGReady is optional; older backends omit it, which means the
	// retrieval index is ready whenever the dataset is.
	RAGReady      *bool `json:"rag_ready,omitempty"`
	Reindexing    bool  `json:"reindexing,omitempty"`
	Records       int   `json:"records,omitempty"`
	IndexedChunks int   `json:"indexed_chunks,omitempty"`
}

// ChatResponse is the success body of POST /api/chat.
type ChatResponse struct {
	OK       bool               `json:"ok"`
	Response string             `json:"response"`
	Matches  []state.CaseRecord `json:"matches"`
	Error    string             `json:"error,omitempty"`
}

// BackendError is an application-level failure reported by the backend,
// either as {ok:false} or as a non-2xx status with an error payload.
type BackendError struct {
	Message string
}

func (e *BackendError) Error() string { return e.Message }

// genericChatError is used when the backend gave no usable error text.
const genericChatError = "The assistant request failed."

// HTTPClient talks to a real backend over HTTP.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

// NewHTTPClient builds a client for the given base URL. No timeout is
// imposed here; requests run until the backend answers or the transport
// fails.
func NewHTTPClient(baseURL string, log *zap.Logger) *HTTPClient {
	if log == nil {
		log = zap.NewNop()
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		log:     log,
	}
}

// Status fetches backend readiness.
func (c *HTTPClient) Status(ctx context.Context) (*StatusResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/status", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build status request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("status request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("status request failed: HTTP %d", resp.StatusCode)
	}
	var sr StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("failed to parse status response: %w", err)
	}
	return &sr, nil
}

// Chat submits a user message and returns the assistant reply plus case
// matches. Application-level failures come back as *BackendError carrying
// the server-supplied text when present.
func (c *HTTPClient) Chat(ctx context.Context, message string) (*ChatResponse, error) {
	body, err := json.Marshal(map[string]string{"message": message})
	if err != nil {
		return nil, fmt.Errorf("failed to encode chat request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chat request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read chat response: %w", err)
	}

	var cr ChatResponse
	if err := json.Unmarshal(data, &cr); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, &BackendError{Message: fmt.Sprintf("HTTP %d from backend", resp.StatusCode)}
		}
		return nil, fmt.Errorf("failed to parse chat response: %w", err)
	}

	// A non-2xx with an error payload and {ok:false} in a 2xx body are
	// the same failure as far as the conversation is concerned.
	if !cr.OK || resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := cr.Error
		if msg == "" {
			msg = genericChatError
		}
		c.log.Debug("chat rejected by backend",
			zap.Int("status", resp.StatusCode), zap.String("error", msg))
		return nil, &BackendError{Message: msg}
	}
	if cr.Matches == nil {
		cr.Matches = []state.CaseRecord{}
	}
	return &cr, nil
}
