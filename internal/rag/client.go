package rag

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// Document is one knowledge-base passage returned by the retrieval worker.
type Document struct {
	Content string `json:"content"`
	Source  string `json:"source"`
}

// Context is the retrieval outcome handed to the interpreters. Degraded means
// the worker was unreachable or answered garbage; the request continues with
// no documents rather than failing.
type Context struct {
	Documents []Document
	Degraded  bool
}

// Retriever fetches knowledge-base context for a query.
type Retriever interface {
	Retrieve(ctx context.Context, query, userID string, maxResults int) Context
}

// Client talks to the RAG worker over HTTP. An empty base URL disables
// retrieval entirely (every call returns an empty, non-degraded Context).
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type retrieveRequest struct {
	Query      string `json:"query"`
	UserID     string `json:"user_id,omitempty"`
	MaxResults int    `json:"max_results"`
}

type retrieveResponse struct {
	Documents []Document `json:"documents"`
}

// Retrieve never returns an error: retrieval is advisory context, so every
// failure path collapses to a degraded empty result and a warning log.
func (c *Client) Retrieve(ctx context.Context, query, userID string, maxResults int) Context {
	if c.baseURL == "" {
		return Context{}
	}

	body, err := json.Marshal(retrieveRequest{Query: query, UserID: userID, MaxResults: maxResults})
	if err != nil {
		log.Warn().Err(err).Msg("rag: marshal request")
		return Context{Degraded: true}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/retrieve", bytes.NewBuffer(body))
	if err != nil {
		log.Warn().Err(err).Msg("rag: build request")
		return Context{Degraded: true}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warn().Err(err).Str("query", truncate(query, 80)).Msg("rag: worker unreachable")
		return Context{Degraded: true}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		log.Warn().Int("status", resp.StatusCode).Str("body", truncate(string(respBody), 200)).
			Msg("rag: worker returned error status")
		return Context{Degraded: true}
	}

	var result retrieveResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		log.Warn().Err(err).Msg("rag: decode response")
		return Context{Degraded: true}
	}

	return Context{Documents: result.Documents}
}

// FormatForPrompt renders retrieved documents as numbered blocks for
// inclusion in an interpreter prompt. Empty input yields an empty string.
func FormatForPrompt(docs []Document) string {
	if len(docs) == 0 {
		return ""
	}
	var buf bytes.Buffer
	for i, doc := range docs {
		if i > 0 {
			buf.WriteString("\n\n")
		}
		source := doc.Source
		if source == "" {
			source = "Desconocida"
		}
		fmt.Fprintf(&buf, "[Documento %d - Fuente: %s]\n%s", i+1, source, doc.Content)
	}
	return buf.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
