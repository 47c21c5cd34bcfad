// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search queries the Semantic Scholar graph API for papers that
// may carry a TL;DR for a library work.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/tldr-engine/internal/httputil"
	"github.com/pdiddy/tldr-engine/pkg/types"
)

// semanticAPIBase is the Semantic Scholar graph API root. Declared as a var
// so tests can substitute an httptest server.
var semanticAPIBase = "https://api.semanticscholar.org/graph/v1"

const (
	semanticFields = "title,abstract,tldr"

	// DefaultSearchLimit is the number of ranked candidates requested when
	// the caller passes a non-positive limit.
	DefaultSearchLimit = 5
)

// TransportError reports a request that could not complete, returned a
// status outside the endpoint's success set, or carried a body that does
// not decode into the expected shape.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("Semantic Scholar %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsTransport reports whether err is or wraps a *TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// SemanticScholarClient issues best-match and ranked-search title queries.
// The zero value is usable and talks to the public API.
type SemanticScholarClient struct {
	Client    *http.Client
	APIKey    string
	UserAgent string

	// BaseURL overrides the API root when set.
	BaseURL string
}

// NewSemanticScholarClient builds a client from cfg.
func NewSemanticScholarClient(cfg types.ScholarConfig) *SemanticScholarClient {
	return &SemanticScholarClient{
		Client:    &http.Client{Timeout: cfg.Timeout},
		APIKey:    cfg.APIKey,
		UserAgent: cfg.UserAgent,
		BaseURL:   cfg.BaseURL,
	}
}

// MatchByTitle asks the service for its single best match for title. A 404
// from the match endpoint, or a 200 without data, means no match and yields
// a nil candidate and a nil error.
func (c *SemanticScholarClient) MatchByTitle(ctx context.Context, title string) (*types.Candidate, error) {
	const op = "search/match"
	params := url.Values{
		"query":  {title},
		"fields": {semanticFields},
	}

	resp, err := c.get(ctx, "/paper/search/match", params, http.StatusOK, http.StatusNotFound)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}

	var mr semanticResponse
	if err := decodeStrict(resp.Body, &mr); err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("parsing response: %w", err)}
	}
	if len(mr.Data) == 0 {
		return nil, nil
	}
	cand := mr.Data[0].candidate()
	return &cand, nil
}

// SearchByTitle returns up to limit ranked candidates in service order. An
// empty result is not an error. A non-positive limit uses DefaultSearchLimit.
func (c *SemanticScholarClient) SearchByTitle(ctx context.Context, title string, limit int) ([]types.Candidate, error) {
	const op = "search"
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	params := url.Values{
		"query":  {title},
		"fields": {semanticFields},
		"limit":  {strconv.Itoa(limit)},
	}

	resp, err := c.get(ctx, "/paper/search", params, http.StatusOK)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}

	var sr semanticResponse
	if err := decodeStrict(resp.Body, &sr); err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("parsing response: %w", err)}
	}

	candidates := make([]types.Candidate, 0, len(sr.Data))
	for _, paper := range sr.Data {
		candidates = append(candidates, paper.candidate())
	}
	return candidates, nil
}

func (c *SemanticScholarClient) get(ctx context.Context, path string, params url.Values, accept ...int) (*httputil.Response, error) {
	base := c.BaseURL
	if base == "" {
		base = semanticAPIBase
	}
	reqURL := strings.TrimRight(base, "/") + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	if c.APIKey != "" {
		req.Header.Set("x-api-key", c.APIKey)
	}
	req.Header.Set("Accept", "application/json")

	return httputil.Do(ctx, c.Client, req, accept...)
}

// decodeStrict decodes a single JSON value and rejects trailing data.
func decodeStrict(body []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); err != io.EOF {
		return errors.New("unexpected data after JSON document")
	}
	return nil
}

// Semantic Scholar API JSON structures. Nullable fields decode to their zero
// value; a wrong JSON type fails the whole decode.
type semanticResponse struct {
	Total  int             `json:"total"`
	Offset int             `json:"offset"`
	Data   []semanticPaper `json:"data"`
}

type semanticPaper struct {
	PaperID  string        `json:"paperId"`
	Title    string        `json:"title"`
	Abstract string        `json:"abstract"`
	TLDR     *semanticTLDR `json:"tldr"`
}

type semanticTLDR struct {
	Model string `json:"model"`
	Text  string `json:"text"`
}

func (p semanticPaper) candidate() types.Candidate {
	c := types.Candidate{Title: p.Title, Abstract: p.Abstract}
	if p.TLDR != nil {
		c.TLDR = p.TLDR.Text
	}
	return c
}
