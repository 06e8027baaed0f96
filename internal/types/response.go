package types

import (
	"bytes"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Response is a fetched page, either from a plain HTTP request or a rendered browser session.
type Response struct {
	// URL is the address that was requested.
	URL string

	// StatusCode is the HTTP status code. Rendered pages report 200.
	StatusCode int

	Headers http.Header

	// Body is the raw (decompressed) response body.
	Body []byte

	// FinalURL is the URL after any redirects.
	FinalURL string

	// Rendered is true when the body came out of a browser session.
	Rendered bool

	// Truncated is true when Body was cut at the fetcher's size limit.
	Truncated bool

	// Doc is a parsed goquery document (lazily loaded).
	Doc *goquery.Document

	FetchDuration time.Duration
	FetchedAt     time.Time
}

// NewResponse creates a Response from an http.Response.
func NewResponse(url string, httpResp *http.Response, body []byte, duration time.Duration) *Response {
	return &Response{
		URL:           url,
		StatusCode:    httpResp.StatusCode,
		Headers:       httpResp.Header,
		Body:          body,
		FinalURL:      httpResp.Request.URL.String(),
		FetchDuration: duration,
		FetchedAt:     time.Now(),
	}
}

// NewRenderedResponse creates a Response from browser-rendered HTML.
func NewRenderedResponse(url string, html string, duration time.Duration) *Response {
	return &Response{
		URL:           url,
		StatusCode:    http.StatusOK,
		Headers:       make(http.Header),
		Body:          []byte(html),
		FinalURL:      url,
		Rendered:      true,
		FetchDuration: duration,
		FetchedAt:     time.Now(),
	}
}

// Document returns a parsed goquery document, lazily initializing it.
func (r *Response) Document() (*goquery.Document, error) {
	if r.Doc != nil {
		return r.Doc, nil
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(r.Body))
	if err != nil {
		return nil, &ParseError{URL: r.URL, Err: err}
	}
	r.Doc = doc
	return doc, nil
}

// IsSuccess returns true if the response status is 2xx.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}
