package main

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
)

func TestHandleHealth(t *testing.T) {
	cfg := config{upstreamBaseURL: "http://example.com", upstreamTimeout: time.Second}
	client := &http.Client{Timeout: time.Second}

	evt := events.APIGatewayV2HTTPRequest{
		RawPath: "/health",
		RequestContext: events.APIGatewayV2HTTPRequestContext{
			HTTP: events.APIGatewayV2HTTPRequestContextHTTPDescription{
				Method: http.MethodGet,
				Path:   "/health",
			},
		},
	}

	resp, err := handle(context.Background(), cfg, client, evt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	if resp.Body != "ok" {
		t.Fatalf("expected ok body, got %q", resp.Body)
	}
}

func TestHandleRejectsNonPost(t *testing.T) {
	cfg := config{upstreamBaseURL: "http://example.com", upstreamTimeout: time.Second}
	client := &http.Client{Timeout: time.Second}

	evt := events.APIGatewayV2HTTPRequest{
		RawPath: "/escort/requests",
		RequestContext: events.APIGatewayV2HTTPRequestContext{
			HTTP: events.APIGatewayV2HTTPRequestContextHTTPDescription{
				Method: http.MethodGet,
				Path:   "/escort/requests",
			},
		},
	}

	resp, err := handle(context.Background(), cfg, client, evt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected status %d, got %d", http.StatusMethodNotAllowed, resp.StatusCode)
	}
}

func TestHandleRejectsUnknownPath(t *testing.T) {
	cfg := config{upstreamBaseURL: "http://example.com", upstreamTimeout: time.Second}
	client := &http.Client{Timeout: time.Second}

	evt := events.APIGatewayV2HTTPRequest{
		RawPath: "/escort/unknown",
		RequestContext: events.APIGatewayV2HTTPRequestContext{
			HTTP: events.APIGatewayV2HTTPRequestContextHTTPDescription{
				Method: http.MethodPost,
				Path:   "/escort/unknown",
			},
		},
	}

	resp, err := handle(context.Background(), cfg, client, evt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, resp.StatusCode)
	}
}

func TestHandleInvalidBase64Body(t *testing.T) {
	cfg := config{upstreamBaseURL: "http://example.com", upstreamTimeout: time.Second}
	client := &http.Client{Timeout: time.Second}

	evt := events.APIGatewayV2HTTPRequest{
		RawPath:         "/escort/requests",
		Body:            "not-base64",
		IsBase64Encoded: true,
		RequestContext: events.APIGatewayV2HTTPRequestContext{
			HTTP: events.APIGatewayV2HTTPRequestContextHTTPDescription{
				Method: http.MethodPost,
				Path:   "/escort/requests",
			},
		},
	}

	resp, err := handle(context.Background(), cfg, client, evt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}
	if resp.Body != "invalid body" {
		t.Fatalf("expected invalid body response, got %q", resp.Body)
	}
}

func TestHandleForwardsSubmission(t *testing.T) {
	type captured struct {
		method  string
		path    string
		query   string
		headers http.Header
		body    string
	}
	reqCh := make(chan captured, 1)

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		reqCh <- captured{
			method:  r.Method,
			path:    r.URL.Path,
			query:   r.URL.RawQuery,
			headers: r.Header.Clone(),
			body:    string(body),
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"req-1"}`))
	}))
	defer upstream.Close()

	client := upstream.Client()
	client.Timeout = time.Second
	cfg := config{upstreamBaseURL: upstream.URL, upstreamTimeout: time.Second}

	evt := events.APIGatewayV2HTTPRequest{
		RawPath:         "/escort/requests",
		Body:            `{"userId":"user-1","date":"2025-11-10","time":"09:30"}`,
		IsBase64Encoded: false,
		Headers: map[string]string{
			"content-type": "application/json",
		},
		RequestContext: events.APIGatewayV2HTTPRequestContext{
			HTTP: events.APIGatewayV2HTTPRequestContextHTTPDescription{
				Method: http.MethodPost,
				Path:   "/escort/requests",
			},
		},
	}

	resp, err := handle(context.Background(), cfg, client, evt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, resp.StatusCode)
	}
	if resp.Body != `{"id":"req-1"}` {
		t.Fatalf("expected upstream body, got %q", resp.Body)
	}
	if ct := resp.Headers["content-type"]; ct != "application/json" {
		t.Fatalf("expected content-type to be forwarded, got %q", ct)
	}

	select {
	case got := <-reqCh:
		if got.method != http.MethodPost {
			t.Fatalf("expected method POST, got %s", got.method)
		}
		if got.path != "/escort/requests" {
			t.Fatalf("expected path /escort/requests, got %s", got.path)
		}
		if got.body == "" {
			t.Fatal("expected body to be forwarded")
		}
		if got.headers.Get("Content-Type") != "application/json" {
			t.Fatalf("expected content type to be forwarded, got %q", got.headers.Get("Content-Type"))
		}
	case <-time.After(time.Second):
		t.Fatalf("timeout waiting for upstream request")
	}
}

func TestDecodeBodyBase64(t *testing.T) {
	raw := []byte(`{"userId":"user-1"}`)
	evt := events.APIGatewayV2HTTPRequest{
		Body:            base64.StdEncoding.EncodeToString(raw),
		IsBase64Encoded: true,
	}

	decoded, err := decodeBody(evt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(decoded) != string(raw) {
		t.Fatalf("expected decoded body, got %q", string(decoded))
	}
}
