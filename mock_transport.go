// Copyright 2025 Agentic World, LLC (Sherin Thomas)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package docsnake

import (
	"bytes"
	"io"
	"net/http"
	"sync"
)

// MockResponse is one canned HTTP response served by MockTransport.
type MockResponse struct {
	// StatusCode defaults to 200 when zero.
	StatusCode int
	Body       string
	Headers    http.Header
	// Err simulates a network-level failure instead of a response.
	Err error
}

// MockTransport implements http.RoundTripper for tests, serving canned
// responses by exact URL without a real server. Registering the same
// URL more than once builds a sequence: each request consumes the next
// response, and the last one repeats. Unregistered URLs get a 404.
type MockTransport struct {
	mu        sync.Mutex
	responses map[string][]*MockResponse
	calls     map[string]int
}

// NewMockTransport returns an empty transport.
func NewMockTransport() *MockTransport {
	return &MockTransport{
		responses: make(map[string][]*MockResponse),
		calls:     make(map[string]int),
	}
}

// RegisterResponse appends a canned response for an exact URL.
func (m *MockTransport) RegisterResponse(url string, resp *MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if resp.StatusCode == 0 {
		resp.StatusCode = 200
	}
	if resp.Headers == nil {
		resp.Headers = make(http.Header)
	}
	m.responses[url] = append(m.responses[url], resp)
}

// RegisterHTML registers a 200 text/html response for a URL.
func (m *MockTransport) RegisterHTML(url, html string) {
	headers := make(http.Header)
	headers.Set("Content-Type", "text/html; charset=utf-8")
	m.RegisterResponse(url, &MockResponse{Body: html, Headers: headers})
}

// RegisterText registers a 200 text/plain response for a URL. robots.txt
// and sitemap fixtures go through here.
func (m *MockTransport) RegisterText(url, body string) {
	headers := make(http.Header)
	headers.Set("Content-Type", "text/plain; charset=utf-8")
	m.RegisterResponse(url, &MockResponse{Body: body, Headers: headers})
}

// RegisterStatus registers an empty response with the given status.
func (m *MockTransport) RegisterStatus(url string, status int) {
	m.RegisterResponse(url, &MockResponse{StatusCode: status})
}

// RegisterError registers a network-level failure for a URL.
func (m *MockTransport) RegisterError(url string, err error) {
	m.RegisterResponse(url, &MockResponse{Err: err})
}

// Calls reports how many requests were made to an exact URL.
func (m *MockTransport) Calls(url string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[url]
}

// RoundTrip implements http.RoundTripper.
func (m *MockTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	url := req.URL.String()

	m.mu.Lock()
	seq := m.responses[url]
	idx := m.calls[url]
	m.calls[url]++
	m.mu.Unlock()

	if len(seq) == 0 {
		return &http.Response{
			StatusCode: 404,
			Body:       io.NopCloser(bytes.NewBufferString("Not Found")),
			Header:     make(http.Header),
			Request:    req,
		}, nil
	}
	if idx >= len(seq) {
		idx = len(seq) - 1
	}
	mockResp := seq[idx]

	if mockResp.Err != nil {
		return nil, mockResp.Err
	}

	resp := &http.Response{
		StatusCode:    mockResp.StatusCode,
		Body:          io.NopCloser(bytes.NewBufferString(mockResp.Body)),
		Header:        cloneHeaders(mockResp.Headers),
		Request:       req,
		ContentLength: int64(len(mockResp.Body)),
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
	}
	return resp, nil
}

func cloneHeaders(headers http.Header) http.Header {
	clone := make(http.Header)
	for key, values := range headers {
		clone[key] = append([]string{}, values...)
	}
	return clone
}
