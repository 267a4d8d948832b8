package httpkit

import (
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"syscall"
	"testing"
	"time"
)

func TestNewClient_Timeouts(t *testing.T) {
	tests := []struct {
		name string
		opts []ClientOption
		want time.Duration
	}{
		{"default", nil, 30 * time.Second},
		{"custom", []ClientOption{WithTimeout(5 * time.Second)}, 5 * time.Second},
		{"disabled for long generations", []ClientOption{WithTimeout(0)}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if c := NewClient(tt.opts...); c.Timeout != tt.want {
				t.Errorf("timeout = %v, want %v", c.Timeout, tt.want)
			}
		})
	}
}

func echoUserAgent(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, r.Header.Get("User-Agent"))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func getBody(t *testing.T, c *http.Client, url string, header http.Header) string {
	t.Helper()
	req, _ := http.NewRequest("GET", url, nil)
	for k, vs := range header {
		req.Header[k] = vs
	}
	resp, err := c.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return string(body)
}

func TestNewClient_UserAgent(t *testing.T) {
	srv := echoUserAgent(t)

	if got := getBody(t, NewClient(WithUserAgent("TestBot/1.0")), srv.URL, nil); got != "TestBot/1.0" {
		t.Errorf("user agent = %q, want TestBot/1.0", got)
	}

	if got := getBody(t, NewClient(), srv.URL, nil); !strings.HasPrefix(got, "niko-agent/") {
		t.Errorf("default user agent = %q, want niko-agent/ prefix", got)
	}

	custom := http.Header{"User-Agent": []string{"CustomBot/2.0"}}
	if got := getBody(t, NewClient(), srv.URL, custom); got != "CustomBot/2.0" {
		t.Errorf("caller-set user agent = %q, want CustomBot/2.0", got)
	}
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"econnrefused", syscall.ECONNREFUSED, true},
		{"ehostunreach", syscall.EHOSTUNREACH, true},
		{"enetunreach", syscall.ENETUNREACH, true},
		{"econnreset stays fatal", syscall.ECONNRESET, false},
		{"generic", errors.New("boom"), false},
		{"wrapped in op error", &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRetryableError(tt.err); got != tt.want {
				t.Errorf("isRetryableError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

// flakyTransport refuses the first failures attempts, then delegates.
type flakyTransport struct {
	base     http.RoundTripper
	failures int
	calls    int
}

func (f *flakyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}
	}
	return f.base.RoundTrip(req)
}

func TestRetryTransport_RecoversFromTransientRefusal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "ok")
	}))
	defer srv.Close()

	flaky := &flakyTransport{base: http.DefaultTransport, failures: 2}
	c := &http.Client{Transport: &retryTransport{base: flaky, count: 2, delay: time.Millisecond}}

	resp, err := c.Get(srv.URL)
	if err != nil {
		t.Fatalf("expected recovery after retries, got %v", err)
	}
	defer resp.Body.Close()
	if body, _ := io.ReadAll(resp.Body); string(body) != "ok" {
		t.Errorf("body = %q, want ok", body)
	}
	if flaky.calls != 3 {
		t.Errorf("calls = %d, want 3 (initial + 2 retries)", flaky.calls)
	}
}

func TestRetryTransport_GivesUpAfterCount(t *testing.T) {
	flaky := &flakyTransport{base: http.DefaultTransport, failures: 10}
	c := &http.Client{Transport: &retryTransport{base: flaky, count: 2, delay: time.Millisecond}}

	_, err := c.Get("http://127.0.0.1:0/unreachable")
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if flaky.calls != 3 {
		t.Errorf("calls = %d, want 3 (initial + 2 retries)", flaky.calls)
	}
}

func TestRetryTransport_DoesNotRetryUnrewindableBody(t *testing.T) {
	flaky := &flakyTransport{base: http.DefaultTransport, failures: 10}
	rt := &retryTransport{base: flaky, count: 2, delay: time.Millisecond}

	req, _ := http.NewRequest("POST", "http://127.0.0.1:0/", io.NopCloser(strings.NewReader("payload")))
	req.GetBody = nil

	if _, err := rt.RoundTrip(req); err == nil {
		t.Fatal("expected dial error")
	}
	if flaky.calls != 1 {
		t.Errorf("calls = %d, want 1 (no retry without GetBody)", flaky.calls)
	}
}
