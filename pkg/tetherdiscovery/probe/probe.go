// Package probe locates a device's HTTP service by requesting the same path
// from every candidate address at once and keeping the first response whose
// Server header identifies the expected service.
package probe

import (
	"context"
	"crypto/tls"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/marcuoli/go-tetherdiscovery/internal/scanner"
)

const (
	// DefaultTimeout bounds a whole run, not a single attempt.
	DefaultTimeout = 5 * time.Second
	// DefaultScheme is the URL scheme used for candidate requests.
	DefaultScheme = "http"

	// drainLimit caps how much of a response body is read before closing.
	drainLimit = 4 << 10
)

// DebugLogger is a callback for debug logging.
// Set this to receive debug messages from probe runs.
var DebugLogger func(format string, args ...interface{})

func debugLog(format string, args ...interface{}) {
	if DebugLogger != nil {
		DebugLogger(format, args...)
	}
}

// Policy selects when a run without a match ends.
type Policy = scanner.Policy

const (
	// JoinAll reports no match once every attempt has completed.
	JoinAll = scanner.JoinAll
	// LastListed reports no match as soon as the last candidate in list order
	// has answered negatively.
	LastListed = scanner.LastListed
)

// Target is one candidate endpoint.
type Target struct {
	IPAddress string
	Port      int
	Path      string
}

// URL renders the target with the given scheme.
func (t Target) URL(scheme string) string {
	return scheme + "://" + net.JoinHostPort(t.IPAddress, strconv.Itoa(t.Port)) + t.Path
}

// Outcome is the single result of a run. Target is only meaningful when
// Matched is true.
type Outcome struct {
	Target   Target
	Matched  bool
	RunID    string
	Attempts int
	Duration time.Duration
}

// AttemptResult classifies a single request.
type AttemptResult int

const (
	AttemptMatched AttemptResult = iota
	// AttemptMismatch means a response arrived from a different service.
	AttemptMismatch
	// AttemptFailed covers refused, unreachable and timed out requests.
	AttemptFailed
	// AttemptCancelled means the run ended before the request finished.
	AttemptCancelled
)

func (r AttemptResult) String() string {
	switch r {
	case AttemptMatched:
		return "match"
	case AttemptMismatch:
		return "mismatch"
	case AttemptFailed:
		return "error"
	case AttemptCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Observer receives per-attempt and per-run notifications. Implementations
// must be safe for concurrent use.
type Observer interface {
	AttemptDone(target Target, result AttemptResult)
	RunDone(outcome Outcome)
}

// Prober runs discovery probes. A Prober holds configuration only; every call
// to Probe builds its own transport, so one Prober may serve concurrent runs.
type Prober struct {
	Timeout     time.Duration
	Scheme      string
	InsecureTLS bool
	// Workers bounds concurrent requests; <= 0 requests every candidate at once.
	Workers int
	Policy  Policy
	// DialContext replaces the default dialer when set.
	DialContext func(ctx context.Context, network, addr string) (net.Conn, error)
	Observer    Observer
}

// NewProber creates a prober with defaults.
func NewProber() *Prober {
	return &Prober{
		Timeout: DefaultTimeout,
		Scheme:  DefaultScheme,
		Policy:  JoinAll,
	}
}

// NormalizePath returns path with a leading slash.
func NormalizePath(path string) string {
	if !strings.HasPrefix(path, "/") {
		return "/" + path
	}
	return path
}

// ServerMatches reports whether a Server header identifies the expected
// service. An empty expectation accepts any response.
func ServerMatches(header, expected string) bool {
	if expected == "" {
		return true
	}
	return strings.Contains(strings.ToLower(header), strings.ToLower(expected))
}

// Probe requests path on port from every address concurrently and returns the
// first address whose response carries expectedServer in its Server header.
// Once a match is found, or the run times out, or ctx is cancelled, every
// outstanding request is aborted and no new ones are issued. Request failures
// count as non-matches. Probe returns after all requests have finished.
func (p *Prober) Probe(ctx context.Context, addresses []string, port int, path, expectedServer string) Outcome {
	start := time.Now()
	out := Outcome{RunID: uuid.NewString()}

	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	scheme := p.Scheme
	if scheme == "" {
		scheme = DefaultScheme
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	transport := p.newTransport(timeout)
	defer transport.CloseIdleConnections()
	client := &http.Client{
		Transport: transport,
		// A redirect is still a response from the candidate.
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	path = NormalizePath(path)
	targets := make([]Target, len(addresses))
	for i, addr := range addresses {
		targets[i] = Target{IPAddress: addr, Port: port, Path: path}
	}

	debugLog("run %s: probing %d candidates on port %d%s (server %q, timeout %v)",
		out.RunID, len(targets), port, path, expectedServer, timeout)

	res := scanner.FirstMatch(runCtx, targets, scanner.Options{Workers: p.Workers, Policy: p.Policy},
		func(ctx context.Context, t Target) bool {
			return p.attempt(ctx, client, scheme, t, expectedServer, out.RunID)
		})

	out.Matched = res.Matched
	if res.Matched {
		out.Target = res.Item
	}
	out.Attempts = res.Started
	out.Duration = time.Since(start)

	if out.Matched {
		debugLog("run %s: matched %s after %v", out.RunID, out.Target.IPAddress, out.Duration)
	} else {
		debugLog("run %s: no results after %d attempts (%v)", out.RunID, out.Attempts, out.Duration)
	}
	if p.Observer != nil {
		p.Observer.RunDone(out)
	}
	return out
}

func (p *Prober) attempt(ctx context.Context, client *http.Client, scheme string, t Target, expected, runID string) bool {
	result := p.do(ctx, client, scheme, t, expected, runID)
	if p.Observer != nil {
		p.Observer.AttemptDone(t, result)
	}
	return result == AttemptMatched
}

func (p *Prober) do(ctx context.Context, client *http.Client, scheme string, t Target, expected, runID string) AttemptResult {
	url := t.URL(scheme)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		debugLog("run %s: %s: bad request: %v", runID, t.IPAddress, err)
		return AttemptFailed
	}

	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return AttemptCancelled
		}
		debugLog("run %s: %s: %v", runID, t.IPAddress, err)
		return AttemptFailed
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, drainLimit))
	resp.Body.Close()

	server := resp.Header.Get("Server")
	if !ServerMatches(server, expected) {
		debugLog("run %s: %s: status %d, server %q does not match", runID, t.IPAddress, resp.StatusCode, server)
		return AttemptMismatch
	}
	debugLog("run %s: %s: status %d, server %q", runID, t.IPAddress, resp.StatusCode, server)
	return AttemptMatched
}

// newTransport builds a transport private to one run.
func (p *Prober) newTransport(timeout time.Duration) *http.Transport {
	dial := p.DialContext
	if dial == nil {
		dial = (&net.Dialer{Timeout: timeout}).DialContext
	}
	tr := &http.Transport{
		// Candidates sit on a point-to-point link; never route them via a proxy.
		Proxy:                 nil,
		DialContext:           dial,
		DisableKeepAlives:     true,
		TLSHandshakeTimeout:   timeout,
		ResponseHeaderTimeout: timeout,
	}
	if p.InsecureTLS {
		tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // devices use self-signed certificates
	}
	return tr
}

