package dispatch

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mohamed-abdelsamei/loadster/internal/types"
	"github.com/mohamed-abdelsamei/loadster/internal/version"
)

const (
	// HTTP client configuration timeouts
	tcpDialTimeout        = 5 * time.Second
	tcpKeepAliveInterval  = 30 * time.Second
	tlsHandshakeTimeout   = 5 * time.Second
	idleConnTimeout       = 90 * time.Second
	expectContinueTimeout = 1 * time.Second

	// maxDrainBytes bounds how much of a response body is read before the
	// connection is released for reuse.
	maxDrainBytes = 1 << 20
)

// Options configures a Dispatcher beyond the per-run RequestSpec.
type Options struct {
	UserAgent string           // identifies generated requests; defaults to version.UserAgent()
	Verbose   bool             // log one line per completed call
	Logger    *log.Logger      // diagnostics destination; defaults to stderr
	TLS       *types.TLSConfig // optional transport TLS material
}

// Dispatcher fires one batch of concurrent calls and collects their samples.
type Dispatcher struct {
	userAgent string
	verbose   bool
	logger    *log.Logger
	tlsConfig *types.TLSConfig
}

// New creates a Dispatcher, filling in defaults for unset options.
func New(opts Options) *Dispatcher {
	d := &Dispatcher{
		userAgent: opts.UserAgent,
		verbose:   opts.Verbose,
		logger:    opts.Logger,
		tlsConfig: opts.TLS,
	}
	if d.userAgent == "" {
		d.userAgent = version.UserAgent()
	}
	if d.logger == nil {
		d.logger = log.New(os.Stderr, "", 0)
	}
	return d
}

// Dispatch launches spec.Concurrency workers up front, one call each, and
// returns one Sample per completed call. A failed call is logged and yields
// no Sample; the caller can derive the dropped count as
// spec.Concurrency - len(samples). A client that cannot be built (bad TLS
// material, non-positive timeout) is an error returned before any worker
// starts. Dispatch returns only after every worker has finished.
func (d *Dispatcher) Dispatch(ctx context.Context, spec types.RequestSpec) ([]types.Sample, error) {
	client, err := buildClient(&spec, d.tlsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to build HTTP client: %w", err)
	}
	defer client.CloseIdleConnections()

	// Buffered to the worker count, so sends never block and no result is
	// lost even if collection lags.
	results := make(chan types.Sample, spec.Concurrency)
	var wg sync.WaitGroup

	for i := 0; i < spec.Concurrency; i++ {
		wg.Add(1)
		go func(seq int) {
			defer wg.Done()
			d.call(ctx, client, &spec, seq, results)
		}(i)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	samples := make([]types.Sample, 0, spec.Concurrency)
	for s := range results {
		samples = append(samples, s)
	}
	return samples, nil
}

// call runs a single request and reports its sample. Network, timeout, and
// cancellation failures are logged and produce nothing; sibling workers are
// unaffected.
func (d *Dispatcher) call(ctx context.Context, client *http.Client, spec *types.RequestSpec, seq int, results chan<- types.Sample) {
	start := time.Now()

	req, err := d.buildRequest(ctx, spec)
	if err != nil {
		d.logger.Printf("worker %d: failed to build request: %v", seq, err)
		return
	}

	resp, err := client.Do(req)
	end := time.Now()
	if err != nil {
		d.logger.Printf("worker %d: request failed: %v", seq, err)
		return
	}

	// Latency covers request start until response headers arrived; the body
	// is drained afterwards so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes))
	resp.Body.Close()

	if d.verbose {
		d.logger.Printf("worker %d: %s in %s", seq, resp.Status, end.Sub(start))
	}

	results <- types.Sample{
		Status:    resp.StatusCode,
		Latency:   end.Sub(start),
		Timestamp: end,
	}
}

// buildRequest assembles one outgoing request from the shared spec. The
// identifying agent header goes first; configured headers follow in order,
// duplicates layered by Add.
func (d *Dispatcher) buildRequest(ctx context.Context, spec *types.RequestSpec) (*http.Request, error) {
	var body io.Reader
	if spec.Body != "" && spec.Method.CarriesBody() {
		body = strings.NewReader(spec.Body)
	}

	req, err := http.NewRequestWithContext(ctx, spec.Method.String(), spec.URL, body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", d.userAgent)
	for _, h := range spec.Headers {
		req.Header.Add(h.Name, h.Value)
	}
	return req, nil
}

// buildClient creates the one HTTP client shared by every worker, with
// connection pool limits scaled to the worker count so the full batch can
// run without starving on connections.
func buildClient(spec *types.RequestSpec, tlsConfig *types.TLSConfig) (*http.Client, error) {
	if spec.Timeout <= 0 {
		return nil, fmt.Errorf("request timeout must be positive, got %s", spec.Timeout)
	}

	transport := &http.Transport{
		MaxIdleConns:        spec.Concurrency,
		MaxIdleConnsPerHost: spec.Concurrency,
		MaxConnsPerHost:     spec.Concurrency * 2,
		IdleConnTimeout:     idleConnTimeout,
		ForceAttemptHTTP2:   true,

		DialContext: (&net.Dialer{
			Timeout:   tcpDialTimeout,
			KeepAlive: tcpKeepAliveInterval,
		}).DialContext,

		TLSHandshakeTimeout:   tlsHandshakeTimeout,
		ResponseHeaderTimeout: spec.Timeout,
		ExpectContinueTimeout: expectContinueTimeout,
	}

	if tlsConfig != nil {
		tlsCfg := &tls.Config{
			InsecureSkipVerify: tlsConfig.InsecureSkipVerify,
		}

		// Client certificate for mTLS.
		if tlsConfig.CertFile != "" && tlsConfig.KeyFile != "" {
			cert, err := tls.LoadX509KeyPair(tlsConfig.CertFile, tlsConfig.KeyFile)
			if err != nil {
				return nil, fmt.Errorf("failed to load client certificate: %w", err)
			}
			tlsCfg.Certificates = []tls.Certificate{cert}
		}

		// CA bundle for server verification.
		if tlsConfig.CAFile != "" {
			caCert, err := os.ReadFile(tlsConfig.CAFile)
			if err != nil {
				return nil, fmt.Errorf("failed to read CA certificate: %w", err)
			}
			caCertPool := x509.NewCertPool()
			if !caCertPool.AppendCertsFromPEM(caCert) {
				return nil, fmt.Errorf("failed to parse CA certificate")
			}
			tlsCfg.RootCAs = caCertPool
		}

		transport.TLSClientConfig = tlsCfg
	}

	return &http.Client{
		Timeout:   spec.Timeout,
		Transport: transport,
	}, nil
}
