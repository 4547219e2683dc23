package cairoprover

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/klauspost/compress/zip"

	"github.com/Abdullah1738/smile-token/zk/cairo"
)

var (
	ErrMissingProverURL = errors.New("missing prover url")
	ErrProver           = errors.New("cairo prover error")
)

// Client submits runs to a remote prover:
//
//	POST <url>/prove  multipart: memory (zip), trace (zip), output (text)
//
// and reads back a base64 proof record.
type Client struct {
	url  string
	http *http.Client
	log  log.Logger

	maxAttempts int
	backoff     time.Duration
}

var _ cairo.Prover = (*Client)(nil)

func New(proverURL string, httpClient *http.Client) *Client {
	proverURL = strings.TrimRight(strings.TrimSpace(proverURL), "/")
	if httpClient == nil {
		// Proving a full trace takes minutes.
		httpClient = &http.Client{Timeout: 15 * time.Minute}
	}
	return &Client{
		url:         proverURL,
		http:        httpClient,
		log:         log.Root(),
		maxAttempts: 4,
		backoff:     2 * time.Second,
	}
}

func (c *Client) WithLogger(l log.Logger) *Client {
	c.log = l
	return c
}

// WithRetry sets the attempt count and initial backoff for 429 and 5xx
// responses.
func (c *Client) WithRetry(maxAttempts int, backoff time.Duration) *Client {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	c.maxAttempts = maxAttempts
	c.backoff = backoff
	return c
}

func zipFile(name string, data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create(name)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func buildForm(run cairo.RunOutput) ([]byte, string, error) {
	memoryZip, err := zipFile("memory", run.Memory)
	if err != nil {
		return nil, "", fmt.Errorf("zip memory: %w", err)
	}
	traceZip, err := zipFile("trace", run.Trace)
	if err != nil {
		return nil, "", fmt.Errorf("zip trace: %w", err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, part := range []struct {
		field string
		data  []byte
	}{
		{"memory", memoryZip},
		{"trace", traceZip},
	} {
		fw, err := mw.CreateFormFile(part.field, part.field+".zip")
		if err != nil {
			return nil, "", err
		}
		if _, err := fw.Write(part.data); err != nil {
			return nil, "", err
		}
	}
	if err := mw.WriteField("output", run.Output); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return body.Bytes(), mw.FormDataContentType(), nil
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// Prove uploads run and returns the decoded proof record.
func (c *Client) Prove(ctx context.Context, run cairo.RunOutput) ([]byte, error) {
	if c == nil {
		return nil, errors.New("nil prover client")
	}
	if c.url == "" {
		return nil, ErrMissingProverURL
	}

	body, contentType, err := buildForm(run)
	if err != nil {
		return nil, err
	}

	backoff := c.backoff
	maxBackoff := 30 * time.Second

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+"/prove", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", contentType)

		start := time.Now()
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrProver, err)
		}
		raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
		_ = resp.Body.Close()
		if readErr != nil {
			return nil, readErr
		}

		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("%w: http status=%d body=%q", ErrProver, resp.StatusCode, truncate(raw, 256))
			if retryable(resp.StatusCode) && attempt < c.maxAttempts {
				c.log.Warn("Prover request failed, retrying", "status", resp.StatusCode, "attempt", attempt, "backoff", backoff)
				if err := sleepWithContext(ctx, backoff); err != nil {
					return nil, err
				}
				backoff *= 2
				if backoff > maxBackoff {
					backoff = maxBackoff
				}
				continue
			}
			return nil, lastErr
		}

		proof, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(raw)))
		if err != nil {
			return nil, fmt.Errorf("%w: decode proof: %v", ErrProver, err)
		}
		c.log.Debug("Prover responded", "size", len(proof), "elapsed", time.Since(start))
		return proof, nil
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, fmt.Errorf("%w: no response", ErrProver)
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n])
	}
	return string(b)
}
