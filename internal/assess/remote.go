package assess

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/radheshpai87/aurahealth-core/internal/errs"
	"github.com/radheshpai87/aurahealth-core/internal/model"
	"github.com/radheshpai87/aurahealth-core/internal/wire"
)

const (
	remotePingTimeout    = 5 * time.Second
	remotePredictTimeout = 10 * time.Second
)

// RemoteConfig locates the optional remote risk service.
type RemoteConfig struct {
	BaseURL string
}

// RemoteClient talks to the remote risk service. Every failure is
// recoverable; callers fall back to the local ensemble.
type RemoteClient struct {
	base string
	http *http.Client
	log  *zap.Logger
}

// NewRemoteClient returns nil when no base URL is configured, which
// disables the remote path entirely.
func NewRemoteClient(cfg RemoteConfig, log *zap.Logger) *RemoteClient {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RemoteClient{
		base: base,
		http: &http.Client{Timeout: remotePredictTimeout},
		log:  log,
	}
}

// Available probes the service with a bounded GET /ping. The result is
// never cached.
func (c *RemoteClient) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, remotePingTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/ping", nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("risk service unreachable", zap.Error(err))
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK
}

// Predict posts the feature vector and returns the remote verdict.
func (c *RemoteClient) Predict(ctx context.Context, f model.FeatureSnapshot) (*wire.PredictResponse, error) {
	body, err := json.Marshal(wire.ToPredictRequest(f))
	if err != nil {
		return nil, fmt.Errorf("marshal predict request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, remotePredictTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/predict", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build predict request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: predict", errs.ErrTimeout)
		}
		return nil, fmt.Errorf("%w: predict: %v", errs.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: predict status %d", errs.ErrTransport, resp.StatusCode)
	}

	var out wire.PredictResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode predict response: %v", errs.ErrTransport, err)
	}
	return &out, nil
}
