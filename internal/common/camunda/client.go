// internal/common/camunda/client.go
package camunda

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"movienight-workers/internal/common/config"
)

// Client owns the gateway connection shared by every job worker.
type Client struct {
	client zbc.Client
	opts   Options
	log    *zap.Logger
}

// Options controls how the gateway is dialled and health checked.
type Options struct {
	GatewayAddress string
	Plaintext      bool
	RequestTimeout time.Duration
	ConnectRetries int
	RetryDelay     time.Duration
	MaxRetryDelay  time.Duration
}

// OptionsFromConfig maps the camunda config block onto Options. The gateway
// is always dialled in plaintext; TLS is terminated in front of it.
func OptionsFromConfig(cfg config.CamundaConfig) Options {
	return Options{
		GatewayAddress: cfg.BrokerAddress,
		Plaintext:      true,
		RequestTimeout: config.GetDuration(cfg.RequestTimeout),
	}
}

func (o Options) withDefaults() Options {
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = 10 * time.Second
	}
	if o.ConnectRetries <= 0 {
		o.ConnectRetries = 5
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = time.Second
	}
	if o.MaxRetryDelay <= 0 {
		o.MaxRetryDelay = 10 * time.Second
	}
	return o
}

// NewClient dials the gateway and blocks until it answers a topology
// request or the connect retries run out.
func NewClient(ctx context.Context, opts Options, log *zap.Logger) (*Client, error) {
	if opts.GatewayAddress == "" {
		return nil, fmt.Errorf("zeebe gateway address is empty")
	}
	if log == nil {
		log = zap.NewNop()
	}
	opts = opts.withDefaults()

	zeebeClient, err := zbc.NewClient(&zbc.ClientConfig{
		GatewayAddress:         opts.GatewayAddress,
		UsePlaintextConnection: opts.Plaintext,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Zeebe client: %w", err)
	}

	c := &Client{client: zeebeClient, opts: opts, log: log}
	if err := c.ExecuteWithRetry(ctx, "topology", c.HealthCheck); err != nil {
		zeebeClient.Close()
		return nil, fmt.Errorf("failed to connect to Zeebe gateway at %s: %w", opts.GatewayAddress, err)
	}
	return c, nil
}

// GetClient returns the raw Zeebe client for job workers.
func (c *Client) GetClient() zbc.Client {
	return c.client
}

func (c *Client) Close() error {
	return c.client.Close()
}

// ExecuteWithRetry runs fn with exponential backoff while it keeps failing
// with transient errors.
func (c *Client) ExecuteWithRetry(ctx context.Context, operation string, fn func(context.Context) error) error {
	opts := c.opts.withDefaults()
	err := retry.Do(
		func() error { return fn(ctx) },
		retry.Context(ctx),
		retry.Attempts(uint(opts.ConnectRetries+1)),
		retry.Delay(opts.RetryDelay),
		retry.MaxDelay(opts.MaxRetryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(isTransient),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			if c.log != nil {
				c.log.Warn("zeebe call failed, retrying",
					zap.String("operation", operation),
					zap.Uint("attempt", n+1),
					zap.Error(err),
				)
			}
		}),
	)
	if err != nil {
		return fmt.Errorf("zeebe operation '%s' failed: %w", operation, err)
	}
	return nil
}

// isTransient classifies by gRPC status first and falls back to the error
// text for failures raised before a call reaches the gateway.
func isTransient(err error) bool {
	if stderrors.Is(err, context.Canceled) {
		return false
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if st, ok := status.FromError(err); ok && st.Code() != codes.Unknown {
		switch st.Code() {
		case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Aborted:
			return true
		}
		return false
	}

	msg := strings.ToLower(err.Error())
	for _, phrase := range []string{"connection refused", "connection reset", "broken pipe", "unavailable"} {
		if strings.Contains(msg, phrase) {
			return true
		}
	}
	return false
}

// HealthCheck performs a topology request against the gateway.
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.opts.withDefaults().RequestTimeout)
	defer cancel()

	if _, err := c.client.NewTopologyCommand().Send(ctx); err != nil {
		return fmt.Errorf("zeebe health check failed: %w", err)
	}
	return nil
}
