package influxdb

import (
	"context"
	"fmt"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/ashvale/vesync-bridge/internal/infrastructure/config"
)

// defaultConnectTimeout is the maximum wait for the initial ping.
const defaultConnectTimeout = 10 * time.Second

// Client wraps the InfluxDB v2 client for accessory telemetry.
//
// Writes go through the non-blocking write API: points are buffered,
// batched, and flushed in the background. Write failures surface on an
// error channel and are reported through the optional error callback.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Client struct {
	client   influxdb2.Client
	writeAPI api.WriteAPI
	cfg      config.InfluxDBConfig

	connected bool
	connMu    sync.RWMutex

	onError   func(error)
	onErrorMu sync.RWMutex

	// done stops the write error drain goroutine on Close.
	done chan struct{}
}

// Connect creates an InfluxDB client and verifies the server is
// reachable.
//
// It performs the following setup:
//  1. Checks telemetry is enabled (ErrDisabled otherwise)
//  2. Creates the client with batching options from config
//  3. Pings the server to verify connectivity
//  4. Starts draining the async write error channel
//
// Parameters:
//   - ctx: Context for the connectivity check
//   - cfg: InfluxDB configuration from config.yaml
//
// Returns:
//   - *Client: Connected client ready for writes
//   - error: ErrDisabled, or ErrConnectionFailed if the ping fails
func Connect(ctx context.Context, cfg config.InfluxDBConfig) (*Client, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}

	options := influxdb2.DefaultOptions().
		SetBatchSize(uint(cfg.BatchSize)).
		SetFlushInterval(uint(cfg.FlushInterval * 1000))

	client := influxdb2.NewClientWithOptions(cfg.URL, cfg.Token, options)

	pingCtx, cancel := context.WithTimeout(ctx, defaultConnectTimeout)
	defer cancel()

	ok, err := client.Ping(pingCtx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	if !ok {
		client.Close()
		return nil, fmt.Errorf("%w: server not ready", ErrConnectionFailed)
	}

	c := &Client{
		client:    client,
		writeAPI:  client.WriteAPI(cfg.Org, cfg.Bucket),
		cfg:       cfg,
		connected: true,
		done:      make(chan struct{}),
	}

	go c.drainWriteErrors()

	return c, nil
}

// drainWriteErrors consumes the async write error channel. Without a
// consumer the channel fills and writes silently stall.
func (c *Client) drainWriteErrors() {
	errCh := c.writeAPI.Errors()
	for {
		select {
		case err, open := <-errCh:
			if !open {
				return
			}
			if cb := c.getOnError(); cb != nil {
				cb(fmt.Errorf("%w: %w", ErrWriteFailed, err))
			}
		case <-c.done:
			return
		}
	}
}

// Close flushes pending points and releases the client.
func (c *Client) Close() error {
	c.connMu.Lock()
	if !c.connected {
		c.connMu.Unlock()
		return nil
	}
	c.connected = false
	c.connMu.Unlock()

	close(c.done)
	c.writeAPI.Flush()
	c.client.Close()
	return nil
}

// HealthCheck pings the InfluxDB server.
func (c *Client) HealthCheck(ctx context.Context) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}

	ok, err := c.client.Ping(ctx)
	if err != nil {
		return fmt.Errorf("influxdb health check: %w", err)
	}
	if !ok {
		return fmt.Errorf("influxdb health check: %w", ErrNotConnected)
	}
	return nil
}

// IsConnected returns the current connection state.
func (c *Client) IsConnected() bool {
	c.connMu.RLock()
	defer c.connMu.RUnlock()
	return c.connected
}

// Flush forces all buffered points to be written immediately.
func (c *Client) Flush() {
	if c.IsConnected() {
		c.writeAPI.Flush()
	}
}

// SetOnError sets a callback for asynchronous write failures.
// If not set, write failures are silently dropped.
func (c *Client) SetOnError(cb func(error)) {
	c.onErrorMu.Lock()
	c.onError = cb
	c.onErrorMu.Unlock()
}

func (c *Client) getOnError() func(error) {
	c.onErrorMu.RLock()
	defer c.onErrorMu.RUnlock()
	return c.onError
}
