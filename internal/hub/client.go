// Package hub is the HTTP client for the home-automation hub's device API:
// directory lookups, instantaneous capability sets and timed transitions.
package hub

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrDeviceNotFound is returned when the hub doesn't know the device identifier.
var ErrDeviceNotFound = errors.New("device not found")

// Client talks to the hub's REST API over the LAN.
type Client struct {
	address    string
	token      string
	httpClient *http.Client
}

// NewClient creates a new hub client.
func NewClient(address, token string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 15 * time.Second
	}

	return &Client{
		address: address,
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Connect verifies the hub is reachable and the token is accepted.
func (c *Client) Connect(ctx context.Context) error {
	devices, err := c.Devices(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect to hub: %w", err)
	}

	log.Info().Str("address", c.address).Int("devices", len(devices)).Msg("Connected to hub")
	return nil
}

// Close closes the client.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func (c *Client) url(path string) string {
	return fmt.Sprintf("http://%s/api/%s", c.address, path)
}

func (c *Client) request(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.httpClient.Do(req)
}

// Device looks up a single device by identifier.
func (c *Client) Device(ctx context.Context, id string) (*Device, error) {
	resp, err := c.request(ctx, http.MethodGet, "devices/"+id, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, id)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var device Device
	if err := json.NewDecoder(resp.Body).Decode(&device); err != nil {
		return nil, err
	}

	return &device, nil
}

// Devices enumerates all devices known to the hub.
func (c *Client) Devices(ctx context.Context) ([]Device, error) {
	resp, err := c.request(ctx, http.MethodGet, "devices", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var devices []Device
	if err := json.NewDecoder(resp.Body).Decode(&devices); err != nil {
		return nil, err
	}

	return devices, nil
}

// SetCapability sets a capability to a literal value, taking effect immediately.
func (c *Client) SetCapability(ctx context.Context, deviceID, capabilityID string, value any) error {
	path := fmt.Sprintf("devices/%s/capabilities/%s", deviceID, capabilityID)
	resp, err := c.request(ctx, http.MethodPut, path, map[string]any{"value": value})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrDeviceNotFound, deviceID)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	log.Debug().
		Str("device", deviceID).
		Str("capability", capabilityID).
		Interface("value", value).
		Msg("Capability set")

	return nil
}

// MoveCapability delegates a timed transition to the hub: the device moves
// the capability to target over the given duration in hardware, with no
// further involvement from this process.
func (c *Client) MoveCapability(ctx context.Context, deviceID, capabilityID string, target float64, duration time.Duration) error {
	path := fmt.Sprintf("devices/%s/capabilities/%s/transition", deviceID, capabilityID)
	resp, err := c.request(ctx, http.MethodPost, path, map[string]any{
		"target":      target,
		"duration_ms": duration.Milliseconds(),
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrDeviceNotFound, deviceID)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	log.Debug().
		Str("device", deviceID).
		Str("capability", capabilityID).
		Float64("target", target).
		Dur("duration", duration).
		Msg("Timed transition delegated")

	return nil
}
