package bridge

import (
	"context"
	"sync"
	"time"

	"github.com/ashvale/vesync-bridge/internal/session"
	"github.com/ashvale/vesync-bridge/internal/vesync"
)

// mockDevice is a scriptable vendor device.
type mockDevice struct {
	mu   sync.Mutex
	info vesync.Info

	details    vesync.Details
	detailsErr error

	turnOnErr  error
	turnOffErr error
	speedErr   error

	turnOnCalls  int
	turnOffCalls int
	speedCalls   []int
	detailCalls  int
}

func newMockDevice(cid, name, typeString string) *mockDevice {
	return &mockDevice{
		info: vesync.Info{CID: cid, Name: name, TypeString: typeString, Online: true},
		details: vesync.Details{
			Status: vesync.StatusOn,
			Online: true,
			Raw:    map[string]any{},
		},
	}
}

func (d *mockDevice) Info() vesync.Info { return d.info }

func (d *mockDevice) GetDetails(_ context.Context) (vesync.Details, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.detailCalls++
	if d.detailsErr != nil {
		return vesync.Details{}, d.detailsErr
	}
	return d.details, nil
}

func (d *mockDevice) TurnOn(_ context.Context) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.turnOnCalls++
	if d.turnOnErr != nil {
		return false, d.turnOnErr
	}
	d.details.Status = vesync.StatusOn
	return true, nil
}

func (d *mockDevice) TurnOff(_ context.Context) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.turnOffCalls++
	if d.turnOffErr != nil {
		return false, d.turnOffErr
	}
	d.details.Status = vesync.StatusOff
	return true, nil
}

func (d *mockDevice) ChangeSpeed(_ context.Context, level int) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.speedCalls = append(d.speedCalls, level)
	if d.speedErr != nil {
		return false, d.speedErr
	}
	d.details.Raw[vesync.FieldSpeed] = float64(level)
	return true, nil
}

func (d *mockDevice) SetMode(_ context.Context, _ string) (bool, error) {
	return true, nil
}

func (d *mockDevice) setDetails(det vesync.Details) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.details = det
}

// mockClient is a scriptable vendor client.
type mockClient struct {
	mu         sync.Mutex
	loginErr   error
	fetchOK    bool
	fetchErr   error
	devices    []vesync.Device
	fetchCalls int
	loginCalls int
}

func newMockClient(devices ...vesync.Device) *mockClient {
	return &mockClient{fetchOK: true, devices: devices}
}

func (c *mockClient) Login(_ context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loginCalls++
	if c.loginErr != nil {
		return false, c.loginErr
	}
	return true, nil
}

func (c *mockClient) FetchInventory(_ context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetchCalls++
	if c.fetchErr != nil {
		return false, c.fetchErr
	}
	return c.fetchOK, nil
}

func (c *mockClient) Devices() []vesync.Device {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.devices
}

func (c *mockClient) setDevices(devices ...vesync.Device) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.devices = devices
}

// loggedInSession returns a session manager with an established login.
func loggedInSession(client vesync.Client) *session.Manager {
	m := session.New(client, session.Config{
		Freshness:      5 * time.Minute,
		BackoffBase:    time.Millisecond,
		BackoffMax:     10 * time.Millisecond,
		BackoffAuthMax: 2 * time.Millisecond,
	}, nil)
	m.EnsureLogin(context.Background(), false)
	return m
}
