package vesync

import (
	"context"
	"testing"
)

func findSimDevice(t *testing.T, c *SimClient, name string) Device {
	t.Helper()
	for _, d := range c.Devices() {
		if d.Info().Name == name {
			return d
		}
	}
	t.Fatalf("no device named %q in the simulated fleet", name)
	return nil
}

func TestSimClient_LoginAndInventoryAlwaysSucceed(t *testing.T) {
	c := NewSimClient()

	if ok, err := c.Login(context.Background()); !ok || err != nil {
		t.Errorf("Login = (%v, %v), want (true, nil)", ok, err)
	}
	if ok, err := c.FetchInventory(context.Background()); !ok || err != nil {
		t.Errorf("FetchInventory = (%v, %v), want (true, nil)", ok, err)
	}
	if len(c.Devices()) == 0 {
		t.Error("simulated fleet should not be empty")
	}
}

func TestSimDevice_ChangeSpeedWritesReportedKey(t *testing.T) {
	c := NewSimClient()

	tests := []struct {
		name   string
		device string
		key    string
	}{
		{"purifier uses speed", "Living Room Purifier", FieldSpeed},
		{"legacy purifier uses level", "Bedroom Purifier", FieldLevel},
		{"humidifier uses mist_level", "Office Humidifier", FieldMistLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := findSimDevice(t, c, tt.device)

			if ok, err := dev.ChangeSpeed(context.Background(), 2); !ok || err != nil {
				t.Fatalf("ChangeSpeed = (%v, %v)", ok, err)
			}

			details, err := dev.GetDetails(context.Background())
			if err != nil {
				t.Fatalf("GetDetails: %v", err)
			}
			if got := details.Raw[tt.key]; got != float64(2) {
				t.Errorf("Raw[%q] = %v, want 2", tt.key, got)
			}
		})
	}
}

func TestSimDevice_ChangeSpeedRejectedWhileOff(t *testing.T) {
	c := NewSimClient()
	dev := findSimDevice(t, c, "Office Humidifier")

	if _, err := dev.TurnOff(context.Background()); err != nil {
		t.Fatalf("TurnOff: %v", err)
	}
	if ok, err := dev.ChangeSpeed(context.Background(), 2); ok || err != nil {
		t.Errorf("ChangeSpeed while off = (%v, %v), want soft failure (false, nil)", ok, err)
	}
}
