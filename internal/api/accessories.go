package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ashvale/vesync-bridge/internal/bridge"
)

// accessoryResponse is the JSON shape for one bridged accessory.
type accessoryResponse struct {
	UUID            string         `json:"uuid"`
	Name            string         `json:"name"`
	Model           string         `json:"model"`
	SerialNumber    string         `json:"serial_number"`
	Family          string         `json:"family"`
	SpeedLevels     int            `json:"speed_levels"`
	SyncState       string         `json:"sync_state"`
	Faulted         bool           `json:"faulted"`
	Characteristics map[string]any `json:"characteristics"`
}

// toAccessoryResponse flattens a binding into the response shape.
func toAccessoryResponse(b *bridge.Binding) accessoryResponse {
	info := b.Accessory.Info()

	chars := make(map[string]any)
	for t, v := range b.Accessory.Snapshot() {
		chars[string(t)] = v
	}

	return accessoryResponse{
		UUID:            b.UUID,
		Name:            b.Accessory.Name(),
		Model:           info.Model,
		SerialNumber:    info.SerialNumber,
		Family:          string(b.Descriptor.Family),
		SpeedLevels:     b.Descriptor.SpeedLevels,
		SyncState:       b.State().String(),
		Faulted:         b.Faulted(),
		Characteristics: chars,
	}
}

// handleListAccessories returns every bridged accessory with its
// current characteristic values.
func (s *Server) handleListAccessories(w http.ResponseWriter, _ *http.Request) {
	bindings := s.platform.Bindings()

	accessories := make([]accessoryResponse, 0, len(bindings))
	for _, b := range bindings {
		accessories = append(accessories, toAccessoryResponse(b))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"accessories": accessories,
		"count":       len(accessories),
	})
}

// handleGetAccessory returns a single accessory by UUID.
func (s *Server) handleGetAccessory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	for _, b := range s.platform.Bindings() {
		if b.UUID == id {
			writeJSON(w, http.StatusOK, toAccessoryResponse(b))
			return
		}
	}

	writeNotFound(w, "accessory not found")
}
