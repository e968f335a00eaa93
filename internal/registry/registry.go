// Package registry reads the device list maintained by the dashboard's
// device-management pages. The core only consumes it.
package registry

import (
	"encoding/json"
	"fmt"
	"os"

	"plugmon/internal/domain"
)

// Load returns the registered devices in file order. A missing file is an
// empty registry, not an error.
func Load(path string) ([]domain.Device, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read device registry: %w", err)
	}
	var devices []domain.Device
	if err := json.Unmarshal(raw, &devices); err != nil {
		return nil, fmt.Errorf("parse device registry: %w", err)
	}
	return devices, nil
}
