package generator

import (
	"fmt"
	"strings"
	"time"
)

// Config drives the synthetic data generator.
type Config struct {
	NumUsers        int
	NumTransactions int
	// SharedAttributeChance is the probability a user reuses an email, phone
	// or address already handed to another user.
	SharedAttributeChance float64
	IPShareChance         float64
	DeviceShareChance     float64
	// LinkLimit is the fan-out bound to use when the dataset is loaded.
	LinkLimit int
	Seed      int64
	// Now anchors generated timestamps; zero means time.Now.
	Now time.Time
}

// Preset names.
const (
	PresetSmall = "small"
	PresetBulk  = "bulk"
)

// SmallConfig is a hand-inspectable dataset: a few users with heavily shared
// contact details and a handful of linked transactions.
func SmallConfig() Config {
	return Config{
		NumUsers:              8,
		NumTransactions:       12,
		SharedAttributeChance: 0.6,
		IPShareChance:         0.7,
		DeviceShareChance:     0.7,
		LinkLimit:             3,
		Seed:                  42,
	}
}

// BulkConfig is the load-test dataset.
func BulkConfig() Config {
	return Config{
		NumUsers:              1000,
		NumTransactions:       100000,
		SharedAttributeChance: 0.05,
		IPShareChance:         0.3,
		DeviceShareChance:     0.3,
		LinkLimit:             20,
		Seed:                  42,
	}
}

// DefaultConfig returns the bulk preset.
func DefaultConfig() Config {
	return BulkConfig()
}

// Preset resolves a preset by name.
func Preset(name string) (Config, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case PresetSmall:
		return SmallConfig(), nil
	case PresetBulk, "":
		return BulkConfig(), nil
	default:
		return Config{}, fmt.Errorf("unknown preset %q (want %s or %s)", name, PresetSmall, PresetBulk)
	}
}
