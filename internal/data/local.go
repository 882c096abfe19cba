package data

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadSnapshotFile reads a historical chain document from disk.
//
// The document is a JSON array of TradingDay entries:
//
//	[{"symbol":"SPY","date":"2025-06-02","price":528.41,"options":[...]}, ...]
func LoadSnapshotFile(path string) ([]TradingDay, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read chain snapshot %s: %w", path, err)
	}

	var days []TradingDay
	if err := json.Unmarshal(b, &days); err != nil {
		return nil, fmt.Errorf("parse chain snapshot %s: %w", path, err)
	}
	return days, nil
}

// WriteSnapshotFile writes a chain document to disk in the same format
// LoadSnapshotFile reads. Used by the synthetic generator CLI path.
func WriteSnapshotFile(path string, days []TradingDay) error {
	b, err := json.MarshalIndent(days, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}
