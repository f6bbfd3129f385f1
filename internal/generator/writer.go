package generator

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Dataset file names inside a dataset directory.
const (
	UsersFile        = "users.json"
	TransactionsFile = "transactions.json"
)

// WriteDataset serializes the dataset into users.json and transactions.json under the provided directory.
func WriteDataset(dataset Dataset, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	if err := writeJSON(filepath.Join(dir, UsersFile), dataset.Users); err != nil {
		return err
	}
	return writeJSON(filepath.Join(dir, TransactionsFile), dataset.Transactions)
}

// EncodeDataset writes the whole dataset as one JSON document.
func EncodeDataset(dataset Dataset, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(dataset)
}

// ReadDataset loads the two files written by WriteDataset. A blank path skips
// that half of the dataset.
func ReadDataset(usersPath, transactionsPath string) (Dataset, error) {
	var ds Dataset
	if usersPath != "" {
		if err := readJSON(usersPath, &ds.Users); err != nil {
			return Dataset{}, err
		}
	}
	if transactionsPath != "" {
		if err := readJSON(transactionsPath, &ds.Transactions); err != nil {
			return Dataset{}, err
		}
	}
	return ds, nil
}

func writeJSON(path string, data any) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("encode json for %s: %w", path, err)
	}
	return nil
}

func readJSON(path string, dst any) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(dst); err != nil {
		return fmt.Errorf("decode json from %s: %w", path, err)
	}
	return nil
}
