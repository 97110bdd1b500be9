package db

import (
	"fmt"

	"github.com/spf13/afero"
)

// OpenStore opens the snapshot store for the configured driver
func OpenStore(driver, path string) (SnapshotStore, error) {
	switch driver {
	case "sqlite", "":
		db, err := Open(path)
		if err != nil {
			return nil, err
		}
		return db, nil
	case "file":
		return NewFileStore(afero.NewOsFs(), path), nil
	default:
		return nil, fmt.Errorf("unknown storage driver: %s", driver)
	}
}
