// Package storage sweeps aged files out of the flat-file data
// directories. The trade log is deliberately not on the sweep list;
// the ledger is kept forever.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/luofan/yupen/pkg/config"
	"github.com/luofan/yupen/pkg/logger"
)

// Cleaner removes files older than the retention window from the
// swept directories.
type Cleaner struct {
	dirs          []string
	retentionDays int
	logger        *logger.Logger
}

// NewCleaner builds the sweep list from the data directories. Raw
// series, pool snapshots and IPO artifacts age out; the trade log
// directory is exempt.
func NewCleaner(cfg *config.Config, log *logger.Logger) *Cleaner {
	return &Cleaner{
		dirs: []string{
			cfg.Data.RawDir,
			cfg.Data.PoolDir,
			cfg.Data.IPODir,
		},
		retentionDays: cfg.Data.RetentionDays,
		logger:        log,
	}
}

// Run sweeps every listed directory and returns how many files were
// removed. A missing directory is skipped, not an error; nothing has
// been written there yet.
func (c *Cleaner) Run(now time.Time) (int, error) {
	cutoff := now.AddDate(0, 0, -c.retentionDays)
	removed := 0

	for _, dir := range c.dirs {
		n, err := c.sweepDir(dir, cutoff)
		if err != nil {
			return removed, err
		}
		removed += n
	}

	c.logger.WithFields(map[string]interface{}{
		"removed":        removed,
		"retention_days": c.retentionDays,
	}).Info("Cleanup finished")
	return removed, nil
}

func (c *Cleaner) sweepDir(dir string, cutoff time.Time) (int, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read dir %s: %w", dir, err)
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		if err := os.Remove(path); err != nil {
			c.logger.WithFields(map[string]interface{}{
				"file":  path,
				"error": err.Error(),
			}).Warn("Old file not removed")
			continue
		}
		removed++
		c.logger.WithField("file", path).Debug("Old file removed")
	}
	return removed, nil
}
