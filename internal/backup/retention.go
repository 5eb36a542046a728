package backup

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// ApplyRetention deletes every bundle beyond the keep most recent ones.
// Deletions are independent: a failure on one bundle is logged and the
// pass continues; the returned count reflects only bundles actually
// removed. Negative keep values are treated as zero.
func (e *Engine) ApplyRetention(keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}

	bundles, err := e.ListBackups()
	if err != nil {
		return 0, err
	}
	if len(bundles) <= keep {
		return 0, nil
	}

	deleted := 0
	for _, b := range bundles[keep:] {
		if err := os.Remove(filepath.Join(e.dir, b.Filename)); err != nil {
			e.logger.Warn("failed to delete old backup",
				zap.String("filename", b.Filename), zap.Error(err))
			continue
		}
		deleted++
		retentionDeleted.Inc()
	}

	if deleted > 0 {
		e.logger.Info("retention pass complete",
			zap.Int("deleted", deleted), zap.Int("kept", keep))
	}
	return deleted, nil
}
