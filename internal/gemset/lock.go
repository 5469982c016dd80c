package gemset

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	lockSuffix       = ".lock"
	lockPollInterval = 100 * time.Millisecond
)

// Lock takes an exclusive cross-process lock on the gemset at home and returns
// the function that releases it. The lock file sits next to the gemset so the
// gemset directory itself is still created lazily by the first install.
func Lock(ctx context.Context, home string) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(home), 0o755); err != nil {
		return nil, fmt.Errorf("prepare gemset root: %w", err)
	}
	return acquireLock(ctx, home+lockSuffix)
}

func waitForLock(ctx context.Context, ticker *time.Ticker) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("acquire gemset lock: %w", ctx.Err())
	case <-ticker.C:
		return nil
	}
}
