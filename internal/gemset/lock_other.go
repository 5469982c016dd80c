//go:build !unix

package gemset

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"
)

func acquireLock(ctx context.Context, lockPath string) (func(), error) {
	ticker := time.NewTicker(lockPollInterval)
	defer ticker.Stop()

	for {
		f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if err == nil {
			_ = f.Close()
			return func() { _ = os.Remove(lockPath) }, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("acquire lock: %w", err)
		}
		if err := waitForLock(ctx, ticker); err != nil {
			return nil, err
		}
	}
}
