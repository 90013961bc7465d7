package safe

import (
	"github.com/aamitn/bitmutex-website-sub000/logger"
)

// Go starts a goroutine that recovers from panic, so a misbehaving
// fire-and-forget call can't take the whole relay down.
func Go(name string, f func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorf("[safe.Go] %s panic recovered: %v", name, r)
			}
		}()
		f()
	}()
}
