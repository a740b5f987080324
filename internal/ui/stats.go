package ui

import (
	"fmt"
	"sync/atomic"

	"github.com/brogergvhs/panelfetch/internal/util"
)

type Stats struct {
	TotalImages  atomic.Int64
	TotalBytes   atomic.Int64
	ProxyRetries atomic.Int64
	Failed       atomic.Int64
}

func (s *Stats) Summary() string {
	return fmt.Sprintf("%d images, %s, %d proxy retries, %d failed",
		s.TotalImages.Load(), util.Human(s.TotalBytes.Load()), s.ProxyRetries.Load(), s.Failed.Load())
}
