package ui

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/brogergvhs/panelfetch/internal/util"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// Progress is what the downloader reports to. A nil Progress is valid and
// reports nothing.
type Progress interface {
	Add(bytes int64)
	Done()
}

type MPBProgressManager struct {
	p *mpb.Progress
}

func NewProgressManager(out io.Writer) *MPBProgressManager {
	if out == nil {
		out = os.Stdout
	}

	p := mpb.New(
		mpb.WithWidth(52),
		mpb.WithOutput(out),
		mpb.WithRefreshRate(120*time.Millisecond),
	)
	return &MPBProgressManager{p: p}
}

func (pm *MPBProgressManager) Close() {
	pm.p.Wait()
}

// Register adds a bar for one chapter with a known image count.
func (pm *MPBProgressManager) Register(prefix string, total int) *ProgressHandle {
	h := &ProgressHandle{start: time.Now()}
	h.total.Store(int64(total))

	h.bar = pm.p.New(
		int64(total),
		mpb.BarStyle().Rbound("]"),
		mpb.PrependDecorators(
			decor.Name(prefix+"  "),
		),
		mpb.AppendDecorators(
			decor.Percentage(decor.WCSyncWidth),
			decor.CountersNoUnit(" | %d/%d images", decor.WCSyncWidth),
			decor.Any(func(_ decor.Statistics) string {
				return " | " + util.Human(h.bytes.Load())
			}),
			decor.Any(func(_ decor.Statistics) string {
				if h.final.Load() {
					return fmt.Sprintf(" | %ds", h.elapsed.Load())
				}
				return fmt.Sprintf(" | %ds", int(time.Since(h.start).Seconds()))
			}),
		),
	)

	return h
}

type ProgressHandle struct {
	bar *mpb.Bar

	total atomic.Int64
	bytes atomic.Int64

	start   time.Time
	elapsed atomic.Int64
	final   atomic.Bool
}

// Add records one finished image of the given size.
func (h *ProgressHandle) Add(bytes int64) {
	if h.final.Load() {
		return
	}

	h.bytes.Add(bytes)
	h.bar.Increment()
}

// Done completes the bar even when some images were skipped.
func (h *ProgressHandle) Done() {
	if h.final.Swap(true) {
		return
	}

	h.elapsed.Store(int64(time.Since(h.start).Seconds()))
	h.bar.SetCurrent(h.total.Load())
	h.bar.SetTotal(h.total.Load(), true)
}
