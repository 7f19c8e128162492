package voice

import (
	"context"
	"math"
	"sync/atomic"
	"time"
)

// levelFloorDB is the quietest level that still moves the meter.
const levelFloorDB = -60.0

// Level converts a frame of PCM16 samples into a 0-100 loudness value. The
// scale is logarithmic (-60 dBFS -> 0, 0 dBFS -> 100) and monotonic in RMS.
func Level(frame []int16) int {
	if len(frame) == 0 {
		return 0
	}
	var sum float64
	for _, s := range frame {
		v := float64(s) / 32768.0
		sum += v * v
	}
	rms := math.Sqrt(sum / float64(len(frame)))
	if rms <= 0 {
		return 0
	}
	db := 20 * math.Log10(rms)
	if db <= levelFloorDB {
		return 0
	}
	level := int(math.Round((db - levelFloorDB) / -levelFloorDB * 100))
	switch {
	case level < 0:
		return 0
	case level > 100:
		return 100
	}
	return level
}

// levelMonitor publishes the most recent frame level at a fixed rate. The
// capture reader stores into current; the monitor only reads it.
type levelMonitor struct {
	current  atomic.Int32
	interval time.Duration
	observer func(int)
}

func (m *levelMonitor) store(frame []int16) {
	m.current.Store(int32(Level(frame)))
}

// run publishes until ctx is cancelled, then publishes 0 once.
func (m *levelMonitor) run(ctx context.Context) error {
	if m.observer == nil {
		<-ctx.Done()
		return nil
	}
	defer m.observer(0)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.observer(int(m.current.Load()))
		}
	}
}
