package progress

import "time"

const (
	speedHistorySize  = 20
	sampleMinDuration = 150 * time.Millisecond
)

type speedSample struct {
	bytes    int64
	duration time.Duration
}

// speedHistory smooths throughput over a ring of recent samples, the way wget does
type speedHistory struct {
	samples       [speedHistorySize]speedSample
	pos           int
	size          int
	totalBytes    int64
	totalDuration time.Duration

	lastSampleAt    time.Time
	lastSampleBytes int64
}

// observe records the cumulative completed byte count at now
func (sh *speedHistory) observe(now time.Time, completed int64) {
	if sh.lastSampleAt.IsZero() {
		sh.lastSampleAt = now
		sh.lastSampleBytes = completed
		return
	}
	elapsed := now.Sub(sh.lastSampleAt)
	if elapsed < sampleMinDuration {
		return
	}

	if sh.size == speedHistorySize {
		old := sh.samples[sh.pos]
		sh.totalBytes -= old.bytes
		sh.totalDuration -= old.duration
	} else {
		sh.size++
	}

	sample := speedSample{bytes: completed - sh.lastSampleBytes, duration: elapsed}
	sh.samples[sh.pos] = sample
	sh.totalBytes += sample.bytes
	sh.totalDuration += sample.duration
	sh.pos = (sh.pos + 1) % speedHistorySize

	sh.lastSampleAt = now
	sh.lastSampleBytes = completed
}

// bytesPerSecond returns the smoothed rate including bytes seen since the last sample
func (sh *speedHistory) bytesPerSecond(now time.Time, completed int64) float64 {
	bytes := sh.totalBytes
	duration := sh.totalDuration
	if !sh.lastSampleAt.IsZero() {
		bytes += completed - sh.lastSampleBytes
		duration += now.Sub(sh.lastSampleAt)
	}
	if duration <= 0 {
		return 0
	}
	return float64(bytes) / duration.Seconds()
}

func (sh *speedHistory) reset() {
	*sh = speedHistory{}
}
