package device

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestReadSignals(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    Signals
		wantErr bool
	}{
		{
			name:    "partial file keeps defaults",
			content: "wifi: false\nbattery_level: 0.05\n",
			want: func() Signals {
				s := DefaultSignals()
				s.Wifi = false
				s.BatteryLevel = 0.05
				return s
			}(),
		},
		{
			name: "full file",
			content: `registered: false
app_ready: false
wifi: false
reachable: false
battery_level: 0.5
low_power: true
foreground: false
`,
			want: Signals{BatteryLevel: 0.5, LowPower: true},
		},
		{
			name:    "invalid yaml",
			content: "wifi: [",
			want:    DefaultSignals(),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "signals.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			got, err := ReadSignals(path)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			require.Equal(t, tt.want, got)
		})
	}
}

func TestReadSignals_MissingFile(t *testing.T) {
	got, err := ReadSignals(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	require.Equal(t, DefaultSignals(), got)
}

type signalRecorder struct {
	mu  sync.Mutex
	got []Signals
}

func (r *signalRecorder) record(s Signals) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, s)
}

func (r *signalRecorder) last() (Signals, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.got) == 0 {
		return Signals{}, 0
	}
	return r.got[len(r.got)-1], len(r.got)
}

func TestFileSource_DeliversChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "signals.yaml")
	require.NoError(t, os.WriteFile(path, []byte("wifi: true\n"), 0o644))

	src := NewFileSource(path, slog.New(slog.NewTextHandler(io.Discard, nil)))
	src.debounce = 20 * time.Millisecond

	rec := &signalRecorder{}
	require.NoError(t, src.Start(context.Background(), rec.record))
	defer src.Stop()

	first, n := rec.last()
	require.Equal(t, 1, n)
	require.True(t, first.Wifi)

	require.Error(t, src.Start(context.Background(), rec.record))

	require.NoError(t, os.WriteFile(path, []byte("wifi: false\n"), 0o644))
	require.Eventually(t, func() bool {
		s, _ := rec.last()
		return !s.Wifi
	}, 3*time.Second, 20*time.Millisecond)
}

func TestFileSource_StopAndRestart(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "signals.yaml")

	src := NewFileSource(path, slog.New(slog.NewTextHandler(io.Discard, nil)))
	rec := &signalRecorder{}

	require.NoError(t, src.Start(context.Background(), rec.record))
	got, _ := rec.last()
	require.Equal(t, DefaultSignals(), got)

	src.Stop()
	src.Stop()

	require.NoError(t, src.Start(context.Background(), rec.record))
	src.Stop()
	_, n := rec.last()
	require.Equal(t, 2, n)
}

func TestStaticSource(t *testing.T) {
	want := Signals{Reachable: true, BatteryLevel: 0.3}
	src := &StaticSource{Signals: want}
	var got Signals
	require.NoError(t, src.Start(context.Background(), func(s Signals) { got = s }))
	src.Stop()
	require.Equal(t, want, got)
}

func TestDiskSpace(t *testing.T) {
	free, err := DiskSpace(t.TempDir())
	require.NoError(t, err)
	require.Greater(t, free, uint64(0))

	_, err = DiskSpace(filepath.Join(t.TempDir(), "missing", "dir"))
	require.Error(t, err)
}
