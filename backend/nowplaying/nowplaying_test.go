package nowplaying

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTransportLabel(t *testing.T) {
	tests := []struct {
		input string
		want  TransportLabel
	}{
		{"play", Play},
		{"pause", Pause},
		{"", Other},
		{"buffering", Other},
		{"Play", Other},
		{"pause ", Other},
	}
	for _, tt := range tests {
		if got := ParseTransportLabel(tt.input); got != tt.want {
			t.Errorf("ParseTransportLabel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestHolder_SetReplacesWholeSnapshot(t *testing.T) {
	var h Holder
	assert.Equal(t, Snapshot{}, h.Current())

	a := Snapshot{Title: "Song A", Subtitle: "Artist A", Icon: "aWNvbg==", Transport: Play, DurationMs: 1000, PositionMs: 10}
	b := Snapshot{Title: "Song B", Transport: Pause, DurationMs: 2000}
	h.Set(a)
	h.Set(b)

	// no field of a may survive
	assert.Equal(t, b, h.Current())
}

func TestHolder_ConcurrentAccess(t *testing.T) {
	var h Holder
	var wg sync.WaitGroup
	const goroutines = 8
	wg.Add(goroutines * 2)
	for i := 0; i < goroutines; i++ {
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				h.Set(Snapshot{PositionMs: int64(i*100 + j)})
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = h.Current()
			}
		}()
	}
	wg.Wait()
}

func TestPositionPolicy(t *testing.T) {
	tests := []struct {
		policy   PositionPolicy
		pos, dur int64
		want     int64
	}{
		{PositionAccept, 5000, 200000, 5000},
		{PositionAccept, 300000, 200000, 300000},
		{PositionAccept, -5, 200000, -5},
		{PositionClamp, 5000, 200000, 5000},
		{PositionClamp, 300000, 200000, 200000},
		{PositionClamp, -5, 200000, 0},
		{PositionClamp, 300000, 0, 300000},
	}
	for _, tt := range tests {
		got := tt.policy.Apply(tt.pos, tt.dur)
		assert.Equalf(t, tt.want, got, "%s.Apply(%d, %d)", tt.policy, tt.pos, tt.dur)
	}

	assert.Equal(t, PositionClamp, ParsePositionPolicy("Clamp"))
	assert.Equal(t, PositionAccept, ParsePositionPolicy("reject"))
	assert.Equal(t, PositionAccept, ParsePositionPolicy(""))
}
