package lights

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/Speshl/gorrc_drive/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastCfg() config.LightConfig {
	return config.LightConfig{
		BlinkInterval: 20 * time.Millisecond,
		IdleInterval:  5 * time.Millisecond,
		LockTimeout:   10 * time.Millisecond,
	}
}

func startBlinker(t *testing.T, l *Lights, cfg config.LightConfig) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	b := NewBlinker(l, cfg)
	done := make(chan error, 1)
	go func() {
		done <- b.Start(ctx)
	}()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			cancel()
			select {
			case err := <-done:
				assert.ErrorIs(t, err, context.Canceled)
			case <-time.After(2 * time.Second):
				t.Error("blinker did not stop")
			}
		})
	}
	t.Cleanup(stop)
	return stop
}

func fromScene(f Frame, s State) bool {
	scene := SceneFor(s)
	return f == scene.Base || f == scene.Compose(true) || f == scene.Compose(false)
}

func leftAmber(f Frame) bool {
	return f[RearLeft] == Amber || f[FrontLeft] == Amber
}

func rightAmber(f Frame) bool {
	return f[RearRight] == Amber || f[FrontRight] == Amber
}

// transitions counts amber/off changes of pixel i.
func transitions(frames []Frame, i int) int {
	n := 0
	for k := 1; k < len(frames); k++ {
		if frames[k][i] != frames[k-1][i] {
			n++
		}
	}
	return n
}

func TestBlinker_IdlePushesBase(t *testing.T) {
	strip := newFakeStrip(PixelCount)
	l := New(strip, nil)
	l.ApplyState(Braking)

	stop := startBlinker(t, l, fastCfg())
	time.Sleep(60 * time.Millisecond)
	stop()

	frames := strip.snapshot()
	assert.Greater(t, len(frames), 3)
	for _, f := range frames {
		assert.Equal(t, SceneFor(Braking).Base, f)
	}
}

func TestBlinker_TogglesBlinkPixels(t *testing.T) {
	strip := newFakeStrip(PixelCount)
	l := New(strip, nil)
	l.ApplyState(SteeringLeft)

	stop := startBlinker(t, l, fastCfg())
	time.Sleep(300 * time.Millisecond)
	stop()

	frames := strip.snapshot()[1:]
	require.NotEmpty(t, frames)
	assert.Equal(t, Amber, frames[0][RearLeft], "first blink frame is amber")

	assert.GreaterOrEqual(t, transitions(frames, RearLeft), 4)
	assert.GreaterOrEqual(t, transitions(frames, FrontLeft), 4)
	assert.Zero(t, transitions(frames, RearRight))
	assert.Zero(t, transitions(frames, FrontRight))
	for _, f := range frames {
		assert.True(t, fromScene(f, SteeringLeft))
		assert.Equal(t, f[RearLeft], f[FrontLeft])
	}
}

func TestBlinker_RealCadence(t *testing.T) {
	if testing.Short() {
		t.Skip("runs for over two seconds")
	}

	strip := newFakeStrip(PixelCount)
	l := New(strip, nil)
	l.ApplyState(SteeringLeft)

	cfg := fastCfg()
	cfg.BlinkInterval = 500 * time.Millisecond
	stop := startBlinker(t, l, cfg)
	time.Sleep(2300 * time.Millisecond)
	stop()

	frames := strip.snapshot()[1:]
	times := strip.timestamps()[1:]
	require.GreaterOrEqual(t, len(frames), 5)

	cycles := 0
	for k := 1; k < len(frames); k++ {
		if frames[k-1][RearLeft] == Amber && frames[k][RearLeft] == Off {
			cycles++
		}
		gap := times[k].Sub(times[k-1])
		assert.InDelta(t, 500*time.Millisecond, gap, float64(250*time.Millisecond))
	}
	assert.GreaterOrEqual(t, cycles, 2)

	base := SceneFor(SteeringLeft).Base
	for _, f := range frames {
		assert.Equal(t, base[RearRight], f[RearRight])
		assert.Equal(t, base[FrontRight], f[FrontRight])
	}
}

func TestBlinker_HeldTurnKeepsCadence(t *testing.T) {
	if testing.Short() {
		t.Skip("runs for over a second")
	}

	strip := newFakeStrip(PixelCount)
	l := New(strip, nil)
	l.ApplyState(SteeringLeft)

	cfg := fastCfg()
	cfg.BlinkInterval = 200 * time.Millisecond
	stop := startBlinker(t, l, cfg)

	// a joystick held left resends the same command at 20 Hz
	deadline := time.Now().Add(1200 * time.Millisecond)
	for time.Now().Before(deadline) {
		l.ApplyState(SteeringLeft)
		time.Sleep(50 * time.Millisecond)
	}
	stop()

	frames := strip.snapshot()[1:]
	times := strip.timestamps()[1:]
	require.GreaterOrEqual(t, len(frames), 4)
	assert.LessOrEqual(t, len(frames), 8)

	for k := 1; k < len(frames); k++ {
		assert.NotEqual(t, frames[k-1][RearLeft], frames[k][RearLeft], "frame %d", k)
		gap := times[k].Sub(times[k-1])
		assert.GreaterOrEqual(t, gap, 180*time.Millisecond, "frame %d", k)
	}
}

func TestBlinker_NewSteeringStartsAmber(t *testing.T) {
	strip := newFakeStrip(PixelCount)
	l := New(strip, nil)
	l.ApplyState(SteeringLeft)

	stop := startBlinker(t, l, fastCfg())
	time.Sleep(50 * time.Millisecond)
	l.ApplyState(SteeringRight)
	time.Sleep(50 * time.Millisecond)
	stop()

	frames := strip.snapshot()
	right := SceneFor(SteeringRight)
	swap := -1
	for i, f := range frames {
		if f == right.Base {
			swap = i
			break
		}
	}
	require.GreaterOrEqual(t, swap, 0)
	require.Greater(t, len(frames), swap+1)
	assert.Equal(t, right.Compose(true), frames[swap+1])
}

func TestBlinker_LeftRightNeverBoth(t *testing.T) {
	strip := newFakeStrip(PixelCount)
	l := New(strip, nil)
	startBlinker(t, l, fastCfg())

	for i := 0; i < 100; i++ {
		l.ApplyState(SteeringLeft)
		time.Sleep(time.Duration(i%7) * time.Millisecond)
		l.ApplyState(SteeringRight)
		time.Sleep(time.Duration(i%5) * time.Millisecond)
	}

	for k, f := range strip.snapshot() {
		assert.False(t, leftAmber(f) && rightAmber(f), "frame %d: %v", k, f)
	}
}

func TestBlinker_RandomInterleaving(t *testing.T) {
	strip := newFakeStrip(PixelCount)
	l := New(strip, nil)
	stop := startBlinker(t, l, fastCfg())

	rng := rand.New(rand.NewSource(7))
	var states []State
	var marks []int
	for i := 0; i < 200; i++ {
		s := allStates[rng.Intn(len(allStates))]
		l.ApplyState(s)
		states = append(states, s)
		marks = append(marks, strip.count())
		time.Sleep(time.Duration(rng.Intn(3000)) * time.Microsecond)
	}
	stop()

	frames := strip.snapshot()
	for k := range states {
		end := len(frames)
		if k+1 < len(marks) {
			end = marks[k+1]
		}
		for i := marks[k]; i < end; i++ {
			ok := fromScene(frames[i], states[k]) || (k+1 < len(states) && fromScene(frames[i], states[k+1]))
			assert.True(t, ok, "frame %d after %s: %v", i, states[k], frames[i])
		}
	}

	// amber only ever shows on pixels of a steering blink set
	for i, f := range frames {
		if leftAmber(f) {
			assert.True(t, fromScene(f, SteeringLeft), "frame %d", i)
		}
		if rightAmber(f) {
			assert.True(t, fromScene(f, SteeringRight), "frame %d", i)
		}
	}
}

func TestBlinker_LockTimeoutKeepsAnimating(t *testing.T) {
	strip := newFakeStrip(PixelCount)
	l := New(strip, nil)
	l.ApplyState(SteeringLeft)
	startBlinker(t, l, fastCfg())
	time.Sleep(30 * time.Millisecond)

	l.lock()
	before := strip.count()
	time.Sleep(200 * time.Millisecond)
	after := strip.count()
	l.unlock()

	assert.GreaterOrEqual(t, after-before, 3)
	frames := strip.snapshot()[before:after]
	assert.Greater(t, transitions(frames, RearLeft), 1)
	for _, f := range frames {
		assert.True(t, fromScene(f, SteeringLeft))
	}
}

func TestBlinker_NilStrip(t *testing.T) {
	l := New(nil, nil)
	l.ApplyState(SteeringRight)
	stop := startBlinker(t, l, fastCfg())
	time.Sleep(30 * time.Millisecond)
	stop()
	assert.Equal(t, SteeringRight, l.State())
}

func TestNewBlinker_Defaults(t *testing.T) {
	b := NewBlinker(New(nil, nil), config.LightConfig{})
	assert.Equal(t, config.DefaultBlinkInterval, b.blinkInterval)
	assert.Equal(t, config.DefaultIdleInterval, b.idleInterval)
	assert.Equal(t, config.DefaultLockTimeout, b.lockTimeout)
}
