package lights

import (
	"image/color"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"
)

// Strip is an addressable pixel chain. SetPixel stages a color and Show
// latches all staged colors.
type Strip interface {
	Len() int
	SetPixel(int, color.RGBA) error
	Show() error
}

// Lights owns the vehicle light strip and the status indicator. The
// dispatcher changes state through ApplyState and the blinker renders the
// overlay; both share the same Lights.
type Lights struct {
	// sem guards state, scene, applied and the generation counter writes.
	sem     *semaphore.Weighted
	state   State
	scene   Scene
	applied bool
	gen     atomic.Uint64

	// pushMu serializes whole frame pushes to the strip.
	pushMu     sync.Mutex
	strip      Strip
	frame      Frame
	pushFailed bool

	statusMu     sync.Mutex
	status       Strip
	statusColor  color.RGBA
	statusFailed bool
}

// New builds the light context. A nil strip or status makes the
// corresponding operations no-ops.
func New(strip Strip, status Strip) *Lights {
	return &Lights{
		sem:    semaphore.NewWeighted(1),
		state:  Normal,
		scene:  SceneFor(Normal),
		strip:  strip,
		status: status,
	}
}

// ApplyState switches the light state and pushes the new base colors at
// once. Blink pixels stay off until the blinker's next tick. Re-applying the
// current state changes nothing, so a held turn keeps its blink cadence.
func (l *Lights) ApplyState(state State) {
	scene := SceneFor(state)

	l.pushMu.Lock()
	defer l.pushMu.Unlock()

	l.lock()
	if l.applied && l.state == state {
		l.unlock()
		return
	}
	l.state = state
	l.scene = scene
	l.applied = true
	l.gen.Add(1)
	l.unlock()

	l.push(scene.Base)
	log.Debug().Stringer("state", state).Ints("blink", scene.Blink).Msg("vehicle lights set")
}

func (l *Lights) State() State {
	l.lock()
	defer l.unlock()
	return l.state
}

// Frame is the last frame pushed to the strip.
func (l *Lights) Frame() Frame {
	l.pushMu.Lock()
	defer l.pushMu.Unlock()
	return l.frame
}

type snapshot struct {
	state State
	scene Scene
	gen   uint64
}

func (s snapshot) active() bool {
	return s.scene.Blinking()
}

// snapshotLocked must be called with the state lock held.
func (l *Lights) snapshotLocked() snapshot {
	return snapshot{
		state: l.state,
		scene: l.scene,
		gen:   l.gen.Load(),
	}
}

// pushFrame pushes a frame composed from generation gen. It reports false
// and pushes nothing when the state has changed since.
func (l *Lights) pushFrame(frame Frame, gen uint64) bool {
	l.pushMu.Lock()
	defer l.pushMu.Unlock()

	if gen != l.gen.Load() {
		return false
	}
	l.push(frame)
	return true
}

// push must be called with pushMu held.
func (l *Lights) push(frame Frame) {
	l.frame = frame
	if l.strip == nil {
		return
	}

	err := writeFrame(l.strip, frame[:])
	if err != nil {
		if !l.pushFailed {
			log.Warn().Err(err).Msg("failed pushing vehicle lights")
		}
		l.pushFailed = true
		return
	}
	if l.pushFailed {
		log.Info().Msg("vehicle lights recovered")
	}
	l.pushFailed = false
}

func writeFrame(strip Strip, pixels []color.RGBA) error {
	n := strip.Len()
	for i, c := range pixels {
		if i >= n {
			break
		}
		err := strip.SetPixel(i, c)
		if err != nil {
			return err
		}
	}
	return strip.Show()
}
