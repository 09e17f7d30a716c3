package lights

import (
	"context"
	"time"

	"github.com/Speshl/gorrc_drive/internal/config"
	"github.com/rs/zerolog/log"
)

// Blinker renders the amber turn signal overlay on its own cadence,
// independent of how often commands arrive. It only reads light state.
type Blinker struct {
	lights *Lights

	blinkInterval time.Duration
	idleInterval  time.Duration
	lockTimeout   time.Duration

	last snapshot
}

func NewBlinker(lights *Lights, cfg config.LightConfig) *Blinker {
	b := &Blinker{
		lights:        lights,
		blinkInterval: cfg.BlinkInterval,
		idleInterval:  cfg.IdleInterval,
		lockTimeout:   cfg.LockTimeout,
	}
	if b.blinkInterval <= 0 {
		b.blinkInterval = config.DefaultBlinkInterval
	}
	if b.idleInterval <= 0 {
		b.idleInterval = config.DefaultIdleInterval
	}
	if b.lockTimeout <= 0 {
		b.lockTimeout = config.DefaultLockTimeout
	}

	lights.lock()
	b.last = lights.snapshotLocked()
	lights.unlock()
	return b
}

// Start runs until ctx is cancelled.
func (b *Blinker) Start(ctx context.Context) error {
	log.Info().Dur("blink", b.blinkInterval).Dur("idle", b.idleInterval).Msg("starting blinker")

	phase := false
	phaseGen := b.last.gen
	for {
		if ctx.Err() != nil {
			log.Info().Msg("blinker stopped")
			return ctx.Err()
		}

		snap := b.observe(ctx)
		if !snap.active() {
			phase = false
			b.lights.pushFrame(snap.scene.Base, snap.gen)
			err := sleep(ctx, b.idleInterval)
			if err != nil {
				log.Info().Msg("blinker stopped")
				return err
			}
			continue
		}

		// a new steering state always starts on the amber half
		if snap.gen != phaseGen {
			phaseGen = snap.gen
			phase = false
		}
		phase = !phase

		if !b.lights.pushFrame(snap.scene.Compose(phase), snap.gen) {
			// superseded by a state change, look again right away
			continue
		}

		err := sleep(ctx, b.blinkInterval)
		if err != nil {
			log.Info().Msg("blinker stopped")
			return err
		}
	}
}

// observe copies the shared light state. When the lock is not available in
// time the last copy is reused.
func (b *Blinker) observe(ctx context.Context) snapshot {
	if !b.lights.lockWithin(ctx, b.lockTimeout) {
		log.Debug().Stringer("state", b.last.state).Msg("light state busy, using last observed")
		return b.last
	}
	b.last = b.lights.snapshotLocked()
	b.lights.unlock()
	return b.last
}
