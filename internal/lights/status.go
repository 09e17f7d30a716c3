package lights

import (
	"context"
	"image/color"
	"time"

	"github.com/rs/zerolog/log"
)

func (l *Lights) SetStatus(c color.RGBA) {
	l.statusMu.Lock()
	defer l.statusMu.Unlock()

	l.statusColor = c
	l.showStatus(c)
}

// SetConnected shows green while a control client is attached, blue otherwise.
func (l *Lights) SetConnected(connected bool) {
	if connected {
		l.SetStatus(Green)
	} else {
		l.SetStatus(Blue)
	}
}

func (l *Lights) Status() color.RGBA {
	l.statusMu.Lock()
	defer l.statusMu.Unlock()
	return l.statusColor
}

// FlashStatus blinks the status pixel times times, then restores the status
// color that was set before.
func (l *Lights) FlashStatus(ctx context.Context, c color.RGBA, times int, delay time.Duration) error {
	l.statusMu.Lock()
	defer l.statusMu.Unlock()
	defer l.showStatus(l.statusColor)

	for i := 0; i < times; i++ {
		l.showStatus(c)
		err := sleep(ctx, delay)
		if err != nil {
			return err
		}
		l.showStatus(Off)
		err = sleep(ctx, delay)
		if err != nil {
			return err
		}
	}
	return nil
}

// showStatus must be called with statusMu held.
func (l *Lights) showStatus(c color.RGBA) {
	if l.status == nil || l.status.Len() == 0 {
		return
	}

	err := writeFrame(l.status, []color.RGBA{c})
	if err != nil {
		if !l.statusFailed {
			log.Warn().Err(err).Msg("failed setting status led")
		}
		l.statusFailed = true
		return
	}
	l.statusFailed = false
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
