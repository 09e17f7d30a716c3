package speaker

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"

	"github.com/Speshl/gorrc_drive/internal/config"
	"github.com/rs/zerolog/log"
)

const (
	SoundStartup            = "startup"
	SoundShutdown           = "shutdown"
	SoundClientConnected    = "client_connected"
	SoundClientDisconnected = "client_disconnected"
)

var soundMap = map[string]string{
	SoundStartup:            "startup.wav",
	SoundShutdown:           "shutting_down.wav",
	SoundClientConnected:    "connected.wav",
	SoundClientDisconnected: "disconnected.wav",
}

type runner func(ctx context.Context, name string, args ...string) error

func aplay(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	err := cmd.Start()
	if err != nil {
		return fmt.Errorf("error starting audio playback - %w", err)
	}
	err = cmd.Wait()
	if err != nil {
		return fmt.Errorf("error during audio playback - %w", err)
	}
	return nil
}

type Speaker struct {
	soundChannel chan string
	cfg          config.SpeakerConfig
	run          runner
}

func NewSpeaker(cfg config.SpeakerConfig, soundChannel chan string) *Speaker {
	return &Speaker{
		soundChannel: soundChannel,
		cfg:          cfg,
		run:          aplay,
	}
}

// Start plays cues from the sound channel until ctx is done or the
// channel closes. Playback never blocks the channel.
func (s *Speaker) Start(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("speaker done due to ctx")
			return nil
		case sound, ok := <-s.soundChannel:
			if !ok {
				log.Info().Msg("speaker channel closed, stopping")
				return nil
			}

			go func() {
				err := s.Play(ctx, sound)
				if err != nil {
					log.Warn().Err(err).Str("sound", sound).Msg("failed to play sound")
				}
			}()
		}
	}
}

// Queue hands a cue to Start without waiting. Cues are dropped when the
// channel is full.
func (s *Speaker) Queue(sound string) {
	select {
	case s.soundChannel <- sound:
	default:
		log.Debug().Str("sound", sound).Msg("speaker busy, dropping sound")
	}
}

func (s *Speaker) Play(ctx context.Context, sound string) error {
	if !s.cfg.Enabled {
		log.Debug().Str("sound", sound).Msg("speaker disabled, not playing sound")
		return nil
	}

	file, ok := soundMap[sound]
	if !ok {
		return fmt.Errorf("error: sound %s not found", sound)
	}

	log.Debug().Str("sound", sound).Msg("start playing sound")
	defer log.Debug().Str("sound", sound).Msg("finished playing sound")

	args := make([]string, 0, 3)
	if s.cfg.Device != "" {
		args = append(args, "-D", s.cfg.Device)
	}
	args = append(args, filepath.Join(s.cfg.SoundDir, file))
	return s.run(ctx, "aplay", args...)
}
