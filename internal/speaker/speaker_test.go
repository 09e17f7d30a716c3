package speaker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Speshl/gorrc_drive/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	lock  sync.Mutex
	calls [][]string
	err   error
}

func (r *recorder) run(ctx context.Context, name string, args ...string) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.calls = append(r.calls, append([]string{name}, args...))
	return r.err
}

func (r *recorder) snapshot() [][]string {
	r.lock.Lock()
	defer r.lock.Unlock()
	return append([][]string(nil), r.calls...)
}

func newTestSpeaker(cfg config.SpeakerConfig, ch chan string) (*Speaker, *recorder) {
	rec := &recorder{}
	s := NewSpeaker(cfg, ch)
	s.run = rec.run
	return s, rec
}

func TestPlay(t *testing.T) {
	s, rec := newTestSpeaker(config.SpeakerConfig{Enabled: true, SoundDir: "/opt/sounds"}, nil)
	require.NoError(t, s.Play(context.Background(), SoundStartup))

	s.cfg.Device = "plughw:1,0"
	require.NoError(t, s.Play(context.Background(), SoundClientConnected))

	assert.Equal(t, [][]string{
		{"aplay", "/opt/sounds/startup.wav"},
		{"aplay", "-D", "plughw:1,0", "/opt/sounds/connected.wav"},
	}, rec.snapshot())
}

func TestPlay_Disabled(t *testing.T) {
	s, rec := newTestSpeaker(config.SpeakerConfig{Enabled: false}, nil)
	require.NoError(t, s.Play(context.Background(), SoundStartup))
	assert.Empty(t, rec.snapshot())
}

func TestPlay_Errors(t *testing.T) {
	s, rec := newTestSpeaker(config.SpeakerConfig{Enabled: true}, nil)
	assert.Error(t, s.Play(context.Background(), "horn"))
	assert.Empty(t, rec.snapshot())

	rec.err = errors.New("no card")
	assert.Error(t, s.Play(context.Background(), SoundShutdown))
}

func TestStart_PlaysQueuedSounds(t *testing.T) {
	ch := make(chan string, 4)
	s, rec := newTestSpeaker(config.SpeakerConfig{Enabled: true, SoundDir: "sounds"}, ch)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Start(ctx)
	}()

	s.Queue(SoundClientConnected)
	s.Queue(SoundClientDisconnected)
	require.Eventually(t, func() bool { return len(rec.snapshot()) == 2 }, time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestStart_ChannelClosed(t *testing.T) {
	ch := make(chan string)
	s, _ := newTestSpeaker(config.SpeakerConfig{}, ch)
	close(ch)
	assert.NoError(t, s.Start(context.Background()))
}

func TestQueue_DropsWhenFull(t *testing.T) {
	ch := make(chan string, 1)
	s, _ := newTestSpeaker(config.SpeakerConfig{}, ch)
	s.Queue(SoundStartup)
	s.Queue(SoundShutdown)
	assert.Len(t, ch, 1)
	assert.Equal(t, SoundStartup, <-ch)
}
