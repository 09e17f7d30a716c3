package command

import (
	"sync"

	"github.com/stianeikeland/go-rpio/v4"
)

// FakePin records what a driver writes to it. It satisfies both OutputPin and
// PwmPin and is used by driver tests in place of rpio.Pin.
type FakePin struct {
	lock sync.Mutex

	IsOutput bool
	Level    bool
	PinMode  rpio.Mode
	Clock    int
	Duty     uint32
	Cycle    uint32
	Writes   int
}

func (p *FakePin) Output() {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.IsOutput = true
}

func (p *FakePin) High() {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.Level = true
	p.Writes++
}

func (p *FakePin) Low() {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.Level = false
	p.Writes++
}

func (p *FakePin) Mode(mode rpio.Mode) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.PinMode = mode
}

func (p *FakePin) Freq(freq int) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.Clock = freq
}

func (p *FakePin) DutyCycle(dutyLen, cycleLen uint32) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.Duty = dutyLen
	p.Cycle = cycleLen
	p.Writes++
}
