package lights

import (
	"fmt"
	"image/color"
)

type State int

const (
	Normal State = iota
	Reversing
	Braking
	SteeringLeft
	SteeringRight
)

func (s State) String() string {
	switch s {
	case Normal:
		return "normal"
	case Reversing:
		return "reversing"
	case Braking:
		return "braking"
	case SteeringLeft:
		return "steering-left"
	case SteeringRight:
		return "steering-right"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

const PixelCount = 4

// Physical pixel order on the strip.
const (
	RearRight = iota
	RearLeft
	FrontLeft
	FrontRight
)

var (
	Off       = color.RGBA{}
	White     = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	HalfWhite = color.RGBA{R: 128, G: 128, B: 128, A: 255}
	Red       = color.RGBA{R: 255, A: 255}
	HalfRed   = color.RGBA{R: 128, A: 255}
	Amber     = color.RGBA{R: 255, G: 133, B: 3, A: 255}

	Green = color.RGBA{G: 255, A: 255}
	Blue  = color.RGBA{B: 255, A: 255}
)

type Frame [PixelCount]color.RGBA

// Scene is what a light state renders: base colors plus the pixels that
// carry the amber overlay. Blink pixels have an off base.
type Scene struct {
	Base  Frame
	Blink []int
}

var scenes = map[State]Scene{
	Normal: {
		Base: Frame{HalfRed, HalfRed, White, White},
	},
	Reversing: {
		Base: Frame{White, White, White, White},
	},
	Braking: {
		Base: Frame{Red, Red, White, White},
	},
	SteeringLeft: {
		Base:  Frame{HalfWhite, Off, Off, White},
		Blink: []int{RearLeft, FrontLeft},
	},
	SteeringRight: {
		Base:  Frame{Off, HalfRed, White, Off},
		Blink: []int{RearRight, FrontRight},
	},
}

// SceneFor looks up the scene for a state. Unknown states are all off.
func SceneFor(state State) Scene {
	scene, ok := scenes[state]
	if !ok {
		return Scene{}
	}
	blink := make([]int, len(scene.Blink))
	copy(blink, scene.Blink)
	return Scene{Base: scene.Base, Blink: blink}
}

func (s Scene) Blinking() bool {
	return len(s.Blink) > 0
}

// Compose overlays the blink phase onto the base colors.
func (s Scene) Compose(on bool) Frame {
	frame := s.Base
	for _, i := range s.Blink {
		if i < 0 || i >= PixelCount {
			continue
		}
		if on {
			frame[i] = Amber
		} else {
			frame[i] = Off
		}
	}
	return frame
}
