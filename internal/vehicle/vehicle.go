package vehicle

import "context"

type Direction int

const (
	Forward Direction = iota
	Reverse
)

func (d Direction) String() string {
	switch d {
	case Forward:
		return "forward"
	case Reverse:
		return "reverse"
	default:
		return "unknown"
	}
}

// MotorDriver drives a single dc motor channel. Speed is a raw duty value.
type MotorDriver interface {
	Init() error
	SetSpeed(Direction, uint8) error
	Stop() error
	Close() error
}

// SteeringDriver positions the steering servo in degrees, 0 to 180.
type SteeringDriver interface {
	Init() error
	SetAngle(int) error
	Close() error
}

type Vehicle interface {
	Init() error
	Start(context.Context) error
	Close() error
}

func Clamp(value, min, max int) int {
	if value < min {
		return min
	} else if value > max {
		return max
	}
	return value
}

func GetValueWithMidDeadZone(value, midValue, deadZone float64) float64 {
	if value > midValue && midValue+deadZone > value {
		return midValue
	} else if value < midValue && midValue-deadZone < value {
		return midValue
	}
	return value
}

func MapToRange(value, min, max, minReturn, maxReturn float64) float64 {
	mappedValue := (maxReturn-minReturn)*(value-min)/(max-min) + minReturn

	if mappedValue > maxReturn {
		return maxReturn
	} else if mappedValue < minReturn {
		return minReturn
	} else {
		return mappedValue
	}
}
