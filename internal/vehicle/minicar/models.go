package minicar

import (
	"sync"
	"time"

	"github.com/Speshl/gorrc_drive/internal/config"
	"github.com/Speshl/gorrc_drive/internal/lights"
	"github.com/Speshl/gorrc_drive/internal/vehicle"
)

const (
	MinSpeed = 0
	MaxSpeed = 255

	MinAngle = 0
	MaxAngle = 180

	MaxInput = 1.0
	MinInput = -1.0

	// failsafe checks at least this often
	MinSafetyTick = 10 * time.Millisecond
)

var _ vehicle.Vehicle = (*MiniCar)(nil)

// LightRenderer receives a light state transition for every command.
type LightRenderer interface {
	ApplyState(lights.State)
}

type MiniCar struct {
	lock sync.RWMutex
	cfg  config.CarConfig

	motor  vehicle.MotorDriver
	steer  vehicle.SteeringDriver
	lights LightRenderer

	motorReady bool
	steerReady bool

	state           Snapshot
	lastCommandTime time.Time
}

// Snapshot is the last commanded actuator and light state.
type Snapshot struct {
	Direction vehicle.Direction
	Speed     int
	Moving    bool
	Angle     int
	Light     lights.State
}
