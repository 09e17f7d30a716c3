package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
)

const (
	CommandForward     = "forward"
	CommandForwardAbbr = "fwd"
	CommandReverse     = "reverse"
	CommandReverseAbbr = "rev"
	CommandStop        = "stop"
	CommandLeft        = "left"
	CommandRight       = "right"
	CommandCenter      = "center"
	CommandSteer       = "steer"

	MsgTypeCommand   = "command"
	MsgTypeRcCommand = "rc_command"

	DefaultCommandValue = 200
	MinCommandValue     = 0
	MaxCommandValue     = 255
)

// CommandMsg is a text frame from a control client. Discrete commands use
// Command and Value, analog drive uses Payload. Fractional values truncate.
type CommandMsg struct {
	Type    string     `json:"type"`
	Command string     `json:"command"`
	Value   *float64   `json:"value,omitempty"`
	Payload *RcCommand `json:"payload,omitempty"`
}

// RcCommand carries joystick axes in the range [-1, 1].
type RcCommand struct {
	Throttle   float64 `json:"throttle"`
	Steering   float64 `json:"steering"`
	Headlights bool    `json:"headlights,omitempty"`
	Horn       bool    `json:"horn,omitempty"`
}

var ErrMalformedCommand = errors.New("malformed command")

// ParseCommand decodes and checks a control frame. Discrete commands need
// both type and command, analog commands need a payload.
func ParseCommand(data []byte) (CommandMsg, error) {
	msg := CommandMsg{}
	err := json.Unmarshal(data, &msg)
	if err != nil {
		return msg, fmt.Errorf("%w: %w", ErrMalformedCommand, err)
	}

	switch {
	case msg.Type == MsgTypeRcCommand && msg.Payload == nil:
		return msg, fmt.Errorf("%w: rc_command without payload", ErrMalformedCommand)
	case msg.Type == MsgTypeRcCommand:
		return msg, nil
	case msg.Type == "" || msg.Command == "":
		return msg, fmt.Errorf("%w: missing type or command", ErrMalformedCommand)
	}
	return msg, nil
}

// CommandValue saturates to [MinCommandValue, MaxCommandValue] before
// truncating.
func (m CommandMsg) CommandValue() int {
	if m.Value == nil {
		return DefaultCommandValue
	}
	return int(math.Max(MinCommandValue, math.Min(MaxCommandValue, *m.Value)))
}

type ConnectReq struct {
	Key      string `json:"key"`
	Password string `json:"password"`
}

type ConnectResp struct {
	Car Car `json:"car"`
}

type Car struct {
	Id        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	ShortName string    `json:"short_name"`
	Type      string    `json:"type"`
}

type Health struct {
	Interface string `json:"interface"`
	RxBytes   uint64 `json:"rx_bytes"`
	TxBytes   uint64 `json:"tx_bytes"`
	RxErrors  uint64 `json:"rx_errors"`
	TxErrors  uint64 `json:"tx_errors"`
	Clients   int    `json:"clients"`
	Light     string `json:"light"`
	Speed     int    `json:"speed"`
	Angle     int    `json:"angle"`
	TimeStamp int64  `json:"time_stamp"`
}
