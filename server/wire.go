package server

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"go-fretboard/playback"
)

// Wire message types. transport, stop and seek carry playback commands;
// the rest are connection housekeeping.
const (
	TypeTransport = "transport"
	TypeStop      = "stop"
	TypeSeek      = "seek"
	TypePing      = "ping"
	TypePong      = "pong"
	TypeError     = "error"
)

// WireMessage is the JSON frame exchanged on /sync/:id
type WireMessage struct {
	Type     string            `json:"type" validate:"required,oneof=transport stop seek ping pong error"`
	SyncID   string            `json:"syncId,omitempty" validate:"omitempty,max=64"`
	Origin   string            `json:"origin,omitempty" validate:"omitempty,max=64"`
	Playing  *bool             `json:"playing,omitempty" validate:"required_if=Type transport"`
	Bar      *int              `json:"bar,omitempty" validate:"omitempty,gte=0"`
	Tick     *int64            `json:"tick,omitempty" validate:"omitempty,gte=0"`
	Percent  *float64          `json:"percent,omitempty" validate:"omitempty,gte=0,lte=1"`
	Autoplay bool              `json:"autoplay,omitempty"`
	Error    string            `json:"error,omitempty"`
	Details  map[string]string `json:"details,omitempty"`
}

var ErrNoSeekTarget = errors.New("seek needs bar, tick or percent")

var validate = validator.New()

// EncodeMessage turns a bus message into a wire frame
func EncodeMessage(msg playback.Message) ([]byte, error) {
	w := WireMessage{SyncID: msg.SyncID, Origin: msg.Origin}
	switch cmd := msg.Command.(type) {
	case playback.TransportCmd:
		w.Type = TypeTransport
		playing := cmd.Playing
		w.Playing = &playing
	case playback.StopCmd:
		w.Type = TypeStop
	case playback.SeekCmd:
		w.Type = TypeSeek
		w.Bar, w.Tick, w.Percent, w.Autoplay = cmd.Bar, cmd.Tick, cmd.Percent, cmd.Autoplay
	default:
		return nil, fmt.Errorf("unknown command %T", msg.Command)
	}
	return json.Marshal(w)
}

// DecodeFrame parses and validates a wire frame
func DecodeFrame(data []byte) (WireMessage, error) {
	var w WireMessage
	if err := json.Unmarshal(data, &w); err != nil {
		return w, fmt.Errorf("decode frame: %w", err)
	}
	if err := validate.Struct(&w); err != nil {
		return w, err
	}
	if w.Type == TypeSeek && w.Bar == nil && w.Tick == nil && w.Percent == nil {
		return w, ErrNoSeekTarget
	}
	return w, nil
}

// Command converts a validated frame to a playback command. Housekeeping
// frames return ok=false.
func (w WireMessage) Command() (playback.Command, bool) {
	switch w.Type {
	case TypeTransport:
		return playback.TransportCmd{Playing: w.Playing != nil && *w.Playing}, true
	case TypeStop:
		return playback.StopCmd{}, true
	case TypeSeek:
		return playback.SeekCmd{Bar: w.Bar, Tick: w.Tick, Percent: w.Percent, Autoplay: w.Autoplay}, true
	}
	return nil, false
}

func errorFrame(err error) []byte {
	w := WireMessage{Type: TypeError, Error: err.Error(), Details: formatValidationErrors(err)}
	data, _ := json.Marshal(w)
	return data
}

func pongFrame() []byte {
	data, _ := json.Marshal(WireMessage{Type: TypePong})
	return data
}
