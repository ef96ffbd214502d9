package midi

import (
	"errors"
	"fmt"
	"strings"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver

	"go-fretboard/debug"
)

// portTimeout bounds a port scan; CoreMIDI can hang
const portTimeout = 3 * time.Second

var ErrPortScanTimeout = errors.New("midi port scan timed out")

type portsResult struct {
	ins  []drivers.In
	outs []drivers.Out
}

func scan(timeout time.Duration) (portsResult, error) {
	ch := make(chan portsResult, 1)
	go func() {
		ch <- portsResult{ins: gomidi.GetInPorts(), outs: gomidi.GetOutPorts()}
	}()

	select {
	case r := <-ch:
		return r, nil
	case <-time.After(timeout):
		// on macOS: sudo killall coreaudiod midiserver
		debug.Log("midi", "port scan hung for %s", timeout)
		return portsResult{}, ErrPortScanTimeout
	}
}

// Ports lists the names of the available input and output ports
func Ports(timeout time.Duration) (ins, outs []string, err error) {
	r, err := scan(timeout)
	if err != nil {
		return nil, nil, err
	}
	for _, p := range r.ins {
		ins = append(ins, p.String())
	}
	for _, p := range r.outs {
		outs = append(outs, p.String())
	}
	return ins, outs, nil
}

// FindOut returns the first output port whose name contains name
func FindOut(name string, timeout time.Duration) (drivers.Out, error) {
	r, err := scan(timeout)
	if err != nil {
		return nil, err
	}
	for _, p := range r.outs {
		if matchPort(p.String(), name) {
			return p, nil
		}
	}
	return nil, fmt.Errorf("no output port matching %q", name)
}

// FindIn returns the first input port whose name contains name
func FindIn(name string, timeout time.Duration) (drivers.In, error) {
	r, err := scan(timeout)
	if err != nil {
		return nil, err
	}
	for _, p := range r.ins {
		if matchPort(p.String(), name) {
			return p, nil
		}
	}
	return nil, fmt.Errorf("no input port matching %q", name)
}

func matchPort(port, name string) bool {
	return strings.Contains(strings.ToLower(port), strings.ToLower(strings.TrimSpace(name)))
}
