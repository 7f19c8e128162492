package device

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gordonklaus/portaudio"
)

// Initialize starts PortAudio. The returned release func terminates it and is
// safe to call more than once.
func Initialize() (func(), error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, mapError("initialize audio", err)
	}
	released := false
	return func() {
		if released {
			return
		}
		released = true
		_ = portaudio.Terminate()
	}, nil
}

// Device describes one audio endpoint.
type Device struct {
	Index             int     `json:"index"`
	Name              string  `json:"name"`
	HostAPI           string  `json:"host_api"`
	Inputs            int     `json:"inputs"`
	Outputs           int     `json:"outputs"`
	DefaultSampleRate float64 `json:"default_sample_rate"`
	DefaultInput      bool    `json:"default_input"`
	DefaultOutput     bool    `json:"default_output"`
}

// List enumerates the audio devices PortAudio can see.
func List() ([]Device, error) {
	infos, err := portaudio.Devices()
	if err != nil {
		return nil, mapError("list devices", err)
	}
	defIn, _ := portaudio.DefaultInputDevice()
	defOut, _ := portaudio.DefaultOutputDevice()
	out := make([]Device, 0, len(infos))
	for _, info := range infos {
		if info == nil {
			continue
		}
		out = append(out, describe(info, defIn, defOut))
	}
	return out, nil
}

func describe(info, defIn, defOut *portaudio.DeviceInfo) Device {
	d := Device{
		Index:             info.Index,
		Name:              info.Name,
		Inputs:            info.MaxInputChannels,
		Outputs:           info.MaxOutputChannels,
		DefaultSampleRate: info.DefaultSampleRate,
		DefaultInput:      defIn != nil && defIn.Index == info.Index,
		DefaultOutput:     defOut != nil && defOut.Index == info.Index,
	}
	if info.HostApi != nil {
		d.HostAPI = info.HostApi.Name
	}
	return d
}

type direction int

const (
	input direction = iota
	output
)

func (d direction) String() string {
	if d == input {
		return "input"
	}
	return "output"
}

func channels(info *portaudio.DeviceInfo, dir direction) int {
	if dir == input {
		return info.MaxInputChannels
	}
	return info.MaxOutputChannels
}

var errNoMatch = errors.New("no matching audio device")

// selectDevice picks the first device whose name contains want
// (case-insensitive) and has channels in dir. An empty want selects fallback.
func selectDevice(devices []*portaudio.DeviceInfo, want string, dir direction, fallback *portaudio.DeviceInfo) (*portaudio.DeviceInfo, error) {
	want = strings.ToLower(strings.TrimSpace(want))
	if want == "" {
		if fallback == nil || channels(fallback, dir) == 0 {
			return nil, fmt.Errorf("no default %s device: %w", dir, errNoMatch)
		}
		return fallback, nil
	}
	for _, info := range devices {
		if info == nil || channels(info, dir) == 0 {
			continue
		}
		if strings.Contains(strings.ToLower(info.Name), want) {
			return info, nil
		}
	}
	return nil, fmt.Errorf("%s device %q: %w", dir, want, errNoMatch)
}

func lookup(want string, dir direction) (*portaudio.DeviceInfo, error) {
	var (
		fallback *portaudio.DeviceInfo
		err      error
	)
	if strings.TrimSpace(want) == "" {
		if dir == input {
			fallback, err = portaudio.DefaultInputDevice()
		} else {
			fallback, err = portaudio.DefaultOutputDevice()
		}
		if err != nil {
			return nil, fmt.Errorf("find default %s device: %w: %w", dir, errNoMatch, err)
		}
		return selectDevice(nil, "", dir, fallback)
	}
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, mapError("list devices", err)
	}
	return selectDevice(devices, want, dir, nil)
}
