package device

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gordonklaus/portaudio"

	"prepcoach/internal/voice"
)

var permissionMarkers = []string{"permission", "denied", "not permitted", "not authorized"}

// mapError classifies PortAudio failures into the voice package's device and
// permission errors.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, voice.ErrDevice) || errors.Is(err, voice.ErrPermission) {
		return err
	}
	lower := strings.ToLower(err.Error())
	for _, marker := range permissionMarkers {
		if strings.Contains(lower, marker) {
			return fmt.Errorf("%s: %w: %w", op, voice.ErrPermission, err)
		}
	}
	switch {
	case errors.Is(err, errNoMatch),
		errors.Is(err, portaudio.InvalidDevice),
		errors.Is(err, portaudio.DeviceUnavailable),
		errors.Is(err, portaudio.InvalidChannelCount),
		errors.Is(err, portaudio.InvalidSampleRate):
		return fmt.Errorf("%s: %w: %w", op, voice.ErrDevice, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// transient reports stream conditions that lose samples but leave the stream usable.
func transient(err error) bool {
	return errors.Is(err, portaudio.InputOverflowed) || errors.Is(err, portaudio.OutputUnderflowed)
}
