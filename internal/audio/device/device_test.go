package device

import (
	"errors"
	"testing"

	"github.com/gordonklaus/portaudio"

	"prepcoach/internal/voice"
)

func testDevices() []*portaudio.DeviceInfo {
	return []*portaudio.DeviceInfo{
		{Index: 0, Name: "HDA Intel PCH: ALC257 Analog", MaxInputChannels: 2, MaxOutputChannels: 2},
		{Index: 1, Name: "HDMI Output", MaxOutputChannels: 8},
		{Index: 2, Name: "USB Headset Microphone", MaxInputChannels: 1},
	}
}

func TestSelectDeviceMatchesNameForDirection(t *testing.T) {
	devices := testDevices()

	got, err := selectDevice(devices, "usb", input, nil)
	if err != nil || got.Index != 2 {
		t.Fatalf("expected USB headset, got %+v err=%v", got, err)
	}
	got, err = selectDevice(devices, "hdmi", output, nil)
	if err != nil || got.Index != 1 {
		t.Fatalf("expected HDMI output, got %+v err=%v", got, err)
	}
	if _, err := selectDevice(devices, "hdmi", input, nil); !errors.Is(err, errNoMatch) {
		t.Fatalf("output-only device must not satisfy input, got %v", err)
	}
}

func TestSelectDeviceDefault(t *testing.T) {
	devices := testDevices()
	got, err := selectDevice(devices, "  ", input, devices[0])
	if err != nil || got != devices[0] {
		t.Fatalf("expected default device, got %+v err=%v", got, err)
	}
	if _, err := selectDevice(devices, "", input, devices[1]); !errors.Is(err, errNoMatch) {
		t.Fatalf("default without inputs should fail, got %v", err)
	}
}

func TestMapErrorClassifies(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want error
	}{
		{"invalid device", portaudio.InvalidDevice, voice.ErrDevice},
		{"unavailable", portaudio.DeviceUnavailable, voice.ErrDevice},
		{"no match", errNoMatch, voice.ErrDevice},
		{"permission text", errors.New("ALSA: Permission denied"), voice.ErrPermission},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := mapError("open microphone", tc.err); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
	if mapError("op", nil) != nil {
		t.Fatal("nil error should stay nil")
	}
	other := mapError("op", errors.New("boom"))
	if errors.Is(other, voice.ErrDevice) || errors.Is(other, voice.ErrPermission) {
		t.Fatalf("unclassified error misclassified: %v", other)
	}
}

func TestTransient(t *testing.T) {
	if !transient(portaudio.InputOverflowed) {
		t.Fatal("input overflow should be transient")
	}
	if transient(portaudio.DeviceUnavailable) {
		t.Fatal("device unavailable should not be transient")
	}
}

func TestChunks(t *testing.T) {
	samples := make([]int16, 10)
	got := chunks(samples, 4)
	if len(got) != 3 || len(got[0]) != 4 || len(got[2]) != 2 {
		t.Fatalf("unexpected chunking: %d chunks", len(got))
	}
	if chunks(samples, 0) != nil {
		t.Fatal("zero size should yield nil")
	}
}

func TestDescribeMarksDefaults(t *testing.T) {
	devices := testDevices()
	devices[0].HostApi = &portaudio.HostApiInfo{Name: "ALSA"}
	d := describe(devices[0], devices[0], devices[1])
	if !d.DefaultInput || d.DefaultOutput || d.HostAPI != "ALSA" {
		t.Fatalf("unexpected description %+v", d)
	}
}
