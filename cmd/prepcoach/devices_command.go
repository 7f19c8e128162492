package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"prepcoach/internal/audio/device"
)

// enumerateDevices is swapped out in tests; the real one needs an audio host.
var enumerateDevices = func() ([]device.Device, error) {
	release, err := device.Initialize()
	if err != nil {
		return nil, err
	}
	defer release()
	return device.List()
}

func newDevicesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List audio input and output devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			devices, err := enumerateDevices()
			if err != nil {
				return fmt.Errorf("list audio devices: %w", err)
			}
			if ctx.wantJSON() {
				return writeJSON(cmd, devices)
			}
			out := cmd.OutOrStdout()
			if len(devices) == 0 {
				fmt.Fprintln(out, "No audio devices found")
				return nil
			}
			fmt.Fprintln(out, renderTable(
				[]string{"#", "Name", "Host API", "In", "Out", "Rate", "Default"},
				deviceRows(devices),
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
				map[int]int{1: 40},
			))
			fmt.Fprintln(out, "Set audio.input_device / audio.output_device to part of a name to pick one.")
			return nil
		},
	}
}

func deviceRows(devices []device.Device) [][]string {
	rows := make([][]string, 0, len(devices))
	for _, d := range devices {
		def := ""
		switch {
		case d.DefaultInput && d.DefaultOutput:
			def = "input, output"
		case d.DefaultInput:
			def = "input"
		case d.DefaultOutput:
			def = "output"
		}
		rows = append(rows, []string{
			strconv.Itoa(d.Index),
			d.Name,
			valueOrDash(d.HostAPI),
			strconv.Itoa(d.Inputs),
			strconv.Itoa(d.Outputs),
			strconv.FormatFloat(d.DefaultSampleRate, 'f', 0, 64),
			valueOrDash(def),
		})
	}
	return rows
}

func countDevices(devices []device.Device) (inputs, outputs int) {
	for _, d := range devices {
		if d.Inputs > 0 {
			inputs++
		}
		if d.Outputs > 0 {
			outputs++
		}
	}
	return inputs, outputs
}
