package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"prepcoach/internal/preflight"
)

var errDoctorFailed = errors.New("one or more required checks failed")

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check backend, credentials, audio devices, and speech synthesis",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			client, err := ctx.backendClient()
			if err != nil {
				return err
			}
			creds, err := ctx.credentials()
			if err != nil {
				return err
			}

			in := preflight.Inputs{
				Backend:       client,
				Authenticated: creds.Authenticated(),
				CredentialSrc: string(creds.Source()),
			}
			devices, devErr := enumerateDevices()
			if devErr != nil {
				in.AudioErr = devErr
			} else {
				in.Audio.Inputs, in.Audio.Outputs = countDevices(devices)
			}

			results := preflight.RunAll(cmd.Context(), cfg, in)
			if ctx.wantJSON() {
				if err := writeJSON(cmd, results); err != nil {
					return err
				}
			} else {
				renderChecks(cmd, results)
			}
			if preflight.Failed(results) {
				return errDoctorFailed
			}
			return nil
		},
	}
}

func renderChecks(cmd *cobra.Command, results []preflight.Result) {
	out := cmd.OutOrStdout()
	paint := newPainter(out)
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		status := paint.paint(ansiGreen, "ok")
		switch {
		case !r.Passed && r.Optional:
			status = paint.paint(ansiYellow, "warn")
		case !r.Passed:
			status = paint.paint(ansiRed, "fail")
		}
		rows = append(rows, []string{r.Name, status, r.Detail})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Check", "Status", "Detail"},
		rows,
		nil,
		map[int]int{2: 60},
	))
}
