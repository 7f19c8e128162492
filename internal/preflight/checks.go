package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"prepcoach/internal/deps"
	"prepcoach/internal/services"
)

const backendCheckTimeout = 5 * time.Second

// HealthChecker is implemented by the backend client.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// CheckBackend verifies the interview server answers at baseURL.
func CheckBackend(ctx context.Context, baseURL string, client HealthChecker) Result {
	const name = "Backend"

	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return Result{Name: name, Detail: "missing url"}
	}
	if client == nil {
		return Result{Name: name, Detail: base + " (not checked)"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, backendCheckTimeout)
	defer cancel()
	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (%s)", base, summarizeBackendError(err))}
	}
	return Result{Name: name, Passed: true, Detail: base + " (reachable)"}
}

// CheckCredential reports whether requests will carry a bearer token.
func CheckCredential(authenticated bool, source string) Result {
	const name = "Credential"
	if !authenticated {
		return Result{Name: name, Detail: "not signed in (run: prepcoach auth signin)"}
	}
	if source == "" {
		source = "stored"
	}
	return Result{Name: name, Passed: true, Detail: "token from " + source}
}

// DeviceCounts summarizes the audio endpoints found on the host.
type DeviceCounts struct {
	Inputs  int
	Outputs int
}

// CheckAudio verifies there is something to record from. Missing outputs only
// degrade prompts to on-device speech, so that check is optional.
func CheckAudio(counts DeviceCounts, err error) []Result {
	if err != nil {
		return []Result{{Name: "Audio", Detail: fmt.Sprintf("enumeration failed (%v)", err)}}
	}
	in := Result{Name: "Microphone", Passed: counts.Inputs > 0}
	if in.Passed {
		in.Detail = fmt.Sprintf("%d input device(s)", counts.Inputs)
	} else {
		in.Detail = "no input devices found"
	}
	out := Result{Name: "Speaker", Optional: true, Passed: counts.Outputs > 0}
	if out.Passed {
		out.Detail = fmt.Sprintf("%d output device(s)", counts.Outputs)
	} else {
		out.Detail = "no output devices found"
	}
	return []Result{in, out}
}

// CheckSpeech reports whether the synthesis fallback binary is installed.
func CheckSpeech(command string) Result {
	status := deps.CheckBinaries([]deps.Requirement{deps.SpeechRequirement(command)})[0]
	result := Result{Name: status.Name, Optional: true, Passed: status.Available}
	if status.Available {
		result.Detail = status.Command
	} else {
		result.Detail = status.Detail
	}
	return result
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// summarizeBackendError produces a human-readable summary for health check failures.
func summarizeBackendError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, services.ErrTimeout) {
		return "health check timed out"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out"
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return "unreachable"
	}
	return err.Error()
}
