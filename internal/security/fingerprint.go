package security

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
)

// FingerprintGenerator derives a stable per-machine identifier used to
// bind a license activation to the device it was made on. The output is
// deterministic over the machine's static properties, so it survives
// process restarts but changes when the hardware does. No caching: the
// caller gets a fresh computation every time so hardware changes are
// detectable.
type FingerprintGenerator struct {
	logger *slog.Logger

	// runCommand is swappable in tests
	runCommand func(name string, args ...string) ([]byte, error)
}

// NewFingerprintGenerator creates a fingerprint generator
func NewFingerprintGenerator(logger *slog.Logger) *FingerprintGenerator {
	return &FingerprintGenerator{
		logger: logger.With(slog.String("component", "fingerprint")),
		runCommand: func(name string, args ...string) ([]byte, error) {
			return exec.Command(name, args...).Output()
		},
	}
}

// Generate computes the device fingerprint: a SHA-256 hex digest of the
// pipe-joined machine properties. Always returns a 64-character hex
// string; the degraded machine-ID fallback is deterministic, not an
// error.
func (g *FingerprintGenerator) Generate() string {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown-host"
	}
	hostname = strings.ToLower(strings.TrimSpace(hostname))

	cpuModel := g.cpuModel()

	machineID, err := g.machineID()
	if err != nil {
		// Fallback to hostname + CPU model: degraded but deterministic
		machineID = fmt.Sprintf("%s-%s", hostname, cpuModel)
		g.logger.Warn("could not read machine ID, using fallback",
			slog.String("error", err.Error()))
	}

	fields := []string{
		runtime.GOOS,
		hostname,
		machineID,
		strconv.Itoa(runtime.NumCPU()),
		cpuModel,
	}

	sum := sha256.Sum256([]byte(strings.Join(fields, "|")))
	fingerprint := hex.EncodeToString(sum[:])

	g.logger.Debug("device fingerprint generated",
		slog.String("hostname", hostname),
		slog.String("os", runtime.GOOS),
		slog.Int("cpu_count", runtime.NumCPU()))

	return fingerprint
}

// MachineLabel returns a human-readable machine name for display on the
// sales platform's device list.
func (g *FingerprintGenerator) MachineLabel() string {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown-host"
	}

	platformName := "Unknown"
	switch runtime.GOOS {
	case "windows":
		platformName = "Windows"
	case "darwin":
		platformName = "macOS"
	case "linux":
		platformName = "Linux"
	}

	return fmt.Sprintf("%s - %s", platformName, hostname)
}

// machineID obtains the OS-level machine identifier via a
// platform-specific command.
func (g *FingerprintGenerator) machineID() (string, error) {
	switch runtime.GOOS {
	case "windows":
		out, err := g.runCommand("wmic", "csproduct", "get", "UUID")
		if err != nil {
			return "", fmt.Errorf("wmic failed: %w", err)
		}
		lines := strings.Split(string(out), "\n")
		if len(lines) < 2 {
			return "", fmt.Errorf("unexpected wmic output")
		}
		id := strings.TrimSpace(lines[1])
		if id == "" {
			return "", fmt.Errorf("empty machine UUID")
		}
		return id, nil

	case "darwin":
		out, err := g.runCommand("system_profiler", "SPHardwareDataType")
		if err != nil {
			return "", fmt.Errorf("system_profiler failed: %w", err)
		}
		for _, line := range strings.Split(string(out), "\n") {
			if strings.Contains(line, "Hardware UUID") {
				parts := strings.SplitN(line, ":", 2)
				if len(parts) == 2 {
					return strings.TrimSpace(parts[1]), nil
				}
			}
		}
		return "", fmt.Errorf("hardware UUID not found")

	default:
		// Linux and friends: machine-id with the dbus fallback
		for _, path := range []string{"/etc/machine-id", "/var/lib/dbus/machine-id"} {
			data, err := os.ReadFile(path)
			if err == nil && strings.TrimSpace(string(data)) != "" {
				return strings.TrimSpace(string(data)), nil
			}
		}
		return "", fmt.Errorf("machine-id not available")
	}
}

// cpuModel returns a best-effort CPU model string for the current platform
func (g *FingerprintGenerator) cpuModel() string {
	switch runtime.GOOS {
	case "linux":
		data, err := os.ReadFile("/proc/cpuinfo")
		if err == nil {
			for _, line := range strings.Split(string(data), "\n") {
				if strings.HasPrefix(line, "model name") {
					parts := strings.SplitN(line, ":", 2)
					if len(parts) == 2 {
						return strings.TrimSpace(parts[1])
					}
				}
			}
		}
	case "windows":
		if procID := os.Getenv("PROCESSOR_IDENTIFIER"); procID != "" {
			return procID
		}
	}
	return fmt.Sprintf("%s-%s", runtime.GOOS, runtime.GOARCH)
}
