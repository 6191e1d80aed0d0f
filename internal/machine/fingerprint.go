// Package machine derives a stable identifier for the host it runs on. The
// identifier is what a client sends as machine_id (cpu_id) when requesting a
// license key.
package machine

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"runtime"
	"strings"

	"licensekeys/internal/infrastructure"
)

// Fingerprint is the set of host factors behind a machine id.
type Fingerprint struct {
	MachineID  string `json:"machine_id"`
	Hostname   string `json:"hostname"`
	MACAddress string `json:"mac_address"`
	CPUID      string `json:"cpu_id"`
	OS         string `json:"os"`
	Platform   string `json:"platform"`
}

// Fingerprinter collects host factors. The zero value is not usable; call
// NewFingerprinter.
type Fingerprinter struct {
	logger     *slog.Logger
	hostname   func() (string, error)
	interfaces func() ([]net.Interface, error)
	readFile   func(string) ([]byte, error)
	getenv     func(string) string
	goos       string
	goarch     string
}

// NewFingerprinter creates a Fingerprinter reading the local host.
func NewFingerprinter(logger *slog.Logger) *Fingerprinter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fingerprinter{
		logger:     infrastructure.WithComponent(logger, "fingerprint"),
		hostname:   os.Hostname,
		interfaces: net.Interfaces,
		readFile:   os.ReadFile,
		getenv:     os.Getenv,
		goos:       runtime.GOOS,
		goarch:     runtime.GOARCH,
	}
}

// Generate combines the host factors into a fingerprint. A factor that
// cannot be read is replaced by a fixed placeholder, so the result is stable
// as long as the readable factors are.
func (f *Fingerprinter) Generate() *Fingerprint {
	mac, err := f.MACAddress()
	if err != nil {
		mac = "unknown-mac"
		f.logger.Warn("Failed to get MAC address, using fallback", slog.String("error", err.Error()))
	}

	hostname, err := f.Hostname()
	if err != nil {
		hostname = "unknown-host"
		f.logger.Warn("Failed to get hostname, using fallback", slog.String("error", err.Error()))
	}

	cpuID := f.CPUID()

	sum := sha256.Sum256([]byte(strings.Join([]string{mac, hostname, cpuID, f.goos, f.goarch}, "|")))

	fp := &Fingerprint{
		MachineID:  hex.EncodeToString(sum[:16]),
		Hostname:   hostname,
		MACAddress: mac,
		CPUID:      cpuID,
		OS:         f.goos,
		Platform:   f.goarch,
	}

	f.logger.Debug("Device fingerprint generated",
		slog.String("machine_id", fp.MachineID),
		slog.String("cpu_id", cpuID))

	return fp
}

// MACAddress returns the hardware address of the first up, non-loopback
// interface, falling back to any interface with an address.
func (f *Fingerprinter) MACAddress() (string, error) {
	interfaces, err := f.interfaces()
	if err != nil {
		return "", fmt.Errorf("failed to get network interfaces: %w", err)
	}

	for _, iface := range interfaces {
		if iface.Flags&net.FlagLoopback != 0 || iface.Flags&net.FlagUp == 0 {
			continue
		}
		if mac := validMAC(iface); mac != "" {
			return mac, nil
		}
	}

	for _, iface := range interfaces {
		if mac := validMAC(iface); mac != "" {
			f.logger.Debug("Using fallback MAC address", slog.String("interface", iface.Name))
			return mac, nil
		}
	}

	return "", errors.New("no valid MAC address found")
}

func validMAC(iface net.Interface) string {
	if len(iface.HardwareAddr) == 0 {
		return ""
	}
	mac := iface.HardwareAddr.String()
	if mac == "00:00:00:00:00:00" {
		return ""
	}
	return mac
}

// Hostname returns the normalized host name.
func (f *Fingerprinter) Hostname() (string, error) {
	hostname, err := f.hostname()
	if err != nil {
		return "", fmt.Errorf("failed to get hostname: %w", err)
	}

	hostname = strings.ToLower(strings.TrimSpace(hostname))
	if hostname == "" {
		return "", errors.New("hostname is empty")
	}
	return hostname, nil
}

// CPUID returns a short hash identifying the processor model.
func (f *Fingerprinter) CPUID() string {
	raw := f.goos + "-" + f.goarch

	switch f.goos {
	case "windows":
		if id := f.getenv("PROCESSOR_IDENTIFIER"); id != "" {
			raw = id
		}
	case "linux":
		if data, err := f.readFile("/proc/cpuinfo"); err == nil {
			for _, line := range strings.Split(string(data), "\n") {
				if strings.HasPrefix(line, "model name") || strings.HasPrefix(line, "cpu family") {
					raw = strings.TrimSpace(line)
					break
				}
			}
		}
	}

	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:8])
}
