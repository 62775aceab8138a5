package collector

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"os/exec"
	"os/user"
	"runtime"
	"strings"
	"time"

	"github.com/versyx/prospector/internal/domain/profile"
	"github.com/versyx/prospector/internal/logger"
)

// CommandRunner executes a system command and returns its combined stdout.
// It exists so tests can substitute canned command output.
type CommandRunner interface {
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
}

// execRunner runs commands through os/exec.
type execRunner struct{}

// Output runs the command and returns its standard output.
func (execRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	output, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	return output, nil
}

// Collector gathers a device profile from the local machine.
type Collector struct {
	// runner executes the system commands backing each section.
	runner CommandRunner
	// sourceAPI is recorded in the profile as its target endpoint.
	sourceAPI string
}

// Option configures collector behaviour.
type Option func(*Collector)

// WithRunner substitutes the command runner, used by tests.
func WithRunner(runner CommandRunner) Option {
	return func(c *Collector) {
		if runner != nil {
			c.runner = runner
		}
	}
}

// New creates a collector targeting the provided API endpoint.
func New(sourceAPI string, opts ...Option) *Collector {
	c := &Collector{
		runner:    execRunner{},
		sourceAPI: sourceAPI,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Collect gathers a full device profile. A failing section degrades to an
// empty value with a warning; only a total identity failure is an error.
func (c *Collector) Collect(ctx context.Context) (*profile.Profile, error) {
	p := profile.New()
	p.SourceAPI = c.sourceAPI

	hostname, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("hostname: %w", err)
	}

	p.Hostname = hostname
	p.User = c.collectUser(ctx, hostname)
	p.HWID = c.collectHWID(ctx)
	p.Uptime = c.collectUptime(ctx)

	p.OS = profile.OS{
		Platform:     runtime.GOOS,
		Distribution: c.collectDistribution(ctx),
		Arch:         runtime.GOARCH,
		Version:      c.singleValue(ctx, "os version", "wmic", "os", "get", "Version"),
	}

	p.Hardware = profile.Hardware{
		BIOS: c.collectBIOS(ctx),
		CPU: profile.CPU{
			Name:  c.singleValue(ctx, "cpu name", "wmic", "cpu", "get", "Name"),
			Cores: runtime.NumCPU(),
		},
		RAM:   c.collectMemory(ctx),
		Disks: c.collectDisks(ctx),
		GPUs:  c.collectGPUs(ctx),
	}

	p.Network = profile.Network{
		WiFi:       c.collectWiFi(ctx),
		Interfaces: c.collectInterfaces(ctx),
	}

	programs := c.collectSoftware(ctx)
	p.Software = profile.Software{
		Programs:     programs,
		NumInstalled: len(programs),
	}

	return p, nil
}

// collectHWID hashes the machine hardware UUID with SHA-256.
func (c *Collector) collectHWID(ctx context.Context) string {
	output, err := c.sectionOutput(ctx, "hwid", "wmic", "csproduct", "get", "uuid")
	if err != nil {
		return ""
	}

	id := ParseSingleValue(string(output))
	if id == "" {
		return ""
	}

	digest := sha256.Sum256([]byte(id))

	return hex.EncodeToString(digest[:])
}

// collectUser returns the logged-in user as DOMAIN\username.
func (c *Collector) collectUser(ctx context.Context, hostname string) string {
	currentUser, err := user.Current()
	if err != nil {
		logger.WarnKV(ctx, "Could not determine current user", "error", err)
		return ""
	}

	username := currentUser.Username
	if strings.Contains(username, `\`) {
		// Windows already reports DOMAIN\username.
		return username
	}

	domain := os.Getenv("USERDOMAIN")
	if domain == "" {
		domain = hostname
	}

	return domain + `\` + username
}

// collectUptime derives uptime from the last boot timestamp.
func (c *Collector) collectUptime(ctx context.Context) string {
	output, err := c.sectionOutput(ctx, "uptime", "wmic", "os", "get", "LastBootUpTime")
	if err != nil {
		return ""
	}

	bootTime, err := ParseCIMTime(ParseSingleValue(string(output)))
	if err != nil {
		logger.WarnKV(ctx, "Could not parse boot time", "error", err)
		return ""
	}

	return FormatUptime(time.Since(bootTime))
}

// collectDistribution reads the OS product name from systeminfo.
func (c *Collector) collectDistribution(ctx context.Context) string {
	output, err := c.sectionOutput(ctx, "distribution", "systeminfo")
	if err != nil {
		return ""
	}

	return ParseOSName(string(output))
}

// collectBIOS combines baseboard identity with the firmware version.
func (c *Collector) collectBIOS(ctx context.Context) profile.BIOS {
	board, err := c.sectionOutput(ctx, "baseboard", "wmic", "baseboard", "get", "Manufacturer,", "Product")
	if err != nil {
		return profile.BIOS{}
	}

	bios := profile.BIOS{
		Firmware: c.singleValue(ctx, "bios firmware", "wmic", "bios", "get", "SMBIOSBIOSVersion"),
	}

	rows := ParseAlignedTable(string(board))
	if len(rows) > 0 {
		bios.Model = strings.TrimSpace(rows[0]["manufacturer"] + " " + rows[0]["product"])
	}

	return bios
}

func (c *Collector) collectMemory(ctx context.Context) []profile.MemoryModule {
	output, err := c.sectionOutput(ctx, "memory", "wmic", "memorychip", "get",
		"DeviceLocator,", "Capacity,", "ConfiguredClockSpeed,", "DataWidth,", "Manufacturer,", "PartNumber")
	if err != nil {
		return nil
	}

	return ParseMemoryModules(string(output))
}

func (c *Collector) collectDisks(ctx context.Context) []profile.Disk {
	output, err := c.sectionOutput(ctx, "disks", "wmic", "diskdrive", "get",
		"Model,", "Size,", "MediaType,", "SerialNumber,", "Status")
	if err != nil {
		return nil
	}

	return ParseDisks(string(output))
}

func (c *Collector) collectGPUs(ctx context.Context) []profile.GPU {
	output, err := c.sectionOutput(ctx, "gpus", "wmic", "path", "win32_VideoController", "get",
		"Name,", "DriverVersion,", "Status")
	if err != nil {
		return nil
	}

	return ParseGPUs(string(output))
}

func (c *Collector) collectInterfaces(ctx context.Context) []profile.NetworkInterface {
	output, err := c.sectionOutput(ctx, "network interfaces", "wmic", "nic", "get",
		"Name,", "MACAddress,", "Speed,", "Manufacturer,", "Description")
	if err != nil {
		return nil
	}

	return ParseNetworkInterfaces(string(output))
}

// collectWiFi reads the connected wireless network, including the stored
// key via the key=clear profile dump when an SSID is present.
func (c *Collector) collectWiFi(ctx context.Context) profile.WiFi {
	output, err := c.sectionOutput(ctx, "wifi", "netsh", "wlan", "show", "interfaces")
	if err != nil {
		return profile.WiFi{}
	}

	wifi := ParseWiFi(string(output))
	if wifi.SSID == "" {
		return wifi
	}

	profileDump, err := c.sectionOutput(ctx, "wifi profile", "netsh", "wlan", "show", "profile",
		"name="+wifi.SSID, "key=clear")
	if err != nil {
		return wifi
	}

	wifi.Password = ParseWiFiPassword(string(profileDump))

	return wifi
}

// collectSoftware enumerates installed applications via WMI.
func (c *Collector) collectSoftware(ctx context.Context) []profile.Program {
	output, err := c.sectionOutput(ctx, "software", "wmic", "product", "get", "Name,", "Vendor,", "Version")
	if err != nil {
		return nil
	}

	rows := ParseAlignedTable(string(output))
	programs := make([]profile.Program, 0, len(rows))

	for _, row := range rows {
		if row["name"] == "" {
			continue
		}

		programs = append(programs, profile.Program{
			Name:      row["name"],
			Version:   valueOrUndefined(row["version"]),
			Publisher: valueOrUndefined(row["vendor"]),
		})
	}

	return programs
}

// singleValue runs a single-column query and extracts its value.
func (c *Collector) singleValue(ctx context.Context, section, name string, args ...string) string {
	output, err := c.sectionOutput(ctx, section, name, args...)
	if err != nil {
		return ""
	}

	return ParseSingleValue(string(output))
}

// sectionOutput runs a section command and downgrades failures to warnings.
func (c *Collector) sectionOutput(ctx context.Context, section, name string, args ...string) ([]byte, error) {
	output, err := c.runner.Output(ctx, name, args...)
	if err != nil {
		logger.WarnKV(ctx, "Profile section unavailable", "section", section, "error", err)
		return nil, err
	}

	return output, nil
}

// valueOrUndefined substitutes the placeholder the API expects for blanks.
func valueOrUndefined(value string) string {
	if value == "" {
		return "undefined"
	}

	return value
}
