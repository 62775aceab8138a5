package collector

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeRunner serves canned command output keyed by the joined command line.
type fakeRunner struct {
	outputs map[string]string
}

var errNoSuchCommand = errors.New("no such command")

func (f *fakeRunner) Output(_ context.Context, name string, args ...string) ([]byte, error) {
	key := strings.Join(append([]string{name}, args...), " ")
	if output, ok := f.outputs[key]; ok {
		return []byte(output), nil
	}

	return nil, errNoSuchCommand
}

// TestCollect assembles a profile from canned command output and verifies
// identity hashing, section parsing and degradation of missing sections.
func TestCollect(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{outputs: map[string]string{
		"wmic csproduct get uuid": "UUID\r\n4C4C4544-0042-3510-804B-B4C04F565433\r\n\r\n",
		"wmic os get LastBootUpTime": "LastBootUpTime\r\n20240830120000.500000+060\r\n\r\n",
		"wmic os get Version":        "Version\r\n10.0.22631\r\n\r\n",
		"wmic cpu get Name":          "Name\r\nIntel(R) Core(TM) i7-10700K\r\n\r\n",
		"wmic bios get SMBIOSBIOSVersion": "SMBIOSBIOSVersion\r\n1.2.3\r\n\r\n",
		"wmic baseboard get Manufacturer, Product": "" +
			"Manufacturer      Product\r\n" +
			"ASUSTeK COMPUTER  PRIME Z490-A\r\n\r\n",
		"wmic memorychip get DeviceLocator, Capacity, ConfiguredClockSpeed, DataWidth, Manufacturer, PartNumber": "" +
			"Capacity     ConfiguredClockSpeed  DataWidth  DeviceLocator  Manufacturer  PartNumber\r\n" +
			"8589934592   3200                  64         DIMM1          Samsung       M378A1K43EB2-CWE\r\n\r\n",
		"systeminfo": "OS Name:                   Microsoft Windows 11 Pro\r\n",
		"wmic product get Name, Vendor, Version": "" +
			"Name              Vendor             Version\r\n" +
			"7-Zip 23.01       Igor Pavlov        23.01\r\n" +
			"Go Programming    Google LLC\r\n\r\n",
	}}

	c := New("https://prospect-api.versyx.net/api/devices/profiles", WithRunner(runner))

	p, err := c.Collect(context.Background())
	require.NoError(t, err)

	require.NotEmpty(t, p.ID)
	require.NotEmpty(t, p.Hostname)
	require.Equal(t, "https://prospect-api.versyx.net/api/devices/profiles", p.SourceAPI)

	// HWID is the SHA-256 hex digest of the machine UUID.
	require.Len(t, p.HWID, 64)

	require.Equal(t, "Microsoft Windows 11 Pro", p.OS.Distribution)
	require.Equal(t, "10.0.22631", p.OS.Version)

	require.Equal(t, "ASUSTeK COMPUTER PRIME Z490-A", p.Hardware.BIOS.Model)
	require.Equal(t, "1.2.3", p.Hardware.BIOS.Firmware)
	require.Equal(t, "Intel(R) Core(TM) i7-10700K", p.Hardware.CPU.Name)
	require.Positive(t, p.Hardware.CPU.Cores)

	require.Len(t, p.Hardware.RAM, 1)
	require.Equal(t, 8, p.Hardware.RAM[0].CapacityGB)

	// Sections without canned output degrade to empty, not errors.
	require.Empty(t, p.Hardware.Disks)
	require.Empty(t, p.Network.Interfaces)
	require.Empty(t, p.Network.WiFi.SSID)

	require.Equal(t, 2, p.Software.NumInstalled)
	require.Equal(t, "undefined", p.Software.Programs[1].Version)

	require.NotEmpty(t, p.Uptime)
}
