package collector

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestToSnakeCase covers the header normalization used for wmic columns.
func TestToSnakeCase(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Capacity":             "capacity",
		"ConfiguredClockSpeed": "configured_clock_speed",
		"DeviceLocator":        "device_locator",
		"MACAddress":           "macaddress",
		"Name":                 "name",
	}
	for input, want := range cases {
		require.Equal(t, want, ToSnakeCase(input))
	}
}

// TestParseSingleValue extracts the data cell from a one-column query.
func TestParseSingleValue(t *testing.T) {
	t.Parallel()

	output := "UUID\r\n4C4C4544-0042-3510-804B-B4C04F565433\r\n\r\n"
	require.Equal(t, "4C4C4544-0042-3510-804B-B4C04F565433", ParseSingleValue(output))

	require.Empty(t, ParseSingleValue("UUID\r\n"))
	require.Empty(t, ParseSingleValue(""))
}

// TestParseMemoryModules parses an aligned memorychip table and converts
// the byte capacity to GiB.
func TestParseMemoryModules(t *testing.T) {
	t.Parallel()

	output := "" +
		"Capacity     ConfiguredClockSpeed  DataWidth  DeviceLocator  Manufacturer  PartNumber\r\n" +
		"8589934592   3200                  64         DIMM1          Samsung       M378A1K43EB2-CWE\r\n" +
		"8589934592   3200                  64         DIMM2          Samsung       M378A1K43EB2-CWE\r\n\r\n"

	modules := ParseMemoryModules(output)
	require.Len(t, modules, 2)
	require.Equal(t, "DIMM1", modules[0].DeviceLocator)
	require.Equal(t, 8, modules[0].CapacityGB)
	require.Equal(t, 3200, modules[0].ConfiguredClockSpeed)
	require.Equal(t, 64, modules[0].DataWidth)
	require.Equal(t, "Samsung", modules[0].Manufacturer)
	require.Equal(t, "M378A1K43EB2-CWE", modules[1].PartNumber)
}

// TestParseDisks checks that multi-word cells survive fixed-width parsing.
func TestParseDisks(t *testing.T) {
	t.Parallel()

	output := "" +
		"MediaType              Model                    SerialNumber     Size           Status\r\n" +
		"Fixed hard disk media  Samsung SSD 970 EVO 500  S4EWNX0N123456A  500105249280   OK\r\n\r\n"

	disks := ParseDisks(output)
	require.Len(t, disks, 1)
	require.Equal(t, "Samsung SSD 970 EVO 500", disks[0].Model)
	require.Equal(t, 465, disks[0].SizeGB)
	require.Equal(t, "Fixed hard disk media", disks[0].MediaType)
	require.Equal(t, "S4EWNX0N123456A", disks[0].SerialNumber)
	require.Equal(t, "OK", disks[0].Status)
}

// TestParseGPUs parses the video controller table.
func TestParseGPUs(t *testing.T) {
	t.Parallel()

	output := "" +
		"DriverVersion  Name                     Status\r\n" +
		"31.0.15.3598   NVIDIA GeForce RTX 3070  OK\r\n\r\n"

	gpus := ParseGPUs(output)
	require.Len(t, gpus, 1)
	require.Equal(t, "NVIDIA GeForce RTX 3070", gpus[0].Name)
	require.Equal(t, "31.0.15.3598", gpus[0].DriverVersion)
	require.Equal(t, "OK", gpus[0].Status)
}

// TestParseNetworkInterfaces skips adapters without a name.
func TestParseNetworkInterfaces(t *testing.T) {
	t.Parallel()

	output := "" +
		"Description                     MACAddress         Manufacturer  Name                            Speed\r\n" +
		"Intel(R) Wi-Fi 6 AX201 160MHz   AA:BB:CC:DD:EE:FF  Intel         Intel(R) Wi-Fi 6 AX201 160MHz   866700000\r\n" +
		"WAN Miniport (IP)                                  Microsoft\r\n\r\n"

	interfaces := ParseNetworkInterfaces(output)
	require.Len(t, interfaces, 1)
	require.Equal(t, "AA:BB:CC:DD:EE:FF", interfaces[0].MACAddress)
	require.Equal(t, "Intel", interfaces[0].Manufacturer)
	require.Equal(t, "866700000", interfaces[0].Speed)
}

// TestParseWiFi maps netsh interface output onto the Wi-Fi section,
// including keys with embedded spaces and parentheses.
func TestParseWiFi(t *testing.T) {
	t.Parallel()

	output := "" +
		"There is 1 interface on the system:\r\n\r\n" +
		"    Name                   : Wi-Fi\r\n" +
		"    Description            : Intel(R) Wi-Fi 6 AX201 160MHz\r\n" +
		"    State                  : connected\r\n" +
		"    SSID                   : HomeNet\r\n" +
		"    BSSID                  : aa:bb:cc:dd:ee:ff\r\n" +
		"    Radio type             : 802.11ax\r\n" +
		"    Authentication         : WPA2-Personal\r\n" +
		"    Band                   : 5 GHz\r\n" +
		"    Channel                : 36\r\n" +
		"    Receive rate (Mbps)    : 866.7\r\n" +
		"    Transmit rate (Mbps)   : 866.7\r\n\r\n"

	wifi := ParseWiFi(output)
	require.Equal(t, "HomeNet", wifi.SSID)
	require.Equal(t, "aa:bb:cc:dd:ee:ff", wifi.BSSID)
	require.Equal(t, "connected", wifi.State)
	require.Equal(t, "WPA2-Personal", wifi.Authentication)
	require.Equal(t, "802.11ax", wifi.RadioType)
	require.Equal(t, "866.7", wifi.ReceiveRate)
}

// TestParseWiFiPassword extracts the clear key from a profile dump.
func TestParseWiFiPassword(t *testing.T) {
	t.Parallel()

	output := "" +
		"    Security settings\r\n" +
		"    -----------------\r\n" +
		"        Authentication         : WPA2-Personal\r\n" +
		"        Key Content            : hunter2\r\n"

	require.Equal(t, "hunter2", ParseWiFiPassword(output))
	require.Empty(t, ParseWiFiPassword("no key here"))
}

// TestParseOSName extracts the distribution from systeminfo output.
func TestParseOSName(t *testing.T) {
	t.Parallel()

	output := "" +
		"Host Name:                 DESKTOP-AB12CD\r\n" +
		"OS Name:                   Microsoft Windows 11 Pro\r\n" +
		"OS Version:                10.0.22631 N/A Build 22631\r\n"

	require.Equal(t, "Microsoft Windows 11 Pro", ParseOSName(output))
	require.Empty(t, ParseOSName("nothing useful"))
}

// TestParseCIMTime parses the WMI datetime format used by LastBootUpTime.
func TestParseCIMTime(t *testing.T) {
	t.Parallel()

	got, err := ParseCIMTime("20240830120000.500000+060")
	require.NoError(t, err)
	require.Equal(t, 2024, got.Year())
	require.Equal(t, time.August, got.Month())
	require.Equal(t, 12, got.Hour())

	_, err = ParseCIMTime("bogus")
	require.Error(t, err)
}

// TestFormatUptime checks pluralization and omission of zero parts.
func TestFormatUptime(t *testing.T) {
	t.Parallel()

	cases := map[time.Duration]string{
		0:                                    "0 secs",
		time.Second:                          "1 sec",
		61 * time.Second:                     "1 min, 1 sec",
		3 * time.Hour:                        "3 hrs",
		26*time.Hour + 5*time.Minute:         "1 day, 2 hrs, 5 mins",
		49*time.Hour + 30*time.Second:        "2 days, 1 hr, 30 secs",
		72*time.Hour + time.Minute + time.Second: "3 days, 1 min, 1 sec",
	}
	for d, want := range cases {
		require.Equal(t, want, FormatUptime(d), d.String())
	}
}
