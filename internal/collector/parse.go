package collector

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/versyx/prospector/internal/domain/profile"
)

var (
	// camelBoundary matches positions before an upper-case letter that is
	// not at the start of the string.
	camelBoundary = regexp.MustCompile(`(?:^|[a-z0-9])([A-Z])`)

	// osNamePattern extracts the distribution name from systeminfo output.
	osNamePattern = regexp.MustCompile(`OS Name:\s*(.*)`)
)

// ToSnakeCase converts a CamelCase identifier to snake_case,
// e.g. "ConfiguredClockSpeed" becomes "configured_clock_speed".
func ToSnakeCase(s string) string {
	out := camelBoundary.ReplaceAllStringFunc(s, func(match string) string {
		last := match[len(match)-1:]
		if len(match) == 1 {
			return last
		}

		return match[:len(match)-1] + "_" + last
	})

	return strings.ToLower(out)
}

// ParseAlignedTable parses the fixed-width table format produced by wmic:
// a header line followed by data rows, with each column starting at the
// offset of its header. Returned maps are keyed by snake_case header names.
// Blank rows are skipped.
func ParseAlignedTable(output string) []map[string]string {
	lines := splitLines(output)
	if len(lines) == 0 {
		return nil
	}

	header := lines[0]
	starts := columnStarts(header)

	if len(starts) == 0 {
		return nil
	}

	keys := make([]string, len(starts))
	for i, start := range starts {
		end := len(header)
		if i+1 < len(starts) {
			end = starts[i+1]
		}

		keys[i] = ToSnakeCase(strings.TrimSpace(header[start:end]))
	}

	rows := make([]map[string]string, 0, len(lines)-1)

	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}

		row := make(map[string]string, len(keys))

		for i, start := range starts {
			if start >= len(line) {
				row[keys[i]] = ""
				continue
			}

			end := len(line)
			if i+1 < len(starts) && starts[i+1] < end {
				end = starts[i+1]
			}

			row[keys[i]] = strings.TrimSpace(line[start:end])
		}

		rows = append(rows, row)
	}

	return rows
}

// ParseSingleValue extracts the first data cell from a single-column wmic
// query, e.g. `wmic csproduct get uuid`.
func ParseSingleValue(output string) string {
	lines := splitLines(output)
	if len(lines) < 2 {
		return ""
	}

	return strings.TrimSpace(lines[1])
}

// ParseMemoryModules converts `wmic memorychip` table output into memory
// module entries. Capacity is reported in bytes and converted to GiB.
func ParseMemoryModules(output string) []profile.MemoryModule {
	rows := ParseAlignedTable(output)
	modules := make([]profile.MemoryModule, 0, len(rows))

	for _, row := range rows {
		capacityBytes, _ := strconv.ParseInt(row["capacity"], 10, 64)
		clockSpeed, _ := strconv.Atoi(row["configured_clock_speed"])
		dataWidth, _ := strconv.Atoi(row["data_width"])

		modules = append(modules, profile.MemoryModule{
			DeviceLocator:        row["device_locator"],
			CapacityGB:           int(capacityBytes >> 30),
			ConfiguredClockSpeed: clockSpeed,
			DataWidth:            dataWidth,
			Manufacturer:         row["manufacturer"],
			PartNumber:           row["part_number"],
		})
	}

	return modules
}

// ParseDisks converts `wmic diskdrive` table output into disk entries.
// Size is reported in bytes and converted to GiB.
func ParseDisks(output string) []profile.Disk {
	rows := ParseAlignedTable(output)
	disks := make([]profile.Disk, 0, len(rows))

	for _, row := range rows {
		sizeBytes, _ := strconv.ParseInt(row["size"], 10, 64)

		disks = append(disks, profile.Disk{
			Model:        row["model"],
			SizeGB:       int(sizeBytes >> 30),
			MediaType:    row["media_type"],
			SerialNumber: row["serial_number"],
			Status:       row["status"],
		})
	}

	return disks
}

// ParseGPUs converts `wmic path win32_VideoController` table output into
// GPU entries.
func ParseGPUs(output string) []profile.GPU {
	rows := ParseAlignedTable(output)
	gpus := make([]profile.GPU, 0, len(rows))

	for _, row := range rows {
		gpus = append(gpus, profile.GPU{
			Name:          row["name"],
			DriverVersion: row["driver_version"],
			Status:        row["status"],
		})
	}

	return gpus
}

// ParseNetworkInterfaces converts `wmic nic` table output into interface
// entries. Rows without a name are skipped.
func ParseNetworkInterfaces(output string) []profile.NetworkInterface {
	rows := ParseAlignedTable(output)
	interfaces := make([]profile.NetworkInterface, 0, len(rows))

	for _, row := range rows {
		if row["name"] == "" {
			continue
		}

		interfaces = append(interfaces, profile.NetworkInterface{
			Name:         row["name"],
			MACAddress:   row["macaddress"],
			Speed:        row["speed"],
			Manufacturer: row["manufacturer"],
			Description:  row["description"],
		})
	}

	return interfaces
}

// ParseKeyValues parses `netsh wlan`-style "Key : Value" output.
// Keys are normalized to lower snake_case; repeated keys keep the first value.
func ParseKeyValues(output string) map[string]string {
	values := make(map[string]string)

	for _, line := range splitLines(output) {
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}

		key = strings.ToLower(strings.TrimSpace(key))
		key = strings.ReplaceAll(key, " ", "_")

		if key == "" {
			continue
		}

		if _, exists := values[key]; !exists {
			values[key] = strings.TrimSpace(value)
		}
	}

	return values
}

// ParseWiFi maps `netsh wlan show interfaces` output onto the Wi-Fi profile
// section. The password is filled separately from the key=clear profile dump.
func ParseWiFi(output string) profile.WiFi {
	values := ParseKeyValues(output)

	return profile.WiFi{
		SSID:           values["ssid"],
		BSSID:          values["bssid"],
		State:          values["state"],
		Authentication: values["authentication"],
		Band:           values["band"],
		Channel:        values["channel"],
		RadioType:      values["radio_type"],
		Description:    values["description"],
		ReceiveRate:    values["receive_rate_(mbps)"],
		TransmitRate:   values["transmit_rate_(mbps)"],
	}
}

// ParseWiFiPassword extracts the clear-text key from a
// `netsh wlan show profile name=<ssid> key=clear` dump.
func ParseWiFiPassword(output string) string {
	for _, line := range splitLines(output) {
		if !strings.Contains(line, "Key Content") {
			continue
		}

		if _, value, found := strings.Cut(line, ":"); found {
			return strings.TrimSpace(value)
		}
	}

	return ""
}

// ParseOSName extracts the "OS Name" field from systeminfo output.
func ParseOSName(output string) string {
	match := osNamePattern.FindStringSubmatch(output)
	if len(match) < 2 {
		return ""
	}

	return strings.TrimSpace(match[1])
}

// cimTimeLayout matches the fixed prefix of WMI CIM_DATETIME values,
// e.g. "20240830123045.500000+060".
const cimTimeLayout = "20060102150405"

// ParseCIMTime parses a WMI CIM_DATETIME value such as the one returned by
// `wmic os get LastBootUpTime`. The sub-second and timezone suffix are
// ignored; the value is interpreted in local time.
func ParseCIMTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if len(value) < len(cimTimeLayout) {
		return time.Time{}, fmt.Errorf("cim datetime too short: %q", value)
	}

	return time.ParseInLocation(cimTimeLayout, value[:len(cimTimeLayout)], time.Local)
}

// FormatUptime renders a duration as "N days, N hrs, N mins, N secs",
// omitting zero-valued parts.
func FormatUptime(d time.Duration) string {
	if d < 0 {
		d = 0
	}

	total := int64(d.Seconds())

	days := total / 86400
	hours := (total % 86400) / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	parts := make([]string, 0, 4)

	appendPart := func(value int64, singular, plural string) {
		if value == 0 {
			return
		}

		unit := plural
		if value == 1 {
			unit = singular
		}

		parts = append(parts, fmt.Sprintf("%d %s", value, unit))
	}

	appendPart(days, "day", "days")
	appendPart(hours, "hr", "hrs")
	appendPart(minutes, "min", "mins")
	appendPart(seconds, "sec", "secs")

	if len(parts) == 0 {
		return "0 secs"
	}

	return strings.Join(parts, ", ")
}

// columnStarts returns the start offset of each header column:
// every non-space run preceded by at least one space (or line start).
func columnStarts(header string) []int {
	starts := make([]int, 0, 8)
	inWord := false
	spaceRun := 2 // Treat line start as a column boundary.

	for i, r := range header {
		switch {
		case r == ' ' || r == '\t':
			inWord = false
			spaceRun++
		case !inWord:
			if spaceRun >= 2 || len(starts) == 0 {
				starts = append(starts, i)
			}

			inWord = true
			spaceRun = 0
		}
	}

	return starts
}

// splitLines normalizes line endings and drops trailing whitespace-only lines.
func splitLines(output string) []string {
	normalized := strings.ReplaceAll(output, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")

	lines := strings.Split(normalized, "\n")
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}

	return lines
}
