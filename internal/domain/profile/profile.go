package profile

import (
	"time"

	"github.com/google/uuid"
)

// Profile is a snapshot of a single device: hardware, operating system,
// network and installed software. Field names follow the payload accepted
// by the prospector API.
type Profile struct {
	// ID uniquely identifies this snapshot.
	ID string `json:"id"`
	// HWID is the SHA-256 hex digest of the machine hardware UUID.
	HWID string `json:"hwid"`
	// Hostname is the machine network name.
	Hostname string `json:"hostname"`
	// User is the logged-in user in DOMAIN\username form.
	User string `json:"user"`
	// Uptime is a human-readable uptime, e.g. "2 days, 3 hrs, 4 mins".
	Uptime string `json:"uptime"`
	// OS describes the operating system.
	OS OS `json:"os"`
	// Hardware describes physical components.
	Hardware Hardware `json:"hardware"`
	// Network describes interfaces and the connected Wi-Fi network.
	Network Network `json:"network"`
	// Software lists installed programs.
	Software Software `json:"software"`
	// SourceAPI is the endpoint this profile targets.
	SourceAPI string `json:"source_api"`
	// CollectedAt is when the snapshot was taken.
	CollectedAt time.Time `json:"collected_at"`
}

// OS holds operating system details.
type OS struct {
	Platform     string `json:"platform"`
	Distribution string `json:"distribution"`
	Arch         string `json:"arch"`
	Version      string `json:"version"`
}

// BIOS holds baseboard and firmware details.
type BIOS struct {
	Model    string `json:"model"`
	Firmware string `json:"firmware"`
}

// CPU holds processor details.
type CPU struct {
	Name  string `json:"name"`
	Cores int    `json:"cores"`
}

// MemoryModule describes one installed RAM module.
type MemoryModule struct {
	DeviceLocator        string `json:"device_locator"`
	CapacityGB           int    `json:"capacity"`
	ConfiguredClockSpeed int    `json:"configured_clock_speed"`
	DataWidth            int    `json:"data_width"`
	Manufacturer         string `json:"manufacturer"`
	PartNumber           string `json:"part_number"`
}

// Disk describes one physical drive.
type Disk struct {
	Model        string `json:"model"`
	SizeGB       int    `json:"size_gb"`
	MediaType    string `json:"media_type"`
	SerialNumber string `json:"serial_number"`
	Status       string `json:"status"`
}

// GPU describes one video controller.
type GPU struct {
	Name          string `json:"name"`
	DriverVersion string `json:"driver_version"`
	Status        string `json:"status"`
}

// Hardware groups the physical components of the device.
type Hardware struct {
	BIOS  BIOS           `json:"bios"`
	CPU   CPU            `json:"cpu"`
	RAM   []MemoryModule `json:"ram"`
	Disks []Disk         `json:"disks"`
	GPUs  []GPU          `json:"gpus"`
}

// NetworkInterface describes one network adapter.
// Keys mirror the normalized wmic nic headers.
type NetworkInterface struct {
	Name         string `json:"name"`
	MACAddress   string `json:"macaddress,omitempty"`
	Speed        string `json:"speed,omitempty"`
	Manufacturer string `json:"manufacturer"`
	Description  string `json:"description"`
}

// WiFi describes the currently connected wireless network.
type WiFi struct {
	SSID           string `json:"ssid,omitempty"`
	BSSID          string `json:"bssid,omitempty"`
	State          string `json:"state,omitempty"`
	Authentication string `json:"authentication,omitempty"`
	Band           string `json:"band,omitempty"`
	Channel        string `json:"channel,omitempty"`
	RadioType      string `json:"radio_type,omitempty"`
	Description    string `json:"description,omitempty"`
	ReceiveRate    string `json:"receive_rate_mbps,omitempty"`
	TransmitRate   string `json:"transmit_rate_mbps,omitempty"`
	Password       string `json:"password,omitempty"`
}

// Network groups connectivity details.
type Network struct {
	WiFi       WiFi               `json:"wifi"`
	Interfaces []NetworkInterface `json:"interfaces"`
}

// Program describes one installed application.
type Program struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	Publisher string `json:"publisher"`
}

// Software groups the installed application inventory.
type Software struct {
	Programs     []Program `json:"programs"`
	NumInstalled int       `json:"num_installed"`
}

// New returns a Profile with a fresh snapshot ID and timestamp.
func New() *Profile {
	return &Profile{
		ID:          uuid.NewString(),
		CollectedAt: time.Now().UTC(),
	}
}

// ReportFilename derives the local report filename from the hardware ID,
// e.g. prospector-profile-3f2a1b9c.json. Falls back to the snapshot ID
// when the HWID is unavailable.
func (p *Profile) ReportFilename() string {
	id := p.HWID
	if id == "" {
		id = p.ID
	}

	const prefixLen = 8
	if len(id) > prefixLen {
		id = id[:prefixLen]
	}

	return "prospector-profile-" + id + ".json"
}
