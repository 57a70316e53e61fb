package domain

// Platform identifies the social platform a post was fetched from.
type Platform string

const (
	PlatformMoltbook Platform = "moltbook"
	PlatformFourclaw Platform = "4claw"
	PlatformMoltx    Platform = "moltx"

	// PlatformManual marks requests submitted directly through the API.
	PlatformManual Platform = "manual"
)

// String returns the string representation of Platform.
func (p Platform) String() string {
	return string(p)
}

// IsValid checks if the platform is a known value.
func (p Platform) IsValid() bool {
	switch p {
	case PlatformMoltbook, PlatformFourclaw, PlatformMoltx, PlatformManual:
		return true
	default:
		return false
	}
}

// ScanPlatforms returns the platforms polled by the scanner, in fetch order.
func ScanPlatforms() []Platform {
	return []Platform{PlatformMoltbook, PlatformFourclaw, PlatformMoltx}
}
