// ABOUTME: Centralized configuration defaults for ntn
// ABOUTME: Contains magic numbers and hardcoded values for network and display

package config

import "time"

// appName names the XDG config/data subdirectories.
const appName = "ntn"

// Network settings
const (
	DefaultServerURL   = "http://localhost:8000"
	DefaultHTTPTimeout = 30 * time.Second
)

// Display settings
const (
	DefaultListLimit = 20
	DisplayIDLength  = 8
	SeparatorWidth   = 60
	DateFormatShort  = "02 Jan 06 15:04 MST"
	DateFormatLong   = "Mon, 02 Jan 2006 15:04 MST"
)

// Storage settings
const (
	DefaultDirPerms = 0755
)
