package config

// Set at build time with -ldflags "-X .../internal/config.version=..."
var (
	version    = "0.0.0"
	subversion = "local"
)

// GetVersion returns the release number only.
// It is announced to the controller, which matches on releases, not builds.
func GetVersion() string {
	return version
}

// GetFullVersion returns the release number with the build suffix, if any.
func GetFullVersion() string {
	if subversion == "" {
		return version
	}
	return version + "-" + subversion
}
