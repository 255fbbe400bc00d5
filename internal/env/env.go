// Env packet describes all settings, common to whole application
package env

import "time"

const (
	// Controller is expecting ISO8601 time format.
	// RFC3339 is a stricter version of ISO8601, so it is safe to use here.
	TimeFormat = time.RFC3339
	// Name this routing module reports to the controller
	ModuleName = "L3Routing"
	// Default value for router initiated messages to controller
	MessageDefaultID = "-"

	// Locking to prevent several router instances programming the same switches
	LockFile = "/var/lock/syntropy_l3router.lock"
)
