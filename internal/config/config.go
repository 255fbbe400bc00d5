package config

const pkgName = "L3RouterConfig. "

// This struct is used to cache commonly used router configuration.
// Values are parsed from exported shell variables once, on Init.
type configCache struct {
	table    uint
	priority uint

	controller struct {
		url   string
		path  string
		token string
		tls   bool
	}

	dataplane    int
	ifnameFormat string
	netnsFormat  string

	debugLevel      int
	logToController bool
	eventQueueSize  uint
	exporterPort    uint16
}

var cache configCache
