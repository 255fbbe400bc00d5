package config

const (
	DataplaneMemory = iota
	DataplaneKernel
)

func GetDataplaneName(dtype int) string {
	switch dtype {
	case DataplaneMemory:
		return "memory"
	case DataplaneKernel:
		return "kernel"
	default:
		return "unknown"
	}
}

func GetDataplane() int {
	return cache.dataplane
}

func GetDebugLevel() int {
	return cache.debugLevel
}

func LogToController() bool {
	return cache.logToController
}

func GetTable() uint8 {
	return uint8(cache.table)
}

func GetPriority() uint16 {
	return uint16(cache.priority)
}

func GetControllerURL() string {
	return cache.controller.url
}

func GetControllerPath() string {
	return cache.controller.path
}

func GetControllerToken() string {
	return cache.controller.token
}

func ControllerTLS() bool {
	return cache.controller.tls
}

func GetIfnameFormat() string {
	return cache.ifnameFormat
}

func GetNetnsFormat() string {
	return cache.netnsFormat
}

func EventQueueSize() int {
	return int(cache.eventQueueSize)
}

func MetricsExporterEnabled() bool {
	return cache.exporterPort > 0
}

func MetricsExporterPort() uint16 {
	return cache.exporterPort
}

// SetTable and SetPriority override environment values. Used by tests.
func SetTable(table uint8) {
	cache.table = uint(table)
}

func SetPriority(priority uint16) {
	cache.priority = uint(priority)
}
