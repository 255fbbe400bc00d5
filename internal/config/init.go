package config

import (
	"os"
	"strings"

	"github.com/SyntropyNet/syntropy-l3router/internal/logger"
)

const (
	maxPort     = 65535
	maxTable    = 255
	maxPriority = 65535

	// default priority of routing rules
	defaultPriority = 1
	defaultQueue    = 256
)

func Init() {
	var tmpval uint

	initUint(&cache.table, "L3ROUTING_TABLE", 0)
	if cache.table > maxTable {
		logger.Warning().Println(pkgName, "table id", cache.table, "out of range, using 0")
		cache.table = 0
	}
	initUint(&cache.priority, "L3ROUTING_PRIORITY", defaultPriority)
	if cache.priority > maxPriority {
		logger.Warning().Println(pkgName, "priority", cache.priority, "out of range, using", defaultPriority)
		cache.priority = defaultPriority
	}

	initString(&cache.controller.url, "L3ROUTING_CONTROLLER_URL", "127.0.0.1:8080")
	initString(&cache.controller.path, "L3ROUTING_CONTROLLER_PATH", "/topology")
	initString(&cache.controller.token, "L3ROUTING_CONTROLLER_TOKEN", "")
	initBool(&cache.controller.tls, "L3ROUTING_CONTROLLER_TLS", false)

	initDataplane()
	initString(&cache.ifnameFormat, "L3ROUTING_IFNAME_FORMAT", "s%d-eth%d")
	initString(&cache.netnsFormat, "L3ROUTING_NETNS_FORMAT", "")

	cache.debugLevel = logger.ParseLevel(os.Getenv("L3ROUTING_LOG_LEVEL"))
	initBool(&cache.logToController, "L3ROUTING_LOG_TO_CONTROLLER", false)

	initUint(&cache.eventQueueSize, "L3ROUTING_EVENT_QUEUE", defaultQueue)
	if cache.eventQueueSize < 1 {
		cache.eventQueueSize = 1
	}

	initUint(&tmpval, "L3ROUTING_EXPORTER_PORT", 0)
	if tmpval <= maxPort {
		cache.exporterPort = uint16(tmpval)
	}
}

func Close() {
	// Anything needed to be closed or destroyed at the end of program, goes here
}

func initDataplane() {
	switch strings.ToLower(os.Getenv("L3ROUTING_DATAPLANE")) {
	case "kernel", "netlink":
		cache.dataplane = DataplaneKernel
	case "memory", "":
		cache.dataplane = DataplaneMemory
	default:
		logger.Warning().Println(pkgName, "unknown dataplane", os.Getenv("L3ROUTING_DATAPLANE"),
			"falling back to memory")
		cache.dataplane = DataplaneMemory
	}
}
