package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"os/user"
	"strconv"
	"strings"
	"syscall"

	"github.com/SyntropyNet/syntropy-l3router/internal/config"
	"github.com/SyntropyNet/syntropy-l3router/internal/dataplane"
	"github.com/SyntropyNet/syntropy-l3router/internal/discovery"
	"github.com/SyntropyNet/syntropy-l3router/internal/dispatcher"
	"github.com/SyntropyNet/syntropy-l3router/internal/env"
	"github.com/SyntropyNet/syntropy-l3router/internal/exporter"
	"github.com/SyntropyNet/syntropy-l3router/internal/flowrule"
	"github.com/SyntropyNet/syntropy-l3router/internal/logger"
	"github.com/SyntropyNet/syntropy-l3router/internal/router"
	"github.com/SyntropyNet/syntropy-l3router/internal/topology"
	"github.com/SyntropyNet/syntropy-l3router/pkg/common"
)

const fullAppName = "Syntropy L3 Router. "

func requireRoot() {
	user, err := user.Current()
	if err != nil {
		logger.Error().Println(fullAppName, "current user", err)
		os.Exit(-14) // errno.h -EFAULT
	} else if user.Uid != "0" {
		logger.Error().Println(fullAppName, "kernel dataplane needs root. Please run with `sudo` or as root.")
		os.Exit(-13) // errno.h -EACCES
	}
}

func routerLock() {
	pidStr, _ := os.ReadFile(env.LockFile)
	pid, _ := strconv.Atoi(strings.TrimSpace(string(pidStr)))

	if pid > 0 {
		_, err := os.Stat(fmt.Sprintf("/proc/%d", pid))
		if err == nil {
			logger.Error().Println(fullAppName, "Another router instance is running")
			logger.Error().Println(fullAppName, "check lock file", env.LockFile)
			os.Exit(-16) // errno.h -EBUSY
		}
		logger.Warning().Println(fullAppName, "residual lock file found. A router was killed or crashed before?")
	}

	err := os.WriteFile(env.LockFile, []byte(strconv.Itoa(os.Getpid())), 0644)
	if err != nil {
		logger.Warning().Println(fullAppName, "lock file", err)
	}
}

func routerUnlock() {
	os.Remove(env.LockFile)
}

func main() {
	exitCode := 0
	defer func() { os.Exit(exitCode) }()

	execName := os.Args[0]

	showVersionAndExit := flag.Bool("version", false, "Show version and exit")

	flag.Parse()
	if *showVersionAndExit {
		fmt.Printf("%s (%s):\t%s\n\n", fullAppName, execName, config.GetFullVersion())
		return
	}

	config.Init()
	defer config.Close()

	if config.GetDataplane() == config.DataplaneKernel {
		requireRoot()
	}
	routerLock()
	defer routerUnlock()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dir := topology.NewDirectory()
	store := topology.NewStore(dir, dir)
	table := flowrule.NewTable()

	var rules flowrule.Service = table
	if config.GetDataplane() == config.DataplaneKernel {
		kernel := dataplane.New(table)
		defer kernel.Close()
		rules = kernel
	}

	rt := router.New(store, rules, flowrule.TableID(config.GetTable()), config.GetPriority())
	disp := dispatcher.New(store, rt, config.EventQueueSize())
	feed := discovery.New(dir, disp)

	var controllerWriter io.Writer
	if config.LogToController() {
		controllerWriter = logger.NewControllerWriter(feed)
	}
	logger.SetupGlobalLogger(config.GetDebugLevel(), os.Stdout, controllerWriter)

	logger.Info().Println(fullAppName, execName, config.GetFullVersion(), "started.")
	logger.Info().Println(fullAppName, "Using dataplane:", config.GetDataplaneName(config.GetDataplane()),
		"table", config.GetTable(), "priority", config.GetPriority())

	services := []common.Service{disp, feed}
	if config.MetricsExporterEnabled() {
		exp, err := exporter.New(config.MetricsExporterPort(), table, table, rt, disp)
		if err != nil {
			logger.Error().Println(fullAppName, "Could not create exporter", err)
			exitCode = -12 // errno.h -ENOMEM
			return
		}
		services = append(services, exp)
	}

	for _, s := range services {
		logger.Info().Printf("%s Starting %s service.\n", fullAppName, s.Name())
		if err := s.Run(ctx); err != nil {
			logger.Error().Printf("%s Service %s: %s\n", fullAppName, s.Name(), err)
			exitCode = -5 // errno.h -EIO
			return
		}
	}

	// SIGUSR1 dumps computed paths and installed rules
	dump := make(chan os.Signal, 1)
	signal.Notify(dump, syscall.SIGUSR1)

	terminate := make(chan os.Signal, 1)
	signal.Notify(terminate, os.Interrupt, syscall.SIGTERM)

	for {
		select {
		case <-dump:
			rt.Dump()
			table.Dump()
		case <-terminate:
			logger.Info().Println(fullAppName, "terminating")
			return
		}
	}
}
