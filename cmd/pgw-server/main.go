package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/Atomic7996/Mini-PGW/cdr"
	"github.com/Atomic7996/Mini-PGW/config"
	"github.com/Atomic7996/Mini-PGW/controlplane"
	"github.com/Atomic7996/Mini-PGW/lifecycle"
	"github.com/Atomic7996/Mini-PGW/logging"
	"github.com/Atomic7996/Mini-PGW/session"
	"github.com/Atomic7996/Mini-PGW/udpserver"
	"github.com/Atomic7996/Mini-PGW/sweeper"
)

func main() {
	flag.Parse()
	args := flag.Args()
	if len(args) != 1 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.LoadServerFile(args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, "error loading server config:", err)
		os.Exit(1)
	}

	log, err := logging.New(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error building logger:", err)
		os.Exit(1)
	}

	log.Infof("server starting: udp %s:%d http port %d cdr file %s debug=%t",
		cfg.UDPIP, cfg.UDPPort, cfg.HTTPPort, cfg.CDRFile, cfg.LogLevel == "DEBUG")
	log.Debugf("config: timeout=%ds graceful_rate=%d sess/sec", cfg.SessionTimeoutSec, cfg.GracefulShutdownRate)

	writer, err := cdr.Open(cfg.CDRFile)
	if err != nil {
		log.Errorf("cannot open cdr file: %v", err)
		os.Exit(1)
	}

	table := session.NewTable(cfg.Blacklist)
	co := lifecycle.New(log)

	udp, err := udpserver.New(cfg.UDPIP, cfg.UDPPort, table, writer, log, co)
	if err != nil {
		log.Errorf("cannot bind udp socket: %v", err)
		os.Exit(1)
	}

	http := controlplane.New(cfg.HTTPPort, table, co, log)

	sw := sweeper.New(table, writer, log, co, co,
		time.Duration(cfg.SessionTimeoutSec)*time.Second, cfg.GracefulShutdownRate)

	if err := co.Run(udp, http, sw, http.Shutdown, writer); err != nil {
		log.Errorf("server exited with error: %v", err)
		code := 1
		if runErr, ok := err.(*lifecycle.RunError); ok {
			code = runErr.Code
		}
		os.Exit(code)
	}

	log.Info("exit from server")
	os.Exit(0)
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: pgw-server <config.yaml>")
	flag.PrintDefaults()
}
