package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/Atomic7996/Mini-PGW/bcd"
	"github.com/Atomic7996/Mini-PGW/config"
	"github.com/Atomic7996/Mini-PGW/logging"
)

const readTimeout = 5 * time.Second

func main() {
	flag.Parse()
	args := flag.Args()
	if len(args) != 2 {
		usage()
		os.Exit(1)
	}
	cfgPath, imsi := args[0], args[1]

	cfg, err := config.LoadClientFile(cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error loading client config:", err)
		os.Exit(1)
	}

	log, err := logging.New(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error building logger:", err)
		os.Exit(1)
	}

	log.Infof("client starting, imsi=%s config=%s debug=%t", logging.MaskIMSI(imsi), cfgPath, cfg.LogLevel == "DEBUG")
	log.Debugf("loaded client config: server_ip=%s server_port=%d log_file=%s", cfg.ServerIP, cfg.ServerPort, cfg.LogFile)

	wire, err := bcd.Encode(imsi)
	if err != nil {
		log.Errorf("cannot convert imsi to bcd %q: %v", imsi, err)
		os.Exit(1)
	}
	log.Debugf("imsi %s converted to bcd: %x", imsi, wire)

	serverAddr, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", cfg.ServerIP, cfg.ServerPort))
	if err != nil {
		log.Errorf("invalid server address %s:%d: %v", cfg.ServerIP, cfg.ServerPort, err)
		os.Exit(1)
	}

	conn, err := net.DialUDP("udp", nil, serverAddr)
	if err != nil {
		log.Errorf("cannot create udp socket: %v", err)
		os.Exit(1)
	}
	defer conn.Close()

	n, err := conn.Write(wire[:])
	if err != nil {
		log.Errorf("cannot send datagram: %v", err)
		os.Exit(1)
	}
	log.Infof("sent %d bytes to %s:%d", n, cfg.ServerIP, cfg.ServerPort)

	if err := conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
		log.Errorf("cannot set read deadline: %v", err)
	}

	buf := make([]byte, 32)
	n, err = conn.Read(buf)
	if err != nil {
		log.Errorf("cannot receive reply: %v", err)
		os.Exit(1)
	}

	reply := string(buf[:n])
	log.Infof("server replied: %s", reply)
	fmt.Println(reply)
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: pgw-client <config.yaml> <imsi>")
	flag.PrintDefaults()
}
