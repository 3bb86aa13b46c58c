package config

import (
	"errors"
	"flag"
	"net"
	"strconv"
	"strings"
	"time"
)

// NetAddress holds structured network address data for host and port.
// It implements the flag.Value interface.
type NetAddress struct {
	Host string
	Port int
}

// ParseFlags parses all configuration flags.
//
// Flags:
//
//	-a server address in format [host]:[port]
//	-d account database DSN (postgres:// URI or sqlite file path)
//	-f archive storage directory
//	-c/-config json file path with configs
//	-bcrypt-cost credential hash cost factor
//	-max-delta-size maximum accepted delta container size in bytes
//	-request-timeout request timeout (e.g., "30s", "1m")
//	-rate-limit-rps per-client rate limit on credential endpoints
//	-rate-limit-burst per-client rate limit burst size
func ParseFlags() *StructuredConfig {
	var serverAddress NetAddress
	var archivesDir string
	var databaseDSN string
	var jsonConfigPath string
	var bcryptCost int
	var maxDeltaSize int64
	var requestTimeout time.Duration
	var rateLimitRPS float64
	var rateLimitBurst int

	flag.Var(&serverAddress, "a", "Net address host:port")
	flag.StringVar(&archivesDir, "f", "", "Archive storage directory")
	flag.StringVar(&databaseDSN, "d", "", "Account database DSN")
	flag.StringVar(&jsonConfigPath, "c", "", "JSON config file path")
	flag.StringVar(&jsonConfigPath, "config", "", "JSON config file path (alias)")
	flag.IntVar(&bcryptCost, "bcrypt-cost", 0, "Credential hash cost factor")
	flag.Int64Var(&maxDeltaSize, "max-delta-size", 0, "Maximum delta container size in bytes")
	flag.DurationVar(&requestTimeout, "request-timeout", 0, "Request timeout (e.g., 30s, 1m)")
	flag.Float64Var(&rateLimitRPS, "rate-limit-rps", 0, "Per-client rate limit, requests per second")
	flag.IntVar(&rateLimitBurst, "rate-limit-burst", 0, "Per-client rate limit burst size")

	flag.Parse()

	return &StructuredConfig{
		App: App{
			BcryptCost: bcryptCost,
		},
		Storage: Storage{
			DB: DB{
				DSN: databaseDSN,
			},
			Archives: Archives{
				Dir: archivesDir,
			},
		},
		Server: Server{
			HTTPAddress:    serverAddress.String(),
			RequestTimeout: requestTimeout,
			RateLimitRPS:   rateLimitRPS,
			RateLimitBurst: rateLimitBurst,
		},
		Sync: Sync{
			MaxDeltaSize: maxDeltaSize,
		},
		JSONFilePath: jsonConfigPath,
	}
}

// String returns a canonical host:port string for a NetAddress.
// It returns an empty string when neither Host nor Port are set.
func (a *NetAddress) String() string {
	if a.Host == "" && a.Port == 0 {
		return ""
	}

	return a.Host + ":" + strconv.Itoa(a.Port)
}

// Set parses the input string of form host:port and populates the NetAddress.
// It validates the port range, checks IP correctness unless host is
// "localhost" or empty, and returns an error if the format or values are
// invalid.
func (a *NetAddress) Set(s string) error {
	hostAndPort := strings.Split(s, ":")
	if len(hostAndPort) != 2 {
		return errors.New("need address in a form `host:port`")
	}

	host := hostAndPort[0]
	port, err := strconv.Atoi(hostAndPort[1])
	if err != nil {
		return err
	}

	if port < 1 {
		return errors.New("port number is a positive integer")
	}

	if host != "" && host != "localhost" {
		if ip := net.ParseIP(host); ip == nil {
			return errors.New("incorrect IP-address provided")
		}
	}

	a.Host = host
	a.Port = port
	return nil
}
