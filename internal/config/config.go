// Package config provides runtime configuration values for the service.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds configuration knobs for the HTTP server, the order log, and
// the fulfillment delays.
type Config struct {
	HTTPAddr        string
	OrdersFile      string
	ShipDelay       time.Duration
	DeliverDelay    time.Duration
	ShutdownTimeout time.Duration
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoienv(key string, def int) int {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func durenvms(key string, defMs int) time.Duration {
	ms := atoienv(key, defMs)
	return time.Duration(ms) * time.Millisecond
}

func durenvs(key string, defSec int) time.Duration {
	sec := atoienv(key, defSec)
	return time.Duration(sec) * time.Second
}

// Load collects configuration from environment with defaults. The fulfillment
// delays model shipping and delivery latency; correctness never depends on
// their values.
func Load() Config {
	return Config{
		HTTPAddr:        getenv("HTTP_ADDR", ":8080"),
		OrdersFile:      getenv("ORDERS_FILE", "orders.txt"),
		ShipDelay:       durenvms("SHIP_DELAY_MS", 2000),
		DeliverDelay:    durenvms("DELIVER_DELAY_MS", 2000),
		ShutdownTimeout: durenvs("SHUTDOWN_TIMEOUT", 15),
	}
}
