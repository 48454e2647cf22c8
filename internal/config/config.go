// Package config provides environment configuration helpers for minitrack commands.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Default robot configuration.
const (
	DefaultRobotPort = "8000"
)

// RobotIP returns the robot IP from ROBOT_IP env var.
// Falls back to the provided default if not set.
func RobotIP(defaultIP string) string {
	if ip := os.Getenv("ROBOT_IP"); ip != "" {
		return ip
	}
	return defaultIP
}

// RobotIPRequired returns the robot IP from ROBOT_IP env var.
// Exits the process if not set.
func RobotIPRequired() string {
	ip := os.Getenv("ROBOT_IP")
	if ip == "" {
		fmt.Fprintln(os.Stderr, "Error: ROBOT_IP environment variable is required")
		fmt.Fprintln(os.Stderr, "Usage: ROBOT_IP=192.168.68.80 go run ./cmd/track")
		os.Exit(1)
	}
	return ip
}

// RobotAPIURL returns the robot HTTP API URL.
func RobotAPIURL(robotIP string) string {
	return fmt.Sprintf("http://%s:%s", robotIP, DefaultRobotPort)
}

// String returns the env var value or the default if unset.
func String(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Float returns the env var parsed as float64 or the default if unset/invalid.
func Float(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %s=%q is not a number, using %v\n", key, v, def)
		return def
	}
	return f
}

// Duration returns the env var parsed as a duration or the default if unset/invalid.
// Accepts Go duration syntax ("750ms", "1.5s").
func Duration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %s=%q is not a duration, using %v\n", key, v, def)
		return def
	}
	return d
}

// Bool returns the env var parsed as a boolean or the default if unset.
func Bool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
