package config

import (
	"testing"
	"time"
)

func TestString(t *testing.T) {
	t.Setenv("MINITRACK_TEST_STR", "hello")
	if got := String("MINITRACK_TEST_STR", "def"); got != "hello" {
		t.Errorf("String() = %q, want hello", got)
	}
	if got := String("MINITRACK_TEST_UNSET", "def"); got != "def" {
		t.Errorf("String() = %q, want default", got)
	}
}

func TestFloat(t *testing.T) {
	t.Setenv("MINITRACK_TEST_FLOAT", "0.85")
	if got := Float("MINITRACK_TEST_FLOAT", 0.5); got != 0.85 {
		t.Errorf("Float() = %v, want 0.85", got)
	}

	t.Setenv("MINITRACK_TEST_FLOAT", "not-a-number")
	if got := Float("MINITRACK_TEST_FLOAT", 0.5); got != 0.5 {
		t.Errorf("invalid value should fall back to default, got %v", got)
	}
}

func TestDuration(t *testing.T) {
	t.Setenv("MINITRACK_TEST_DUR", "750ms")
	if got := Duration("MINITRACK_TEST_DUR", time.Second); got != 750*time.Millisecond {
		t.Errorf("Duration() = %v, want 750ms", got)
	}

	t.Setenv("MINITRACK_TEST_DUR", "750")
	if got := Duration("MINITRACK_TEST_DUR", time.Second); got != time.Second {
		t.Errorf("bare number should fall back to default, got %v", got)
	}
}

func TestBool(t *testing.T) {
	t.Setenv("MINITRACK_TEST_BOOL", "true")
	if !Bool("MINITRACK_TEST_BOOL", false) {
		t.Error("expected true")
	}
	if Bool("MINITRACK_TEST_UNSET", false) {
		t.Error("expected default false")
	}
}

func TestRobotAPIURL(t *testing.T) {
	if got := RobotAPIURL("192.168.68.80"); got != "http://192.168.68.80:8000" {
		t.Errorf("RobotAPIURL() = %q", got)
	}
}
