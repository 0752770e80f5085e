package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	// Verify defaults
	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "127.0.0.1")
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 8080)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("Server.ReadTimeout = %v, want %v", cfg.Server.ReadTimeout, 15*time.Second)
	}
	if cfg.Server.CommandTimeout != 10*time.Minute {
		t.Errorf("Server.CommandTimeout = %v, want %v", cfg.Server.CommandTimeout, 10*time.Minute)
	}
	if cfg.Engine.MemoryLimit != "4GB" {
		t.Errorf("Engine.MemoryLimit = %q, want %q", cfg.Engine.MemoryLimit, "4GB")
	}
	if cfg.Engine.Threads != 4 {
		t.Errorf("Engine.Threads = %d, want %d", cfg.Engine.Threads, 4)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "info")
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Logging.Format = %q, want %q", cfg.Logging.Format, "text")
	}
}

func TestLoad_OverrideDefaults(t *testing.T) {
	os.Setenv("SERVER_PORT", "9090")
	os.Setenv("ENGINE_THREADS", "8")
	os.Setenv("ENGINE_MEMORY_LIMIT", "512MB")
	os.Setenv("LOG_LEVEL", "debug")
	defer func() {
		os.Unsetenv("SERVER_PORT")
		os.Unsetenv("ENGINE_THREADS")
		os.Unsetenv("ENGINE_MEMORY_LIMIT")
		os.Unsetenv("LOG_LEVEL")
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 9090)
	}
	if cfg.Engine.Threads != 8 {
		t.Errorf("Engine.Threads = %d, want %d", cfg.Engine.Threads, 8)
	}
	if cfg.Engine.MemoryLimit != "512MB" {
		t.Errorf("Engine.MemoryLimit = %q, want %q", cfg.Engine.MemoryLimit, "512MB")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
}

func TestLoad_Duration(t *testing.T) {
	os.Setenv("SERVER_READ_TIMEOUT", "45s")
	os.Setenv("SERVER_COMMAND_TIMEOUT", "1m30s")
	defer func() {
		os.Unsetenv("SERVER_READ_TIMEOUT")
		os.Unsetenv("SERVER_COMMAND_TIMEOUT")
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.ReadTimeout != 45*time.Second {
		t.Errorf("Server.ReadTimeout = %v, want %v", cfg.Server.ReadTimeout, 45*time.Second)
	}
	if cfg.Server.CommandTimeout != 90*time.Second {
		t.Errorf("Server.CommandTimeout = %v, want %v", cfg.Server.CommandTimeout, 90*time.Second)
	}
}

func TestLoad_CommaSeparatedSlice(t *testing.T) {
	os.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 172.16.0.0/12 , 192.168.0.0/16")
	defer os.Unsetenv("TRUSTED_PROXIES")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	expected := []string{"10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"}
	if len(cfg.Security.TrustedProxies) != len(expected) {
		t.Fatalf("TrustedProxies length = %d, want %d", len(cfg.Security.TrustedProxies), len(expected))
	}
	for i, v := range expected {
		if cfg.Security.TrustedProxies[i] != v {
			t.Errorf("TrustedProxies[%d] = %q, want %q", i, cfg.Security.TrustedProxies[i], v)
		}
	}
}

func TestLoad_InvalidInteger(t *testing.T) {
	os.Setenv("SERVER_PORT", "not-a-port")
	defer os.Unsetenv("SERVER_PORT")

	_, err := Load()
	if err == nil {
		t.Fatal("Load() expected error for non-numeric SERVER_PORT")
	}
	if !strings.Contains(err.Error(), "SERVER_PORT") {
		t.Errorf("error should mention SERVER_PORT: %v", err)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := &Config{
		Server:  ServerConfig{Port: 99999, ShutdownTimeout: time.Second, CommandTimeout: time.Minute},
		Engine:  EngineConfig{MemoryLimit: "4GB", Threads: 4},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error for invalid port")
	}
	if !strings.Contains(err.Error(), "SERVER_PORT") {
		t.Errorf("error should mention SERVER_PORT: %v", err)
	}
}

func TestValidate_ZeroThreads(t *testing.T) {
	cfg := &Config{
		Server:  ServerConfig{Port: 8080, ShutdownTimeout: time.Second, CommandTimeout: time.Minute},
		Engine:  EngineConfig{MemoryLimit: "4GB", Threads: 0},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error for zero threads")
	}
	if !strings.Contains(err.Error(), "ENGINE_THREADS") {
		t.Errorf("error should mention ENGINE_THREADS: %v", err)
	}
}

func TestValidate_BadMemoryLimit(t *testing.T) {
	cfg := &Config{
		Server:  ServerConfig{Port: 8080, ShutdownTimeout: time.Second, CommandTimeout: time.Minute},
		Engine:  EngineConfig{MemoryLimit: "fast", Threads: 4},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error for malformed memory limit")
	}
	if !strings.Contains(err.Error(), "ENGINE_MEMORY_LIMIT") {
		t.Errorf("error should mention ENGINE_MEMORY_LIMIT: %v", err)
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := &Config{
		Server:  ServerConfig{Port: 8080, ShutdownTimeout: time.Second, CommandTimeout: time.Minute},
		Engine:  EngineConfig{MemoryLimit: "4GB", Threads: 4},
		Logging: LoggingConfig{Level: "verbose", Format: "text"},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error for invalid log level")
	}
	if !strings.Contains(err.Error(), "LOG_LEVEL") {
		t.Errorf("error should mention LOG_LEVEL: %v", err)
	}
}

func TestValidMemoryLimit(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"4GB", true},
		{"512MB", true},
		{"1.5GB", true},
		{"2GiB", true},
		{"100KiB", true},
		{"80%", true},
		{"8 GB", true},
		{"", false},
		{"GB", false},
		{"fast", false},
		{"4XB", false},
		{"four GB", false},
	}

	for _, tt := range tests {
		got := validMemoryLimit(tt.value)
		if got != tt.want {
			t.Errorf("validMemoryLimit(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestServerAddr(t *testing.T) {
	tests := []struct {
		host string
		port int
		want string
	}{
		{"", 8080, ":8080"},
		{"0.0.0.0", 8080, "0.0.0.0:8080"},
		{"127.0.0.1", 3000, "127.0.0.1:3000"},
		{"localhost", 443, "localhost:443"},
	}

	for _, tt := range tests {
		cfg := &ServerConfig{Host: tt.host, Port: tt.port}
		got := cfg.Addr()
		if got != tt.want {
			t.Errorf("Addr() with host=%q, port=%d = %q, want %q", tt.host, tt.port, got, tt.want)
		}
	}
}

func TestConfigString_MasksToken(t *testing.T) {
	cfg := &Config{
		Security: SecurityConfig{APIToken: "super-secret-token"},
	}
	str := cfg.String()
	if strings.Contains(str, "super-secret-token") {
		t.Error("String() should mask the API token")
	}
	if !strings.Contains(str, "MASKED") {
		t.Error("String() should contain MASKED placeholder")
	}

	cfg.Security.APIToken = ""
	if !strings.Contains(cfg.String(), "UNSET") {
		t.Error("String() should report UNSET for an empty token")
	}
}
