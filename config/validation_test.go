package config

import (
	"strings"
	"testing"
)

func TestValidatorRequireNonEmpty(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		wantError bool
	}{
		{name: "non-empty value", value: "hello", wantError: false},
		{name: "empty value", value: "", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewValidator()
			v.RequireNonEmpty("testField", tt.value)
			if v.HasErrors() != tt.wantError {
				t.Errorf("HasErrors() = %v, want %v", v.HasErrors(), tt.wantError)
			}
		})
	}
}

func TestValidatorRequirePositive(t *testing.T) {
	tests := []struct {
		name      string
		value     int
		wantError bool
	}{
		{name: "positive value", value: 10, wantError: false},
		{name: "zero value", value: 0, wantError: true},
		{name: "negative value", value: -5, wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewValidator()
			v.RequirePositive("testField", tt.value)
			if v.HasErrors() != tt.wantError {
				t.Errorf("HasErrors() = %v, want %v", v.HasErrors(), tt.wantError)
			}
		})
	}
}

func TestValidatorValidateRange(t *testing.T) {
	tests := []struct {
		name      string
		value     int
		min       int
		max       int
		wantError bool
	}{
		{name: "within range", value: 5, min: 1, max: 10, wantError: false},
		{name: "at lower bound", value: 1, min: 1, max: 10, wantError: false},
		{name: "at upper bound", value: 10, min: 1, max: 10, wantError: false},
		{name: "below range", value: 0, min: 1, max: 10, wantError: true},
		{name: "above range", value: 11, min: 1, max: 10, wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewValidator()
			v.ValidateRange("testField", tt.value, tt.min, tt.max)
			if v.HasErrors() != tt.wantError {
				t.Errorf("HasErrors() = %v, want %v", v.HasErrors(), tt.wantError)
			}
		})
	}
}

func TestValidatorValidateOneOf(t *testing.T) {
	v := NewValidator()
	v.ValidateOneOf("mode", "require", "disable", "require", "verify-full")
	if v.HasErrors() {
		t.Errorf("unexpected errors: %v", v.Errors())
	}

	v = NewValidator()
	v.ValidateOneOf("mode", "bogus", "disable", "require")
	if !v.HasErrors() {
		t.Error("expected error for disallowed value")
	}
}

func TestValidatorChaining(t *testing.T) {
	v := NewValidator()
	v.RequireNonEmpty("a", "").RequirePositive("b", -1).ValidatePort("c", 99999)
	if len(v.Errors()) != 3 {
		t.Errorf("expected 3 errors, got %d", len(v.Errors()))
	}

	err := v.Error()
	if err == nil {
		t.Fatal("expected combined error")
	}
	for _, field := range []string{"a", "b", "c"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("combined error missing field %q", field)
		}
	}
}

func TestValidatePGVectorConfig(t *testing.T) {
	tests := []struct {
		name      string
		host      string
		port      int
		user      string
		password  string
		dbName    string
		sslMode   string
		dimension int
		tableName string
		wantError bool
	}{
		{
			name: "valid config", host: "localhost", port: 5432, user: "postgres",
			password: "secret", dbName: "salesagent", sslMode: "disable",
			dimension: 1536, tableName: "policy_chunks", wantError: false,
		},
		{
			name: "missing host", host: "", port: 5432, user: "postgres",
			password: "secret", dbName: "salesagent", sslMode: "disable",
			dimension: 1536, tableName: "policy_chunks", wantError: true,
		},
		{
			name: "bad ssl mode", host: "localhost", port: 5432, user: "postgres",
			password: "secret", dbName: "salesagent", sslMode: "maybe",
			dimension: 1536, tableName: "policy_chunks", wantError: true,
		},
		{
			name: "zero dimension", host: "localhost", port: 5432, user: "postgres",
			password: "secret", dbName: "salesagent", sslMode: "disable",
			dimension: 0, tableName: "policy_chunks", wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePGVectorConfig(tt.host, tt.port, tt.user, tt.password,
				tt.dbName, tt.sslMode, tt.dimension, tt.tableName)
			if (err != nil) != tt.wantError {
				t.Errorf("ValidatePGVectorConfig() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestValidateRedisConfig(t *testing.T) {
	if err := ValidateRedisConfig("localhost:6379", 0, "salesagent:session:"); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}
	if err := ValidateRedisConfig("", 0, "salesagent:session:"); err == nil {
		t.Error("missing addr accepted")
	}
	if err := ValidateRedisConfig("localhost:6379", 42, "salesagent:session:"); err == nil {
		t.Error("db number out of range accepted")
	}
}

func TestValidateProviderConfig(t *testing.T) {
	if err := ValidateProviderConfig("key", "claude-sonnet", 0.7, 1024); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}
	if err := ValidateProviderConfig("key", "claude-sonnet", 3.5, 1024); err == nil {
		t.Error("temperature out of range accepted")
	}
	if err := ValidateProviderConfig("", "claude-sonnet", 0.7, 1024); err == nil {
		t.Error("missing api key accepted")
	}
}

func TestValidateChunkingConfig(t *testing.T) {
	if err := ValidateChunkingConfig(800, 150); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}
	if err := ValidateChunkingConfig(800, 800); err == nil {
		t.Error("overlap equal to chunk size accepted")
	}
	if err := ValidateChunkingConfig(0, 0); err == nil {
		t.Error("zero chunk size accepted")
	}
}
