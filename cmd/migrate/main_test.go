package main

import (
	"crypto/sha256"
	"testing"
)

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		filename string
		valid    bool
		version  int
		name     string
	}{
		{"0001_create_transactions.sql", true, 1, "create_transactions"},
		{"0042_add_column.sql", true, 42, "add_column"},
		{"001_too_short.sql", false, 0, ""},
		{"0001_missing_ext", false, 0, ""},
		{"0001.sql", false, 0, ""},
		{"prefix_0001_name.sql", false, 0, ""},
		{"README.md", false, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			version, name, ok := parseMigrationFilename(tt.filename)
			if ok != tt.valid {
				t.Fatalf("parseMigrationFilename(%q) ok = %v, want %v", tt.filename, ok, tt.valid)
			}
			if !tt.valid {
				return
			}
			if version != tt.version || name != tt.name {
				t.Errorf("parseMigrationFilename(%q) = (%d, %q), want (%d, %q)",
					tt.filename, version, name, tt.version, tt.name)
			}
		})
	}
}

func TestMigrationChecksumStability(t *testing.T) {
	content := []byte("CREATE TABLE test (id INT64);")

	a := sha256.Sum256(content)
	b := sha256.Sum256(content)
	if a != b {
		t.Error("same content must hash to the same checksum")
	}

	c := sha256.Sum256([]byte("CREATE TABLE other (id INT64);"))
	if a == c {
		t.Error("different content must hash to different checksums")
	}
}
