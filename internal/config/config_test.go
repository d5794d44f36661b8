package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_FileAndDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
server:
  port: 8088
auth:
  session_secret: "test-secret"
game:
  display_timezone: "UTC"
`)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8088 {
		t.Errorf("expected port 8088, got %d", cfg.Server.Port)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("expected default sqlite driver, got %q", cfg.Database.Driver)
	}
	if cfg.Game.SweepInterval != 2*time.Hour {
		t.Errorf("expected default sweep interval 2h, got %s", cfg.Game.SweepInterval)
	}
	loc, err := cfg.Game.Location()
	if err != nil {
		t.Fatalf("Location() error = %v", err)
	}
	if loc != time.UTC {
		t.Errorf("expected UTC location, got %s", loc)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Database: DatabaseConfig{Driver: "sqlite"},
			Auth:     AuthConfig{SessionSecret: "s", SessionTTL: time.Hour},
			Game:     GameConfig{SweepInterval: time.Hour},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "unknown driver", mutate: func(c *Config) { c.Database.Driver = "mysql" }, wantErr: true},
		{name: "missing secret", mutate: func(c *Config) { c.Auth.SessionSecret = "" }, wantErr: true},
		{name: "zero sweep interval", mutate: func(c *Config) { c.Game.SweepInterval = 0 }, wantErr: true},
		{name: "storage without bucket", mutate: func(c *Config) { c.Storage.Enabled = true }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				err = cfg.ValidateServer()
			}
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	pg := DatabaseConfig{Driver: "postgres", Host: "db", Port: 5432, User: "u", Password: "p", DBName: "wdym", SSLMode: "disable"}
	want := "host=db port=5432 user=u password=p dbname=wdym sslmode=disable TimeZone=UTC"
	if got := pg.DSN(); got != want {
		t.Errorf("postgres DSN = %q, want %q", got, want)
	}

	lite := DatabaseConfig{Driver: "sqlite", Path: "./data/x.db"}
	if got := lite.DSN(); got != "./data/x.db?_foreign_keys=on&_busy_timeout=5000" {
		t.Errorf("sqlite DSN = %q", got)
	}
}
