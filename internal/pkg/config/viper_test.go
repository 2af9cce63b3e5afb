package config

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

const testYAML = `
app:
  server:
    addr: ":8080"
    read_timeout_seconds: 15
vault:
  store: sqlite
  encryption_key: %s
modules:
  vault:
    consumer_names:
      - user.registered.vault
      - " user.deleted.vault "
messaging:
  nsq:
    consumer_nsqd_addrs: "a:4150, ,b:4150"
storage:
  tags: "env:dev, team : vault"
`

func newTestViper(t *testing.T) *Viper {
	t.Helper()

	key := base64.StdEncoding.EncodeToString(make([]byte, 32))
	cfg, err := NewViperFromBytes("yaml", []byte(strings.Replace(testYAML, "%s", key, 1)))
	if err != nil {
		t.Fatalf("NewViperFromBytes() error = %v", err)
	}

	return cfg
}

func TestViper_Getters(t *testing.T) {
	// Arrange
	cfg := newTestViper(t)

	// Act & Assert
	if got := cfg.GetString("app.server.addr"); got != ":8080" {
		t.Fatalf("GetString() = %q", got)
	}
	if got := cfg.GetSecond("app.server.read_timeout_seconds"); got != 15*time.Second {
		t.Fatalf("GetSecond() = %v", got)
	}
	if got := cfg.GetBinary("vault.encryption_key"); len(got) != 32 {
		t.Fatalf("GetBinary() len = %d, want 32", len(got))
	}
	if got := cfg.GetArray("missing.key"); len(got) != 0 {
		t.Fatalf("GetArray(missing) = %v, want empty", got)
	}

	wantList := []string{"user.registered.vault", "user.deleted.vault"}
	if diff := cmp.Diff(wantList, cfg.GetArray("modules.vault.consumer_names")); diff != "" {
		t.Fatalf("GetArray(list) mismatch (-want +got):\n%s", diff)
	}

	wantCSV := []string{"a:4150", "b:4150"}
	if diff := cmp.Diff(wantCSV, cfg.GetArray("messaging.nsq.consumer_nsqd_addrs")); diff != "" {
		t.Fatalf("GetArray(csv) mismatch (-want +got):\n%s", diff)
	}

	wantMap := map[string]string{"env": "dev", "team": "vault"}
	if diff := cmp.Diff(wantMap, cfg.GetMap("storage.tags")); diff != "" {
		t.Fatalf("GetMap() mismatch (-want +got):\n%s", diff)
	}
}

func TestViper_EnvOverride(t *testing.T) {
	// Arrange
	t.Setenv("TOTPSYNC_VAULT_STORE", "postgres")
	cfg := newTestViper(t)

	// Act
	got := cfg.GetString("vault.store")

	// Assert
	if got != "postgres" {
		t.Fatalf("GetString() = %q, want env override", got)
	}
}

func TestNewViper_File(t *testing.T) {
	// Arrange
	file := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(file, []byte("app:\n  name: totp-sync\n"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	// Act
	cfg, err := NewViper(file)

	// Assert
	if err != nil {
		t.Fatalf("NewViper() error = %v", err)
	}
	if got := cfg.GetString("app.name"); got != "totp-sync" {
		t.Fatalf("GetString() = %q", got)
	}
}

func TestNewViperFromBytes_RequiresType(t *testing.T) {
	// Act
	_, err := NewViperFromBytes(" ", nil)

	// Assert
	if err == nil {
		t.Fatalf("NewViperFromBytes() error = nil")
	}
}
