package pkgconfig

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestViperConfigValues(t *testing.T) {
	path := writeConfigFile(t, "int: 42\nbool: true\nfloat: 3.14\nstring: hi\narray: a, b,,c\nlist:\n  - x\n  - y\nmap: k1:v1,k2:v2\ntimeout: 1500ms\n")

	cfg, err := NewViper(path)
	if err != nil {
		t.Fatalf("NewViper: %v", err)
	}
	defer func() {
		if err := cfg.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
	}()

	if got := cfg.GetInt("int"); got != 42 {
		t.Fatalf("GetInt: expected 42, got %d", got)
	}
	if got := cfg.GetBool("bool"); got != true {
		t.Fatalf("GetBool: expected true, got %v", got)
	}
	if got := cfg.GetFloat("float"); got != 3.14 {
		t.Fatalf("GetFloat: expected 3.14, got %v", got)
	}
	if got := cfg.GetString("string"); got != "hi" {
		t.Fatalf("GetString: expected hi, got %q", got)
	}
	if got := cfg.GetArray("array"); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("GetArray: unexpected value: %#v", got)
	}
	if got := cfg.GetArray("list"); !reflect.DeepEqual(got, []string{"x", "y"}) {
		t.Fatalf("GetArray(list): unexpected value: %#v", got)
	}
	if got := cfg.GetMap("map"); !reflect.DeepEqual(got, map[string]string{"k1": "v1", "k2": "v2"}) {
		t.Fatalf("GetMap: unexpected value: %#v", got)
	}
	if got := cfg.GetDuration("timeout"); got != 1500*time.Millisecond {
		t.Fatalf("GetDuration: expected 1.5s, got %v", got)
	}
}

func TestViperUnmarshalSection(t *testing.T) {
	path := writeConfigFile(t, "sheets:\n  - name: Orders\n    table: orders\n    identity_columns: [id]\n")
	cfg, err := NewViper(path)
	if err != nil {
		t.Fatalf("NewViper: %v", err)
	}

	var sheets []struct {
		Name     string   `mapstructure:"name"`
		Table    string   `mapstructure:"table"`
		Identity []string `mapstructure:"identity_columns"`
	}
	if err := cfg.Unmarshal("sheets", &sheets); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(sheets) != 1 || sheets[0].Table != "orders" || !reflect.DeepEqual(sheets[0].Identity, []string{"id"}) {
		t.Fatalf("Unmarshal: unexpected value: %#v", sheets)
	}
}

func TestViperEnvOverride(t *testing.T) {
	path := writeConfigFile(t, "database:\n  dsn: from-file\n")
	t.Setenv("EXPORTER_DATABASE_DSN", "from-env")

	cfg, err := NewViper(path)
	if err != nil {
		t.Fatalf("NewViper: %v", err)
	}
	if got := cfg.GetString("database.dsn"); got != "from-env" {
		t.Fatalf("GetString: expected from-env, got %q", got)
	}
}
