package database

import (
	"strings"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
)

func TestStatementsSkipsComments(t *testing.T) {
	script := `-- header
CREATE TABLE a (id INT);

-- trailing comment
CREATE TABLE b (id INT);
`
	got := statements(script)
	if len(got) != 2 {
		t.Fatalf("got %d statements, want 2: %q", len(got), got)
	}
	if got[0] != "CREATE TABLE a (id INT)" {
		t.Errorf("first statement = %q", got[0])
	}
}

func TestEmbeddedSchemaHasCoreTables(t *testing.T) {
	stmts := statements(schema)
	for _, table := range []string{"orders", "order_items", "payments", "restaurant_tables", "restaurant_settings"} {
		found := false
		for _, s := range stmts {
			if strings.Contains(s, "CREATE TABLE IF NOT EXISTS "+table+" ") {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("schema is missing table %s", table)
		}
	}
}

func TestDSN(t *testing.T) {
	got := DSN("pos", "s3cret", "db", "3306", "restaurant")
	cfg, err := mysql.ParseDSN(got)
	if err != nil {
		t.Fatalf("ParseDSN(%q): %v", got, err)
	}
	if cfg.User != "pos" || cfg.Passwd != "s3cret" || cfg.Addr != "db:3306" || cfg.DBName != "restaurant" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if !cfg.ParseTime || cfg.Loc != time.UTC {
		t.Fatalf("want parseTime in UTC, got parseTime=%v loc=%v", cfg.ParseTime, cfg.Loc)
	}
	if tz := cfg.Params["time_zone"]; tz != "'+00:00'" {
		t.Fatalf("session time_zone = %q, want '+00:00' (params %v)", tz, cfg.Params)
	}
}
