package database

import (
	"reflect"
	"strings"
	"testing"
	"testing/fstest"
	"time"
)

func TestSplitStatements(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{"single", "CREATE TABLE a (id INT);", []string{"CREATE TABLE a (id INT)"}},
		{"comments dropped", "-- header\nCREATE TABLE a (id INT);\n-- trailer\n", []string{"CREATE TABLE a (id INT)"}},
		{"two", "SELECT 1;\nSELECT 2;", []string{"SELECT 1", "SELECT 2"}},
		{"quoted semicolon", "INSERT INTO t VALUES ('a;b');", []string{"INSERT INTO t VALUES ('a;b')"}},
		{"no trailing semicolon", "SELECT 1", []string{"SELECT 1"}},
		{"blank", "\n\n", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SplitStatements(tt.src); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("got %q want %q", got, tt.want)
			}
		})
	}
}

func TestEmbeddedMigrationsParse(t *testing.T) {
	files, err := migrationFiles(migrationFS, "migrations")
	if err != nil || len(files) == 0 {
		t.Fatalf("no embedded migrations: %v", err)
	}
	raw, err := migrationFS.ReadFile("migrations/" + files[0])
	if err != nil {
		t.Fatal(err)
	}
	stmts := SplitStatements(string(raw))
	for _, table := range []string{"cafes", "cafe_tables", "menu_items", "reservations", "orders", "users", "refresh_tokens"} {
		found := false
		for _, s := range stmts {
			if strings.Contains(s, "CREATE TABLE IF NOT EXISTS "+table+" ") {
				found = true
			}
		}
		if !found {
			t.Errorf("migration does not create %s", table)
		}
	}
}

func TestMigrationFilesSorted(t *testing.T) {
	fsys := fstest.MapFS{
		"m/0002_b.sql": {Data: []byte("SELECT 2;")},
		"m/0001_a.sql": {Data: []byte("SELECT 1;")},
		"m/readme.txt": {Data: []byte("x")},
	}
	got, err := migrationFiles(fsys, "m")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []string{"0001_a.sql", "0002_b.sql"}) {
		t.Fatalf("got %v", got)
	}
}

func TestDSN(t *testing.T) {
	o := Options{User: "app", Password: "secret", Host: "db", Port: "3306", Name: "cafe", ConnMaxLifetime: time.Minute}
	want := "app:secret@tcp(db:3306)/cafe?charset=utf8mb4&parseTime=true&loc=UTC"
	if got := o.DSN(); got != want {
		t.Fatalf("got %s", got)
	}
	o.Password = ""
	if got := o.DSN(); !strings.HasPrefix(got, "app@tcp(") {
		t.Fatalf("got %s", got)
	}
}
