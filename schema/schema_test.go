package schema

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestColumnNumeric(t *testing.T) {
	tests := []struct {
		dataType string
		want     bool
	}{
		{"int", true},
		{"INTEGER", true},
		{"BIGINT", true},
		{"decimal(10,2)", true},
		{"FLOAT", true},
		{"double precision", true},
		{"TEXT", false},
		{"varchar(50)", false},
		{"BLOB", false},
		{"datetime", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.dataType, func(t *testing.T) {
			col := Column{Name: "c", DataType: tt.dataType}
			if got := col.Numeric(); got != tt.want {
				t.Errorf("Numeric() for %q = %v, want %v", tt.dataType, got, tt.want)
			}
		})
	}
}

func TestSnapshotLookup(t *testing.T) {
	snap := &Snapshot{Tables: []Table{
		{Name: "orders"},
		{Name: "users", Columns: []Column{{Name: "id", DataType: "INTEGER"}}},
	}}

	tbl, ok := snap.Lookup("users")
	if !ok {
		t.Fatal("Lookup(users) not found")
	}
	if len(tbl.Columns) != 1 {
		t.Errorf("Lookup(users) has %d columns, want 1", len(tbl.Columns))
	}

	if _, ok := snap.Lookup("Users"); ok {
		t.Error("Lookup is case sensitive; Users should not match users")
	}
	if _, ok := snap.Lookup("missing"); ok {
		t.Error("Lookup(missing) found a table")
	}

	var nilSnap *Snapshot
	if _, ok := nilSnap.Lookup("users"); ok {
		t.Error("Lookup on nil snapshot found a table")
	}
}

func TestLoad(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT name FROM sqlite_master").
		WithArgs(ReservedTablePrefix + "%").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).
			AddRow("orders").
			AddRow("users"))

	cols := []string{"cid", "name", "type", "notnull", "dflt_value", "pk"}
	mock.ExpectQuery(regexp.QuoteMeta("PRAGMA table_info([orders]);")).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(0, "id", "INTEGER", 1, nil, 1).
			AddRow(1, "total", "decimal(10,2)", 0, nil, 0))
	mock.ExpectQuery(regexp.QuoteMeta("PRAGMA table_info([users]);")).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(0, "id", "INTEGER", 1, nil, 1).
			AddRow(1, "name", "varchar(50)", 0, "''", 0))

	snap, err := Load(context.Background(), db)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(snap.Tables) != 2 {
		t.Fatalf("Load returned %d tables, want 2", len(snap.Tables))
	}

	users, ok := snap.Lookup("users")
	if !ok {
		t.Fatal("users table missing from snapshot")
	}
	want := []Column{{Name: "id", DataType: "INTEGER"}, {Name: "name", DataType: "varchar(50)"}}
	if len(users.Columns) != len(want) {
		t.Fatalf("users has %d columns, want %d", len(users.Columns), len(want))
	}
	for i, col := range users.Columns {
		if col != want[i] {
			t.Errorf("users column %d = %+v, want %+v", i, col, want[i])
		}
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestHolder(t *testing.T) {
	first := &Snapshot{Tables: []Table{{Name: "a"}}}
	second := &Snapshot{Tables: []Table{{Name: "b"}}}

	h := NewHolder(first)
	if h.Get() != first {
		t.Error("Get() did not return seeded snapshot")
	}

	h.Set(second)
	if h.Get() != second {
		t.Error("Get() did not return replaced snapshot")
	}
}
