package database

import (
	"slices"
	"testing"
	"testing/fstest"
)

func TestPendingMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"002_quotes.up.sql":  {Data: []byte("CREATE TABLE quotes ();")},
		"001_init.up.sql":    {Data: []byte("CREATE TABLE wallets ();")},
		"001_init.down.sql":  {Data: []byte("DROP TABLE wallets;")},
		"README.md":          {Data: []byte("notes")},
		"003_index.up.sql":   {Data: []byte("CREATE INDEX ...;")},
		"archive/old.up.sql": {Data: []byte("SELECT 1;")},
	}

	tests := []struct {
		name    string
		applied []string
		want    []string
	}{
		{"fresh database", nil, []string{"001_init.up.sql", "002_quotes.up.sql", "003_index.up.sql"}},
		{"partially applied", []string{"001_init.up.sql"}, []string{"002_quotes.up.sql", "003_index.up.sql"}},
		{"up to date", []string{"001_init.up.sql", "002_quotes.up.sql", "003_index.up.sql"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := pendingMigrations(fsys, tt.applied)
			if err != nil {
				t.Fatalf("pendingMigrations: %v", err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
