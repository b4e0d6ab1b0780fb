package database

import (
	"testing"
)

func TestDialectSQLite(t *testing.T) {
	dialect := NewSQLiteDialect()

	t.Run("DriverName", func(t *testing.T) {
		if got := dialect.DriverName(); got != "sqlite3" {
			t.Errorf("DriverName() = %v, want sqlite3", got)
		}
	})

	t.Run("SupportsLastInsertId", func(t *testing.T) {
		if !dialect.SupportsLastInsertId() {
			t.Error("SupportsLastInsertId() should return true for SQLite")
		}
	})

	t.Run("DSN", func(t *testing.T) {
		if got := dialect.DSN(DialectConfig{Path: "./kinship.db"}); got != "./kinship.db" {
			t.Errorf("DSN() = %v, want ./kinship.db", got)
		}
	})
}

func TestDialectPostgreSQL(t *testing.T) {
	dialect := NewPostgresDialect()

	t.Run("DriverName", func(t *testing.T) {
		if got := dialect.DriverName(); got != "postgres" {
			t.Errorf("DriverName() = %v, want postgres", got)
		}
	})

	t.Run("SupportsLastInsertId", func(t *testing.T) {
		if dialect.SupportsLastInsertId() {
			t.Error("SupportsLastInsertId() should return false for PostgreSQL")
		}
	})
}

func TestDialectMySQL(t *testing.T) {
	dialect := NewMySQLDialect()

	t.Run("DriverName", func(t *testing.T) {
		if got := dialect.DriverName(); got != "mysql" {
			t.Errorf("DriverName() = %v, want mysql", got)
		}
	})

	t.Run("SupportsLastInsertId", func(t *testing.T) {
		if !dialect.SupportsLastInsertId() {
			t.Error("SupportsLastInsertId() should return true for MySQL")
		}
	})
}

func TestRewriteQuery(t *testing.T) {
	tests := []struct {
		name     string
		dialect  Dialect
		query    string
		expected string
	}{
		{
			name:     "sqlite passthrough",
			dialect:  NewSQLiteDialect(),
			query:    "SELECT * FROM edges WHERE user_id = ? AND member_id = ?",
			expected: "SELECT * FROM edges WHERE user_id = ? AND member_id = ?",
		},
		{
			name:     "mysql passthrough",
			dialect:  NewMySQLDialect(),
			query:    "SELECT * FROM edges WHERE user_id = ?",
			expected: "SELECT * FROM edges WHERE user_id = ?",
		},
		{
			name:     "postgres numbering",
			dialect:  NewPostgresDialect(),
			query:    "SELECT * FROM edges WHERE user_id = ? AND member_id = ?",
			expected: "SELECT * FROM edges WHERE user_id = $1 AND member_id = $2",
		},
		{
			name:     "postgres insert",
			dialect:  NewPostgresDialect(),
			query:    "INSERT INTO members (first_name, last_name) VALUES (?, ?)",
			expected: "INSERT INTO members (first_name, last_name) VALUES ($1, $2)",
		},
		{
			name:     "postgres no placeholders",
			dialect:  NewPostgresDialect(),
			query:    "SELECT COUNT(*) FROM invitations",
			expected: "SELECT COUNT(*) FROM invitations",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.dialect.RewriteQuery(tt.query); got != tt.expected {
				t.Errorf("RewriteQuery() = %v, want %v", got, tt.expected)
			}
		})
	}
}
