package db

import (
	"errors"
	"fmt"
	"testing"

	pgconnv1 "github.com/jackc/pgconn"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		constraint string
		want       bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "pgx any", err: &pgconn.PgError{Code: "23505", ConstraintName: "idx_products_owner_sku"}, want: true},
		{name: "pgx named", err: &pgconn.PgError{Code: "23505", ConstraintName: "idx_products_owner_sku"}, constraint: "idx_products_owner_sku", want: true},
		{name: "pgx other constraint", err: &pgconn.PgError{Code: "23505", ConstraintName: "licenses_key_key"}, constraint: "idx_products_owner_sku", want: false},
		{name: "pgx fk violation", err: &pgconn.PgError{Code: "23503"}, want: false},
		{name: "legacy pgconn", err: &pgconnv1.PgError{Code: "23505"}, want: true},
		{name: "lib pq wrapped", err: fmt.Errorf("insert: %w", &pq.Error{Code: "23505", Constraint: "uq"}), constraint: "uq", want: true},
		{name: "sqlite", err: errors.New("UNIQUE constraint failed: products.owner_id, products.sku"), want: true},
		{name: "plain", err: errors.New("connection reset"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUniqueViolation(tt.err, tt.constraint); got != tt.want {
				t.Fatalf("IsUniqueViolation() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsForeignKeyViolation(t *testing.T) {
	cases := map[string]struct {
		err  error
		want bool
	}{
		"nil":       {err: nil, want: false},
		"pgx":       {err: &pgconn.PgError{Code: "23503"}, want: true},
		"pgx other": {err: &pgconn.PgError{Code: "23505"}, want: false},
		"legacy":    {err: &pgconnv1.PgError{Code: "23503"}, want: true},
		"lib pq":    {err: fmt.Errorf("delete: %w", &pq.Error{Code: "23503"}), want: true},
		"sqlite":    {err: errors.New("FOREIGN KEY constraint failed"), want: true},
		"plain":     {err: errors.New("timeout"), want: false},
	}
	for name, tc := range cases {
		if got := IsForeignKeyViolation(tc.err); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", name, tc.want, got)
		}
	}
}
