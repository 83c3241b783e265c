package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func TestIsUniqueViolation(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"pg 23505", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "idx_report_template_org_name"}), true},
		{"pg fk", &pgconn.PgError{Code: "23503"}, false},
		{"gorm duplicated", gorm.ErrDuplicatedKey, true},
		{"sqlite", errors.New("UNIQUE constraint failed: report_template.org_id, report_template.name"), true},
		{"other", errors.New("boom"), false},
	}
	for _, tc := range cases {
		if got := IsUniqueViolation(tc.err); got != tc.want {
			t.Fatalf("%s: want=%v got=%v", tc.name, tc.want, got)
		}
	}
}

func TestConstraintName(t *testing.T) {
	err := fmt.Errorf("wrap: %w", &pgconn.PgError{Code: "23505", ConstraintName: "idx_x"})
	if got := ConstraintName(err); got != "idx_x" {
		t.Fatalf("ConstraintName: want=%q got=%q", "idx_x", got)
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(&pgconn.PgError{Code: "40001"}) {
		t.Fatalf("serialization failure should be retryable")
	}
	if IsRetryable(&pgconn.PgError{Code: "23505"}) {
		t.Fatalf("unique violation should not be retryable")
	}
	if !IsRetryable(errors.New("database is locked")) {
		t.Fatalf("sqlite lock should be retryable")
	}
}
