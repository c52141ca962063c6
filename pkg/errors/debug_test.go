package errors

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

func TestDumpCollectsChainAndPostgresFields(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "ux_users_username", TableName: "users", Message: "duplicate key value"}
	err := Wrap(CodeConflict, fmt.Errorf("insert user: %w", pgErr), "username taken")

	d := Dump(err)
	if d.Code != CodeConflict {
		t.Fatalf("expected code %s got %s", CodeConflict, d.Code)
	}
	if d.Message != "username taken" {
		t.Fatalf("unexpected message %q", d.Message)
	}
	if len(d.Chain) != 3 {
		t.Fatalf("expected 3 chain entries got %d: %v", len(d.Chain), d.Chain)
	}
	if d.PGCode != "23505" || d.PGConstraint != "ux_users_username" || d.PGTable != "users" {
		t.Fatalf("postgres fields not extracted: %+v", d)
	}
}

func TestIsTransientPG(t *testing.T) {
	if !IsTransientPG(&pgconn.PgError{Code: "40001"}) {
		t.Fatalf("serialization failure should be transient")
	}
	if !IsTransientPG(fmt.Errorf("wrapped: %w", &pq.Error{Code: "40P01"})) {
		t.Fatalf("deadlock should be transient")
	}
	if IsTransientPG(&pgconn.PgError{Code: "23505"}) {
		t.Fatalf("unique violation is not transient")
	}
	if IsTransientPG(nil) {
		t.Fatalf("nil is not transient")
	}
}
