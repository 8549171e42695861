package auth

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestMapUserConflict(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want error
	}{
		{
			name: "email unique violation",
			err:  &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"},
			want: ErrEmailExists,
		},
		{
			name: "phone unique violation",
			err:  &pgconn.PgError{Code: "23505", ConstraintName: "users_phone_key"},
			want: ErrPhoneExists,
		},
		{
			name: "wrapped unique violation",
			err:  fmt.Errorf("exec insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}),
			want: ErrEmailExists,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := mapUserConflict(tc.err); !errors.Is(got, tc.want) {
				t.Errorf("mapUserConflict(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}

	// Anything that is not a uniqueness conflict passes through untouched.
	plain := errors.New("connection reset")
	if got := mapUserConflict(plain); got != plain {
		t.Errorf("mapUserConflict(plain) = %v, want the original error", got)
	}
	notUnique := &pgconn.PgError{Code: "23503"}
	if got := mapUserConflict(notUnique); !errors.As(got, new(*pgconn.PgError)) || errors.Is(got, ErrEmailExists) {
		t.Errorf("mapUserConflict(23503) = %v, want the original pg error", got)
	}
}
