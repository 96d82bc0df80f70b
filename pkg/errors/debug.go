package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// ErrorDump is a log-only view of an error chain. It is never written to clients.
type ErrorDump struct {
	TopMessage string
	Code       Code
	Chain      []string
	PG         *PGDetails
}

// PGDetails holds the server fields of a postgres error from either driver.
type PGDetails struct {
	Code       string
	Constraint string
	Table      string
	Detail     string
	Message    string
}

// maxChain bounds the walk over joined error trees.
const maxChain = 16

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}
	d := ErrorDump{TopMessage: err.Error(), PG: pgDetails(err)}
	if typed := As(err); typed != nil {
		d.Code = typed.Code()
	}
	walk(err, func(e error) bool {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
		return len(d.Chain) < maxChain
	})
	return d
}

// walk visits err and its causes depth first, following joined errors.
func walk(err error, visit func(error) bool) bool {
	if err == nil {
		return true
	}
	if !visit(err) {
		return false
	}
	switch e := err.(type) {
	case interface{ Unwrap() []error }:
		for _, inner := range e.Unwrap() {
			if !walk(inner, visit) {
				return false
			}
		}
		return true
	case interface{ Unwrap() error }:
		return walk(e.Unwrap(), visit)
	}
	return true
}

func pgDetails(err error) *PGDetails {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return &PGDetails{
			Code:       pgxErr.Code,
			Constraint: pgxErr.ConstraintName,
			Table:      pgxErr.TableName,
			Detail:     pgxErr.Detail,
			Message:    pgxErr.Message,
		}
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return &PGDetails{
			Code:       string(pqErr.Code),
			Constraint: pqErr.Constraint,
			Table:      pqErr.Table,
			Detail:     pqErr.Detail,
			Message:    pqErr.Message,
		}
	}
	return nil
}

// Fields flattens the chain and postgres details for structured loggers.
// The code is left to the logger, which reports it on error lines.
func (d ErrorDump) Fields() map[string]any {
	fields := map[string]any{"error_chain": d.Chain}
	if d.PG != nil {
		fields["pg_code"] = d.PG.Code
		fields["pg_constraint"] = d.PG.Constraint
		fields["pg_table"] = d.PG.Table
		fields["pg_detail"] = d.PG.Detail
		fields["pg_message"] = d.PG.Message
	}
	return fields
}
