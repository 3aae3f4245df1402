package engine

import (
	"errors"
	"fmt"
)

type DataAccessErrorKind string

const (
	DataAccessQueryFailed    DataAccessErrorKind = "query_failed"
	DataAccessInvalidQuery   DataAccessErrorKind = "invalid_query"
	DataAccessDecodeFailed   DataAccessErrorKind = "decode_failed"
	DataAccessConnectionLost DataAccessErrorKind = "connection_lost"
)

// DataAccessError is reported for a rule whose query or row decoding failed.
// The run continues with the remaining rules.
type DataAccessError struct {
	Kind DataAccessErrorKind
	Rule string
	Err  error
}

func (e DataAccessError) Error() string {
	prefix := "data access error"
	if e.Rule != "" {
		prefix = e.Rule + ": " + prefix
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", prefix, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", prefix, e.Kind, e.Err)
}

func (e DataAccessError) Unwrap() error { return e.Err }

func asDataAccessError(err error) (DataAccessError, bool) {
	if err == nil {
		return DataAccessError{}, false
	}
	var de DataAccessError
	if errors.As(err, &de) {
		return de, true
	}
	return DataAccessError{}, false
}

// ConnectionError means the data source was unreachable before any rule ran.
type ConnectionError struct {
	Err error
}

func (e ConnectionError) Error() string {
	if e.Err == nil {
		return "connection error"
	}
	return fmt.Sprintf("connection error: %v", e.Err)
}

func (e ConnectionError) Unwrap() error { return e.Err }

// AuditWriteError means a single finding could not be appended to the audit log.
type AuditWriteError struct {
	CheckType string
	RecordID  string
	Err       error
}

func (e AuditWriteError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("audit write failed for %s record %s", e.CheckType, e.RecordID)
	}
	return fmt.Sprintf("audit write failed for %s record %s: %v", e.CheckType, e.RecordID, e.Err)
}

func (e AuditWriteError) Unwrap() error { return e.Err }

// DecodeError wraps a column conversion failure as a DataAccessError.
func DecodeError(column string, err error) error {
	return DataAccessError{Kind: DataAccessDecodeFailed, Err: fmt.Errorf("column %q: %w", column, err)}
}
