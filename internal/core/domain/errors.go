package domain

import "fmt"

// ConnectionError reports a request that kept failing after all retry
// attempts were spent.
type ConnectionError struct {
	Err      error
	URL      string
	Attempts int
}

func (e *ConnectionError) Error() string {
	if e.Attempts > 0 {
		return fmt.Sprintf("still failed after %d tries, giving up %s: %v", e.Attempts, e.URL, e.Err)
	}
	return fmt.Sprintf("connection failed for %s: %v", e.URL, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// ValidationError reports a value that does not satisfy its format rules.
type ValidationError struct {
	Field  string
	Value  interface{}
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s=%v: %s", e.Field, e.Value, e.Reason)
}

// LookupError reports a store or registry query without a usable result.
type LookupError struct {
	Err  error
	What string
	Key  string
}

func (e *LookupError) Error() string {
	msg := fmt.Sprintf("no %s found", e.What)
	if e.Key != "" {
		msg = fmt.Sprintf("%s for %q", msg, e.Key)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

// StorageError reports a failed document or file store operation.
type StorageError struct {
	Err       error
	Operation string
	Path      string
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s failed for store %s: %v", e.Operation, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func NewConnectionError(url string, attempts int, err error) *ConnectionError {
	return &ConnectionError{
		URL:      url,
		Attempts: attempts,
		Err:      err,
	}
}

func NewValidationError(field string, value interface{}, reason string) *ValidationError {
	return &ValidationError{
		Field:  field,
		Value:  value,
		Reason: reason,
	}
}

func NewLookupError(what, key string, err error) *LookupError {
	return &LookupError{
		What: what,
		Key:  key,
		Err:  err,
	}
}

func NewStorageError(operation, path string, err error) *StorageError {
	return &StorageError{
		Operation: operation,
		Path:      path,
		Err:       err,
	}
}
