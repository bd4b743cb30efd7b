package catalog

import "fmt"

// ServiceError carries a stable "<operation>.<reason>" code alongside the cause.
type ServiceError struct {
	code string
	err  error
}

func (e *ServiceError) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *ServiceError) Unwrap() error {
	return e.err
}

// Code returns the stable error code.
func (e *ServiceError) Code() string {
	return e.code
}

const (
	opList         = "catalog.list"
	opUpdateStatus = "catalog.update_status"
	opDelete       = "catalog.delete"
	opCreate       = "catalog.create"
	opOwner        = "catalog.owner"

	reasonUnknownEntity  = "unknown_entity"
	reasonQueryFailed    = "query_failed"
	reasonNotFound       = "not_found"
	reasonRequestFailed  = "request_failed"
	reasonUpstreamFailed = "upstream_failed"
	reasonDecodeFailed   = "decode_failed"
	reasonInvalidStatus  = "invalid_status"
	reasonInsertFailed   = "insert_failed"
)

func newServiceError(operation, reason string, cause error) error {
	return &ServiceError{code: operation + "." + reason, err: cause}
}
