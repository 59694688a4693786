package document

import "errors"

var (
	ErrSchemaValidation     = errors.New("schema_validation_failed")
	ErrMalformedContent     = errors.New("malformed_content")
	ErrInconsistentGrouping = errors.New("inconsistent_grouping")
	ErrEmptyBundle          = errors.New("empty_bundle")
)
