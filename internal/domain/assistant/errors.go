package assistant

import "errors"

// Domain errors for knowledge base construction

var (
	ErrEmptyKey       = errors.New("knowledge base key must not be empty")
	ErrDuplicateKey   = errors.New("knowledge base key already exists in section")
	ErrEmptySentences = errors.New("knowledge base entry must have at least one sentence")
)
