package service

import "errors"

var (
	ErrNoIntermediateResult  = errors.New("no intermediate result for document")
	ErrViewProcessingFailure = errors.New("view processing failed")
	ErrDocumentNotFound      = errors.New("document not found")
	ErrViewNotReady          = errors.New("view result not available yet")
	ErrProcessingTimeout     = errors.New("document processing timed out")
)
