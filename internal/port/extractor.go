package port

// Extractor turns raw uploaded file bytes into plain text.
type Extractor interface {
	// Extract returns the plain text content of the named file.
	// Files with no extractable text return ErrNoText from the
	// extract package rather than empty output.
	Extract(name string, data []byte) (string, error)
}
