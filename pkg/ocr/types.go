package ocr

import "context"

// Result is the outcome of recognizing one scanned answer sheet.
type Result struct {
	// Text is the recovered plain text, including numbering and blank lines.
	Text string
	// Confidence is the mean word confidence in [0,1].
	Confidence float64
}

// Recognizer converts raw document bytes into plain text plus a confidence
// scalar. Implementations wrap external OCR capabilities; callers are expected
// to catch failures and route them into the submission lifecycle.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte) (Result, error)
}
