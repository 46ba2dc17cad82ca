package model

// ExtractionRequest describes one EML file to process and where its
// attachments should end up. Immutable once issued.
type ExtractionRequest struct {
	SourcePath       string
	OutputRoot       string
	SubjectSubfolder bool
	ClassifyByType   bool
}

// ExtractionResult is the outcome of one ExtractionRequest. WrittenPaths
// holds the output files in traversal order; on error it is empty, but
// attachments already written before the failure remain on disk.
type ExtractionResult struct {
	WrittenPaths []string
	Skipped      int
	Err          error
}

// Failed reports whether the request ended with an error.
func (r ExtractionResult) Failed() bool {
	return r.Err != nil
}

// AttachmentCount returns the number of files written for this request.
func (r ExtractionResult) AttachmentCount() int {
	return len(r.WrittenPaths)
}
