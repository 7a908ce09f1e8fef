package upload

import "io"

// ProgressFunc is called while a file is sent.
// It receives the source name and the number of bytes read so far.
type ProgressFunc func(name string, bytesUploaded int64)

// progressReader wraps an io.Reader to track upload progress
type progressReader struct {
	reader    io.Reader
	name      string
	bytesRead int64
	callback  ProgressFunc
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	pr.bytesRead += int64(n)
	if pr.callback != nil && n > 0 {
		pr.callback(pr.name, pr.bytesRead)
	}
	return n, err
}
