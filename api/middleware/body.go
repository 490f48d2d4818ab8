package middleware

import (
	"bytes"
	"io"
	"net/http"
)

// readBody buffers the request body and puts a fresh reader back so the
// handler can decode it again. limit <= 0 reads everything.
func readBody(r *http.Request, limit int64) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	var src io.Reader = r.Body
	if limit > 0 {
		src = io.LimitReader(r.Body, limit)
	}
	body, err := io.ReadAll(src)
	if err != nil {
		return nil, err
	}
	r.Body = io.NopCloser(bytes.NewReader(body))
	return body, nil
}
