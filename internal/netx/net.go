// Package netx holds small HTTP helpers shared by the remote client and
// the collector.
package netx

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"
)

// Field is a plain form field of a multipart body.
type Field struct {
	Name  string
	Value string
}

// FilePart is the file section of a multipart body.
type FilePart struct {
	FieldName   string
	Filename    string
	ContentType string
	Data        []byte
}

// MultipartBody encodes file followed by fields as multipart/form-data and
// returns the body together with its Content-Type header value.
func MultipartBody(file FilePart, fields ...Field) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		escapeQuotes(file.FieldName), escapeQuotes(file.Filename)))
	ct := file.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	h.Set("Content-Type", ct)

	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(file.Data); err != nil {
		return nil, "", err
	}

	for _, f := range fields {
		if err := w.WriteField(f.Name, f.Value); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return body, w.FormDataContentType(), nil
}

// Reason returns the reason phrase of resp, e.g. "Internal Server Error".
// It falls back to the standard text for the code, then to "Unknown error".
func Reason(resp *http.Response) string {
	if r := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode))); r != "" {
		return r
	}
	if r := http.StatusText(resp.StatusCode); r != "" {
		return r
	}
	return "Unknown error"
}

// IsSuccess reports whether code is in the 2xx range.
func IsSuccess(code int) bool {
	return code >= 200 && code < 300
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
