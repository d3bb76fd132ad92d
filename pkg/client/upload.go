package client

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"sort"
)

// File is a file part of a multipart upload.
type File struct {
	Field    string
	Filename string
	Content  []byte
}

// doMultipart sends fields plus one file as multipart/form-data.
func (c *Client) doMultipart(ctx context.Context, method, rawURL string, fields map[string]string, file File, target interface{}) (string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := w.WriteField(k, fields[k]); err != nil {
			return "", fmt.Errorf("write form field %s: %w", k, err)
		}
	}

	part, err := w.CreateFormFile(file.Field, file.Filename)
	if err != nil {
		return "", fmt.Errorf("create form file %s: %w", file.Field, err)
	}
	if _, err := part.Write(file.Content); err != nil {
		return "", fmt.Errorf("write form file %s: %w", file.Field, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("close multipart body: %w", err)
	}

	req, err := c.newRequest(ctx, method, rawURL, &buf, w.FormDataContentType())
	if err != nil {
		return "", err
	}
	return c.send(req, target)
}
