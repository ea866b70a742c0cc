package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

// PreflightResult is the response to a successful preflight check.
type PreflightResult struct {
	UploadURL string `json:"upload_url"`
}

// preflightRequest is the body of a preflight check.
type preflightRequest struct {
	Name   string       `json:"name"`
	Parent parentFolder `json:"parent"`
	Size   int64        `json:"size"`
}

type parentFolder struct {
	ID string `json:"id"`
}

// uploadAttributes is the JSON part of the multipart upload body.
type uploadAttributes struct {
	Name   string       `json:"name"`
	Parent parentFolder `json:"parent"`
}

// uploadResponse wraps the entries returned by a successful upload.
type uploadResponse struct {
	Entries []File `json:"entries"`
}

// UploadOptions carries per-upload parameters.
type UploadOptions struct {
	// FileName is the name to upload under.
	FileName string
	// FileID, when set, uploads the content as a new version of that file
	// instead of creating a new one.
	FileID string
	// ContentSHA1 is the hex SHA-1 digest of the content. Box expects it
	// in the Content-MD5 header despite the name. Optional.
	ContentSHA1 string
	// OnProgress is invoked after every chunk written to the wire.
	OnProgress func(uploaded, total int64)
}

// Preflight asks the server whether an upload would succeed (name
// availability, permissions, size limits) without transferring any bytes.
// A 409 conflict comes back as *Error with the conflicting file id populated.
func (c *Client) Preflight(ctx context.Context, name, folderID string, size int64, fileID string) (*PreflightResult, error) {
	url := c.baseAPIURL() + "/files/content"
	if fileID != "" {
		url = fmt.Sprintf("%s/files/%s/content", c.baseAPIURL(), fileID)
	}

	body, err := json.Marshal(preflightRequest{
		Name:   name,
		Parent: parentFolder{ID: folderID},
		Size:   size,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal preflight request: %w", err)
	}

	// resty refuses request bodies on OPTIONS, so this one goes out raw.
	req, err := http.NewRequestWithContext(ctx, http.MethodOptions, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create preflight request: %w", err)
	}
	c.applyHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("preflight request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read preflight response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, parseErrorResponse(resp.StatusCode, resp.Header, respBody)
	}

	var result PreflightResult
	if len(respBody) > 0 {
		if err := json.Unmarshal(respBody, &result); err != nil {
			return nil, fmt.Errorf("failed to decode preflight response: %w", err)
		}
	}

	return &result, nil
}

// UploadFile streams content as a multipart POST. The target is the
// preflight-provided uploadURL when non-empty, otherwise the default
// upload endpoint (or the versioned endpoint when opts.FileID is set).
// Cancelling ctx aborts the transfer.
func (c *Client) UploadFile(ctx context.Context, content io.Reader, size int64, folderID string, opts UploadOptions, uploadURL string) (*File, error) {
	if uploadURL == "" {
		uploadURL = c.baseUploadURL() + "/files/content"
		if opts.FileID != "" {
			uploadURL = fmt.Sprintf("%s/files/%s/content", c.baseUploadURL(), opts.FileID)
		}
	}

	attributes, err := json.Marshal(uploadAttributes{
		Name:   opts.FileName,
		Parent: parentFolder{ID: folderID},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal upload attributes: %w", err)
	}

	// Stream the multipart body through a pipe so large files never sit
	// fully in memory and progress ticks as bytes hit the wire.
	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)

	counted := &countingReader{r: content, total: size, onProgress: opts.OnProgress}

	go func() {
		var werr error
		defer func() { pw.CloseWithError(werr) }()

		if werr = writer.WriteField("attributes", string(attributes)); werr != nil {
			return
		}
		part, err := writer.CreateFormFile("file", opts.FileName)
		if err != nil {
			werr = err
			return
		}
		if _, werr = io.Copy(part, counted); werr != nil {
			return
		}
		werr = writer.Close()
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, pr)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload request: %w", err)
	}
	c.applyHeaders(req)
	// The multipart writer picks the boundary.
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if opts.ContentSHA1 != "" {
		req.Header.Set("Content-MD5", opts.ContentSHA1)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, parseErrorResponse(resp.StatusCode, resp.Header, respBody)
	}

	var result uploadResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to decode upload response: %w", err)
	}
	if len(result.Entries) == 0 {
		return nil, fmt.Errorf("upload response contained no entries")
	}

	return &result.Entries[0], nil
}

// countingReader reports cumulative read progress against a known total.
type countingReader struct {
	r          io.Reader
	read       int64
	total      int64
	onProgress func(uploaded, total int64)
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		c.read += int64(n)
		if c.onProgress != nil {
			c.onProgress(c.read, c.total)
		}
	}
	return n, err
}
