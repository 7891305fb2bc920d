package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
)

// UploadedFile is one stored image as the API reports it.
type UploadedFile struct {
	Filename string `json:"filename"`
	Path     string `json:"path"` // relative path, e.g. "uploads/<name>.jpg"
}

// UploadEvent is one element of an upload's progress sequence. Progress
// events carry a Percent in [0,100]; the final event has Done set and
// carries either Files or Err. After the terminal event the channel is
// closed.
type UploadEvent struct {
	Percent int
	Done    bool
	Files   []UploadedFile
	Err     error
}

// progressReader wraps the request body and reports each whole-percent
// step of bytes consumed by the transport.
type progressReader struct {
	r       io.Reader
	total   int64
	read    int64
	lastPct int
	emit    func(pct int)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 && p.total > 0 {
		p.read += int64(n)
		pct := int(p.read * 100 / p.total)
		if pct > 100 {
			pct = 100
		}
		if pct > p.lastPct {
			p.lastPct = pct
			p.emit(pct)
		}
	}
	return n, err
}

// UploadAvatar uploads a single profile image and streams progress events.
// The returned channel yields zero or more progress events followed by
// exactly one terminal event, then closes. Cancelling ctx aborts the
// request; the terminal event then carries the context error.
func (c *Client) UploadAvatar(ctx context.Context, filename string, content io.Reader) <-chan UploadEvent {
	return c.upload(ctx, "/api/auth/upload", func(w *multipart.Writer) error {
		part, err := w.CreateFormFile("file", filename)
		if err != nil {
			return err
		}
		_, err = io.Copy(part, content)
		return err
	}, func(raw json.RawMessage) ([]UploadedFile, error) {
		var payload UploadedFile
		if err := json.Unmarshal(raw, &payload); err != nil || payload.Path == "" {
			return nil, &APIError{Message: genericErrorMessage}
		}
		return []UploadedFile{payload}, nil
	})
}

// NamedReader pairs an image's original filename with its content for a
// batch upload.
type NamedReader struct {
	Name    string
	Content io.Reader
}

// UploadListingImages uploads up to six listing images in one batch and
// streams progress events. Like UploadAvatar, the channel ends with one
// terminal event and is then closed.
func (c *Client) UploadListingImages(ctx context.Context, images []NamedReader) <-chan UploadEvent {
	return c.upload(ctx, "/api/listing/upload", func(w *multipart.Writer) error {
		for _, img := range images {
			part, err := w.CreateFormFile("images", img.Name)
			if err != nil {
				return err
			}
			if _, err := io.Copy(part, img.Content); err != nil {
				return err
			}
		}
		return nil
	}, func(raw json.RawMessage) ([]UploadedFile, error) {
		var payload struct {
			Files []UploadedFile `json:"files"`
		}
		if err := json.Unmarshal(raw, &payload); err != nil || len(payload.Files) == 0 {
			return nil, &APIError{Message: genericErrorMessage}
		}
		return payload.Files, nil
	})
}

// upload builds the multipart body up front (so total size is known for
// percent math), then streams it through a progressReader. Events are
// produced by a single goroutine; the channel is buffered enough that a
// slow consumer never stalls the transport.
func (c *Client) upload(
	ctx context.Context,
	path string,
	writeParts func(*multipart.Writer) error,
	parse func(json.RawMessage) ([]UploadedFile, error),
) <-chan UploadEvent {
	events := make(chan UploadEvent, 128)

	go func() {
		defer close(events)

		finish := func(files []UploadedFile, err error) {
			pct := 100
			if err != nil {
				pct = 0
			}
			events <- UploadEvent{Percent: pct, Done: true, Files: files, Err: err}
		}

		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		if err := writeParts(mw); err != nil {
			finish(nil, &APIError{Message: genericErrorMessage})
			return
		}
		if err := mw.Close(); err != nil {
			finish(nil, &APIError{Message: genericErrorMessage})
			return
		}

		pr := &progressReader{
			r:     &body,
			total: int64(body.Len()),
			emit: func(pct int) {
				if pct < 100 {
					select {
					case events <- UploadEvent{Percent: pct}:
					default:
					}
				}
			},
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, pr)
		if err != nil {
			finish(nil, &APIError{Message: genericErrorMessage})
			return
		}
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.ContentLength = pr.total

		resp, err := c.httpc.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				finish(nil, ctx.Err())
				return
			}
			finish(nil, &APIError{Message: genericErrorMessage})
			return
		}
		defer resp.Body.Close()

		var raw json.RawMessage
		if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
			raw = nil
		}

		var env envelope
		if raw != nil {
			_ = json.Unmarshal(raw, &env)
		}
		ok := resp.StatusCode >= 200 && resp.StatusCode < 300
		if !ok || (env.Success != nil && !*env.Success) {
			message := env.Message
			if message == "" {
				message = genericErrorMessage
			}
			finish(nil, &APIError{Status: resp.StatusCode, Message: message})
			return
		}

		files, err := parse(raw)
		if err != nil {
			finish(nil, err)
			return
		}
		finish(files, nil)
	}()

	return events
}
