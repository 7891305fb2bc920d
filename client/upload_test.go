package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"
)

// drain collects all events until the channel closes, asserting the
// contract: zero or more progress events, then exactly one terminal event.
func drain(t *testing.T, events <-chan UploadEvent) (progress []int, terminal UploadEvent) {
	t.Helper()
	sawTerminal := false
	for ev := range events {
		if sawTerminal {
			t.Fatal("event received after the terminal event")
		}
		if ev.Done {
			sawTerminal = true
			terminal = ev
			continue
		}
		progress = append(progress, ev.Percent)
	}
	if !sawTerminal {
		t.Fatal("channel closed without a terminal event")
	}
	return progress, terminal
}

func TestUploadAvatar(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/upload", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(8 << 20); err != nil {
			t.Fatalf("parsing multipart body: %v", err)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("reading file part: %v", err)
		}
		defer file.Close()
		if header.Filename != "me.png" {
			t.Errorf("filename = %q", header.Filename)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"success":  true,
			"message":  "File uploaded successfully!",
			"filename": "crk3abc0.png",
			"path":     "uploads/crk3abc0.png",
		})
	})

	api, _ := newTestClient(t, mux)

	content := bytes.Repeat([]byte{0xAB}, 256<<10)
	events := api.UploadAvatar(context.Background(), "me.png", bytes.NewReader(content))

	progress, terminal := drain(t, events)
	if terminal.Err != nil {
		t.Fatalf("terminal.Err = %v", terminal.Err)
	}
	if len(terminal.Files) != 1 || terminal.Files[0].Path != "uploads/crk3abc0.png" {
		t.Errorf("terminal.Files = %+v", terminal.Files)
	}
	if terminal.Percent != 100 {
		t.Errorf("terminal.Percent = %d, want 100", terminal.Percent)
	}

	last := -1
	for _, pct := range progress {
		if pct <= last {
			t.Fatalf("progress not strictly increasing: %v", progress)
		}
		if pct < 0 || pct > 100 {
			t.Fatalf("progress out of range: %d", pct)
		}
		last = pct
	}
}

func TestUploadListingImages(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/listing/upload", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(8 << 20); err != nil {
			t.Fatalf("parsing multipart body: %v", err)
		}
		headers := r.MultipartForm.File["images"]
		if len(headers) != 2 {
			t.Fatalf("got %d image parts, want 2", len(headers))
		}
		files := make([]UploadedFile, len(headers))
		for i, h := range headers {
			files[i] = UploadedFile{Filename: h.Filename, Path: "uploads/" + h.Filename}
		}
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"message": "Images uploaded successfully!",
			"files":   files,
		})
	})

	api, _ := newTestClient(t, mux)

	events := api.UploadListingImages(context.Background(), []NamedReader{
		{Name: "front.jpg", Content: bytes.NewReader(bytes.Repeat([]byte{1}, 64<<10))},
		{Name: "back.jpg", Content: bytes.NewReader(bytes.Repeat([]byte{2}, 64<<10))},
	})

	_, terminal := drain(t, events)
	if terminal.Err != nil {
		t.Fatalf("terminal.Err = %v", terminal.Err)
	}
	if len(terminal.Files) != 2 {
		t.Fatalf("got %d files, want 2", len(terminal.Files))
	}
	// Slot order must match the order the images were handed in.
	if terminal.Files[0].Filename != "front.jpg" || terminal.Files[1].Filename != "back.jpg" {
		t.Errorf("files out of order: %+v", terminal.Files)
	}
}

func TestUploadRejected_TerminalCarriesServerMessage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/upload", func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"message": "File type not supported or upload failed.",
		})
	})

	api, _ := newTestClient(t, mux)

	events := api.UploadAvatar(context.Background(), "evil.exe", bytes.NewReader([]byte("MZ")))
	_, terminal := drain(t, events)
	if terminal.Err == nil {
		t.Fatal("terminal.Err = nil, want rejection")
	}
	apiErr, ok := terminal.Err.(*APIError)
	if !ok {
		t.Fatalf("error type = %T, want *APIError", terminal.Err)
	}
	if apiErr.Message != "File type not supported or upload failed." {
		t.Errorf("message = %q", apiErr.Message)
	}
	if terminal.Files != nil {
		t.Error("terminal.Files set on a failed upload")
	}
}

func TestUploadCancelled(t *testing.T) {
	api, _ := newTestClient(t, http.NewServeMux())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	events := api.UploadAvatar(ctx, "me.png", bytes.NewReader(bytes.Repeat([]byte{0}, 1<<20)))
	_, terminal := drain(t, events)
	if terminal.Err == nil {
		t.Fatal("terminal.Err = nil, want cancellation")
	}
}
