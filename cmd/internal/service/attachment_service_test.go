package service

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"linkednotes/cmd/internal/utils/apierror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newFileHeader builds a real multipart.FileHeader by parsing a generated form.
func newFileHeader(t *testing.T, filename string, data []byte) *multipart.FileHeader {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/attachments/upload", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))

	return req.MultipartForm.File["file"][0]
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestAttachmentService_UploadAndRetrieve(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, harnessOpts{})

	resp, apierr := h.attachments.Upload(ctx, nil, newFileHeader(t, "photo.png", pngHeader), nil)
	require.Nil(t, apierr)
	assert.Regexp(t, `^[0-9a-f]{32}_photo\.png$`, resp.Filename)

	data, contentType, apierr := h.attachments.Retrieve(ctx, nil, resp.Filename)
	require.Nil(t, apierr)
	assert.Equal(t, pngHeader, data)
	assert.Equal(t, "image/png", contentType)
}

func TestAttachmentService_SameNameTwice(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, harnessOpts{})

	first, apierr := h.attachments.Upload(ctx, nil, newFileHeader(t, "a.txt", []byte("one")), nil)
	require.Nil(t, apierr)
	second, apierr := h.attachments.Upload(ctx, nil, newFileHeader(t, "a.txt", []byte("two")), nil)
	require.Nil(t, apierr)
	assert.NotEqual(t, first.Filename, second.Filename)

	data, _, apierr := h.attachments.Retrieve(ctx, nil, first.Filename)
	require.Nil(t, apierr)
	assert.Equal(t, []byte("one"), data)
}

func TestAttachmentService_StripsDirectories(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, harnessOpts{})

	resp, apierr := h.attachments.Upload(ctx, nil, newFileHeader(t, `..\..\evil.txt`, []byte("x")), nil)
	require.Nil(t, apierr)
	assert.Regexp(t, `^[0-9a-f]{32}_evil\.txt$`, resp.Filename)
}

func TestAttachmentService_RetrieveTraversal(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, harnessOpts{})

	for _, name := range []string{"../notes.db", "..", "a/b", ""} {
		_, _, apierr := h.attachments.Retrieve(ctx, nil, name)
		assert.Equal(t, apierror.AttachmentNotFoundError, apierr, name)
	}
}

func TestAttachmentService_TooLarge(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, harnessOpts{maxBytes: 4})

	_, apierr := h.attachments.Upload(ctx, nil, newFileHeader(t, "big.bin", []byte("12345")), nil)
	require.NotNil(t, apierr)
	assert.Equal(t, apierror.KindPayloadTooLarge, apierr.Kind())
	assert.Equal(t, 413, apierr.Code())
}

func TestAttachmentService_NoteOwnership(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, harnessOpts{enforceOwnership: true})
	alice := h.register(t, "alice")
	bob := h.register(t, "bob")
	note := h.note(t, alice, "n", "")

	_, apierr := h.attachments.Upload(ctx, bob, newFileHeader(t, "x.txt", []byte("x")), &note.ID)
	assert.Equal(t, apierror.NoteNotFoundError, apierr)

	resp, apierr := h.attachments.Upload(ctx, alice, newFileHeader(t, "x.txt", []byte("x")), &note.ID)
	require.Nil(t, apierr)

	_, _, apierr = h.attachments.Retrieve(ctx, bob, resp.Filename)
	assert.Equal(t, apierror.AttachmentNotFoundError, apierr)

	list, apierr := h.attachments.GetNoteAttachments(ctx, alice, note.ID)
	require.Nil(t, apierr)
	require.Len(t, list, 1)
	assert.Equal(t, "x.txt", list[0].OriginalName)
	assert.Equal(t, int64(1), list[0].Size)

	_, apierr = h.attachments.GetNoteAttachments(ctx, bob, note.ID)
	assert.Equal(t, apierror.NoteNotFoundError, apierr)
}

func TestAttachmentService_SweepOrphans(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, harnessOpts{})
	note := h.note(t, nil, "n", "")

	kept, apierr := h.attachments.Upload(ctx, nil, newFileHeader(t, "keep.txt", []byte("k")), nil)
	require.Nil(t, apierr)
	doomed, apierr := h.attachments.Upload(ctx, nil, newFileHeader(t, "doomed.txt", []byte("d")), &note.ID)
	require.Nil(t, apierr)

	// A blob whose upload is still running must survive.
	h.attachments.track("pending.txt")
	require.NoError(t, h.blobs.Put(ctx, "pending.txt", []byte("p")))

	require.Nil(t, h.notes.DeleteNote(ctx, nil, note.ID))
	h.attachments.OrphanGrace = 0

	removed, err := h.attachments.SweepOrphans(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	assert.ElementsMatch(t, []string{kept.Filename, "pending.txt"}, blobNames(t, h))

	_, _, apierr = h.attachments.Retrieve(ctx, nil, doomed.Filename)
	assert.Equal(t, apierror.AttachmentNotFoundError, apierr)
}

func TestAttachmentService_SweepOrphansKeepsYoungBlobs(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, harnessOpts{})

	// Written by another instance that has not inserted its row yet.
	require.NoError(t, h.blobs.Put(ctx, "fresh.txt", []byte("f")))
	require.NoError(t, h.blobs.Put(ctx, "stale.txt", []byte("s")))

	old := time.Now().Add(-2 * DefaultOrphanGrace)
	require.NoError(t, os.Chtimes(filepath.Join(h.blobs.Dir(), "stale.txt"), old, old))

	removed, err := h.attachments.SweepOrphans(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Equal(t, []string{"fresh.txt"}, blobNames(t, h))
}

func blobNames(t *testing.T, h *harness) []string {
	t.Helper()

	blobs, err := h.blobs.List(context.Background())
	require.NoError(t, err)

	names := make([]string, 0, len(blobs))
	for _, b := range blobs {
		names = append(names, b.Name)
	}
	return names
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"photo.png", "photo.png", true},
		{"dir/photo.png", "photo.png", true},
		{`C:\Users\me\photo.png`, "photo.png", true},
		{"", "", false},
		{"..", "", false},
		{"/", "", false},
		{"dir/", "dir", true},
	}

	for _, tt := range tests {
		got, ok := SanitizeFilename(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
