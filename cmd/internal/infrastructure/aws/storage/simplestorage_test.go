package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"linkednotes/cmd/internal/infrastructure/blob"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBucket = "notes-test"

const listResponse = `<?xml version="1.0" encoding="UTF-8"?>
<ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">
  <Name>notes-test</Name>
  <Prefix>attachments/</Prefix>
  <KeyCount>3</KeyCount>
  <MaxKeys>1000</MaxKeys>
  <IsTruncated>false</IsTruncated>
  <Contents><Key>attachments/</Key><LastModified>2026-01-02T03:04:05.000Z</LastModified><Size>0</Size></Contents>
  <Contents><Key>attachments/abc_a.txt</Key><LastModified>2026-01-02T03:04:05.000Z</LastModified><Size>5</Size></Contents>
  <Contents><Key>attachments/def_b.png</Key><LastModified>2026-03-04T05:06:07.000Z</LastModified><Size>9</Size></Contents>
</ListBucketResult>`

const noSuchKeyResponse = `<?xml version="1.0" encoding="UTF-8"?>
<Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`

// fakeS3 answers the handful of path-style requests S3Store sends.
type fakeS3 struct {
	mu       sync.Mutex
	requests []string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)
	f.mu.Unlock()

	_, _ = io.Copy(io.Discard, r.Body)
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/"+testBucket && r.URL.Query().Get("list-type") == "2":
		w.Header().Set("Content-Type", "application/xml")
		_, _ = io.WriteString(w, listResponse)

	case r.Method == http.MethodGet && r.URL.Path == "/"+testBucket+"/attachments/abc_a.txt":
		w.Header().Set("Content-Type", "text/plain")
		_, _ = io.WriteString(w, "hello")

	case r.Method == http.MethodGet:
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, noSuchKeyResponse)

	case r.Method == http.MethodDelete:
		w.WriteHeader(http.StatusNoContent)

	default:
		w.WriteHeader(http.StatusOK)
	}
}

func (f *fakeS3) seen() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

func newTestStore(t *testing.T) (*S3Store, *fakeS3) {
	t.Helper()

	fake := &fakeS3{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client := s3.New(s3.Options{
		Region:       "us-east-2",
		BaseEndpoint: aws.String(srv.URL),
		UsePathStyle: true,
		Credentials:  aws.AnonymousCredentials{},
	})
	return &S3Store{bucket: testBucket, client: client}, fake
}

func TestS3Store_Get(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	data, err := store.Get(ctx, "abc_a.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)

	_, err = store.Get(ctx, "missing.txt")
	assert.ErrorIs(t, err, blob.ErrNotFound)
}

func TestS3Store_RejectsTraversal(t *testing.T) {
	ctx := context.Background()
	store, fake := newTestStore(t)

	_, err := store.Get(ctx, "../secret")
	assert.ErrorIs(t, err, blob.ErrNotFound)
	assert.ErrorIs(t, store.Put(ctx, "a/b", []byte("x")), blob.ErrInvalidName)
	assert.ErrorIs(t, store.Delete(ctx, ".."), blob.ErrInvalidName)
	assert.Empty(t, fake.seen())
}

func TestS3Store_List(t *testing.T) {
	store, _ := newTestStore(t)

	blobs, err := store.List(context.Background())
	require.NoError(t, err)

	// The bare prefix object is dropped.
	require.Len(t, blobs, 2)
	assert.Equal(t, "abc_a.txt", blobs[0].Name)
	assert.True(t, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC).Equal(blobs[0].ModTime))
	assert.Equal(t, "def_b.png", blobs[1].Name)
	assert.True(t, time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC).Equal(blobs[1].ModTime))
}

func TestS3Store_PutAndDeleteUsePrefix(t *testing.T) {
	ctx := context.Background()
	store, fake := newTestStore(t)

	require.NoError(t, store.Put(ctx, "abc_a.txt", []byte("hello")))
	require.NoError(t, store.Delete(ctx, "abc_a.txt"))

	assert.Equal(t, []string{
		"PUT /" + testBucket + "/attachments/abc_a.txt",
		"DELETE /" + testBucket + "/attachments/abc_a.txt",
	}, fake.seen())
}

func TestNewS3Store_RequiresBucket(t *testing.T) {
	_, err := NewS3Store(context.Background(), "us-east-2", "")
	assert.Error(t, err)
}
