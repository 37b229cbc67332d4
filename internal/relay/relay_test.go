package relay

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// fakeStore records uploads and can be forced to fail.
type fakeStore struct {
	uploadErr error
	urlErr    error
	uploads   map[string][]byte
	lastKey   string
}

func newFakeStore() *fakeStore {
	return &fakeStore{uploads: map[string][]byte{}}
}

func (f *fakeStore) Upload(ctx context.Context, key string, data io.Reader, contentType string, contentLength int64) error {
	if f.uploadErr != nil {
		return f.uploadErr
	}
	body, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.uploads[key] = body
	f.lastKey = key
	return nil
}

func (f *fakeStore) ObjectURL(ctx context.Context, key string) (string, error) {
	if f.urlErr != nil {
		return "", f.urlErr
	}
	return "https://cdn.example.com/" + key, nil
}

func newTestRelay(store *fakeStore) *Relay {
	r := New(store, 5*time.Second)
	r.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return r
}

func TestRehost_URLShape_UploadsAndReturnsStorageURL(t *testing.T) {
	audio := []byte("fake mp3 bytes")
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(audio)
	}))
	defer upstream.Close()

	store := newFakeStore()
	res := newTestRelay(store).Rehost(context.Background(), upstream.URL, "", "mp3")

	if res.AudioURL == nil {
		t.Fatal("expected storage URL, got nil")
	}
	want := "https://cdn.example.com/generated/music_1700000000000.mp3"
	if *res.AudioURL != want {
		t.Errorf("audio URL = %q, want %q", *res.AudioURL, want)
	}
	if res.AudioHex != nil {
		t.Errorf("expected nil hex for URL shape, got %q", *res.AudioHex)
	}
	if !bytes.Equal(store.uploads[store.lastKey], audio) {
		t.Error("uploaded bytes do not match fetched bytes")
	}
}

func TestRehost_URLShape_FetchFails_KeepsOriginalURL(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer upstream.Close()

	store := newFakeStore()
	res := newTestRelay(store).Rehost(context.Background(), upstream.URL, "", "mp3")

	if res.AudioURL == nil || *res.AudioURL != upstream.URL {
		t.Fatalf("expected original URL %q back, got %v", upstream.URL, res.AudioURL)
	}
	if len(store.uploads) != 0 {
		t.Error("expected no upload after failed fetch")
	}
}

func TestRehost_URLShape_UploadFails_KeepsOriginalURL(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("audio"))
	}))
	defer upstream.Close()

	store := newFakeStore()
	store.uploadErr = errors.New("bucket unavailable")
	res := newTestRelay(store).Rehost(context.Background(), upstream.URL, "", "mp3")

	if res.AudioURL == nil || *res.AudioURL != upstream.URL {
		t.Fatalf("expected original URL %q back, got %v", upstream.URL, res.AudioURL)
	}
}

func TestRehost_HexShape_UploadsDecodedBytes(t *testing.T) {
	raw := []byte{0x49, 0x44, 0x33, 0x04, 0x00}
	audioHex := hex.EncodeToString(raw)

	store := newFakeStore()
	res := newTestRelay(store).Rehost(context.Background(), "", audioHex, "mp3")

	if res.AudioURL == nil {
		t.Fatal("expected storage URL, got nil")
	}
	if res.AudioHex == nil || *res.AudioHex != audioHex {
		t.Fatalf("expected hex payload preserved, got %v", res.AudioHex)
	}

	uploaded := store.uploads[store.lastKey]
	if len(uploaded) != len(audioHex)/2 {
		t.Errorf("decoded length = %d, want %d", len(uploaded), len(audioHex)/2)
	}
	// Round-trip law: re-encoding the uploaded bytes reproduces the input hex
	if hex.EncodeToString(uploaded) != audioHex {
		t.Error("re-encoded upload does not reproduce original hex")
	}
}

func TestRehost_HexShape_UploadFails_PreservesHexOnly(t *testing.T) {
	audioHex := hex.EncodeToString([]byte("wav data"))

	store := newFakeStore()
	store.uploadErr = errors.New("bucket unavailable")
	res := newTestRelay(store).Rehost(context.Background(), "", audioHex, "wav")

	if res.AudioURL != nil {
		t.Errorf("expected nil URL after failed upload, got %q", *res.AudioURL)
	}
	if res.AudioHex == nil || *res.AudioHex != audioHex {
		t.Fatal("expected hex payload preserved after failed upload")
	}
}

func TestRehost_InvalidHex_PreservesPayload(t *testing.T) {
	store := newFakeStore()
	res := newTestRelay(store).Rehost(context.Background(), "", "not hex at all", "mp3")

	if res.AudioURL != nil {
		t.Error("expected nil URL for invalid hex")
	}
	if res.AudioHex == nil || *res.AudioHex != "not hex at all" {
		t.Error("expected invalid payload preserved")
	}
	if len(store.uploads) != 0 {
		t.Error("expected no upload for invalid hex")
	}
}

func TestRehost_BothShapes_URLWins(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("from url"))
	}))
	defer upstream.Close()

	store := newFakeStore()
	audioHex := hex.EncodeToString([]byte("from hex"))
	res := newTestRelay(store).Rehost(context.Background(), upstream.URL, audioHex, "mp3")

	if res.AudioHex != nil {
		t.Error("expected inline bytes ignored when a URL is present")
	}
	if got := store.uploads[store.lastKey]; string(got) != "from url" {
		t.Errorf("uploaded %q, want bytes fetched from URL", got)
	}
}

func TestRehost_NoAudio_EmptyResult(t *testing.T) {
	res := newTestRelay(newFakeStore()).Rehost(context.Background(), "", "", "mp3")
	if res.AudioURL != nil || res.AudioHex != nil {
		t.Errorf("expected empty result, got %+v", res)
	}
}

func TestRehost_KeyUsesFormatExtension(t *testing.T) {
	store := newFakeStore()
	newTestRelay(store).Rehost(context.Background(), "", hex.EncodeToString([]byte("x")), "wav")

	want := fmt.Sprintf("generated/music_%d.wav", int64(1700000000000))
	if store.lastKey != want {
		t.Errorf("storage key = %q, want %q", store.lastKey, want)
	}
}
