package workflow

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"filmdex/internal/schema"
)

type stubPersons struct {
	url string
	err error
}

func (s *stubPersons) PersonImageURL(_ context.Context, _ int64) (string, error) {
	return s.url, s.err
}

type stubImageSearch struct {
	links []string
	err   error
	query string
}

func (s *stubImageSearch) Search(_ context.Context, query string, _ int) ([]string, error) {
	s.query = query
	return s.links, s.err
}

func imageServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/portrait.jpg", "/fallback.png":
			w.Write([]byte("imagedata"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestAssignImagesFromPrimaryProvider(t *testing.T) {
	server := imageServer(t)
	dir := t.TempDir()
	fetcher := NewImageFetcher(&stubPersons{url: server.URL + "/portrait.jpg"}, nil, dir, 3, nil)

	roster := []schema.CharacterListItem{{Name: "Jane", TMDBPersonID: 11}}
	fetcher.AssignImages(context.Background(), "Example Film", roster)
	if roster[0].ImageFile != "example_film_jane.jpg" {
		t.Fatalf("image_file = %q", roster[0].ImageFile)
	}
	body, err := os.ReadFile(filepath.Join(dir, roster[0].ImageFile))
	if err != nil {
		t.Fatalf("read downloaded image: %v", err)
	}
	if string(body) != "imagedata" {
		t.Fatalf("downloaded body = %q", body)
	}
	leftovers, _ := filepath.Glob(filepath.Join(dir, "*.tmp"))
	if len(leftovers) != 0 {
		t.Fatalf("temp files left behind: %v", leftovers)
	}
}

func TestAssignImagesFallsBackToSearch(t *testing.T) {
	server := imageServer(t)
	dir := t.TempDir()
	search := &stubImageSearch{links: []string{server.URL + "/missing.jpg", server.URL + "/fallback.png"}}
	fetcher := NewImageFetcher(&stubPersons{err: errors.New("no profile")}, search, dir, 3, nil)

	roster := []schema.CharacterListItem{{Name: "Mark", TMDBPersonID: 22}}
	fetcher.AssignImages(context.Background(), "Example Film", roster)
	if roster[0].ImageFile != "example_film_mark.png" {
		t.Fatalf("image_file = %q", roster[0].ImageFile)
	}
	if search.query != "Example Film Mark character" {
		t.Fatalf("search query = %q", search.query)
	}
}

func TestAssignImagesLeavesFieldEmptyOnTotalFailure(t *testing.T) {
	dir := t.TempDir()
	search := &stubImageSearch{err: errors.New("search down")}
	fetcher := NewImageFetcher(&stubPersons{err: errors.New("no profile")}, search, dir, 3, nil)

	roster := []schema.CharacterListItem{{Name: "Jane", TMDBPersonID: 11}}
	fetcher.AssignImages(context.Background(), "Example Film", roster)
	if roster[0].ImageFile != "" {
		t.Fatalf("image_file should stay empty, got %q", roster[0].ImageFile)
	}
}

func TestAssignImagesSkipsExistingFiles(t *testing.T) {
	persons := &stubPersons{err: errors.New("should not be called")}
	fetcher := NewImageFetcher(persons, nil, t.TempDir(), 3, nil)

	roster := []schema.CharacterListItem{{Name: "Jane", TMDBPersonID: 11, ImageFile: "already.jpg"}}
	fetcher.AssignImages(context.Background(), "Example Film", roster)
	if roster[0].ImageFile != "already.jpg" {
		t.Fatalf("existing image_file overwritten: %q", roster[0].ImageFile)
	}
}

func TestSanitizeFileName(t *testing.T) {
	cases := map[string]string{
		"Example Film_Jane":   "example_film_jane",
		"  Léon: The Pro  ":   "l_on__the_pro",
		"___already_clean___": "already_clean",
	}
	for in, want := range cases {
		if got := sanitizeFileName(in); got != want {
			t.Fatalf("sanitizeFileName(%q) = %q, want %q", in, got, want)
		}
	}
}
