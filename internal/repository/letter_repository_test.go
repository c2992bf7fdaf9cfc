package repository

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"suratku-server/internal/domain"

	"github.com/go-kivik/kivik/v4"
	_ "github.com/go-kivik/kivik/v4/couchdb"
)

// fakeLetterCouch answers POST /{db}/_find over a fixed set of letters.
type fakeLetterCouch struct {
	mu      sync.Mutex
	letters []domain.Letter
	limits  []int
}

func (f *fakeLetterCouch) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if r.Method != http.MethodPost || !strings.HasSuffix(r.URL.Path, "/_find") {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	var body io.Reader = r.Body
	if r.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer gz.Close()
		body = gz
	}

	var q struct {
		Selector struct {
			InstitutionID string `json:"institution_id"`
		} `json:"selector"`
		Limit    int    `json:"limit"`
		Bookmark string `json:"bookmark"`
	}
	if err := json.NewDecoder(body).Decode(&q); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	f.limits = append(f.limits, q.Limit)

	var matched []domain.Letter
	for _, l := range f.letters {
		if q.Selector.InstitutionID == "" || l.InstitutionID == q.Selector.InstitutionID {
			matched = append(matched, l)
		}
	}
	page, next := couchPage(matched, q.Limit, q.Bookmark)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"docs": page, "bookmark": next})
}

func TestLetterRepository_ListAllPages(t *testing.T) {
	couch := &fakeLetterCouch{}
	base := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	const total = 450
	for i := 0; i < total; i++ {
		couch.letters = append(couch.letters, domain.Letter{
			ID:            fmt.Sprintf("L%d", i),
			InstitutionID: "inst-1",
			LetterNumber:  fmt.Sprintf("SK-%d", i),
			CreatedAt:     base.Add(time.Duration(i) * time.Minute),
		})
	}
	couch.letters = append(couch.letters, domain.Letter{ID: "other", InstitutionID: "inst-2", LetterNumber: "SK-X", CreatedAt: base})

	srv := httptest.NewServer(couch)
	defer srv.Close()

	client, err := kivik.New("couch", srv.URL)
	if err != nil {
		t.Fatalf("kivik.New() error = %v", err)
	}
	repo := NewLetterRepository(client, "suratku")

	letters, err := repo.List(context.Background(), "inst-1")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	if len(letters) != total {
		t.Fatalf("List() returned %d letters, want %d", len(letters), total)
	}
	if letters[0].ID != fmt.Sprintf("L%d", total-1) {
		t.Errorf("first letter = %s, want newest", letters[0].ID)
	}
	for _, limit := range couch.limits {
		if limit != findPageSize {
			t.Errorf("_find sent limit %d, want %d", limit, findPageSize)
		}
	}
	if len(couch.limits) < 3 {
		t.Errorf("List() made %d _find requests, want one per page", len(couch.limits))
	}
}
