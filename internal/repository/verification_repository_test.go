package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"suratku-server/internal/domain"
)

// fakeCouch accepts POST /db and POST /db/_find the way CouchDB does,
// including the default limit of 25 and bookmark paging.
type fakeCouch struct {
	mu    sync.Mutex
	docs  []verificationDoc
	fail  bool
	finds int
}

func (f *fakeCouch) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.fail {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/_find"):
		var q struct {
			Selector map[string]string `json:"selector"`
			Limit    int               `json:"limit"`
			Bookmark string            `json:"bookmark"`
		}
		json.NewDecoder(r.Body).Decode(&q)
		f.finds++

		var matched []verificationDoc
		for _, d := range f.docs {
			if d.Type == q.Selector["type"] && d.LetterID == q.Selector["letter_id"] {
				matched = append(matched, d)
			}
		}
		matched, next := couchPage(matched, q.Limit, q.Bookmark)
		json.NewEncoder(w).Encode(map[string]interface{}{"docs": matched, "bookmark": next})

	case r.Method == http.MethodPost:
		var d verificationDoc
		if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		d.ID = fmt.Sprintf("auto-%d", len(f.docs))
		f.docs = append(f.docs, d)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]interface{}{"ok": true, "id": d.ID, "rev": "1-x"})

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// couchPage applies a _find limit and bookmark. The bookmark is the offset
// of the next page.
func couchPage[T any](docs []T, limit int, bookmark string) ([]T, string) {
	if limit <= 0 {
		limit = 25
	}
	offset, _ := strconv.Atoi(bookmark)
	if offset > len(docs) {
		offset = len(docs)
	}
	end := offset + limit
	if end > len(docs) {
		end = len(docs)
	}
	return docs[offset:end], strconv.Itoa(end)
}

func TestVerificationRepository_AppendAndList(t *testing.T) {
	couch := &fakeCouch{}
	srv := httptest.NewServer(couch)
	defer srv.Close()

	repo := NewVerificationRepository(srv.URL+"/suratku", 5*time.Second)
	ctx := context.Background()
	base := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

	for i, valid := range []bool{true, false, true} {
		rec := &domain.VerificationRecord{
			LetterID:         "L1",
			VerificationHash: "abc",
			IsValid:          valid,
			VerifiedAt:       base.Add(time.Duration(i) * time.Minute),
		}
		if err := repo.Append(ctx, rec); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
		if rec.ID == "" {
			t.Error("Append() should record the server assigned id")
		}
	}
	repo.Append(ctx, &domain.VerificationRecord{LetterID: "L2", VerifiedAt: base})

	if couch.docs[0].Type != verificationDocType {
		t.Errorf("stored type = %q", couch.docs[0].Type)
	}

	records, err := repo.ListByLetter(ctx, "L1")
	if err != nil {
		t.Fatalf("ListByLetter() error = %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("ListByLetter() returned %d records, want 3", len(records))
	}
	if !records[0].VerifiedAt.Equal(base.Add(2 * time.Minute)) {
		t.Errorf("records not sorted newest first: %v", records[0].VerifiedAt)
	}
}

func TestVerificationRepository_AppendFailure(t *testing.T) {
	srv := httptest.NewServer(&fakeCouch{fail: true})
	defer srv.Close()

	repo := NewVerificationRepository(srv.URL+"/suratku", 5*time.Second)
	err := repo.Append(context.Background(), &domain.VerificationRecord{LetterID: "L1"})
	if err == nil {
		t.Error("Append() expected error on a 500 response")
	}
}

func TestVerificationRepository_ListBeyondOnePage(t *testing.T) {
	couch := &fakeCouch{}
	base := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	const attempts = 1001
	for i := 0; i < attempts; i++ {
		couch.docs = append(couch.docs, verificationDoc{
			ID:         fmt.Sprintf("doc-%d", i),
			Type:       verificationDocType,
			LetterID:   "L1",
			VerifiedAt: base.Add(time.Duration(i) * time.Second),
		})
	}
	srv := httptest.NewServer(couch)
	defer srv.Close()

	repo := NewVerificationRepository(srv.URL+"/suratku", 5*time.Second)
	records, err := repo.ListByLetter(context.Background(), "L1")
	if err != nil {
		t.Fatalf("ListByLetter() error = %v", err)
	}

	if len(records) != attempts {
		t.Fatalf("ListByLetter() returned %d records, want %d", len(records), attempts)
	}
	if couch.finds < 2 {
		t.Errorf("ListByLetter() made %d _find requests, want paging", couch.finds)
	}
	if !records[0].VerifiedAt.Equal(base.Add((attempts - 1) * time.Second)) {
		t.Errorf("newest record = %v", records[0].VerifiedAt)
	}
}
