package validate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/estatescout/internal/model"
)

func init() {
	// Disable retry sleep in all tests for fast execution
	validateSleepFunc = func(d time.Duration) {}
}

func newTestChecker() *Checker {
	return NewChecker(model.HTTPConfig{Timeout: 5 * time.Second, UserAgent: "estatescout-test"}, 4)
}

func TestChecker_CheckSingle_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("Expected HEAD request, got %s", r.Method)
		}
		if ua := r.Header.Get("User-Agent"); ua != "estatescout-test" {
			t.Errorf("Expected user agent to be sent, got %q", ua)
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	result := newTestChecker().checkSingle(context.Background(), model.DocumentRecord{URL: server.URL, Name: "Petition"})

	if !result.Accessible || result.Dead {
		t.Errorf("Expected accessible document, got %+v", result)
	}
	if !result.IsPDF() {
		t.Errorf("Expected PDF content type, got %q", result.ContentType)
	}
	if result.Name != "Petition" {
		t.Errorf("Expected name to be kept, got %q", result.Name)
	}
}

func TestChecker_CheckSingle_404(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	result := newTestChecker().checkSingle(context.Background(), model.DocumentRecord{URL: server.URL})

	if result.Accessible {
		t.Error("Expected 404 document not to be accessible")
	}
	if !result.Dead {
		t.Error("Expected 404 document to be marked as dead")
	}
	if result.StatusCode != http.StatusNotFound {
		t.Errorf("Expected status code 404, got %d", result.StatusCode)
	}
}

func TestChecker_CheckSingle_HeadNotAllowed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if r.Header.Get("Range") != "bytes=0-0" {
			t.Errorf("Expected ranged GET, got Range %q", r.Header.Get("Range"))
		}
		w.WriteHeader(http.StatusPartialContent)
	}))
	defer server.Close()

	result := newTestChecker().checkSingle(context.Background(), model.DocumentRecord{URL: server.URL})

	if !result.Accessible || result.StatusCode != http.StatusPartialContent {
		t.Errorf("Expected GET fallback to succeed, got %+v", result)
	}
}

func TestChecker_CheckSingle_Redirect(t *testing.T) {
	final := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer final.Close()

	redirect := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, final.URL+"/doc.pdf", http.StatusFound)
	}))
	defer redirect.Close()

	result := newTestChecker().checkSingle(context.Background(), model.DocumentRecord{URL: redirect.URL})

	if result.RedirectURL != final.URL+"/doc.pdf" {
		t.Errorf("Expected redirect URL %s, got %s", final.URL+"/doc.pdf", result.RedirectURL)
	}
}

func TestChecker_CheckSingle_Unreachable(t *testing.T) {
	result := newTestChecker().checkSingle(context.Background(), model.DocumentRecord{URL: "http://127.0.0.1:1/doc"})

	if !result.Dead || result.Error == "" {
		t.Errorf("Expected unreachable document to be dead with an error, got %+v", result)
	}
}

func TestChecker_RetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	result := newTestChecker().checkWithRetry(context.Background(), model.DocumentRecord{URL: server.URL})

	if !result.Accessible {
		t.Errorf("Expected success after retries, got %+v", result)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("Expected 3 attempts, got %d", got)
	}
}

func TestChecker_Check_KeepsOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusGone)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	docs := []model.DocumentRecord{
		{URL: server.URL + "/a", Name: "A"},
		{URL: server.URL + "/missing", Name: "B"},
		{URL: server.URL + "/c", Name: "C"},
	}
	results := newTestChecker().Check(context.Background(), docs)

	if len(results) != len(docs) {
		t.Fatalf("Expected %d results, got %d", len(docs), len(results))
	}
	for i, r := range results {
		if r.Name != docs[i].Name {
			t.Errorf("result %d: expected %s, got %s", i, docs[i].Name, r.Name)
		}
	}

	accessible, dead := Summary(results)
	if accessible != 2 || dead != 1 {
		t.Errorf("Expected 2 accessible and 1 dead, got %d and %d", accessible, dead)
	}
}

func TestChecker_Check_Empty(t *testing.T) {
	if results := newTestChecker().Check(context.Background(), nil); len(results) != 0 {
		t.Errorf("Expected no results, got %d", len(results))
	}
}
