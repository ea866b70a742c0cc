package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFolderItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/2.0/folders/42/items" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("limit"); got != "10" {
			t.Errorf("limit = %q, want 10", got)
		}
		if got := r.URL.Query().Get("offset"); got != "5" {
			t.Errorf("offset = %q, want 5", got)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"total_count":2,"entries":[
			{"type":"folder","id":"1","name":"docs"},
			{"type":"file","id":"2","name":"a.txt","size":12}
		],"limit":10,"offset":5}`)
	}))
	defer srv.Close()

	c := NewClient(Config{APIHost: srv.URL, Token: "tok"})
	items, err := c.FolderItems(context.Background(), "42", 10, 5)
	if err != nil {
		t.Fatalf("FolderItems() error = %v", err)
	}

	if items.TotalCount != 2 || len(items.Entries) != 2 {
		t.Fatalf("items = %+v", items)
	}
	if items.Entries[0].Type != "folder" || items.Entries[1].Size != 12 {
		t.Errorf("entries not parsed: %+v", items.Entries)
	}
}

func TestCreateFolder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/2.0/folders" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"type":"folder","id":"77","name":"reports"}`)
	}))
	defer srv.Close()

	c := NewClient(Config{APIHost: srv.URL, Token: "tok"})
	folder, err := c.CreateFolder(context.Background(), "reports", "0")
	if err != nil {
		t.Fatalf("CreateFolder() error = %v", err)
	}
	if folder.ID != "77" || folder.Name != "reports" {
		t.Errorf("folder = %+v", folder)
	}
}

func TestDeleteFileErrorParsing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"status":404,"code":"not_found","message":"no such file"}`)
	}))
	defer srv.Close()

	c := NewClient(Config{APIHost: srv.URL, Token: "tok"})
	err := c.DeleteFile(context.Background(), "123")
	if err == nil {
		t.Fatal("DeleteFile() should fail on 404")
	}

	apiErr, ok := err.(*Error)
	if !ok {
		t.Fatalf("error type = %T, want *Error", err)
	}
	if apiErr.StatusCode != 404 || apiErr.Code != "not_found" {
		t.Errorf("error = %+v", apiErr)
	}
}

func TestSearchItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/2.0/search" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("query"); got != "budget" {
			t.Errorf("query = %q, want budget", got)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"total_count":1,"entries":[{"type":"file","id":"9","name":"budget.xlsx"}]}`)
	}))
	defer srv.Close()

	c := NewClient(Config{APIHost: srv.URL, Token: "tok"})
	items, err := c.SearchItems(context.Background(), "budget", 0, 0)
	if err != nil {
		t.Fatalf("SearchItems() error = %v", err)
	}
	if len(items.Entries) != 1 || items.Entries[0].Name != "budget.xlsx" {
		t.Errorf("items = %+v", items)
	}
}
