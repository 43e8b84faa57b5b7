package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmolchanov/packvault/internal/common"
)

func TestCreatePack_SendsTokenAndBody(t *testing.T) {
	var gotToken string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/packs" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotToken = r.Header.Get(common.AccessTokenHeaderName)
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("body decode: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"PackID": 7, "Collection": "heroes"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	c.SetToken("tok-123")

	pack, err := c.CreatePack(context.Background(), 0, "heroes", time.Time{}, "tpl-1", "{}")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pack.PackID != 7 || pack.Collection != "heroes" {
		t.Fatalf("unexpected pack: %+v", pack)
	}
	if gotToken != "tok-123" {
		t.Fatalf("token not sent, got %q", gotToken)
	}
	if gotBody["collection"] != "heroes" || gotBody["template_ref"] != "tpl-1" {
		t.Fatalf("unexpected body: %v", gotBody)
	}
}

func TestGetAllocation_EscapesItemID(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ItemID": "item/42", "PackID": 1, "Status": "resolved", "Bundle": []string{"a"},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	alloc, err := c.GetAllocation(context.Background(), "item/42")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/v1/allocations/item%2F42" {
		t.Fatalf("item id not escaped: %s", gotPath)
	}
	if alloc.Status != "resolved" || len(alloc.Bundle) != 1 {
		t.Fatalf("unexpected allocation: %+v", alloc)
	}
}

func TestCall_SurfacesServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "already exists"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	err := c.InsertEntry(context.Background(), 1, []string{"a"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "409") || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("unexpected error text: %v", err)
	}
}

func TestCall_UnexpectedStatusWithoutBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	err := c.RemoveAll(context.Background(), "packs")
	if err == nil || !strings.Contains(err.Error(), "502") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestGenerateEntries_ReturnsCount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]int{"entries": 3})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	n, err := c.GenerateEntries(context.Background(), 1, "packs", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 entries, got %d", n)
	}
}

func TestExportAudit_ReturnsURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"url": "https://storage.local/exports/a.jsonl"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	url, err := c.ExportAudit(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if url != "https://storage.local/exports/a.jsonl" {
		t.Fatalf("unexpected url: %s", url)
	}
}
