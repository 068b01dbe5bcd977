package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPDirectoryServiceResolve(t *testing.T) {
	accountID := "64f1b2c3d4e5f60718293a4b"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/accounts/"+accountID {
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("unexpected authorization header %q", auth)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"` + accountID + `","name":"Acme Corp","organization":"Acme","email":"hello@acme.test"}`))
	}))
	defer server.Close()

	service := NewHTTPDirectoryService(server.URL, "test-key")

	profile, err := service.Resolve(context.Background(), accountID)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if profile.ID != accountID || profile.Name != "Acme Corp" {
		t.Fatalf("unexpected profile %+v", profile)
	}
}

func TestHTTPDirectoryServiceResolveNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	service := NewHTTPDirectoryService(server.URL, "")

	_, err := service.Resolve(context.Background(), "64f1b2c3d4e5f60718293a4b")
	if !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestHTTPDirectoryServiceResolveUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	service := NewHTTPDirectoryService(server.URL, "")

	_, err := service.Resolve(context.Background(), "64f1b2c3d4e5f60718293a4b")
	if err == nil || errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestHTTPDirectoryServiceListOthers(t *testing.T) {
	viewerID := "64f1b2c3d4e5f60718293a4b"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/accounts" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		query := r.URL.Query()
		if query.Get("exclude") != viewerID {
			t.Errorf("expected exclude=%s, got %q", viewerID, query.Get("exclude"))
		}
		if query.Get("page") != "2" || query.Get("limit") != "5" {
			t.Errorf("unexpected paging %s/%s", query.Get("page"), query.Get("limit"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"accounts":[{"id":"74f1b2c3d4e5f60718293a4b","name":"Other Corp"}],"total":11}`))
	}))
	defer server.Close()

	service := NewHTTPDirectoryService(server.URL, "")

	accounts, total, err := service.ListOthers(context.Background(), viewerID, 2, 5)
	if err != nil {
		t.Fatalf("ListOthers: %v", err)
	}
	if total != 11 || len(accounts) != 1 {
		t.Fatalf("expected 1 account of 11, got %d of %d", len(accounts), total)
	}
	if accounts[0].Name != "Other Corp" {
		t.Fatalf("unexpected account %+v", accounts[0])
	}
}
