package filecatalog_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/Strob0t/Warden/internal/adapter/filecatalog"
)

func writeCatalog(t *testing.T, content string) *filecatalog.Catalog {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tools.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	c, err := filecatalog.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestLoadAndLookup(t *testing.T) {
	c := writeCatalog(t, `
tools:
  - name: get_payment_exception
    description: look up a failed payment
    kind: builtin
  - name: notify_ops
    kind: api
    url: http://hooks.internal/notify
`)

	meta, ok := c.Lookup("get_payment_exception")
	if !ok || meta.Kind != "builtin" {
		t.Errorf("Lookup = %+v, %v", meta, ok)
	}
	if _, ok := c.Lookup("missing"); ok {
		t.Error("unknown tool found")
	}

	list := c.List()
	if len(list) != 2 || list[0].Name != "get_payment_exception" {
		t.Errorf("List = %v, want sorted pair", list)
	}
}

func TestLoadRejectsAPIEntryWithoutURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tools.yaml")
	if err := os.WriteFile(path, []byte("tools:\n  - name: bad\n    kind: api\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := filecatalog.Load(path); err == nil {
		t.Error("expected error for api tool without url")
	}
}

func TestAPIExecutorPostsArgs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Team") != "payments" {
			t.Errorf("header X-Team = %q", r.Header.Get("X-Team"))
		}
		_, _ = w.Write([]byte(`{"status":"queued"}`))
	}))
	defer srv.Close()

	c := writeCatalog(t, `
tools:
  - name: notify_ops
    kind: api
    url: `+srv.URL+`
    headers:
      X-Team: payments
`)

	fn, ok := c.Load("notify_ops")
	if !ok {
		t.Fatal("Load returned no executor")
	}
	out, err := fn(context.Background(), map[string]any{"payment_id": "p-1"})
	if err != nil {
		t.Fatal(err)
	}
	m, _ := out.(map[string]any)
	if m["status"] != "queued" {
		t.Errorf("result = %v", out)
	}
}

func TestAPIExecutorEndpointError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	c := writeCatalog(t, `
tools:
  - name: notify_ops
    kind: api
    url: `+srv.URL+`
`)

	fn, _ := c.Load("notify_ops")
	if _, err := fn(context.Background(), nil); err == nil {
		t.Error("expected error for 403 response")
	}
}

func TestLoadUnknownKindNotLoadable(t *testing.T) {
	c := writeCatalog(t, "tools:\n  - name: odd\n    kind: script\n")
	if _, ok := c.Load("odd"); ok {
		t.Error("unknown kind should not load")
	}
}
