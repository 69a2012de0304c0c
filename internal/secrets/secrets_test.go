package secrets

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func newTestFile(t *testing.T) *File {
	t.Helper()
	f, err := Open(filepath.Join(t.TempDir(), "tokens.toml"))
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	return f
}

func TestGet_MissingToken(t *testing.T) {
	f := newTestFile(t)

	if _, err := f.Get("https://portainer.example.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get error = %v, want ErrNotFound", err)
	}
}

func TestSetThenGet(t *testing.T) {
	f := newTestFile(t)

	if err := f.Set("https://portainer.example.com", "ptr_abc"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	token, err := f.Get("https://portainer.example.com")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if token != "ptr_abc" {
		t.Fatalf("token = %q, want %q", token, "ptr_abc")
	}
}

func TestGet_NormalizesServerKey(t *testing.T) {
	f := newTestFile(t)

	if err := f.Set("https://portainer.example.com/", "ptr_abc"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	token, err := f.Get("  https://portainer.example.com  ")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if token != "ptr_abc" {
		t.Fatalf("token = %q, want %q", token, "ptr_abc")
	}
}

func TestSet_ReplacesPreviousToken(t *testing.T) {
	f := newTestFile(t)

	if err := f.Set("https://a.example.com", "old"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if err := f.Set("https://a.example.com", "new"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	token, err := f.Get("https://a.example.com")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if token != "new" {
		t.Fatalf("token = %q, want %q", token, "new")
	}
}

func TestRemove(t *testing.T) {
	f := newTestFile(t)

	if err := f.Set("https://a.example.com", "tok"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if err := f.Remove("https://a.example.com"); err != nil {
		t.Fatalf("Remove returned error: %v", err)
	}
	if _, err := f.Get("https://a.example.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after Remove error = %v, want ErrNotFound", err)
	}

	// Removing an absent entry is fine.
	if err := f.Remove("https://never-stored.example.com"); err != nil {
		t.Fatalf("Remove of absent entry returned error: %v", err)
	}
}

func TestList_Sorted(t *testing.T) {
	f := newTestFile(t)

	for _, server := range []string{"https://b.example.com", "https://a.example.com"} {
		if err := f.Set(server, "tok"); err != nil {
			t.Fatalf("Set(%q) returned error: %v", server, err)
		}
	}
	servers, err := f.List()
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	want := []string{"https://a.example.com", "https://b.example.com"}
	if !reflect.DeepEqual(servers, want) {
		t.Fatalf("List = %v, want %v", servers, want)
	}
}

func TestWrite_FilePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.toml")
	f, err := Open(path)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if err := f.Set("https://a.example.com", "tok"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat returned error: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("tokens file mode = %o, want 600", perm)
	}
}

func TestTokensPersistAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.toml")

	first, err := Open(path)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if err := first.Set("https://a.example.com", "tok"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	second, err := Open(path)
	if err != nil {
		t.Fatalf("reopen returned error: %v", err)
	}
	token, err := second.Get("https://a.example.com")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if token != "tok" {
		t.Fatalf("token = %q, want %q", token, "tok")
	}
}
