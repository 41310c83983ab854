package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

func TestReleasesPagination(t *testing.T) {
	t.Parallel()

	// Two full pages plus a short final one.
	total := releasesPerPage*2 + 3
	var gotAuth, gotUA string

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/yugabyte/build-clang/releases" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		gotAuth = r.Header.Get("Authorization")
		gotUA = r.Header.Get("User-Agent")

		page, err := strconv.Atoi(r.URL.Query().Get("page"))
		if err != nil || page < 1 {
			t.Errorf("bad page parameter %q", r.URL.Query().Get("page"))
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		start := (page - 1) * releasesPerPage
		var batch []Release
		for i := start; i < start+releasesPerPage && i < total; i++ {
			batch = append(batch, Release{TagName: fmt.Sprintf("tag-%d", i)})
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(batch); err != nil {
			t.Errorf("encode releases: %v", err)
		}
	}))
	defer ts.Close()

	client := &Client{APIBaseURL: ts.URL, Token: "testtoken", UserAgent: "llvm-installer/test"}
	releases, err := client.Releases(context.Background(), "yugabyte/build-clang")
	if err != nil {
		t.Fatalf("Releases: %v", err)
	}
	if len(releases) != total {
		t.Fatalf("releases: got %d want %d", len(releases), total)
	}
	if releases[0].TagName != "tag-0" || releases[total-1].TagName != fmt.Sprintf("tag-%d", total-1) {
		t.Fatalf("unexpected release ordering: first %q last %q",
			releases[0].TagName, releases[total-1].TagName)
	}
	if gotAuth != "Bearer testtoken" {
		t.Errorf("Authorization header: got %q", gotAuth)
	}
	if gotUA != "llvm-installer/test" {
		t.Errorf("User-Agent header: got %q", gotUA)
	}
}

func TestReleasesAPIError(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"message": "API rate limit exceeded"}`)
	}))
	defer ts.Close()

	client := &Client{APIBaseURL: ts.URL}
	_, err := client.Releases(context.Background(), "yugabyte/build-clang")
	if err == nil {
		t.Fatal("expected an error for a 403 response")
	}
	if !strings.Contains(err.Error(), "rate limit") {
		t.Fatalf("error should keep the API message, got: %v", err)
	}
}

func TestDownload(t *testing.T) {
	t.Parallel()

	payload := strings.Repeat("toolchain bits\n", 1000)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/artifact.tar.gz":
			fmt.Fprint(w, payload)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer ts.Close()

	client := &Client{}
	dest := filepath.Join(t.TempDir(), "artifact.tar.gz")
	n, err := client.Download(context.Background(), ts.URL+"/artifact.tar.gz", dest)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if n != int64(len(payload)) {
		t.Fatalf("bytes written: got %d want %d", n, len(payload))
	}
	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read downloaded file: %v", err)
	}
	if string(data) != payload {
		t.Fatal("downloaded content differs from served content")
	}

	if _, err := client.Download(context.Background(), ts.URL+"/missing", filepath.Join(t.TempDir(), "x")); err == nil {
		t.Fatal("expected an error for a 404 download")
	}
}

func TestFetch(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "abc123  yb-llvm-test.tar.gz\n")
	}))
	defer ts.Close()

	client := &Client{}
	data, err := client.Fetch(context.Background(), ts.URL+"/yb-llvm-test.tar.gz.sha256")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !strings.HasPrefix(string(data), "abc123") {
		t.Fatalf("unexpected body %q", data)
	}
}

func TestTokenNotSentToUntrustedHost(t *testing.T) {
	t.Parallel()

	var gotAuth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		fmt.Fprint(w, "ok")
	}))
	defer ts.Close()

	// The API base points elsewhere, so ts counts as an untrusted mirror.
	client := &Client{Token: "secret"}
	if _, err := client.Fetch(context.Background(), ts.URL+"/file"); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if gotAuth != "" {
		t.Fatalf("token leaked to untrusted host: %q", gotAuth)
	}
}

func TestTokenFromEnv(t *testing.T) {
	t.Setenv("YB_LLVM_GITHUB_TOKEN", " tool-token ")
	t.Setenv("GITHUB_TOKEN", "generic-token")
	if got := TokenFromEnv(); got != "tool-token" {
		t.Fatalf("TokenFromEnv: got %q want tool-token", got)
	}

	t.Setenv("YB_LLVM_GITHUB_TOKEN", "")
	if got := TokenFromEnv(); got != "generic-token" {
		t.Fatalf("TokenFromEnv fallback: got %q want generic-token", got)
	}
}

func TestRepoFromURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{
			name: "release download URL",
			url:  "https://github.com/yugabyte/build-clang/releases/download",
			want: "yugabyte/build-clang",
		},
		{
			name: "bare repo URL",
			url:  "https://github.com/yugabyte/llvm-installer",
			want: "yugabyte/llvm-installer",
		},
		{name: "no repo path", url: "https://github.com/", wantErr: true},
		{name: "owner only", url: "https://github.com/yugabyte", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := RepoFromURL(tc.url)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tc.url)
				}
				return
			}
			if err != nil {
				t.Fatalf("RepoFromURL: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}
