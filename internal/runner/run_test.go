package runner

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"beian/internal/config"
)

func newUpstream(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/reverse", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("ip") == "8.8.8.8" {
			_, _ = w.Write([]byte(`[{"domain":"8.8.8.8"},{"domain":"dns.google","title":"Google Public DNS"}]`))
			return
		}
		_, _ = w.Write([]byte("null"))
	})
	mux.HandleFunc("/cha/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		switch strings.Trim(strings.TrimPrefix(r.URL.Path, "/cha/"), "/") {
		case "dns.google":
			_, _ = w.Write([]byte(`<img src="//statics.aizhan.com/images/br/4.png">`))
		case "example.com":
			_, _ = w.Write([]byte(`<img src="//statics.aizhan.com/images/br/1.png">`))
		default:
			_, _ = w.Write([]byte(`<html></html>`))
		}
	})
	mux.HandleFunc("/icp", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"info":{"name":"Acme Co","nature":"Enterprise","icp":"京ICP备12345678号","title":"Acme"}}`))
	})

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func testConfig(t *testing.T, base string) *config.Config {
	t.Helper()

	dir := t.TempDir()
	targetFile := filepath.Join(dir, "domain.txt")
	if err := os.WriteFile(targetFile, []byte("8.8.8.8\nhttps://www.example.com/index.html\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.Query.DelaySeconds = 0
	cfg.Query.ICP = false
	cfg.Endpoints.ReverseIP = base + "/reverse?ip={target}"
	cfg.Endpoints.Rank = base + "/cha/{target}/"
	cfg.Endpoints.ICP = base + "/icp?url={target}"
	cfg.Input.TargetFile = targetFile
	cfg.Output.Path = filepath.Join(dir, "out", "result.csv")
	cfg.Output.Encoding = config.EncodingUTF8
	return cfg
}

func TestRunAllEndToEnd(t *testing.T) {
	t.Parallel()

	ts := newUpstream(t)
	cfg := testConfig(t, ts.URL)

	var out bytes.Buffer
	summary, err := RunAll(context.Background(), cfg, "", &out)
	if err != nil {
		t.Fatalf("RunAll: %v", err)
	}
	if summary.Targets != 2 || summary.Rows != 2 || summary.OutputPath != cfg.Output.Path {
		t.Fatalf("unexpected summary %+v", summary)
	}

	data, err := os.ReadFile(cfg.Output.Path)
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	want := "ip,反查域名,百度权重\r\n" +
		"8.8.8.8,dns.google,4\r\n" +
		"example.com,example.com,1\r\n"
	if string(data) != want {
		t.Fatalf("got %q, want %q", data, want)
	}

	if !strings.Contains(out.String(), "|dns.google          |") {
		t.Fatalf("console output missing row:\n%s", out.String())
	}
}

func TestRunAllRegistrationAndThreshold(t *testing.T) {
	t.Parallel()

	ts := newUpstream(t)
	cfg := testConfig(t, ts.URL)
	cfg.Query.ICP = true
	cfg.Query.MinRank = 2

	var out bytes.Buffer
	summary, err := RunAll(context.Background(), cfg, "", &out)
	if err != nil {
		t.Fatalf("RunAll: %v", err)
	}
	if summary.Rows != 1 {
		t.Fatalf("expected one row above threshold, got %d", summary.Rows)
	}

	data, _ := os.ReadFile(cfg.Output.Path)
	want := "ip,反查域名,百度权重,单位名称,单位性质,备案编号,网站标题\r\n" +
		"8.8.8.8,dns.google,4,Acme Co,Enterprise,京ICP备12345678号,Acme\r\n"
	if string(data) != want {
		t.Fatalf("got %q, want %q", data, want)
	}
	if !strings.Contains(out.String(), "(2/2)") {
		t.Fatalf("expected progress for the dropped target:\n%s", out.String())
	}
}

func TestRunAllMissingFile(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Input.TargetFile = filepath.Join(t.TempDir(), "missing.txt")

	_, err := RunAll(context.Background(), cfg, "", &bytes.Buffer{})
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected os.ErrNotExist, got %v", err)
	}
}

func TestRunAllInterrupted(t *testing.T) {
	t.Parallel()

	ts := newUpstream(t)
	cfg := testConfig(t, ts.URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := RunAll(ctx, cfg, "", &bytes.Buffer{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if _, err := os.Stat(cfg.Output.Path); !os.IsNotExist(err) {
		t.Fatal("interrupted run must not write the CSV")
	}
}
