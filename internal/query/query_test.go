package query

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"beian/internal/model"
)

func newTestClient() *Client {
	return NewClient(Options{Timeout: 2 * time.Second, UserAgent: "beian-test"})
}

func TestReverseIPNullBody(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("ip") != "1.1.1.1" {
			t.Errorf("unexpected ip param: %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte("null"))
	}))
	defer ts.Close()

	res := NewReverseIPResolver(newTestClient(), ts.URL+"/?action=query&ip={target}").Resolve(context.Background(), "1.1.1.1")
	if res.Status != model.StatusEmpty || len(res.Domains) != 0 || res.SourceIP != "1.1.1.1" {
		t.Fatalf("unexpected resolution: %+v", res)
	}
}

func TestReverseIPFiltersAndDedupes(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"domain":"1.2.3.4","title":"self"},
			{"domain":"www.example.com","title":"a"},
			{"domain":"mail.example.com","title":"b"},
			{"domain":"dns.google"},
			{"domain":"intranet"},
			{"title":"no domain"},
			{"domain":"example.com"},
			{"domain":"bbs.例子.中国"},
			{"domain":"www.例子.中国"}
		]`))
	}))
	defer ts.Close()

	res := NewReverseIPResolver(newTestClient(), ts.URL+"/?ip={target}").Resolve(context.Background(), "1.2.3.4")
	if res.Status != model.StatusOK {
		t.Fatalf("unexpected status: %v", res.Status)
	}
	want := []string{"example.com", "dns.google", "例子.中国"}
	if !reflect.DeepEqual(res.Domains, want) {
		t.Fatalf("got %v, want %v", res.Domains, want)
	}
}

func TestReverseIPConnError(t *testing.T) {
	t.Parallel()

	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>blocked</html>"))
	}))
	defer bad.Close()

	res := NewReverseIPResolver(newTestClient(), bad.URL+"/?ip={target}").Resolve(context.Background(), "1.2.3.4")
	if res.Status != model.StatusConnError || len(res.Domains) != 0 {
		t.Fatalf("malformed body should be ConnError, got %+v", res)
	}

	closed := httptest.NewServer(http.NotFoundHandler())
	url := closed.URL
	closed.Close()
	res = NewReverseIPResolver(newTestClient(), url+"/?ip={target}").Resolve(context.Background(), "1.2.3.4")
	if res.Status != model.StatusConnError {
		t.Fatalf("unreachable host should be ConnError, got %+v", res)
	}
}

func TestRankLookup(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua != "beian-test" {
			t.Errorf("unexpected user agent %q", ua)
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		switch r.URL.Path {
		case "/cha/seven.com/":
			_, _ = w.Write([]byte(`<html><body><img src="//statics.aizhan.com/images/br/7.png" alt="rank"></body></html>`))
		case "/cha/script.com/":
			_, _ = w.Write([]byte(`<script>var x = "aizhan.com/images/br/3.png";</script>`))
		case "/cha/none.com/":
			_, _ = w.Write([]byte(`<html><body>nothing</body></html>`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer ts.Close()

	lookup := NewRankLookup(newTestClient(), ts.URL+"/cha/{target}/")
	ctx := context.Background()

	if got := lookup.Rank(ctx, "seven.com"); got != (model.RankResult{Status: model.StatusOK, Rank: 7}) {
		t.Fatalf("seven.com: %+v", got)
	}
	if got := lookup.Rank(ctx, "script.com"); got != (model.RankResult{Status: model.StatusOK, Rank: 3}) {
		t.Fatalf("script.com: %+v", got)
	}
	if got := lookup.Rank(ctx, "none.com"); got != (model.RankResult{Status: model.StatusPageError, Rank: model.NoRank}) {
		t.Fatalf("none.com: %+v", got)
	}
	if got := lookup.Rank(ctx, "broken.com"); got != (model.RankResult{Status: model.StatusConnError, Rank: model.NoRank}) {
		t.Fatalf("broken.com: %+v", got)
	}
}

func TestParseRank(t *testing.T) {
	t.Parallel()

	cases := []struct {
		page string
		want int
	}{
		{`aizhan.com/images/br/7.png`, 7},
		{`<img src="https://www.aizhan.com/images/br/10.png">`, 10},
		{`<img src="/x.png"><img src="//aizhan.com/images/br/0.png">`, 0},
		{`aizhan.com/images/br/2.png aizhan.com/images/br/9.png`, 2},
		{`<img src="//aizhan.com/images/br/5.png"> aizhan.com/images/br/1.png`, 5},
	}
	for _, tc := range cases {
		got, err := parseRank([]byte(tc.page))
		if err != nil || got != tc.want {
			t.Fatalf("parseRank(%q) = %d, %v; want %d", tc.page, got, err, tc.want)
		}
	}

	for _, page := range []string{"", "aizhan.com/images/br/x.png", "aizhan.com/images/br/11.png"} {
		if got, err := parseRank([]byte(page)); err == nil || got != model.NoRank {
			t.Fatalf("parseRank(%q) = %d, %v; want error", page, got, err)
		}
	}
}

func TestRegistrationLookup(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("url") {
		case "acme.com":
			_, _ = w.Write([]byte(`{"info":{"name":"Acme Co","nature":"Enterprise","icp":"京ICP备12345678号","title":"Acme"}}`))
		case "partial.com":
			_, _ = w.Write([]byte(`{"info":{"name":"Partial","icp":123}}`))
		case "noinfo.com":
			_, _ = w.Write([]byte(`{"success":false,"message":"未备案"}`))
		default:
			_, _ = w.Write([]byte(`<html>oops</html>`))
		}
	}))
	defer ts.Close()

	lookup := NewRegistrationLookup(newTestClient(), ts.URL+"/api/icp?url={target}")
	ctx := context.Background()

	want := model.RegistrationRecord{
		Status:           model.StatusOK,
		OrganizationName: "Acme Co",
		OrganizationType: "Enterprise",
		RegistrationID:   "京ICP备12345678号",
		PageTitle:        "Acme",
	}
	if got := lookup.Lookup(ctx, "acme.com"); got != want {
		t.Fatalf("acme.com: %+v", got)
	}

	partial := lookup.Lookup(ctx, "partial.com")
	if partial.Status != model.StatusOK || partial.OrganizationName != "Partial" || partial.OrganizationType != "" || partial.RegistrationID != "123" {
		t.Fatalf("partial.com: %+v", partial)
	}

	if got := lookup.Lookup(ctx, "noinfo.com"); got != (model.RegistrationRecord{Status: model.StatusOK}) {
		t.Fatalf("noinfo.com: %+v", got)
	}
	if got := lookup.Lookup(ctx, "html.com"); got != (model.RegistrationRecord{Status: model.StatusConnError}) {
		t.Fatalf("html.com: %+v", got)
	}
}

func TestClientRetriesRateLimited(t *testing.T) {
	t.Parallel()

	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer ts.Close()

	client := NewClient(Options{Timeout: 2 * time.Second, Retries: 2})
	client.backoff = time.Millisecond

	body, _, err := client.Get(context.Background(), "test", ts.URL, nil)
	if err != nil || string(body) != "ok" {
		t.Fatalf("Get = %q, %v", body, err)
	}
	if atomic.LoadInt32(&calls) != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestClientDoesNotRetryByDefault(t *testing.T) {
	t.Parallel()

	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	_, _, err := newTestClient().Get(context.Background(), "test", ts.URL, nil)
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status error, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("expected a single call, got %d", calls)
	}
}

func TestIsRetryableError(t *testing.T) {
	t.Parallel()

	if !isRetryableError(errors.New("接口请求过于频繁，请稍后再试")) {
		t.Fatal("expected chinese rate-limit message to be retryable")
	}
	if isRetryableError(errors.New("connection refused")) || isRetryableError(nil) {
		t.Fatal("unexpected retryable")
	}
}

func TestBuildURL(t *testing.T) {
	t.Parallel()

	got := buildURL("https://www.aizhan.com/cha/{target}/", "example.com")
	if got != "https://www.aizhan.com/cha/example.com/" {
		t.Fatalf("unexpected url: %s", got)
	}
	if strings.Contains(buildURL("http://x/?q={target}", "a b"), " ") {
		t.Fatal("target must be escaped")
	}
}
