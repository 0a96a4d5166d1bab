package main

import (
	"bytes"
	"context"
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/Sternrassler/jsonreq/internal/config"
	"github.com/Sternrassler/jsonreq/internal/testutil"
	"github.com/Sternrassler/jsonreq/pkg/client"
	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
)

func TestParseParams(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    client.Params
		wantErr bool
	}{
		{
			name: "none",
			args: nil,
			want: nil,
		},
		{
			name: "single",
			args: []string{"id=22"},
			want: client.Params{"id": "22"},
		},
		{
			name: "value with equals",
			args: []string{"q=a=b"},
			want: client.Params{"q": "a=b"},
		},
		{
			name: "repeated key",
			args: []string{"tag=a", "tag=b", "tag=c"},
			want: client.Params{"tag": []string{"a", "b", "c"}},
		},
		{
			name: "empty value",
			args: []string{"flag="},
			want: client.Params{"flag": ""},
		},
		{
			name:    "missing equals",
			args:    []string{"id"},
			wantErr: true,
		},
		{
			name:    "empty key",
			args:    []string{"=1"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseParams(tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseParams() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseParams() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestRun_Usage(t *testing.T) {
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}

	err := run(context.Background(), []string{"GET"}, stdout, stderr)
	if err == nil {
		t.Fatal("Expected error without URL")
	}
	if !strings.Contains(stderr.String(), "usage: jsonreq") {
		t.Errorf("Expected usage on stderr, got %q", stderr.String())
	}
}

func TestRun_Version(t *testing.T) {
	stdout := &bytes.Buffer{}

	if err := run(context.Background(), []string{"-version"}, stdout, &bytes.Buffer{}); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if !strings.HasPrefix(stdout.String(), "jsonreq ") {
		t.Errorf("stdout = %q", stdout.String())
	}
}

func TestRun_InvalidData(t *testing.T) {
	err := run(context.Background(), []string{"-data", "{nope", "POST", "http://localhost/x"}, &bytes.Buffer{}, &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "not valid JSON") {
		t.Errorf("Expected invalid JSON error, got %v", err)
	}
}

func TestRun_InvalidLogLevel(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()

	t.Setenv(config.EnvCacheBackend, "memory")

	err := run(context.Background(), []string{"-log-level", "verbose", "GET", mock.URL()}, &bytes.Buffer{}, &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "unknown log level") {
		t.Errorf("Expected unknown log level error, got %v", err)
	}
	if mock.GetRequestCount() != 0 {
		t.Errorf("Request count = %d, want 0", mock.GetRequestCount())
	}
}

func TestRun_UnsupportedMethod(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()

	t.Setenv(config.EnvCacheBackend, "memory")

	err := run(context.Background(), []string{"HEAD", mock.URL()}, &bytes.Buffer{}, &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "unsupported method") {
		t.Errorf("Expected unsupported method error, got %v", err)
	}
	if mock.GetRequestCount() != 0 {
		t.Errorf("Request count = %d, want 0", mock.GetRequestCount())
	}
}

func TestRun_PostMemoryBackend(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()
	mock.SetResponse("/posts", testutil.NewJSONResponse(`{"id":101,"title":"x"}`))

	t.Setenv(config.EnvCacheBackend, "memory")

	stdout := &bytes.Buffer{}
	args := []string{"-data", `{"title":"x"}`, "post", mock.URL() + "/posts", "draft=1"}
	if err := run(context.Background(), args, stdout, &bytes.Buffer{}); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(stdout.Bytes(), &got); err != nil {
		t.Fatalf("stdout is not JSON: %v (%q)", err, stdout.String())
	}
	if got["id"] != float64(101) {
		t.Errorf("Result = %v", got)
	}

	last, _ := mock.LastRequest()
	if last.Method != "POST" || last.URL != "/posts?draft=1" || last.Body != `{"title":"x"}` {
		t.Errorf("Request = %+v", last)
	}
}

func TestRun_GetCachedInRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	mock := testutil.NewMockAPI()
	defer mock.Close()
	mock.SetResponse("/posts", testutil.NewJSONResponse(`[{"id":22}]`))

	t.Setenv(config.EnvCacheBackend, "redis")
	t.Setenv(config.EnvRedisAddr, mr.Addr())

	var outputs []string
	for i := 0; i < 2; i++ {
		stdout := &bytes.Buffer{}
		if err := run(context.Background(), []string{"GET", mock.URL() + "/posts", "id=22"}, stdout, &bytes.Buffer{}); err != nil {
			t.Fatalf("run %d failed: %v", i, err)
		}
		outputs = append(outputs, stdout.String())
	}

	if mock.GetRequestCount() != 1 {
		t.Errorf("Request count = %d, want 1 (second run served from Redis)", mock.GetRequestCount())
	}
	if outputs[0] != outputs[1] {
		t.Errorf("Outputs differ: %q vs %q", outputs[0], outputs[1])
	}
	if !mr.Exists(mock.URL() + "/posts?id=22") {
		t.Error("Expected response cached under the request URL")
	}
}

func TestRun_RedisUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	mock := testutil.NewMockAPI()
	defer mock.Close()

	t.Setenv(config.EnvCacheBackend, "redis")
	t.Setenv(config.EnvRedisAddr, addr)

	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	if err := run(context.Background(), []string{"GET", mock.URL() + "/x"}, stdout, stderr); err != nil {
		t.Fatalf("run should succeed with a broken cache: %v", err)
	}

	if !strings.Contains(stdout.String(), `"method": "GET"`) {
		t.Errorf("stdout = %q", stdout.String())
	}
	if !strings.Contains(stderr.String(), "Redis cache connection error") {
		t.Errorf("Expected connection error in logs, got %q", stderr.String())
	}
}

func TestRun_DumpMetrics(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()

	t.Setenv(config.EnvCacheBackend, "memory")

	stderr := &bytes.Buffer{}
	if err := run(context.Background(), []string{"-metrics", "GET", mock.URL() + "/x"}, &bytes.Buffer{}, stderr); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if !strings.Contains(stderr.String(), "jsonreq_requests_total") {
		t.Errorf("Expected request metrics on stderr, got %q", stderr.String())
	}
}

func TestDispatch_GetWithBody(t *testing.T) {
	c := newMemoryClient(t)

	if _, err := dispatch(context.Background(), c, "GET", "http://localhost/x", nil, json.RawMessage(`{}`)); err == nil {
		t.Error("Expected error for GET with body")
	}
}

func newMemoryClient(t *testing.T) *client.Client {
	t.Helper()

	cfg := config.Default()
	cfg.Cache.Backend = "memory"

	store, closeStore, err := openStore(context.Background(), cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("openStore failed: %v", err)
	}
	t.Cleanup(closeStore)

	c, err := client.New(client.DefaultConfig(store))
	if err != nil {
		t.Fatalf("client.New failed: %v", err)
	}
	return c
}
