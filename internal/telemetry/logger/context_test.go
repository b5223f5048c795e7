package logger

import (
	"context"
	"strings"
	"testing"
)

func TestRequestID(t *testing.T) {
	ctx := context.Background()
	if got := RequestIDFromContext(ctx); got != "" {
		t.Errorf("empty context request id = %q", got)
	}
	ctx = WithRequestID(ctx, "req-1")
	if got := RequestIDFromContext(ctx); got != "req-1" {
		t.Errorf("RequestIDFromContext() = %q", got)
	}
}

func TestCommand(t *testing.T) {
	ctx := context.Background()
	if got := CommandFromContext(ctx); got != "" {
		t.Errorf("empty context command = %q", got)
	}
	ctx = WithCommand(ctx, "otpslot key new")
	if got := CommandFromContext(ctx); got != "otpslot key new" {
		t.Errorf("CommandFromContext() = %q", got)
	}
}

func TestContextKeys_DoNotCollide(t *testing.T) {
	ctx := context.WithValue(context.Background(), "request_id", "foreign")
	if got := RequestIDFromContext(ctx); got != "" {
		t.Errorf("string key leaked into RequestIDFromContext: %q", got)
	}
}

func TestL(t *testing.T) {
	l, buf := newJSON(t, "info")

	tests := []struct {
		name    string
		ctx     context.Context
		want    map[string]string
		wantout []string
	}{
		{
			name: "bare",
			ctx:  WithLogger(context.Background(), l),
		},
		{
			name: "request id",
			ctx:  WithRequestID(WithLogger(context.Background(), l), "req-2"),
			want: map[string]string{"request_id": "req-2"},
		},
		{
			name: "both",
			ctx:  WithCommand(WithRequestID(WithLogger(context.Background(), l), "req-3"), "otpslot shell"),
			want: map[string]string{"request_id": "req-3", "command": "otpslot shell"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			L(tt.ctx).Info("hello")

			records := jsonLines(t, buf)
			if len(records) != 1 {
				t.Fatalf("got %d records", len(records))
			}
			for k, v := range tt.want {
				if records[0][k] != v {
					t.Errorf("%s = %v, want %q", k, records[0][k], v)
				}
			}
			if len(tt.want) == 0 {
				if _, ok := records[0]["request_id"]; ok {
					t.Errorf("unexpected request_id in %v", records[0])
				}
			}
		})
	}
}

func TestL_FallsBackToDefault(t *testing.T) {
	orig := Default()
	t.Cleanup(func() { SetDefault(orig) })

	l, buf := newJSON(t, "info")
	SetDefault(l)

	L(WithRequestID(context.Background(), "req-4")).Info("from default")
	if !strings.Contains(buf.String(), `"request_id":"req-4"`) {
		t.Errorf("output = %s", buf.String())
	}
}

func TestNewRequestID(t *testing.T) {
	seen := map[string]bool{}
	prev := ""
	for i := 0; i < 100; i++ {
		id := NewRequestID()
		if len(id) != 26 {
			t.Fatalf("NewRequestID() = %q, want 26 chars", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		if id <= prev {
			t.Errorf("ids not monotonic: %q after %q", id, prev)
		}
		seen[id] = true
		prev = id
	}
}
