//go:build !integration

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestWith_AttachesContextFields(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	ctx := WithTraceID(context.Background(), "01HTRACE")
	ctx = WithTgID(ctx, 42)
	ctx = WithChatID(ctx, -100)

	With(ctx, &base).Info().Msg("hello")

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid log line %q: %v", buf.String(), err)
	}
	if got["trace_id"] != "01HTRACE" {
		t.Errorf("missing trace_id: %v", got)
	}
	if got["tg_id"] != float64(42) || got["chat_id"] != float64(-100) {
		t.Errorf("missing ids: %v", got)
	}
}

func TestNewTraceID_Monotonic(t *testing.T) {
	a, b := NewTraceID(), NewTraceID()
	if len(a) != 26 || len(b) != 26 {
		t.Fatalf("unexpected ULID lengths %q %q", a, b)
	}
	if a >= b {
		t.Errorf("expected increasing ids, got %s then %s", a, b)
	}
}

func TestRedact(t *testing.T) {
	if Redact("short", false) != "***" {
		t.Error("expected short values to be fully masked")
	}
	if Redact("0123456789ab", false) != "0123...ab" {
		t.Errorf("unexpected redaction %q", Redact("0123456789ab", false))
	}
	if Redact("visible", true) != "visible" {
		t.Error("dev mode must not redact")
	}
}
