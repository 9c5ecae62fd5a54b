package kafka

import (
	"context"
	"errors"
	"fmt"
	"testing"

	kafkago "github.com/segmentio/kafka-go"
)

func appendHook(tag string, order *[]string) HookFuncs {
	return HookFuncs{
		Before: func(ctx context.Context, _ string, km kafkago.Message, data []byte) (context.Context, kafkago.Message, []byte, error) {
			*order = append(*order, "before:"+tag)
			return ctx, km, append(data, []byte(tag)...), nil
		},
		After: func(_ context.Context, _ string, _ kafkago.Message, _ []byte, _ error) {
			*order = append(*order, "after:"+tag)
		},
		Err: func(_ context.Context, _ string, _ kafkago.Message, _ []byte, _ error) {
			*order = append(*order, "err:"+tag)
		},
	}
}

func TestHookChainThreadsPayload(t *testing.T) {
	var order []string
	chain := NewHookChain(appendHook("a", &order), nil, appendHook("b", &order))

	_, _, data, err := chain.BeforeHandle(context.Background(), "t", kafkago.Message{}, []byte("x"))
	if err != nil {
		t.Fatalf("BeforeHandle: %v", err)
	}
	if got := string(data); got != "xab" {
		t.Fatalf("payload = %q, want %q", got, "xab")
	}
	if len(order) != 2 || order[0] != "before:a" || order[1] != "before:b" {
		t.Fatalf("order = %v", order)
	}
}

func TestHookChainAfterRunsInReverse(t *testing.T) {
	var order []string
	chain := NewHookChain(appendHook("a", &order), appendHook("b", &order))

	chain.AfterHandle(context.Background(), "t", kafkago.Message{}, nil, nil)
	if len(order) != 2 || order[0] != "after:b" || order[1] != "after:a" {
		t.Fatalf("order = %v", order)
	}
}

func TestHookChainBeforeErrorNotifiesAll(t *testing.T) {
	var order []string
	boom := HookFuncs{
		Before: func(ctx context.Context, _ string, km kafkago.Message, data []byte) (context.Context, kafkago.Message, []byte, error) {
			return ctx, km, data, fmt.Errorf("reject")
		},
	}
	chain := NewHookChain(appendHook("a", &order), boom)

	_, _, data, err := chain.BeforeHandle(context.Background(), "t", kafkago.Message{}, []byte("x"))
	if err == nil {
		t.Fatal("expected error")
	}
	// The payload threaded up to the failing hook comes back, not the original.
	if got := string(data); got != "xa" {
		t.Fatalf("payload = %q, want %q", got, "xa")
	}
	if len(order) != 2 || order[0] != "before:a" || order[1] != "err:a" {
		t.Fatalf("order = %v", order)
	}
}

func TestHookChainContainsPanics(t *testing.T) {
	panicky := HookFuncs{
		Before: func(context.Context, string, kafkago.Message, []byte) (context.Context, kafkago.Message, []byte, error) {
			panic("hook bug")
		},
	}
	chain := NewHookChain(panicky)

	_, _, _, err := chain.BeforeHandle(context.Background(), "t", kafkago.Message{}, nil)
	var hookErr *HookError
	if !errors.As(err, &hookErr) {
		t.Fatalf("error = %v, want *HookError", err)
	}
	if hookErr.Code != "ERR_PANIC" {
		t.Fatalf("code = %q, want ERR_PANIC", hookErr.Code)
	}
}

func TestExtractTraceID(t *testing.T) {
	msg := kafkago.Message{Headers: []kafkago.Header{{Key: "trace_id", Value: []byte("abc-123")}}}
	if got := ExtractTraceID(msg); got != "abc-123" {
		t.Fatalf("ExtractTraceID = %q", got)
	}
	if got := ExtractTraceID(kafkago.Message{}); got != "" {
		t.Fatalf("ExtractTraceID on empty message = %q", got)
	}
}

func TestWithTraceIDIgnoresEmpty(t *testing.T) {
	ctx := context.Background()
	if got := WithTraceID(ctx, ""); got != ctx {
		t.Fatal("empty trace id should not wrap the context")
	}
	withID := WithTraceID(ctx, "abc")
	if got, _ := withID.Value(CtxTraceID).(string); got != "abc" {
		t.Fatalf("trace id = %q", got)
	}
}
