package kafka

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"
)

// ConsumerHook wraps message handling. BeforeHandle may replace the context
// or payload; an error from it skips the handler and counts as a failure.
type ConsumerHook interface {
	BeforeHandle(ctx context.Context, km kafka.Message) (context.Context, []byte, error)
	AfterHandle(ctx context.Context, km kafka.Message, err error)
}

type NoopHook struct{}

func (NoopHook) BeforeHandle(ctx context.Context, km kafka.Message) (context.Context, []byte, error) {
	return ctx, km.Value, nil
}

func (NoopHook) AfterHandle(context.Context, kafka.Message, error) {}

// HookFuncs adapts plain functions; nil functions are no-ops.
type HookFuncs struct {
	Before func(context.Context, kafka.Message) (context.Context, []byte, error)
	After  func(context.Context, kafka.Message, error)
}

func (h HookFuncs) BeforeHandle(ctx context.Context, km kafka.Message) (context.Context, []byte, error) {
	if h.Before == nil {
		return ctx, km.Value, nil
	}
	return h.Before(ctx, km)
}

func (h HookFuncs) AfterHandle(ctx context.Context, km kafka.Message, err error) {
	if h.After != nil {
		h.After(ctx, km, err)
	}
}

// HookChain runs BeforeHandle in order and AfterHandle in reverse.
// A panicking hook is converted to an error and never crashes a worker.
type HookChain struct {
	hooks []ConsumerHook
}

func NewHookChain(hooks ...ConsumerHook) *HookChain {
	filtered := make([]ConsumerHook, 0, len(hooks))
	for _, h := range hooks {
		if h != nil {
			filtered = append(filtered, h)
		}
	}
	return &HookChain{hooks: filtered}
}

func (c *HookChain) BeforeHandle(ctx context.Context, km kafka.Message) (context.Context, []byte, error) {
	for _, h := range c.hooks {
		var (
			next = ctx
			data []byte
			err  error
		)
		func() {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("hook panic: %v", r)
				}
			}()
			next, data, err = h.BeforeHandle(ctx, km)
		}()
		if err != nil {
			return ctx, km.Value, err
		}
		ctx = next
		km.Value = data
	}
	return ctx, km.Value, nil
}

func (c *HookChain) AfterHandle(ctx context.Context, km kafka.Message, err error) {
	for i := len(c.hooks) - 1; i >= 0; i-- {
		func() {
			defer func() { _ = recover() }()
			c.hooks[i].AfterHandle(ctx, km, err)
		}()
	}
}

type ctxKey string

const ctxTraceID ctxKey = "kafka_trace_id"

// TraceIDHook copies the trace_id header into the handler context.
func TraceIDHook() ConsumerHook {
	return HookFuncs{Before: func(ctx context.Context, km kafka.Message) (context.Context, []byte, error) {
		for _, h := range km.Headers {
			if h.Key == "trace_id" && len(h.Value) > 0 {
				return context.WithValue(ctx, ctxTraceID, string(h.Value)), km.Value, nil
			}
		}
		return ctx, km.Value, nil
	}}
}

// TraceID returns the trace id set by TraceIDHook.
func TraceID(ctx context.Context) string {
	s, _ := ctx.Value(ctxTraceID).(string)
	return s
}
