package kafka

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"

	"MacroPulse/pkg/logger"
)

// ConsumerHook observes message handling. BeforeHandle runs ahead of the
// handler and may swap the context, message, or payload; whatever it
// returns is what the handler and the later hook calls see. A non-nil
// error from BeforeHandle skips the handler and sends the message down
// the failure path (OnError, DLQ, commit).
type ConsumerHook interface {
	BeforeHandle(ctx context.Context, topic string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error)
	AfterHandle(ctx context.Context, topic string, km kafka.Message, data []byte, err error)
	OnError(ctx context.Context, topic string, km kafka.Message, data []byte, err error)
}

// NoopHook passes everything through untouched.
type NoopHook struct{}

func (NoopHook) BeforeHandle(ctx context.Context, topic string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
	return ctx, km, data, nil
}

func (NoopHook) AfterHandle(context.Context, string, kafka.Message, []byte, error) {}

func (NoopHook) OnError(context.Context, string, kafka.Message, []byte, error) {}

type ctxKey int

const ctxHandleStart ctxKey = iota

// TimingHook warns about handlers that overrun the slow threshold and
// debug-logs every failed attempt with its partition and offset.
type TimingHook struct {
	lgr  *logger.Logger
	slow time.Duration
}

// NewTimingHook creates the hook. A threshold of zero or less falls back
// to one second.
func NewTimingHook(lgr *logger.Logger, slow time.Duration) *TimingHook {
	if slow <= 0 {
		slow = time.Second
	}
	return &TimingHook{lgr: lgr, slow: slow}
}

func (h *TimingHook) BeforeHandle(ctx context.Context, topic string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
	return context.WithValue(ctx, ctxHandleStart, time.Now()), km, data, nil
}

func (h *TimingHook) AfterHandle(ctx context.Context, topic string, km kafka.Message, data []byte, err error) {
	start, ok := ctx.Value(ctxHandleStart).(time.Time)
	if !ok {
		return
	}
	if elapsed := time.Since(start); elapsed > h.slow {
		h.lgr.Warn("slow message handler",
			logger.String("topic", topic),
			logger.Int64("offset", km.Offset),
			logger.Duration("elapsed", elapsed),
		)
	}
}

func (h *TimingHook) OnError(ctx context.Context, topic string, km kafka.Message, data []byte, err error) {
	h.lgr.Debug("handler attempt failed",
		logger.String("topic", topic),
		logger.Int("partition", km.Partition),
		logger.Int64("offset", km.Offset),
		logger.Error(err),
	)
}

var (
	_ ConsumerHook = NoopHook{}
	_ ConsumerHook = (*TimingHook)(nil)
)
