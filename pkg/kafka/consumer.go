package kafka

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"

	"MacroPulse/pkg/logger"
)

// MessageHandler consumes raw payloads from one topic.
type MessageHandler interface {
	Topic() string
	Handle(context.Context, []byte) error
}

// readPollTimeout bounds a single fetch so the read loop can notice a
// stop request.
const readPollTimeout = 3 * time.Second

// Consumer runs one group reader per registered topic and fans messages
// out to a shared worker pool. Offsets are committed only after a
// message was handled or dead-lettered, and a per-partition lock keeps
// at most one message of a partition in flight, so the pool cannot
// reorder a partition.
type Consumer struct {
	cfg      *ConsumerConfig
	lgr      *logger.Logger
	readers  map[string]*kafka.Reader
	handlers map[string]MessageHandler
	dlq      *kafka.Writer

	msgChan  chan kafka.Message
	stopChan chan struct{}
	stopOnce sync.Once

	readerWg sync.WaitGroup
	workerWg sync.WaitGroup

	lockMu    sync.Mutex
	partLocks map[string]map[int]*sync.Mutex

	hook ConsumerHook
}

// NewConsumer validates the options and prepares a consumer. Readers are
// created in Start, once the handlers are known.
func NewConsumer(lgr *logger.Logger, opts ...ConsumerOption) (*Consumer, error) {
	cfg := &ConsumerConfig{
		GroupID:         "default",
		AutoOffsetReset: "earliest",
		WorkerCount:     1,
		BufferSize:      10,
		RetryMax:        3,
		BackoffMin:      50 * time.Millisecond,
		BackoffMax:      2 * time.Second,
		MinBytes:        10e3,
		MaxBytes:        10e6,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("brokers are required")
	}

	c := &Consumer{
		cfg:       cfg,
		lgr:       lgr,
		readers:   make(map[string]*kafka.Reader),
		handlers:  make(map[string]MessageHandler),
		msgChan:   make(chan kafka.Message, cfg.BufferSize),
		stopChan:  make(chan struct{}),
		partLocks: make(map[string]map[int]*sync.Mutex),
		hook:      NoopHook{},
	}
	if cfg.DLQTopic != "" {
		c.dlq = &kafka.Writer{Addr: kafka.TCP(cfg.Brokers...), Balancer: &kafka.LeastBytes{}}
	}
	initConsumerMetrics()
	return c, nil
}

// WithConsumerHook replaces the default no-op hook.
func (c *Consumer) WithConsumerHook(h ConsumerHook) {
	if h != nil {
		c.hook = h
	}
}

// RegisterHandler binds a handler to its topic; the first registration
// for a topic wins. Register before Start, the handler map is not
// guarded once the workers run.
func (c *Consumer) RegisterHandler(handler MessageHandler) {
	topic := handler.Topic()
	if _, ok := c.handlers[topic]; ok {
		c.lgr.Warn("handler already registered", logger.String("topic", topic))
		return
	}
	c.handlers[topic] = handler
}

// Start creates a reader per registered topic and launches the workers.
func (c *Consumer) Start() error {
	startOffset := kafka.FirstOffset
	if strings.EqualFold(c.cfg.AutoOffsetReset, "latest") {
		startOffset = kafka.LastOffset
	}

	topics := make([]string, 0, len(c.handlers))
	for topic := range c.handlers {
		c.readers[topic] = kafka.NewReader(kafka.ReaderConfig{
			Brokers:     c.cfg.Brokers,
			Topic:       topic,
			GroupID:     c.cfg.GroupID,
			MinBytes:    c.cfg.MinBytes,
			MaxBytes:    c.cfg.MaxBytes,
			StartOffset: startOffset,
		})
		topics = append(topics, topic)
	}

	for i := 0; i < c.cfg.WorkerCount; i++ {
		c.workerWg.Add(1)
		go c.messageWorker()
	}
	for topic, reader := range c.readers {
		c.readerWg.Add(1)
		go c.readLoop(topic, reader)
	}

	c.lgr.Info("kafka consumer running",
		logger.Strings("topics", topics),
		logger.Int("workers", c.cfg.WorkerCount),
	)
	return nil
}

// Stop drains the consumer: readers first, then workers, then the
// underlying connections. Buffered messages are handled before the
// workers exit.
func (c *Consumer) Stop(ctx context.Context) error {
	var stopErr error
	c.stopOnce.Do(func() {
		close(c.stopChan)

		// Readers may be blocked sending into msgChan; they have to be
		// gone before the channel closes.
		err := waitGroup(ctx, &c.readerWg)
		if err == nil {
			close(c.msgChan)
			err = waitGroup(ctx, &c.workerWg)
		}
		stopErr = err

		for topic, reader := range c.readers {
			if cerr := reader.Close(); cerr != nil {
				c.lgr.Warn("reader close error", logger.String("topic", topic), logger.Error(cerr))
			}
		}
		if c.dlq != nil {
			if cerr := c.dlq.Close(); cerr != nil {
				c.lgr.Warn("dead letter writer close error", logger.Error(cerr))
			}
		}
		if stopErr == nil {
			c.lgr.Info("kafka consumer stopped")
		}
	})
	return stopErr
}

func waitGroup(ctx context.Context, wg *sync.WaitGroup) error {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for consumer shutdown: %w", ctx.Err())
	}
}

func (c *Consumer) readLoop(topic string, reader *kafka.Reader) {
	defer c.readerWg.Done()

	for {
		select {
		case <-c.stopChan:
			return
		default:
		}

		ctx, cancel := context.WithTimeout(context.Background(), readPollTimeout)
		km, err := reader.FetchMessage(ctx)
		cancel()
		if err != nil {
			if !errors.Is(err, context.DeadlineExceeded) {
				c.lgr.Warn("kafka fetch error", logger.String("topic", topic), logger.Error(err))
			}
			continue
		}
		if !c.enqueue(km) {
			return
		}
	}
}

// enqueue hands a message to the worker pool. When the buffer runs near
// full the loop backs off instead of spinning, so a slow handler slows
// the reader down rather than dropping messages. Returns false when the
// consumer is stopping.
func (c *Consumer) enqueue(km kafka.Message) bool {
	for {
		select {
		case c.msgChan <- km:
			consumerQueueDepth.WithLabelValues(km.Topic).Set(float64(len(c.msgChan)))
			consumerQueueFullness.WithLabelValues(km.Topic).Set(fullness(c.msgChan))
			return true
		case <-c.stopChan:
			return false
		default:
		}
		full := fullness(c.msgChan)
		consumerQueueFullness.WithLabelValues(km.Topic).Set(full)
		if full > 0.8 {
			time.Sleep(10 * time.Millisecond)
		} else {
			runtime.Gosched()
		}
	}
}

func fullness(ch chan kafka.Message) float64 {
	return float64(len(ch)) / float64(cap(ch))
}

func (c *Consumer) messageWorker() {
	defer c.workerWg.Done()
	for km := range c.msgChan {
		c.process(km)
	}
}

// process runs one message through its handler under the partition lock.
func (c *Consumer) process(km kafka.Message) {
	handler := c.handlers[km.Topic]
	if handler == nil {
		return
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			c.lgr.Error("panic in message handler",
				logger.String("topic", km.Topic),
				logger.String("panic", fmt.Sprintf("%v", r)),
			)
		}
	}()

	lock := c.partitionLock(km.Topic, km.Partition)
	lock.Lock()
	defer lock.Unlock()

	interrupted, err := c.handleWithRetry(handler, km)
	if interrupted {
		// Shutdown mid-retry: the offset stays uncommitted and the
		// message comes back after the rebalance.
		return
	}
	if err != nil {
		c.hook.OnError(context.Background(), km.Topic, km, km.Value, err)
		c.lgr.Error("message handling failed",
			logger.String("topic", km.Topic),
			logger.Int("partition", km.Partition),
			logger.Int64("offset", km.Offset),
			logger.Error(err),
		)
		c.forwardToDLQ(km)
	}

	// Commit on success or once the DLQ holds the message. Without a
	// DLQ a failed offset stays put, blocking the partition rather than
	// silently losing the message.
	if err == nil || c.dlq != nil {
		if reader := c.readers[km.Topic]; reader != nil {
			_ = c.commitWithRetry(reader, km, 3)
		}
	}
	consumerHandleLatency.WithLabelValues(km.Topic).Observe(time.Since(start).Seconds())
}

// handleWithRetry runs the hook and handler cycle with jittered backoff
// between attempts. RetryMax counts retries after the first attempt.
// interrupted reports a shutdown during backoff.
func (c *Consumer) handleWithRetry(handler MessageHandler, km kafka.Message) (interrupted bool, err error) {
	for attempt := 1; ; attempt++ {
		ctx, hkm, data, hookErr := c.hook.BeforeHandle(context.Background(), km.Topic, km, km.Value)
		if hookErr != nil {
			return false, hookErr
		}
		err = handler.Handle(ctx, data)
		c.hook.AfterHandle(ctx, km.Topic, hkm, data, err)
		if err == nil || attempt > c.cfg.RetryMax {
			return false, err
		}
		c.hook.OnError(ctx, km.Topic, hkm, data, err)

		select {
		case <-time.After(jitteredBackoff(c.cfg.BackoffMin, c.cfg.BackoffMax, attempt)):
		case <-c.stopChan:
			return true, err
		}
	}
}

// forwardToDLQ writes an exhausted message to the dead letter topic,
// keeping the original key and recording the source topic in a header.
func (c *Consumer) forwardToDLQ(km kafka.Message) {
	if c.dlq == nil {
		return
	}
	err := c.dlq.WriteMessages(context.Background(), kafka.Message{
		Topic:   c.cfg.DLQTopic,
		Key:     km.Key,
		Value:   km.Value,
		Time:    time.Now(),
		Headers: []kafka.Header{{Key: "source_topic", Value: []byte(km.Topic)}},
	})
	if err != nil {
		c.lgr.Error("dead letter publish failed",
			logger.String("topic", c.cfg.DLQTopic),
			logger.Error(err),
		)
	}
}

// commitWithRetry commits one offset with bounded retries.
func (c *Consumer) commitWithRetry(reader *kafka.Reader, km kafka.Message, max int) error {
	if max <= 0 {
		max = 1
	}
	var err error
	for attempt := 1; attempt <= max; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err = reader.CommitMessages(ctx, km)
		cancel()
		if err == nil {
			return nil
		}
		time.Sleep(jitteredBackoff(50*time.Millisecond, 500*time.Millisecond, attempt))
	}
	c.lgr.Warn("offset commit failed",
		logger.String("topic", km.Topic),
		logger.Int("attempts", max),
		logger.Error(err),
	)
	return err
}

// partitionLock returns the mutex for a topic and partition pair,
// creating it on first use. Workers call this concurrently.
func (c *Consumer) partitionLock(topic string, partition int) *sync.Mutex {
	c.lockMu.Lock()
	defer c.lockMu.Unlock()

	byPart, ok := c.partLocks[topic]
	if !ok {
		byPart = make(map[int]*sync.Mutex)
		c.partLocks[topic] = byPart
	}
	lock, ok := byPart[partition]
	if !ok {
		lock = &sync.Mutex{}
		byPart[partition] = lock
	}
	return lock
}

// jitteredBackoff doubles from min up to max, then shaves off up to half
// the delay so synchronized retries spread out.
func jitteredBackoff(min, max time.Duration, attempt int) time.Duration {
	if min <= 0 {
		min = 50 * time.Millisecond
	}
	if max < min {
		max = min
	}
	d := min
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= max {
			d = max
			break
		}
	}
	if half := int64(d / 2); half > 0 {
		d -= time.Duration(rand.Int63n(half))
	}
	return d
}

var (
	consumerMetricsOnce   sync.Once
	consumerQueueDepth    *prometheus.GaugeVec
	consumerQueueFullness *prometheus.GaugeVec
	consumerHandleLatency *prometheus.HistogramVec
)

func initConsumerMetrics() {
	consumerMetricsOnce.Do(func() {
		consumerQueueDepth = promauto.NewGaugeVec(
			prometheus.GaugeOpts{Name: "macropulse_kafka_consumer_queue_depth", Help: "Messages waiting in the worker buffer"},
			[]string{"topic"},
		)
		consumerQueueFullness = promauto.NewGaugeVec(
			prometheus.GaugeOpts{Name: "macropulse_kafka_consumer_queue_fullness", Help: "Worker buffer utilization, len over cap"},
			[]string{"topic"},
		)
		consumerHandleLatency = promauto.NewHistogramVec(
			prometheus.HistogramOpts{Name: "macropulse_kafka_consumer_handle_seconds", Help: "Handling time per message"},
			[]string{"topic"},
		)
	})
}
