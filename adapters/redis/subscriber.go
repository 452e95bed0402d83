package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dysodeng/remoting/contract"
	"github.com/dysodeng/remoting/message"
	"github.com/dysodeng/remoting/observability"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Subscriber 模式订阅管理
type Subscriber struct {
	client        redis.UniversalClient
	logger        *zap.Logger
	metrics       *observability.MetricsRecorder
	chain         *contract.MiddlewareChain
	workers       *WorkerPool
	subscriptions map[string]*subscription
	mu            sync.Mutex
	closed        bool
}

// subscription 一次PSubscribe调用对应的订阅
type subscription struct {
	pubsub   *redis.PubSub
	patterns map[string]struct{}
	handler  message.Handler
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewSubscriber 创建订阅管理
func NewSubscriber(client redis.UniversalClient, workers *WorkerPool, chain *contract.MiddlewareChain, logger *zap.Logger, metrics *observability.MetricsRecorder) *Subscriber {
	if chain == nil {
		chain = contract.NewMiddlewareChain()
	}
	return &Subscriber{
		client:        client,
		logger:        logger,
		metrics:       metrics,
		chain:         chain,
		workers:       workers,
		subscriptions: make(map[string]*subscription),
	}
}

// PSubscribe 按模式订阅，订阅确认后返回
func (s *Subscriber) PSubscribe(ctx context.Context, handler message.Handler, patterns ...string) error {
	if len(patterns) == 0 {
		return contract.NewClientError(contract.ErrCodeInvalidArgument, "no pattern to subscribe", nil)
	}
	if handler == nil {
		return contract.NewClientError(contract.ErrCodeInvalidArgument, "handler is nil", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return contract.ErrClientClosed
	}
	for _, pattern := range patterns {
		if _, exists := s.subscriptions[pattern]; exists {
			return fmt.Errorf("pattern %s already subscribed", pattern)
		}
	}

	pubsub := s.client.PSubscribe(ctx, patterns...)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("psubscribe failed: %w", err)
	}

	subCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	sub := &subscription{
		pubsub:   pubsub,
		patterns: make(map[string]struct{}, len(patterns)),
		handler:  s.chain.Apply(handler),
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	for _, pattern := range patterns {
		sub.patterns[pattern] = struct{}{}
		s.subscriptions[pattern] = sub
	}

	go s.receiveLoop(subCtx, sub)

	s.logger.Info("psubscribed", zap.Strings("patterns", patterns))
	return nil
}

// receiveLoop 接收循环
func (s *Subscriber) receiveLoop(ctx context.Context, sub *subscription) {
	defer close(sub.done)

	ch := sub.pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-ch:
			if !ok {
				return
			}
			msg := &message.Message{
				Channel:    m.Channel,
				Pattern:    m.Pattern,
				Payload:    m.Payload,
				ReceivedAt: time.Now(),
			}
			s.metrics.RecordMessageReceived(ctx, m.Pattern)
			if !s.workers.Submit(ctx, &Task{Message: msg, Handler: sub.handler}) {
				return
			}
		}
	}
}

// PUnsubscribe 取消模式订阅，一次订阅的模式全部取消后关闭该订阅
func (s *Subscriber) PUnsubscribe(patterns ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, pattern := range patterns {
		sub, exists := s.subscriptions[pattern]
		if !exists {
			continue
		}
		delete(s.subscriptions, pattern)
		delete(sub.patterns, pattern)

		if len(sub.patterns) == 0 {
			s.stop(sub)
		} else if err := sub.pubsub.PUnsubscribe(context.Background(), pattern); err != nil {
			return fmt.Errorf("punsubscribe %s failed: %w", pattern, err)
		}
		s.logger.Info("punsubscribed", zap.String("pattern", pattern))
	}
	return nil
}

// stop 关闭订阅并等待接收循环结束
func (s *Subscriber) stop(sub *subscription) {
	sub.cancel()
	if err := sub.pubsub.Close(); err != nil {
		s.logger.Warn("close pubsub failed", zap.Error(err))
	}
	<-sub.done
}

// Close 关闭全部订阅
func (s *Subscriber) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	stopped := make(map[*subscription]struct{})
	for pattern, sub := range s.subscriptions {
		if _, ok := stopped[sub]; !ok {
			s.stop(sub)
			stopped[sub] = struct{}{}
		}
		delete(s.subscriptions, pattern)
	}
	s.workers.Stop()
	return nil
}
