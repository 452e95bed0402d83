package redis

import (
	"context"
	"sync"
	"time"

	"github.com/dysodeng/remoting/message"
	"github.com/dysodeng/remoting/observability"
	"go.uber.org/zap"
)

// WorkerPool 订阅消息处理工作池
type WorkerPool struct {
	workerCount int
	tasks       chan *Task
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	stopOnce    sync.Once
	logger      *zap.Logger
	metrics     *observability.MetricsRecorder
}

// Task 任务
type Task struct {
	Message *message.Message
	Handler message.Handler
}

// NewWorkerPool 创建工作池
func NewWorkerPool(workerCount, bufferSize int, logger *zap.Logger, metrics *observability.MetricsRecorder) *WorkerPool {
	if workerCount <= 0 {
		workerCount = 1
	}
	if bufferSize < 0 {
		bufferSize = 0
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &WorkerPool{
		workerCount: workerCount,
		tasks:       make(chan *Task, bufferSize),
		ctx:         ctx,
		cancel:      cancel,
		logger:      logger,
		metrics:     metrics,
	}
}

// Start 启动工作池
func (wp *WorkerPool) Start() {
	for i := 0; i < wp.workerCount; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// worker 工作协程
func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for {
		select {
		case <-wp.ctx.Done():
			return
		case task := <-wp.tasks:
			start := time.Now()
			err := task.Handler(wp.ctx, task.Message)
			if err != nil {
				wp.metrics.RecordHandlerError(wp.ctx, task.Message.Pattern)
				wp.logger.Error("message handling failed",
					zap.Int("worker_id", id),
					zap.String("channel", task.Message.Channel),
					zap.String("pattern", task.Message.Pattern),
					zap.Duration("duration", time.Since(start)),
					zap.Error(err),
				)
			}
		}
	}
}

// Submit 提交任务，缓冲区满时阻塞直到被接收或ctx取消
func (wp *WorkerPool) Submit(ctx context.Context, task *Task) bool {
	if wp.ctx.Err() != nil {
		return false
	}
	select {
	case wp.tasks <- task:
		return true
	case <-ctx.Done():
		return false
	case <-wp.ctx.Done():
		return false
	}
}

// Stop 停止工作池并等待处理中的任务结束
func (wp *WorkerPool) Stop() {
	wp.stopOnce.Do(func() {
		wp.cancel()
		wp.wg.Wait()
	})
}

// Stats 获取缓冲区使用情况
func (wp *WorkerPool) Stats() (int, int) {
	return len(wp.tasks), cap(wp.tasks)
}
