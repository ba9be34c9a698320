package scheduler

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	"furbabies_backend/internal/storage"
	"furbabies_backend/platform/config"
	"furbabies_backend/platform/logger"
)

// Worker runs the background task server.
type Worker struct {
	server  *asynq.Server
	mux     *asynq.ServeMux
	sweeper *Sweeper
	log     *logger.Logger
}

// NewWorker wires the asynq server and its task handlers.
func NewWorker(cfg config.SchedulerConfig, store storage.ObjectStore, keys KeyLister, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:  server,
		mux:     mux,
		sweeper: NewSweeper(store, keys, cfg.GetOrphanGracePeriod(), log),
		log:     log,
	}

	mux.HandleFunc(TaskOrphanSweep, w.handleOrphanSweep)

	return w, nil
}

func (w *Worker) handleOrphanSweep(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseOrphanSweepPayload(task)
	if err != nil {
		return err
	}

	_, err = w.sweeper.Sweep(ctx, payload.Folder)
	return err
}

// Run serves tasks until ctx is canceled.
func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler_worker_stopped", "error", err.Error())
	}
}
