package transcriptionController

import (
	"context"

	. "journal/internal/models"
	"journal/internal/services"
	"journal/pkg/logger"

	"github.com/google/uuid"
)

type WorkerRequest struct {
	BatchSize *int `json:"batchSize,omitempty"`
}

type TranscriptionControllerInterface interface {
	Queue(ctx context.Context, userID uuid.UUID, memoryID string) services.QueueResult
	Retry(ctx context.Context, userID uuid.UUID, memoryID string) services.QueueResult
	Status(ctx context.Context, userID uuid.UUID, memoryID string) ([]*MemoryMedia, error)
	RunWorker(ctx context.Context, request WorkerRequest) (services.WorkerResult, error)
}

type TranscriptionController struct {
	queue     *services.TranscriptionQueueService
	worker    *services.TranscriptionWorkerService
	batchSize int
	log       logger.Logger
}

func New(services services.Service, batchSize int) TranscriptionControllerInterface {
	return &TranscriptionController{
		queue:     services.TranscriptionQueue,
		worker:    services.TranscriptionWorker,
		batchSize: batchSize,
		log:       logger.New("transcriptionController"),
	}
}

func (c *TranscriptionController) Queue(
	ctx context.Context,
	userID uuid.UUID,
	memoryID string,
) services.QueueResult {
	return c.queue.Queue(ctx, memoryID, userID)
}

func (c *TranscriptionController) Retry(
	ctx context.Context,
	userID uuid.UUID,
	memoryID string,
) services.QueueResult {
	return c.queue.Retry(ctx, memoryID, userID)
}

func (c *TranscriptionController) Status(
	ctx context.Context,
	userID uuid.UUID,
	memoryID string,
) ([]*MemoryMedia, error) {
	media, err := c.queue.Status(ctx, memoryID, userID)
	if err != nil {
		return nil, err
	}
	if media == nil {
		media = []*MemoryMedia{}
	}
	return media, nil
}

// RunWorker processes one batch on demand. The configured batch size applies when the
// request does not name one.
func (c *TranscriptionController) RunWorker(
	ctx context.Context,
	request WorkerRequest,
) (services.WorkerResult, error) {
	log := c.log.TraceFromContext(ctx).Function("RunWorker")

	batchSize := c.batchSize
	if request.BatchSize != nil {
		batchSize = *request.BatchSize
	}

	result, err := c.worker.Run(ctx, batchSize)
	if err != nil {
		return result, err
	}

	log.Info("Worker run triggered", "processed", result.Processed, "failed", result.Failed)
	return result, nil
}
