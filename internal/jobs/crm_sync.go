package jobs

import (
	"context"
	"fmt"
	"time"

	"encore/internal/logger"
	queue "encore/internal/queue/iface"
	"encore/internal/registry"
)

// CRMSyncID is the registry id of the CRM synchronization job
const CRMSyncID = "crm-sync"

// CRMSyncRequest asks the CRM worker to run one synchronization pass
type CRMSyncRequest struct {
	RequestedAt time.Time `json:"requested_at"`
	RunID       string    `json:"run_id"`
}

// CRMSync hands a sync request to the CRM queue. The sync itself runs downstream.
type CRMSync struct {
	publisher queue.Publisher
	now       func() time.Time
	logger    logger.Logger
}

// NewCRMSync creates the CRM sync task
func NewCRMSync(publisher queue.Publisher, log logger.Logger) *CRMSync {
	return &CRMSync{
		publisher: publisher,
		now:       time.Now,
		logger:    log.With(logger.String("job", CRMSyncID)),
	}
}

func (j *CRMSync) ID() string { return CRMSyncID }

func (j *CRMSync) Run(ctx context.Context) error {
	req := CRMSyncRequest{
		RequestedAt: j.now().UTC(),
		RunID:       registry.RunID(ctx),
	}

	if err := j.publisher.Send(ctx, req); err != nil {
		return fmt.Errorf("failed to request crm sync: %w", err)
	}

	j.logger.Info("crm sync requested",
		logger.String("run_id", req.RunID),
	)
	return nil
}
