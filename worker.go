package quickdash

import (
	"context"
	"fmt"

	"github.com/RustMunkey/quickdash-sub005/adapters/gojob"
	"github.com/RustMunkey/quickdash-sub005/adapters/gologger"
	"github.com/RustMunkey/quickdash-sub005/core"
	"github.com/RustMunkey/quickdash-sub005/gateway"
	"github.com/RustMunkey/quickdash-sub005/outbound"
)

// NewQueueWorker builds a worker with both async legs registered: the
// inbound processing job feeds the gateway processor and the delivery
// job feeds the outbound executor. Either half may be nil when a
// deployment runs only one direction; its job id is then left
// unregistered and such messages dead-letter.
func NewQueueWorker(
	dequeuer core.JobDequeuer,
	processor *gateway.Processor,
	executor *outbound.Executor,
	logger core.Logger,
) (*gojob.Worker, error) {
	if processor == nil && executor == nil {
		return nil, fmt.Errorf("quickdash: at least one of processor or executor is required")
	}
	_, logger = gologger.Resolve("webhooks.worker", nil, logger)
	worker, err := gojob.NewWorker(dequeuer, logger)
	if err != nil {
		return nil, err
	}

	if processor != nil {
		err = worker.Register(core.JobIDInboundProcess, func(ctx context.Context, msg *core.JobExecutionMessage) error {
			eventID, _ := msg.Parameters["event_id"].(string)
			if eventID == "" {
				return fmt.Errorf("quickdash: inbound job is missing event_id")
			}
			return processor.Process(ctx, eventID)
		})
		if err != nil {
			return nil, err
		}
	}

	if executor != nil {
		err = worker.Register(core.JobIDDeliverySend, func(ctx context.Context, msg *core.JobExecutionMessage) error {
			task, err := outbound.TaskFromParameters(msg.Parameters)
			if err != nil {
				return err
			}
			return executor.Deliver(ctx, task)
		})
		if err != nil {
			return nil, err
		}
	}

	return worker, nil
}
