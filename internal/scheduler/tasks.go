package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskOrphanSweep = "media.orphan_sweep"

type OrphanSweepPayload struct {
	Folder string `json:"folder"`
}

func NewOrphanSweepTask(payload OrphanSweepPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrphanSweep, data), nil
}

func ParseOrphanSweepPayload(task *asynq.Task) (OrphanSweepPayload, error) {
	var payload OrphanSweepPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return OrphanSweepPayload{}, err
	}
	return payload, nil
}
