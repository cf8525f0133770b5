package service

import "errors"

var (
	// ErrNoRequirements indicates a role with an empty requirement list.
	ErrNoRequirements = errors.New("role has no requirements")

	// ErrQueueRejected indicates the recompute queue refused a job.
	ErrQueueRejected = errors.New("recompute queue rejected job")
)
