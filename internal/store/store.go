// Package store provides the durable task store that bridges the outbound
// (issuer) and inbound (correlator) paths of the relay.
package store

import (
	"context"

	"github.com/missionctl/taskrelay/internal/domain"
)

// Store is the shared, externally visible record of tasks keyed by id.
//
// Put unconditionally overwrites any prior record for the task's id;
// writes are last-write-wins with no conflict detection. Get returns
// domain.ErrTaskNotFound for unknown ids. Implementations must be
// read-after-write consistent: once Put returns, a subsequent Get from any
// caller observes the written record, so a poll interval is a latency choice
// rather than a staleness workaround. Discovery is by direct key lookup only;
// there is no listing interface.
type Store interface {
	Put(ctx context.Context, task *domain.Task) error
	Get(ctx context.Context, id string) (*domain.Task, error)
	Ping(ctx context.Context) error
}
