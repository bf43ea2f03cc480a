package worker

import (
	"context"
	"sync"

	"github.com/UnendingLoop/ImageDrop/internal/model"
	kafkago "github.com/segmentio/kafka-go"
)

type mockEventStore struct {
	createFn func(ctx context.Context, e *model.UploadEvent) error
}

func (m *mockEventStore) Create(ctx context.Context, e *model.UploadEvent) error {
	return m.createFn(ctx, e)
}

//----------------------------------

type mockCommitter struct {
	mu        sync.Mutex
	committed []int64
	err       error
}

func (m *mockCommitter) Commit(ctx context.Context, msg kafkago.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.committed = append(m.committed, msg.Offset)
	return nil
}

func (m *mockCommitter) offsets() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	res := make([]int64, len(m.committed))
	copy(res, m.committed)
	return res
}
