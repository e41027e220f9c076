package camunda

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type handlerFunc func(client worker.JobClient, job entities.Job) error

func (f handlerFunc) Handle(client worker.JobClient, job entities.Job) error { return f(client, job) }

type recordedJob struct {
	taskType string
	status   string
}

type fakeRecorder struct {
	mu        sync.Mutex
	processed []recordedJob
	durations []recordedJob
}

func (r *fakeRecorder) RecordJobProcessed(_ context.Context, taskType, status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.processed = append(r.processed, recordedJob{taskType, status})
}

func (r *fakeRecorder) RecordJobDuration(_ context.Context, taskType string, _ time.Duration, status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.durations = append(r.durations, recordedJob{taskType, status})
}

func testJob() entities.Job {
	return entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 42, Type: "resolve-template"}}
}

// ==========================
// Instrumentation Tests
// ==========================

func TestInstrument_RecordsOutcome(t *testing.T) {
	tests := []struct {
		name       string
		handlerErr error
		wantStatus string
	}{
		{name: "completed job", wantStatus: "completed"},
		{name: "failed job", handlerErr: stderrors.New("template not found"), wantStatus: "failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := &fakeRecorder{}
			calls := 0
			handler := handlerFunc(func(_ worker.JobClient, job entities.Job) error {
				calls++
				assert.Equal(t, int64(42), job.Key)
				return tt.handlerErr
			})

			instrument("resolve-template", handler, recorder)(nil, testJob())

			assert.Equal(t, 1, calls)
			want := []recordedJob{{taskType: "resolve-template", status: tt.wantStatus}}
			assert.Equal(t, want, recorder.processed)
			assert.Equal(t, want, recorder.durations)
		})
	}
}

func TestInstrument_NilRecorder(t *testing.T) {
	handler := handlerFunc(func(worker.JobClient, entities.Job) error { return nil })

	require.NotPanics(t, func() {
		instrument("resolve-template", handler, nil)(nil, testJob())
	})
}
