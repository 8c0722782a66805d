package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"orderflow/internal/core/application/usecases/commands"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockLeaseReclaimer struct {
	mock.Mock
}

func (m *MockLeaseReclaimer) ReclaimExpired(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type MockOutboxRelayer struct {
	mock.Mock
}

func (m *MockOutboxRelayer) Handle(ctx context.Context, cmd commands.RelayOutboxCommand) (int, error) {
	args := m.Called(ctx, cmd)
	return args.Int(0), args.Error(1)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLeaseReaperJob_Run(t *testing.T) {
	t.Run("should reclaim expired leases", func(t *testing.T) {
		reclaimer := new(MockLeaseReclaimer)
		reclaimer.On("ReclaimExpired", mock.Anything).Return(2, nil).Once()

		NewLeaseReaperJob(reclaimer, discardLogger()).run()

		reclaimer.AssertExpectations(t)
	})

	t.Run("should survive a failed sweep", func(t *testing.T) {
		reclaimer := new(MockLeaseReclaimer)
		reclaimer.On("ReclaimExpired", mock.Anything).Return(0, errors.New("redis down")).Once()

		assert.NotPanics(t, NewLeaseReaperJob(reclaimer, discardLogger()).run)
		reclaimer.AssertExpectations(t)
	})
}

func TestOutboxRelayJob_Run(t *testing.T) {
	t.Run("should keep relaying while batches come back full", func(t *testing.T) {
		relayer := new(MockOutboxRelayer)
		relayer.On("Handle", mock.Anything, mock.Anything).Return(10, nil).Twice()
		relayer.On("Handle", mock.Anything, mock.Anything).Return(3, nil).Once()

		NewOutboxRelayJob(relayer, 10, discardLogger()).Run()

		relayer.AssertNumberOfCalls(t, "Handle", 3)
	})

	t.Run("should stop at the first failed batch", func(t *testing.T) {
		relayer := new(MockOutboxRelayer)
		relayer.On("Handle", mock.Anything, mock.Anything).Return(0, errors.New("db down")).Once()

		NewOutboxRelayJob(relayer, 10, discardLogger()).Run()

		relayer.AssertNumberOfCalls(t, "Handle", 1)
	})

	t.Run("should pass the configured batch size", func(t *testing.T) {
		relayer := new(MockOutboxRelayer)
		relayer.On("Handle", mock.Anything, mock.MatchedBy(func(cmd commands.RelayOutboxCommand) bool {
			return cmd.BatchSize() == 25
		})).Return(0, nil).Once()

		NewOutboxRelayJob(relayer, 25, discardLogger()).Run()

		relayer.AssertExpectations(t)
	})

	t.Run("should skip a trigger while a run is in progress", func(t *testing.T) {
		release := make(chan struct{})
		entered := make(chan struct{})
		relayer := new(MockOutboxRelayer)
		relayer.On("Handle", mock.Anything, mock.Anything).
			Run(func(mock.Arguments) {
				close(entered)
				<-release
			}).
			Return(0, nil).Once()

		job := NewOutboxRelayJob(relayer, 10, discardLogger())

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			job.Run()
		}()
		<-entered

		job.Run()
		close(release)
		wg.Wait()

		relayer.AssertNumberOfCalls(t, "Handle", 1)
	})

	t.Run("should reject an invalid batch size", func(t *testing.T) {
		assert.Panics(t, func() {
			NewOutboxRelayJob(new(MockOutboxRelayer), 0, discardLogger())
		})
	})
}

func TestOutboxRelayJob_Schedule(t *testing.T) {
	relayer := new(MockOutboxRelayer)
	called := make(chan struct{}, 10)
	relayer.On("Handle", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { called <- struct{}{} }).
		Return(0, nil)

	job := NewOutboxRelayJob(relayer, 10, discardLogger())
	require.NoError(t, job.Start())
	defer job.Stop()

	select {
	case <-called:
	case <-time.After(3 * time.Second):
		t.Fatal("relay was not scheduled")
	}
}

type fakeJob struct {
	name     string
	startErr error
	log      *[]string
}

func (j fakeJob) Name() string { return j.name }

func (j fakeJob) Start() error {
	if j.startErr != nil {
		return j.startErr
	}
	*j.log = append(*j.log, "start "+j.name)
	return nil
}

func (j fakeJob) Stop() {
	*j.log = append(*j.log, "stop "+j.name)
}

func TestJobManager(t *testing.T) {
	t.Run("should start in order and stop in reverse", func(t *testing.T) {
		var log []string
		jm := NewJobManager(discardLogger(),
			fakeJob{name: "a", log: &log},
			fakeJob{name: "b", log: &log},
		)

		require.NoError(t, jm.StartAll())
		jm.StopAll()

		assert.Equal(t, []string{"start a", "start b", "stop b", "stop a"}, log)
	})

	t.Run("should stop started jobs when one fails to start", func(t *testing.T) {
		var log []string
		jm := NewJobManager(discardLogger(),
			fakeJob{name: "a", log: &log},
			fakeJob{name: "b", log: &log, startErr: errors.New("bad schedule")},
			fakeJob{name: "c", log: &log},
		)

		err := jm.StartAll()

		require.ErrorContains(t, err, "failed to start b job")
		assert.Equal(t, []string{"start a", "stop a"}, log)
	})
}
