// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package workers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
)

// orderWorker records its lifecycle calls into a shared journal.
type orderWorker struct {
	id       string
	journal  *[]string
	startErr error
}

func (o *orderWorker) Start(context.Context) error {
	*o.journal = append(*o.journal, "start "+o.id)
	return o.startErr
}

func (o *orderWorker) Stop() {
	*o.journal = append(*o.journal, "stop "+o.id)
}

func newJournal(ids ...string) (*Workers, *[]string, map[string]*orderWorker) {
	journal := &[]string{}
	ws := New(logger.Nop())
	byID := make(map[string]*orderWorker)
	for _, id := range ids {
		w := &orderWorker{id: id, journal: journal}
		byID[id] = w
		ws.Add(id, w)
	}
	return ws, journal, byID
}

func TestWorkers_StartInOrderStopInReverse(t *testing.T) {
	ws, journal, _ := newJournal("monitor", "coordinator", "live")

	require.NoError(t, ws.Start(context.Background()))
	ws.Stop()

	assert.Equal(t, []string{
		"start monitor", "start coordinator", "start live",
		"stop live", "stop coordinator", "stop monitor",
	}, *journal)
}

func TestWorkers_FailedStartUnwinds(t *testing.T) {
	ws, journal, byID := newJournal("monitor", "coordinator", "live")
	boom := errors.New("boom")
	byID["coordinator"].startErr = boom

	err := ws.Start(context.Background())

	require.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "start coordinator")
	assert.Equal(t, []string{"start monitor", "start coordinator", "stop monitor"}, *journal)
}

func TestWorkers_StopIsIdempotent(t *testing.T) {
	ws, journal, _ := newJournal("a")

	require.NoError(t, ws.Start(context.Background()))
	require.NoError(t, ws.Start(context.Background()))
	ws.Stop()
	ws.Stop()

	assert.Equal(t, []string{"start a", "stop a"}, *journal)
}

func TestWorkers_NilWorkerIsSkipped(t *testing.T) {
	ws := New(logger.Nop()).Add("live", nil)

	assert.Empty(t, ws.workers)
	assert.NoError(t, ws.Start(context.Background()))
	ws.Stop()
}
