package jobqueue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobStatusConstants(t *testing.T) {
	assert.Equal(t, "pending", string(JobStatusPending))
	assert.Equal(t, "processing", string(JobStatusProcessing))
	assert.Equal(t, "completed", string(JobStatusCompleted))
	assert.Equal(t, "failed", string(JobStatusFailed))
	assert.Equal(t, "retrying", string(JobStatusRetrying))
	assert.Equal(t, "calendar_event_delete", string(JobTypeCalendarEventDelete))
}

func TestJob_StateTransitions(t *testing.T) {
	job := &Job{Status: JobStatusFailed, RetryCount: 1, MaxRetries: 3}
	assert.True(t, job.IsRetryable())

	job.RetryCount = 3
	assert.False(t, job.IsRetryable())

	before := time.Now()
	job.MarkAsProcessing()
	assert.Equal(t, JobStatusProcessing, job.Status)
	require.NotNil(t, job.ProcessedAt)
	assert.False(t, job.UpdatedAt.Before(before))
	assert.False(t, job.IsRetryable(), "only failed jobs are retryable")

	job.MarkAsFailed("boom")
	assert.Equal(t, JobStatusFailed, job.Status)
	assert.Equal(t, "boom", job.ErrorMsg)
	assert.Equal(t, 4, job.RetryCount)

	job.MarkAsRetrying()
	assert.Equal(t, JobStatusRetrying, job.Status)

	job.MarkAsCompleted()
	assert.Equal(t, JobStatusCompleted, job.Status)
	assert.NotNil(t, job.CompletedAt)
	assert.Empty(t, job.ErrorMsg)
}

func TestCalendarEventDeletePayload_ToMap(t *testing.T) {
	full := CalendarEventDeletePayload{UserID: "user-1", EventID: "evt1", InstallmentID: "inst-1", Link: "https://x|evt1"}
	assert.Equal(t, map[string]interface{}{
		"user_id":        "user-1",
		"event_id":       "evt1",
		"installment_id": "inst-1",
		"link":           "https://x|evt1",
	}, full.ToMap())

	bare := CalendarEventDeletePayload{UserID: "user-1", EventID: "evt1"}
	m := bare.ToMap()
	assert.NotContains(t, m, "installment_id")
	assert.NotContains(t, m, "link")

	parsed, err := CalendarEventDeletePayloadFromMap(full.ToMap())
	require.NoError(t, err)
	assert.Equal(t, full, *parsed)
}

func TestCalendarEventDeletePayloadFromMap_Invalid(t *testing.T) {
	payload, err := CalendarEventDeletePayloadFromMap(map[string]interface{}{"invalid": make(chan int)})
	assert.Error(t, err)
	assert.Nil(t, payload)

	payload, err = CalendarEventDeletePayloadFromMap(map[string]interface{}{"event_id": 42})
	assert.Error(t, err)
	assert.Nil(t, payload)
}
