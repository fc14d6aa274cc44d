package ws

import (
	"encoding/json"
	"time"

	"metro-scrape/internal/domain/market"
)

const EventJobProgress = "job_progress"

type JobProgressEvent struct {
	Type           string           `json:"type"`
	JobID          string           `json:"jobId"`
	Status         market.JobStatus `json:"status"`
	Completed      int              `json:"completed"`
	Total          int              `json:"total"`
	CurrentZipCode string           `json:"currentZipCode"`
	Progress       int              `json:"progress"`
	Timestamp      string           `json:"timestamp"`
}

func NewJobProgressEvent(job market.ScrapeJob) JobProgressEvent {
	return JobProgressEvent{
		Type:           EventJobProgress,
		JobID:          job.ID,
		Status:         job.Status,
		Completed:      job.CompletedZipCodes,
		Total:          job.TotalZipCodes,
		CurrentZipCode: job.CurrentZipCode,
		Progress:       job.ProgressPercent(),
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
	}
}

// PublishProgress satisfies the scrape orchestrator's publisher hook.
func (h *Hub) PublishProgress(job market.ScrapeJob) {
	if h == nil || job.ID == "" {
		return
	}
	b, err := json.Marshal(NewJobProgressEvent(job))
	if err != nil {
		return
	}
	h.Broadcast(job.ID, b)
}
