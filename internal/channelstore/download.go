package channelstore

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"golang.org/x/time/rate"
)

// DownloadJob is one queued attachment fetch.
type DownloadJob struct {
	ChannelID string
	LocalPath string // relative to workspace root, as produced by AttachmentLocalPath
	URL       string
}

// DownloadQueue processes attachment downloads with at most one concurrent
// HTTP fetch, per spec §4.4. Failures are logged, never fatal to the run
// that enqueued them — the metadata line was already written regardless.
type DownloadQueue struct {
	workspaceDir string
	limiter      *rate.Limiter
	jobs         chan DownloadJob
	client       *http.Client
}

// NewDownloadQueue starts the single background worker. bufferSize bounds
// how many pending downloads may queue before Enqueue blocks.
func NewDownloadQueue(ctx context.Context, workspaceDir string, bufferSize int) *DownloadQueue {
	q := &DownloadQueue{
		workspaceDir: workspaceDir,
		limiter:      rate.NewLimiter(rate.Limit(1), 1),
		jobs:         make(chan DownloadJob, bufferSize),
		client:       &http.Client{},
	}
	go q.run(ctx)
	return q
}

func (q *DownloadQueue) Enqueue(job DownloadJob) {
	q.jobs <- job
}

func (q *DownloadQueue) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-q.jobs:
			if err := q.limiter.Wait(ctx); err != nil {
				return
			}
			if err := q.fetch(ctx, job); err != nil {
				slog.Warn("channelstore: attachment download failed",
					"channel", job.ChannelID, "url", job.URL, "error", err)
			}
		}
	}
}

func (q *DownloadQueue) fetch(ctx context.Context, job DownloadJob) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, job.URL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := q.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	dest := filepath.Join(q.workspaceDir, job.LocalPath)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create attachment dir: %w", err)
	}

	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create attachment file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return fmt.Errorf("write attachment: %w", err)
	}
	return nil
}
