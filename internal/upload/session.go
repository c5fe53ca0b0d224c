package upload

import (
	"context"
	"errors"
	"fmt"
	"math"

	"google.golang.org/api/youtube/v3"
)

var ErrUploadFailed = errors.New("upload failed")

// Transfer sends a resumable payload one chunk at a time. Each call returns
// either the fraction sent so far with a nil video, or the final resource.
type Transfer interface {
	NextChunk(ctx context.Context) (progress float64, video *youtube.Video, err error)
}

type State int

const (
	Pending State = iota
	InProgress
	Complete
	Failed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case InProgress:
		return "in_progress"
	case Complete:
		return "complete"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Status is a snapshot of a session. Progress is set while InProgress,
// ResourceID and Video once Complete, Err once Failed.
type Status struct {
	State      State
	Progress   float64
	ResourceID string
	Video      *youtube.Video
	Err        error
}

func (s Status) Terminal() bool {
	return s.State == Complete || s.State == Failed
}

// Percent is the whole percentage reported for an in-progress chunk.
func (s Status) Percent() int {
	return int(math.Floor(s.Progress * 100))
}

// Session drives a Transfer to completion. It is not safe for concurrent use.
type Session struct {
	transfer Transfer
	status   Status
}

func NewSession(t Transfer) *Session {
	return &Session{transfer: t, status: Status{State: Pending}}
}

func (s *Session) Status() Status {
	return s.status
}

// Advance sends the next chunk and returns the resulting state. A session in
// a terminal state stays there.
func (s *Session) Advance(ctx context.Context) Status {
	if s.status.Terminal() {
		return s.status
	}

	progress, video, err := s.transfer.NextChunk(ctx)
	switch {
	case err != nil:
		s.status = Status{State: Failed, Err: fmt.Errorf("%w: %w", ErrUploadFailed, err)}
	case video != nil && video.Id == "":
		s.status = Status{State: Failed, Err: fmt.Errorf("%w: response carried no video id", ErrUploadFailed)}
	case video != nil:
		s.status = Status{State: Complete, Progress: 1, ResourceID: video.Id, Video: video}
	default:
		s.status = Status{State: InProgress, Progress: progress}
	}
	return s.status
}

// ProgressFunc receives the whole percentage after each non-final chunk.
type ProgressFunc func(percent int)

// ProgressMessage is the line shown to the user for a progress report.
func ProgressMessage(percent int) string {
	return fmt.Sprintf("Uploaded %d%%", percent)
}

// Run advances t until it completes or fails and returns the resource id.
// There is no chunk retry: the first error ends the upload.
func Run(ctx context.Context, t Transfer, progress ProgressFunc) (string, error) {
	s := NewSession(t)
	for {
		st := s.Advance(ctx)
		switch st.State {
		case InProgress:
			if progress != nil {
				progress(st.Percent())
			}
		case Complete:
			return st.ResourceID, nil
		case Failed:
			return "", st.Err
		}
	}
}
