package history

import (
	"fmt"
	"time"
)

// SavedVideo represents the gating progress of a single video preserved in the user's history.
type SavedVideo struct {
	VideoID        string    `json:"video_id"`
	Source         string    `json:"source"`
	Frontier       int       `json:"frontier"`
	PassedSegments []string  `json:"passed_segments"`
	LastPosition   float64   `json:"last_position"`
	SegmentCount   int       `json:"segment_count"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (s *SavedVideo) encode() string {
	return fmt.Sprintf("%s (%s)", s.Source, s.VideoID)
}

func (s *SavedVideo) String() string {
	return fmt.Sprintf("%s : %d / %d", s.Source, s.Frontier+1, s.SegmentCount)
}
