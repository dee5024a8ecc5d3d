// Package api provides a typed client for the segmentation and quiz backend.
package api

import (
	"fmt"
	"net/http"

	"github.com/ivq-cli/ivq/log"
	"github.com/ivq-cli/ivq/segment"
	"github.com/ivq-cli/ivq/timestamp"
)

// segmentDTO mirrors the backend's segment representation, with segment
// boundaries as clock strings.
type segmentDTO struct {
	ID           string   `json:"id"`
	VideoID      string   `json:"video_id"`
	Index        int      `json:"index"`
	StartTime    string   `json:"start_time"`
	EndTime      string   `json:"end_time"`
	TopicTitle   string   `json:"topic_title"`
	ShortSummary string   `json:"short_summary"`
	Keywords     []string `json:"keywords"`
	IsLocked     bool     `json:"is_locked"`
}

// RegisterVideo announces a video to the backend and returns its server-side identifier.
func (c *Client) RegisterVideo(sourceURL string, durationSeconds float64) (string, error) {
	log.Infof("registering video %s (%.0fs)", sourceURL, durationSeconds)

	var out struct {
		VideoID         string  `json:"video_id"`
		DurationSeconds float64 `json:"duration_seconds"`
		SegmentsCount   int     `json:"segments_count"`
	}

	err := c.do(http.MethodPost, "/video/upload", map[string]any{
		"video_url":        sourceURL,
		"duration_seconds": durationSeconds,
	}, &out)
	if err != nil {
		return "", err
	}

	log.Infof("registered video %s with %d segments", out.VideoID, out.SegmentsCount)
	return out.VideoID, nil
}

// Segments fetches the ordered segment sequence for a registered video.
func (c *Client) Segments(videoID string) ([]*segment.Segment, error) {
	var dtos []segmentDTO
	if err := c.do(http.MethodGet, fmt.Sprintf("/video/%s/segments", videoID), nil, &dtos); err != nil {
		return nil, err
	}

	segments := make([]*segment.Segment, 0, len(dtos))
	for _, dto := range dtos {
		segments = append(segments, &segment.Segment{
			ID:           dto.ID,
			Index:        dto.Index,
			TopicTitle:   dto.TopicTitle,
			ShortSummary: dto.ShortSummary,
			Keywords:     dto.Keywords,
			StartSeconds: float64(timestamp.Parse(dto.StartTime)),
			EndSeconds:   float64(timestamp.Parse(dto.EndTime)),
			Locked:       dto.IsLocked,
		})
	}
	segment.Sort(segments)

	log.Infof("fetched %d segments for video %s", len(segments), videoID)
	return segments, nil
}
