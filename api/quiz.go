// Package api provides a typed client for the segmentation and quiz backend.
package api

import (
	"fmt"
	"net/http"

	"github.com/ivq-cli/ivq/log"
)

// Question type discriminators. Every question is exactly one of these;
// rendering and answer collection switch exhaustively over them.
const (
	QuestionSingleChoice = "single_choice"
	QuestionShortAnswer  = "short_answer"
)

// Question is one quiz question, either a single-choice question with an
// ordered option list or a free-text question (Options empty).
type Question struct {
	ID       string   `json:"id"`
	Type     string   `json:"type"`
	Question string   `json:"question"`
	Options  []string `json:"options,omitempty"`
}

// Quiz is the ordered question set gating one segment.
type Quiz struct {
	SegmentID string     `json:"segment_id"`
	Questions []Question `json:"questions"`
}

// Answer pairs a question with the user's response.
type Answer struct {
	QuestionID string `json:"question_id"`
	Answer     string `json:"answer"`
}

// Verdict is the backend's grading result for a submitted answer set.
type Verdict struct {
	Correct        bool     `json:"correct"`
	SegmentID      string   `json:"segment_id"`
	RetryFrom      string   `json:"retry_from,omitempty"`
	PassedSegments []string `json:"passed_segments"`
	NextSegmentID  string   `json:"next_segment_id,omitempty"`
}

// Quiz fetches the question set for a segment.
func (c *Client) Quiz(segmentID string) (*Quiz, error) {
	var quiz Quiz
	if err := c.do(http.MethodGet, fmt.Sprintf("/segment/%s/quiz", segmentID), nil, &quiz); err != nil {
		return nil, err
	}

	log.Infof("fetched quiz for segment %s (%d questions)", segmentID, len(quiz.Questions))
	return &quiz, nil
}

// SubmitAnswers grades an answer set for a segment and returns the verdict.
func (c *Client) SubmitAnswers(segmentID string, answers []Answer) (*Verdict, error) {
	var verdict Verdict
	err := c.do(http.MethodPost, fmt.Sprintf("/segment/%s/answer", segmentID), map[string]any{
		"client_id": c.clientID,
		"answers":   answers,
	}, &verdict)
	if err != nil {
		return nil, err
	}

	log.Infof("segment %s answer verdict: correct=%v", segmentID, verdict.Correct)
	return &verdict, nil
}
