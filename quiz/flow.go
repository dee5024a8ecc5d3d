// Package quiz implements the interactive comprehension quiz flow.
//
// A Flow is started by the gating engine when the playhead reaches the end
// of an unpassed segment. It fetches (or reuses) the segment's question set,
// collects answers through a Presenter, submits them for grading and feeds
// the verdict back into the session. Playback stays paused for the whole
// exchange; on unrecoverable failures it is left paused rather than
// unlocked.
package quiz

import (
	"strings"

	"github.com/ivq-cli/ivq/api"
	"github.com/ivq-cli/ivq/gate"
	"github.com/ivq-cli/ivq/log"
	"github.com/ivq-cli/ivq/segment"
)

// Presenter collects answers and renders quiz feedback. The default
// implementation asks on the terminal; tests substitute a scripted one.
type Presenter interface {
	// Ask renders the question set and collects one answer per question.
	Ask(seg *segment.Segment, quiz *api.Quiz) ([]api.Answer, error)

	// Unanswered tells the viewer that every question needs an answer.
	Unanswered()

	// RetryFetch reports whether to retry after a failed quiz fetch.
	RetryFetch(cause error) bool

	// RetrySubmit reports whether to retry after a failed answer submission.
	RetrySubmit(cause error) bool

	// Passed and Failed render the verdict.
	Passed(seg *segment.Segment)
	Failed(seg *segment.Segment)
}

// Flow runs quizzes against the backend through a Presenter.
type Flow struct {
	api     *api.Client
	present Presenter
}

// New creates a quiz flow with the interactive terminal presenter.
func New(client *api.Client) *Flow {
	return &Flow{api: client, present: &terminalPresenter{}}
}

// NewWithPresenter creates a quiz flow with a custom presenter.
func NewWithPresenter(client *api.Client, present Presenter) *Flow {
	return &Flow{api: client, present: present}
}

// Run drives the quiz for one segment. It is invoked by the session with the
// quiz slot already held and always ends in exactly one of: a verdict applied
// through the session, or the slot released with playback left paused.
func (f *Flow) Run(session *gate.Session, seg *segment.Segment) {
	gen := session.Generation()

	quiz, ok := f.obtain(session, seg)
	if !ok {
		return
	}

	for {
		answers, err := f.present.Ask(seg, quiz)
		if err != nil {
			log.Warnf("quiz prompt aborted: %v", err)
			session.ReleaseQuiz(seg)
			return
		}

		if !complete(answers, quiz) {
			f.present.Unanswered()
			continue
		}

		verdict, err := f.api.SubmitAnswers(seg.ID, answers)
		if err != nil {
			if f.present.RetrySubmit(err) {
				continue
			}
			session.ReleaseQuiz(seg)
			return
		}

		if verdict.Correct {
			f.present.Passed(seg)
		} else {
			f.present.Failed(seg)
		}

		session.ApplyVerdict(gen, seg, verdict)
		return
	}
}

// obtain returns the segment's quiz, fetching and caching it on first use.
// While a fetch retry is offered the quiz slot is released so the decision
// not to retry leaves the session consistent; retrying re-claims it.
func (f *Flow) obtain(session *gate.Session, seg *segment.Segment) (*api.Quiz, bool) {
	if quiz, ok := session.CachedQuiz(seg.ID); ok {
		return quiz, true
	}

	for {
		quiz, err := f.api.Quiz(seg.ID)
		if err == nil {
			session.StoreQuiz(seg.ID, quiz)
			return quiz, true
		}

		session.ReleaseQuiz(seg)
		if !f.present.RetryFetch(err) {
			return nil, false
		}
		if !session.AcquireQuiz(seg) {
			return nil, false
		}
	}
}

// complete reports whether every question received a non-blank answer.
func complete(answers []api.Answer, quiz *api.Quiz) bool {
	if len(answers) != len(quiz.Questions) {
		return false
	}
	for _, answer := range answers {
		if strings.TrimSpace(answer.Answer) == "" {
			return false
		}
	}
	return true
}
