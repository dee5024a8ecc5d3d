package quiz

import (
	"fmt"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/ivq-cli/ivq/api"
	"github.com/ivq-cli/ivq/color"
	"github.com/ivq-cli/ivq/icon"
	"github.com/ivq-cli/ivq/key"
	"github.com/ivq-cli/ivq/segment"
	"github.com/ivq-cli/ivq/style"
	"github.com/ivq-cli/ivq/timestamp"
	"github.com/ivq-cli/ivq/util"
	"github.com/muesli/reflow/wordwrap"
	"github.com/spf13/viper"
)

// terminalPresenter renders quizzes as interactive terminal prompts.
type terminalPresenter struct{}

func (p *terminalPresenter) Ask(seg *segment.Segment, quiz *api.Quiz) ([]api.Answer, error) {
	p.header(seg)

	answers := make([]api.Answer, 0, len(quiz.Questions))
	for index, question := range quiz.Questions {
		answer, err := p.askOne(index, question)
		if err != nil {
			return nil, err
		}
		answers = append(answers, api.Answer{QuestionID: question.ID, Answer: answer})
	}
	return answers, nil
}

func (p *terminalPresenter) askOne(index int, question api.Question) (string, error) {
	message := fmt.Sprintf("%d. %s", index+1, p.wrap(question.Question))

	var response string
	switch question.Type {
	case api.QuestionShortAnswer:
		prompt := survey.Input{Message: message}
		if err := survey.AskOne(&prompt, &response, survey.WithValidator(answered)); err != nil {
			return "", err
		}
	default:
		prompt := survey.Select{Message: message, Options: question.Options}
		if err := survey.AskOne(&prompt, &response, survey.WithValidator(survey.Required)); err != nil {
			return "", err
		}
	}
	return strings.TrimSpace(response), nil
}

func (p *terminalPresenter) header(seg *segment.Segment) {
	fmt.Println()
	fmt.Println(style.Title(seg.TopicTitle))
	fmt.Println(style.Faint(fmt.Sprintf(
		"Segment %d ends at %s. Answer to continue.",
		seg.Index+1,
		timestamp.Format(seg.EndSeconds),
	)))

	if viper.GetBool(key.QuizShowSummaries) && seg.ShortSummary != "" {
		fmt.Println(style.Faint(p.wrap(seg.ShortSummary)))
	}
	fmt.Println()
}

func (p *terminalPresenter) Unanswered() {
	fmt.Printf("%s Answer every question to continue.\n", icon.Get(icon.Question))
}

func (p *terminalPresenter) RetryFetch(cause error) bool {
	fmt.Printf("%s %s\n", icon.Get(icon.Fail), style.Fg(color.Red)("The quiz could not be loaded."))
	fmt.Println(style.Faint(p.wrap(cause.Error())))
	return confirm("Keep the video paused and retry?")
}

func (p *terminalPresenter) RetrySubmit(cause error) bool {
	fmt.Printf("%s %s\n", icon.Get(icon.Fail), style.Fg(color.Red)("Failed to submit answers."))
	fmt.Println(style.Faint(p.wrap(cause.Error())))
	return confirm("Try again?")
}

func (p *terminalPresenter) Passed(seg *segment.Segment) {
	fmt.Printf(
		"%s %s %s\n",
		icon.Get(icon.Unlock),
		style.Fg(color.Green)("Correct!"),
		style.Faint(fmt.Sprintf("Segment %d passed.", seg.Index+1)),
	)
}

func (p *terminalPresenter) Failed(seg *segment.Segment) {
	fmt.Printf(
		"%s %s %s\n",
		icon.Get(icon.Lock),
		style.Fg(color.Red)("Incorrect."),
		style.Faint(fmt.Sprintf("Rewatching from %s.", timestamp.Format(seg.StartSeconds))),
	)
}

func (p *terminalPresenter) wrap(text string) string {
	width, _, err := util.TerminalSize()
	if err != nil || width <= 0 {
		width = 80
	}
	return wordwrap.String(text, width)
}

func confirm(message string) bool {
	prompt := survey.Confirm{Message: message, Default: true}
	var response bool
	if err := survey.AskOne(&prompt, &response); err != nil {
		return false
	}
	return response
}

// answered rejects blank and whitespace-only input.
func answered(value interface{}) error {
	text, ok := value.(string)
	if !ok || strings.TrimSpace(text) == "" {
		return fmt.Errorf("answer every question to continue")
	}
	return nil
}
