// Package console runs the interview in a terminal: questions, candidate
// Q&A, the reviewer summary and the saved session files.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/interview-agent/internal/faq"
	"github.com/stemsi/interview-agent/internal/interview"
	"github.com/stemsi/interview-agent/internal/model"
	"github.com/stemsi/interview-agent/internal/transcript"
)

// ErrInterrupted is returned when input ends or the context is cancelled
// before the interview completes.
var ErrInterrupted = errors.New("interview interrupted")

// FAQAnswerer answers candidate questions.
type FAQAnswerer interface {
	Answer(ctx context.Context, question string) string
}

// Summarizer produces the reviewer summary of a session.
type Summarizer interface {
	Summarize(ctx context.Context, session model.Session) (string, *model.Summary)
}

// Options configures a Console.
type Options struct {
	Questions      []model.Question
	MinAnswerChars int
	SessionDir     string
	// Echo repeats each input line on the output, for piped input where the
	// terminal does not show what was typed.
	Echo bool
	// VoiceInput and VoiceOutput only affect the banner; audio is not
	// supported and both fall back to text.
	VoiceInput  bool
	VoiceOutput bool
}

// Console is one terminal interview.
type Console struct {
	opts       Options
	out        io.Writer
	lines      <-chan string
	faq        FAQAnswerer
	summarizer Summarizer
	transcript *transcript.Logger
	log        zerolog.Logger
}

// New creates a Console reading candidate input from in.
func New(in io.Reader, out io.Writer, faqAnswerer FAQAnswerer, summarizer Summarizer, opts Options, log zerolog.Logger) *Console {
	return &Console{
		opts:       opts,
		out:        out,
		lines:      scanLines(in),
		faq:        faqAnswerer,
		summarizer: summarizer,
		transcript: transcript.NewLogger(nil),
		log:        log.With().Str("component", "console").Logger(),
	}
}

// scanLines feeds input lines into a channel so reads can be abandoned when
// the context is cancelled. The channel closes at EOF.
func scanLines(in io.Reader) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		sc := bufio.NewScanner(in)
		sc.Buffer(make([]byte, 64*1024), 1024*1024)
		for sc.Scan() {
			ch <- sc.Text()
		}
	}()
	return ch
}

func (c *Console) printf(format string, args ...interface{}) {
	fmt.Fprintf(c.out, format, args...)
}

// readLine prints prompt and waits for one line of input.
func (c *Console) readLine(ctx context.Context, prompt string) (string, error) {
	c.printf("%s", prompt)
	select {
	case <-ctx.Done():
		return "", ErrInterrupted
	case line, ok := <-c.lines:
		if !ok {
			return "", ErrInterrupted
		}
		line = strings.TrimSpace(line)
		if c.opts.Echo {
			c.printf("%s\n", line)
		}
		return line, nil
	}
}

func (c *Console) say(text string) {
	c.printf("Agent: %s\n", text)
	c.transcript.LogTurn(model.RoleAgent, text)
}

func (c *Console) banner() {
	c.printf("\n--- AI Interview Agent ---\n\n")

	input, output := "Text", "Text only"
	if c.opts.VoiceInput {
		input = "Voice"
	}
	if c.opts.VoiceOutput {
		output = "Voice+Text"
	}
	c.printf("Mode: User input = %s | Agent output = %s\n\n", input, output)

	if c.opts.VoiceInput {
		c.printf("[ERROR] Voice modules not available. Falling back to text input.\n\n")
	}
	if c.opts.VoiceOutput {
		c.printf("[ERROR] Voice modules not available. Agent will use text only.\n\n")
	}
}

// Run conducts the full interview and saves the session files.
func (c *Console) Run(ctx context.Context) error {
	c.banner()

	agent := interview.NewAgent(c.opts.Questions, c.opts.MinAnswerChars)
	c.transcript.LogTurn(model.RoleAgent, agent.Start())

	for agent.HasNext() {
		q, err := agent.NextQuestion()
		if err != nil {
			return err
		}
		c.say(q.Text)

		if err := c.answer(ctx, agent, q); err != nil {
			return err
		}
	}

	c.printf("\n--- Candidate Q&A ---\n")
	pairs, err := c.FAQLoop(ctx)
	if err != nil {
		return err
	}
	for _, p := range pairs {
		agent.RecordFAQ(p.Question, p.Answer)
	}

	session := agent.BuildSession()
	session.ID = uuid.New().String()
	md, sum := c.summarizer.Summarize(ctx, session)

	c.printf("\n--- Summary ---\n%s\n", md)

	paths, err := c.transcript.SessionPaths(c.opts.SessionDir)
	if err != nil {
		return err
	}
	if err := c.transcript.SaveTranscript(paths.Transcript); err != nil {
		return err
	}
	if err := c.transcript.SaveSessionJSON(paths.Session, session, sum); err != nil {
		return err
	}

	c.log.Info().
		Str("session_id", session.ID).
		Str("transcript", paths.Transcript).
		Str("session", paths.Session).
		Msg("Session saved")
	c.printf("\nSaved transcript and session JSON in '%s/'.\n", c.opts.SessionDir)
	return nil
}

// answer reads the candidate's answer to q, re-prompting once if needed.
func (c *Console) answer(ctx context.Context, agent *interview.Agent, q model.Question) error {
	for {
		text, err := c.readLine(ctx, "You: ")
		if err != nil {
			return err
		}
		c.transcript.LogTurn(model.RoleUser, text)

		out, err := agent.Submit(q.Key, text)
		if err != nil {
			return err
		}
		if !out.Accepted() {
			c.say(out.Reprompt)
			continue
		}

		if ack := agent.Acknowledge(out); ack != "" {
			c.say(ack)
		}
		return nil
	}
}

// FAQLoop answers candidate questions until an exit word or blank line.
func (c *Console) FAQLoop(ctx context.Context) ([]model.FAQPair, error) {
	c.printf("\n--- FAQ Q&A ---\n%s\n\n", faq.Intro)

	var pairs []model.FAQPair
	for {
		q, err := c.readLine(ctx, "You (FAQ): ")
		if err != nil {
			return pairs, err
		}
		if faq.IsExit(q) {
			return pairs, nil
		}
		c.transcript.LogTurn(model.RoleUser, q)

		answer := c.faq.Answer(ctx, q)
		c.printf("Agent (FAQ): %s\n", answer)
		c.transcript.LogTurn(model.RoleAgent, answer)

		pairs = append(pairs, model.FAQPair{Question: q, Answer: answer})
	}
}
