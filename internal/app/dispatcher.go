// Package app routes inbound chat traffic into the interview orchestration
// core and maps errors back to user-facing messages.
package app

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/fairyhunter13/ai-interviewer/internal/domain"
	"github.com/fairyhunter13/ai-interviewer/internal/usecase"
)

// User-facing messages. The system never exposes stack traces or raw model
// output; failures are uniformly a short apologetic instruction to retry.
const (
	msgApology          = "Sorry, something went wrong on our side. Please resend your last message."
	msgGatewayDown      = "Sorry, I'm having trouble thinking right now. Please resend your last answer in a moment."
	msgPickVacancyFirst = "Please pick a vacancy first. Send /vacancies to see the open positions."
	msgUnknownVacancy   = "I don't recognize that vacancy. Reply with the number from the list, or send /vacancies to see it again."
	msgEmptyAnswer      = "I didn't catch that. Please send your answer as text."
	msgResetDone        = "Your interview has been reset. Send /vacancies whenever you're ready to start again."
	msgUnsupportedDoc   = "I can only read PDF, Word, and plain-text documents. Please send your resume in one of those formats."
)

// Dispatcher serializes message handling per candidate and drives the typing
// signal while slow gateway calls are in flight. Session state is
// read-modify-written without storage-level locking, so concurrent messages
// from the same candidate must not interleave.
type Dispatcher struct {
	Interviews     *usecase.InterviewService
	Transport      domain.Transport
	TypingInterval time.Duration

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewDispatcher constructs a Dispatcher.
func NewDispatcher(interviews *usecase.InterviewService, transport domain.Transport, typingInterval time.Duration) *Dispatcher {
	return &Dispatcher{
		Interviews:     interviews,
		Transport:      transport,
		TypingInterval: typingInterval,
		locks:          map[string]*sync.Mutex{},
	}
}

// OnTextMessage handles one inbound text message to completion.
func (d *Dispatcher) OnTextMessage(ctx domain.Context, candidateID, candidateName, text string) {
	lock := d.lockFor(candidateID)
	lock.Lock()
	defer lock.Unlock()

	text = strings.TrimSpace(text)
	reply, err := d.route(ctx, candidateID, candidateName, text)
	if err != nil {
		slog.Error("message handling failed",
			slog.String("candidate_id", candidateID), slog.Any("error", err))
		reply = userMessage(err)
	}
	d.send(ctx, candidateID, reply)
}

// OnDocumentMessage handles an uploaded document: download, sniff, extract,
// attach to the interview context.
func (d *Dispatcher) OnDocumentMessage(ctx domain.Context, candidateID, fileName, attachmentRef string) {
	lock := d.lockFor(candidateID)
	lock.Lock()
	defer lock.Unlock()

	path, err := d.Transport.DownloadAttachment(ctx, attachmentRef)
	if err != nil {
		slog.Error("attachment download failed",
			slog.String("candidate_id", candidateID), slog.Any("error", err))
		d.send(ctx, candidateID, msgApology)
		return
	}
	if !supportedDocument(path) {
		d.send(ctx, candidateID, msgUnsupportedDoc)
		return
	}
	reply, err := d.Interviews.HandleDocument(ctx, candidateID, fileName, path)
	if err != nil {
		slog.Error("document handling failed",
			slog.String("candidate_id", candidateID), slog.Any("error", err))
		reply = userMessage(err)
	}
	d.send(ctx, candidateID, reply)
}

func (d *Dispatcher) route(ctx domain.Context, candidateID, candidateName, text string) (string, error) {
	switch strings.ToLower(text) {
	case "/start":
		return d.startReply(ctx, candidateID, candidateName)
	case "/vacancies":
		return d.vacancyListReply(ctx)
	case "/reset":
		if err := d.Interviews.Reset(ctx, candidateID); err != nil {
			return "", err
		}
		return msgResetDone, nil
	}

	sess, ok, err := d.Interviews.Session(ctx, candidateID)
	if err != nil {
		return "", err
	}
	if !ok {
		// First contact without a command behaves like /start.
		return d.startReply(ctx, candidateID, candidateName)
	}
	if sess.Stage == domain.StageSelectingVacancy {
		return d.selectReply(ctx, candidateID, text)
	}
	return d.withTyping(ctx, candidateID, func() (string, error) {
		return d.Interviews.RecordAnswer(ctx, candidateID, text)
	})
}

func (d *Dispatcher) startReply(ctx domain.Context, candidateID, candidateName string) (string, error) {
	greeting, err := d.Interviews.StartSession(ctx, candidateID, candidateName)
	if err != nil {
		return "", err
	}
	list, err := d.vacancyListReply(ctx)
	if err != nil {
		return "", err
	}
	return greeting + "\n\n" + list, nil
}

func (d *Dispatcher) vacancyListReply(ctx domain.Context) (string, error) {
	vacancies, err := d.Interviews.ListVacancies(ctx)
	if err != nil {
		return "", err
	}
	if len(vacancies) == 0 {
		return "There are no open vacancies right now. Please check back later.", nil
	}
	var b strings.Builder
	b.WriteString("Open vacancies:\n")
	for i, v := range vacancies {
		fmt.Fprintf(&b, "%d. %s", i+1, v.Title)
		if v.Description != "" {
			fmt.Fprintf(&b, " %s", v.Description)
		}
		b.WriteString("\n")
	}
	b.WriteString("\nReply with the number of the vacancy you want to interview for.")
	return b.String(), nil
}

// selectReply resolves the candidate's reply to a vacancy, by list number or
// by id, and starts the interview.
func (d *Dispatcher) selectReply(ctx domain.Context, candidateID, text string) (string, error) {
	vacancies, err := d.Interviews.ListVacancies(ctx)
	if err != nil {
		return "", err
	}
	vacancyID := text
	if n, err := strconv.Atoi(text); err == nil {
		if n < 1 || n > len(vacancies) {
			return msgUnknownVacancy, nil
		}
		vacancyID = vacancies[n-1].ID
	}
	return d.withTyping(ctx, candidateID, func() (string, error) {
		return d.Interviews.SelectVacancy(ctx, candidateID, vacancyID)
	})
}

// withTyping emits the typing signal immediately and then on every tick while
// fn runs. The goroutine is stopped on every return path.
func (d *Dispatcher) withTyping(ctx domain.Context, candidateID string, fn func() (string, error)) (string, error) {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(d.TypingInterval)
		defer ticker.Stop()
		_ = d.Transport.SendTyping(ctx, candidateID)
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				_ = d.Transport.SendTyping(ctx, candidateID)
			}
		}
	}()
	defer close(done)
	return fn()
}

func (d *Dispatcher) send(ctx domain.Context, candidateID, text string) {
	if text == "" {
		return
	}
	if err := d.Transport.SendText(ctx, candidateID, text); err != nil {
		slog.Error("sending reply failed",
			slog.String("candidate_id", candidateID), slog.Any("error", err))
	}
}

func (d *Dispatcher) lockFor(candidateID string) *sync.Mutex {
	d.mu.Lock()
	defer d.mu.Unlock()
	l, ok := d.locks[candidateID]
	if !ok {
		l = &sync.Mutex{}
		d.locks[candidateID] = l
	}
	return l
}

// userMessage maps internal errors to the corrective instruction shown to the
// candidate.
func userMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrNoActiveSession):
		return msgPickVacancyFirst
	case errors.Is(err, domain.ErrVacancyNotFound):
		return msgUnknownVacancy
	case errors.Is(err, domain.ErrGenerationFailed):
		return msgGatewayDown
	case errors.Is(err, domain.ErrInvalidArgument):
		return msgEmptyAnswer
	default:
		return msgApology
	}
}

func supportedDocument(path string) bool {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return false
	}
	switch {
	case mt.Is("application/pdf"),
		mt.Is("application/msword"),
		mt.Is("application/vnd.openxmlformats-officedocument.wordprocessingml.document"):
		return true
	}
	for m := mt; m != nil; m = m.Parent() {
		if strings.HasPrefix(m.String(), "text/") {
			return true
		}
	}
	return false
}
