// Package console implements the chat transport on stdin/stdout for local
// development: one candidate, one terminal. Production deployments replace it
// with a bot adapter in front of the same dispatcher.
package console

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fairyhunter13/ai-interviewer/internal/domain"
)

const localCandidateID = "local"

// Transport writes assistant replies to an io.Writer.
type Transport struct {
	Out io.Writer
}

// New constructs a console transport writing to stdout.
func New() *Transport { return &Transport{Out: os.Stdout} }

// SendText prints the assistant reply.
func (t *Transport) SendText(_ domain.Context, _ string, text string) error {
	_, err := fmt.Fprintf(t.Out, "\n%s\n\n> ", text)
	return err
}

// SendTyping prints a short working indicator.
func (t *Transport) SendTyping(_ domain.Context, _ string) error {
	_, err := fmt.Fprint(t.Out, ".")
	return err
}

// DownloadAttachment treats the reference as a local file path.
func (t *Transport) DownloadAttachment(_ domain.Context, ref string) (string, error) {
	path := filepath.Clean(ref)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("op=console.DownloadAttachment: %w", err)
	}
	return path, nil
}

// Handler receives inbound messages; satisfied by app.Dispatcher.
type Handler interface {
	OnTextMessage(ctx domain.Context, candidateID, candidateName, text string)
	OnDocumentMessage(ctx domain.Context, candidateID, fileName, attachmentRef string)
}

// Run reads lines from in until EOF or context cancellation. A line of the
// form "/file <path>" is treated as a document upload.
func (t *Transport) Run(ctx domain.Context, in io.Reader, h Handler) error {
	fmt.Fprint(t.Out, "Interview console ready. Send /start to begin.\n\n> ")
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			fmt.Fprint(t.Out, "> ")
			continue
		}
		if path, ok := strings.CutPrefix(line, "/file "); ok {
			path = strings.TrimSpace(path)
			h.OnDocumentMessage(ctx, localCandidateID, filepath.Base(path), path)
			continue
		}
		h.OnTextMessage(ctx, localCandidateID, "there", line)
	}
	return scanner.Err()
}
