package auth

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/desertthunder/soundwave/internal/shared"
)

// PromptBrowser is the manual fallback: it prints the authorization URL and reads the
// redirect URL the user pastes back.
type PromptBrowser struct {
	In  io.Reader
	Out io.Writer
	// Open optionally launches a browser first. Failures are ignored.
	Open func(url string) error
}

// Authorize implements [Browser].
func (p PromptBrowser) Authorize(ctx context.Context, authURL, redirectURI string) (string, error) {
	if p.Open != nil {
		_ = p.Open(authURL)
	}

	fmt.Fprintln(p.Out, "Open this URL in your browser to authorize soundwave:")
	fmt.Fprintf(p.Out, "\n  %s\n\n", authURL)
	fmt.Fprintf(p.Out, "Then paste the URL you were redirected to (it starts with %s):\n> ", redirectURI)

	lines := make(chan string, 1)
	errs := make(chan error, 1)
	go func() {
		line, err := bufio.NewReader(p.In).ReadString('\n')
		if err != nil && strings.TrimSpace(line) == "" {
			errs <- err
			return
		}
		lines <- strings.TrimSpace(line)
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case err := <-errs:
		if err == io.EOF {
			return "", shared.ErrAuthCancelled
		}
		return "", err
	case line := <-lines:
		if line == "" {
			return "", shared.ErrAuthCancelled
		}
		return line, nil
	}
}
