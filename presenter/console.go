package presenter

import (
	"fmt"
	"io"

	"github.com/s0up4200/tmdbfav/tmdb"
)

var progressMessages = map[tmdb.AuthState]string{
	tmdb.StateAwaitingRequestToken:    "Requesting token...",
	tmdb.StateAwaitingLoginValidation: "Validating login...",
	tmdb.StateAwaitingSessionID:       "Creating session...",
	tmdb.StateAwaitingUserID:          "Fetching account...",
}

// Console prints workflow events to a writer. It is not safe for concurrent use;
// wrap it with OnLoop.
type Console struct {
	out     io.Writer
	verbose bool
}

// NewConsole creates a console observer. Progress lines are only written when verbose is set.
func NewConsole(out io.Writer, verbose bool) *Console {
	return &Console{out: out, verbose: verbose}
}

func (c *Console) OnWorkflowProgress(state tmdb.AuthState) {
	if !c.verbose {
		return
	}
	if msg, ok := progressMessages[state]; ok {
		fmt.Fprintf(c.out, "  %s\n", msg)
	}
}

func (c *Console) OnWorkflowFailed(reason string) {
	fmt.Fprintf(c.out, "✗ Login failed: %s\n", reason)
}

func (c *Console) OnWorkflowComplete(session tmdb.Session) {
	fmt.Fprintf(c.out, "✓ Logged in (account %d)\n", session.UserID)
}

func (c *Console) OnFavoriteStatusKnown(movieID int64, favorite bool) {
	if favorite {
		fmt.Fprintf(c.out, "★ Movie %d is a favorite\n", movieID)
		return
	}
	fmt.Fprintf(c.out, "☆ Movie %d is not a favorite\n", movieID)
}

func (c *Console) OnFavoriteToggled(movieID int64, favorite bool) {
	if !c.verbose {
		return
	}
	state := "unmarked"
	if favorite {
		state = "marked"
	}
	fmt.Fprintf(c.out, "  Movie %d %s as favorite\n", movieID, state)
}
