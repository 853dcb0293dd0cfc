package tmdb

import (
	"fmt"
	"strings"
)

// ConsoleFormatter provides console output formatting for movies
type ConsoleFormatter struct{}

// NewConsoleFormatter creates a new console formatter
func NewConsoleFormatter() *ConsoleFormatter {
	return &ConsoleFormatter{}
}

// FormatMovieList formats a list of favorite movies for console display
func (f *ConsoleFormatter) FormatMovieList(movies []Movie) string {
	if len(movies) == 0 {
		return "No favorite movies found\n"
	}

	var sb strings.Builder

	// Header
	sb.WriteString("\nFavorite movie")
	if len(movies) != 1 {
		sb.WriteString("s")
	}
	fmt.Fprintf(&sb, " (%d):\n\n", len(movies))

	for i, movie := range movies {
		isLast := i == len(movies)-1
		prefix := "├"
		if isLast {
			prefix = "╰"
		}

		fmt.Fprintf(&sb, "%s── %s (ID: %d)\n", prefix, movie.Title, movie.ID)

		indent := "│   "
		if isLast {
			indent = "    "
		}

		if movie.HasPoster() {
			fmt.Fprintf(&sb, "%sPoster: %s\n", indent, movie.PosterPath)
		}
	}

	sb.WriteString("\n")
	return sb.String()
}

// FormatDetail formats the favorite status and poster of a movie
func (f *ConsoleFormatter) FormatDetail(detail Detail) string {
	var sb strings.Builder

	title := detail.Title
	if title == "" {
		title = fmt.Sprintf("Movie %d", detail.MovieID)
	}
	fmt.Fprintf(&sb, "%s (ID: %d)\n", title, detail.MovieID)

	status := "not a favorite"
	if detail.Favorite {
		status = "★ favorite"
	}
	fmt.Fprintf(&sb, "  Status: %s\n", status)

	switch {
	case detail.PosterErr != nil:
		fmt.Fprintf(&sb, "  Poster: unavailable (%s)\n", Reason(detail.PosterErr))
	case len(detail.Poster) > 0:
		fmt.Fprintf(&sb, "  Poster: %s (%d bytes)\n", detail.PosterPath, len(detail.Poster))
	case detail.PosterPath != "":
		fmt.Fprintf(&sb, "  Poster: %s\n", detail.PosterPath)
	}

	return sb.String()
}

// FormatToggle formats the result of a favorite toggle
func (f *ConsoleFormatter) FormatToggle(result *FavoriteResult) string {
	if result == nil {
		return ""
	}

	action := "Removed movie %d from favorites"
	if result.Favorite {
		action = "Added movie %d to favorites"
	}

	line := fmt.Sprintf(action, result.MovieID)
	if result.Favorite && result.StatusCode == StatusCodeUpdated {
		line += " (already a favorite)"
	}
	return "✓ " + line + "\n"
}
