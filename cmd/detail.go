package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	posterPath string
	posterOut  string
)

// detailCmd represents the detail command
var detailCmd = &cobra.Command{
	Use:   "detail <movie-id>",
	Short: "Show favorite status and poster of a movie",
	Long: `Fetch the favorite status and the poster of a movie at the same time.

The poster path defaults to the one in your favorites list. Use --out to save
the poster image.`,
	Args:    cobra.ExactArgs(1),
	PreRunE: initializeApp,
	RunE:    runDetail,
}

func init() {
	rootCmd.AddCommand(detailCmd)

	detailCmd.Flags().StringVar(&posterPath, "poster", "", "poster path, e.g. /abc.jpg")
	detailCmd.Flags().StringVarP(&posterOut, "out", "o", "", "write the poster image to this file")
}

func runDetail(cmd *cobra.Command, args []string) error {
	movieID, err := parseMovieID(args[0])
	if err != nil {
		return err
	}

	sess, err := loadSession()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	detail, err := operations.Detail(ctx, sess, movieID, posterPath)
	if err != nil {
		return fmt.Errorf("failed to get movie detail: %w", err)
	}

	// Poster path only known from the favorites list, fetch it now
	if len(detail.Poster) == 0 && detail.PosterErr == nil && detail.PosterPath != "" && posterOut != "" {
		detail.Poster, detail.PosterErr = client.FetchPoster(ctx, detail.PosterPath)
	}

	fmt.Print(operations.Formatter().FormatDetail(*detail))

	if posterOut == "" {
		return nil
	}
	if len(detail.Poster) == 0 {
		return fmt.Errorf("no poster to write for movie %d", movieID)
	}
	if err := os.WriteFile(posterOut, detail.Poster, 0o644); err != nil {
		return fmt.Errorf("failed to write poster: %w", err)
	}

	fmt.Printf("Poster written to %s\n", posterOut)
	return nil
}
