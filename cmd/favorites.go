package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/s0up4200/tmdbfav/filter"
)

var (
	filterExpr  string
	savedFilter string
)

// favoritesCmd groups the favorites subcommands
var favoritesCmd = &cobra.Command{
	Use:     "favorites",
	Aliases: []string{"fav"},
	Short:   "List and change favorite movies",
}

var favoritesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List favorite movies",
	Long: `List every favorite movie, optionally narrowed by a filter expression.

Filter expressions see Title, ID, PosterPath and Movie, and can use
hasText, hasPrefix, hasSuffix, lower, upper and hasPoster(), e.g.

  tmdbfav favorites list --filter 'hasPoster() and hasText(Title, "star")'`,
	PreRunE: initializeApp,
	RunE:    runFavoritesList,
}

var favoritesStatusCmd = &cobra.Command{
	Use:     "status <movie-id>",
	Short:   "Show whether a movie is a favorite",
	Args:    cobra.ExactArgs(1),
	PreRunE: initializeApp,
	RunE:    runFavoritesStatus,
}

var favoritesAddCmd = &cobra.Command{
	Use:     "add <movie-id>",
	Short:   "Mark a movie as favorite",
	Args:    cobra.ExactArgs(1),
	PreRunE: initializeApp,
	RunE: func(cmd *cobra.Command, args []string) error {
		return setFavorite(cmd, args[0], true)
	},
}

var favoritesRemoveCmd = &cobra.Command{
	Use:     "remove <movie-id>",
	Aliases: []string{"rm"},
	Short:   "Unmark a favorite movie",
	Args:    cobra.ExactArgs(1),
	PreRunE: initializeApp,
	RunE: func(cmd *cobra.Command, args []string) error {
		return setFavorite(cmd, args[0], false)
	},
}

var favoritesToggleCmd = &cobra.Command{
	Use:     "toggle <movie-id>",
	Short:   "Flip the favorite status of a movie",
	Args:    cobra.ExactArgs(1),
	PreRunE: initializeApp,
	RunE:    runFavoritesToggle,
}

// filtersCmd lists the named filters from the configuration
var filtersCmd = &cobra.Command{
	Use:     "filters",
	Short:   "List the filters defined in the config",
	PreRunE: initializeApp,
	RunE:    runFilters,
}

func init() {
	rootCmd.AddCommand(favoritesCmd)
	rootCmd.AddCommand(filtersCmd)

	favoritesCmd.AddCommand(favoritesListCmd)
	favoritesCmd.AddCommand(favoritesStatusCmd)
	favoritesCmd.AddCommand(favoritesAddCmd)
	favoritesCmd.AddCommand(favoritesRemoveCmd)
	favoritesCmd.AddCommand(favoritesToggleCmd)

	favoritesListCmd.Flags().StringVarP(&filterExpr, "filter", "f", "", "filter expression")
	favoritesListCmd.Flags().StringVarP(&savedFilter, "saved", "s", "", "use a named filter from config")
}

func runFavoritesList(cmd *cobra.Command, args []string) error {
	sess, err := loadSession()
	if err != nil {
		return err
	}

	f, err := filters.Resolve(savedFilter, filterExpr)
	if err != nil {
		return fmt.Errorf("invalid filter: %w", err)
	}
	if f != nil {
		logger.Debug().Str("filter", f.Expression()).Msg("Filtering favorites")
	}

	movies, err := operations.ListFavorites(cmd.Context(), sess, filter.Keep(f))
	if err != nil {
		return fmt.Errorf("failed to list favorites: %w", err)
	}

	fmt.Print(operations.Formatter().FormatMovieList(movies))
	return nil
}

func runFavoritesStatus(cmd *cobra.Command, args []string) error {
	movieID, err := parseMovieID(args[0])
	if err != nil {
		return err
	}

	sess, err := loadSession()
	if err != nil {
		return err
	}

	// The console observer prints the result
	if _, err := client.IsFavorite(cmd.Context(), sess, movieID); err != nil {
		return fmt.Errorf("failed to check favorite status: %w", err)
	}
	loop.Sync()
	return nil
}

func setFavorite(cmd *cobra.Command, arg string, favorite bool) error {
	movieID, err := parseMovieID(arg)
	if err != nil {
		return err
	}

	sess, err := loadSession()
	if err != nil {
		return err
	}

	result, err := client.ToggleFavorite(cmd.Context(), sess, movieID, favorite)
	loop.Sync()
	if err != nil {
		return fmt.Errorf("failed to update favorite: %w", err)
	}

	fmt.Print(operations.Formatter().FormatToggle(result))
	return nil
}

func runFavoritesToggle(cmd *cobra.Command, args []string) error {
	movieID, err := parseMovieID(args[0])
	if err != nil {
		return err
	}

	sess, err := loadSession()
	if err != nil {
		return err
	}

	current, err := client.IsFavorite(cmd.Context(), sess, movieID)
	if err != nil {
		return fmt.Errorf("failed to check favorite status: %w", err)
	}

	return setFavorite(cmd, args[0], !current)
}

func runFilters(cmd *cobra.Command, args []string) error {
	names := filters.ListFilters()
	if len(names) == 0 {
		fmt.Println("No filters configured")
		return nil
	}

	for _, name := range names {
		f, _ := filters.GetFilter(name)
		fmt.Printf("%s: %s\n", name, f.Expression())
	}
	return nil
}

func parseMovieID(arg string) (int64, error) {
	movieID, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || movieID <= 0 {
		return 0, fmt.Errorf("invalid movie id: %q", arg)
	}
	return movieID, nil
}
