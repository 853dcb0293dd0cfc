package tmdb

import (
	"context"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Operations combines favorites lookups with poster downloads for the CLI
type Operations struct {
	favorites FavoritesAPI
	posters   PosterFetcher
	logger    zerolog.Logger
	formatter MovieFormatter
}

// MovieFormatter defines the interface for formatting movie output
type MovieFormatter interface {
	FormatMovieList(movies []Movie) string
	FormatDetail(detail Detail) string
	FormatToggle(result *FavoriteResult) string
}

// Detail is the favorite status and poster of one movie
type Detail struct {
	MovieID    int64
	Title      string
	Favorite   bool
	PosterPath string
	Poster     []byte
	PosterErr  error
}

// NewOperations creates a new Operations instance
func NewOperations(client *Client, logger zerolog.Logger) *Operations {
	return &Operations{
		favorites: client,
		posters:   client,
		logger:    logger,
		formatter: NewConsoleFormatter(),
	}
}

// Formatter returns the formatter used for console output
func (o *Operations) Formatter() MovieFormatter {
	return o.formatter
}

// ListFavorites returns the favorites accepted by keep, sorted by title.
// A nil keep returns every favorite.
func (o *Operations) ListFavorites(ctx context.Context, session Session, keep func(Movie) bool) ([]Movie, error) {
	favorites, err := o.favorites.FetchFavorites(ctx, session)
	if err != nil {
		return nil, err
	}

	var results []Movie
	for _, movie := range favorites {
		if keep == nil || keep(movie) {
			results = append(results, movie)
		}
	}

	sort.Slice(results, func(i, j int) bool {
		return strings.ToLower(results[i].Title) < strings.ToLower(results[j].Title)
	})

	o.logger.Info().Msgf("Found %d favorite movies matching filter", len(results))
	return results, nil
}

// Detail fetches the favorite status and the poster of a movie concurrently.
// A failed poster download is recorded in PosterErr and does not fail the call.
func (o *Operations) Detail(ctx context.Context, session Session, movieID int64, posterPath string) (*Detail, error) {
	detail := &Detail{
		MovieID:    movieID,
		PosterPath: posterPath,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		favorites, err := o.favorites.FetchFavorites(ctx, session)
		if err != nil {
			return err
		}
		for _, movie := range favorites {
			if movie.ID == movieID {
				detail.Favorite = true
				detail.Title = movie.Title
				if detail.PosterPath == "" {
					detail.PosterPath = movie.PosterPath
				}
				break
			}
		}
		return nil
	})

	if posterPath != "" {
		g.Go(func() error {
			poster, err := o.posters.FetchPoster(ctx, posterPath)
			if err != nil {
				o.logger.Warn().
					Err(err).
					Int64("movie_id", movieID).
					Str("poster_path", posterPath).
					Msg("Failed to fetch poster")
				detail.PosterErr = err
				return nil
			}
			detail.Poster = poster
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return detail, nil
}
