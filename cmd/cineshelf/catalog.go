package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/patric-chuzhbe/cineshelf/internal/models"
	"github.com/patric-chuzhbe/cineshelf/internal/tmdb"
)

func (c *cli) popularCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "popular",
		Short: "List popular movies and series",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c.app.Catalog.LoadInitial(cmd.Context())
			state := c.app.Catalog.State()
			if state.Err != "" {
				return fmt.Errorf("load popular titles: %s", state.Err)
			}

			fmt.Fprintln(c.out, "Popular movies")
			printEntries(c.out, state.Movies)
			fmt.Fprintln(c.out, "Popular series")
			printEntries(c.out, state.Series)

			return nil
		},
	}
}

func (c *cli) topRatedCmd() *cobra.Command {
	var page int

	cmd := &cobra.Command{
		Use:   "top-rated",
		Short: "List top rated movies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := c.app.Remote.FetchTopRated(cmd.Context(), page)
			if err != nil {
				return err
			}
			printEntries(c.out, result.Items)
			fmt.Fprintf(c.out, "page %d of %d\n", result.Page, result.TotalPages)

			return nil
		},
	}
	cmd.Flags().IntVarP(&page, "page", "p", 1, "page to fetch")

	return cmd
}

func (c *cli) searchCmd() *cobra.Command {
	var pages int

	cmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Search movies, series and people",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c.app.Catalog.Search(ctx, strings.Join(args, " "), 1)
			for loaded := 1; loaded < pages && c.app.Catalog.State().HasMore(); loaded++ {
				c.app.Catalog.LoadMore(ctx)
			}

			state := c.app.Catalog.State()
			if state.Err != "" {
				return fmt.Errorf("search: %s", state.Err)
			}
			printEntries(c.out, state.Results)
			fmt.Fprintf(c.out, "page %d of %d\n", state.Page, state.TotalPages)

			return nil
		},
	}
	cmd.Flags().IntVarP(&pages, "pages", "n", 1, "number of pages to load")

	return cmd
}

func (c *cli) detailsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "details KIND ID",
		Short: "Show the details of a movie or series (KIND is movie or tv)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			entry, err := c.fetchEntry(cmd, args[0], args[1])
			if err != nil {
				return err
			}
			printDetails(c.out, entry)

			return nil
		},
	}
}

func (c *cli) fetchEntry(cmd *cobra.Command, kindArg, idArg string) (*models.CatalogEntry, error) {
	kind := models.MediaKind(kindArg)
	if err := kind.Validate(); err != nil {
		return nil, err
	}
	id, err := strconv.Atoi(idArg)
	if err != nil {
		return nil, fmt.Errorf("invalid id %q: %w", idArg, err)
	}

	entry, ok := c.app.Catalog.FetchDetails(cmd.Context(), id, kind)
	if !ok {
		return nil, fmt.Errorf("fetch details: %s", c.app.Catalog.State().Err)
	}

	return entry, nil
}

func printEntries(w io.Writer, entries []models.CatalogEntry) {
	for _, entry := range entries {
		fmt.Fprintf(w, "%d\t%s\t%.1f\t%s\n", entry.ID, entry.MediaType, entry.VoteAverage, entry.DisplayTitle())
	}
}

func printDetails(w io.Writer, entry *models.CatalogEntry) {
	fmt.Fprintf(w, "%s (%s)\n", entry.DisplayTitle(), entry.MediaType)
	if entry.Tagline != "" {
		fmt.Fprintln(w, entry.Tagline)
	}
	if date := firstNonEmpty(entry.ReleaseDate, entry.FirstAirDate); date != "" {
		fmt.Fprintf(w, "Released: %s\n", date)
	}
	if entry.Runtime > 0 {
		fmt.Fprintf(w, "Runtime: %d min\n", entry.Runtime)
	} else if len(entry.EpisodeRunTime) > 0 {
		fmt.Fprintf(w, "Episode runtime: %d min\n", entry.EpisodeRunTime[0])
	}
	if len(entry.Genres) > 0 {
		names := make([]string, 0, len(entry.Genres))
		for _, genre := range entry.Genres {
			names = append(names, genre.Name)
		}
		fmt.Fprintf(w, "Genres: %s\n", strings.Join(names, ", "))
	}
	fmt.Fprintf(w, "Rating: %.1f\n", entry.VoteAverage)
	fmt.Fprintf(w, "Poster: %s\n", tmdb.PosterURL(entry.PosterPath))
	if entry.Overview != "" {
		fmt.Fprintf(w, "\n%s\n", entry.Overview)
	}

	if entry.Credits != nil && len(entry.Credits.Cast) > 0 {
		fmt.Fprintln(w, "\nCast:")
		for i, member := range entry.Credits.Cast {
			if i == 5 {
				break
			}
			fmt.Fprintf(w, "  %s as %s\n", member.Name, member.Character)
		}
	}
	if entry.Videos != nil {
		for _, video := range entry.Videos.Results {
			if video.Site == "YouTube" && video.Type == "Trailer" {
				fmt.Fprintf(w, "Trailer: https://www.youtube.com/watch?v=%s\n", video.Key)
				break
			}
		}
	}
	if entry.Similar != nil && len(entry.Similar.Items) > 0 {
		fmt.Fprintln(w, "\nSimilar:")
		printEntries(w, entry.Similar.Items)
	}
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}

	return ""
}
