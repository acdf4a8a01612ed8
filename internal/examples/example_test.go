package examples

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/patric-chuzhbe/cineshelf/internal/catalog"
	"github.com/patric-chuzhbe/cineshelf/internal/db/memorystorage"
	"github.com/patric-chuzhbe/cineshelf/internal/favorites"
	"github.com/patric-chuzhbe/cineshelf/internal/models"
	"github.com/patric-chuzhbe/cineshelf/internal/notifier"
	"github.com/patric-chuzhbe/cineshelf/internal/session"
	"github.com/patric-chuzhbe/cineshelf/internal/tmdb"
	"github.com/patric-chuzhbe/cineshelf/internal/tmdb/tmdbtest"
)

type stores struct {
	server    *tmdbtest.Server
	sessions  *session.Store
	favorites *favorites.Store
	catalog   *catalog.Store
	alerts    *notifier.Recorder
}

func setupStores() *stores {
	db, err := memorystorage.New()
	if err != nil {
		panic(err)
	}

	server := tmdbtest.New()
	alerts := &notifier.Recorder{}
	sessions := session.New(db, session.WithNotifier(alerts), session.WithBcryptCost(bcrypt.MinCost))
	sessions.Load(context.Background())

	return &stores{
		server:    server,
		sessions:  sessions,
		favorites: favorites.New(context.Background(), db, sessions),
		catalog:   catalog.New(tmdb.New(server.URL, tmdbtest.APIKey, tmdb.DefaultLanguage)),
		alerts:    alerts,
	}
}

func (s *stores) Close() {
	s.favorites.Close()
	s.server.Close()
}

// Favorites follow the logged-in user.
func Example_favorites() {
	s := setupStores()
	defer s.Close()
	ctx := context.Background()

	s.sessions.Register(ctx, "Ana", "ana@x.com", "123456")
	s.favorites.Add(ctx, models.FavoriteItem{ID: 603, Title: "The Matrix", MediaType: models.MediaKindMovie})
	s.favorites.Add(ctx, models.FavoriteItem{ID: 603, Title: "The Matrix", MediaType: models.MediaKindMovie})
	fmt.Println("Ana:", len(s.favorites.Items()))

	s.sessions.Register(ctx, "Bia", "bia@x.com", "654321")
	fmt.Println("Bia:", len(s.favorites.Items()))

	s.sessions.Login(ctx, "ana@x.com", "123456")
	fmt.Println("Ana again:", s.favorites.Items()[0].Title)

	// Output:
	// Ana: 1
	// Bia: 0
	// Ana again: The Matrix
}

// Logins are exact: e-mail case matters.
func Example_login() {
	s := setupStores()
	defer s.Close()
	ctx := context.Background()

	s.sessions.Register(ctx, "Ana", "A@b.com", "123456")
	s.sessions.Logout(ctx)

	fmt.Println("lower case:", s.sessions.Login(ctx, "a@b.com", "123456"))
	alert, _ := s.alerts.Last()
	fmt.Println("alert:", alert.Message)
	fmt.Println("exact:", s.sessions.Login(ctx, "A@b.com", "123456"))
	fmt.Println("phase:", s.sessions.State().Phase)

	// Output:
	// lower case: false
	// alert: Invalid credentials
	// exact: true
	// phase: authenticated
}

// Search results grow page by page until the last page.
func Example_search() {
	s := setupStores()
	defer s.Close()
	ctx := context.Background()
	s.server.SetSearch("matrix", tmdbtest.Page("Matrix", 603, 604), tmdbtest.Page("Matrix", 605))

	s.catalog.Search(ctx, "matrix", 1)
	for s.catalog.State().HasMore() {
		s.catalog.LoadMore(ctx)
	}

	state := s.catalog.State()
	for _, entry := range state.Results {
		fmt.Println(entry.ID, entry.DisplayTitle())
	}
	fmt.Printf("page %d of %d\n", state.Page, state.TotalPages)

	// Output:
	// 603 Matrix 603
	// 604 Matrix 604
	// 605 Matrix 605
	// page 2 of 2
}
