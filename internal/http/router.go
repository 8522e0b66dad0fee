package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/fossabot/versicle/internal/handlers"
	"github.com/fossabot/versicle/internal/storage"
	"github.com/fossabot/versicle/internal/tts"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	DB          handlers.Pinger
	Books       storage.BookStore
	Positions   storage.PositionStore
	History     storage.HistoryStore
	Annotations storage.AnnotationStore
	Lexicon     storage.LexiconStore
	Search      handlers.Searcher
	Enhancer    handlers.TitleEnhancer
	Segmenter   *tts.Segmenter
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(LoggerMiddleware)
	r.Use(CORS)

	health := handlers.NewHealthHandler(deps.DB)
	library := handlers.NewLibraryHandler(deps.Books, deps.Positions)
	position := handlers.NewPositionHandler(deps.Positions, deps.History, deps.Books)
	annotations := handlers.NewAnnotationsHandler(deps.Annotations, deps.Books)
	lexicon := handlers.NewLexiconHandler(deps.Lexicon)
	search := handlers.NewSearchHandler(deps.Search)
	toc := handlers.NewTocHandler(deps.Enhancer)
	preview := handlers.NewTTSHandler(deps.Segmenter, deps.Lexicon)

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodGet, "/health", health)

		r.Get("/library", library.List)
		r.Get("/library/{bookID}", library.Get)
		r.Delete("/library/{bookID}", library.Delete)
		r.Put("/library/{bookID}/position", position.Save)

		r.Route("/books/{bookID}", func(r chi.Router) {
			r.Get("/annotations", annotations.List)
			r.Post("/annotations", annotations.Create)
			r.Put("/annotations/{annotationID}/note", annotations.UpdateNote)
			r.Delete("/annotations/{annotationID}", annotations.Delete)

			r.Post("/index", search.Index)
			r.Delete("/index", search.RemoveIndex)
		})

		r.Get("/lexicon", lexicon.List)
		r.Post("/lexicon", lexicon.Create)
		r.Delete("/lexicon/{ruleID}", lexicon.Delete)
		r.Post("/lexicon/import", lexicon.Import)
		r.Get("/lexicon/export", lexicon.Export)

		r.Post("/search", search.Search)
		r.Post("/toc/enhance", toc.Enhance)
		r.Post("/tts/preview", preview.Preview)
	})

	return r
}
