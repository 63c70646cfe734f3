package http

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"

	"github.com/njprem/travelswipe/internal/deck"
	"github.com/njprem/travelswipe/internal/domain"
	"github.com/njprem/travelswipe/internal/service"
	"github.com/njprem/travelswipe/internal/util"
)

// deckRegistry keeps one deck per signed-in user, built from the catalog on
// first use.
type deckRegistry struct {
	mu      sync.Mutex
	decks   map[string]*deck.Deck
	cfg     deck.Config
	likes   *service.LikeService
	catalog *service.CatalogService
}

func newDeckRegistry(cfg deck.Config, likes *service.LikeService, catalog *service.CatalogService) *deckRegistry {
	return &deckRegistry{
		decks:   make(map[string]*deck.Deck),
		cfg:     cfg,
		likes:   likes,
		catalog: catalog,
	}
}

func (r *deckRegistry) get(ctx context.Context, userID string) (*deck.Deck, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if d, ok := r.decks[userID]; ok {
		return d, nil
	}
	cards, err := r.catalog.List(ctx)
	if err != nil {
		return nil, err
	}
	d := deck.New(cards, r.cfg, func(ctx context.Context, card domain.Package) error {
		_, err := r.likes.Like(ctx, userID, card)
		return err
	})
	r.decks[userID] = d
	return d, nil
}

type DeckHandler struct {
	decks *deckRegistry
}

func RegisterDeck(e *echo.Echo, auth *service.AuthService, cfg deck.Config, likes *service.LikeService, catalog *service.CatalogService) {
	h := &DeckHandler{decks: newDeckRegistry(cfg, likes, catalog)}

	g := e.Group("/api/v1/deck", RequireAuth(auth))
	g.GET("", h.state)
	g.POST("/start", h.start)
	g.POST("/move", h.move)
	g.POST("/release", h.release)
	g.POST("/complete", h.complete)
	g.POST("/tap", h.tap)
	g.POST("/restart", h.restart)
}

func (h *DeckHandler) userDeck(c echo.Context) (*deck.Deck, error) {
	user, ok := CurrentUser(c)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return h.decks.get(c.Request().Context(), user.ID)
}

func (h *DeckHandler) state(c echo.Context) error {
	d, err := h.userDeck(c)
	if err != nil {
		return deckError(c, err)
	}
	return c.JSON(http.StatusOK, d.State())
}

func (h *DeckHandler) start(c echo.Context) error {
	d, err := h.userDeck(c)
	if err != nil {
		return deckError(c, err)
	}
	if err := d.Start(); err != nil {
		return deckError(c, err)
	}
	return c.JSON(http.StatusOK, d.State())
}

func (h *DeckHandler) move(c echo.Context) error {
	d, err := h.userDeck(c)
	if err != nil {
		return deckError(c, err)
	}
	var req GestureRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}
	hint, err := d.Move(req.DX, req.DY)
	if err != nil {
		return deckError(c, err)
	}
	return c.JSON(http.StatusOK, util.Envelope{
		"hint":         hint,
		"tilt_degrees": deck.Tilt(req.DX, d.Config().TiltWidth),
	})
}

func (h *DeckHandler) release(c echo.Context) error {
	d, err := h.userDeck(c)
	if err != nil {
		return deckError(c, err)
	}
	var req GestureRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}
	outcome, err := d.Release(req.DX, req.DY)
	if err != nil {
		return deckError(c, err)
	}
	return c.JSON(http.StatusOK, outcome)
}

func (h *DeckHandler) complete(c echo.Context) error {
	d, err := h.userDeck(c)
	if err != nil {
		return deckError(c, err)
	}
	settlement, err := d.Complete(c.Request().Context())
	if err != nil {
		return deckError(c, err)
	}

	res := SettlementResponse{
		Decision: settlement.Decision,
		Card:     settlement.Card,
		Cursor:   settlement.Cursor,
	}
	if settlement.Err != nil {
		c.Logger().Warnf("deck: like for %s failed: %v", settlement.Card.ID, settlement.Err)
		res.LikeError = &ErrorResponse{Error: "could not save like", Kind: domain.KindOf(settlement.Err).String()}
	}
	return c.JSON(http.StatusOK, res)
}

func (h *DeckHandler) tap(c echo.Context) error {
	d, err := h.userDeck(c)
	if err != nil {
		return deckError(c, err)
	}
	card, err := d.Tap()
	if err != nil {
		return deckError(c, err)
	}
	return c.JSON(http.StatusOK, util.Envelope{"package": card})
}

func (h *DeckHandler) restart(c echo.Context) error {
	d, err := h.userDeck(c)
	if err != nil {
		return deckError(c, err)
	}
	if err := d.Restart(); err != nil {
		return deckError(c, err)
	}
	return c.JSON(http.StatusOK, d.State())
}

func deckError(c echo.Context, err error) error {
	var httpErr *echo.HTTPError
	switch {
	case errors.As(err, &httpErr):
		return c.JSON(httpErr.Code, util.Error("authentication required"))
	case errors.Is(err, deck.ErrGestureInProgress),
		errors.Is(err, deck.ErrNoGesture),
		errors.Is(err, deck.ErrNotCommitting),
		errors.Is(err, deck.ErrDeckExhausted):
		return c.JSON(http.StatusConflict, util.Error(err.Error()))
	default:
		return respondError(c, err, "deck unavailable")
	}
}
