package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/dmitrijs2005/gophmarket/internal/common"
	"github.com/dmitrijs2005/gophmarket/internal/dbx"
	"github.com/dmitrijs2005/gophmarket/internal/fieldmap"
	"github.com/dmitrijs2005/gophmarket/internal/logging"
	"github.com/dmitrijs2005/gophmarket/internal/server/models"
	"github.com/dmitrijs2005/gophmarket/internal/server/repositories/cards"
	"github.com/dmitrijs2005/gophmarket/internal/server/repositories/proxies"
	"github.com/dmitrijs2005/gophmarket/internal/server/repositories/repomanager"
	"github.com/shopspring/decimal"
)

// VideoLinks presigns card verification videos. MediaService implements it.
type VideoLinks interface {
	PresignVideoUpload(ctx context.Context, key string) (string, error)
	ResolveVideoLink(ctx context.Context, link string) (string, error)
}

// Listing is one page of a listing plus the number of matching records.
type Listing[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

// CardPreview is what buyers see before purchase. It carries no data that
// would let anyone use the card.
type CardPreview struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Price     decimal.Decimal `json:"price"`
	BIN       string          `json:"bin,omitempty"`
	Bank      string          `json:"bank,omitempty"`
	Type      string          `json:"type,omitempty"`
	Country   string          `json:"country,omitempty"`
	State     string          `json:"state,omitempty"`
	City      string          `json:"city,omitempty"`
	Zip       string          `json:"zip,omitempty"`
	Expiry    string          `json:"expiry,omitempty"`
	HasVideo  bool            `json:"hasVideo"`
	CreatedAt time.Time       `json:"createdAt"`
}

// CardView is the administrator view of a card.
type CardView struct {
	ID             string             `json:"id"`
	Title          string             `json:"title"`
	Price          decimal.Decimal    `json:"price"`
	Details        models.CardDetails `json:"details"`
	ForSale        bool               `json:"forSale"`
	SoldToUsername string             `json:"soldToUsername,omitempty"`
	SoldToEmail    string             `json:"soldToEmail,omitempty"`
	SoldAt         *time.Time         `json:"soldAt,omitempty"`
	CreatedAt      time.Time          `json:"createdAt"`
}

type ProxyPreview struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Protocol  string          `json:"protocol"`
	Location  string          `json:"location"`
	Price     decimal.Decimal `json:"price"`
	CreatedAt time.Time       `json:"createdAt"`
}

type ProxyView struct {
	ProxyPreview
	Credentials    models.ProxyCredentials `json:"credentials"`
	ForSale        bool                    `json:"forSale"`
	SoldToUsername string                  `json:"soldToUsername,omitempty"`
	SoldToEmail    string                  `json:"soldToEmail,omitempty"`
	SoldAt         *time.Time              `json:"soldAt,omitempty"`
}

// NewCard is the administrator input for a card listing.
type NewCard struct {
	Title   string
	Price   decimal.Decimal
	Details models.CardDetails
}

// NewProxy is the administrator input for a proxy listing.
type NewProxy struct {
	Title       string
	Protocol    string
	Location    string
	Price       decimal.Decimal
	Credentials models.ProxyCredentials
}

// InventoryService manages single cards and proxies.
type InventoryService struct {
	db     dbx.DBTX
	rm     repomanager.RepositoryManager
	mapper *fieldmap.Mapper
	videos VideoLinks
	log    logging.Logger
}

// NewInventoryService returns an InventoryService. videos may be nil, in
// which case video links are shown as stored and uploads are refused.
func NewInventoryService(db dbx.DBTX, rm repomanager.RepositoryManager, mapper *fieldmap.Mapper, videos VideoLinks, log logging.Logger) *InventoryService {
	return &InventoryService{db: db, rm: rm, mapper: mapper, videos: videos, log: log.With("module", "inventory")}
}

func validateListing(title string, price decimal.Decimal) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("title is required: %w", common.ErrorValidation)
	}
	if price.IsNegative() {
		return fmt.Errorf("price must not be negative: %w", common.ErrorValidation)
	}
	return nil
}

// CreateCard stores a new card for sale.
func (s *InventoryService) CreateCard(ctx context.Context, in NewCard) (*CardView, error) {
	if err := validateListing(in.Title, in.Price); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Details.CardNumber) == "" {
		return nil, fmt.Errorf("card number is required: %w", common.ErrorValidation)
	}

	sealed, err := s.mapper.SealCard(in.Details)
	if err != nil {
		return nil, settleError(ctx, s.log, "create card", err)
	}
	card, err := s.rm.Cards(s.db).Create(ctx, &models.Card{
		Title:       strings.TrimSpace(in.Title),
		Price:       in.Price,
		CardDetails: sealed,
		Sale:        models.Sale{ForSale: true},
	})
	if err != nil {
		return nil, settleError(ctx, s.log, "create card", err)
	}
	s.log.Info(ctx, "card created", "card_id", card.ID)

	v := s.cardView(ctx, card)
	return &v, nil
}

// CreateProxy stores a new proxy for sale.
func (s *InventoryService) CreateProxy(ctx context.Context, in NewProxy) (*ProxyView, error) {
	if err := validateListing(in.Title, in.Price); err != nil {
		return nil, err
	}

	sealed, err := s.mapper.SealProxy(in.Credentials)
	if err != nil {
		return nil, settleError(ctx, s.log, "create proxy", err)
	}
	proxy, err := s.rm.Proxies(s.db).Create(ctx, &models.Proxy{
		Title:            strings.TrimSpace(in.Title),
		Protocol:         in.Protocol,
		Location:         in.Location,
		Price:            in.Price,
		ProxyCredentials: sealed,
		Sale:             models.Sale{ForSale: true},
	})
	if err != nil {
		return nil, settleError(ctx, s.log, "create proxy", err)
	}
	s.log.Info(ctx, "proxy created", "proxy_id", proxy.ID)

	v := s.proxyView(proxy)
	return &v, nil
}

// ListCards returns cards still for sale, newest first.
func (s *InventoryService) ListCards(ctx context.Context, page models.Page) (*Listing[CardPreview], error) {
	items, total, err := s.rm.Cards(s.db).List(ctx, cards.Filter{ForSaleOnly: true}, page)
	if err != nil {
		return nil, settleError(ctx, s.log, "list cards", err)
	}
	out := &Listing[CardPreview]{Items: make([]CardPreview, len(items)), Total: total}
	for i, c := range items {
		out.Items[i] = s.cardPreview(c)
	}
	return out, nil
}

// AdminListCards returns every card, sold ones included.
func (s *InventoryService) AdminListCards(ctx context.Context, page models.Page) (*Listing[CardView], error) {
	items, total, err := s.rm.Cards(s.db).List(ctx, cards.Filter{}, page)
	if err != nil {
		return nil, settleError(ctx, s.log, "list cards", err)
	}
	out := &Listing[CardView]{Items: make([]CardView, len(items)), Total: total}
	for i, c := range items {
		out.Items[i] = s.cardView(ctx, c)
	}
	return out, nil
}

// ListProxies returns proxies still for sale, newest first.
func (s *InventoryService) ListProxies(ctx context.Context, page models.Page) (*Listing[ProxyPreview], error) {
	items, total, err := s.rm.Proxies(s.db).List(ctx, proxies.Filter{ForSaleOnly: true}, page)
	if err != nil {
		return nil, settleError(ctx, s.log, "list proxies", err)
	}
	out := &Listing[ProxyPreview]{Items: make([]ProxyPreview, len(items)), Total: total}
	for i, p := range items {
		out.Items[i] = proxyPreview(p)
	}
	return out, nil
}

// AdminListProxies returns every proxy with decrypted credentials.
func (s *InventoryService) AdminListProxies(ctx context.Context, page models.Page) (*Listing[ProxyView], error) {
	items, total, err := s.rm.Proxies(s.db).List(ctx, proxies.Filter{}, page)
	if err != nil {
		return nil, settleError(ctx, s.log, "list proxies", err)
	}
	out := &Listing[ProxyView]{Items: make([]ProxyView, len(items)), Total: total}
	for i, p := range items {
		out.Items[i] = s.proxyView(p)
	}
	return out, nil
}

// RequestCardVideoUpload points the card's videoLink at a fresh object key
// and returns a presigned URL the administrator uploads the video to.
func (s *InventoryService) RequestCardVideoUpload(ctx context.Context, cardID string) (string, error) {
	if s.videos == nil {
		return "", fmt.Errorf("video storage is not configured: %w", common.ErrorInvalidState)
	}

	repo := s.rm.Cards(s.db)
	card, err := repo.GetByID(ctx, cardID)
	if err != nil {
		return "", settleError(ctx, s.log, "video upload", err, "card_id", cardID)
	}

	key := VideoKey(card.ID)
	url, err := s.videos.PresignVideoUpload(ctx, key)
	if err != nil {
		return "", settleError(ctx, s.log, "video upload", err, "card_id", cardID)
	}

	details := card.CardDetails
	details.VideoLink = key
	if err := repo.UpdateDetails(ctx, card.ID, details); err != nil {
		return "", settleError(ctx, s.log, "video upload", err, "card_id", cardID)
	}
	return url, nil
}

// resolveVideo falls back to the stored link when presigning fails.
func (s *InventoryService) resolveVideo(ctx context.Context, link string) string {
	return resolveVideo(ctx, s.videos, s.log, link)
}

func resolveVideo(ctx context.Context, videos VideoLinks, log logging.Logger, link string) string {
	if videos == nil || link == "" {
		return link
	}
	url, err := videos.ResolveVideoLink(ctx, link)
	if err != nil {
		log.Warn(ctx, "cannot resolve video link", "link", link, "error", err)
		return link
	}
	return url
}

func (s *InventoryService) cardPreview(c *models.Card) CardPreview {
	d := s.mapper.OpenCard(c.CardDetails)
	return CardPreview{
		ID:        c.ID,
		Title:     c.Title,
		Price:     c.Price,
		BIN:       bin(d.CardNumber),
		Bank:      d.Bank,
		Type:      d.Type,
		Country:   d.Country,
		State:     d.State,
		City:      d.City,
		Zip:       d.Zip,
		Expiry:    d.Expiry,
		HasVideo:  d.VideoLink != "",
		CreatedAt: c.CreatedAt,
	}
}

func (s *InventoryService) cardView(ctx context.Context, c *models.Card) CardView {
	d := s.mapper.OpenCard(c.CardDetails)
	d.VideoLink = s.resolveVideo(ctx, d.VideoLink)
	return CardView{
		ID:             c.ID,
		Title:          c.Title,
		Price:          c.Price,
		Details:        d,
		ForSale:        c.ForSale,
		SoldToUsername: c.SoldToUsername,
		SoldToEmail:    c.SoldToEmail,
		SoldAt:         c.SoldAt,
		CreatedAt:      c.CreatedAt,
	}
}

func proxyPreview(p *models.Proxy) ProxyPreview {
	return ProxyPreview{
		ID:        p.ID,
		Title:     p.Title,
		Protocol:  p.Protocol,
		Location:  p.Location,
		Price:     p.Price,
		CreatedAt: p.CreatedAt,
	}
}

func (s *InventoryService) proxyView(p *models.Proxy) ProxyView {
	return ProxyView{
		ProxyPreview:   proxyPreview(p),
		Credentials:    s.mapper.OpenProxy(p.ProxyCredentials),
		ForSale:        p.ForSale,
		SoldToUsername: p.SoldToUsername,
		SoldToEmail:    p.SoldToEmail,
		SoldAt:         p.SoldAt,
	}
}

// bin returns the first six digits of a card number, or "" when it has
// fewer.
func bin(number string) string {
	digits := make([]rune, 0, 6)
	for _, r := range number {
		if unicode.IsDigit(r) {
			digits = append(digits, r)
			if len(digits) == 6 {
				return string(digits)
			}
		}
	}
	return ""
}
