package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophmarket/internal/dbx"
	"github.com/dmitrijs2005/gophmarket/internal/fieldmap"
	"github.com/dmitrijs2005/gophmarket/internal/logging"
	"github.com/dmitrijs2005/gophmarket/internal/server/models"
	"github.com/dmitrijs2005/gophmarket/internal/server/repositories/cards"
	"github.com/dmitrijs2005/gophmarket/internal/server/repositories/proxies"
	"github.com/dmitrijs2005/gophmarket/internal/server/repositories/repomanager"
)

// ReencryptReport counts what a re-encryption pass did.
type ReencryptReport struct {
	Scanned int
	Updated int
	// Failed lists "record/id.field" for envelopes that no longer open.
	Failed []string
}

// Reencryptor seals sensitive values that were written before field
// encryption was enabled. Values that already are envelopes are never
// touched, so the job can be run repeatedly.
type Reencryptor struct {
	db     dbx.DBTX
	rm     repomanager.RepositoryManager
	mapper *fieldmap.Mapper
	log    logging.Logger
	dryRun bool
}

// NewReencryptor returns a Reencryptor. With dryRun it only reports.
func NewReencryptor(db dbx.DBTX, rm repomanager.RepositoryManager, mapper *fieldmap.Mapper, log logging.Logger, dryRun bool) *Reencryptor {
	return &Reencryptor{db: db, rm: rm, mapper: mapper, log: log.With("module", "reencrypt"), dryRun: dryRun}
}

// Run walks cards, proxies and offer cards.
func (r *Reencryptor) Run(ctx context.Context) (*ReencryptReport, error) {
	rep := &ReencryptReport{}

	if err := r.cards(ctx, rep); err != nil {
		return rep, fmt.Errorf("cards: %w", err)
	}
	if err := r.proxies(ctx, rep); err != nil {
		return rep, fmt.Errorf("proxies: %w", err)
	}
	if err := r.offerCards(ctx, rep); err != nil {
		return rep, fmt.Errorf("offer cards: %w", err)
	}

	r.log.Info(ctx, "re-encryption finished",
		"scanned", rep.Scanned, "updated", rep.Updated, "failed", len(rep.Failed), "dry_run", r.dryRun)
	return rep, nil
}

// pages calls fn for every page of a listing until total is reached.
func pages[T any](ctx context.Context, list func(context.Context, models.Page) ([]*T, int, error), fn func(*T) error) error {
	page := models.Page{Limit: models.MaxPageSize}
	for {
		items, total, err := list(ctx, page)
		if err != nil {
			return err
		}
		for _, it := range items {
			if err := fn(it); err != nil {
				return err
			}
		}
		page.Offset += len(items)
		if len(items) == 0 || page.Offset >= total {
			return nil
		}
	}
}

func (r *Reencryptor) cards(ctx context.Context, rep *ReencryptReport) error {
	repo := r.rm.Cards(r.db)
	list := func(ctx context.Context, p models.Page) ([]*models.Card, int, error) {
		return repo.List(ctx, cards.Filter{}, p)
	}
	return pages(ctx, list, func(c *models.Card) error {
		return reseal(ctx, r, rep, fieldmap.CardSchema, c.ID, c.CardDetails, repo.UpdateDetails)
	})
}

func (r *Reencryptor) proxies(ctx context.Context, rep *ReencryptReport) error {
	repo := r.rm.Proxies(r.db)
	list := func(ctx context.Context, p models.Page) ([]*models.Proxy, int, error) {
		return repo.List(ctx, proxies.Filter{}, p)
	}
	return pages(ctx, list, func(p *models.Proxy) error {
		return reseal(ctx, r, rep, fieldmap.ProxySchema, p.ID, p.ProxyCredentials, repo.UpdateCredentials)
	})
}

func (r *Reencryptor) offerCards(ctx context.Context, rep *ReencryptReport) error {
	repo := r.rm.OfferCards(r.db)
	rows, err := repo.ListAll(ctx)
	if err != nil {
		return err
	}
	for _, c := range rows {
		if err := reseal(ctx, r, rep, fieldmap.CardSchema, c.ID, c.CardDetails, repo.UpdateDetails); err != nil {
			return err
		}
	}
	return nil
}

func reseal[T any](ctx context.Context, r *Reencryptor, rep *ReencryptReport, s fieldmap.Schema[T], id string, rec T,
	save func(context.Context, string, T) error) error {
	rep.Scanned++

	sealed, mig, err := fieldmap.SealLegacy(r.mapper, s, rec)
	if err != nil {
		return err
	}
	for _, f := range mig.Failed {
		rep.Failed = append(rep.Failed, fmt.Sprintf("%s/%s.%s", s.Record, id, f))
		r.log.Warn(ctx, "value does not decrypt, left as is", "record", s.Record, "id", id, "field", f)
	}
	if !mig.Changed() {
		return nil
	}

	rep.Updated++
	if r.dryRun {
		return nil
	}
	if err := save(ctx, id, sealed); err != nil {
		return fmt.Errorf("%s %s: %w", s.Record, id, err)
	}
	return nil
}
