// Package memory is an in-process implementation of every repository and of
// dbx.Transactor. One mutex guards the whole store; a transaction holds it
// for its full duration and restores a snapshot when it fails, so a failed
// unit of work leaves no trace.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/dmitrijs2005/gophmarket/internal/dbx"
	"github.com/dmitrijs2005/gophmarket/internal/server/models"
)

type row[T any] struct {
	seq uint64
	v   T
}

type table[T any] map[string]row[T]

func (t table[T]) clone() table[T] {
	out := make(table[T], len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// sorted returns the values passing keep, newest first unless oldestFirst.
func (t table[T]) sorted(oldestFirst bool, keep func(T) bool) []T {
	rows := make([]row[T], 0, len(t))
	for _, r := range t {
		if keep == nil || keep(r.v) {
			rows = append(rows, r)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if oldestFirst {
			return rows[i].seq < rows[j].seq
		}
		return rows[i].seq > rows[j].seq
	})
	out := make([]T, len(rows))
	for i, r := range rows {
		out[i] = r.v
	}
	return out
}

type state struct {
	seq         uint64
	users       table[models.User]
	sessions    table[models.RefreshToken]
	cards       table[models.Card]
	proxies     table[models.Proxy]
	offers      table[models.Offer]
	offerCards  table[models.OfferCard]
	cardOrders  table[models.Order]
	proxyOrders table[models.ProxyOrder]
	offerOrders table[models.OfferOrder]
}

func (s state) clone() state {
	return state{
		seq:         s.seq,
		users:       s.users.clone(),
		sessions:    s.sessions.clone(),
		cards:       s.cards.clone(),
		proxies:     s.proxies.clone(),
		offers:      s.offers.clone(),
		offerCards:  s.offerCards.clone(),
		cardOrders:  s.cardOrders.clone(),
		proxyOrders: s.proxyOrders.clone(),
		offerOrders: s.offerOrders.clone(),
	}
}

// Store holds all tables.
type Store struct {
	mu sync.Mutex
	st state
}

func NewStore() *Store {
	return &Store{st: state{
		users:       table[models.User]{},
		sessions:    table[models.RefreshToken]{},
		cards:       table[models.Card]{},
		proxies:     table[models.Proxy]{},
		offers:      table[models.Offer]{},
		offerCards:  table[models.OfferCard]{},
		cardOrders:  table[models.Order]{},
		proxyOrders: table[models.ProxyOrder]{},
		offerOrders: table[models.OfferOrder]{},
	}}
}

type txKey struct{}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

// lock takes the store mutex unless ctx already runs inside a transaction of
// this store.
func (s *Store) lock(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) nextSeq() uint64 {
	s.st.seq++
	return s.st.seq
}

// WithinTx implements dbx.Transactor. The DBTX passed to fn is nil; memory
// repositories ignore it and recognise the transaction through ctx.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) (err error) {
	if s.inTx(ctx) {
		return fn(ctx, nil)
	}

	s.mu.Lock()
	snapshot := s.st.clone()
	defer func() {
		if p := recover(); p != nil {
			s.st = snapshot
			s.mu.Unlock()
			panic(p)
		}
		if err != nil {
			s.st = snapshot
		}
		s.mu.Unlock()
	}()

	return fn(context.WithValue(ctx, txKey{}, s), nil)
}
