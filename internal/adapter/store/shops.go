package store

import (
	"context"
	"errors"
	"sync"

	jsoniter "github.com/json-iterator/go"

	"github.com/solewatch/solewatch/internal/core/constants"
	"github.com/solewatch/solewatch/internal/core/domain"
	"github.com/solewatch/solewatch/internal/core/ports"
	"github.com/solewatch/solewatch/internal/logger"
)

// Shops implements ports.ShopRepository on the document store's Shops table.
// Mutations serialize on the repository mutex so a driver's Update can never
// interleave with a running reconciliation.
type Shops struct {
	doc    *Document
	logger logger.StyledLogger
	mu     sync.Mutex
}

func NewShops(doc *Document, log logger.StyledLogger) *Shops {
	return &Shops{doc: doc, logger: log}
}

func (s *Shops) GetAll(ctx context.Context) ([]*domain.Shop, error) {
	records, err := s.doc.All(constants.TableShops)
	if err != nil {
		return nil, err
	}

	shops := make([]*domain.Shop, 0, len(records))

	for _, record := range records {
		var shop domain.Shop
		if err := json.Unmarshal(record, &shop); err != nil {
			return nil, domain.NewStorageError("decode", s.doc.Path(), err)
		}

		shops = append(shops, &shop)
	}

	return shops, nil
}

// SetAll replaces the whole table, preserving the given order.
func (s *Shops) SetAll(ctx context.Context, shops []*domain.Shop) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.setAll(shops)
}

// Update replaces the record matching the shop's uid. Zero or multiple
// matches fail; the caller's snapshot is then stale and the next tick
// re-reads.
func (s *Shops) Update(ctx context.Context, shop *domain.Shop) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := json.Marshal(shop)
	if err != nil {
		return domain.NewStorageError("encode", s.doc.Path(), err)
	}

	return s.doc.UpdateWhere(constants.TableShops, "uid", shop.UID, record)
}

func (s *Shops) FindByUID(ctx context.Context, uid string) (*domain.Shop, error) {
	records, err := s.doc.Where(constants.TableShops, "uid", uid)
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		return nil, domain.NewLookupError("shop", uid, nil)
	}

	var shop domain.Shop
	if err := json.Unmarshal(records[0], &shop); err != nil {
		return nil, domain.NewStorageError("decode", s.doc.Path(), err)
	}

	return &shop, nil
}

// FindByName returns every shop with the given name; names are not unique.
func (s *Shops) FindByName(ctx context.Context, name string) ([]*domain.Shop, error) {
	records, err := s.doc.Where(constants.TableShops, "name", name)
	if err != nil {
		return nil, err
	}

	shops := make([]*domain.Shop, 0, len(records))

	for _, record := range records {
		var shop domain.Shop
		if err := json.Unmarshal(record, &shop); err != nil {
			return nil, domain.NewStorageError("decode", s.doc.Path(), err)
		}

		shops = append(shops, &shop)
	}

	return shops, nil
}

// UpdateFromProductURLs reconciles the shops table against the watched
// product list. Shops keep their uid, name, scan stamps and product history
// as long as at least one of their products stays listed; product membership
// follows the list exactly; shops with no listed products are dropped.
// Idempotent: running it twice against the same list is a no-op.
func (s *Shops) UpdateFromProductURLs(ctx context.Context, source ports.ProductURLSource) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	candidates, err := source.CreateShops(ctx)
	if err != nil {
		// An empty watch list is not an error here: it means every shop
		// lost its last product and the table empties out.
		var lookupErr *domain.LookupError
		if !errors.As(err, &lookupErr) {
			return err
		}

		s.logger.Warn("No product URLs found, clearing shops", "error", err)
		candidates = nil
	}

	existing, err := s.GetAll(ctx)
	if err != nil {
		return err
	}

	merged := make([]*domain.Shop, 0, len(candidates))

	for _, candidate := range candidates {
		match := findByNetloc(existing, candidate)
		if match == nil {
			merged = append(merged, candidate)
			continue
		}

		// Drop products that left the list, keep the history of those that
		// stayed, then pick up the new ones.
		wanted := make(map[string]struct{}, len(candidate.Products))
		for _, product := range candidate.Products {
			wanted[product.URL] = struct{}{}
		}

		for _, product := range productsCopy(match) {
			if _, ok := wanted[product.URL]; !ok {
				match.RemoveProduct(product.URL)
			}
		}

		for _, product := range candidate.Products {
			match.AddProduct(product)
		}

		merged = append(merged, match)
	}

	if err := s.setAll(merged); err != nil {
		return err
	}

	s.logger.InfoWithCount("Reconciled shops from product URLs", len(merged))

	return nil
}

func (s *Shops) setAll(shops []*domain.Shop) error {
	records := make([]jsoniter.RawMessage, 0, len(shops))

	for _, shop := range shops {
		record, err := json.Marshal(shop)
		if err != nil {
			return domain.NewStorageError("encode", s.doc.Path(), err)
		}

		records = append(records, record)
	}

	return s.doc.ReplaceAll(constants.TableShops, records)
}

func findByNetloc(shops []*domain.Shop, wanted *domain.Shop) *domain.Shop {
	wantedNetloc, err := wanted.Netloc()
	if err != nil {
		return nil
	}

	for _, shop := range shops {
		netloc, err := shop.Netloc()
		if err == nil && netloc == wantedNetloc {
			return shop
		}
	}

	return nil
}

func productsCopy(shop *domain.Shop) []*domain.Product {
	products := make([]*domain.Product, len(shop.Products))
	copy(products, shop.Products)

	return products
}
