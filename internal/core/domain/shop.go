package domain

import (
	"github.com/google/uuid"

	"github.com/solewatch/solewatch/internal/util"
)

// Shop is the aggregate a scrape driver works on: one storefront plus every
// product watched there. Shops are grouped by the host part of their URL.
type Shop struct {
	UID           string     `json:"uid"`
	Name          string     `json:"name"`
	URL           string     `json:"url"`
	LastScanStamp float64    `json:"lastScanStamp"`
	Products      []*Product `json:"products"`
}

func NewShop(url string) *Shop {
	return &Shop{
		UID:      uuid.NewString(),
		URL:      url,
		Products: make([]*Product, 0),
	}
}

// AddProduct registers a product with the shop. A product whose URL is
// already present is left alone.
func (s *Shop) AddProduct(product *Product) {
	if product == nil {
		return
	}
	for _, p := range s.Products {
		if p.URL == product.URL {
			return
		}
	}
	s.Products = append(s.Products, product)
}

func (s *Shop) RemoveProduct(url string) {
	for i, p := range s.Products {
		if p.URL == url {
			s.Products = append(s.Products[:i], s.Products[i+1:]...)
			return
		}
	}
}

func (s *Shop) FindProduct(url string) *Product {
	for _, p := range s.Products {
		if p.URL == url {
			return p
		}
	}
	return nil
}

// Netloc reports the host part of the shop URL.
func (s *Shop) Netloc() (string, error) {
	return util.Netloc(s.URL)
}

// AssignProducts adds every given product whose URL points at this shop's
// host. Already assigned products are skipped by AddProduct. Returns the
// products that matched this shop.
func (s *Shop) AssignProducts(products []*Product) []*Product {
	matched := make([]*Product, 0)

	netloc, err := s.Netloc()
	if err != nil {
		return matched
	}

	for _, p := range products {
		productNetloc, err := util.Netloc(p.URL)
		if err != nil || productNetloc != netloc {
			continue
		}
		s.AddProduct(p)
		matched = append(matched, p)
	}
	return matched
}

// SetNameIfEmpty keeps an already known shop name. Reports whether the
// given name was taken over.
func (s *Shop) SetNameIfEmpty(name string) bool {
	if s.Name != "" {
		return false
	}
	s.Name = name
	return true
}

func (s *Shop) SetLastScanNow() {
	s.LastScanStamp = nowStamp()
}
