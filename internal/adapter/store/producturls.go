package store

import (
	"context"
	"strings"

	"github.com/spf13/afero"

	"github.com/solewatch/solewatch/internal/core/domain"
	"github.com/solewatch/solewatch/internal/logger"
	"github.com/solewatch/solewatch/internal/util"
)

// ProductURLs reads the watched product list, one URL per line.
type ProductURLs struct {
	file   *TextFile
	logger logger.StyledLogger
}

func NewProductURLs(fs afero.Fs, path string, log logger.StyledLogger) *ProductURLs {
	p := &ProductURLs{logger: log}
	p.file = OpenTextFile(fs, path, p.verifyLine)

	return p
}

func (p *ProductURLs) Path() string {
	return p.file.Path()
}

func (p *ProductURLs) verifyLine(line string) bool {
	if strings.HasPrefix(line, "http") {
		return true
	}

	p.logger.Warn("Invalid product URL, no http part detected", "line", line)

	return false
}

func (p *ProductURLs) GetAll(ctx context.Context) ([]*domain.Product, error) {
	lines, err := p.file.LoadAll()
	if err != nil {
		return nil, err
	}

	products := make([]*domain.Product, 0, len(lines))
	for _, line := range lines {
		products = append(products, domain.NewProduct(line))
	}

	return products, nil
}

func (p *ProductURLs) Add(ctx context.Context, url string) error {
	url = strings.TrimSpace(url)
	if !strings.HasPrefix(url, "http") {
		return domain.NewValidationError("url", url, "must start with http")
	}

	return p.file.Insert(url)
}

// CreateShops groups the product list into candidate shops, one per host,
// keyed by scheme://host. Names stay empty so the first scan can fill them.
// The list is walked back to front, so the candidate order follows the most
// recently appended URLs.
func (p *ProductURLs) CreateShops(ctx context.Context) ([]*domain.Shop, error) {
	products, err := p.GetAll(ctx)
	if err != nil {
		return nil, domain.NewLookupError("product URLs", p.file.Path(), err)
	}

	if len(products) == 0 {
		return nil, domain.NewLookupError("product URLs", p.file.Path(), nil)
	}

	var shops []*domain.Shop

	seen := make(map[string]struct{})

	for i := len(products) - 1; i >= 0; i-- {
		netloc, err := util.Netloc(products[i].URL)
		if err != nil {
			continue
		}

		if _, dup := seen[netloc]; dup {
			continue
		}

		baseURL, err := util.BaseURL(products[i].URL)
		if err != nil {
			continue
		}

		seen[netloc] = struct{}{}

		shop := domain.NewShop(baseURL)
		shop.AssignProducts(products)
		shops = append(shops, shop)
	}

	return shops, nil
}
