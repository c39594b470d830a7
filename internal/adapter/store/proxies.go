package store

import (
	"context"
	"math/rand/v2"

	"github.com/spf13/afero"

	"github.com/solewatch/solewatch/internal/core/domain"
	"github.com/solewatch/solewatch/internal/logger"
)

// Proxies reads the forward proxy pool, one endpoint per line in
// host:port[:user:password] form. Invalid lines are dropped on read, so a
// hand-edited file never poisons the pool.
type Proxies struct {
	file   *TextFile
	logger logger.StyledLogger
}

func NewProxies(fs afero.Fs, path string, log logger.StyledLogger) *Proxies {
	p := &Proxies{logger: log}
	p.file = OpenTextFile(fs, path, p.verifyLine)

	return p
}

func (p *Proxies) verifyLine(line string) bool {
	if _, err := domain.ParseProxyLine(line); err != nil {
		p.logger.Debug("Dropping invalid proxy line", "line", line, "error", err)
		return false
	}

	return true
}

func (p *Proxies) GetAll(ctx context.Context) ([]*domain.Proxy, error) {
	lines, err := p.file.LoadAll()
	if err != nil {
		return nil, err
	}

	proxies := make([]*domain.Proxy, 0, len(lines))

	for _, line := range lines {
		proxy, err := domain.ParseProxyLine(line)
		if err != nil {
			continue
		}

		proxies = append(proxies, proxy)
	}

	return proxies, nil
}

func (p *Proxies) Add(ctx context.Context, proxy *domain.Proxy) error {
	if err := proxy.Validate(); err != nil {
		return err
	}

	return p.file.Insert(proxy.String())
}

// Random draws one proxy uniformly. An empty pool is a lookup miss; callers
// decide whether that means direct requests or a failed attempt.
func (p *Proxies) Random(ctx context.Context) (*domain.Proxy, error) {
	proxies, err := p.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	if len(proxies) == 0 {
		return nil, domain.NewLookupError("proxy", "", nil)
	}

	return proxies[rand.IntN(len(proxies))], nil
}
