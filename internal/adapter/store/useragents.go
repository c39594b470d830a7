package store

import (
	"context"
	"math/rand/v2"
	"strings"

	"github.com/spf13/afero"

	"github.com/solewatch/solewatch/internal/core/domain"
)

// UserAgents reads the user agent pool, one string per line. Any non-blank
// non-comment line counts.
type UserAgents struct {
	file *TextFile
}

func NewUserAgents(fs afero.Fs, path string) *UserAgents {
	return &UserAgents{file: OpenTextFile(fs, path, nil)}
}

func (u *UserAgents) GetAll(ctx context.Context) ([]string, error) {
	return u.file.LoadAll()
}

func (u *UserAgents) Add(ctx context.Context, agent string) error {
	agent = strings.TrimSpace(agent)
	if agent == "" {
		return domain.NewValidationError("userAgent", agent, "must not be empty")
	}

	return u.file.Insert(agent)
}

// Random draws one user agent uniformly. An empty pool is a lookup miss;
// fetches treat it as a failed attempt because requests never go out without
// an agent header.
func (u *UserAgents) Random(ctx context.Context) (string, error) {
	agents, err := u.GetAll(ctx)
	if err != nil {
		return "", err
	}

	if len(agents) == 0 {
		return "", domain.NewLookupError("user agent", "", nil)
	}

	return agents[rand.IntN(len(agents))], nil
}
