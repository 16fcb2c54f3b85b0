package assetstore

import (
	"fmt"
	"io/fs"
	"strings"

	"github.com/okian/hearth/internal/domain/asset"
)

// Strategy names the backing store mounted under the asset namespace.
type Strategy string

// Supported strategies.
const (
	StrategyEmbedded   Strategy = "embedded"
	StrategyFilesystem Strategy = "filesystem"
)

// ParseStrategy accepts "embedded" or "filesystem", case-insensitively.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case StrategyEmbedded:
		return StrategyEmbedded, nil
	case StrategyFilesystem:
		return StrategyFilesystem, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
	}
}

// New builds the resolver for strategy. The choice is made once at startup.
func New(strategy Strategy, dir string, embedded fs.FS) (asset.Resolver, error) {
	switch strategy {
	case StrategyEmbedded:
		if embedded == nil {
			return nil, fmt.Errorf("%w: embedded filesystem is nil", ErrInvalidStore)
		}
		return NewEmbedded(embedded), nil
	case StrategyFilesystem:
		if strings.TrimSpace(dir) == "" {
			return nil, fmt.Errorf("%w: asset directory is empty", ErrInvalidStore)
		}
		return NewFilesystem(dir), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}
}
