package cmd

import (
	"fmt"
	"strings"

	"github.com/avollo/tradewind/pkg/statestore"
	"github.com/avollo/tradewind/pkg/statestore/memory"
	"github.com/avollo/tradewind/pkg/statestore/redis"
)

// NewStateStore selects a state store by URL scheme: redis:// for shared
// deployments, memory:// (or empty) for single-binary runs.
func NewStateStore(url string) (statestore.Store, error) {
	switch {
	case url == "" || strings.HasPrefix(url, "memory://"):
		return memory.NewStore(), nil
	case strings.HasPrefix(url, "redis://"), strings.HasPrefix(url, "rediss://"):
		return redis.NewStore(url)
	default:
		return nil, fmt.Errorf("unsupported state store url: %s", url)
	}
}
