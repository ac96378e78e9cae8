package content

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/ipfs/boxo/files"
	"github.com/ipfs/boxo/path"
	"github.com/ipfs/go-cid"
	"github.com/ipfs/kubo/client/rpc"
	"github.com/ipfs/kubo/core/coreiface/options"

	"github.com/blockend-dev/AleoWhistle/config"
)

// KuboStore adds and cats objects through a Kubo node's RPC API.
type KuboStore struct {
	api        *rpc.HttpApi
	cidVersion int
	maxBytes   int64
	logger     *log.Logger
}

// NewKuboStore connects to the RPC endpoint in cfg. No request is made until first use.
func NewKuboStore(cfg config.KuboConfig, maxBytes int64, timeout time.Duration, logger *log.Logger) (*KuboStore, error) {
	api, err := rpc.NewURLApiWithClient(cfg.APIURL, &http.Client{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("failed to create kubo client for %s: %w", cfg.APIURL, err)
	}
	logger.Printf("Kubo content store at %s", cfg.APIURL)
	return &KuboStore{api: api, cidVersion: cfg.CidVersion, maxBytes: maxBytes, logger: logger}, nil
}

func (s *KuboStore) Put(ctx context.Context, name string, data []byte) (string, error) {
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return "", fmt.Errorf("%w: %d bytes", ErrTooLarge, len(data))
	}
	added, err := s.api.Unixfs().Add(ctx, files.NewBytesFile(data), options.Unixfs.CidVersion(s.cidVersion))
	if err != nil {
		return "", fmt.Errorf("kubo add %s: %w", name, err)
	}
	locator := added.RootCid().String()
	s.logger.Printf("Added %d bytes as %s", len(data), locator)
	return locator, nil
}

func (s *KuboStore) Get(ctx context.Context, locator string) ([]byte, error) {
	c, err := cid.Decode(locator)
	if err != nil {
		return nil, fmt.Errorf("invalid locator %q: %w", locator, err)
	}
	node, err := s.api.Unixfs().Get(ctx, path.FromCid(c))
	if err != nil {
		return nil, fmt.Errorf("kubo get %s: %w", locator, err)
	}
	defer node.Close()

	file, ok := node.(files.File)
	if !ok {
		return nil, fmt.Errorf("unexpected node type: %T", node)
	}
	return readCapped(file, s.maxBytes)
}
