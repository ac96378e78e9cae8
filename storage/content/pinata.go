package content

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/ipfs/go-cid"
	"github.com/tidwall/gjson"

	"github.com/blockend-dev/AleoWhistle/config"
)

// PinataStore uploads through the Pinata pinning API and reads back through its gateway.
type PinataStore struct {
	httpClient *http.Client
	apiURL     string
	gatewayURL string
	jwt        string
	maxBytes   int64
	logger     *log.Logger
}

// NewPinataStore reads the JWT from the environment variable named in cfg.
func NewPinataStore(cfg config.PinataConfig, maxBytes int64, timeout time.Duration, logger *log.Logger) (*PinataStore, error) {
	jwt := os.Getenv(cfg.JWTEnv)
	if jwt == "" {
		return nil, fmt.Errorf("pinata JWT not found in environment variable %s", cfg.JWTEnv)
	}
	return &PinataStore{
		httpClient: &http.Client{Timeout: timeout},
		apiURL:     strings.TrimRight(cfg.APIURL, "/"),
		gatewayURL: strings.TrimRight(cfg.GatewayURL, "/"),
		jwt:        jwt,
		maxBytes:   maxBytes,
		logger:     logger,
	}, nil
}

func (s *PinataStore) Put(ctx context.Context, name string, data []byte) (string, error) {
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return "", fmt.Errorf("%w: %d bytes", ErrTooLarge, len(data))
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("file", name)
	if err != nil {
		return "", fmt.Errorf("failed to build upload form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("failed to build upload form: %w", err)
	}
	if err := form.Close(); err != nil {
		return "", fmt.Errorf("failed to build upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL+"/pinning/pinFileToIPFS", &body)
	if err != nil {
		return "", fmt.Errorf("failed to build upload request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.jwt)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("pinata upload failed: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read pinata response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("pinata upload returned %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	locator := gjson.GetBytes(payload, "IpfsHash").String()
	if _, err := cid.Decode(locator); err != nil {
		return "", fmt.Errorf("pinata returned an invalid CID %q: %w", locator, err)
	}
	s.logger.Printf("Pinned %d bytes as %s", len(data), locator)
	return locator, nil
}

func (s *PinataStore) Get(ctx context.Context, locator string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.gatewayURL+"/ipfs/"+url.PathEscape(locator), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build fetch request: %w", err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway fetch failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, locator)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("gateway returned %d for %s", resp.StatusCode, locator)
	}
	return readCapped(resp.Body, s.maxBytes)
}

func readCapped(r io.Reader, maxBytes int64) ([]byte, error) {
	if maxBytes <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read content: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, maxBytes)
	}
	return data, nil
}
