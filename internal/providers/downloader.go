package providers

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"time"

	_ "golang.org/x/image/webp"
)

const maxPayloadBytes = 64 << 20

// Payload is a downloaded and decoded image.
type Payload struct {
	Data   []byte
	Image  image.Image
	Format string
}

type Downloader interface {
	Fetch(ctx context.Context, url string) (Payload, error)
}

type httpDownloader struct {
	client  *http.Client
	timeout time.Duration
}

// NewHTTPDownloader bounds every fetch by timeout, independent of the caller's deadline.
func NewHTTPDownloader(client *http.Client, timeout time.Duration) Downloader {
	if client == nil {
		client = &http.Client{}
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &httpDownloader{client: client, timeout: timeout}
}

func (d *httpDownloader) Fetch(ctx context.Context, url string) (Payload, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Payload{}, err
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return Payload{}, fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Payload{}, fmt.Errorf("download: HTTP %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		return Payload{}, fmt.Errorf("download: %w", err)
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Payload{}, fmt.Errorf("decode: %w", err)
	}
	return Payload{Data: data, Image: img, Format: format}, nil
}
