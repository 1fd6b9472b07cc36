package display

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/valkey-io/valkey-go"
)

const (
	displayKeyPrefix = "dataset:"
	displayTTL       = 24 * time.Hour
)

// ValkeyCache caches display views in Valkey. Embedded charts are
// read-heavy and records never change, so a long TTL is safe. Not-found
// results are never cached.
type ValkeyCache struct {
	client valkey.Client
}

// NewValkeyCache connects to Valkey at addr and verifies the connection.
func NewValkeyCache(addr, password string, useTLS bool) (*ValkeyCache, error) {
	opts := valkey.ClientOption{
		InitAddress:      []string{addr},
		Password:         password,
		ConnWriteTimeout: 5 * time.Second,
		SelectDB:         0,
	}
	if useTLS {
		opts.TLSConfig = &tls.Config{InsecureSkipVerify: false}
	}

	client, err := valkey.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("[ValkeyCache] failed to create client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("[ValkeyCache] failed to ping Valkey: %w", err)
	}

	slog.Info("[ValkeyCache] Successfully connected to Valkey")
	return &ValkeyCache{client: client}, nil
}

func (c *ValkeyCache) Close() {
	c.client.Close()
}

func (c *ValkeyCache) Get(ctx context.Context, id int64) (View, bool) {
	raw, err := c.client.Do(ctx, c.client.B().Get().Key(cacheKey(id)).Build()).AsBytes()
	if err != nil {
		return View{}, false
	}

	var v View
	if err := json.Unmarshal(raw, &v); err != nil {
		slog.Warn("[ValkeyCache] Dropping undecodable cache entry",
			slog.Int64("id", id),
			slog.String("error", err.Error()))
		return View{}, false
	}
	return v, true
}

func (c *ValkeyCache) Set(ctx context.Context, v View) {
	payload, err := json.Marshal(v)
	if err != nil {
		return
	}

	cmd := c.client.B().Set().Key(cacheKey(v.ID)).Value(string(payload)).Ex(displayTTL).Build()
	if err := c.client.Do(ctx, cmd).Error(); err != nil {
		slog.Warn("[ValkeyCache] Failed to cache view",
			slog.Int64("id", v.ID),
			slog.String("error", err.Error()))
	}
}

func cacheKey(id int64) string {
	return displayKeyPrefix + strconv.FormatInt(id, 10)
}
