package database

import (
	"context"
	"fmt"
	"time"

	"journal/config"
	"journal/pkg/logger"

	"github.com/valkey-io/valkey-go"
)

type CacheClient valkey.Client

// Valkey database indexes, one per cache category
const (
	// GENERAL_CACHE_INDEX (DB 0) - miscellaneous cache operations
	GENERAL_CACHE_INDEX = iota

	// USER_CACHE_INDEX (DB 1) - per-user data: profiles and daily prompt assignments
	USER_CACHE_INDEX

	// EVENTS_CACHE_INDEX (DB 2) - pub/sub for transcription status events
	EVENTS_CACHE_INDEX
)

type Cache struct {
	General CacheClient
	User    CacheClient
	Events  CacheClient
}

func (s *DB) initializeCacheDB(config config.Config) error {
	log := s.log.Function("initializeCacheDB")
	log.Info("initializing cache database")

	address := config.DatabaseCacheAddress
	port := config.DatabaseCachePort
	if address == "" || port == 0 {
		return log.Error("failed to initialize cache database, address or port is empty")
	}

	initAddress := []string{fmt.Sprintf("%s:%d", address, port)}
	clients := []struct {
		name   string
		index  int
		target *CacheClient
	}{
		{"general", GENERAL_CACHE_INDEX, &s.Cache.General},
		{"user", USER_CACHE_INDEX, &s.Cache.User},
		{"events", EVENTS_CACHE_INDEX, &s.Cache.Events},
	}

	for _, c := range clients {
		client, err := valkey.NewClient(valkey.ClientOption{
			InitAddress: initAddress,
			SelectDB:    c.index,
		})
		if err != nil {
			s.Cache.Close()
			return log.Err("failed to create valkey client", err, "cache", c.name)
		}
		*c.target = client
	}

	log.Info("Cache database initialized", "address", initAddress[0])
	return nil
}

func (c Cache) Close() {
	for _, client := range []CacheClient{c.General, c.User, c.Events} {
		if client != nil {
			client.Close()
		}
	}
}

// FlushAll empties every cache database. Used by the migration seed command.
func (c Cache) FlushAll(ctx context.Context) error {
	log := logger.New("database").File("cache.database").Function("FlushAll")

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	caches := []struct {
		client CacheClient
		name   string
	}{
		{c.General, "General"},
		{c.User, "User"},
		{c.Events, "Events"},
	}

	for _, cache := range caches {
		if cache.client == nil {
			continue
		}
		if err := cache.client.Do(ctx, cache.client.B().Flushdb().Build()).Error(); err != nil {
			return log.Err("Failed to flush cache database", err, "cache", cache.name)
		}
		log.Info("Flushed cache database", "cache", cache.name)
	}

	return nil
}
