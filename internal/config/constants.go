package config

import "time"

// Base application details
const AppName = "tandem"
const DefaultConfigFileName = "config.toml" // Main config file
const DefaultLogFileName = "tandem.log"

// Session
const DefaultDebounce = 300 * time.Millisecond

// Sync bus
const (
	BusLocal     = "local"
	BusRedis     = "redis"
	BusWebSocket = "websocket"
)

const DefaultChannel = "collab-doc-channel"
const DefaultRedisAddr = "localhost:6379"
const DefaultRelayURL = "ws://localhost:8081/ws"

// Storage
const (
	StorageNone     = "none"
	StorageFile     = "file"
	StorageBolt     = "bolt"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
)

const DefaultStorageKey = "collab-document-content"

// Relay
const DefaultRelayListen = ":8081"
const DefaultRelayPath = "/ws"
const DefaultRelaySendBuffer = 256

// Status Bar
const MessageTimeout = 4 * time.Second
