// Package config loads the info-server's static YAML configuration: which
// metainfo files to serve on startup, the default download chunk size, and
// log level. Shaped after dht-ocean's own flat, no-nesting config struct.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Torrent names one metainfo file to load at startup and register under
// TorrentID.
type Torrent struct {
	TorrentID int64  `yaml:"torrent_id"`
	MetaFile  string `yaml:"meta_file"`
}

type Config struct {
	Listen    string    `yaml:"listen"`
	LogLevel  string    `yaml:"log_level"`
	ChunkSize int64     `yaml:"chunk_size"`
	Torrents  []Torrent `yaml:"torrents"`
}

func ReadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 16384
	}
	return cfg, nil
}
