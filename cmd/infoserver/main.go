package main

import (
	"flag"
	"os"

	"dht-ocean/bencode"
	"dht-ocean/config"
	"dht-ocean/filetree"
	"dht-ocean/infoservice"
	"dht-ocean/registry"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var (
	errMissingInfoDict    = errors.New("infoserver: metainfo missing info dict")
	errMissingPieceLength = errors.New("infoserver: metainfo missing piece length")
	errMissingLength      = errors.New("infoserver: metainfo missing length")
	errMalformedFileEntry = errors.New("infoserver: malformed file entry")
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config.yaml")
	flag.Parse()

	cfg, err := config.ReadConfigFromFile(*configPath)
	if err != nil {
		logrus.Errorf("Failed to read config file. %v", err)
		panic(err)
	}
	if level, lerr := logrus.ParseLevel(cfg.LogLevel); lerr == nil {
		logrus.SetLevel(level)
	}

	reg := registry.New()
	for _, t := range cfg.Torrents {
		svc, err := loadService(t.TorrentID, cfg.ChunkSize, t.MetaFile)
		if err != nil {
			logrus.Errorf("Failed to load metainfo %s. %v", t.MetaFile, err)
			continue
		}
		if err := reg.Register(t.TorrentID, svc); err != nil {
			logrus.Errorf("Failed to register torrent %d. %v", t.TorrentID, err)
			continue
		}
		logrus.Infof("Registered torrent %d from %s: %d pieces, %d metadata bytes",
			t.TorrentID, t.MetaFile, svc.PieceCount(), svc.MetadataSize())
	}

	select {}
}

// loadService decodes a .torrent metainfo file's info-dict and builds the
// Service dht-ocean/infoservice exposes for it.
func loadService(torrentID, chunkSize int64, path string) (*infoservice.Service, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	top, _, err := bencode.BDecodeDict(raw)
	if err != nil {
		return nil, err
	}
	infoRaw, ok := bencode.GetByPath(top, "info").(map[string]any)
	if !ok {
		return nil, errMissingInfoDict
	}
	pieceLen, ok := bencode.GetInt(infoRaw, "piece length")
	if !ok {
		return nil, errMissingPieceLength
	}
	records, err := fileRecordsFromInfo(infoRaw)
	if err != nil {
		return nil, err
	}
	infoDict, err := bencode.BEncode(infoRaw)
	if err != nil {
		return nil, err
	}
	return infoservice.New(torrentID, int64(pieceLen), chunkSize, records, []byte(infoDict), nil)
}

func fileRecordsFromInfo(info map[string]any) ([]filetree.FileRecord, error) {
	name, _ := bencode.GetString(info, "name")
	if files, ok := bencode.GetByPath(info, "files").([]any); ok {
		records := make([]filetree.FileRecord, 0, len(files))
		for _, f := range files {
			entry, ok := f.(map[string]any)
			if !ok {
				return nil, errMalformedFileEntry
			}
			length, _ := bencode.GetInt(entry, "length")
			pathParts, ok := bencode.GetByPath(entry, "path").([]any)
			if !ok {
				return nil, errMalformedFileEntry
			}
			path := make([]string, 0, len(pathParts)+1)
			path = append(path, name)
			for _, part := range pathParts {
				b, ok := part.([]byte)
				if !ok {
					return nil, errMalformedFileEntry
				}
				path = append(path, string(b))
			}
			records = append(records, filetree.FileRecord{Path: path, Length: int64(length)})
		}
		return records, nil
	}

	length, ok := bencode.GetInt(info, "length")
	if !ok {
		return nil, errMissingLength
	}
	return []filetree.FileRecord{{Path: []string{name}, Length: int64(length)}}, nil
}
