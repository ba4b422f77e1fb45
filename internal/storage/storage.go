package storage

import (
	"log"
	"time"

	"github.com/UnendingLoop/pixelpushup/internal/storage/miniostorage"
	"github.com/wb-go/wbf/config"
)

// NewImgStorage connects to the object store, retrying until it succeeds.
// Called once at startup before the server starts accepting uploads.
func NewImgStorage(cfg *config.Config, delay time.Duration) *miniostorage.MinioImageStorage {
	for {
		log.Println("Connecting to IMG-storage...")
		client, err := miniostorage.NewMinioClient(cfg)
		if err != nil {
			log.Printf("Failed to init connection to IMG-storage: %v\nNext retry in %v...", err, delay)
			time.Sleep(delay)
			continue
		}
		log.Println("Successfully connected IMG-storage!")
		return client
	}
}
