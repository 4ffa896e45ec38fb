package upload_service

import (
	"context"
	"log"
	"time"

	"bot-file-system/conf"
)

// CleanupProcessor periodically deletes upload sessions nobody came back
// for. Expiry is still enforced on access; this only reclaims rows.
type CleanupProcessor struct {
	uploadService *UploadService
	stopChan      chan struct{}
	done          chan struct{}
	interval      time.Duration
	batchSize     int
}

// NewCleanupProcessor create cleanup processor
func NewCleanupProcessor(uploadService *UploadService, cfg conf.UploadConfig) *CleanupProcessor {
	batchSize := cfg.CleanupBatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	return &CleanupProcessor{
		uploadService: uploadService,
		stopChan:      make(chan struct{}),
		done:          make(chan struct{}),
		interval:      cfg.CleanupInterval,
		batchSize:     batchSize,
	}
}

// Start start cleanup processor
func (cp *CleanupProcessor) Start() {
	if cp.interval <= 0 {
		log.Println("Cleanup processor disabled")
		close(cp.done)
		return
	}
	log.Printf("Cleanup processor started (interval: %s, batch: %d)", cp.interval, cp.batchSize)
	go cp.run()
}

// Stop stop cleanup processor and wait for the running sweep
func (cp *CleanupProcessor) Stop() {
	log.Println("Stopping cleanup processor...")
	close(cp.stopChan)
	// done is closed by run, or by Start when disabled
	<-cp.done
}

func (cp *CleanupProcessor) run() {
	defer close(cp.done)
	ticker := time.NewTicker(cp.interval)
	defer ticker.Stop()

	// Run once right away
	cp.cleanupExpiredSessions()

	for {
		select {
		case <-cp.stopChan:
			log.Println("Cleanup processor stopped")
			return
		case <-ticker.C:
			cp.cleanupExpiredSessions()
		}
	}
}

// cleanupExpiredSessions drain expired sessions batch by batch
func (cp *CleanupProcessor) cleanupExpiredSessions() int {
	ctx := context.Background()
	before := cp.uploadService.now()

	total := 0
	for {
		select {
		case <-cp.stopChan:
			return total
		default:
		}

		cleaned, err := cp.uploadService.CleanupExpiredSessions(ctx, before, cp.batchSize)
		if err != nil {
			log.Printf("Failed to cleanup expired sessions: %v", err)
			return total
		}
		total += cleaned
		if cleaned < cp.batchSize {
			break
		}
	}

	if total > 0 {
		log.Printf("Cleaned up %d expired upload sessions", total)
	}
	return total
}
