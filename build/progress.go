package build

import (
	"log"

	"github.com/b1naryth1ef/mosaic"
)

// LogProgress logs render events until events is closed. Steps are only
// counted; the completed total is logged with each finished region.
func LogProgress(name string, events <-chan mosaic.Progress) {
	var total, done int
	for event := range events {
		switch event.Kind {
		case mosaic.ProgressBeginAll:
			total = event.Count
			log.Printf("[build] %s: begin total chunks: %d", name, total)
		case mosaic.ProgressBegin:
			log.Printf("[build] %s: begin region %v / chunks: %d", name, event.Region, event.Count)
		case mosaic.ProgressStep:
			done++
		case mosaic.ProgressEnd:
			log.Printf("[build] %s: end region %v (%d/%d)", name, event.Region, done, total)
		case mosaic.ProgressEndAll:
			log.Printf("[build] %s: end all", name)
		}
	}
}
