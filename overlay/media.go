package overlay

import (
	"regexp"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"

	"canvasearth-client/core"
)

// youtubeIDPattern matches the 11-character video id in watch, embed,
// shorts and youtu.be URL forms.
var youtubeIDPattern = regexp.MustCompile(`(?:youtu\.be/|v/|/u/\w/|embed/|shorts/|watch\?v=)([^#&?]{11})`)

// ExtractYouTubeID pulls the video id out of a YouTube URL.
func ExtractYouTubeID(url string) (string, bool) {
	match := youtubeIDPattern.FindStringSubmatch(url)
	if match == nil {
		return "", false
	}
	return match[1], true
}

// Media is one open player instance. Every play action creates a new
// entry with its own instance id; entries are not deduplicated by
// object, so the same video can play twice side by side.
type Media struct {
	InstanceID string
	ObjectID   int64
	Kind       core.ObjectType
	// VideoID is set for YouTube entries, URL for embedded video.
	VideoID string
	URL     string
}

// Registry tracks the currently playing media instances.
type Registry struct {
	mu      sync.RWMutex
	entries []Media
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// OpenYouTube registers a new YouTube player for the object. The URL
// must contain a valid video id.
func (r *Registry) OpenYouTube(objectID int64, url string) (Media, bool) {
	videoID, ok := ExtractYouTubeID(url)
	if !ok {
		logrus.WithField("url", url).Warn("not a recognizable YouTube URL")
		return Media{}, false
	}

	entry := Media{
		InstanceID: ulid.Make().String(),
		ObjectID:   objectID,
		Kind:       core.ObjectYouTube,
		VideoID:    videoID,
	}
	r.add(entry)
	return entry, true
}

// OpenVideo registers a new embedded video player for the object.
func (r *Registry) OpenVideo(objectID int64, url string) Media {
	entry := Media{
		InstanceID: ulid.Make().String(),
		ObjectID:   objectID,
		Kind:       core.ObjectVideo,
		URL:        url,
	}
	r.add(entry)
	return entry
}

// Close removes one player instance.
func (r *Registry) Close(instanceID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, entry := range r.entries {
		if entry.InstanceID == instanceID {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return
		}
	}
}

// CloseForObject removes every player tracking the given object. Called
// when the object is deleted, locally or by a remote push.
func (r *Registry) CloseForObject(objectID int64) []Media {
	r.mu.Lock()
	defer r.mu.Unlock()

	var closed []Media
	kept := r.entries[:0]
	for _, entry := range r.entries {
		if entry.ObjectID == objectID {
			closed = append(closed, entry)
			continue
		}
		kept = append(kept, entry)
	}
	r.entries = kept
	return closed
}

// Entries returns a snapshot of the open players.
func (r *Registry) Entries() []Media {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snapshot := make([]Media, len(r.entries))
	copy(snapshot, r.entries)
	return snapshot
}

func (r *Registry) add(entry Media) {
	r.mu.Lock()
	r.entries = append(r.entries, entry)
	r.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"instance_id": entry.InstanceID,
		"object_id":   entry.ObjectID,
		"kind":        entry.Kind,
	}).Debug("media player opened")
}
