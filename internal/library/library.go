// Package library stores imported story decks in a BoltDB database.
// Besides the decks themselves it keeps per-deck metadata and a tag index.
// Decks are stored as authored; playback position is never written back.
package library

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"

	"storyview/internal/deck"
)

const (
	dbFileName       = "storyview_decks.db"
	DecksBucket      = "Decks"      // deck name -> YAML document
	DeckMetaBucket   = "DeckMeta"   // deck name -> JSON DeckInfo
	TagsToDeckBucket = "TagsToDeck" // tag -> JSON list of deck names
)

// ErrDeckNotFound is returned when a named deck is not in the library.
var ErrDeckNotFound = errors.New("deck not found")

// LoggerFunc defines a function signature for logging messages.
type LoggerFunc func(message string)

// DeckInfo summarizes a stored deck.
type DeckInfo struct {
	Name       string        `json:"name"`
	Title      string        `json:"title"`
	Items      int           `json:"items"`
	Duration   time.Duration `json:"duration"`
	Tags       []string      `json:"tags,omitempty"`
	ImportedAt time.Time     `json:"imported_at"`
}

// TagWithCount holds a tag name and the number of decks carrying it.
type TagWithCount struct {
	Name  string
	Count int
}

// Library manages the deck database.
type Library struct {
	db     *bolt.DB
	logger LoggerFunc
	now    func() time.Time
}

// NewLibrary creates or opens the deck database in dbDir. An empty dbDir
// selects the user config directory.
func NewLibrary(dbDir string, logger LoggerFunc) (*Library, error) {
	if dbDir == "" {
		configDir, err := os.UserConfigDir()
		if err != nil {
			log.Printf("Warning: Could not get user config dir: %v. Using current dir.", err)
			dbDir = "."
		} else {
			appConfigDir := filepath.Join(configDir, "storyview")
			if err := os.MkdirAll(appConfigDir, 0750); err != nil {
				return nil, fmt.Errorf("failed to create config directory %s: %w", appConfigDir, err)
			}
			dbDir = appConfigDir
		}
	}

	dbPath := filepath.Join(dbDir, dbFileName)
	lib := &Library{logger: logger, now: time.Now}
	lib.logMessage("Using deck library at: %s", dbPath)

	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open deck library %s: %w", dbPath, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{DecksBucket, DeckMetaBucket, TagsToDeckBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	lib.db = db
	return lib, nil
}

func (l *Library) logMessage(format string, args ...interface{}) {
	if l.logger != nil {
		l.logger(fmt.Sprintf(format, args...))
	} else {
		log.Printf(format, args...)
	}
}

// Close closes the database connection.
func (l *Library) Close() error {
	if l.db != nil {
		return l.db.Close()
	}
	return nil
}

// Put stores d under name, replacing any deck already stored there. Tags of a
// replaced deck are kept.
func (l *Library) Put(name string, d *deck.Deck) error {
	if name == "" {
		return fmt.Errorf("deck name cannot be empty")
	}
	data, err := deck.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to encode deck %s: %w", name, err)
	}

	return l.db.Update(func(tx *bolt.Tx) error {
		info := DeckInfo{
			Name:       name,
			Title:      d.Title,
			Items:      len(d.Items),
			Duration:   d.TotalDuration(),
			ImportedAt: l.now().UTC(),
		}
		if old, err := getInfo(tx, name); err == nil {
			info.Tags = old.Tags
		}
		if err := tx.Bucket([]byte(DecksBucket)).Put([]byte(name), data); err != nil {
			return fmt.Errorf("failed to store deck %s: %w", name, err)
		}
		if err := putInfo(tx, info); err != nil {
			return err
		}
		l.logMessage("Stored deck %s (%d pages)", name, info.Items)
		return nil
	})
}

// Get loads the deck stored under name.
func (l *Library) Get(name string) (*deck.Deck, error) {
	var data []byte
	err := l.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(DecksBucket)).Get([]byte(name))
		if v == nil {
			return fmt.Errorf("%w: %s", ErrDeckNotFound, name)
		}
		data = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deck.Parse(data, "")
}

// Info returns the metadata of one deck.
func (l *Library) Info(name string) (DeckInfo, error) {
	var info DeckInfo
	err := l.db.View(func(tx *bolt.Tx) error {
		var err error
		info, err = getInfo(tx, name)
		return err
	})
	return info, err
}

// List returns the metadata of every stored deck sorted by name.
func (l *Library) List() ([]DeckInfo, error) {
	var infos []DeckInfo
	err := l.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(DeckMetaBucket)).ForEach(func(k, v []byte) error {
			var info DeckInfo
			if err := json.Unmarshal(v, &info); err != nil {
				l.logMessage("Error decoding metadata for deck '%s', skipping: %v", string(k), err)
				return nil
			}
			infos = append(infos, info)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list decks: %w", err)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// Delete removes a deck together with its tags.
func (l *Library) Delete(name string) error {
	return l.db.Update(func(tx *bolt.Tx) error {
		info, err := getInfo(tx, name)
		if err != nil {
			return err
		}
		for _, tag := range info.Tags {
			if _, err := updateStoredList(tx, []byte(TagsToDeckBucket), []byte(tag), name, false); err != nil {
				return fmt.Errorf("failed to remove deck '%s' from tag '%s': %w", name, tag, err)
			}
		}
		for _, bucket := range []string{DecksBucket, DeckMetaBucket} {
			if err := tx.Bucket([]byte(bucket)).Delete([]byte(name)); err != nil {
				return fmt.Errorf("failed to delete deck %s from %s: %w", name, bucket, err)
			}
		}
		l.logMessage("Removed deck %s", name)
		return nil
	})
}

// AddTag associates a tag with a stored deck.
func (l *Library) AddTag(name, tag string) error {
	if name == "" || tag == "" {
		return fmt.Errorf("deck name and tag cannot be empty")
	}
	return l.db.Update(func(tx *bolt.Tx) error {
		info, err := getInfo(tx, name)
		if err != nil {
			return err
		}
		tags, changed := addToList(info.Tags, tag)
		if !changed {
			return nil
		}
		sort.Strings(tags)
		info.Tags = tags
		if err := putInfo(tx, info); err != nil {
			return err
		}
		_, err = updateStoredList(tx, []byte(TagsToDeckBucket), []byte(tag), name, true)
		return err
	})
}

// RemoveTag disassociates a tag from a deck.
func (l *Library) RemoveTag(name, tag string) error {
	if name == "" || tag == "" {
		return fmt.Errorf("deck name and tag cannot be empty")
	}
	return l.db.Update(func(tx *bolt.Tx) error {
		info, err := getInfo(tx, name)
		if err != nil {
			return err
		}
		info.Tags = removeFromList(info.Tags, tag)
		if err := putInfo(tx, info); err != nil {
			return err
		}
		_, err = updateStoredList(tx, []byte(TagsToDeckBucket), []byte(tag), name, false)
		return err
	})
}

// DecksWithTag returns the sorted names of decks carrying tag.
func (l *Library) DecksWithTag(tag string) ([]string, error) {
	var names []string
	err := l.db.View(func(tx *bolt.Tx) error {
		var err error
		names, err = decodeList(tx.Bucket([]byte(TagsToDeckBucket)).Get([]byte(tag)))
		return err
	})
	sort.Strings(names)
	return names, err
}

// AllTags lists every tag with the number of decks carrying it.
func (l *Library) AllTags() ([]TagWithCount, error) {
	var tags []TagWithCount
	err := l.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(TagsToDeckBucket)).ForEach(func(k, v []byte) error {
			names, err := decodeList(v)
			if err != nil {
				l.logMessage("Error decoding deck list for tag '%s', skipping: %v", string(k), err)
				return nil
			}
			tags = append(tags, TagWithCount{Name: string(k), Count: len(names)})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].Name < tags[j].Name })
	return tags, nil
}

func getInfo(tx *bolt.Tx, name string) (DeckInfo, error) {
	var info DeckInfo
	v := tx.Bucket([]byte(DeckMetaBucket)).Get([]byte(name))
	if v == nil {
		return info, fmt.Errorf("%w: %s", ErrDeckNotFound, name)
	}
	if err := json.Unmarshal(v, &info); err != nil {
		return info, fmt.Errorf("failed to decode metadata for deck %s: %w", name, err)
	}
	return info, nil
}

func putInfo(tx *bolt.Tx, info DeckInfo) error {
	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to encode metadata for deck %s: %w", info.Name, err)
	}
	if err := tx.Bucket([]byte(DeckMetaBucket)).Put([]byte(info.Name), data); err != nil {
		return fmt.Errorf("failed to store metadata for deck %s: %w", info.Name, err)
	}
	return nil
}

// --- list helpers ---

func decodeList(data []byte) ([]string, error) {
	var list []string
	if data == nil {
		return []string{}, nil
	}
	err := json.Unmarshal(data, &list)
	return list, err
}

func addToList(list []string, item string) ([]string, bool) {
	for _, existing := range list {
		if existing == item {
			return list, false
		}
	}
	return append(list, item), true
}

func removeFromList(list []string, item string) []string {
	out := list[:0]
	for _, existing := range list {
		if existing != item {
			out = append(out, existing)
		}
	}
	return out
}

// updateStoredList adds or removes item in the JSON list stored under key,
// deleting the key when a removal empties the list.
func updateStoredList(tx *bolt.Tx, bucketName, key []byte, item string, add bool) (bool, error) {
	bucket := tx.Bucket(bucketName)
	if bucket == nil {
		return false, fmt.Errorf("bucket %s not found", string(bucketName))
	}

	current, err := decodeList(bucket.Get(key))
	if err != nil {
		return false, fmt.Errorf("failed to decode list for key '%s' in bucket '%s': %w", string(key), string(bucketName), err)
	}

	var updated []string
	var changed bool
	if add {
		updated, changed = addToList(current, item)
	} else {
		n := len(current)
		updated = removeFromList(current, item)
		changed = len(updated) != n
	}
	if !changed {
		return false, nil
	}

	if len(updated) == 0 {
		if err := bucket.Delete(key); err != nil {
			return true, fmt.Errorf("failed to delete empty list for key '%s': %w", string(key), err)
		}
		return true, nil
	}
	data, err := json.Marshal(updated)
	if err != nil {
		return true, err
	}
	if err := bucket.Put(key, data); err != nil {
		return true, fmt.Errorf("failed to put list for key '%s': %w", string(key), err)
	}
	return true, nil
}
