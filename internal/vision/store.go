package vision

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Metadata is the JSON record stored beside each image binary.
type Metadata struct {
	ImageID   string            `json:"image_id"`
	Format    string            `json:"format"`
	Path      string            `json:"path"`
	CreatedAt time.Time         `json:"created_at"`
	Extra     map[string]string `json:"metadata"`
}

// Store keeps uploaded images on disk, content-addressed by a
// truncated SHA-256 of the encoded payload. Binaries live in the root
// directory, metadata JSON files under metadata/. Writes are
// idempotent: the same payload always lands at the same path.
type Store struct {
	dir     string
	metaDir string
}

func NewStore(dir string) (*Store, error) {
	metaDir := filepath.Join(dir, "metadata")
	if err := os.MkdirAll(metaDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating image storage dir: %w", err)
	}
	return &Store{dir: dir, metaDir: metaDir}, nil
}

// ImageID derives the content address of an encoded image payload.
func ImageID(imageData string) string {
	sum := sha256.Sum256([]byte(imageData))
	return hex.EncodeToString(sum[:])[:16]
}

// decodePayload splits a data URL into its format and base64 body.
// Bare base64 payloads default to png.
func decodePayload(imageData string) (format, encoded string) {
	if strings.HasPrefix(imageData, "data:") {
		if idx := strings.Index(imageData, ","); idx >= 0 {
			header := imageData[:idx]
			encoded = imageData[idx+1:]
			media := strings.SplitN(header, ";", 2)[0]
			format = media[strings.LastIndex(media, "/")+1:]
			return format, encoded
		}
	}
	return "png", imageData
}

// Save decodes and writes the image plus its metadata record, and
// returns the binary path.
func (s *Store) Save(imageData, imageID string, extra map[string]string) (string, error) {
	format, encoded := decodePayload(imageData)
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("decoding image payload: %w", err)
	}

	imagePath := filepath.Join(s.dir, fmt.Sprintf("%s.%s", imageID, format))
	if err := os.WriteFile(imagePath, raw, 0o644); err != nil {
		return "", fmt.Errorf("writing image: %w", err)
	}

	meta := Metadata{
		ImageID:   imageID,
		Format:    format,
		Path:      imagePath,
		CreatedAt: time.Now(),
		Extra:     extra,
	}
	if meta.Extra == nil {
		meta.Extra = map[string]string{}
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(s.metaPath(imageID), data, 0o644); err != nil {
		return "", fmt.Errorf("writing image metadata: %w", err)
	}
	return imagePath, nil
}

// Get loads the metadata record for an image id.
func (s *Store) Get(imageID string) (Metadata, bool, error) {
	data, err := os.ReadFile(s.metaPath(imageID))
	if err != nil {
		if os.IsNotExist(err) {
			return Metadata{}, false, nil
		}
		return Metadata{}, false, err
	}
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return Metadata{}, false, err
	}
	return meta, true, nil
}

// List returns up to limit metadata records, newest id first.
func (s *Store) List(limit int) ([]Metadata, error) {
	entries, err := os.ReadDir(s.metaDir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	if limit > 0 && len(names) > limit {
		names = names[:limit]
	}

	out := make([]Metadata, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(s.metaDir, name))
		if err != nil {
			return nil, err
		}
		var meta Metadata
		if err := json.Unmarshal(data, &meta); err != nil {
			return nil, err
		}
		out = append(out, meta)
	}
	return out, nil
}

// Delete removes an image and its metadata. The binary is parked under
// a temporary name until the metadata record is gone, so a failed
// delete never leaves metadata pointing at nothing.
func (s *Store) Delete(imageID string) (bool, error) {
	meta, ok, err := s.Get(imageID)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	tmp := meta.Path + ".deleting"
	moved := false
	if _, err := os.Stat(meta.Path); err == nil {
		if err := os.Rename(meta.Path, tmp); err != nil {
			return false, fmt.Errorf("removing image: %w", err)
		}
		moved = true
	}
	if err := os.Remove(s.metaPath(imageID)); err != nil && !os.IsNotExist(err) {
		if moved {
			os.Rename(tmp, meta.Path)
		}
		return false, fmt.Errorf("removing image metadata: %w", err)
	}
	if moved {
		os.Remove(tmp)
	}
	return true, nil
}

func (s *Store) metaPath(imageID string) string {
	return filepath.Join(s.metaDir, imageID+".json")
}
