// Package archive implements the on-disk and on-wire container format used
// for account archives and sync deltas.
//
// A container is a flat zip: every regular entry maps a relative path to its
// content bytes. A delta container additionally carries one reserved entry,
// [MetaEntryName], describing deletes, download requests and an optional
// metadata update. The reserved entry is never stored in an account archive.
package archive

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/moonsync/moonsync-server/models"
)

// MetaEntryName is the reserved path inside a delta container that holds the
// delta description. It is consumed during decoding and never becomes an add.
const MetaEntryName = "meta.json"

// deleteAllSentinel is the JSON string value of the "delete" field meaning
// "delete every existing path".
const deleteAllSentinel = "*"

// Sentinel errors returned by the codec. Callers match them with errors.Is;
// all of them map to a BadRequest at the transport layer.
var (
	// ErrContainerTooLarge is returned when the encoded container or its
	// cumulative uncompressed content exceeds the configured maximum.
	ErrContainerTooLarge = errors.New("delta container exceeds maximum size")

	// ErrMalformedContainer is returned when the payload is not a readable
	// zip archive or an entry cannot be decompressed.
	ErrMalformedContainer = errors.New("malformed delta container")

	// ErrMissingMetaEntry is returned when a delta container has no
	// reserved meta entry.
	ErrMissingMetaEntry = errors.New("delta container has no meta entry")

	// ErrMalformedMetaEntry is returned when the reserved meta entry is not
	// valid JSON or its "delete" field is neither a list nor the sentinel.
	ErrMalformedMetaEntry = errors.New("malformed meta entry")
)

// Entry is one path/content pair of a container. Encode preserves entry
// order, which is how download responses keep the requested ordering.
type Entry struct {
	Path    string
	Content []byte
}

// deltaMeta mirrors the JSON layout of the reserved meta entry:
//
//	{"userdata": ..., "files": {"delete": [...] | "*", "sendToClient": [...]}}
type deltaMeta struct {
	Userdata *string `json:"userdata"`
	Files    struct {
		Delete       json.RawMessage `json:"delete"`
		SendToClient []string        `json:"sendToClient"`
	} `json:"files"`
}

// Codec encodes and decodes archive containers with a configurable size cap.
// The zero value is unusable; construct instances with NewCodec.
type Codec struct {
	maxSize int64
}

// NewCodec returns a Codec that rejects containers whose encoded size or
// cumulative decoded content exceeds maxSize bytes. A non-positive maxSize
// disables the cap.
func NewCodec(maxSize int64) *Codec {
	return &Codec{maxSize: maxSize}
}

// Encode serializes entries into a zip container, preserving entry order.
func (c *Codec) Encode(entries []Entry) ([]byte, error) {
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)

	for _, entry := range entries {
		w, err := zw.Create(entry.Path)
		if err != nil {
			return nil, fmt.Errorf("error creating container entry %q: %w", entry.Path, err)
		}
		if _, err := w.Write(entry.Content); err != nil {
			return nil, fmt.Errorf("error writing container entry %q: %w", entry.Path, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("error finalizing container: %w", err)
	}

	return buf.Bytes(), nil
}

// EncodeArchive serializes an archive into a container. Entries are written
// in sorted path order so the same archive always encodes to the same bytes.
func (c *Codec) EncodeArchive(a models.Archive) ([]byte, error) {
	paths := make([]string, 0, len(a))
	for path := range a {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	entries := make([]Entry, 0, len(paths))
	for _, path := range paths {
		entries = append(entries, Entry{Path: path, Content: a[path]})
	}

	return c.Encode(entries)
}

// DecodeArchive reads a container produced by EncodeArchive (or Encode) back
// into an archive mapping. The reserved meta entry, if present, is skipped.
func (c *Codec) DecodeArchive(data []byte) (models.Archive, error) {
	entries, _, err := c.decode(data)
	if err != nil {
		return nil, err
	}

	archive := make(models.Archive, len(entries))
	for _, entry := range entries {
		archive[entry.Path] = entry.Content
	}

	return archive, nil
}

// DecodeDelta decodes an uploaded delta container into a Delta. Every
// regular entry becomes an add; the reserved meta entry supplies deletes,
// download requests and the optional metadata update. A container without a
// meta entry is rejected with ErrMissingMetaEntry.
func (c *Codec) DecodeDelta(data []byte) (models.Delta, error) {
	entries, rawMeta, err := c.decode(data)
	if err != nil {
		return models.Delta{}, err
	}
	if rawMeta == nil {
		return models.Delta{}, ErrMissingMetaEntry
	}

	var meta deltaMeta
	if err := json.Unmarshal(rawMeta, &meta); err != nil {
		return models.Delta{}, fmt.Errorf("%w: %w", ErrMalformedMetaEntry, err)
	}

	delta := models.Delta{
		Adds:     make(map[string][]byte, len(entries)),
		Download: meta.Files.SendToClient,
		Metadata: meta.Userdata,
	}
	for _, entry := range entries {
		delta.Adds[entry.Path] = entry.Content
	}

	if err := parseDeletes(meta.Files.Delete, &delta); err != nil {
		return models.Delta{}, err
	}

	return delta, nil
}

// decode reads all container entries in file order, returning the reserved
// meta entry separately (nil when absent). The cumulative uncompressed size
// is capped to guard against zip bombs.
func (c *Codec) decode(data []byte) ([]Entry, []byte, error) {
	if c.maxSize > 0 && int64(len(data)) > c.maxSize {
		return nil, nil, ErrContainerTooLarge
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrMalformedContainer, err)
	}

	var entries []Entry
	var rawMeta []byte
	var total int64

	for _, file := range zr.File {
		content, err := readEntry(file)
		if err != nil {
			return nil, nil, err
		}

		total += int64(len(content))
		if c.maxSize > 0 && total > c.maxSize {
			return nil, nil, ErrContainerTooLarge
		}

		if file.Name == MetaEntryName {
			rawMeta = content
			continue
		}
		entries = append(entries, Entry{Path: file.Name, Content: content})
	}

	return entries, rawMeta, nil
}

func readEntry(file *zip.File) ([]byte, error) {
	rc, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: entry %q: %w", ErrMalformedContainer, file.Name, err)
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: entry %q: %w", ErrMalformedContainer, file.Name, err)
	}

	return content, nil
}

// parseDeletes interprets the "delete" field of the meta entry: either the
// literal sentinel string "*" or a list of paths. An absent or null field
// means no deletes.
func parseDeletes(raw json.RawMessage, delta *models.Delta) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	var sentinel string
	if err := json.Unmarshal(raw, &sentinel); err == nil {
		if sentinel != deleteAllSentinel {
			return fmt.Errorf("%w: unknown delete sentinel %q", ErrMalformedMetaEntry, sentinel)
		}
		delta.DeleteAll = true
		return nil
	}

	var paths []string
	if err := json.Unmarshal(raw, &paths); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedMetaEntry, err)
	}
	delta.Deletes = paths

	return nil
}

// EncodeDelta serializes a delta into a container, reserved meta entry
// included. It is the inverse of DecodeDelta and is primarily used by tests
// and client tooling.
func (c *Codec) EncodeDelta(delta models.Delta) ([]byte, error) {
	var meta deltaMeta
	meta.Userdata = delta.Metadata
	meta.Files.SendToClient = delta.Download

	switch {
	case delta.DeleteAll:
		meta.Files.Delete = json.RawMessage(`"` + deleteAllSentinel + `"`)
	case len(delta.Deletes) == 0:
		meta.Files.Delete = json.RawMessage(`[]`)
	default:
		rawDeletes, err := json.Marshal(delta.Deletes)
		if err != nil {
			return nil, fmt.Errorf("error encoding delete list: %w", err)
		}
		meta.Files.Delete = rawDeletes
	}

	rawMeta, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("error encoding meta entry: %w", err)
	}

	paths := make([]string, 0, len(delta.Adds))
	for path := range delta.Adds {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	entries := make([]Entry, 0, len(paths)+1)
	entries = append(entries, Entry{Path: MetaEntryName, Content: rawMeta})
	for _, path := range paths {
		entries = append(entries, Entry{Path: path, Content: delta.Adds[path]})
	}

	return c.Encode(entries)
}
