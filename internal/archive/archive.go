// Package archive keeps every accepted examination payload as an immutable
// JSON object, one per revision, on a blob store.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"vetclinic/internal/blob"
	"vetclinic/pkg/domain"
	"vetclinic/pkg/examination"
)

const (
	keyPrefix   = "examinations/"
	contentType = "application/json"
)

// Entry describes one archived revision.
type Entry struct {
	Key      string        `json:"key"`
	Revision int           `json:"revision"`
	Action   domain.Action `json:"action"`
	Size     int64         `json:"size_bytes"`
	StoredAt time.Time     `json:"stored_at"`
}

// Archive writes and reads revisions through a blob.Store.
type Archive struct {
	store  blob.Store
	logger *zap.Logger
}

// New returns an archive over store. A nil logger discards output.
func New(store blob.Store, logger *zap.Logger) *Archive {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Archive{store: store, logger: logger.Named("archive")}
}

// Driver reports the backing blob driver.
func (a *Archive) Driver() blob.Driver { return a.store.Driver() }

// Key returns the object key for a revision: examinations/<id>/r<revision>-<action>.json.
// Revisions are zero padded so keys sort in revision order.
func Key(id string, revision int, action domain.Action) string {
	return fmt.Sprintf("%s%s/r%06d-%s.json", keyPrefix, id, revision, action)
}

func parseKey(key string) (int, domain.Action, bool) {
	name := strings.TrimSuffix(path.Base(key), ".json")
	rev, action, ok := strings.Cut(strings.TrimPrefix(name, "r"), "-")
	if !ok {
		return 0, "", false
	}
	n, err := strconv.Atoi(rev)
	if err != nil {
		return 0, "", false
	}
	return n, domain.Action(action), true
}

// Record stores the payload of exam under its current revision.
func (a *Archive) Record(ctx context.Context, exam domain.Examination, action domain.Action) (Entry, error) {
	raw, err := json.Marshal(exam.Payload)
	if err != nil {
		return Entry{}, fmt.Errorf("encode payload %s: %w", exam.ID, err)
	}
	key := Key(exam.ID, exam.Revision, action)
	info, err := a.store.Put(ctx, key, bytes.NewReader(raw), blob.PutOptions{
		ContentType: contentType,
		Metadata: map[string]string{
			"examination-id": exam.ID,
			"revision":       strconv.Itoa(exam.Revision),
			"action":         string(action),
		},
	})
	if err != nil {
		return Entry{}, fmt.Errorf("archive %s: %w", key, err)
	}
	a.logger.Debug("archived examination",
		zap.String("id", exam.ID),
		zap.Int("revision", exam.Revision),
		zap.String("action", string(action)),
		zap.Int64("bytes", info.Size),
	)
	storedAt := info.LastModified
	if storedAt.IsZero() {
		storedAt = exam.UpdatedAt
	}
	return Entry{Key: key, Revision: exam.Revision, Action: action, Size: info.Size, StoredAt: storedAt}, nil
}

// History lists the archived revisions of id, oldest first.
func (a *Archive) History(ctx context.Context, id string) ([]Entry, error) {
	infos, err := a.store.List(ctx, keyPrefix+id+"/")
	if err != nil {
		return nil, fmt.Errorf("history %s: %w", id, err)
	}
	entries := make([]Entry, 0, len(infos))
	for _, info := range infos {
		rev, action, ok := parseKey(info.Key)
		if !ok {
			a.logger.Warn("skipping unrecognised archive key", zap.String("key", info.Key))
			continue
		}
		entries = append(entries, Entry{Key: info.Key, Revision: rev, Action: action, Size: info.Size, StoredAt: info.LastModified})
	}
	return entries, nil
}

// Load reads one archived payload.
func (a *Archive) Load(ctx context.Context, key string) (examination.Payload, error) {
	_, rc, err := a.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	defer func() { _ = rc.Close() }()
	var payload examination.Payload
	if err := json.NewDecoder(rc).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return payload, nil
}
