package vectorstore

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"
)

// SnapshotInfo is the metadata a newly created (or listed) snapshot
// carries (SPEC_FULL.md §12 collection snapshot/restore).
type SnapshotInfo struct {
	Name      string
	SizeBytes int64
}

// Snapshot creates a native Qdrant collection snapshot and returns its
// server-assigned name and size.
func (s *QdrantStore) Snapshot(ctx context.Context) (SnapshotInfo, error) {
	snap, err := s.client.CreateSnapshot(ctx, s.collection)
	if err != nil {
		return SnapshotInfo{}, fmt.Errorf("create snapshot: %w", err)
	}
	return SnapshotInfo{Name: snap.GetName(), SizeBytes: int64(snap.GetSize())}, nil
}

// ListSnapshots returns the names of every snapshot held for this
// collection.
func (s *QdrantStore) ListSnapshots(ctx context.Context) ([]string, error) {
	snaps, err := s.client.ListSnapshots(ctx, s.collection)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	names := make([]string, 0, len(snaps))
	for _, s := range snaps {
		names = append(names, s.GetName())
	}
	return names, nil
}

// Restore recovers the collection from a previously created snapshot by
// name, pointing Qdrant's snapshot recovery at that snapshot's file://
// path in the server's own snapshot directory.
func (s *QdrantStore) Restore(ctx context.Context, snapshotName string) error {
	location := fmt.Sprintf("file:///qdrant/snapshots/%s/%s", s.collection, snapshotName)
	return s.client.RecoverSnapshot(ctx, &qdrant.SnapshotRecover{
		CollectionName: s.collection,
		Location:       location,
	})
}
