package chain

import (
	"context"
	"fmt"
	"math/big"
	"sync"
)

// DefaultArchiveBucket is the bucket that holds leaderboard snapshots.
const DefaultArchiveBucket = "arena-leaderboards"

// LeaderboardArchiver persists final competition standings in the on-chain
// bucket store. The bucket is resolved (or created) lazily on first use and
// the ID cached for the process lifetime.
type LeaderboardArchiver struct {
	buckets *BucketManager
	owner   string
	bucket  string

	mu       sync.Mutex
	bucketID *big.Int
}

// NewLeaderboardArchiver creates an archiver writing through the given bucket
// manager. owner is the 0x script hash of the manager's signing account; an
// empty bucketName falls back to DefaultArchiveBucket.
func NewLeaderboardArchiver(buckets *BucketManager, owner, bucketName string) (*LeaderboardArchiver, error) {
	if buckets == nil {
		return nil, fmt.Errorf("bucket manager required")
	}
	if owner == "" {
		return nil, fmt.Errorf("owner script hash required")
	}
	if bucketName == "" {
		bucketName = DefaultArchiveBucket
	}
	return &LeaderboardArchiver{buckets: buckets, owner: owner, bucket: bucketName}, nil
}

// ArchiveLeaderboard stores a leaderboard snapshot under the competition's
// key, overwriting any previous snapshot for the same competition.
func (a *LeaderboardArchiver) ArchiveLeaderboard(ctx context.Context, competitionID string, snapshot []byte) error {
	if competitionID == "" {
		return fmt.Errorf("competition id required")
	}
	id, err := a.ensureBucket(ctx)
	if err != nil {
		return err
	}
	if _, err := a.buckets.Put(ctx, id, "leaderboard:"+competitionID, snapshot); err != nil {
		return fmt.Errorf("archive leaderboard %s: %w", competitionID, err)
	}
	return nil
}

func (a *LeaderboardArchiver) ensureBucket(ctx context.Context) (*big.Int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.bucketID != nil {
		return a.bucketID, nil
	}

	list, err := a.buckets.List(ctx, a.owner)
	if err != nil {
		return nil, fmt.Errorf("list buckets: %w", err)
	}
	for _, info := range list.Result {
		if info.Name == a.bucket {
			a.bucketID = info.ID
			return a.bucketID, nil
		}
	}

	created, err := a.buckets.Create(ctx, a.bucket)
	if err != nil {
		return nil, fmt.Errorf("create bucket %s: %w", a.bucket, err)
	}
	if created.Result.ID == nil {
		return nil, fmt.Errorf("bucket %s created but no id returned", a.bucket)
	}
	a.bucketID = created.Result.ID
	return a.bucketID, nil
}
