package chain

import (
	"context"
	"sync"
	"testing"
)

const archiveOwner = "0xaa00000000000000000000000000000000000000"

func TestArchiverReusesExistingBucket(t *testing.T) {
	var mu sync.Mutex
	puts := 0
	lists := 0
	client := newTestClient(t, func(_ string, params []any) (any, *RPCError) {
		mu.Lock()
		defer mu.Unlock()
		switch params[1] {
		case "listBuckets":
			lists++
			return map[string]any{
				"state": "HALT",
				"stack": []any{map[string]any{
					"type":  "Array",
					"value": []any{bucketStruct("9", DefaultArchiveBucket)},
				}},
			}, nil
		case "putObject":
			puts++
			return map[string]any{"state": "HALT", "stack": []any{}}, nil
		default:
			t.Errorf("unexpected operation %v", params[1])
			return nil, &RPCError{Code: -1, Message: "unexpected"}
		}
	})

	manager := NewBucketManager(client, bucketContract, nil)
	archiver, err := NewLeaderboardArchiver(manager, archiveOwner, "")
	if err != nil {
		t.Fatalf("new archiver: %v", err)
	}

	for _, id := range []string{"comp-1", "comp-2"} {
		if err := archiver.ArchiveLeaderboard(context.Background(), id, []byte(`[]`)); err != nil {
			t.Fatalf("archive %s: %v", id, err)
		}
	}
	if lists != 1 {
		t.Fatalf("listBuckets called %d times, want 1", lists)
	}
	if puts != 2 {
		t.Fatalf("putObject called %d times, want 2", puts)
	}
}

func TestArchiverCreatesMissingBucket(t *testing.T) {
	var key string
	client := newTestClient(t, func(method string, params []any) (any, *RPCError) {
		if method == "getapplicationlog" {
			return map[string]any{
				"txid": params[0],
				"executions": []any{map[string]any{
					"trigger":       "Application",
					"vmstate":       "HALT",
					"gasconsumed":   "500000",
					"stack":         []any{intItem("4")},
					"notifications": []any{},
				}},
			}, nil
		}
		switch params[1] {
		case "listBuckets":
			return map[string]any{
				"state": "HALT",
				"stack": []any{map[string]any{"type": "Array", "value": []any{}}},
			}, nil
		case "createBucket":
			return map[string]any{
				"state": "HALT",
				"stack": []any{},
				"tx":    "0xfeedface",
			}, nil
		case "putObject":
			raw, _ := params[2].([]any)
			if len(raw) == 3 {
				if p, ok := raw[1].(map[string]any); ok {
					key, _ = p["value"].(string)
				}
			}
			return map[string]any{"state": "HALT", "stack": []any{}}, nil
		default:
			t.Errorf("unexpected operation %v", params[1])
			return nil, &RPCError{Code: -1, Message: "unexpected"}
		}
	})

	manager := NewBucketManager(client, bucketContract, nil)
	archiver, err := NewLeaderboardArchiver(manager, archiveOwner, "snapshots")
	if err != nil {
		t.Fatalf("new archiver: %v", err)
	}
	if err := archiver.ArchiveLeaderboard(context.Background(), "comp-7", []byte("{}")); err != nil {
		t.Fatalf("archive: %v", err)
	}
	if key != "leaderboard:comp-7" {
		t.Fatalf("object key = %q", key)
	}
}

func TestArchiverRejectsEmptyCompetition(t *testing.T) {
	manager := NewBucketManager(newTestClient(t, func(string, []any) (any, *RPCError) {
		return nil, &RPCError{Code: -1, Message: "should not be called"}
	}), bucketContract, nil)
	archiver, err := NewLeaderboardArchiver(manager, archiveOwner, "")
	if err != nil {
		t.Fatalf("new archiver: %v", err)
	}
	if err := archiver.ArchiveLeaderboard(context.Background(), "", nil); err == nil {
		t.Fatal("expected an error for a missing competition id")
	}
}
