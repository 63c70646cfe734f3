package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/njprem/travelswipe/internal/domain"
	"github.com/njprem/travelswipe/internal/repository/localstore"
	"github.com/njprem/travelswipe/internal/repository/memory"
	"github.com/njprem/travelswipe/internal/repository/ports"
)

type fakeLikeRepo struct {
	mu      sync.Mutex
	records map[string]domain.LikeRecord

	upsertErr  error
	minimalErr error
	readErr    error
	probeErr   error

	upsertCalls  int
	minimalCalls int
	removeCalls  int
	lastUpsert   domain.LikeRecord
	upsertCtxErr error
}

func newFakeLikeRepo() *fakeLikeRepo {
	return &fakeLikeRepo{records: make(map[string]domain.LikeRecord)}
}

func (r *fakeLikeRepo) Upsert(ctx context.Context, record domain.LikeRecord) (*domain.LikeRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upsertCalls++
	r.lastUpsert = record
	r.upsertCtxErr = ctx.Err()
	if r.upsertErr != nil {
		return nil, r.upsertErr
	}
	record.Source = domain.LikeSourceRemote
	r.records[record.Key()] = record
	return &record, nil
}

func (r *fakeLikeRepo) InsertMinimal(_ context.Context, record domain.LikeRecord) (*domain.LikeRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.minimalCalls++
	if r.minimalErr != nil {
		return nil, r.minimalErr
	}
	record.PackageData = nil
	record.Source = domain.LikeSourceRemote
	r.records[record.Key()] = record
	return &record, nil
}

func (r *fakeLikeRepo) ListByUser(_ context.Context, userID string) ([]domain.LikeRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.readErr != nil {
		return nil, r.readErr
	}
	var out []domain.LikeRecord
	for _, rec := range r.records {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *fakeLikeRepo) CountByUser(ctx context.Context, userID string) (int64, error) {
	items, err := r.ListByUser(ctx, userID)
	return int64(len(items)), err
}

func (r *fakeLikeRepo) Exists(_ context.Context, userID, packageID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.readErr != nil {
		return false, r.readErr
	}
	_, ok := r.records[domain.LikeKey(userID, packageID)]
	return ok, nil
}

func (r *fakeLikeRepo) Remove(_ context.Context, userID, packageID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeCalls++
	delete(r.records, domain.LikeKey(userID, packageID))
	return nil
}

func (r *fakeLikeRepo) Probe(context.Context) error {
	return r.probeErr
}

func (r *fakeLikeRepo) seed(userID string, packageIDs ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range packageIDs {
		rec := domain.LikeRecord{UserID: userID, PackageID: id, CreatedAt: time.Now()}
		r.records[rec.Key()] = rec
	}
}

// failingStore fails every write.
type failingStore struct {
	*localstore.MemoryStore
}

func (failingStore) Set(context.Context, string, string) error {
	return domain.PersistenceError("set", errors.New("disk full"))
}

var _ ports.LocalStore = failingStore{}

func pkg(id string) domain.Package {
	return domain.Package{ID: id, Destination: "Destination " + id, Price: "$999", Image: "https://example.com/" + id + ".jpg"}
}

func newTestLikeService(remote ports.LikeRepository, cfg LikeServiceConfig) (*LikeService, *localstore.MemoryStore, *memory.LikeCache) {
	local := localstore.NewMemoryStore()
	cache := memory.NewLikeCache()
	return NewLikeService(local, remote, cache, cfg), local, cache
}

func TestLikeService_LikeRemoteReachable(t *testing.T) {
	ctx := context.Background()
	remote := newFakeLikeRepo()
	svc, _, cache := newTestLikeService(remote, LikeServiceConfig{})

	record, err := svc.Like(ctx, "u1", pkg("1"))
	if err != nil {
		t.Fatalf("Like returned error: %v", err)
	}
	if record.Source != domain.LikeSourceRemote {
		t.Fatalf("expected remote source, got %q", record.Source)
	}
	if len(remote.lastUpsert.PackageData) == 0 {
		t.Fatalf("expected snapshot to be sent with the like")
	}
	if cache.CountByUser("u1") != 0 {
		t.Fatalf("fallback must stay empty when remote is reachable")
	}

	local, err := svc.LocalLikes(ctx)
	if err != nil {
		t.Fatalf("LocalLikes returned error: %v", err)
	}
	if len(local) != 1 || local[0].ID != "1" {
		t.Fatalf("unexpected local likes %+v", local)
	}

	count, err := svc.LikedCount(ctx, "u1")
	if err != nil || count != 1 {
		t.Fatalf("expected count 1, got %d (%v)", count, err)
	}
}

func TestLikeService_LikeTableMissingUsesFallback(t *testing.T) {
	ctx := context.Background()
	remote := newFakeLikeRepo()
	remote.upsertErr = &pgconn.PgError{Code: "42P01", Message: `relation "user_likes" does not exist`}
	remote.readErr = remote.upsertErr
	svc, _, cache := newTestLikeService(remote, LikeServiceConfig{})

	record, err := svc.Like(ctx, "u1", pkg("1"))
	if err != nil {
		t.Fatalf("Like returned error: %v", err)
	}
	if record.Source != domain.LikeSourceFallback {
		t.Fatalf("expected fallback source, got %q", record.Source)
	}
	if !cache.Has("u1", "1") {
		t.Fatalf("expected fallback entry for u1_1")
	}
	if remote.minimalCalls != 0 {
		t.Fatalf("missing table must not trigger the minimal retry")
	}

	liked, err := svc.IsLiked(ctx, "u1", "1")
	if err != nil || !liked {
		t.Fatalf("expected IsLiked true, got %v (%v)", liked, err)
	}
	count, err := svc.LikedCount(ctx, "u1")
	if err != nil || count != 1 {
		t.Fatalf("expected count 1, got %d (%v)", count, err)
	}
}

func TestLikeService_LikeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	remote := newFakeLikeRepo()
	svc, _, _ := newTestLikeService(remote, LikeServiceConfig{})

	for i := 0; i < 3; i++ {
		if _, err := svc.Like(ctx, "u1", pkg("1")); err != nil {
			t.Fatalf("Like call %d returned error: %v", i, err)
		}
	}

	local, _ := svc.LocalLikes(ctx)
	if len(local) != 1 {
		t.Fatalf("expected one local entry, got %d", len(local))
	}
	if n, _ := remote.CountByUser(ctx, "u1"); n != 1 {
		t.Fatalf("expected one remote row, got %d", n)
	}
	if count, _ := svc.LikedCount(ctx, "u1"); count != 1 {
		t.Fatalf("expected count 1, got %d", count)
	}
}

func TestLikeService_InsufficientPrivilegeRetriesMinimal(t *testing.T) {
	ctx := context.Background()
	remote := newFakeLikeRepo()
	remote.upsertErr = &pgconn.PgError{Code: "42501", Message: "permission denied"}
	svc, _, cache := newTestLikeService(remote, LikeServiceConfig{})

	record, err := svc.Like(ctx, "u1", pkg("1"))
	if err != nil {
		t.Fatalf("Like returned error: %v", err)
	}
	if remote.minimalCalls != 1 {
		t.Fatalf("expected one minimal retry, got %d", remote.minimalCalls)
	}
	if record.Source != domain.LikeSourceRemote || len(record.PackageData) != 0 {
		t.Fatalf("expected minimal remote record, got %+v", record)
	}
	if cache.CountByUser("u1") != 0 {
		t.Fatalf("fallback must stay empty after a successful retry")
	}
}

func TestLikeService_MinimalRetryFailureFallsBack(t *testing.T) {
	ctx := context.Background()
	remote := newFakeLikeRepo()
	remote.upsertErr = &pgconn.PgError{Code: "42501"}
	remote.minimalErr = &pgconn.PgError{Code: "42501"}
	svc, _, cache := newTestLikeService(remote, LikeServiceConfig{})

	record, err := svc.Like(ctx, "u1", pkg("1"))
	if err != nil {
		t.Fatalf("Like returned error: %v", err)
	}
	if record.Source != domain.LikeSourceFallback || !cache.Has("u1", "1") {
		t.Fatalf("expected fallback after failed retry, got %+v", record)
	}
}

func TestLikeService_TransportErrorFallsBack(t *testing.T) {
	ctx := context.Background()
	remote := newFakeLikeRepo()
	remote.upsertErr = errors.New("dial tcp: connection refused")
	remote.readErr = remote.upsertErr
	svc, _, cache := newTestLikeService(remote, LikeServiceConfig{})

	if _, err := svc.Like(ctx, "u1", pkg("1")); err != nil {
		t.Fatalf("Like returned error: %v", err)
	}
	if !cache.Has("u1", "1") {
		t.Fatalf("expected fallback entry")
	}
	count, err := svc.LikedCount(ctx, "u1")
	if err != nil {
		t.Fatalf("LikedCount must not surface remote errors: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected count 1, got %d", count)
	}
}

func TestLikeService_NoRemoteConfigured(t *testing.T) {
	ctx := context.Background()
	svc, _, cache := newTestLikeService(nil, LikeServiceConfig{})

	record, err := svc.Like(ctx, "u1", pkg("1"))
	if err != nil {
		t.Fatalf("Like returned error: %v", err)
	}
	if record.Source != domain.LikeSourceFallback || !cache.Has("u1", "1") {
		t.Fatalf("expected fallback record, got %+v", record)
	}
	status := svc.RemoteStatus(ctx)
	if status.Configured {
		t.Fatalf("expected remote to be reported as not configured")
	}
}

func TestLikeService_LikeDetachedFromCallerCancellation(t *testing.T) {
	remote := newFakeLikeRepo()
	svc, _, _ := newTestLikeService(remote, LikeServiceConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	record := svc.writeRemote(ctx, domain.LikeRecord{UserID: "u1", PackageID: "1", CreatedAt: time.Now()})
	if record.Source != domain.LikeSourceRemote {
		t.Fatalf("expected remote write despite cancelled caller, got %+v", record)
	}
	if remote.upsertCtxErr != nil {
		t.Fatalf("remote call saw cancelled context: %v", remote.upsertCtxErr)
	}
}

func TestLikeService_LikeWithCancelledContextIsStored(t *testing.T) {
	remote := newFakeLikeRepo()
	svc, _, _ := newTestLikeService(remote, LikeServiceConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	record, err := svc.Like(ctx, "u1", pkg("1"))
	if err != nil {
		t.Fatalf("Like returned error: %v", err)
	}
	if record.Source != domain.LikeSourceRemote || remote.upsertCalls != 1 {
		t.Fatalf("expected remote upsert, got %+v (%d calls)", record, remote.upsertCalls)
	}

	liked, err := svc.IsLiked(context.Background(), "u1", "1")
	if err != nil || !liked {
		t.Fatalf("expected like to be stored, got %v (%v)", liked, err)
	}
	local, err := svc.LocalLikes(context.Background())
	if err != nil || len(local) != 1 {
		t.Fatalf("expected one local like, got %+v (%v)", local, err)
	}

	if err := svc.Unlike(ctx, "u1", "1"); err != nil {
		t.Fatalf("Unlike returned error: %v", err)
	}
	local, err = svc.LocalLikes(context.Background())
	if err != nil || len(local) != 0 {
		t.Fatalf("expected unlike to be applied, got %+v (%v)", local, err)
	}
}

func TestLikeService_CancelledLikeFallsBackWhenRemoteFails(t *testing.T) {
	remote := newFakeLikeRepo()
	remote.upsertErr = &pgconn.PgError{Code: "42P01"}
	svc, _, cache := newTestLikeService(remote, LikeServiceConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	record, err := svc.Like(ctx, "u1", pkg("1"))
	if err != nil {
		t.Fatalf("Like returned error: %v", err)
	}
	if record.Source != domain.LikeSourceFallback || !cache.Has("u1", "1") {
		t.Fatalf("expected fallback entry, got %+v", record)
	}
}

func TestLikeService_LocalPersistenceFailureIsReturned(t *testing.T) {
	ctx := context.Background()
	remote := newFakeLikeRepo()
	store := failingStore{localstore.NewMemoryStore()}
	svc := NewLikeService(store, remote, memory.NewLikeCache(), LikeServiceConfig{})

	_, err := svc.Like(ctx, "u1", pkg("1"))
	if !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}
	if remote.upsertCalls != 0 {
		t.Fatalf("remote must not be written when the local write fails")
	}
}

func TestLikeService_Validation(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestLikeService(newFakeLikeRepo(), LikeServiceConfig{})

	if _, err := svc.Like(ctx, " ", pkg("1")); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for empty user, got %v", err)
	}
	if _, err := svc.Like(ctx, "u1", domain.Package{}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for empty package id, got %v", err)
	}
	if _, err := svc.LikedCount(ctx, ""); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error from LikedCount, got %v", err)
	}
	if err := svc.Unlike(ctx, "u1", ""); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error from Unlike, got %v", err)
	}
}

func TestLikeService_OversizedSnapshotDropped(t *testing.T) {
	ctx := context.Background()
	remote := newFakeLikeRepo()
	svc, _, _ := newTestLikeService(remote, LikeServiceConfig{SnapshotMaxBytes: 200})

	big := pkg("1")
	big.Description = strings.Repeat("x", 500)
	if _, err := svc.Like(ctx, "u1", big); err != nil {
		t.Fatalf("Like returned error: %v", err)
	}
	if remote.lastUpsert.PackageData != nil {
		t.Fatalf("expected snapshot to be dropped, got %d bytes", len(remote.lastUpsert.PackageData))
	}

	local, _ := svc.LocalLikes(ctx)
	if len(local) != 1 || local[0].Description != big.Description {
		t.Fatalf("local store must keep the full package")
	}
}

func TestLikeService_CountIsMaxOfSources(t *testing.T) {
	cases := []struct {
		name                    string
		local, remote, fallback int
		want                    int
	}{
		{"empty", 0, 0, 0, 0},
		{"local only", 1, 0, 0, 1},
		{"remote only", 0, 3, 0, 3},
		{"fallback only", 0, 0, 2, 2},
		{"remote wins", 1, 3, 2, 3},
		{"local wins", 4, 1, 1, 4},
		{"fallback wins", 1, 1, 5, 5},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			remote := newFakeLikeRepo()
			svc, _, cache := newTestLikeService(remote, LikeServiceConfig{})

			for i := 0; i < tc.local; i++ {
				if _, err := svc.addLocal(ctx, pkg("l"+string(rune('a'+i)))); err != nil {
					t.Fatalf("addLocal returned error: %v", err)
				}
			}
			for i := 0; i < tc.remote; i++ {
				remote.seed("u1", "r"+string(rune('a'+i)))
			}
			for i := 0; i < tc.fallback; i++ {
				cache.Put(domain.LikeRecord{UserID: "u1", PackageID: "f" + string(rune('a'+i))})
			}

			got, err := svc.LikedCount(ctx, "u1")
			if err != nil {
				t.Fatalf("LikedCount returned error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, got)
			}
		})
	}
}

func TestLikeService_CountUnionMode(t *testing.T) {
	ctx := context.Background()
	remote := newFakeLikeRepo()
	svc, _, cache := newTestLikeService(remote, LikeServiceConfig{CountMode: CountUnion})

	if _, err := svc.addLocal(ctx, pkg("1")); err != nil {
		t.Fatalf("addLocal returned error: %v", err)
	}
	remote.seed("u1", "1", "2")
	cache.Put(domain.LikeRecord{UserID: "u1", PackageID: "3"})

	got, err := svc.LikedCount(ctx, "u1")
	if err != nil {
		t.Fatalf("LikedCount returned error: %v", err)
	}
	if got != 3 {
		t.Fatalf("expected union count 3, got %d", got)
	}
}

func TestLikeService_LikedSetMergesSources(t *testing.T) {
	ctx := context.Background()
	remote := newFakeLikeRepo()
	svc, _, cache := newTestLikeService(remote, LikeServiceConfig{})

	if _, err := svc.Like(ctx, "u1", pkg("1")); err != nil {
		t.Fatalf("Like returned error: %v", err)
	}
	remote.seed("u1", "2")
	cache.Put(domain.LikeRecord{UserID: "u1", PackageID: "3"})

	set, err := svc.LikedSet(ctx, "u1")
	if err != nil {
		t.Fatalf("LikedSet returned error: %v", err)
	}
	if len(set.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(set.Items))
	}
	first := set.Items[0]
	if first.PackageID != "1" || !first.InLocal || !first.InRemote || first.Package == nil {
		t.Fatalf("unexpected first item %+v", first)
	}
	for _, id := range []string{"2", "3"} {
		if !set.Contains(id) {
			t.Fatalf("expected set to contain %s", id)
		}
	}
	if set.Count != 2 {
		t.Fatalf("expected max-rule count 2, got %d", set.Count)
	}
}

func TestLikeService_UnlikeScopes(t *testing.T) {
	ctx := context.Background()

	t.Run("local", func(t *testing.T) {
		remote := newFakeLikeRepo()
		svc, _, _ := newTestLikeService(remote, LikeServiceConfig{})
		if _, err := svc.Like(ctx, "u1", pkg("1")); err != nil {
			t.Fatalf("Like returned error: %v", err)
		}
		if err := svc.Unlike(ctx, "u1", "1"); err != nil {
			t.Fatalf("Unlike returned error: %v", err)
		}
		local, _ := svc.LocalLikes(ctx)
		if len(local) != 0 {
			t.Fatalf("expected empty local list")
		}
		if remote.removeCalls != 0 {
			t.Fatalf("local scope must not touch the remote table")
		}
		if liked, _ := svc.IsLiked(ctx, "u1", "1"); !liked {
			t.Fatalf("remote row still reports the like")
		}
	})

	t.Run("all", func(t *testing.T) {
		remote := newFakeLikeRepo()
		svc, _, cache := newTestLikeService(remote, LikeServiceConfig{UnlikeScope: UnlikeEverywhere})
		if _, err := svc.Like(ctx, "u1", pkg("1")); err != nil {
			t.Fatalf("Like returned error: %v", err)
		}
		cache.Put(domain.LikeRecord{UserID: "u1", PackageID: "1"})

		if err := svc.Unlike(ctx, "u1", "1"); err != nil {
			t.Fatalf("Unlike returned error: %v", err)
		}
		if liked, _ := svc.IsLiked(ctx, "u1", "1"); liked {
			t.Fatalf("expected like to be gone everywhere")
		}
		if count, _ := svc.LikedCount(ctx, "u1"); count != 0 {
			t.Fatalf("expected count 0, got %d", count)
		}
	})
}

func TestLikeService_Toggle(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestLikeService(newFakeLikeRepo(), LikeServiceConfig{})

	liked, err := svc.Toggle(ctx, "u1", pkg("1"))
	if err != nil || !liked {
		t.Fatalf("expected first toggle to like, got %v (%v)", liked, err)
	}
	liked, err = svc.Toggle(ctx, "u1", pkg("1"))
	if err != nil || liked {
		t.Fatalf("expected second toggle to unlike, got %v (%v)", liked, err)
	}
}

func TestLikeService_ClearLocal(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestLikeService(nil, LikeServiceConfig{})
	for _, id := range []string{"1", "2"} {
		if _, err := svc.Like(ctx, "u1", pkg(id)); err != nil {
			t.Fatalf("Like returned error: %v", err)
		}
	}
	if err := svc.ClearLocal(ctx); err != nil {
		t.Fatalf("ClearLocal returned error: %v", err)
	}
	local, _ := svc.LocalLikes(ctx)
	if len(local) != 0 {
		t.Fatalf("expected empty local list, got %d", len(local))
	}
}

func TestLikeService_RemoteStatus(t *testing.T) {
	ctx := context.Background()

	remote := newFakeLikeRepo()
	svc, _, _ := newTestLikeService(remote, LikeServiceConfig{})
	if st := svc.RemoteStatus(ctx); !st.Configured || !st.TableExists || st.NeedsSetup {
		t.Fatalf("unexpected status %+v", st)
	}

	remote.probeErr = &pgconn.PgError{Code: "42P01"}
	if st := svc.RemoteStatus(ctx); !st.NeedsSetup || st.TableExists {
		t.Fatalf("expected needs setup, got %+v", st)
	}

	remote.probeErr = errors.New("timeout")
	if st := svc.RemoteStatus(ctx); st.Error == "" || st.NeedsSetup {
		t.Fatalf("expected error status, got %+v", st)
	}
}
