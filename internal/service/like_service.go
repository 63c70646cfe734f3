package service

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/njprem/travelswipe/internal/domain"
	"github.com/njprem/travelswipe/internal/repository/ports"
)

// UnlikeScope selects which stores an unlike touches.
type UnlikeScope string

const (
	// UnlikeLocal removes the package from the Local Store only; remote rows
	// and fallback entries keep reporting the like.
	UnlikeLocal UnlikeScope = "local"
	// UnlikeEverywhere also deletes the remote row and the fallback entry.
	UnlikeEverywhere UnlikeScope = "all"
)

// CountMode selects how LikedCount merges the three sources.
type CountMode string

const (
	// CountMax reports max(local, remote, fallback).
	CountMax CountMode = "max"
	// CountUnion reports the size of the deduplicated union.
	CountUnion CountMode = "union"
)

const (
	defaultSnapshotMaxBytes = 10000
	defaultRemoteTimeout    = 5 * time.Second
)

type LikeServiceConfig struct {
	// SnapshotMaxBytes caps the serialized package snapshot sent with a like.
	// Snapshots of this size or larger are dropped.
	SnapshotMaxBytes int
	UnlikeScope      UnlikeScope
	CountMode        CountMode
	RemoteTimeout    time.Duration
}

// LikeService reconciles the Local Store, the remote likes table and the
// fallback cache. The Local Store is the durability anchor: a like succeeds
// once it is stored locally, whatever happens remotely.
type LikeService struct {
	local    ports.LocalStore
	remote   ports.LikeRepository
	fallback ports.LikeCache

	snapshotMax   int
	unlikeScope   UnlikeScope
	countMode     CountMode
	remoteTimeout time.Duration
	now           func() time.Time

	// localMu serializes read-modify-write cycles on the liked list.
	localMu sync.Mutex
}

// NewLikeService wires the reconciliation layer. remote may be nil when no
// remote likes table is configured; every like then lands in the fallback.
func NewLikeService(local ports.LocalStore, remote ports.LikeRepository, fallback ports.LikeCache, cfg LikeServiceConfig) *LikeService {
	snapshotMax := cfg.SnapshotMaxBytes
	if snapshotMax <= 0 {
		snapshotMax = defaultSnapshotMaxBytes
	}
	scope := cfg.UnlikeScope
	if scope != UnlikeEverywhere {
		scope = UnlikeLocal
	}
	mode := cfg.CountMode
	if mode != CountUnion {
		mode = CountMax
	}
	timeout := cfg.RemoteTimeout
	if timeout <= 0 {
		timeout = defaultRemoteTimeout
	}

	return &LikeService{
		local:         local,
		remote:        remote,
		fallback:      fallback,
		snapshotMax:   snapshotMax,
		unlikeScope:   scope,
		countMode:     mode,
		remoteTimeout: timeout,
		now:           time.Now,
	}
}

// Like stores pkg in the Local Store and records the like remotely, falling
// back to the in-process cache when the remote write fails. Only validation
// and Local Store failures are returned.
func (s *LikeService) Like(ctx context.Context, userID string, pkg domain.Package) (*domain.LikeRecord, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, domain.ValidationError("no user id provided")
	}
	if !pkg.Valid() {
		return nil, domain.ValidationError("no package id provided")
	}

	// A like outlives the request that made it.
	ctx = context.WithoutCancel(ctx)
	if _, err := s.addLocal(ctx, pkg); err != nil {
		return nil, err
	}

	record := domain.LikeRecord{
		UserID:      userID,
		PackageID:   pkg.ID,
		PackageData: s.snapshot(pkg),
		CreatedAt:   s.now().UTC(),
	}
	return s.writeRemote(ctx, record), nil
}

// Unlike removes the package from the Local Store. With UnlikeEverywhere it
// also clears the fallback entry and deletes the remote row, best effort.
func (s *LikeService) Unlike(ctx context.Context, userID, packageID string) error {
	userID = strings.TrimSpace(userID)
	packageID = strings.TrimSpace(packageID)
	if userID == "" {
		return domain.ValidationError("no user id provided")
	}
	if packageID == "" {
		return domain.ValidationError("no package id provided")
	}

	ctx = context.WithoutCancel(ctx)
	if _, err := s.removeLocal(ctx, packageID); err != nil {
		return err
	}
	if s.unlikeScope != UnlikeEverywhere {
		return nil
	}

	s.fallback.Remove(userID, packageID)
	if s.remote == nil {
		return nil
	}
	rctx, cancel := s.remoteContext(ctx)
	defer cancel()
	if err := s.remote.Remove(rctx, userID, packageID); err != nil {
		s.logRemoteReadError("unlike", userID, err)
	}
	return nil
}

// Toggle likes pkg when it is not in the Local Store and unlikes it otherwise.
// It reports whether the package is liked afterwards.
func (s *LikeService) Toggle(ctx context.Context, userID string, pkg domain.Package) (bool, error) {
	local, err := s.LocalLikes(ctx)
	if err != nil {
		return false, err
	}
	if domain.PackageIndex(local, pkg.ID) >= 0 {
		if err := s.Unlike(ctx, userID, pkg.ID); err != nil {
			return true, err
		}
		return false, nil
	}
	if _, err := s.Like(ctx, userID, pkg); err != nil {
		return false, err
	}
	return true, nil
}

// LikedCount merges the per-source counts according to the count mode.
// Remote failures count as zero.
func (s *LikeService) LikedCount(ctx context.Context, userID string) (int, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return 0, domain.ValidationError("no user id provided")
	}

	if s.countMode == CountUnion {
		set, err := s.LikedSet(ctx, userID)
		if err != nil {
			return 0, err
		}
		return set.Count, nil
	}

	local, err := s.LocalLikes(ctx)
	if err != nil {
		return 0, err
	}
	return max(len(local), s.remoteCount(ctx, userID), s.fallback.CountByUser(userID)), nil
}

// IsLiked is true when any of the three sources reports the like.
func (s *LikeService) IsLiked(ctx context.Context, userID, packageID string) (bool, error) {
	userID = strings.TrimSpace(userID)
	packageID = strings.TrimSpace(packageID)
	if userID == "" {
		return false, domain.ValidationError("no user id provided")
	}
	if packageID == "" {
		return false, domain.ValidationError("no package id provided")
	}

	local, err := s.LocalLikes(ctx)
	if err != nil {
		return false, err
	}
	if domain.PackageIndex(local, packageID) >= 0 {
		return true, nil
	}
	if s.fallback.Has(userID, packageID) {
		return true, nil
	}
	if s.remote == nil {
		return false, nil
	}

	rctx, cancel := s.remoteContext(ctx)
	defer cancel()
	exists, err := s.remote.Exists(rctx, userID, packageID)
	if err != nil {
		s.logRemoteReadError("is liked", userID, err)
		return false, nil
	}
	return exists, nil
}

// LikedSet materializes the union of the three sources. Local entries come
// first in the order they were liked, then remote rows, then fallback entries.
func (s *LikeService) LikedSet(ctx context.Context, userID string) (*domain.LikedSet, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, domain.ValidationError("no user id provided")
	}

	local, err := s.LocalLikes(ctx)
	if err != nil {
		return nil, err
	}
	remote := s.remoteList(ctx, userID)
	fallback := s.fallback.ListByUser(userID)

	items := make([]domain.LikedItem, 0, len(local)+len(remote)+len(fallback))
	index := make(map[string]int, cap(items))
	upsert := func(id string, snapshot *domain.Package) *domain.LikedItem {
		if i, ok := index[id]; ok {
			if items[i].Package == nil && snapshot != nil {
				items[i].Package = snapshot
			}
			return &items[i]
		}
		index[id] = len(items)
		items = append(items, domain.LikedItem{PackageID: id, Package: snapshot})
		return &items[len(items)-1]
	}

	for i := range local {
		pkg := local[i]
		upsert(pkg.ID, &pkg).InLocal = true
	}
	for _, record := range remote {
		upsert(record.PackageID, snapshotOf(record)).InRemote = true
	}
	for _, record := range fallback {
		upsert(record.PackageID, snapshotOf(record)).InFallback = true
	}

	count := len(items)
	if s.countMode == CountMax {
		count = max(len(local), len(remote), len(fallback))
	}
	return &domain.LikedSet{UserID: userID, Items: items, Count: count}, nil
}

// LocalLikes returns the Local Store liked list.
func (s *LikeService) LocalLikes(ctx context.Context) ([]domain.Package, error) {
	raw, ok, err := s.local.Get(ctx, ports.KeyLikedPackages)
	if err != nil {
		return nil, asPersistence("read liked packages", err)
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return []domain.Package{}, nil
	}
	var items []domain.Package
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, domain.PersistenceError("decode liked packages", err)
	}
	return items, nil
}

// ClearLocal drops the whole Local Store liked list.
func (s *LikeService) ClearLocal(ctx context.Context) error {
	s.localMu.Lock()
	defer s.localMu.Unlock()
	if err := s.local.Remove(ctx, ports.KeyLikedPackages); err != nil {
		return asPersistence("clear liked packages", err)
	}
	return nil
}

// RemoteStatus probes the remote likes table.
func (s *LikeService) RemoteStatus(ctx context.Context) domain.RemoteStatus {
	if s.remote == nil {
		return domain.RemoteStatus{Configured: false}
	}
	rctx, cancel := s.remoteContext(ctx)
	defer cancel()

	err := s.remote.Probe(rctx)
	switch {
	case err == nil:
		return domain.RemoteStatus{Configured: true, TableExists: true}
	case isUndefinedTable(err):
		log.Printf("likes: user_likes table does not exist")
		return domain.RemoteStatus{Configured: true, NeedsSetup: true}
	default:
		log.Printf("likes: probe failed: %v", err)
		return domain.RemoteStatus{Configured: true, Error: err.Error()}
	}
}

func (s *LikeService) addLocal(ctx context.Context, pkg domain.Package) (bool, error) {
	s.localMu.Lock()
	defer s.localMu.Unlock()

	items, err := s.LocalLikes(ctx)
	if err != nil {
		return false, err
	}
	if domain.PackageIndex(items, pkg.ID) >= 0 {
		return false, nil
	}
	return true, s.saveLocal(ctx, append(items, pkg))
}

func (s *LikeService) removeLocal(ctx context.Context, packageID string) (bool, error) {
	s.localMu.Lock()
	defer s.localMu.Unlock()

	items, err := s.LocalLikes(ctx)
	if err != nil {
		return false, err
	}
	idx := domain.PackageIndex(items, packageID)
	if idx < 0 {
		return false, nil
	}
	items = append(items[:idx], items[idx+1:]...)
	return true, s.saveLocal(ctx, items)
}

func (s *LikeService) saveLocal(ctx context.Context, items []domain.Package) error {
	data, err := json.Marshal(items)
	if err != nil {
		return domain.PersistenceError("encode liked packages", err)
	}
	if err := s.local.Set(ctx, ports.KeyLikedPackages, string(data)); err != nil {
		return asPersistence("write liked packages", err)
	}
	return nil
}

// snapshot serializes pkg, or returns nil when it does not fit under the cap.
func (s *LikeService) snapshot(pkg domain.Package) json.RawMessage {
	data, err := json.Marshal(pkg)
	if err != nil {
		log.Printf("likes: serialize package %s: %v", pkg.ID, err)
		return nil
	}
	if len(data) >= s.snapshotMax {
		log.Printf("likes: package %s snapshot is %d bytes, not included in like", pkg.ID, len(data))
		return nil
	}
	return data
}

func (s *LikeService) writeRemote(ctx context.Context, record domain.LikeRecord) *domain.LikeRecord {
	if s.remote == nil {
		return s.writeFallback(record, domain.RemoteUnavailableError("remote likes not configured", nil))
	}

	rctx, cancel := s.remoteContext(ctx)
	defer cancel()

	stored, err := s.remote.Upsert(rctx, record)
	if err == nil {
		return stored
	}
	err = classifyRemote(err)

	if isInsufficientPrivilege(err) {
		log.Printf("likes: permission denied for %s, retrying without package data", record.Key())
		minimal := record
		minimal.PackageData = nil
		stored, retryErr := s.remote.InsertMinimal(rctx, minimal)
		if retryErr == nil {
			return stored
		}
		err = classifyRemote(retryErr)
	}

	return s.writeFallback(record, err)
}

func (s *LikeService) writeFallback(record domain.LikeRecord, cause error) *domain.LikeRecord {
	log.Printf("likes: remote write for %s failed, using fallback: %v", record.Key(), cause)
	s.fallback.Put(record)
	record.Source = domain.LikeSourceFallback
	return &record
}

func (s *LikeService) remoteCount(ctx context.Context, userID string) int {
	if s.remote == nil {
		return 0
	}
	rctx, cancel := s.remoteContext(ctx)
	defer cancel()
	count, err := s.remote.CountByUser(rctx, userID)
	if err != nil {
		s.logRemoteReadError("count", userID, err)
		return 0
	}
	return int(count)
}

func (s *LikeService) remoteList(ctx context.Context, userID string) []domain.LikeRecord {
	if s.remote == nil {
		return nil
	}
	rctx, cancel := s.remoteContext(ctx)
	defer cancel()
	records, err := s.remote.ListByUser(rctx, userID)
	if err != nil {
		s.logRemoteReadError("list", userID, err)
		return nil
	}
	return records
}

// remoteContext detaches remote calls from the caller's cancellation: a
// remote write is never abandoned because the caller went away.
func (s *LikeService) remoteContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), s.remoteTimeout)
}

// logRemoteReadError stays quiet for a missing table, which is an expected
// state on unprovisioned backends.
func (s *LikeService) logRemoteReadError(op, userID string, err error) {
	if isUndefinedTable(err) {
		return
	}
	log.Printf("likes: remote %s for user %s failed: %v", op, userID, classifyRemote(err))
}

func snapshotOf(record domain.LikeRecord) *domain.Package {
	pkg, ok := record.Snapshot()
	if !ok {
		return nil
	}
	return &pkg
}

func asPersistence(op string, err error) error {
	if domain.KindOf(err) == domain.KindPersistence {
		return err
	}
	return domain.PersistenceError(op, err)
}
