package domain

import (
	"encoding/json"
	"time"
)

type LikeSource string

const (
	LikeSourceRemote   LikeSource = "remote"
	LikeSourceFallback LikeSource = "fallback"
)

// LikeRecord is one (user, package) like. PackageData holds the serialized
// snapshot when it fit under the size cap.
type LikeRecord struct {
	UserID      string          `db:"user_id" json:"user_id"`
	PackageID   string          `db:"package_id" json:"package_id"`
	PackageData json.RawMessage `db:"package_data" json:"package_data,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	Source      LikeSource      `db:"-" json:"source,omitempty"`
}

// Key is the identity shared by the remote table and the fallback cache.
func (r LikeRecord) Key() string {
	return LikeKey(r.UserID, r.PackageID)
}

func LikeKey(userID, packageID string) string {
	return userID + "_" + packageID
}

// Snapshot decodes PackageData. It returns false when there is no usable snapshot.
func (r LikeRecord) Snapshot() (Package, bool) {
	if len(r.PackageData) == 0 {
		return Package{}, false
	}
	var pkg Package
	if err := json.Unmarshal(r.PackageData, &pkg); err != nil || !pkg.Valid() {
		return Package{}, false
	}
	return pkg, true
}

// LikedItem is one member of a user's LikedSet together with the sources that
// report it.
type LikedItem struct {
	PackageID  string   `json:"package_id"`
	Package    *Package `json:"package,omitempty"`
	InLocal    bool     `json:"in_local"`
	InRemote   bool     `json:"in_remote"`
	InFallback bool     `json:"in_fallback"`
}

type LikedSet struct {
	UserID string      `json:"user_id"`
	Items  []LikedItem `json:"items"`
	// Count follows the configured count rule and may differ from len(Items).
	Count int `json:"count"`
}

func (s *LikedSet) Contains(packageID string) bool {
	for _, item := range s.Items {
		if item.PackageID == packageID {
			return true
		}
	}
	return false
}

// RemoteStatus reports whether the remote likes table is usable.
type RemoteStatus struct {
	Configured  bool   `json:"configured"`
	TableExists bool   `json:"table_exists"`
	NeedsSetup  bool   `json:"needs_setup"`
	Error       string `json:"error,omitempty"`
}
