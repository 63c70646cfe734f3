package ports

import "context"

// Local Store keys.
const (
	KeyLikedPackages = "likedPackages"
	KeyUserName      = "userName"
	KeyUserEmail     = "userEmail"
	KeyUserToken     = "userToken"
	KeyWelcomeSeen   = "welcomeSeen"
	KeySession       = "session"
	KeyUsers         = "users"
)

// LocalStore is the device key-value store. Values are opaque serialized strings.
type LocalStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}
