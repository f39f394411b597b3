package store

import (
	"strings"

	"VoxVault/pkg/utils"

	"github.com/pkg/errors"
)

var logger = utils.GetLogger("voxvault")

// ErrNotExist is returned by Get when the key has no record.
var ErrNotExist = errors.New("key does not exist")

// ChunkStore is the backing storage of one volume. Keys are flat names,
// one record per chunk.
type ChunkStore interface {
	Get(key string) ([]byte, error)
	Put(key string, data []byte) error
	Exists(key string) bool
	Delete(key string) error
	List() ([]string, error)
	String() string
}

// Create builds a chunk store from an URI. A plain path selects the
// local directory store; `sftp://` and `redis://` select the remote ones.
func Create(uri string) (ChunkStore, error) {
	switch {
	case uri == "":
		return nil, errors.New("empty store uri")
	case strings.HasPrefix(uri, "sftp://"):
		return newSftpStore(uri)
	case strings.HasPrefix(uri, "redis://") || strings.HasPrefix(uri, "rediss://"):
		return newRedisStore(uri)
	default:
		return newFileStore(uri)
	}
}
