package store

import (
	"github.com/juju/ratelimit"
)

type bwlimit struct {
	ChunkStore
	upLimit   *ratelimit.Bucket
	downLimit *ratelimit.Bucket
}

// NewLimited caps the read and write bandwidth of a chunk store, in
// bytes per second. Zero or negative disables the corresponding limit.
func NewLimited(s ChunkStore, up, down int64) ChunkStore {
	bw := &bwlimit{s, nil, nil}
	if up > 0 {
		bw.upLimit = ratelimit.NewBucketWithRate(float64(up), up)
	}
	if down > 0 {
		bw.downLimit = ratelimit.NewBucketWithRate(float64(down), down)
	}
	return bw
}

func (bw *bwlimit) Get(key string) ([]byte, error) {
	data, err := bw.ChunkStore.Get(key)
	if bw.downLimit != nil && len(data) > 0 {
		bw.downLimit.Wait(int64(len(data)))
	}
	return data, err
}

func (bw *bwlimit) Put(key string, data []byte) error {
	if bw.upLimit != nil && len(data) > 0 {
		bw.upLimit.Wait(int64(len(data)))
	}
	return bw.ChunkStore.Put(key, data)
}
