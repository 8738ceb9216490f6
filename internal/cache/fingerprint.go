package cache

import (
	"os"

	"github.com/minio/highwayhash"
)

// hashKey is fixed so fingerprints stay comparable across processes.
var hashKey = []byte("codemap.tagcache.fingerprint.v1!")

type fingerprint struct {
	size    int64
	mtimeNS int64
	hash    uint64
}

// fingerprintFile captures size, mtime and a content hash for path. Mtime
// alone is too coarse on filesystems with second resolution, so the hash
// decides when timestamps lie.
func fingerprintFile(path string) (fingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return fingerprint{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fingerprint{}, err
	}

	h, err := highwayhash.New64(hashKey)
	if err != nil {
		return fingerprint{}, err
	}
	if _, err := h.Write(data); err != nil {
		return fingerprint{}, err
	}

	return fingerprint{
		size:    info.Size(),
		mtimeNS: info.ModTime().UnixNano(),
		hash:    h.Sum64(),
	}, nil
}
