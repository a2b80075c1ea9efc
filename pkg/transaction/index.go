package transaction

import (
	"strconv"
	"time"

	"github.com/boltdb/bolt"
	"github.com/pkg/errors"
)

// indexBucket holds one key (the timestamp, as a decimal string) per
// written journal, mapping to its file path, so a caller can find the
// journal to hand to Revert without listing and parsing every file under
// TransactionDir. Mirrors
// golang-dep's internal/gps/source_cache_bolt.go boltCache, which keys an
// embedded bolt database the same way for a similar point lookup.
const indexBucket = "journals"

// Index is an embedded, on-disk index of written journals, for fast
// revert lookup by timestamp.
type Index struct {
	db *bolt.DB
}

// OpenIndex opens (creating if absent) a bolt database at path.
func OpenIndex(path string) (*Index, error) {
	db, err := bolt.Open(path, 0o644, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "opening journal index %q", path)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(indexBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "initializing journal index bucket")
	}
	return &Index{db: db}, nil
}

// Close closes the underlying bolt database.
func (idx *Index) Close() error {
	return idx.db.Close()
}

// Record associates timestamp with the journal file written at path.
func (idx *Index) Record(timestamp int64, path string) error {
	return idx.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(indexBucket))
		return b.Put([]byte(strconv.FormatInt(timestamp, 10)), []byte(path))
	})
}

// Lookup returns the journal path recorded for timestamp, or "" if none.
func (idx *Index) Lookup(timestamp int64) (string, error) {
	var path string
	err := idx.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(indexBucket))
		v := b.Get([]byte(strconv.FormatInt(timestamp, 10)))
		if v != nil {
			path = string(v)
		}
		return nil
	})
	return path, err
}

// Latest returns the path of the most recently recorded journal, or "" if
// the index is empty. Relies on bolt's byte-lexical key ordering, which
// matches timestamp order as long as every key has the same digit width -
// true for any two unix timestamps within the same multi-decade span.

func (idx *Index) Latest() (string, error) {
	var path string
	err := idx.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(indexBucket))
		c := b.Cursor()
		k, v := c.Last()
		if k != nil {
			path = string(v)
		}
		return nil
	})
	return path, err
}
