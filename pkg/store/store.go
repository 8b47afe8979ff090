/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package store

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"go.etcd.io/bbolt"

	"jinr.ru/greenlab/go-dmm/pkg/layers"
	"jinr.ru/greenlab/go-dmm/pkg/log"
)

const (
	BucketNamePrefix = "readings_"
	// UnknownInstrument is used until the instrument identifies itself.
	UnknownInstrument = "unknown"
)

// ErrInstrumentNotFound returned when there are no readings for an instrument
type ErrInstrumentNotFound struct {
	ID string
}

func (e ErrInstrumentNotFound) Error() string {
	return fmt.Sprintf("No readings stored for instrument '%s'", e.ID)
}

// Entry is a stored reading with its key.
type Entry struct {
	Seq uint64 `json:"seq"`
	layers.Reading
}

// ReadingStore keeps readings in a bbolt database, one bucket per instrument.
type ReadingStore struct {
	DB *bbolt.DB
}

func Open(path string) (*ReadingStore, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open reading database %s: %w", path, err)
	}
	return &ReadingStore{DB: db}, nil
}

func (s *ReadingStore) Close() error {
	return s.DB.Close()
}

func bucketName(id string) []byte {
	if id == "" {
		id = UnknownInstrument
	}
	return []byte(BucketNamePrefix + id)
}

func uint64ToByte(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

// Put appends a reading to the instrument's bucket and returns its sequence.
func (s *ReadingStore) Put(id string, r layers.Reading) (uint64, error) {
	var seq uint64
	err := s.DB.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketName(id))
		if err != nil {
			return err
		}
		seq, err = b.NextSequence()
		if err != nil {
			return err
		}
		value, err := json.Marshal(r)
		if err != nil {
			return err
		}
		return b.Put(uint64ToByte(seq), value)
	})
	if err != nil {
		return 0, err
	}
	log.Debug("Stored reading %d for %s", seq, bucketName(id))
	return seq, nil
}

// Last returns the most recent reading of an instrument.
func (s *ReadingStore) Last(id string) (*Entry, error) {
	entries, err := s.List(id, 1)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrInstrumentNotFound{ID: id}
	}
	return entries[0], nil
}

// List returns up to limit most recent readings in ascending order. A limit
// of zero or less returns all of them.
func (s *ReadingStore) List(id string, limit int) ([]*Entry, error) {
	var entries []*Entry
	err := s.DB.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName(id))
		if b == nil {
			return ErrInstrumentNotFound{ID: id}
		}
		c := b.Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(entries) == limit {
				break
			}
			e := &Entry{Seq: binary.BigEndian.Uint64(k)}
			if err := json.Unmarshal(v, &e.Reading); err != nil {
				return fmt.Errorf("corrupted reading %d: %w", e.Seq, err)
			}
			entries = append(entries, e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Seq < entries[j].Seq })
	return entries, nil
}

// Instruments returns the IDs that have stored readings.
func (s *ReadingStore) Instruments() ([]string, error) {
	var ids []string
	err := s.DB.View(func(tx *bbolt.Tx) error {
		return tx.ForEach(func(name []byte, _ *bbolt.Bucket) error {
			if strings.HasPrefix(string(name), BucketNamePrefix) {
				ids = append(ids, strings.TrimPrefix(string(name), BucketNamePrefix))
			}
			return nil
		})
	})
	return ids, err
}
