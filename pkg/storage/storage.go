package storage

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/segmentio/ksuid"

	"github.com/ssargent/structkit/pkg/envelope"
)

// ErrNotFound is returned when no frame is stored under an id.
var ErrNotFound = errors.New("storage: frame not found")

// Frame is a stored envelope and the id it is stored under.
type Frame struct {
	ID       ksuid.KSUID
	Envelope *envelope.Envelope
}

// FrameStore keeps sealed envelopes in pebble, keyed by KSUID so that key
// order is creation order.
type FrameStore struct {
	db    *pebble.DB
	codec *envelope.Codec
}

func NewFrameStore(path string) (*FrameStore, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open frame store: %w", err)
	}
	return &FrameStore{db: db, codec: envelope.NewCodec()}, nil
}

// Put seals payload for schema and stores it under a new id.
func (s *FrameStore) Put(schema string, payload []byte) (ksuid.KSUID, error) {
	data, err := s.codec.Encode(schema, payload)
	if err != nil {
		return ksuid.Nil, fmt.Errorf("failed to seal frame: %w", err)
	}

	id := ksuid.New()
	if err := s.db.Set(id.Bytes(), data, pebble.NoSync); err != nil {
		return ksuid.Nil, fmt.Errorf("failed to store frame: %w", err)
	}
	return id, nil
}

// Get loads and validates the frame stored under id.
func (s *FrameStore) Get(id ksuid.KSUID) (*Frame, error) {
	value, closer, err := s.db.Get(id.Bytes())
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read frame: %w", err)
	}
	// value is only valid until closer is closed
	data := bytes.Clone(value)
	if err := closer.Close(); err != nil {
		return nil, fmt.Errorf("failed to release frame: %w", err)
	}

	return s.open(id, data)
}

// Delete removes the frame stored under id.
func (s *FrameStore) Delete(id ksuid.KSUID) error {
	_, closer, err := s.db.Get(id.Bytes())
	if errors.Is(err, pebble.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("failed to read frame: %w", err)
	}
	if err := closer.Close(); err != nil {
		return fmt.Errorf("failed to release frame: %w", err)
	}

	if err := s.db.Delete(id.Bytes(), pebble.NoSync); err != nil {
		return fmt.Errorf("failed to delete frame: %w", err)
	}
	return nil
}

// List returns up to limit frames stored after the given id, oldest first.
// ksuid.Nil lists from the beginning; limit <= 0 means no limit.
func (s *FrameStore) List(after ksuid.KSUID, limit int) ([]*Frame, error) {
	iter, err := s.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to create iterator: %w", err)
	}
	defer iter.Close()

	var frames []*Frame
	for iter.SeekGE(after.Bytes()); iter.Valid(); iter.Next() {
		if limit > 0 && len(frames) >= limit {
			break
		}
		key := iter.Key()
		if bytes.Equal(key, after.Bytes()) {
			continue
		}
		id, err := ksuid.FromBytes(key)
		if err != nil {
			return nil, fmt.Errorf("invalid frame key %x: %w", key, err)
		}
		frame, err := s.open(id, bytes.Clone(iter.Value()))
		if err != nil {
			return nil, err
		}
		frames = append(frames, frame)
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("failed to iterate frames: %w", err)
	}
	return frames, nil
}

func (s *FrameStore) open(id ksuid.KSUID, data []byte) (*Frame, error) {
	e, err := s.codec.Open(data)
	if err != nil {
		return nil, fmt.Errorf("frame %s: %w", id, err)
	}
	return &Frame{ID: id, Envelope: e}, nil
}

func (s *FrameStore) Close() error {
	return s.db.Close()
}
