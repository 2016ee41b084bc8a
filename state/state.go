// Copyright (c) 2025 The StakeVault developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"
	lru "github.com/hashicorp/golang-lru"

	"github.com/stakevault/stakevault/kv"
	"github.com/stakevault/stakevault/vault"
)

const cachedValues = 8192

// Error is the error caused by state access failure.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state: %v", e.cause)
}

// storageKey locates one storage value: per-account keyed slot.
type storageKey struct {
	addr vault.Address
	key  vault.Bytes32
}

func (k *storageKey) bytes() []byte {
	b := make([]byte, 0, vault.AddressLength+32)
	b = append(b, k.addr[:]...)
	return append(b, k.key[:]...)
}

type journalEntry struct {
	key  storageKey
	prev rlp.RawValue
}

// Stater creates state instances over a shared store and read cache.
type Stater struct {
	store kv.GetPutter
	cache *lru.Cache // raw values read from the store
}

// NewStater create a stater object.
func NewStater(store kv.GetPutter) *Stater {
	cache, _ := lru.New(cachedValues)
	return &Stater{store: store, cache: cache}
}

// NewState create a state object backed by the stater's store.
func (sr *Stater) NewState() *State {
	return &State{
		stater: sr,
		data:   make(map[storageKey]rlp.RawValue),
		origin: make(map[storageKey]rlp.RawValue),
	}
}

// State manages the vault's world state.
//
// All mutations are journaled; NewCheckpoint/RevertTo give every public
// operation all-or-nothing semantics, and Commit flushes the surviving
// mutations to the underlying store in a single batch.
// An empty value is indistinguishable from an absent one.
type State struct {
	stater  *Stater
	data    map[storageKey]rlp.RawValue // current values, loaded and mutated
	origin  map[storageKey]rlp.RawValue // values as last loaded or committed
	journal []journalEntry
}

// load reads the value through data -> cache -> store.
// A missing key loads as an empty value.
func (s *State) load(key storageKey) (rlp.RawValue, error) {
	if raw, ok := s.data[key]; ok {
		return raw, nil
	}
	kb := key.bytes()
	if cached, ok := s.stater.cache.Get(string(kb)); ok {
		raw := cached.(rlp.RawValue)
		s.data[key] = raw
		s.origin[key] = raw
		return raw, nil
	}
	raw, err := s.stater.store.Get(kb)
	if err != nil {
		if !s.stater.store.IsNotFound(err) {
			return nil, &Error{err}
		}
		raw = nil
	}
	s.stater.cache.Add(string(kb), rlp.RawValue(raw))
	s.data[key] = raw
	s.origin[key] = raw
	return raw, nil
}

// GetRawStorage returns storage value in rlp raw form.
func (s *State) GetRawStorage(addr vault.Address, key vault.Bytes32) (rlp.RawValue, error) {
	return s.load(storageKey{addr, key})
}

// SetRawStorage set storage value in rlp raw form. Empty raw deletes the value.
func (s *State) SetRawStorage(addr vault.Address, key vault.Bytes32, raw rlp.RawValue) error {
	k := storageKey{addr, key}
	prev, err := s.load(k)
	if err != nil {
		return err
	}
	s.journal = append(s.journal, journalEntry{key: k, prev: prev})
	s.data[k] = raw
	return nil
}

// EncodeStorage set storage value encoded by given enc method.
// An empty encoded value deletes the storage slot.
func (s *State) EncodeStorage(addr vault.Address, key vault.Bytes32, enc func() ([]byte, error)) error {
	raw, err := enc()
	if err != nil {
		return &Error{err}
	}
	return s.SetRawStorage(addr, key, raw)
}

// DecodeStorage get and decode storage value.
// The dec method is called with nil raw for an absent slot.
func (s *State) DecodeStorage(addr vault.Address, key vault.Bytes32, dec func([]byte) error) error {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return err
	}
	if err := dec(raw); err != nil {
		return &Error{err}
	}
	return nil
}

// NewCheckpoint makes a checkpoint of current state.
// It returns the checkpoint revision to pass to RevertTo.
func (s *State) NewCheckpoint() int {
	return len(s.journal)
}

// RevertTo reverts to checkpoint specified by revision.
func (s *State) RevertTo(revision int) {
	if revision < 0 || revision > len(s.journal) {
		panic(fmt.Errorf("state: invalid revision %d", revision))
	}
	for i := len(s.journal) - 1; i >= revision; i-- {
		e := s.journal[i]
		s.data[e.key] = e.prev
	}
	s.journal = s.journal[:revision]
}

// Commit writes all mutations into the underlying store in one batch,
// and resets the journal. Committed values feed the shared read cache.
func (s *State) Commit() error {
	batch := s.stater.store.NewBatch()
	var dirty []storageKey
	for k, raw := range s.data {
		if bytes.Equal(raw, s.origin[k]) {
			continue
		}
		dirty = append(dirty, k)
		if len(raw) == 0 {
			if err := batch.Delete(k.bytes()); err != nil {
				return &Error{err}
			}
		} else {
			if err := batch.Put(k.bytes(), raw); err != nil {
				return &Error{err}
			}
		}
	}
	if batch.Len() > 0 {
		if err := batch.Write(); err != nil {
			return &Error{err}
		}
	}
	for _, k := range dirty {
		s.origin[k] = s.data[k]
		s.stater.cache.Add(string(k.bytes()), s.data[k])
	}
	s.journal = s.journal[:0]
	return nil
}
