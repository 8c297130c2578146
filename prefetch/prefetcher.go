// Copyright (C) 2024-2026, Trie Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package prefetch warms trie nodes ahead of execution. A Prefetcher receives
// account addresses and storage keys and resolves them on background copies
// of the target tries, pulling the touched nodes into the node store's clean
// cache. It is purely a performance overlay: interrupting it at any point
// only leaves caches colder.
package prefetch

import (
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/trielab/triedb/utils/logging"
)

// Prefetcher schedules trie warming across one account trie and any number
// of storage tries rooted in the same state.
//
// The Prefetcher's API is not thread safe.
type Prefetcher struct {
	db       Database               // Database to fetch trie nodes through
	root     common.Hash            // Root hash of the account trie for metrics
	fetches  map[string]Trie        // Partially or fully fetched tries, copy mode only
	fetchers map[string]*subfetcher // Subfetchers for each trie

	log     logging.Logger
	metrics metrics
}

// New creates an active prefetcher rooted at the given state.
func New(
	db Database,
	root common.Hash,
	log logging.Logger,
	namespace string,
	reg prometheus.Registerer,
) (*Prefetcher, error) {
	p := &Prefetcher{
		db:       db,
		root:     root,
		fetchers: make(map[string]*subfetcher),
		log:      log,
	}
	if err := p.metrics.Initialize(namespace, reg); err != nil {
		return nil, err
	}
	return p, nil
}

// Close interrupts all the subfetchers, waits for them to terminate and
// reports usefulness stats. The prefetcher cannot be reused afterwards.
func (p *Prefetcher) Close() {
	// If the prefetcher is an inactive one, bail out
	if p.fetches != nil {
		return
	}

	// Subfetchers only block on their termination signal, so shutting them
	// down concurrently keeps close time bounded by the slowest one.
	var eg errgroup.Group
	for _, fetcher := range p.fetchers {
		fetcher := fetcher
		eg.Go(func() error {
			fetcher.abort()
			return nil
		})
	}
	_ = eg.Wait()

	for _, fetcher := range p.fetchers {
		if fetcher.root == p.root {
			p.metrics.accountLoads.Add(float64(len(fetcher.seen)))
			p.metrics.accountDups.Add(float64(fetcher.dups))
			p.metrics.accountSkips.Add(float64(fetcher.skips))

			for _, key := range fetcher.used {
				delete(fetcher.seen, string(key))
			}
			p.metrics.accountWaste.Add(float64(len(fetcher.seen)))
		} else {
			p.metrics.storageLoads.Add(float64(len(fetcher.seen)))
			p.metrics.storageDups.Add(float64(fetcher.dups))
			p.metrics.storageSkips.Add(float64(fetcher.skips))

			for _, key := range fetcher.used {
				delete(fetcher.seen, string(key))
			}
			p.metrics.storageWaste.Add(float64(len(fetcher.seen)))
		}
	}
	// Clear out all fetchers (will crash on a second call, deliberate)
	p.fetchers = nil
}

// Copy creates a deep-but-inactive copy of the prefetcher. Any trie data
// already loaded will be copied over, but no goroutines will be started.
func (p *Prefetcher) Copy() *Prefetcher {
	cpy := &Prefetcher{
		db:      p.db,
		root:    p.root,
		fetches: make(map[string]Trie), // Active prefetchers use the fetchers map
		log:     p.log,
		metrics: p.metrics,
	}
	// If the prefetcher is already a copy, duplicate the data
	if p.fetches != nil {
		for id, fetch := range p.fetches {
			if fetch == nil {
				continue
			}
			cpy.fetches[id] = p.db.CopyTrie(fetch)
		}
		return cpy
	}
	// Otherwise we're copying an active fetcher, retrieve the current states
	for id, fetcher := range p.fetchers {
		if trie := fetcher.peek(); trie != nil {
			cpy.fetches[id] = trie
		}
	}
	return cpy
}

// Prefetch schedules a batch of trie items to prefetch. Keys of address
// length are resolved as accounts, everything else as storage slots of addr.
func (p *Prefetcher) Prefetch(owner common.Hash, root common.Hash, addr common.Address, keys [][]byte) {
	// If the prefetcher is an inactive one, bail out
	if p.fetches != nil {
		return
	}
	id := p.trieID(owner, root)
	fetcher := p.fetchers[id]
	if fetcher == nil {
		fetcher = newSubfetcher(p.db, p.root, owner, root, addr, p.log)
		p.fetchers[id] = fetcher
	}
	fetcher.schedule(keys)
}

// Trie returns the trie matching the owner and root hash, interrupting any
// remaining warm work for it, or nil if no prefetch was scheduled for it.
func (p *Prefetcher) Trie(owner common.Hash, root common.Hash) Trie {
	// If the prefetcher is inactive, return from existing deep copies
	id := p.trieID(owner, root)
	if p.fetches != nil {
		trie := p.fetches[id]
		if trie == nil {
			return nil
		}
		return p.db.CopyTrie(trie)
	}
	// Otherwise the prefetcher is active, bail if no trie was prefetched
	fetcher := p.fetchers[id]
	if fetcher == nil {
		return nil
	}
	// Interrupt the prefetcher if it's by any chance still running and
	// return a copy of any pre-loaded trie.
	start := time.Now()
	fetcher.abort()
	p.metrics.waitDuration.Observe(float64(time.Since(start)))

	return fetcher.peek()
}

// Used marks a batch of state items used to allow creating statistics as to
// how useful or wasteful the prefetcher is.
func (p *Prefetcher) Used(owner common.Hash, root common.Hash, used [][]byte) {
	if fetcher := p.fetchers[p.trieID(owner, root)]; fetcher != nil {
		fetcher.used = used
	}
}

// trieID returns a unique trie identifier consisting of the trie owner and
// root hash.
func (p *Prefetcher) trieID(owner common.Hash, root common.Hash) string {
	return string(append(owner.Bytes(), root.Bytes()...))
}

// subfetcher is a trie fetcher goroutine responsible for pulling entries for
// a single trie. It is spawned when a new root is encountered and lives until
// the main prefetcher is paused or the trie is retrieved.
type subfetcher struct {
	db    Database       // Database to load trie nodes through
	state common.Hash    // Root hash of the state to prefetch
	owner common.Hash    // Owner of the trie, usually account hash
	root  common.Hash    // Root hash of the trie to prefetch
	addr  common.Address // Address of the account that the trie belongs to

	trie  Trie     // Trie being populated with nodes, guarded by lock
	tasks [][]byte // Queue of tasks to be processed, guarded by lock
	skips int      // Number of tasks dropped on interrupt, guarded by lock
	lock  sync.Mutex

	wake chan struct{} // Wake channel if a new task is scheduled
	stop chan struct{} // Channel to interrupt processing
	term chan struct{} // Channel to signal interruption

	stopOnce sync.Once

	seen map[string]struct{} // Tracks the entries already loaded
	dups int                 // Number of duplicate preload tasks
	used [][]byte            // Tracks the entries used in the end

	log logging.Logger
}

// newSubfetcher creates a goroutine to prefetch state items belonging to a
// particular root hash.
func newSubfetcher(db Database, state, owner, root common.Hash, addr common.Address, log logging.Logger) *subfetcher {
	sf := &subfetcher{
		db:    db,
		state: state,
		owner: owner,
		root:  root,
		addr:  addr,
		wake:  make(chan struct{}, 1),
		stop:  make(chan struct{}),
		term:  make(chan struct{}),
		seen:  make(map[string]struct{}),
		log:   log,
	}
	go sf.loop()
	return sf
}

// schedule adds a batch of trie keys to the queue to prefetch.
func (sf *subfetcher) schedule(keys [][]byte) {
	tasks := make([][]byte, 0, len(keys))
	for _, key := range keys {
		sk := string(key)
		if _, ok := sf.seen[sk]; ok {
			sf.dups++
			continue
		}
		sf.seen[sk] = struct{}{}
		tasks = append(tasks, key)
	}
	if len(tasks) == 0 {
		return
	}

	sf.lock.Lock()
	sf.tasks = append(sf.tasks, tasks...)
	sf.lock.Unlock()

	select {
	case sf.wake <- struct{}{}:
	default:
	}
}

// peek retrieves a copy of the fetcher's trie in whatever form it is
// currently, or nil if the trie could not be opened.
func (sf *subfetcher) peek() Trie {
	sf.lock.Lock()
	defer sf.lock.Unlock()

	if sf.trie == nil {
		return nil
	}
	return sf.db.CopyTrie(sf.trie)
}

// abort interrupts the subfetcher immediately. It is safe to call abort
// multiple times.
func (sf *subfetcher) abort() {
	sf.stopOnce.Do(func() {
		close(sf.stop)
	})
	<-sf.term
}

// loop loads newly-scheduled trie tasks as they are received until abort.
func (sf *subfetcher) loop() {
	defer close(sf.term)

	var (
		trie Trie
		err  error
	)
	if sf.owner == (common.Hash{}) {
		trie, err = sf.db.OpenTrie(sf.root)
	} else {
		trie, err = sf.db.OpenStorageTrie(sf.state, sf.owner, sf.root)
	}
	if err != nil {
		sf.log.Warn("prefetcher failed opening trie",
			zap.Stringer("root", sf.root),
			zap.Error(err),
		)
		return
	}
	sf.lock.Lock()
	sf.trie = trie
	sf.lock.Unlock()

	for {
		select {
		case <-sf.wake:
			sf.lock.Lock()
			tasks := sf.tasks
			sf.tasks = nil
			sf.lock.Unlock()

			for i, task := range tasks {
				select {
				case <-sf.stop:
					// Interrupted, requeue nothing and account the drops.
					sf.lock.Lock()
					sf.skips += len(tasks) - i
					sf.lock.Unlock()
					return
				default:
				}
				sf.lock.Lock()
				if len(task) == common.AddressLength {
					_, err = sf.trie.GetAccount(common.BytesToAddress(task))
				} else {
					_, err = sf.trie.GetStorage(sf.addr, task)
				}
				sf.lock.Unlock()
				if err != nil {
					sf.log.Error("prefetcher failed fetching",
						zap.Stringer("root", sf.root),
						zap.Error(err),
					)
				}
			}

		case <-sf.stop:
			sf.lock.Lock()
			sf.skips += len(sf.tasks)
			sf.tasks = nil
			sf.lock.Unlock()
			return
		}
	}
}
