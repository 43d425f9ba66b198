// Package directory keeps the owner -> repository registry and each
// repository's append-only history.
package directory

import (
	"slices"
	"sync"

	"github.com/onexay/travis-notify/internal/appendlog"
)

// Repo is a named build history under an owner.
type Repo[T any] struct {
	Owner string
	Name  string
	Log   *appendlog.Log[T]
}

// Owner groups repositories by name.
type Owner[T any] struct {
	Name     string
	capacity int
	repos    map[string]*Repo[T]
}

// FindCreateRepo returns the named repository, creating an empty one on first use.
// Callers that share the owner across goroutines go through Directory.
func (o *Owner[T]) FindCreateRepo(name string) *Repo[T] {
	if repo, ok := o.repos[name]; ok {
		return repo
	}
	repo := &Repo[T]{Owner: o.Name, Name: name, Log: appendlog.New[T](o.capacity)}
	o.repos[name] = repo
	return repo
}

// Repos lists repository names in sorted order.
func (o *Owner[T]) Repos() []string {
	names := make([]string, 0, len(o.repos))
	for name := range o.repos {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Directory maps owner names to owners. All methods are safe for concurrent use.
type Directory[T any] struct {
	mu       sync.RWMutex
	capacity int
	owners   map[string]*Owner[T]
}

// New returns an empty directory whose repositories keep capacity recent items.
func New[T any](capacity int) *Directory[T] {
	return &Directory[T]{capacity: capacity, owners: make(map[string]*Owner[T])}
}

// FindCreateOwner returns the named owner, creating an empty one on first use.
func (d *Directory[T]) FindCreateOwner(name string) *Owner[T] {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.findCreateOwnerLocked(name)
}

// FindCreateRepo resolves owner then repository, creating either as needed.
func (d *Directory[T]) FindCreateRepo(owner, repo string) *Repo[T] {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.findCreateOwnerLocked(owner).FindCreateRepo(repo)
}

func (d *Directory[T]) findCreateOwnerLocked(name string) *Owner[T] {
	if owner, ok := d.owners[name]; ok {
		return owner
	}
	owner := &Owner[T]{Name: name, capacity: d.capacity, repos: make(map[string]*Repo[T])}
	d.owners[name] = owner
	return owner
}

// Record finds or creates owner/repo and appends item to its log in one
// critical section. It returns the recent and archive sizes after the push.
func (d *Directory[T]) Record(owner, repo string, item T) (recent, archived int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	r := d.findCreateOwnerLocked(owner).FindCreateRepo(repo)
	r.Log.Push(item)
	return r.Log.RecentLen(), r.Log.ArchiveLen()
}

// Owners lists owner names in sorted order.
func (d *Directory[T]) Owners() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, 0, len(d.owners))
	for name := range d.owners {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// RepoNames lists the repositories of owner. ok is false when the owner is unknown.
func (d *Directory[T]) RepoNames(owner string) (names []string, ok bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	o, ok := d.owners[owner]
	if !ok {
		return nil, false
	}
	return o.Repos(), true
}

// View runs fn with read access to owner/repo. ok is false when either is unknown.
func (d *Directory[T]) View(owner, repo string, fn func(*Repo[T])) (ok bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	o, ok := d.owners[owner]
	if !ok {
		return false
	}
	r, ok := o.repos[repo]
	if !ok {
		return false
	}
	fn(r)
	return true
}
