package inventory_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	domain "github.com/mohammadpnp/parts-import/internal/domain/inventory"
)

const testHeader = "interne Artikelnummer;Titel;Marke und Teilenummer;Preis;Zustand;Kategorie;Auf Lager"

func csvFile(rows ...string) string {
	return testHeader + "\n" + strings.Join(rows, "\n") + "\n"
}

type memoryStore struct {
	mu sync.Mutex

	items       map[string]domain.InventoryRecord
	insertErr   map[string]error
	updateErr   map[string]error
	lookupErr   error
	lookupFails int
	panicInsert bool
	afterInsert func(inserted int)

	lookups int
	inserts int
	updates int
	txCalls int
}

func newMemoryStore(existing ...domain.InventoryRecord) *memoryStore {
	s := &memoryStore{
		items:     make(map[string]domain.InventoryRecord),
		insertErr: make(map[string]error),
		updateErr: make(map[string]error),
	}
	for _, record := range existing {
		s.items[record.InternalArticleNumber] = record
	}
	return s
}

func (s *memoryStore) ExistingKeys(ctx context.Context, articleNumbers []string) (map[string]bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lookups++
	if s.lookupErr != nil && (s.lookupFails == 0 || s.lookups <= s.lookupFails) {
		return nil, s.lookupErr
	}

	out := make(map[string]bool)
	for _, key := range articleNumbers {
		if _, ok := s.items[key]; ok {
			out[key] = true
		}
	}
	return out, nil
}

func (s *memoryStore) Insert(ctx context.Context, record domain.InventoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.panicInsert {
		panic("driver exploded")
	}
	if err := s.insertErr[record.InternalArticleNumber]; err != nil {
		return err
	}
	if _, ok := s.items[record.InternalArticleNumber]; ok {
		return fmt.Errorf("duplicate key %s", record.InternalArticleNumber)
	}
	s.items[record.InternalArticleNumber] = record
	s.inserts++
	if s.afterInsert != nil {
		s.afterInsert(s.inserts)
	}
	return nil
}

func (s *memoryStore) Update(ctx context.Context, record domain.InventoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.updateErr[record.InternalArticleNumber]; err != nil {
		return err
	}
	s.items[record.InternalArticleNumber] = record
	s.updates++
	return nil
}

func (s *memoryStore) WithinTx(ctx context.Context, fn func(tx domain.InventoryStore) error) error {
	s.mu.Lock()
	s.txCalls++
	backup := make(map[string]domain.InventoryRecord, len(s.items))
	for k, v := range s.items {
		backup[k] = v
	}
	inserts, updates := s.inserts, s.updates
	s.mu.Unlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.items = backup
		s.inserts, s.updates = inserts, updates
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *memoryStore) get(key string) (domain.InventoryRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.items[key]
	return record, ok
}

func (s *memoryStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

type memoryFiles struct {
	mu      sync.Mutex
	files   map[string]string
	saveErr error
	openErr error
	deleted []string
	opens   int
}

func newMemoryFiles() *memoryFiles {
	return &memoryFiles{files: make(map[string]string)}
}

func (f *memoryFiles) put(path, content string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[path] = content
}

func (f *memoryFiles) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.opens++
	if f.openErr != nil {
		return nil, f.openErr
	}
	content, ok := f.files[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrSourceNotFound, path)
	}
	return io.NopCloser(strings.NewReader(content)), nil
}

func (f *memoryFiles) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	if f.saveErr != nil {
		return "", f.saveErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	path := "uploads/" + name
	f.put(path, string(data))
	return path, nil
}

func (f *memoryFiles) Delete(ctx context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.deleted = append(f.deleted, path)
	if _, ok := f.files[path]; !ok {
		return domain.ErrSourceNotFound
	}
	delete(f.files, path)
	return nil
}

func (f *memoryFiles) exists(path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.files[path]
	return ok
}

type memoryStatuses struct {
	mu        sync.Mutex
	snapshots map[string]domain.JobSnapshot
	history   []domain.JobStatus
	ttl       time.Duration
	saveErr   error
}

func newMemoryStatuses() *memoryStatuses {
	return &memoryStatuses{snapshots: make(map[string]domain.JobSnapshot)}
}

func (s *memoryStatuses) Save(ctx context.Context, snapshot domain.JobSnapshot, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.saveErr != nil {
		return s.saveErr
	}
	s.snapshots[snapshot.JobID] = snapshot
	s.history = append(s.history, snapshot.Status)
	s.ttl = ttl
	return nil
}

func (s *memoryStatuses) Get(ctx context.Context, jobID string) (domain.JobSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot, ok := s.snapshots[jobID]
	if !ok {
		return domain.JobSnapshot{}, domain.ErrJobNotFound
	}
	return snapshot, nil
}

type recordingNotifier struct {
	mu        sync.Mutex
	successes []domain.SuccessNotification
	failures  []domain.FailureNotification
	to        []string
	err       error
}

func (n *recordingNotifier) NotifySuccess(ctx context.Context, to string, payload domain.SuccessNotification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.successes = append(n.successes, payload)
	n.to = append(n.to, to)
	return n.err
}

func (n *recordingNotifier) NotifyFailure(ctx context.Context, to string, payload domain.FailureNotification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failures = append(n.failures, payload)
	n.to = append(n.to, to)
	return n.err
}

var errBoom = errors.New("boom")
