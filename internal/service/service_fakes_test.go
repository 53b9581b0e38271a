package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/firm-service/internal/domain"
	"github.com/spec-kit/firm-service/internal/events"
	"github.com/spec-kit/firm-service/internal/observability"
	"github.com/spec-kit/firm-service/internal/queue"
	"github.com/spec-kit/firm-service/internal/repository"
	"github.com/spec-kit/firm-service/internal/uow"
)

// memStore is the backing state shared by the in-memory repositories. A
// transaction takes exclusive ownership of the store between Begin and
// Commit/Rollback and restores a snapshot when rolled back, so service tests
// observe real transactional semantics without a database.
type memStore struct {
	txMu sync.Mutex

	cfgMu   sync.Mutex
	configs map[string]*domain.GuildConfig

	staff    map[string]*domain.StaffMember
	cases    map[string]*domain.Case
	counters map[string]int
	audit    []domain.AuditEntry

	createStaffErr error
	updateCaseErr  error
	createAuditErr error
}

func newMemStore() *memStore {
	return &memStore{
		configs:  make(map[string]*domain.GuildConfig),
		staff:    make(map[string]*domain.StaffMember),
		cases:    make(map[string]*domain.Case),
		counters: make(map[string]int),
	}
}

type storeSnapshot struct {
	staff    map[string]*domain.StaffMember
	cases    map[string]*domain.Case
	counters map[string]int
	audit    []domain.AuditEntry
}

// snapshot shallow-copies the maps; the repositories only ever store clones,
// so entries are never mutated in place.
func (s *memStore) snapshot() storeSnapshot {
	snap := storeSnapshot{
		staff:    make(map[string]*domain.StaffMember, len(s.staff)),
		cases:    make(map[string]*domain.Case, len(s.cases)),
		counters: make(map[string]int, len(s.counters)),
		audit:    append([]domain.AuditEntry{}, s.audit...),
	}
	for k, v := range s.staff {
		snap.staff[k] = v
	}
	for k, v := range s.cases {
		snap.cases[k] = v
	}
	for k, v := range s.counters {
		snap.counters[k] = v
	}
	return snap
}

func (s *memStore) restore(snap storeSnapshot) {
	s.staff = snap.staff
	s.cases = snap.cases
	s.counters = snap.counters
	s.audit = snap.audit
}

func (s *memStore) putConfig(cfg *domain.GuildConfig) {
	s.cfgMu.Lock()
	defer s.cfgMu.Unlock()
	s.configs[cfg.GuildID] = cfg
}

func (s *memStore) auditByAction(action string) []domain.AuditEntry {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	var out []domain.AuditEntry
	for _, e := range s.audit {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out
}

func (s *memStore) staffByUser(guildID, userID string) *domain.StaffMember {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	for _, m := range s.staff {
		if m.GuildID == guildID && m.UserID == userID && m.Status == domain.StaffStatusActive {
			return cloneStaff(m)
		}
	}
	return nil
}

func (s *memStore) staffRecords(guildID, userID string) []*domain.StaffMember {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	var out []*domain.StaffMember
	for _, m := range s.staff {
		if m.GuildID == guildID && m.UserID == userID {
			out = append(out, cloneStaff(m))
		}
	}
	return out
}

func (s *memStore) caseByID(id string) *domain.Case {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	if c, ok := s.cases[id]; ok {
		return cloneCase(c)
	}
	return nil
}

// memConfigRepo reads guild configs outside any transaction, the way the
// services use the pool-backed repository.
type memConfigRepo struct {
	store *memStore
}

func (r *memConfigRepo) Upsert(_ context.Context, cfg *domain.GuildConfig) error {
	r.store.putConfig(cfg)
	return nil
}

func (r *memConfigRepo) GetByGuild(_ context.Context, guildID string) (*domain.GuildConfig, error) {
	r.store.cfgMu.Lock()
	defer r.store.cfgMu.Unlock()
	cfg, ok := r.store.configs[guildID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return cfg, nil
}

// memFactory begins exclusive in-memory transactions.
type memFactory struct {
	store *memStore
}

func (f *memFactory) Begin(context.Context) (uow.UnitOfWork, error) {
	f.store.txMu.Lock()
	return &memUnitOfWork{
		id:    uuid.NewString(),
		store: f.store,
		snap:  f.store.snapshot(),
	}, nil
}

type memUnitOfWork struct {
	id       string
	store    *memStore
	snap     storeSnapshot
	finished bool
}

func (u *memUnitOfWork) ID() string { return u.id }

func (u *memUnitOfWork) Staff() repository.StaffRepository {
	return &memStaffRepo{store: u.store}
}

func (u *memUnitOfWork) Cases() repository.CaseRepository {
	return &memCaseRepo{store: u.store}
}

func (u *memUnitOfWork) Counters() repository.CaseCounterRepository {
	return &memCounterRepo{store: u.store}
}

func (u *memUnitOfWork) Audit() repository.AuditLogRepository {
	return &memAuditRepo{store: u.store}
}

func (u *memUnitOfWork) GuildConfigs() repository.GuildConfigRepository {
	return &memConfigRepo{store: u.store}
}

func (u *memUnitOfWork) Commit(context.Context) error {
	if u.finished {
		return fmt.Errorf("transaction already finished")
	}
	u.finished = true
	u.store.txMu.Unlock()
	return nil
}

func (u *memUnitOfWork) Rollback(context.Context) error {
	if u.finished {
		return nil
	}
	u.finished = true
	u.store.restore(u.snap)
	u.store.txMu.Unlock()
	return nil
}

type memStaffRepo struct {
	store *memStore
}

func (r *memStaffRepo) Create(_ context.Context, staff *domain.StaffMember) error {
	if r.store.createStaffErr != nil {
		return r.store.createStaffErr
	}
	staff.ID = uuid.NewString()
	staff.UpdatedAt = time.Now()
	r.store.staff[staff.ID] = cloneStaff(staff)
	return nil
}

func (r *memStaffRepo) Update(_ context.Context, staff *domain.StaffMember) error {
	if _, ok := r.store.staff[staff.ID]; !ok {
		return pgx.ErrNoRows
	}
	staff.UpdatedAt = time.Now()
	r.store.staff[staff.ID] = cloneStaff(staff)
	return nil
}

func (r *memStaffRepo) GetByID(_ context.Context, id string) (*domain.StaffMember, error) {
	m, ok := r.store.staff[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return cloneStaff(m), nil
}

func (r *memStaffRepo) FindActiveByUser(_ context.Context, guildID, userID string) (*domain.StaffMember, error) {
	for _, m := range r.store.staff {
		if m.GuildID == guildID && m.UserID == userID && m.Status == domain.StaffStatusActive {
			return cloneStaff(m), nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memStaffRepo) FindActiveByRobloxUsername(_ context.Context, guildID, username string) (*domain.StaffMember, error) {
	for _, m := range r.store.staff {
		if m.GuildID == guildID && strings.EqualFold(m.RobloxUsername, username) && m.Status == domain.StaffStatusActive {
			return cloneStaff(m), nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memStaffRepo) CountActiveByRole(_ context.Context, guildID string, role domain.StaffRole) (int, error) {
	count := 0
	for _, m := range r.store.staff {
		if m.GuildID == guildID && m.Role == role && m.Status == domain.StaffStatusActive {
			count++
		}
	}
	return count, nil
}

func (r *memStaffRepo) List(_ context.Context, filter repository.StaffFilter) ([]domain.StaffMember, error) {
	var out []domain.StaffMember
	for _, m := range r.store.staff {
		if m.GuildID != filter.GuildID {
			continue
		}
		if filter.Role != nil && m.Role != *filter.Role {
			continue
		}
		if filter.Status != nil && m.Status != *filter.Status {
			continue
		}
		out = append(out, *cloneStaff(m))
	}
	return out, nil
}

type memCaseRepo struct {
	store *memStore
}

func (r *memCaseRepo) Create(_ context.Context, c *domain.Case) error {
	c.ID = uuid.NewString()
	c.OpenedAt = time.Now()
	c.UpdatedAt = c.OpenedAt
	r.store.cases[c.ID] = cloneCase(c)
	return nil
}

func (r *memCaseRepo) Update(_ context.Context, c *domain.Case) error {
	if r.store.updateCaseErr != nil {
		return r.store.updateCaseErr
	}
	if _, ok := r.store.cases[c.ID]; !ok {
		return pgx.ErrNoRows
	}
	c.UpdatedAt = time.Now()
	r.store.cases[c.ID] = cloneCase(c)
	return nil
}

func (r *memCaseRepo) GetByID(_ context.Context, id string) (*domain.Case, error) {
	c, ok := r.store.cases[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return cloneCase(c), nil
}

func (r *memCaseRepo) GetByCaseNumber(_ context.Context, guildID, caseNumber string) (*domain.Case, error) {
	for _, c := range r.store.cases {
		if c.GuildID == guildID && c.CaseNumber == caseNumber {
			return cloneCase(c), nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memCaseRepo) FindByClient(_ context.Context, guildID, clientID string) ([]domain.Case, error) {
	var out []domain.Case
	for _, c := range r.store.cases {
		if c.GuildID == guildID && c.ClientID == clientID {
			out = append(out, *cloneCase(c))
		}
	}
	return out, nil
}

func (r *memCaseRepo) FindByLawyer(_ context.Context, guildID, lawyerID string) ([]domain.Case, error) {
	var out []domain.Case
	for _, c := range r.store.cases {
		if c.GuildID == guildID && c.IsAssigned(lawyerID) {
			out = append(out, *cloneCase(c))
		}
	}
	return out, nil
}

func (r *memCaseRepo) ListWithFilter(_ context.Context, filter repository.CaseFilter) ([]domain.Case, error) {
	var out []domain.Case
	for _, c := range r.store.cases {
		if c.GuildID == filter.GuildID {
			out = append(out, *cloneCase(c))
		}
	}
	return out, nil
}

type memCounterRepo struct {
	store *memStore
}

func (r *memCounterRepo) IncrementAndGet(_ context.Context, guildID string, year int) (int, error) {
	key := fmt.Sprintf("%s:%d", guildID, year)
	r.store.counters[key]++
	return r.store.counters[key], nil
}

func (r *memCounterRepo) Current(_ context.Context, guildID string, year int) (*domain.CaseCounter, error) {
	key := fmt.Sprintf("%s:%d", guildID, year)
	count, ok := r.store.counters[key]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &domain.CaseCounter{GuildID: guildID, Year: year, Count: count}, nil
}

type memAuditRepo struct {
	store *memStore
}

func (r *memAuditRepo) Create(_ context.Context, entry *domain.AuditEntry) error {
	if r.store.createAuditErr != nil {
		return r.store.createAuditErr
	}
	entry.ID = uuid.NewString()
	entry.CreatedAt = time.Now()
	r.store.audit = append(r.store.audit, *entry)
	return nil
}

func (r *memAuditRepo) FindByFilters(_ context.Context, filter repository.AuditFilter) ([]domain.AuditEntry, error) {
	var out []domain.AuditEntry
	for _, e := range r.store.audit {
		if e.GuildID != filter.GuildID {
			continue
		}
		if filter.Action != nil && e.Action != *filter.Action {
			continue
		}
		if filter.TargetID != nil && e.TargetID != *filter.TargetID {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func cloneStaff(m *domain.StaffMember) *domain.StaffMember {
	cp := *m
	cp.PromotionHistory = append([]domain.PromotionRecord{}, m.PromotionHistory...)
	return &cp
}

func cloneCase(c *domain.Case) *domain.Case {
	cp := *c
	cp.AssignedLawyerIDs = append([]string{}, c.AssignedLawyerIDs...)
	cp.Documents = append([]domain.CaseDocument{}, c.Documents...)
	cp.Notes = append([]domain.CaseNote{}, c.Notes...)
	if c.LeadAttorneyID != nil {
		v := *c.LeadAttorneyID
		cp.LeadAttorneyID = &v
	}
	if c.ChannelID != nil {
		v := *c.ChannelID
		cp.ChannelID = &v
	}
	if c.Result != nil {
		v := *c.Result
		cp.Result = &v
	}
	return &cp
}

// stubAdapter records platform calls and can fail on demand.
type stubAdapter struct {
	mu             sync.Mutex
	granted        []string
	revoked        []string
	archived       []string
	notified       []string
	channelsOpened int

	grantErr   error
	channelErr error
}

func (a *stubAdapter) CreateCaseChannel(_ context.Context, _, caseNumber string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.channelErr != nil {
		return "", a.channelErr
	}
	a.channelsOpened++
	return "channel-" + caseNumber, nil
}

func (a *stubAdapter) ArchiveChannel(_ context.Context, _, channelID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.archived = append(a.archived, channelID)
	return nil
}

func (a *stubAdapter) GrantRole(_ context.Context, _, userID, roleName string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.grantErr != nil {
		return a.grantErr
	}
	a.granted = append(a.granted, userID+":"+roleName)
	return nil
}

func (a *stubAdapter) RevokeRole(_ context.Context, _, userID, roleName string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.revoked = append(a.revoked, userID+":"+roleName)
	return nil
}

func (a *stubAdapter) Notify(_ context.Context, _, userID, message string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.notified = append(a.notified, userID+": "+message)
	return nil
}

func (a *stubAdapter) revokedCalls() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string{}, a.revoked...)
}

func (a *stubAdapter) archivedCalls() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string{}, a.archived...)
}

// recordingDispatcher collects published events.
type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) byType(t events.EventType) []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []events.Event
	for _, e := range d.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// testEnv bundles a fully wired service pair over one in-memory store.
type testEnv struct {
	store      *memStore
	adapter    *stubAdapter
	dispatcher *recordingDispatcher
	rollback   *uow.RollbackService
	queue      *queue.Queue
	staff      *StaffService
	cases      *CaseService
}

func newTestEnv() *testEnv {
	store := newMemStore()
	adapter := &stubAdapter{}
	dispatcher := &recordingDispatcher{}
	logger := zap.NewNop()
	rollback := uow.NewRollbackService(logger)
	q := queue.New(logger)
	factory := &memFactory{store: store}
	metrics := observability.NewMetrics()
	configRepo := &memConfigRepo{store: store}

	staff := NewStaffService(StaffDependencies{
		Queue:           q,
		UnitOfWork:      factory,
		Rollback:        rollback,
		GuildConfigRepo: configRepo,
		Platform:        adapter,
		Dispatcher:      dispatcher,
		Metrics:         metrics,
		Logger:          logger,
	})
	cases := NewCaseService(CaseDependencies{
		Queue:           q,
		UnitOfWork:      factory,
		Rollback:        rollback,
		GuildConfigRepo: configRepo,
		Platform:        adapter,
		Dispatcher:      dispatcher,
		Metrics:         metrics,
		Logger:          logger,
	})

	return &testEnv{
		store:      store,
		adapter:    adapter,
		dispatcher: dispatcher,
		rollback:   rollback,
		queue:      q,
		staff:      staff,
		cases:      cases,
	}
}

func ownerActor(guildID string) domain.ActorContext {
	return domain.ActorContext{
		GuildID:      guildID,
		UserID:       "owner-1",
		RoleIDs:      []string{},
		IsGuildOwner: true,
	}
}

func memberActor(guildID, userID string, roleIDs ...string) domain.ActorContext {
	if roleIDs == nil {
		roleIDs = []string{}
	}
	return domain.ActorContext{
		GuildID: guildID,
		UserID:  userID,
		RoleIDs: roleIDs,
	}
}
