package service

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/kasu/retention-backend/internal/model"
	"github.com/kasu/retention-backend/internal/repository"
	"github.com/kasu/retention-backend/internal/risk"
	"github.com/redis/go-redis/v9"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

// ─── Students ───────────────────────────────────────────────────

type memStudents struct {
	mu   sync.Mutex
	seq  int
	rows map[int]*model.Student
	risk map[int]float64
}

func newMemStudents() *memStudents {
	return &memStudents{rows: map[int]*model.Student{}, risk: map[int]float64{}}
}

func (m *memStudents) GetByID(_ context.Context, id int) (*model.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memStudents) GetByUserID(_ context.Context, userID int) (*model.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.rows {
		if s.UserID != nil && *s.UserID == userID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memStudents) Upsert(_ context.Context, s *model.Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, existing := range m.rows {
		if existing.StudentID == s.StudentID {
			s.ID = id
			s.UserID = existing.UserID
			cp := *s
			m.rows[id] = &cp
			return nil
		}
	}
	m.seq++
	s.ID = m.seq
	cp := *s
	m.rows[s.ID] = &cp
	return nil
}

func (m *memStudents) ListAll(_ context.Context) ([]model.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Student, 0, len(m.rows))
	for _, s := range m.rows {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStudents) ListWithRisk(ctx context.Context, minRisk *float64, limit, offset int) ([]model.StudentWithRisk, int, error) {
	all, _ := m.ListAll(ctx)
	var matched []model.StudentWithRisk
	for _, s := range all {
		row := model.StudentWithRisk{Student: s}
		if r, ok := m.risk[s.ID]; ok {
			tier := risk.TierFor(r)
			row.LatestRisk, row.LatestTier = &r, &tier
		}
		if minRisk != nil && (row.LatestRisk == nil || *row.LatestRisk <= *minRisk) {
			continue
		}
		matched = append(matched, row)
	}
	total := len(matched)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

// ─── Predictions ────────────────────────────────────────────────

type memPredictions struct {
	mu   sync.Mutex
	seq  int
	rows []model.Prediction
}

func (m *memPredictions) Create(_ context.Context, p *model.Prediction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	p.ID = m.seq
	m.rows = append(m.rows, *p)
	return nil
}

func (m *memPredictions) LatestForStudent(_ context.Context, studentID int) (*model.Prediction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.rows) - 1; i >= 0; i-- {
		if m.rows[i].StudentID == studentID {
			p := m.rows[i]
			return &p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memPredictions) ListForStudent(_ context.Context, studentID, limit int) ([]model.Prediction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Prediction{}
	for i := len(m.rows) - 1; i >= 0 && len(out) < limit; i-- {
		if m.rows[i].StudentID == studentID {
			out = append(out, m.rows[i])
		}
	}
	return out, nil
}

func (m *memPredictions) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

// ─── Users ──────────────────────────────────────────────────────

type memUsers struct {
	seq      int
	rows     map[string]*model.User
	unlinked map[string]bool
}

func newMemUsers(unlinked ...string) *memUsers {
	m := &memUsers{rows: map[string]*model.User{}, unlinked: map[string]bool{}}
	for _, code := range unlinked {
		m.unlinked[code] = true
	}
	return m
}

func (m *memUsers) GetByID(_ context.Context, id int) (*model.User, error) {
	for _, u := range m.rows {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memUsers) GetByUsername(_ context.Context, username string) (*model.User, error) {
	u, ok := m.rows[username]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

func (m *memUsers) Create(_ context.Context, u *model.User) error {
	if _, ok := m.rows[u.Username]; ok {
		return repository.ErrUsernameTaken
	}
	m.seq++
	u.ID = m.seq
	m.rows[u.Username] = u
	return nil
}

func (m *memUsers) CreateForStudent(ctx context.Context, code string, u *model.User) error {
	open, known := m.unlinked[code]
	switch {
	case !known:
		return repository.ErrNotFound
	case !open:
		return repository.ErrStudentLinked
	}
	if err := m.Create(ctx, u); err != nil {
		return err
	}
	m.unlinked[code] = false
	return nil
}

func (m *memUsers) ListUnlinkedStudentIDs(_ context.Context) ([]string, error) {
	out := []string{}
	for code, open := range m.unlinked {
		if open {
			out = append(out, code)
		}
	}
	sort.Strings(out)
	return out, nil
}

// ─── Interventions ──────────────────────────────────────────────

type memInterventions struct {
	seq  int
	rows map[int]*model.Intervention
}

func newMemInterventions() *memInterventions {
	return &memInterventions{rows: map[int]*model.Intervention{}}
}

func (m *memInterventions) Create(_ context.Context, iv *model.Intervention) error {
	m.seq++
	iv.ID = m.seq
	cp := *iv
	m.rows[iv.ID] = &cp
	return nil
}

func (m *memInterventions) GetByID(_ context.Context, id int) (*model.Intervention, error) {
	iv, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *iv
	return &cp, nil
}

func (m *memInterventions) ListByStudent(_ context.Context, studentID int) ([]model.Intervention, error) {
	out := []model.Intervention{}
	for id := 1; id <= m.seq; id++ {
		if iv, ok := m.rows[id]; ok && iv.StudentID == studentID {
			out = append(out, *iv)
		}
	}
	return out, nil
}

func (m *memInterventions) Update(_ context.Context, iv *model.Intervention) error {
	if _, ok := m.rows[iv.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *iv
	m.rows[iv.ID] = &cp
	return nil
}

// ─── Capabilities ───────────────────────────────────────────────

type fixedProba struct{ p float64 }

func (f fixedProba) ModelVersion() string { return "fixed-test" }

func (f fixedProba) PredictProba(context.Context, []float64) ([]float64, error) {
	return []float64{1 - f.p, f.p}, nil
}

type staticSource struct{ capability risk.Capability }

func (s staticSource) Current() risk.Capability { return s.capability }
