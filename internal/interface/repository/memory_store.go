package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"roster-service/internal/domain/entity"
	"roster-service/internal/domain/repository"

	"github.com/google/uuid"
)

// MemoryStore implements repository.Store in process memory. Transactions hold the store lock for
// their whole duration and roll back by restoring a snapshot; nested transactions snapshot again.
type MemoryStore struct {
	mu   *sync.Mutex
	data *memoryData
	inTx bool
}

type memoryData struct {
	seq         uint
	departments map[uint]entity.Department
	doctors     map[uint]entity.Doctor
	sources     map[uint]entity.DataSource
	logs        map[uint]entity.FetchLog
	lists       map[uint]entity.ShiftList
	shifts      map[uint]entity.Shift
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		mu: &sync.Mutex{},
		data: &memoryData{
			departments: map[uint]entity.Department{},
			doctors:     map[uint]entity.Doctor{},
			sources:     map[uint]entity.DataSource{},
			logs:        map[uint]entity.FetchLog{},
			lists:       map[uint]entity.ShiftList{},
			shifts:      map[uint]entity.Shift{},
		},
	}
}

func (d *memoryData) clone() *memoryData {
	return &memoryData{
		seq:         d.seq,
		departments: copyMap(d.departments),
		doctors:     copyMap(d.doctors),
		sources:     copyMap(d.sources),
		logs:        copyMap(d.logs),
		lists:       copyMap(d.lists),
		shifts:      copyMap(d.shifts),
	}
}

func copyMap[V any](m map[uint]V) map[uint]V {
	out := make(map[uint]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (d *memoryData) nextID() uint {
	d.seq++
	return d.seq
}

func (s *MemoryStore) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *MemoryStore) Departments() repository.DepartmentRepository { return &memDepartments{s} }
func (s *MemoryStore) Doctors() repository.DoctorRepository         { return &memDoctors{s} }
func (s *MemoryStore) DataSources() repository.DataSourceRepository { return &memSources{s} }
func (s *MemoryStore) FetchLogs() repository.FetchLogRepository     { return &memFetchLogs{s} }
func (s *MemoryStore) ShiftLists() repository.ShiftListRepository   { return &memShiftLists{s} }
func (s *MemoryStore) Shifts() repository.ShiftRepository           { return &memShifts{s} }

// Transaction runs fn against a transactional view of the store
func (s *MemoryStore) Transaction(ctx context.Context, fn func(tx repository.Store) error) (err error) {
	unlock := s.lock()
	defer unlock()

	snapshot := s.data.clone()
	defer func() {
		if r := recover(); r != nil {
			*s.data = *snapshot
			panic(r)
		}
		if err != nil {
			*s.data = *snapshot
		}
	}()
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(&MemoryStore{mu: s.mu, data: s.data, inTx: true})
}

func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

func sameDept(a, b *uint) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// departments

type memDepartments struct{ s *MemoryStore }

func (r *memDepartments) codeTaken(code string, except uint) bool {
	if code == "" {
		return false
	}
	for id, d := range r.s.data.departments {
		if id != except && d.Code == code {
			return true
		}
	}
	return false
}

func (r *memDepartments) Create(ctx context.Context, department *entity.Department) error {
	defer r.s.lock()()
	if r.codeTaken(department.Code, 0) {
		return repository.ErrDuplicate
	}
	now := time.Now()
	department.ID = r.s.data.nextID()
	department.CreatedAt, department.UpdatedAt = now, now
	r.s.data.departments[department.ID] = *department
	return nil
}

func (r *memDepartments) Update(ctx context.Context, department *entity.Department) error {
	defer r.s.lock()()
	if _, ok := r.s.data.departments[department.ID]; !ok {
		return repository.ErrNotFound
	}
	if r.codeTaken(department.Code, department.ID) {
		return repository.ErrDuplicate
	}
	department.UpdatedAt = time.Now()
	r.s.data.departments[department.ID] = *department
	return nil
}

func (r *memDepartments) Delete(ctx context.Context, id uint) error {
	defer r.s.lock()()
	data := r.s.data
	if _, ok := data.departments[id]; !ok {
		return repository.ErrNotFound
	}
	for k, d := range data.doctors {
		if d.DepartmentID != nil && *d.DepartmentID == id {
			d.DepartmentID = nil
			data.doctors[k] = d
		}
	}
	for k, l := range data.lists {
		if l.DepartmentID != nil && *l.DepartmentID == id {
			l.DepartmentID = nil
			data.lists[k] = l
		}
	}
	for k, src := range data.sources {
		if src.DepartmentID != nil && *src.DepartmentID == id {
			src.DepartmentID = nil
			data.sources[k] = src
		}
	}
	delete(data.departments, id)
	return nil
}

func (r *memDepartments) GetByID(ctx context.Context, id uint) (*entity.Department, error) {
	defer r.s.lock()()
	d, ok := r.s.data.departments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &d, nil
}

func (r *memDepartments) GetByCode(ctx context.Context, code string) (*entity.Department, error) {
	defer r.s.lock()()
	for _, d := range r.s.data.departments {
		if d.Code == code {
			d := d
			return &d, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memDepartments) List(ctx context.Context) ([]*entity.Department, error) {
	defer r.s.lock()()
	out := make([]*entity.Department, 0, len(r.s.data.departments))
	for _, d := range r.s.data.departments {
		d := d
		out = append(out, &d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// doctors

type memDoctors struct{ s *MemoryStore }

func (r *memDoctors) identityTaken(d *entity.Doctor) bool {
	for id, other := range r.s.data.doctors {
		if id != d.ID && other.GivenName == d.GivenName && other.FamilyName == d.FamilyName && sameDept(other.DepartmentID, d.DepartmentID) {
			return true
		}
	}
	return false
}

func (r *memDoctors) Create(ctx context.Context, doctor *entity.Doctor) error {
	defer r.s.lock()()
	doctor.ID = 0
	if r.identityTaken(doctor) {
		return repository.ErrDuplicate
	}
	now := time.Now()
	doctor.ID = r.s.data.nextID()
	doctor.CreatedAt, doctor.UpdatedAt = now, now
	r.s.data.doctors[doctor.ID] = *doctor
	return nil
}

func (r *memDoctors) Update(ctx context.Context, doctor *entity.Doctor) error {
	defer r.s.lock()()
	if _, ok := r.s.data.doctors[doctor.ID]; !ok {
		return repository.ErrNotFound
	}
	if r.identityTaken(doctor) {
		return repository.ErrDuplicate
	}
	doctor.UpdatedAt = time.Now()
	r.s.data.doctors[doctor.ID] = *doctor
	return nil
}

func (r *memDoctors) Delete(ctx context.Context, id uint) error {
	defer r.s.lock()()
	if _, ok := r.s.data.doctors[id]; !ok {
		return repository.ErrNotFound
	}
	for k, sh := range r.s.data.shifts {
		if sh.DoctorID == id {
			delete(r.s.data.shifts, k)
		}
	}
	delete(r.s.data.doctors, id)
	return nil
}

func (r *memDoctors) GetByID(ctx context.Context, id uint) (*entity.Doctor, error) {
	defer r.s.lock()()
	d, ok := r.s.data.doctors[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &d, nil
}

func (r *memDoctors) FindByName(ctx context.Context, givenName, familyName string, departmentID *uint) (*entity.Doctor, error) {
	defer r.s.lock()()
	var found *entity.Doctor
	for _, d := range r.s.data.doctors {
		if d.GivenName == givenName && d.FamilyName == familyName && sameDept(d.DepartmentID, departmentID) {
			if found == nil || d.ID < found.ID {
				d := d
				found = &d
			}
		}
	}
	if found == nil {
		return nil, repository.ErrNotFound
	}
	return found, nil
}

func (r *memDoctors) List(ctx context.Context, filter repository.DoctorFilter) ([]*entity.Doctor, error) {
	defer r.s.lock()()
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	var out []*entity.Doctor
	for _, d := range r.s.data.doctors {
		if filter.DepartmentID != nil && !sameDept(d.DepartmentID, filter.DepartmentID) {
			continue
		}
		if filter.ActiveOnly && !d.Active {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(d.GivenName+" "+d.FamilyName+" "+d.Phone+" "+d.Email), search) {
			continue
		}
		d := d
		out = append(out, &d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FamilyName != out[j].FamilyName {
			return out[i].FamilyName < out[j].FamilyName
		}
		return out[i].GivenName < out[j].GivenName
	})
	return out, nil
}

// data sources

type memSources struct{ s *MemoryStore }

func (r *memSources) Create(ctx context.Context, source *entity.DataSource) error {
	defer r.s.lock()()
	now := time.Now()
	source.ID = r.s.data.nextID()
	source.CreatedAt, source.UpdatedAt = now, now
	r.s.data.sources[source.ID] = *source
	return nil
}

func (r *memSources) Update(ctx context.Context, source *entity.DataSource) error {
	defer r.s.lock()()
	if _, ok := r.s.data.sources[source.ID]; !ok {
		return repository.ErrNotFound
	}
	source.UpdatedAt = time.Now()
	r.s.data.sources[source.ID] = *source
	return nil
}

func (r *memSources) Delete(ctx context.Context, id uint) error {
	defer r.s.lock()()
	data := r.s.data
	if _, ok := data.sources[id]; !ok {
		return repository.ErrNotFound
	}
	for k, l := range data.lists {
		if l.SourceID != nil && *l.SourceID == id {
			l.SourceID = nil
			data.lists[k] = l
		}
	}
	for k, l := range data.logs {
		if l.SourceID != nil && *l.SourceID == id {
			delete(data.logs, k)
		}
	}
	delete(data.sources, id)
	return nil
}

func (r *memSources) GetByID(ctx context.Context, id uint) (*entity.DataSource, error) {
	defer r.s.lock()()
	src, ok := r.s.data.sources[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &src, nil
}

func (r *memSources) List(ctx context.Context) ([]*entity.DataSource, error) {
	return r.list(false)
}

func (r *memSources) ListActive(ctx context.Context) ([]*entity.DataSource, error) {
	return r.list(true)
}

func (r *memSources) list(activeOnly bool) ([]*entity.DataSource, error) {
	defer r.s.lock()()
	var out []*entity.DataSource
	for _, src := range r.s.data.sources {
		if activeOnly && !src.Active {
			continue
		}
		src := src
		out = append(out, &src)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memSources) MarkFetched(ctx context.Context, id uint, at time.Time) error {
	defer r.s.lock()()
	src, ok := r.s.data.sources[id]
	if !ok {
		return repository.ErrNotFound
	}
	src.LastFetched = &at
	r.s.data.sources[id] = src
	return nil
}

// fetch logs

type memFetchLogs struct{ s *MemoryStore }

func (r *memFetchLogs) Create(ctx context.Context, log *entity.FetchLog) error {
	defer r.s.lock()()
	log.ID = r.s.data.nextID()
	r.s.data.logs[log.ID] = *log
	return nil
}

func (r *memFetchLogs) Update(ctx context.Context, log *entity.FetchLog) error {
	defer r.s.lock()()
	if _, ok := r.s.data.logs[log.ID]; !ok {
		return repository.ErrNotFound
	}
	r.s.data.logs[log.ID] = *log
	return nil
}

func (r *memFetchLogs) GetByID(ctx context.Context, id uint) (*entity.FetchLog, error) {
	defer r.s.lock()()
	l, ok := r.s.data.logs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &l, nil
}

func (r *memFetchLogs) ListBySource(ctx context.Context, sourceID uint, limit int) ([]*entity.FetchLog, error) {
	defer r.s.lock()()
	var out []*entity.FetchLog
	for _, l := range r.s.data.logs {
		if l.SourceID != nil && *l.SourceID == sourceID {
			l := l
			out = append(out, &l)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].StartedAt.After(out[j].StartedAt)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// shift lists

type memShiftLists struct{ s *MemoryStore }

func (r *memShiftLists) Create(ctx context.Context, list *entity.ShiftList) error {
	defer r.s.lock()()
	if list.UUID == "" {
		list.UUID = uuid.NewString()
	}
	for _, other := range r.s.data.lists {
		if other.UUID == list.UUID {
			return repository.ErrDuplicate
		}
	}
	now := time.Now()
	list.ID = r.s.data.nextID()
	list.CreatedAt, list.UpdatedAt = now, now
	r.s.data.lists[list.ID] = *list
	return nil
}

func (r *memShiftLists) Update(ctx context.Context, list *entity.ShiftList) error {
	defer r.s.lock()()
	if _, ok := r.s.data.lists[list.ID]; !ok {
		return repository.ErrNotFound
	}
	list.UpdatedAt = time.Now()
	r.s.data.lists[list.ID] = *list
	return nil
}

func (r *memShiftLists) Delete(ctx context.Context, id uint) error {
	defer r.s.lock()()
	if _, ok := r.s.data.lists[id]; !ok {
		return repository.ErrNotFound
	}
	for k, sh := range r.s.data.shifts {
		if sh.ShiftListID == id {
			delete(r.s.data.shifts, k)
		}
	}
	delete(r.s.data.lists, id)
	return nil
}

func (r *memShiftLists) GetByID(ctx context.Context, id uint) (*entity.ShiftList, error) {
	defer r.s.lock()()
	l, ok := r.s.data.lists[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &l, nil
}

func (r *memShiftLists) List(ctx context.Context, filter repository.ShiftListFilter) ([]*entity.ShiftList, error) {
	defer r.s.lock()()
	var out []*entity.ShiftList
	for _, l := range r.s.data.lists {
		if filter.DepartmentID != nil && !sameDept(l.DepartmentID, filter.DepartmentID) {
			continue
		}
		if filter.PublishedOnly && !l.IsPublished {
			continue
		}
		l := l
		out = append(out, &l)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.After(out[j].StartDate)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *memShiftLists) RecomputeBounds(ctx context.Context, id uint) error {
	defer r.s.lock()()
	list, ok := r.s.data.lists[id]
	if !ok {
		return repository.ErrNotFound
	}
	var minDate, maxDate time.Time
	found := false
	for _, sh := range r.s.data.shifts {
		if sh.ShiftListID != id {
			continue
		}
		if !found || sh.Date.Before(minDate) {
			minDate = sh.Date
		}
		if !found || sh.Date.After(maxDate) {
			maxDate = sh.Date
		}
		found = true
	}
	if !found {
		return nil
	}
	list.StartDate, list.EndDate = minDate, maxDate
	r.s.data.lists[id] = list
	return nil
}

// shifts

type memShifts struct{ s *MemoryStore }

func (r *memShifts) keyTaken(sh *entity.Shift) bool {
	for id, other := range r.s.data.shifts {
		if id != sh.ID && other.DoctorID == sh.DoctorID && other.Type == sh.Type && dateKey(other.Date) == dateKey(sh.Date) {
			return true
		}
	}
	return false
}

func (r *memShifts) Create(ctx context.Context, shift *entity.Shift) error {
	defer r.s.lock()()
	shift.ID = 0
	if r.keyTaken(shift) {
		return repository.ErrDuplicate
	}
	now := time.Now()
	shift.ID = r.s.data.nextID()
	shift.CreatedAt, shift.UpdatedAt = now, now
	r.s.data.shifts[shift.ID] = *shift
	return nil
}

func (r *memShifts) Update(ctx context.Context, shift *entity.Shift) error {
	defer r.s.lock()()
	if _, ok := r.s.data.shifts[shift.ID]; !ok {
		return repository.ErrNotFound
	}
	if r.keyTaken(shift) {
		return repository.ErrDuplicate
	}
	shift.UpdatedAt = time.Now()
	r.s.data.shifts[shift.ID] = *shift
	return nil
}

func (r *memShifts) Delete(ctx context.Context, id uint) error {
	defer r.s.lock()()
	if _, ok := r.s.data.shifts[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.data.shifts, id)
	return nil
}

func (r *memShifts) GetByID(ctx context.Context, id uint) (*entity.Shift, error) {
	defer r.s.lock()()
	sh, ok := r.s.data.shifts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &sh, nil
}

func (r *memShifts) FindByKey(ctx context.Context, doctorID uint, date time.Time, shiftType entity.ShiftType) (*entity.Shift, error) {
	defer r.s.lock()()
	for _, sh := range r.s.data.shifts {
		if sh.DoctorID == doctorID && sh.Type == shiftType && dateKey(sh.Date) == dateKey(date) {
			sh := sh
			return &sh, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memShifts) ListByDoctorAndDate(ctx context.Context, doctorID uint, date time.Time) ([]*entity.Shift, error) {
	return r.filter(func(sh entity.Shift) bool {
		return sh.DoctorID == doctorID && dateKey(sh.Date) == dateKey(date)
	})
}

func (r *memShifts) ListByDoctor(ctx context.Context, doctorID uint) ([]*entity.Shift, error) {
	return r.filter(func(sh entity.Shift) bool { return sh.DoctorID == doctorID })
}

func (r *memShifts) ListByShiftList(ctx context.Context, shiftListID uint) ([]*entity.Shift, error) {
	return r.filter(func(sh entity.Shift) bool { return sh.ShiftListID == shiftListID })
}

func (r *memShifts) filter(keep func(entity.Shift) bool) ([]*entity.Shift, error) {
	defer r.s.lock()()
	var out []*entity.Shift
	for _, sh := range r.s.data.shifts {
		if keep(sh) {
			sh := sh
			out = append(out, &sh)
		}
	}
	sort.Slice(out, func(i, j int) bool { return shiftLess(out[i], out[j]) })
	return out, nil
}

// shiftLess orders by date, then start time with missing times last, then id
func shiftLess(a, b *entity.Shift) bool {
	if !a.Date.Equal(b.Date) {
		return a.Date.Before(b.Date)
	}
	switch {
	case a.StartTime != nil && b.StartTime != nil && a.StartTime.Minutes() != b.StartTime.Minutes():
		return a.StartTime.Minutes() < b.StartTime.Minutes()
	case a.StartTime != nil && b.StartTime == nil:
		return true
	case a.StartTime == nil && b.StartTime != nil:
		return false
	}
	return a.ID < b.ID
}
