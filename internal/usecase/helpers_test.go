package usecase

import (
	"testing"
	"time"

	"roster-service/internal/domain/entity"
	repoimpl "roster-service/internal/interface/repository"
	"roster-service/pkg/logger"
	"roster-service/pkg/tabular"
)

var testActor = entity.Actor{UserID: "42", IPAddress: "10.0.0.1"}

type fixture struct {
	store *repoimpl.MemoryStore
	audit *repoimpl.MemoryAuditRepository
	log   logger.Logger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return &fixture{
		store: repoimpl.NewMemoryStore(),
		audit: repoimpl.NewMemoryAuditRepository(),
		log:   logger.NewNopLogger(),
	}
}

func (f *fixture) auditor() *Auditor {
	return NewAuditor(f.audit, f.log)
}

func (f *fixture) actions() []string {
	var out []string
	for _, e := range f.audit.All() {
		out = append(out, e.Action+":"+e.ModelName)
	}
	return out
}

func date(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func clock(h, m int) *entity.ClockTime {
	return &entity.ClockTime{Hour: h, Minute: m}
}

// table builds a mapped table; each row lists values in header order, "" meaning empty
func table(headers []string, rows ...[]string) *tabular.Table {
	t := &tabular.Table{Headers: headers}
	for i, values := range rows {
		cells := map[string]tabular.Cell{}
		for j, h := range headers {
			if j < len(values) {
				cells[h] = tabular.Text(values[j])
			}
		}
		t.Rows = append(t.Rows, tabular.Row{Number: i + 2, Cells: cells})
	}
	return t
}
