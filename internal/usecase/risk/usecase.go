package risk

import (
	"context"
	"time"

	"loan-workflow-engine/internal/domain/loan"
	"loan-workflow-engine/internal/domain/repayment"
	domain "loan-workflow-engine/internal/domain/risk"
	"loan-workflow-engine/internal/infrastructure/metrics"

	"github.com/labstack/gommon/log"
)

// Cache holds report snapshots. A miss is (false, nil).
type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttl time.Duration) error
}

type Report struct {
	Period      string                   `json:"period"`
	AsOf        string                   `json:"as_of"`
	GeneratedAt time.Time                `json:"generated_at"`
	Members     int                      `json:"members"`
	Entries     []domain.MemberRiskEntry `json:"entries"`
	Cached      bool                     `json:"cached"`
}

type Usecase struct {
	loans      loan.Repository
	repayments repayment.Repository
	cache      Cache
	ttl        time.Duration
	now        func() time.Time
}

// NewUsecase: cache may be nil, in which case every report is computed.
func NewUsecase(loans loan.Repository, repayments repayment.Repository, cache Cache, ttl time.Duration) *Usecase {
	return &Usecase{loans: loans, repayments: repayments, cache: cache, ttl: ttl, now: time.Now}
}

func (u *Usecase) WithClock(now func() time.Time) *Usecase {
	u.now = now
	return u
}

// Report ranks members with active loans for period. Snapshots are cached
// per period and day, so a cached report can lag the ledger by up to ttl.
func (u *Usecase) Report(ctx context.Context, period domain.Period, top int) (*Report, error) {
	now := u.now().UTC()
	asOf := now.Format("2006-01-02")
	key := period.String() + ":" + asOf

	if u.cache != nil {
		var cached Report
		hit, err := u.cache.Get(ctx, key, &cached)
		switch {
		case err != nil:
			metrics.RiskReportCache.WithLabelValues("error").Inc()
			log.Warnf("risk report cache read %s: %v", key, err)
		case hit:
			metrics.RiskReportCache.WithLabelValues("hit").Inc()
			cached.Cached = true
			cached.Entries = domain.TopN(cached.Entries, top)
			return &cached, nil
		default:
			metrics.RiskReportCache.WithLabelValues("miss").Inc()
		}
	}

	data, ledger, err := u.load(ctx, period)
	if err != nil {
		log.Errorf("risk report %s: %v", period, err)
		return nil, err
	}
	rep := Report{
		Period:      period.String(),
		AsOf:        asOf,
		GeneratedAt: now,
		Entries:     domain.Score(data, ledger, period, now),
	}
	rep.Members = len(rep.Entries)

	if u.cache != nil {
		if err := u.cache.Set(ctx, key, rep, u.ttl); err != nil {
			log.Warnf("risk report cache write %s: %v", key, err)
		}
	}
	rep.Entries = domain.TopN(rep.Entries, top)
	return &rep, nil
}

// load reads active loans with their schedules and ledgers, plus every
// record dated in period so payments on loans since settled still count.
// Nothing here takes a lock.
func (u *Usecase) load(ctx context.Context, period domain.Period) ([]domain.LoanData, []repayment.Record, error) {
	loans, err := u.loans.ListByStates(ctx, loan.StateActive)
	if err != nil {
		return nil, nil, err
	}
	if len(loans) == 0 {
		return nil, nil, nil
	}
	ids := make([]uint64, len(loans))
	for i, l := range loans {
		ids[i] = l.ID
	}
	items, err := u.loans.ListInstallmentsByLoanIDs(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	records, err := u.repayments.ListByLoanIDs(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	ledger, err := u.repayments.ListByDateRange(ctx, period.From, period.To)
	if err != nil {
		return nil, nil, err
	}

	itemsBy := map[uint64][]loan.Installment{}
	for _, it := range items {
		itemsBy[it.LoanID] = append(itemsBy[it.LoanID], it)
	}
	recordsBy := map[uint64][]repayment.Record{}
	for _, r := range records {
		recordsBy[r.LoanID] = append(recordsBy[r.LoanID], r)
	}

	out := make([]domain.LoanData, 0, len(loans))
	for _, l := range loans {
		out = append(out, domain.LoanData{
			LoanID:       l.LoanID,
			MemberID:     l.MemberID,
			Installments: itemsBy[l.ID],
			Repayments:   recordsBy[l.ID],
		})
	}
	return out, ledger, nil
}
