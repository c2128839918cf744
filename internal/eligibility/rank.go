package eligibility

import (
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
)

// Match is an eligible scholarship together with the reasons it matched.
type Match struct {
	Scholarship Summary  `json:"scholarship"`
	Reasons     []string `json:"match_reasons"`
	Explanation string   `json:"explanation,omitempty"`
}

// Ranking is the ordered set of eligible matches for one student.
type Ranking struct {
	Matches           []Match
	TotalPotentialAid float64
	// Rejected maps scholarship id to the name of the check that rejected it.
	Rejected map[string]string
}

// Len returns the number of matches.
func (r *Ranking) Len() int { return len(r.Matches) }

// Top returns the best match or nil when nothing matched.
func (r *Ranking) Top() *Match {
	if len(r.Matches) == 0 {
		return nil
	}
	return &r.Matches[0]
}

// Rank evaluates st against every scholarship and keeps the eligible ones,
// sorted by amount descending. Ties keep their input order.
// Evaluations run concurrently; the ordering is applied once all of them are done.
func Rank(st *Student, scholarships []*Scholarship) *Ranking {
	results := make([]Result, len(scholarships))

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, sch := range scholarships {
		g.Go(func() error {
			results[i] = Evaluate(st, sch)
			return nil
		})
	}
	// Evaluate never fails.
	_ = g.Wait()

	ranking := &Ranking{
		Matches:  make([]Match, 0, len(scholarships)),
		Rejected: make(map[string]string),
	}
	for i, sch := range scholarships {
		if sch == nil {
			continue
		}
		res := results[i]
		if !res.Eligible {
			ranking.Rejected[sch.ID] = res.Failed
			continue
		}
		ranking.Matches = append(ranking.Matches, Match{
			Scholarship: sch.Summary(),
			Reasons:     res.Reasons,
		})
	}

	sort.SliceStable(ranking.Matches, func(i, j int) bool {
		return ranking.Matches[i].Scholarship.Amount > ranking.Matches[j].Scholarship.Amount
	})

	for _, m := range ranking.Matches {
		ranking.TotalPotentialAid += m.Scholarship.Amount
	}

	return ranking
}
