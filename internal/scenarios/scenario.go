// Package scenarios is the catalog of user journeys run against the store.
// Every journey is a plain function over a per-run Env; the runner owns
// browser lifecycle, retries and reporting.
package scenarios

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/testforge/shopsuite/internal/config"
	"github.com/testforge/shopsuite/internal/pages"
)

// Suite groups related journeys
type Suite string

const (
	SuiteAuth     Suite = "auth"
	SuiteProducts Suite = "products"
	SuiteCart     Suite = "cart"
	SuiteCheckout Suite = "checkout"
	SuiteMisc     Suite = "misc"
	SuiteE2E      Suite = "e2e"
)

// Suites lists every suite in display order
func Suites() []Suite {
	return []Suite{SuiteAuth, SuiteProducts, SuiteCart, SuiteCheckout, SuiteMisc, SuiteE2E}
}

// Env is what a single journey runs against. It is built fresh for every
// attempt.
type Env struct {
	Session *pages.Session
	Site    *pages.Site
	Config  *config.Config
	Logger  *zap.Logger
}

// NewEnv builds the page objects for session
func NewEnv(session *pages.Session, cfg *config.Config) *Env {
	logger := session.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Env{
		Session: session,
		Site:    pages.NewSite(session),
		Config:  cfg,
		Logger:  logger,
	}
}

// Func is the body of a journey
type Func func(ctx context.Context, env *Env) error

// Scenario is one catalog entry
type Scenario struct {
	ID    string
	Name  string
	Suite Suite
	Run   Func
}

func (s Scenario) String() string {
	return s.ID + " " + s.Name
}

// Catalog returns every journey ordered by ID
func Catalog() []Scenario {
	var all []Scenario
	all = append(all, authScenarios()...)
	all = append(all, productScenarios()...)
	all = append(all, cartScenarios()...)
	all = append(all, checkoutScenarios()...)
	all = append(all, miscScenarios()...)
	all = append(all, e2eScenarios()...)
	sort.SliceStable(all, func(i, j int) bool {
		return idLess(all[i].ID, all[j].ID)
	})
	return all
}

// idLess orders TC2 before TC10 and puts non-numbered IDs last
func idLess(a, b string) bool {
	na, errA := strconv.Atoi(strings.TrimPrefix(a, "TC"))
	nb, errB := strconv.Atoi(strings.TrimPrefix(b, "TC"))
	switch {
	case errA == nil && errB == nil:
		return na < nb
	case errA == nil:
		return true
	case errB == nil:
		return false
	default:
		return a < b
	}
}

// Select filters all by suite and ID. Empty filters match everything; an
// unknown suite or ID is an error.
func Select(all []Scenario, suites, ids []string) ([]Scenario, error) {
	suiteSet := make(map[Suite]bool)
	for _, s := range suites {
		suite := Suite(strings.ToLower(strings.TrimSpace(s)))
		if !knownSuite(suite) {
			return nil, fmt.Errorf("unknown suite %q", s)
		}
		suiteSet[suite] = true
	}

	idSet := make(map[string]bool)
	for _, id := range ids {
		idSet[strings.ToUpper(strings.TrimSpace(id))] = true
	}

	var out []Scenario
	matched := make(map[string]bool)
	for _, sc := range all {
		if len(suiteSet) > 0 && !suiteSet[sc.Suite] {
			continue
		}
		id := strings.ToUpper(sc.ID)
		if len(idSet) > 0 && !idSet[id] {
			continue
		}
		out = append(out, sc)
		matched[id] = true
	}

	var missing []string
	for id := range idSet {
		if !matched[id] {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("no selected scenario matches: %s", strings.Join(missing, ", "))
	}
	return out, nil
}

func knownSuite(s Suite) bool {
	for _, known := range Suites() {
		if s == known {
			return true
		}
	}
	return false
}

// steps runs fns in order and stops at the first error
func steps(fns ...func() error) error {
	for _, fn := range fns {
		if err := fn(); err != nil {
			return err
		}
	}
	return nil
}
