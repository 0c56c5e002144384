// Package importer turns catalog spreadsheets into category and product
// records. Rows are processed strictly in file order: sticky columns (category,
// item code, sizes, carton data) stated once apply to the following rows until
// the sheet gives a new value for that column.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"stand-catalog-service/internal/domain"
	"stand-catalog-service/internal/store"
)

const (
	importedCategoryDescription = "Imported from catalog spreadsheet"
	// maxSlugSuffix bounds the -2, -3, ... attempts for one category name.
	maxSlugSuffix = 100
)

var (
	errMissingCategory     = errors.New("row has no category name")
	errUnsluggableCategory = errors.New("category name has no characters usable in a slug")
)

// Catalog is the persistence the normalizer writes through.
// *store.PostgresStore satisfies it.
type Catalog interface {
	AllCategories(ctx context.Context) ([]domain.Category, error)
	GetCategoryByName(ctx context.Context, name string) (*domain.Category, error)
	CreateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error)
	CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error)
}

// Outcome summarizes one import run.
type Outcome struct {
	Total             int `json:"total"`
	Imported          int `json:"imported"`
	Errors            int `json:"errors"`
	Skipped           int `json:"skipped"`
	CategoriesCreated int `json:"categories_created"`
}

// Normalizer runs spreadsheet imports against a Catalog. It keeps no state
// between runs, so one Normalizer may serve concurrent requests.
type Normalizer struct {
	catalog  Catalog
	logger   *zap.Logger
	metrics  *Metrics
	now      func() time.Time
	codeFunc func(now time.Time, line int) string
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithMetrics records run and row counters.
func WithMetrics(m *Metrics) Option {
	return func(n *Normalizer) { n.metrics = m }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(n *Normalizer) { n.now = now }
}

// WithPlaceholderCodes overrides how item codes are generated for rows that
// have none.
func WithPlaceholderCodes(fn func(now time.Time, line int) string) Option {
	return func(n *Normalizer) { n.codeFunc = fn }
}

// New creates a Normalizer.
func New(catalog Catalog, logger *zap.Logger, opts ...Option) *Normalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	n := &Normalizer{
		catalog:  catalog,
		logger:   logger,
		now:      time.Now,
		codeFunc: placeholderCode,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// placeholderCode combines a ULID (millisecond timestamp + entropy) with the
// sheet line, so codes differ between rows of a run and between runs.
func placeholderCode(now time.Time, line int) string {
	id := ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy())
	return fmt.Sprintf("AUTO-%s-%d", id.String(), line)
}

// Import decodes an uploaded file and runs it. A decode failure aborts the
// run before anything is written.
func (n *Normalizer) Import(ctx context.Context, filename string, r io.Reader) (Outcome, error) {
	rows, err := Decode(filename, r)
	if err != nil {
		n.metrics.run(runRejected, 0)
		n.logger.Warn("import rejected", zap.String("filename", filename), zap.Error(err))
		return Outcome{}, err
	}
	n.logger.Info("import decoded", zap.String("filename", filename), zap.Int("rows", len(rows)))
	return n.Run(ctx, rows)
}

// Run imports rows in order. Row failures are counted and logged, never
// returned; the only error is failing to load existing categories.
func (n *Normalizer) Run(ctx context.Context, rows []SourceRow) (Outcome, error) {
	start := n.now()

	existing, err := n.catalog.AllCategories(ctx)
	if err != nil {
		n.metrics.run(runFailed, 0)
		return Outcome{}, fmt.Errorf("importer: loading categories: %w", err)
	}

	r := &run{
		Normalizer: n,
		startedAt:  start,
		categories: make(map[string]*domain.Category, len(existing)),
	}
	for i := range existing {
		r.categories[existing[i].Name] = &existing[i]
	}

	var state CarryState
	for _, row := range rows {
		state = state.Absorb(row)
		r.importRow(ctx, state, row)
	}

	elapsed := n.now().Sub(start)
	n.metrics.run(runCompleted, elapsed)
	n.logger.Info("import finished",
		zap.Int("total", r.outcome.Total),
		zap.Int("imported", r.outcome.Imported),
		zap.Int("errors", r.outcome.Errors),
		zap.Int("skipped", r.outcome.Skipped),
		zap.Int("categories_created", r.outcome.CategoriesCreated),
		zap.Duration("elapsed", elapsed),
	)
	return r.outcome, nil
}

// run is the per-import scratch space: the category lookup (pre-fetched plus
// created so far) and the counters.
type run struct {
	*Normalizer
	startedAt  time.Time
	categories map[string]*domain.Category
	outcome    Outcome
}

func (r *run) importRow(ctx context.Context, state CarryState, row SourceRow) {
	r.outcome.Total++

	description := strings.TrimSpace(row.Description)
	if description == "" {
		r.outcome.Skipped++
		r.metrics.row(resultSkipped)
		r.logger.Debug("import row skipped: no description", zap.Int("line", row.Line))
		return
	}

	category, err := r.resolveCategory(ctx, state.CategoryName)
	if err != nil {
		r.fail(row, "category", err)
		return
	}

	product := r.buildProduct(state, row, category.ID, description)
	if _, err := r.catalog.CreateProduct(ctx, product); err != nil {
		r.fail(row, "write", err)
		return
	}
	r.outcome.Imported++
	r.metrics.row(resultImported)
}

func (r *run) fail(row SourceRow, stage string, err error) {
	r.outcome.Errors++
	r.metrics.row(resultError)
	r.logger.Warn("import row failed",
		zap.Int("line", row.Line),
		zap.String("stage", stage),
		zap.Error(err),
	)
}

// resolveCategory finds the category by name, creating it on first use. If
// another run created the same name concurrently the existing row is reused.
func (r *run) resolveCategory(ctx context.Context, name string) (*domain.Category, error) {
	if name == "" {
		return nil, errMissingCategory
	}
	if c, ok := r.categories[name]; ok {
		return c, nil
	}

	base := domain.Slugify(name)
	if base == "" {
		return nil, fmt.Errorf("%w: %q", errUnsluggableCategory, name)
	}
	// Distinct names can fold to one slug ("Acessórios", "Acessorios"); the
	// later one takes the next free numeric suffix.
	var (
		created *domain.Category
		err     error
	)
	for n := 1; n <= maxSlugSuffix; n++ {
		description := importedCategoryDescription
		created, err = r.catalog.CreateCategory(ctx, &domain.Category{
			Name:        name,
			Slug:        slugCandidate(base, n),
			Description: &description,
		})
		if !errors.Is(err, store.ErrCategorySlugExists) {
			break
		}
	}
	switch {
	case errors.Is(err, store.ErrCategoryNameExists):
		created, err = r.catalog.GetCategoryByName(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("fetching concurrently created category %q: %w", name, err)
		}
	case err != nil:
		return nil, fmt.Errorf("creating category %q: %w", name, err)
	default:
		r.outcome.CategoriesCreated++
		r.metrics.categoryCreated()
		r.logger.Info("category created",
			zap.String("name", name),
			zap.String("slug", created.Slug),
			zap.Int64("id", created.ID),
		)
	}

	r.categories[name] = created
	return created, nil
}

// slugCandidate returns base for the first attempt and base-n after that.
func slugCandidate(base string, n int) string {
	if n == 1 {
		return base
	}
	return base + "-" + strconv.Itoa(n)
}

func (r *run) buildProduct(state CarryState, row SourceRow, categoryID int64, description string) *domain.Product {
	code := state.ItemCode
	name := domain.DisplayName(code, description)
	if code == "" {
		code = r.codeFunc(r.startedAt, row.Line)
	}

	return &domain.Product{
		CategoryID:       categoryID,
		ItemCode:         code,
		Name:             name,
		Description:      &description,
		FrameSize:        optional(state.FrameSize),
		GraphicSize:      optional(state.GraphicSize),
		PiecesPerCarton:  parsePieces(state.PiecesPerCarton),
		GrossWeight:      optional(state.GrossWeight),
		PackingSize:      optional(state.PackingSize),
		Price:            parsePrice(row.Price),
		DistributorPrice: parsePrice(row.DistributorPrice),
		Status:           domain.ProductStatusActive,
	}
}
