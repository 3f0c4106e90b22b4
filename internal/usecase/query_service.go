package usecase

import (
	"context"
	"errors"
	"math"
	"time"

	"catalog_srv/internal/domain/catalog"
	"catalog_srv/internal/domain/query"
	"catalog_srv/internal/usecase/repository"

	"github.com/sirupsen/logrus"
)

// ErrUnknownOperation is returned when a request names an operation that is
// not in the catalog.
var ErrUnknownOperation = errors.New("unknown operation")

type handler func(ctx context.Context, op catalog.Operation, p query.Params) (*query.Table, error)

// QueryService выполняет именованные запросы к каталогу проката.
//
// Every operation checks parameter kinds before building a statement. On a
// mismatch it returns a nil table and a nil error ("no result"); errors from
// the executor are returned unchanged. The service holds no state besides
// the injected executor and does no locking.
type QueryService struct {
	Executor repository.QueryExecutor
	Logger   *logrus.Logger

	handlers map[string]handler
}

// NewQueryService собирает сервис из зависимостей.
func NewQueryService(exec repository.QueryExecutor, logger *logrus.Logger) *QueryService {
	s := &QueryService{Executor: exec, Logger: logger}
	s.handlers = map[string]handler{
		catalog.FilmsByCategory:              s.single,
		catalog.FilmCountByCategory:          s.single,
		catalog.FilmCountByLengthRange:       s.lengthRange,
		catalog.CustomersByCity:              s.single,
		catalog.AvgRentalAmountByLength:      s.single,
		catalog.CustomersByTotalRentalLength: s.single,
		catalog.CategoryLengthStatistics:     s.single,
		catalog.FilmsByCategoryOrName:        s.categoryOrName,
		catalog.FilmsByCategoryOrNameFold:    s.categoryOrName,
		catalog.FilmCastByTitlePattern:       s.single,
		catalog.FilmTitlesByWords:            s.notImplemented,
	}
	return s
}

// FilmsByCategory returns title, language and category of films in the
// category with the given integer id, sorted by title and language.
func (s *QueryService) FilmsByCategory(ctx context.Context, categoryID query.Value) (*query.Table, error) {
	return s.run(ctx, catalog.FilmsByCategory, query.Params{"category_id": categoryID})
}

// FilmCountByCategory returns the category name and its film count.
func (s *QueryService) FilmCountByCategory(ctx context.Context, categoryID query.Value) (*query.Table, error) {
	return s.run(ctx, catalog.FilmCountByCategory, query.Params{"category_id": categoryID})
}

// FilmCountByLengthRange returns the number of films per length within
// [minLength, maxLength]. Both bounds are numeric; maxLength < minLength
// or a NaN bound yields no result.
func (s *QueryService) FilmCountByLengthRange(ctx context.Context, minLength, maxLength query.Value) (*query.Table, error) {
	return s.run(ctx, catalog.FilmCountByLengthRange, query.Params{"min_length": minLength, "max_length": maxLength})
}

// CustomersByCity returns customers of a city sorted by last and first name.
func (s *QueryService) CustomersByCity(ctx context.Context, city query.Value) (*query.Table, error) {
	return s.run(ctx, catalog.CustomersByCity, query.Params{"city": city})
}

// AvgRentalAmountByLength returns the average payment for films of a length.
func (s *QueryService) AvgRentalAmountByLength(ctx context.Context, length query.Value) (*query.Table, error) {
	return s.run(ctx, catalog.AvgRentalAmountByLength, query.Params{"length": length})
}

// CustomersByTotalRentalLength returns customers whose summed rented film
// length is at least sumMin, sorted by the sum, last name and first name.
func (s *QueryService) CustomersByTotalRentalLength(ctx context.Context, sumMin query.Value) (*query.Table, error) {
	return s.run(ctx, catalog.CustomersByTotalRentalLength, query.Params{"sum_min": sumMin})
}

// CategoryLengthStatistics returns avg, sum, min and max film length of a
// category matched by exact name.
func (s *QueryService) CategoryLengthStatistics(ctx context.Context, categoryName query.Value) (*query.Table, error) {
	return s.run(ctx, catalog.CategoryLengthStatistics, query.Params{"category_name": categoryName})
}

// FilmsByCategoryOrName matches the category by id when given an Integer,
// or by case-sensitive regular expression on its name when given Text.
func (s *QueryService) FilmsByCategoryOrName(ctx context.Context, category query.Value) (*query.Table, error) {
	return s.run(ctx, catalog.FilmsByCategoryOrName, query.Params{"category": category})
}

// FilmsByCategoryOrNameFold is FilmsByCategoryOrName with a
// case-insensitive name pattern.
func (s *QueryService) FilmsByCategoryOrNameFold(ctx context.Context, category query.Value) (*query.Table, error) {
	return s.run(ctx, catalog.FilmsByCategoryOrNameFold, query.Params{"category": category})
}

// FilmCastByTitlePattern returns the cast of films whose title matches the
// case-insensitive pattern, sorted by last and first name.
func (s *QueryService) FilmCastByTitlePattern(ctx context.Context, title query.Value) (*query.Table, error) {
	return s.run(ctx, catalog.FilmCastByTitlePattern, query.Params{"title": title})
}

// FilmTitlesByWords is not implemented and always returns no result.
func (s *QueryService) FilmTitlesByWords(ctx context.Context, words query.Value) (*query.Table, error) {
	return s.run(ctx, catalog.FilmTitlesByWords, query.Params{"words": words})
}

// Execute runs the operation named in the request.
func (s *QueryService) Execute(ctx context.Context, req query.Request) (*query.Table, error) {
	return s.run(ctx, req.Operation, req.Params)
}

func (s *QueryService) run(ctx context.Context, name string, params query.Params) (*query.Table, error) {
	op, ok := catalog.Lookup(name)
	if !ok {
		return nil, ErrUnknownOperation
	}
	resolved, ok := query.Check(op.Params, params)
	if !ok {
		s.Logger.WithFields(logrus.Fields{
			"operation": name,
			"params":    params,
		}).Debug("Parameters rejected, no result")
		return nil, nil
	}
	return s.handlers[name](ctx, op, resolved)
}

// single binds the only declared parameter into the only statement.
func (s *QueryService) single(ctx context.Context, op catalog.Operation, p query.Params) (*query.Table, error) {
	return s.exec(ctx, op, op.Statements[0], p[op.Params[0].Name].Arg())
}

func (s *QueryService) lengthRange(ctx context.Context, op catalog.Operation, p query.Params) (*query.Table, error) {
	minLength, _ := p["min_length"].Number()
	maxLength, _ := p["max_length"].Number()
	if math.IsNaN(minLength) || math.IsNaN(maxLength) || maxLength < minLength {
		s.Logger.WithFields(logrus.Fields{
			"operation":  op.Name,
			"min_length": minLength,
			"max_length": maxLength,
		}).Debug("Empty length range, no result")
		return nil, nil
	}
	return s.exec(ctx, op, op.Statements[0], p["min_length"].Arg(), p["max_length"].Arg())
}

// categoryOrName picks the id statement for Integer and the pattern
// statement for Text.
func (s *QueryService) categoryOrName(ctx context.Context, op catalog.Operation, p query.Params) (*query.Table, error) {
	category := p["category"]
	stmt := op.Statements[0]
	if category.Kind() == query.KindText {
		stmt = op.Statements[1]
	}
	return s.exec(ctx, op, stmt, category.Arg())
}

func (s *QueryService) notImplemented(_ context.Context, op catalog.Operation, _ query.Params) (*query.Table, error) {
	s.Logger.WithField("operation", op.Name).Debug("Operation is not implemented, no result")
	return nil, nil
}

func (s *QueryService) exec(ctx context.Context, op catalog.Operation, stmt string, args ...any) (*query.Table, error) {
	start := time.Now()
	logger := s.Logger.WithFields(logrus.Fields{
		"operation": op.Name,
		"args":      args,
	})

	table, err := s.Executor.Execute(ctx, stmt, args...)
	if err != nil {
		logger.WithError(err).WithField("duration", time.Since(start)).Error("Query failed")
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"rows":     table.Len(),
		"duration": time.Since(start),
	}).Debug("Query executed")
	return table, nil
}
