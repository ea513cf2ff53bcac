package roster

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"schoolrecords/internal/account"
)

const DefaultWorkers = 4

// Inserter is satisfied by *account.Manager.
type Inserter interface {
	InsertStudent(ctx context.Context, req account.StudentRequest) (int64, error)
	InsertTeacher(ctx context.Context, req account.TeacherRequest) (int64, error)
}

type Result struct {
	// Created maps spreadsheet row to the new account ID.
	Created map[int]int64
	Failed  []*RowError
}

// Import creates one account per entry using up to workers concurrent
// creations. A failed row does not stop the others; Import only returns an
// error when ctx is done.
func Import(ctx context.Context, ins Inserter, entries []Entry, workers int, logger *zap.Logger) (Result, error) {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var (
		mu  sync.Mutex
		res = Result{Created: make(map[int]int64, len(entries))}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, e := range entries {
		if gctx.Err() != nil {
			break
		}
		e := e
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			var (
				id  int64
				err error
			)
			if e.Teacher != nil {
				id, err = ins.InsertTeacher(gctx, *e.Teacher)
			} else {
				id, err = ins.InsertStudent(gctx, *e.Student)
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logger.Warn("Roster row failed", zap.Int("row", e.Row), zap.Error(err))
				res.Failed = append(res.Failed, &RowError{Row: e.Row, Err: err})
				return nil
			}
			res.Created[e.Row] = id
			return nil
		})
	}
	err := g.Wait()
	sort.Slice(res.Failed, func(i, j int) bool { return res.Failed[i].Row < res.Failed[j].Row })
	if err != nil {
		return res, err
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	logger.Info("Roster imported", zap.Int("created", len(res.Created)), zap.Int("failed", len(res.Failed)))
	return res, nil
}
