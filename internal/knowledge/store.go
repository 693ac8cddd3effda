package knowledge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/respira-diag/fuzzydx/internal/shared/metrics"
)

var (
	ErrNotLoaded          = errors.New("knowledge base not loaded")
	ErrEmptyKnowledgeBase = errors.New("knowledge base has no membership sets")
)

// Store publishes the current Base. Readers never block; reloads are
// serialised and only swap in a usable Base.
type Store struct {
	source  Source
	log     logrus.FieldLogger
	current atomic.Pointer[Base]
	mu      sync.Mutex
}

func NewStore(source Source, log logrus.FieldLogger) *Store {
	return &Store{source: source, log: log}
}

// Current returns the active Base, or nil before the first successful load.
func (s *Store) Current() *Base {
	return s.current.Load()
}

func (s *Store) SourceName() string {
	return s.source.Name()
}

// Reload loads and builds a new Base. On failure the previous Base stays active.
func (s *Store) Reload(ctx context.Context) (*Base, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := s.log.WithField("source", s.source.Name())

	tables, err := s.source.Load(ctx)
	if err != nil {
		metrics.RecordKnowledgeLoadFailure()
		log.WithError(err).Error("knowledge base load failed")
		return nil, fmt.Errorf("load %s tables: %w", s.source.Name(), err)
	}

	base := Build(tables, BuildOptions{Source: s.source.Name()})
	for _, r := range base.Report.Rejected {
		log.WithFields(logrus.Fields{
			"table": r.Table,
			"line":  r.Line,
			"key":   r.Key,
			"field": r.Field,
		}).Warn(r.Error)
	}

	if base.Report.Variables == 0 {
		metrics.RecordKnowledgeLoadFailure()
		log.Error("knowledge base has no usable membership sets, keeping previous")
		return nil, ErrEmptyKnowledgeBase
	}

	s.current.Store(base)
	metrics.RecordKnowledgeLoad(base.Report.RejectedByTable, base.Report.Rules)

	entry := log.WithFields(logrus.Fields{
		"version":   base.Report.Version.Short(),
		"variables": base.Report.Variables,
		"rules":     base.Report.Rules,
		"outputs":   base.Report.Outputs,
		"rejected":  base.Report.RejectedCount(),
	})
	if len(base.Report.MissingOutputs) > 0 {
		entry.WithField("missing_outputs", base.Report.MissingOutputs).Warn("knowledge base loaded; mamdani unavailable for some diseases")
	} else {
		entry.Info("knowledge base loaded")
	}
	return base, nil
}
