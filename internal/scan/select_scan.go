package scan

import "github.com/relix-db/relix/internal/record"

// SelectScan filters an inner scan's tuples through a predicate.
type SelectScan struct {
	inner Scan
	pred  *record.Predicate
}

func NewSelectScan(inner Scan, pred *record.Predicate) *SelectScan {
	return &SelectScan{inner: inner, pred: pred}
}

func (s *SelectScan) GetFirst() error { return s.inner.GetFirst() }

func (s *SelectScan) Next() (bool, error) {
	for {
		ok, err := s.inner.Next()
		if err != nil || !ok {
			return ok, err
		}
		tup, err := s.inner.Get()
		if err != nil {
			return false, err
		}
		match, err := s.pred.Evaluate(tup, s.inner.Schema())
		if err != nil {
			return false, err
		}
		if match {
			return true, nil
		}
	}
}

func (s *SelectScan) Get() (record.Tuple, error)  { return s.inner.Get() }
func (s *SelectScan) Schema() record.Schema       { return s.inner.Schema() }
func (s *SelectScan) Close()                      { s.inner.Close() }

// SelectModifyScan is SelectScan's ModifyScan counterpart: it filters an
// inner ModifyScan's tuples through a predicate, and forwards
// Update/Delete straight to the inner scan (which is positioned, by
// construction, on the tuple that last passed the filter).
type SelectModifyScan struct {
	inner ModifyScan
	pred  *record.Predicate
}

func NewSelectModifyScan(inner ModifyScan, pred *record.Predicate) *SelectModifyScan {
	return &SelectModifyScan{inner: inner, pred: pred}
}

func (s *SelectModifyScan) GetFirst() error { return s.inner.GetFirst() }

func (s *SelectModifyScan) Next() (bool, error) {
	for {
		ok, err := s.inner.Next()
		if err != nil || !ok {
			return ok, err
		}
		tup, err := s.inner.Get()
		if err != nil {
			return false, err
		}
		match, err := s.pred.Evaluate(tup, s.inner.Schema())
		if err != nil {
			return false, err
		}
		if match {
			return true, nil
		}
	}
}

func (s *SelectModifyScan) Get() (record.Tuple, error)            { return s.inner.Get() }
func (s *SelectModifyScan) Schema() record.Schema                  { return s.inner.Schema() }
func (s *SelectModifyScan) Close()                                 { s.inner.Close() }
func (s *SelectModifyScan) Update(a []Assignment) error            { return s.inner.Update(a) }
func (s *SelectModifyScan) Delete() error                          { return s.inner.Delete() }
