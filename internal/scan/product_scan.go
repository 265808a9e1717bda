package scan

import "github.com/relix-db/relix/internal/record"

// ProductScan is the cross product of a left and right scan: for every
// left tuple, every right tuple, in nested-loop order. Its schema is the
// left schema's fields followed by the right schema's.
type ProductScan struct {
	left, right Scan
	schema      record.Schema
	leftHasRow  bool
}

func NewProductScan(left, right Scan) *ProductScan {
	return &ProductScan{left: left, right: right, schema: record.Concat(left.Schema(), right.Schema())}
}

func (s *ProductScan) GetFirst() error {
	if err := s.left.GetFirst(); err != nil {
		return err
	}
	ok, err := s.left.Next()
	if err != nil {
		return err
	}
	s.leftHasRow = ok
	if !ok {
		return nil
	}
	return s.right.GetFirst()
}

func (s *ProductScan) Next() (bool, error) {
	for {
		if !s.leftHasRow {
			return false, nil
		}
		ok, err := s.right.Next()
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
		ok, err = s.left.Next()
		if err != nil {
			return false, err
		}
		s.leftHasRow = ok
		if !ok {
			return false, nil
		}
		if err := s.right.GetFirst(); err != nil {
			return false, err
		}
	}
}

func (s *ProductScan) Get() (record.Tuple, error) {
	l, err := s.left.Get()
	if err != nil {
		return record.Tuple{}, err
	}
	r, err := s.right.Get()
	if err != nil {
		return record.Tuple{}, err
	}
	fields := make([]record.WriteField, 0, len(l.Fields)+len(r.Fields))
	fields = append(fields, l.Fields...)
	fields = append(fields, r.Fields...)
	return record.Tuple{Fields: fields}, nil
}

func (s *ProductScan) Schema() record.Schema { return s.schema }
func (s *ProductScan) Close()                { s.left.Close(); s.right.Close() }

// ProductModifyScan mirrors ProductScan but keeps its left side a
// ModifyScan; Update and Delete are delegated to the left scan only, as
// only the left side of a join is ever the DML target (e.g. an UPDATE...
// FROM-style plan targets the table being scanned by the ModifyTableScan,
// not the joined-in table).
type ProductModifyScan struct {
	left       ModifyScan
	right      Scan
	schema     record.Schema
	leftHasRow bool
}

func NewProductModifyScan(left ModifyScan, right Scan) *ProductModifyScan {
	return &ProductModifyScan{left: left, right: right, schema: record.Concat(left.Schema(), right.Schema())}
}

func (s *ProductModifyScan) GetFirst() error {
	if err := s.left.GetFirst(); err != nil {
		return err
	}
	ok, err := s.left.Next()
	if err != nil {
		return err
	}
	s.leftHasRow = ok
	if !ok {
		return nil
	}
	return s.right.GetFirst()
}

func (s *ProductModifyScan) Next() (bool, error) {
	for {
		if !s.leftHasRow {
			return false, nil
		}
		ok, err := s.right.Next()
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
		ok, err = s.left.Next()
		if err != nil {
			return false, err
		}
		s.leftHasRow = ok
		if !ok {
			return false, nil
		}
		if err := s.right.GetFirst(); err != nil {
			return false, err
		}
	}
}

func (s *ProductModifyScan) Get() (record.Tuple, error) {
	l, err := s.left.Get()
	if err != nil {
		return record.Tuple{}, err
	}
	r, err := s.right.Get()
	if err != nil {
		return record.Tuple{}, err
	}
	fields := make([]record.WriteField, 0, len(l.Fields)+len(r.Fields))
	fields = append(fields, l.Fields...)
	fields = append(fields, r.Fields...)
	return record.Tuple{Fields: fields}, nil
}

func (s *ProductModifyScan) Schema() record.Schema       { return s.schema }
func (s *ProductModifyScan) Close()                      { s.left.Close(); s.right.Close() }
func (s *ProductModifyScan) Update(a []Assignment) error { return s.left.Update(a) }
func (s *ProductModifyScan) Delete() error                { return s.left.Delete() }
