package simjoin

import (
	"errors"
	"fmt"
)

// configuration errors, returned before any index work begin
var (
	ErrInvalidThreshold    = errors.New("invalid threshold")
	ErrUnsupportedMeasure  = errors.New("unsupported measure")
	ErrUnsupportedOperator = errors.New("unsupported operator for measure")
	ErrAttrNotFound        = errors.New("attribute not found")
	ErrNilTable            = errors.New("nil table")
)

// data errors
var (
	ErrDuplicateID     = errors.New("duplicate record id")
	ErrEmptyID         = errors.New("empty record id")
	ErrNonStringValue  = errors.New("join attribute value is not a string")
	ErrUnknownRecordID = errors.New("unknown record id")
)

const (
	StageValidate = "validate"
	StageIndex    = "index"
	StageProbe    = "probe"
	StageVerify   = "verify"
	StageTopK     = "topk"
)

// RecordError a data error bound to one record; the record is skipped and the
// join keep going unless the error is structural
type RecordError struct {
	Stage    string
	Table    string
	RecordID string
	Attr     string
	Err      error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("stage:%s table:%s record:%s attr:%s, err:%v",
		e.Stage, e.Table, e.RecordID, e.Attr, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

func newRecordError(stage, table, id, attr string, err error) *RecordError {
	return &RecordError{Stage: stage, Table: table, RecordID: id, Attr: attr, Err: err}
}
