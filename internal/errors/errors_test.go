package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocationString(t *testing.T) {
	assert.Equal(t, "<program>", Location{}.String())
	assert.Equal(t, "main", Location{Function: "main"}.String())
	assert.Equal(t, "main:loop", Location{Function: "main", Block: "loop", Index: -1}.String())
	assert.Equal(t, "main:loop#3", Location{Function: "main", Block: "loop", Index: 3}.String())
}

func TestFatalBuildsErrorLevel(t *testing.T) {
	err := Fatal(ErrMissingMain, "no main", Location{})
	assert.Equal(t, Error, err.Level)
	assert.Equal(t, ErrMissingMain, err.Code)
	assert.Nil(t, err.Unwrap())
}

func TestNewWrapsCause(t *testing.T) {
	cause := assertError("boom")
	err := New(Warning, ErrHeapMisuse, "heap trouble", Location{Function: "f"}, cause)
	assert.Equal(t, Warning, err.Level)
	assert.Error(t, err.Unwrap())
}

type assertError string

func (e assertError) Error() string { return string(e) }

func TestReporterFormatsAllErrors(t *testing.T) {
	r := NewReporter()
	errs := []*CompilerError{
		Fatal(ErrMissingMain, "no main", Location{}),
		Fatal(ErrDuplicateLabel, "dup", Location{Function: "f", Block: "b"}),
	}
	out := r.ReportAll(errs)
	assert.Contains(t, out, ErrMissingMain)
	assert.Contains(t, out, ErrDuplicateLabel)
}
