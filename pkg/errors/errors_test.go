package errors

import (
	"strings"
	"testing"
)

func TestNotFittedError(t *testing.T) {
	err := NewNotFittedError("BinaryTargetEncoder", "Transform")
	if err == nil {
		t.Fatal("NewNotFittedError() returned nil")
	}

	var notFitted *NotFittedError
	if !As(err, &notFitted) {
		t.Fatalf("error %v is not a *NotFittedError", err)
	}
	if notFitted.ModelName != "BinaryTargetEncoder" {
		t.Errorf("ModelName = %q, want %q", notFitted.ModelName, "BinaryTargetEncoder")
	}
	if notFitted.Method != "Transform" {
		t.Errorf("Method = %q, want %q", notFitted.Method, "Transform")
	}
	if !strings.Contains(err.Error(), "not fitted yet") {
		t.Errorf("Error() = %q, want mention of unfitted state", err.Error())
	}
	if !strings.Contains(err.Error(), "Transform()") {
		t.Errorf("Error() = %q, want the method name", err.Error())
	}
}

func TestOutOfRangeError(t *testing.T) {
	tests := []struct {
		name  string
		op    string
		index int
		size  int
		want  string
	}{
		{
			name:  "Negative index",
			op:    "BinaryTargetEncoder.Fit",
			index: -1,
			size:  3,
			want:  "index -1 is out of range [0, 3)",
		},
		{
			name:  "Index beyond vocabulary",
			op:    "BinaryTargetEncoder.Transform",
			index: 7,
			size:  3,
			want:  "index 7 is out of range [0, 3)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewOutOfRangeError(tt.op, tt.index, tt.size)

			var oor *OutOfRangeError
			if !As(err, &oor) {
				t.Fatalf("error %v is not a *OutOfRangeError", err)
			}
			if oor.Index != tt.index || oor.Size != tt.size {
				t.Errorf("got (index=%d, size=%d), want (index=%d, size=%d)",
					oor.Index, oor.Size, tt.index, tt.size)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Error() = %q, want substring %q", err.Error(), tt.want)
			}
		})
	}
}

func TestDimensionError(t *testing.T) {
	err := NewDimensionError("Fit", 10, 7, 0)

	var dim *DimensionError
	if !As(err, &dim) {
		t.Fatalf("error %v is not a *DimensionError", err)
	}
	if dim.Expected != 10 || dim.Got != 7 || dim.Axis != 0 {
		t.Errorf("got %+v, want Expected=10 Got=7 Axis=0", dim)
	}
	if !strings.Contains(err.Error(), "rows") {
		t.Errorf("Error() = %q, want axis name 'rows'", err.Error())
	}
}

func TestValueError(t *testing.T) {
	err := NewValueError("BinaryTargetEncoder.Fit", "label must be 0 or 1")
	if !strings.Contains(err.Error(), "tabenc: BinaryTargetEncoder.Fit: label must be 0 or 1") {
		t.Errorf("unexpected message: %q", err.Error())
	}

	var ve *ValueError
	if !As(err, &ve) {
		t.Fatalf("error %v is not a *ValueError", err)
	}
}

func TestModelErrorUnwrap(t *testing.T) {
	err := NewModelError("BinaryTargetEncoder.Fit", "empty data", ErrEmptyData)
	if !Is(err, ErrEmptyData) {
		t.Errorf("ModelError does not unwrap to ErrEmptyData: %v", err)
	}
}

func TestWarnHandler(t *testing.T) {
	var captured []error
	SetWarningHandler(func(w error) {
		captured = append(captured, w)
	})
	defer SetWarningHandler(nil)

	w := NewDegenerateEncodingWarning("BinaryTargetEncoder.Transform", 4)
	Warn(w)

	if len(captured) != 1 {
		t.Fatalf("captured %d warnings, want 1", len(captured))
	}
	var dw *DegenerateEncodingWarning
	if !As(captured[0], &dw) {
		t.Fatalf("captured warning is not a *DegenerateEncodingWarning: %v", captured[0])
	}
	if dw.Index != 4 {
		t.Errorf("Index = %d, want 4", dw.Index)
	}
}

func TestZerologWarnFuncTakesPriority(t *testing.T) {
	var viaHandler, viaZerolog int
	SetWarningHandler(func(w error) { viaHandler++ })
	SetZerologWarnFunc(func(w error) { viaZerolog++ })
	defer func() {
		SetWarningHandler(nil)
		SetZerologWarnFunc(nil)
	}()

	Warn(NewUndefinedMetricWarning("AUC", "only one class present", 0.5))

	if viaZerolog != 1 || viaHandler != 0 {
		t.Errorf("zerolog func called %d times, handler %d times; want 1 and 0", viaZerolog, viaHandler)
	}
}

func TestConvergenceWarningMessage(t *testing.T) {
	w := NewConvergenceWarning("EmbeddingTrainer", 3, "loss did not improve")
	if !strings.Contains(w.Error(), "EmbeddingTrainer failed to converge after 3 iterations") {
		t.Errorf("unexpected message: %q", w.Error())
	}
}

func TestRecover(t *testing.T) {
	f := func() (err error) {
		defer Recover(&err, "TestOp")
		panic("boom")
	}

	err := f()
	if err == nil {
		t.Fatal("expected error from recovered panic")
	}
	var pe *PanicError
	if !As(err, &pe) {
		t.Fatalf("error %v is not a *PanicError", err)
	}
	if pe.Operation != "TestOp" {
		t.Errorf("Operation = %q, want %q", pe.Operation, "TestOp")
	}
	if pe.StackTrace == "" {
		t.Error("StackTrace is empty")
	}
}

func TestSafeExecute(t *testing.T) {
	if err := SafeExecute("ok", func() error { return nil }); err != nil {
		t.Errorf("SafeExecute() = %v, want nil", err)
	}

	err := SafeExecute("panics", func() error { panic("kaput") })
	if err == nil {
		t.Error("SafeExecute() = nil, want error from panic")
	}
}
