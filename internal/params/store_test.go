package params_test

import (
	"testing"

	"github.com/san-kum/wfsrender/internal/model"
	"github.com/san-kum/wfsrender/internal/params"
)

func newTestStore() *params.SceneStore {
	return params.NewSceneStore(
		[]model.Input{{Index: 0, CommonAttenuation: 1, Mute: []bool{false}}},
		[]model.Output{{Index: 0, Attenuation: 1, DistanceAttenPercent: 100}},
	)
}

func TestNewSceneStoreStartsAtVersionOne(t *testing.T) {
	s := newTestStore()
	if s.InputsVersion() != 1 || s.OutputsVersion() != 1 {
		t.Fatalf("expected both versions to start at 1, got inputs=%d outputs=%d", s.InputsVersion(), s.OutputsVersion())
	}
}

func TestSetInputBumpsOnlyInputsVersion(t *testing.T) {
	s := newTestStore()
	outputsBefore := s.OutputsVersion()

	s.SetInput(0, model.Input{Index: 0, CommonAttenuation: 0.5, Mute: []bool{false}})

	if s.InputsVersion() != 2 {
		t.Fatalf("expected inputs version to bump to 2, got %d", s.InputsVersion())
	}
	if s.OutputsVersion() != outputsBefore {
		t.Fatalf("expected outputs version unchanged, got %d (was %d)", s.OutputsVersion(), outputsBefore)
	}

	got := s.Inputs()
	if got[0].CommonAttenuation != 0.5 {
		t.Fatalf("expected stored input to reflect the update, got %+v", got[0])
	}
}

func TestSetOutputClampsInvariants(t *testing.T) {
	s := newTestStore()
	s.SetOutput(0, model.Output{Index: 0, Attenuation: 1, DistanceAttenPercent: 999, ArrayID: 99})

	got := s.Outputs()
	if got[0].DistanceAttenPercent != 200 {
		t.Fatalf("expected DistanceAttenPercent clamped to 200, got %v", got[0].DistanceAttenPercent)
	}
	if got[0].ArrayID != 10 {
		t.Fatalf("expected ArrayID clamped to 10, got %v", got[0].ArrayID)
	}
}

func TestSetInputOutOfRangeIsNoop(t *testing.T) {
	s := newTestStore()
	before := s.InputsVersion()
	s.SetInput(5, model.Input{Index: 5, Mute: []bool{false}})
	if s.InputsVersion() != before {
		t.Fatalf("expected out-of-range SetInput to be a no-op, version changed from %d to %d", before, s.InputsVersion())
	}
}

func TestMutateInputAppliesFnAndBumpsVersion(t *testing.T) {
	s := newTestStore()
	before := s.InputsVersion()

	s.MutateInput(0, func(in *model.Input) {
		in.CommonAttenuation = 0.25
	})

	if s.InputsVersion() != before+1 {
		t.Fatalf("expected version bump after MutateInput, got %d (was %d)", s.InputsVersion(), before)
	}
	if got := s.Inputs(); got[0].CommonAttenuation != 0.25 {
		t.Fatalf("expected mutation applied, got %+v", got[0])
	}
}

func TestOnChangedNotifiesWithAttribute(t *testing.T) {
	s := newTestStore()
	var got []params.Attribute
	s.OnChanged(func(a params.Attribute) {
		got = append(got, a)
	})

	s.SetInput(0, model.Input{Index: 0, CommonAttenuation: 1, Mute: []bool{false}})
	s.SetOutput(0, model.Output{Index: 0, Attenuation: 1, DistanceAttenPercent: 100})

	if len(got) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(got))
	}
	if got[0].Section != "input" || got[0].ID != 0 {
		t.Fatalf("expected first notification for input 0, got %+v", got[0])
	}
	if got[1].Section != "output" || got[1].ID != 0 {
		t.Fatalf("expected second notification for output 0, got %+v", got[1])
	}
}

func TestInputsReturnsIndependentCopy(t *testing.T) {
	s := newTestStore()
	got := s.Inputs()
	got[0].CommonAttenuation = 42

	fresh := s.Inputs()
	if fresh[0].CommonAttenuation == 42 {
		t.Fatal("expected Inputs() to return a copy, mutation leaked into the store")
	}
}
