package store

import "testing"

func TestFlags_Done(t *testing.T) {
	f := Flags{Parsed: true, Tailored: true}

	if !f.Done(StageParse) {
		t.Error("expected parse to be done")
	}
	if f.Done(StageJobDescribe) {
		t.Error("expected job_describe to be pending")
	}
	if !f.Done(StageTailor) {
		t.Error("expected tailor to be done")
	}
	if f.Done(Stage("bogus")) {
		t.Error("unknown stage should never be done")
	}
}

func TestFlags_PrerequisitesMet(t *testing.T) {
	tests := []struct {
		name  string
		flags Flags
		stage Stage
		want  bool
	}{
		{"parse has no prerequisites", Flags{}, StageParse, true},
		{"job_describe has no prerequisites", Flags{}, StageJobDescribe, true},
		{"tailor blocked without parse", Flags{JobDescribed: true}, StageTailor, false},
		{"tailor blocked without job_describe", Flags{Parsed: true}, StageTailor, false},
		{"tailor ready with both inputs", Flags{Parsed: true, JobDescribed: true}, StageTailor, true},
		{"format blocked without tailor", Flags{Parsed: true, JobDescribed: true}, StageFormat, false},
		{"format ready after tailor", Flags{Parsed: true, JobDescribed: true, Tailored: true}, StageFormat, true},
		{"render blocked without format", Flags{Tailored: true}, StageRender, false},
		{"render ready after format", Flags{Formatted: true}, StageRender, true},
		{"unknown stage never ready", Flags{}, Stage("bogus"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.flags.PrerequisitesMet(tt.stage); got != tt.want {
				t.Errorf("PrerequisitesMet(%s) = %v, want %v", tt.stage, got, tt.want)
			}
		})
	}
}

func TestRecord_Status(t *testing.T) {
	tests := []struct {
		name  string
		flags Flags
		want  Status
	}{
		{"empty record", Flags{}, StatusCreated},
		{"parsed only", Flags{Parsed: true}, StatusParsed},
		{"job described", Flags{Parsed: true, JobDescribed: true}, StatusJobDescribed},
		{"tailored", Flags{Parsed: true, JobDescribed: true, Tailored: true}, StatusTailored},
		{"formatted", Flags{Parsed: true, JobDescribed: true, Tailored: true, Formatted: true}, StatusFormatted},
		{"rendered", Flags{Parsed: true, JobDescribed: true, Tailored: true, Formatted: true, Rendered: true}, StatusRendered},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := Record{Flags: tt.flags}
			if got := rec.Status(); got != tt.want {
				t.Errorf("Status() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestArtifacts_For(t *testing.T) {
	a := Artifacts{
		ResumeText:        "resume",
		JobDescription:    "jd",
		TailoredContent:   "{}",
		FormattedDocument: "cv:\n  name: Test",
		RenderedDocument:  "out/final.pdf",
	}

	cases := map[Stage]string{
		StageParse:       "resume",
		StageJobDescribe: "jd",
		StageTailor:      "{}",
		StageFormat:      "cv:\n  name: Test",
		StageRender:      "out/final.pdf",
	}

	for stage, want := range cases {
		if got := a.For(stage); got != want {
			t.Errorf("For(%s) = %q, want %q", stage, got, want)
		}
	}

	if got := a.For(Stage("bogus")); got != "" {
		t.Errorf("For(bogus) = %q, want empty", got)
	}
}

func TestStages_Order(t *testing.T) {
	stages := Stages()

	want := []Stage{StageParse, StageJobDescribe, StageTailor, StageFormat, StageRender}
	if len(stages) != len(want) {
		t.Fatalf("Stages() returned %d stages, want %d", len(stages), len(want))
	}
	for i, s := range want {
		if stages[i] != s {
			t.Errorf("Stages()[%d] = %s, want %s", i, stages[i], s)
		}
	}
}
