package parse

import "testing"

func TestLint(t *testing.T) {
	tests := []struct {
		name    string
		fixture string
		want    LintCounts
	}{
		{
			name: "eslint summary",
			fixture: `/src/app.ts
  10:5  error  'x' is assigned a value but never used  no-unused-vars

✖ 5 problems (2 errors, 3 warnings)
  1 errors and 1 warnings potentially fixable with the --fix option.`,
			want: LintCounts{Errors: 2, Warnings: 3, Fixable: 1},
		},
		{
			name:    "clean run",
			fixture: "",
			want:    LintCounts{},
		},
		{
			name:    "warnings only",
			fixture: "✖ 4 problems (0 errors, 4 warnings)",
			want:    LintCounts{Errors: 0, Warnings: 4},
		},
		{
			name:    "loose text",
			fixture: "lint finished with 3 errors",
			want:    LintCounts{Errors: 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Lint(tt.fixture); got != tt.want {
				t.Errorf("Lint() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
