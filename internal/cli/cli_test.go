package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/example/probeacc/internal/config"
	"github.com/example/probeacc/internal/ports/primary"
)

func TestTestSelectionResolve(t *testing.T) {
	defaults := config.Defaults{Corner: 30, Repeatability: 20, Drift: 100}

	tests := []struct {
		name                              string
		sel                               testSelection
		wantCorner, wantRepeat, wantDrift int
	}{
		{
			name:       "no flags selects every test",
			wantCorner: 30, wantRepeat: 20, wantDrift: 100,
		},
		{
			name:      "flag without value uses default",
			sel:       testSelection{Drift: useDefault, DriftSet: true},
			wantDrift: 100,
		},
		{
			name:       "explicit counts",
			sel:        testSelection{Corner: 5, CornerSet: true, Repeatability: 3, RepeatabilitySet: true},
			wantCorner: 5, wantRepeat: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			corner, repeat, drift := tt.sel.resolve(defaults)
			if corner != tt.wantCorner || repeat != tt.wantRepeat || drift != tt.wantDrift {
				t.Errorf("resolve() = (%d, %d, %d), want (%d, %d, %d)",
					corner, repeat, drift, tt.wantCorner, tt.wantRepeat, tt.wantDrift)
			}
		})
	}
}

func TestRunCmdOptionalValues(t *testing.T) {
	cmd := RunCmd()
	if err := cmd.ParseFlags([]string{"--corner", "--drift=250", "--no-save"}); err != nil {
		t.Fatalf("ParseFlags() error = %v", err)
	}

	corner, _ := cmd.Flags().GetInt("corner")
	if corner != useDefault {
		t.Errorf("corner = %d, want %d", corner, useDefault)
	}
	drift, _ := cmd.Flags().GetInt("drift")
	if drift != 250 {
		t.Errorf("drift = %d, want 250", drift)
	}
	if cmd.Flags().Changed("repeatability") {
		t.Error("repeatability should not be set")
	}
}

func TestRootCmdStructure(t *testing.T) {
	root := RootCmd()

	want := map[string]bool{"run": false, "runs": false, "doctor": false, "config": false}
	for _, sub := range root.Commands() {
		if _, ok := want[sub.Name()]; ok {
			want[sub.Name()] = true
			if sub.Short == "" {
				t.Errorf("%s command should have a Short description", sub.Name())
			}
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("%s subcommand not registered", name)
		}
	}

	if root.PersistentFlags().Lookup("config") == nil || root.PersistentFlags().Lookup("verbose") == nil {
		t.Error("expected --config and --verbose persistent flags")
	}
}

func TestWriteChecks(t *testing.T) {
	tests := []struct {
		name       string
		results    []*primary.CheckResult
		wantOK     bool
		wantOutput []string
	}{
		{
			name: "all passing",
			results: []*primary.CheckResult{
				{Name: "Connectivity", Status: primary.CheckPass},
				{Name: "Homed axes", Status: primary.CheckPass},
			},
			wantOK:     true,
			wantOutput: []string{"Connectivity", "All checks passed."},
		},
		{
			name: "warning only",
			results: []*primary.CheckResult{
				{Name: "Connectivity", Status: primary.CheckPass},
				{Name: "Safe Z", Status: primary.CheckWarn, Details: "safe_z not found; you will be asked"},
			},
			wantOK:     true,
			wantOutput: []string{"Details:", "safe_z not found"},
		},
		{
			name: "failure",
			results: []*primary.CheckResult{
				{Name: "Connectivity", Status: primary.CheckFail, Details: "connection refused"},
			},
			wantOK:     false,
			wantOutput: []string{"connection refused", "Issues found"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if got := writeChecks(&buf, tt.results); got != tt.wantOK {
				t.Errorf("writeChecks() = %v, want %v", got, tt.wantOK)
			}
			for _, s := range tt.wantOutput {
				if !strings.Contains(buf.String(), s) {
					t.Errorf("output missing %q:\n%s", s, buf.String())
				}
			}
		})
	}
}
