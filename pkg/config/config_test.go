package config

import (
	"testing"

	"github.com/xplshn/kite/pkg/cli"
)

func TestDefaults(t *testing.T) {
	cfg := NewConfig()
	for ft := Feature(0); ft < FeatCount; ft++ {
		if !cfg.IsFeatureEnabled(ft) {
			t.Errorf("feature %s disabled by default", cfg.Features[ft].Name)
		}
	}
	for _, wt := range []Warning{WarnImplicitDecl, WarnLogicalAssign} {
		if cfg.IsWarningEnabled(wt) {
			t.Errorf("warning %s enabled by default", cfg.Warnings[wt].Name)
		}
	}
	if !cfg.IsWarningEnabled(WarnDuplicateKey) {
		t.Error("duplicate-key should be on by default")
	}
	if len(cfg.FeatureMap) != int(FeatCount) || len(cfg.WarningMap) != int(WarnCount) {
		t.Errorf("name maps have %d features and %d warnings", len(cfg.FeatureMap), len(cfg.WarningMap))
	}
	if cfg.WarningMap["unreachable-code"] != WarnUnreachableCode {
		t.Error("WarningMap does not resolve unreachable-code")
	}
}

func TestApplyStd(t *testing.T) {
	tests := []struct {
		std            string
		compound       bool
		objects        bool
		implicitDeclOn bool
	}{
		{"kite", true, true, false},
		{"core", false, false, false},
		{"strict", true, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.std, func(t *testing.T) {
			cfg := NewConfig()
			if err := cfg.ApplyStd(tt.std); err != nil {
				t.Fatalf("ApplyStd(%q) returned error: %v", tt.std, err)
			}
			if got := cfg.IsFeatureEnabled(FeatCompoundAssign); got != tt.compound {
				t.Errorf("compound-assign = %v, want %v", got, tt.compound)
			}
			if got := cfg.IsFeatureEnabled(FeatObjectLiterals); got != tt.objects {
				t.Errorf("object-literals = %v, want %v", got, tt.objects)
			}
			if got := cfg.IsWarningEnabled(WarnImplicitDecl); got != tt.implicitDeclOn {
				t.Errorf("implicit-decl = %v, want %v", got, tt.implicitDeclOn)
			}
			if cfg.StdName != tt.std {
				t.Errorf("StdName = %q, want %q", cfg.StdName, tt.std)
			}
		})
	}

	if err := NewConfig().ApplyStd("c99"); err == nil {
		t.Error("ApplyStd accepted an unknown standard")
	}
}

func TestFlagGroupsOverrideStd(t *testing.T) {
	cfg := NewConfig()
	fs := cli.NewFlagSet("kite")
	warningFlags, featureFlags := cfg.SetupFlagGroups(fs)

	if err := fs.Parse([]string{"-Wimplicit-decl", "-Wno-loop-control", "-Fcompound-assign", "-Fno-typeof"}); err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if err := cfg.ApplyStd("core"); err != nil {
		t.Fatal(err)
	}
	cfg.ApplyFlagGroups(warningFlags, featureFlags)

	checks := []struct {
		name string
		got  bool
		want bool
	}{
		{"implicit-decl", cfg.IsWarningEnabled(WarnImplicitDecl), true},
		{"loop-control", cfg.IsWarningEnabled(WarnLoopControl), false},
		{"compound-assign", cfg.IsFeatureEnabled(FeatCompoundAssign), true},
		{"typeof", cfg.IsFeatureEnabled(FeatTypeof), false},
		{"object-literals", cfg.IsFeatureEnabled(FeatObjectLiterals), false},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestSetAllWarnings(t *testing.T) {
	cfg := NewConfig()
	cfg.SetAllWarnings(true)
	for wt := Warning(0); wt < WarnCount; wt++ {
		if !cfg.IsWarningEnabled(wt) {
			t.Errorf("%s still disabled", cfg.Warnings[wt].Name)
		}
	}
	cfg.SetAllWarnings(false)
	for wt := Warning(0); wt < WarnCount; wt++ {
		if cfg.IsWarningEnabled(wt) {
			t.Errorf("%s still enabled", cfg.Warnings[wt].Name)
		}
	}
}
