package config

import (
	"fmt"
	"io"
	"os"

	"github.com/xplshn/kite/pkg/cli"
)

type Feature int

const (
	FeatLineComments Feature = iota
	FeatBlockComments
	FeatCompoundAssign
	FeatObjectLiterals
	FeatTypeof
	FeatCount
)

type Warning int

const (
	WarnLoopControl Warning = iota
	WarnReturnOutsideFn
	WarnAssignTarget
	WarnDuplicateKey
	WarnDuplicateParam
	WarnRedeclared
	WarnImplicitDecl
	WarnUnreachableCode
	WarnLogicalAssign
	WarnCount
)

type Info struct {
	Name        string
	Enabled     bool
	Description string
}

type Config struct {
	Features   map[Feature]Info
	Warnings   map[Warning]Info
	FeatureMap map[string]Feature
	WarningMap map[string]Warning
	StdName    string
	// Output receives warnings; nil means os.Stderr
	Output io.Writer
}

func NewConfig() *Config {
	cfg := &Config{
		FeatureMap: make(map[string]Feature),
		WarningMap: make(map[string]Warning),
		StdName:    "kite",
		Output:     os.Stderr,
	}

	features := map[Feature]Info{
		FeatLineComments:   {"line-comments", true, "Recognize '//' line comments."},
		FeatBlockComments:  {"block-comments", true, "Recognize '/* */' block comments."},
		FeatCompoundAssign: {"compound-assign", true, "Allow compound assignment operators like '+=' and '&&='."},
		FeatObjectLiterals: {"object-literals", true, "Allow '{ key: value }' object literals in expressions."},
		FeatTypeof:         {"typeof", true, "Allow the 'typeof' prefix operator."},
	}

	warnings := map[Warning]Info{
		WarnLoopControl:     {"loop-control", true, "Warn on 'break' or 'continue' outside of a loop."},
		WarnReturnOutsideFn: {"return-outside-fn", true, "Warn on 'return' outside of a function body."},
		WarnAssignTarget:    {"assign-target", true, "Warn when assigning to something that is not a name or member."},
		WarnDuplicateKey:    {"duplicate-key", true, "Warn when an object literal repeats a key."},
		WarnDuplicateParam:  {"duplicate-param", true, "Warn when a function repeats a parameter name."},
		WarnRedeclared:      {"redeclared", true, "Warn when a name is declared twice in the same scope."},
		WarnImplicitDecl:    {"implicit-decl", false, "Warn on use of names that are never declared."},
		WarnUnreachableCode: {"unreachable-code", true, "Warn about code that will never be executed."},
		WarnLogicalAssign:   {"logical-assign", false, "Warn when '&&=' or '||=' references a complex target twice."},
	}

	cfg.Features, cfg.Warnings = features, warnings
	for ft, info := range features {
		cfg.FeatureMap[info.Name] = ft
	}
	for wt, info := range warnings {
		cfg.WarningMap[info.Name] = wt
	}
	return cfg
}

func (c *Config) SetFeature(ft Feature, enabled bool) {
	if info, ok := c.Features[ft]; ok {
		info.Enabled = enabled
		c.Features[ft] = info
	}
}

func (c *Config) IsFeatureEnabled(ft Feature) bool { return c.Features[ft].Enabled }

func (c *Config) SetWarning(wt Warning, enabled bool) {
	if info, ok := c.Warnings[wt]; ok {
		info.Enabled = enabled
		c.Warnings[wt] = info
	}
}

func (c *Config) IsWarningEnabled(wt Warning) bool { return c.Warnings[wt].Enabled }

func (c *Config) SetAllWarnings(enabled bool) {
	for i := Warning(0); i < WarnCount; i++ {
		c.SetWarning(i, enabled)
	}
}

// ApplyStd selects a language level: "kite" is the full language, "core" drops the
// sugar (compound assignment, object literals), "strict" is "kite" with every warning
func (c *Config) ApplyStd(stdName string) error {
	switch stdName {
	case "kite", "strict":
		for i := Feature(0); i < FeatCount; i++ {
			c.SetFeature(i, true)
		}
		if stdName == "strict" {
			c.SetAllWarnings(true)
		}
	case "core":
		for i := Feature(0); i < FeatCount; i++ {
			c.SetFeature(i, true)
		}
		c.SetFeature(FeatCompoundAssign, false)
		c.SetFeature(FeatObjectLiterals, false)
	default:
		return fmt.Errorf("unsupported standard '%s'. Supported: 'kite', 'core', 'strict'", stdName)
	}
	c.StdName = stdName
	return nil
}

// SetupFlagGroups registers -W<name>/-Wno-<name> and -F<name>/-Fno-<name> on fs.
// The returned slices are indexed by Warning and Feature respectively.
func (c *Config) SetupFlagGroups(fs *cli.FlagSet) ([]cli.FlagGroupEntry, []cli.FlagGroupEntry) {
	warningFlags := make([]cli.FlagGroupEntry, WarnCount)
	for i := Warning(0); i < WarnCount; i++ {
		info := c.Warnings[i]
		enabled, disabled := false, false
		warningFlags[i] = cli.FlagGroupEntry{
			Name: info.Name, Prefix: "W", Usage: info.Description,
			Enabled: &enabled, Disabled: &disabled, Default: info.Enabled,
		}
	}
	featureFlags := make([]cli.FlagGroupEntry, FeatCount)
	for i := Feature(0); i < FeatCount; i++ {
		info := c.Features[i]
		enabled, disabled := false, false
		featureFlags[i] = cli.FlagGroupEntry{
			Name: info.Name, Prefix: "F", Usage: info.Description,
			Enabled: &enabled, Disabled: &disabled, Default: info.Enabled,
		}
	}
	fs.AddFlagGroup("Warning Flags", "Enable or disable specific warnings", "warning", "Available Warnings:", warningFlags)
	fs.AddFlagGroup("Feature Flags", "Enable or disable specific language features", "feature", "Available Features:", featureFlags)
	return warningFlags, featureFlags
}

// ApplyFlagGroups applies the group entries filled in by the command line
func (c *Config) ApplyFlagGroups(warningFlags, featureFlags []cli.FlagGroupEntry) {
	for i, entry := range warningFlags {
		if entry.Enabled != nil && *entry.Enabled {
			c.SetWarning(Warning(i), true)
		}
		if entry.Disabled != nil && *entry.Disabled {
			c.SetWarning(Warning(i), false)
		}
	}
	for i, entry := range featureFlags {
		if entry.Enabled != nil && *entry.Enabled {
			c.SetFeature(Feature(i), true)
		}
		if entry.Disabled != nil && *entry.Disabled {
			c.SetFeature(Feature(i), false)
		}
	}
}
