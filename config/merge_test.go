package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/rs/zerolog"

	"clash-bot/pixel"
)

func baseTree() Tree {
	return Tree{
		"General": map[string]any{
			"name":     "base",
			"LogLevel": "info",
		},
		"HomeBaseCoordinates": map[string]any{
			"drop":   []any{int64(10), int64(20)},
			"region": []any{int64(1), int64(2), int64(3), int64(4)},
		},
		"Colors": map[string]any{
			"white": []any{int64(254), int64(254), int64(254)},
		},
	}
}

func TestMergeRightBiased(t *testing.T) {
	base := baseTree()
	override := Tree{
		"General": map[string]any{"name": "profile"},
		"HomeBaseCoordinates": map[string]any{
			"drop": []any{int64(99)},
		},
		"Extra": int64(5),
	}

	got := Merge(base, override)

	if v := got.Section("General")["name"]; v != "profile" {
		t.Errorf("name = %v, want override", v)
	}
	if v := got.Section("General")["LogLevel"]; v != "info" {
		t.Errorf("LogLevel = %v, want base value kept", v)
	}
	// lists are replaced wholesale, not spliced
	if v := got.Section("HomeBaseCoordinates")["drop"]; !reflect.DeepEqual(v, []any{int64(99)}) {
		t.Errorf("drop = %v, want [99]", v)
	}
	if v := got.Section("HomeBaseCoordinates")["region"]; !reflect.DeepEqual(v, base.Section("HomeBaseCoordinates")["region"]) {
		t.Errorf("region = %v, want base value", v)
	}
	if got["Extra"] != int64(5) {
		t.Errorf("Extra = %v", got["Extra"])
	}
}

func TestMergeEmptyOverride(t *testing.T) {
	base := baseTree()
	if got := Merge(base, Tree{}); !reflect.DeepEqual(got, base) {
		t.Errorf("Merge(base, {}) = %v, want base", got)
	}
	if got := Merge(base, nil); !reflect.DeepEqual(got, base) {
		t.Errorf("Merge(base, nil) = %v, want base", got)
	}
}

func TestMergeDoesNotMutate(t *testing.T) {
	base := baseTree()
	override := Tree{"General": map[string]any{"name": "profile"}}
	got := Merge(base, override)

	got.Section("General")["name"] = "changed"
	if base.Section("General")["name"] != "base" {
		t.Error("Merge result shares maps with base")
	}
	if override.Section("General")["name"] != "profile" {
		t.Error("Merge result shares maps with override")
	}
}

func TestMergeMappingReplacesScalar(t *testing.T) {
	got := Merge(Tree{"k": int64(1)}, Tree{"k": map[string]any{"a": int64(2)}})
	if _, ok := got["k"].(map[string]any); !ok {
		t.Errorf("k = %v, want mapping from override", got["k"])
	}
}

func TestUsesPercentages(t *testing.T) {
	tests := []struct {
		name string
		tree Tree
		want bool
	}{
		{
			name: "fractional attack",
			tree: Tree{"HomeBaseAttacks": map[string]any{"a": []any{[]any{0.2, 0.9}}}},
			want: true,
		},
		{
			name: "integer pixels",
			tree: Tree{"HomeBaseAttacks": map[string]any{"a": []any{[]any{int64(0), int64(1)}, []any{int64(300), int64(950)}}}},
			want: false,
		},
		{
			name: "fraction outside spatial sections",
			tree: Tree{"HomeBaseGeneral": map[string]any{"ratio": 0.6}},
			want: false,
		},
		{
			name: "zero float is not a fraction",
			tree: Tree{"BuilderBaseDynamicClickPositions": map[string]any{"a": []any{0.0, 2.5}}},
			want: false,
		},
		{
			name: "one is a fraction",
			tree: Tree{"BuilderBaseAttacks": map[string]any{"a": []any{1.0, 900.0}}},
			want: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UsesPercentages(tt.tree, PercentageSections); got != tt.want {
				t.Errorf("UsesPercentages() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLayerScalesPercentageProfile(t *testing.T) {
	res := Resolution{Width: 1000, Height: 1000}
	base := Tree{"HomeBaseAttacks": map[string]any{"keep": []any{int64(1), int64(2)}}}
	profile := Tree{"HomeBaseAttacks": map[string]any{"army": []any{[]any{0.5, 0.25}}}}

	got := Layer(base, profile, res, zerolog.Nop())
	attacks := got.Section("HomeBaseAttacks")
	if !reflect.DeepEqual(attacks["army"], []any{[]any{int64(500), int64(250)}}) {
		t.Errorf("army = %v", attacks["army"])
	}
	if !reflect.DeepEqual(attacks["keep"], []any{int64(1), int64(2)}) {
		t.Errorf("keep = %v, want base value", attacks["keep"])
	}
}

func TestLayerKeepsAbsoluteProfile(t *testing.T) {
	profile := Tree{"HomeBaseAttacks": map[string]any{"army": []any{[]any{int64(1), int64(950)}}}}
	got := Layer(Tree{}, profile, Resolution{Width: 1000, Height: 1000}, zerolog.Nop())
	if !reflect.DeepEqual(got, profile) {
		t.Errorf("absolute profile changed: %v", got)
	}
}

func TestLoadLayeredTOMLAndYAML(t *testing.T) {
	dir := t.TempDir()
	static := filepath.Join(dir, "static_config.toml")
	writeFile(t, static, `
[General]
LogLevel = "debug"
account_switch_y_offset = 0.1

[HomeBaseStaticClickPositions]
train_army_button = [0.5, 0.5]

[ObjectDetectionRanges]
hero_upgrade_valid_rgb_range = [[10, 20, 30], [40, 50, 60]]
`)
	profile := filepath.Join(dir, "baseconfig_main.yaml")
	writeFile(t, profile, `
General:
  name: main
HomeBaseAttacks:
  army:
    - [[0.25, 0.5]]
    - []
`)

	got, err := LoadLayered(static, profile, Resolution{Width: 1728, Height: 1080}, zerolog.Nop())
	if err != nil {
		t.Fatalf("LoadLayered: %v", err)
	}
	if got.Name != "main" {
		t.Errorf("Name = %q, want main", got.Name)
	}
	tree := got.Tree
	if p := tree.Section("HomeBaseStaticClickPositions").Point("train_army_button", pixel.Point{}); p != pixel.NewPoint(864, 540) {
		t.Errorf("train_army_button = %v", p)
	}
	if v := tree.Section("General").Int("account_switch_y_offset", 0); v != 108 {
		t.Errorf("account_switch_y_offset = %d, want 108", v)
	}
	if v := tree.Section("General").String("LogLevel", ""); v != "debug" {
		t.Errorf("LogLevel = %q", v)
	}
	r, ok := tree.Section("ObjectDetectionRanges").Range("hero_upgrade_valid_rgb_range")
	if !ok || r.Min != pixel.NewColor(10, 20, 30) || r.Max != pixel.NewColor(40, 50, 60) {
		t.Errorf("range = %v, %v", r, ok)
	}
	army := tree.Section("HomeBaseAttacks")["army"].([]any)
	if !reflect.DeepEqual(army[0], []any{[]any{int64(432), int64(540)}}) {
		t.Errorf("army[0] = %v", army[0])
	}
}

func TestLoadProfileCreatesMissingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "baseconfig_new.toml")

	p, err := LoadProfile(Tree{"General": map[string]any{"LogLevel": "info"}}, path, DefaultResolution, zerolog.Nop())
	if err != nil {
		t.Fatalf("LoadProfile: %v", err)
	}
	if p.Name != "baseconfig_new" {
		t.Errorf("Name = %q", p.Name)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("profile file was not created: %v", err)
	}
}

func TestLoadFileMissingStatic(t *testing.T) {
	_, err := LoadStatic(filepath.Join(t.TempDir(), "missing.toml"), DefaultResolution, zerolog.Nop())
	if err == nil {
		t.Fatal("expected an error for a missing static layer")
	}
}

func TestDiscoverProfiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"baseconfig_b.toml", "baseconfig_a.yaml", "baseconfig_template.toml", "static_config.toml", "baseconfig_c.txt"} {
		writeFile(t, filepath.Join(dir, name), "")
	}

	got, err := DiscoverProfiles(dir)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{filepath.Join(dir, "baseconfig_a.yaml"), filepath.Join(dir, "baseconfig_b.toml")}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("DiscoverProfiles = %v, want %v", got, want)
	}
}

type fixedSource struct {
	res Resolution
	ok  bool
}

func (f fixedSource) WindowSize() (Resolution, bool) { return f.res, f.ok }

func TestDetectResolutionFallback(t *testing.T) {
	log := zerolog.Nop()
	if got := DetectResolution(fixedSource{ok: false}, log); got != DefaultResolution {
		t.Errorf("not found = %v", got)
	}
	if got := DetectResolution(fixedSource{res: Resolution{Width: 80, Height: 600}, ok: true}, log); got != DefaultResolution {
		t.Errorf("too small = %v", got)
	}
	want := Resolution{Width: 1920, Height: 1080}
	if got := DetectResolution(fixedSource{res: want, ok: true}, log); got != want {
		t.Errorf("detected = %v", got)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}
