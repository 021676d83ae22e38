package config

import (
	"flag"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/BurntSushi/toml"
)

// isolate points every config location at empty temp directories.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("APPDATA", filepath.Join(home, "AppData"))
	for _, name := range []string{"CONFIG", "DATA_DIR", "TAGS", "TASKS", "SCHEMA", "BUILTINS",
		"LOG_LEVEL", "LOG_FORMAT", "LOG_TIMESTAMPS", "LOG_CALLER"} {
		t.Setenv(envPrefix+name, "")
	}
	wd := t.TempDir()
	chdir(t, wd)
	return home
}

func TestDefaults(t *testing.T) {
	cfg := &Config{}
	setDefaults(cfg)

	if cfg.DataDir != DefaultDataDir {
		t.Errorf("DataDir: got %q, want %q", cfg.DataDir, DefaultDataDir)
	}
	if cfg.TagsFile != DefaultTagsFile {
		t.Errorf("TagsFile: got %q, want %q", cfg.TagsFile, DefaultTagsFile)
	}
	if cfg.TasksFile != DefaultTasksFile {
		t.Errorf("TasksFile: got %q, want %q", cfg.TasksFile, DefaultTasksFile)
	}
	if !cfg.Builtins {
		t.Error("Builtins: got false, want true")
	}
	if cfg.LogLevel != "info" || cfg.LogFormat != "text" {
		t.Errorf("logging: got %q/%q, want info/text", cfg.LogLevel, cfg.LogFormat)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("TAGTREE_TAGS", "custom.xml")
	t.Setenv("TAGTREE_BUILTINS", "no")
	t.Setenv("TAGTREE_LOG_LEVEL", "debug")
	t.Setenv("TAGTREE_LOG_CALLER", "on")

	cfg := &Config{}
	setDefaults(cfg)
	sources := map[string]ConfigSource{}
	loadFromEnv(cfg, sources)

	if cfg.TagsFile != "custom.xml" {
		t.Errorf("TagsFile: got %q, want custom.xml", cfg.TagsFile)
	}
	if cfg.Builtins {
		t.Error("Builtins: got true, want false")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel: got %q, want debug", cfg.LogLevel)
	}
	if !cfg.LogCaller {
		t.Error("LogCaller: got false, want true")
	}
	if sources["tags_file"] != SourceEnv {
		t.Errorf("tags_file source: got %q, want %q", sources["tags_file"], SourceEnv)
	}
	if _, ok := sources["tasks_file"]; ok {
		t.Error("unset variables must not be recorded")
	}
}

func TestLoadConfigFile(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "tagtree.toml")
	content := []byte(`tags_file = "work.xml"
builtins = false
log_format = "json"
`)
	if err := os.WriteFile(configFile, content, 0644); err != nil {
		t.Fatal(err)
	}

	cfg := &Config{}
	setDefaults(cfg)
	sources := map[string]ConfigSource{}
	if err := loadConfigFile(cfg, configFile, sources, SourceUserFile); err != nil {
		t.Fatalf("loadConfigFile: %v", err)
	}

	if cfg.TagsFile != "work.xml" {
		t.Errorf("TagsFile: got %q, want work.xml", cfg.TagsFile)
	}
	if cfg.Builtins {
		t.Error("Builtins: got true, want false")
	}
	if cfg.TasksFile != DefaultTasksFile {
		t.Errorf("TasksFile must keep its default, got %q", cfg.TasksFile)
	}
	if sources["builtins"] != SourceUserFile {
		t.Errorf("builtins source: got %q, want %q", sources["builtins"], SourceUserFile)
	}
	if _, ok := sources["tasks_file"]; ok {
		t.Error("keys absent from the file must not be recorded")
	}
}

func TestLoadConfigFileUnknownKey(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "tagtree.toml")
	if err := os.WriteFile(configFile, []byte("todo_file = \"x\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg := &Config{}
	err := loadConfigFile(cfg, configFile, nil, SourceUserFile)
	if err == nil || !strings.Contains(err.Error(), "todo_file") {
		t.Errorf("got %v, want unknown key error naming todo_file", err)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot get home directory")
	}

	tests := []struct {
		input string
		want  string
	}{
		{"~/test", filepath.Join(home, "test")},
		{"~", home},
		{"/absolute/path", "/absolute/path"},
		{"relative", "relative"},
		{"", ""},
	}
	if runtime.GOOS == "windows" {
		t.Setenv("TAGTREE_TEST_HOME", home)
		tests = append(tests, struct {
			input string
			want  string
		}{`%TAGTREE_TEST_HOME%\tags`, filepath.Join(home, "tags")})
	} else {
		t.Setenv("TAGTREE_TEST_HOME", "/srv/home")
		tests = append(tests,
			struct {
				input string
				want  string
			}{`~\test`, `~\test`},
			struct {
				input string
				want  string
			}{"$TAGTREE_TEST_HOME/tags", "/srv/home/tags"},
		)
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := expandPath(tt.input); got != tt.want {
				t.Errorf("expandPath(%q): got %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseFlags(t *testing.T) {
	cfg := &Config{}
	setDefaults(cfg)
	sources := map[string]ConfigSource{}

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	args := []string{"--tags", "flag.xml", "--builtins=false", "--log-level", "warn", "ls", "-tree"}
	if err := parseFlags(cfg, fs, args, sources); err != nil {
		t.Fatalf("parseFlags: %v", err)
	}

	if cfg.TagsFile != "flag.xml" {
		t.Errorf("TagsFile: got %q, want flag.xml", cfg.TagsFile)
	}
	if cfg.Builtins {
		t.Error("Builtins: got true, want false")
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel: got %q, want warn", cfg.LogLevel)
	}
	if got := fs.Args(); len(got) != 2 || got[0] != "ls" {
		t.Errorf("remaining args: got %v, want [ls -tree]", got)
	}
	if sources["tags_file"] != SourceFlag || sources["log_level"] != SourceFlag {
		t.Errorf("sources: got %v", sources)
	}
	if _, ok := sources["tasks_file"]; ok {
		t.Error("unset flags must not be recorded")
	}
}

func TestBoolFromString(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"1", true},
		{"true", true},
		{"TRUE", true},
		{"yes", true},
		{" on ", true},
		{"0", false},
		{"false", false},
		{"off", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := boolFromString(tt.input); got != tt.want {
				t.Errorf("boolFromString(%q): got %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestLoadWithSources(t *testing.T) {
	home := isolate(t)

	userDir := filepath.Join(home, ".tagtree")
	if err := os.MkdirAll(userDir, 0755); err != nil {
		t.Fatal(err)
	}
	user := "tags_file = \"user.xml\"\ntasks_file = \"user.json\"\nlog_level = \"warn\"\n"
	if err := os.WriteFile(filepath.Join(userDir, "tagtree.toml"), []byte(user), 0644); err != nil {
		t.Fatal(err)
	}
	project := "data_dir = \"data\"\ntasks_file = \"project.json\"\n"
	if err := os.WriteFile(".tagtree.toml", []byte(project), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TAGTREE_LOG_FORMAT", "JSON")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cws, err := LoadWithSources(fs, []string{"-log-level", "error"})
	if err != nil {
		t.Fatalf("LoadWithSources: %v", err)
	}
	cfg := cws.Config

	wd, _ := os.Getwd()
	dataDir := filepath.Join(wd, "data")
	if cfg.DataDir != dataDir {
		t.Errorf("DataDir: got %q, want %q", cfg.DataDir, dataDir)
	}
	if want := filepath.Join(dataDir, "user.xml"); cfg.TagsFile != want {
		t.Errorf("TagsFile: got %q, want %q", cfg.TagsFile, want)
	}
	if want := filepath.Join(dataDir, "project.json"); cfg.TasksFile != want {
		t.Errorf("TasksFile: got %q, want %q", cfg.TasksFile, want)
	}
	if cfg.SchemaFile != "" {
		t.Errorf("SchemaFile: got %q, want empty", cfg.SchemaFile)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat: got %q, want json", cfg.LogFormat)
	}
	if cfg.LogLevel != "error" {
		t.Errorf("LogLevel: got %q, want error", cfg.LogLevel)
	}

	wantSources := map[string]ConfigSource{
		"data_dir":   SourceProjFile,
		"tags_file":  SourceUserFile,
		"tasks_file": SourceProjFile,
		"log_format": SourceEnv,
		"log_level":  SourceFlag,
		"builtins":   SourceDefault,
	}
	for field, want := range wantSources {
		if got := cws.Sources[field]; got != want {
			t.Errorf("source of %s: got %q, want %q", field, got, want)
		}
	}
	if len(cws.Files) != 2 {
		t.Errorf("Files: got %v, want user and project file", cws.Files)
	}
}

func TestLoadDefaultsResolveUnderHome(t *testing.T) {
	home := isolate(t)

	cfg, err := Load(flag.NewFlagSet("test", flag.ContinueOnError), nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	dataDir := filepath.Join(home, ".tagtree")
	if cfg.DataDir != dataDir {
		t.Errorf("DataDir: got %q, want %q", cfg.DataDir, dataDir)
	}
	if want := filepath.Join(dataDir, DefaultTagsFile); cfg.TagsFile != want {
		t.Errorf("TagsFile: got %q, want %q", cfg.TagsFile, want)
	}
}

func TestTagtreeConfigEnv(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "custom.toml")
	if err := os.WriteFile(path, []byte("builtins = false\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TAGTREE_CONFIG", path)

	cws, err := LoadWithSources(flag.NewFlagSet("test", flag.ContinueOnError), nil)
	if err != nil {
		t.Fatalf("LoadWithSources: %v", err)
	}
	if cws.Config.Builtins {
		t.Error("Builtins: got true, want false")
	}
	if cws.Sources["builtins"] != SourceUserFile {
		t.Errorf("builtins source: got %q", cws.Sources["builtins"])
	}
}

func TestValue(t *testing.T) {
	cfg := &Config{}
	setDefaults(cfg)
	for _, field := range Fields() {
		if field == "schema_file" {
			continue
		}
		if cfg.Value(field) == "" {
			t.Errorf("Value(%q) is empty", field)
		}
	}
	if got := cfg.Value("builtins"); got != "true" {
		t.Errorf("Value(builtins): got %q, want true", got)
	}
}

func TestExampleConfigDecodes(t *testing.T) {
	cfg := &Config{}
	md, err := toml.Decode(ExampleConfig(), cfg)
	if err != nil {
		t.Fatalf("decode example: %v", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		t.Errorf("example has unknown keys: %v", undecoded)
	}
	if cfg.TagsFile != DefaultTagsFile || !cfg.Builtins {
		t.Errorf("example does not match defaults: %+v", cfg)
	}
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir from Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PWD", dir)
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatal(err)
		}
	})
}
