package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
)

// DefaultFileName is the manifest file looked up next to the launcher
// when no explicit manifest path is given.
const DefaultFileName = "opstem.json"

// Manifest describes how to launch the scheduler backend. It is read
// from an opstem.json file shipped alongside the application:
//
//	{
//	  "backend": {
//	    "command": "python3",
//	    "args": ["main.py"],
//	    "dir": "backend",
//	    "env": {"OPSTEM_PORT": "8000"}
//	  }
//	}
type Manifest struct {
	Command string
	Args    []string
	Dir     string
	Env     []string
}

// Load reads and parses a manifest file. Relative paths inside the
// manifest resolve against the manifest's own directory.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve manifest path %s: %w", path, err)
	}

	m, err := Parse(data, filepath.Dir(absPath))
	if err != nil {
		return nil, fmt.Errorf("invalid manifest %s: %w", path, err)
	}
	return m, nil
}

// Parse parses manifest JSON. baseDir anchors relative paths: the
// backend working directory, and the command itself when it is a
// relative path rather than a bare name looked up on PATH.
func Parse(data []byte, baseDir string) (*Manifest, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("not valid JSON")
	}

	backend := gjson.ParseBytes(data).Get("backend")
	if !backend.Exists() {
		return nil, fmt.Errorf("missing backend section")
	}

	command := backend.Get("command").String()
	if command == "" {
		return nil, fmt.Errorf("missing backend.command")
	}
	if isRelativePath(command) {
		command = filepath.Join(baseDir, command)
	}

	m := &Manifest{Command: command, Dir: baseDir}

	backend.Get("args").ForEach(func(_, value gjson.Result) bool {
		m.Args = append(m.Args, value.String())
		return true
	})

	if dir := backend.Get("dir").String(); dir != "" {
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(baseDir, dir)
		}
		m.Dir = dir
	}

	backend.Get("env").ForEach(func(key, value gjson.Result) bool {
		m.Env = append(m.Env, fmt.Sprintf("%s=%s", key.String(), value.String()))
		return true
	})

	return m, nil
}

// isRelativePath reports whether command is a filesystem path relative
// to the manifest, as opposed to a bare executable name resolved on
// PATH or an absolute path
func isRelativePath(command string) bool {
	if filepath.IsAbs(command) {
		return false
	}
	return strings.ContainsRune(command, os.PathSeparator) || strings.ContainsRune(command, '/')
}
