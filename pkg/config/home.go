package config

import (
	"os"
	"path/filepath"
	"sync"
)

// EnvHome overrides where ecp-runner keeps its logs and screenshots.
const EnvHome = "ECP_RUNNER_HOME"

const (
	logsDirName        = "logs"
	screenshotsDirName = "screenshots"
	logFileName        = "ecp-runner.log"
)

var (
	homeOnce sync.Once
	homeDir  string

	// executable is swapped in tests to exercise installed layouts.
	executable = os.Executable
)

// homeResolvers are tried in order; the first hit is the runner home.
var homeResolvers = []func() (string, bool){
	homeFromEnv,
	homeFromInstall,
	homeFromWorkingDir,
}

// GetHome returns the directory device artifacts are written under. It is
// resolved once per process: $ECP_RUNNER_HOME, then the install prefix when
// the binary sits in <prefix>/bin, then the working directory.
func GetHome() string {
	homeOnce.Do(func() {
		homeDir = "."
		for _, resolve := range homeResolvers {
			if dir, ok := resolve(); ok {
				homeDir = dir
				return
			}
		}
	})
	return homeDir
}

// GetLogsDir returns the directory the session log lives in.
func GetLogsDir() string {
	return filepath.Join(GetHome(), logsDirName)
}

// GetLogPath returns the file every command appends its device traffic log to.
func GetLogPath() string {
	return filepath.Join(GetLogsDir(), logFileName)
}

// GetScreenshotsDir returns where `screenshot` saves captures without -o.
func GetScreenshotsDir() string {
	return filepath.Join(GetHome(), screenshotsDirName)
}

// ResetHome forgets the resolved home so the next GetHome resolves again.
func ResetHome() {
	homeOnce = sync.Once{}
	homeDir = ""
}

func homeFromEnv() (string, bool) {
	dir := os.Getenv(EnvHome)
	return dir, dir != ""
}

func homeFromInstall() (string, bool) {
	path, err := executable()
	if err != nil {
		return "", false
	}
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		path = resolved
	}
	bin := filepath.Dir(path)
	if filepath.Base(bin) != "bin" {
		return "", false
	}
	return filepath.Dir(bin), true
}

func homeFromWorkingDir() (string, bool) {
	dir, err := os.Getwd()
	return dir, err == nil
}
