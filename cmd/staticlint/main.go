// Command staticlint bundles the analyzers cineshelf is checked with: a set
// of go vet passes, third-party analyzers, the project's storagekeys analyzer
// and the staticcheck analyzers named in config.json.
//
// config.json is looked up next to the binary. Without it only the default
// staticcheck set is enabled.
//
//	go build -o bin/staticlint ./cmd/staticlint
//	bin/staticlint ./...
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gordonklaus/ineffassign/pkg/ineffassign"
	"github.com/gostaticanalysis/nilerr"
	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/multichecker"
	"golang.org/x/tools/go/analysis/passes/copylock"
	"golang.org/x/tools/go/analysis/passes/errorsas"
	"golang.org/x/tools/go/analysis/passes/httpresponse"
	"golang.org/x/tools/go/analysis/passes/loopclosure"
	"golang.org/x/tools/go/analysis/passes/lostcancel"
	"golang.org/x/tools/go/analysis/passes/nilness"
	"golang.org/x/tools/go/analysis/passes/printf"
	"golang.org/x/tools/go/analysis/passes/structtag"
	"golang.org/x/tools/go/analysis/passes/unmarshal"
	"golang.org/x/tools/go/analysis/passes/unreachable"
	"honnef.co/go/tools/staticcheck"

	"github.com/patric-chuzhbe/cineshelf/cmd/staticlint/storagekeys"
)

// Config is the name of the JSON configuration file that lists enabled staticcheck analyzers.
const Config = `config.json`

// ConfigData describes the structure of the configuration file.
// Staticcheck holds analyzer names such as "SA1000" or "SA4010".
type ConfigData struct {
	Staticcheck []string
}

var defaultStaticcheck = []string{"SA1019", "SA4006", "SA5011"}

func loadConfig() (ConfigData, error) {
	cfg := ConfigData{Staticcheck: defaultStaticcheck}

	executable, err := os.Executable()
	if err != nil {
		return cfg, err
	}
	data, err := os.ReadFile(filepath.Join(filepath.Dir(executable), Config))
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", Config, err)
	}

	return cfg, nil
}

func analyzers(cfg ConfigData) []*analysis.Analyzer {
	checks := []*analysis.Analyzer{
		copylock.Analyzer,
		errorsas.Analyzer,
		httpresponse.Analyzer,
		loopclosure.Analyzer,
		lostcancel.Analyzer,
		nilness.Analyzer,
		printf.Analyzer,
		structtag.Analyzer,
		unmarshal.Analyzer,
		unreachable.Analyzer,

		ineffassign.Analyzer,
		nilerr.Analyzer,

		storagekeys.Analyzer,
	}

	enabled := make(map[string]bool, len(cfg.Staticcheck))
	for _, name := range cfg.Staticcheck {
		enabled[name] = true
	}
	for _, v := range staticcheck.Analyzers {
		if enabled[v.Analyzer.Name] {
			checks = append(checks, v.Analyzer)
		}
	}

	return checks
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		panic(err)
	}

	multichecker.Main(analyzers(cfg)...)
}
