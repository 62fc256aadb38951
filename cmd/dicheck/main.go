// cmd/dicheck/main.go
package main

// dicheck verifies a container wiring plan described by a JSON manifest.
//
// Key behaviors:
//   - builds the root registry and one child registry per manifest scope
//   - evaluates every check (resolution, gjson path, expected value, absence)
//   - writes a JSON report atomically and logs a per-check trail
//   - exit code 0 on success, 1 on check failures, 2 on usage/config errors

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"

	"github.com/pegasusheavy/dependency-injector/di"
	"github.com/pegasusheavy/dependency-injector/dijson"
	"github.com/pegasusheavy/dependency-injector/dilog"
)

// rootScope labels results for checks that run against the root registry.
const rootScope = "root"

// settings carries the environment-driven knobs. Flags win over these.
type settings struct {
	Report string `envconfig:"DICHECK_REPORT" default:"dicheck-report.json"`
}

// manifest is the on-disk wiring plan.
type manifest struct {
	Services map[string]json.RawMessage `json:"services"`
	Scopes   []scopeDef                 `json:"scopes"`
	Checks   []check                    `json:"checks"`
}

// scopeDef opens a child registry with its own services and checks.
type scopeDef struct {
	Name     string                     `json:"name"`
	Services map[string]json.RawMessage `json:"services"`
	Checks   []check                    `json:"checks"`
}

// check is a single assertion against one registry.
//
// With only Service set it asserts the name resolves. Path narrows the
// assertion to a gjson path inside the document, Equals compares the value
// at that path, and Absent inverts the whole check.
type check struct {
	Service string  `json:"service"`
	Path    string  `json:"path,omitempty"`
	Equals  *string `json:"equals,omitempty"`
	Absent  bool    `json:"absent,omitempty"`
}

// checkResult is one evaluated check in the report.
type checkResult struct {
	Scope   string `json:"scope"`
	Service string `json:"service"`
	Path    string `json:"path,omitempty"`
	Status  string `json:"status"`
	Detail  string `json:"detail,omitempty"`
}

// report is the JSON document written after a run.
type report struct {
	RunID       string        `json:"run_id"`
	Manifest    string        `json:"manifest"`
	GeneratedAt time.Time     `json:"generated_at"`
	Duration    string        `json:"duration"`
	Services    int           `json:"services"`
	Scopes      int           `json:"scopes"`
	Passed      int           `json:"passed"`
	Failed      int           `json:"failed"`
	Results     []checkResult `json:"results"`
}

const (
	statusPass = "pass"
	statusFail = "fail"
)

func run(args []string, stderr io.Writer) int {
	flags := flag.NewFlagSet("dicheck", flag.ContinueOnError)
	flags.SetOutput(stderr)
	manifestPath := flags.String("manifest", "", "path to the wiring manifest (JSON)")
	reportPath := flags.String("report", "", "report destination (default $DICHECK_REPORT or dicheck-report.json)")
	envFile := flags.String("env-file", "", "env file to load before reading the environment")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	if strings.TrimSpace(*manifestPath) == "" {
		fmt.Fprintln(stderr, "usage: dicheck -manifest <wiring.json> [-report <report.json>] [-env-file <.env>]")
		return 2
	}

	if *envFile != "" {
		if err := godotenv.Load(*envFile); err != nil {
			fmt.Fprintf(stderr, "dicheck: loading %s: %v\n", *envFile, err)
			return 2
		}
	} else {
		_ = godotenv.Load()
	}

	var env settings
	if err := envconfig.Process("", &env); err != nil {
		fmt.Fprintf(stderr, "dicheck: reading environment: %v\n", err)
		return 2
	}
	if strings.TrimSpace(*reportPath) == "" {
		*reportPath = env.Report
	}

	builder, err := dilog.FromEnv()
	if err != nil {
		fmt.Fprintf(stderr, "dicheck: %v\n", err)
		return 2
	}
	logger := builder.Output(stderr).Install()
	defer di.SetLogger(nil)

	raw, err := os.ReadFile(*manifestPath)
	if err != nil {
		fmt.Fprintf(stderr, "dicheck: reading manifest: %v\n", err)
		return 2
	}
	var plan manifest
	if err := json.Unmarshal(raw, &plan); err != nil {
		fmt.Fprintf(stderr, "dicheck: parsing manifest: %v\n", err)
		return 2
	}
	if err := validateManifest(&plan); err != nil {
		fmt.Fprintf(stderr, "dicheck: invalid manifest: %v\n", err)
		return 2
	}

	runID := uuid.NewString()
	started := time.Now()
	logger.WithFields(logrus.Fields{
		"run_id":   runID,
		"manifest": *manifestPath,
	}).Info("manifest check starting")

	rep, err := checkManifest(&plan, runID, logger)
	if err != nil {
		fmt.Fprintf(stderr, "dicheck: building registries: %v\n", err)
		return 2
	}
	rep.Manifest = *manifestPath
	rep.Duration = time.Since(started).String()

	out, err := json.MarshalIndent(rep, "", "  ")
	must(err)
	must(writeFileAtomic(*reportPath, append(out, '\n'), 0o644))

	logger.WithFields(logrus.Fields{
		"run_id": runID,
		"passed": rep.Passed,
		"failed": rep.Failed,
		"report": *reportPath,
	}).Info("manifest check finished")

	if rep.Failed > 0 {
		return 1
	}
	return 0
}

// validateManifest rejects plans the builder or checker could not act on.
func validateManifest(plan *manifest) error {
	if err := validateServices(rootScope, plan.Services); err != nil {
		return err
	}
	if err := validateChecks(rootScope, plan.Checks); err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(plan.Scopes))
	for i, sc := range plan.Scopes {
		name := strings.TrimSpace(sc.Name)
		if name == "" {
			return fmt.Errorf("scope %d has no name", i)
		}
		if name == rootScope {
			return fmt.Errorf("scope %d: %q is reserved", i, rootScope)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("duplicate scope %q", name)
		}
		seen[name] = struct{}{}
		if err := validateServices(name, sc.Services); err != nil {
			return err
		}
		if err := validateChecks(name, sc.Checks); err != nil {
			return err
		}
	}
	return nil
}

func validateServices(scope string, services map[string]json.RawMessage) error {
	for name := range services {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("scope %q has a service with an empty name", scope)
		}
	}
	return nil
}

func validateChecks(scope string, checks []check) error {
	for i, ck := range checks {
		if strings.TrimSpace(ck.Service) == "" {
			return fmt.Errorf("scope %q check %d has no service", scope, i)
		}
		if ck.Equals != nil && ck.Path == "" {
			return fmt.Errorf("scope %q check %d: equals requires a path", scope, i)
		}
		if ck.Absent && (ck.Path != "" || ck.Equals != nil) {
			return fmt.Errorf("scope %q check %d: absent excludes path and equals", scope, i)
		}
	}
	return nil
}

// checkManifest builds the registry tree and evaluates every check.
func checkManifest(plan *manifest, runID string, logger *logrus.Logger) (*report, error) {
	root := dijson.New()
	if err := registerAll(root, rootScope, plan.Services); err != nil {
		return nil, err
	}

	children := make([]*dijson.Registry, len(plan.Scopes))
	for i, sc := range plan.Scopes {
		child := root.Scope()
		if err := registerAll(child, sc.Name, sc.Services); err != nil {
			return nil, err
		}
		children[i] = child
	}
	root.Lock()

	rep := &report{
		RunID:       runID,
		GeneratedAt: time.Now().UTC(),
		Services:    len(plan.Services),
		Scopes:      len(plan.Scopes),
		Results:     make([]checkResult, 0, len(plan.Checks)),
	}
	for _, ck := range plan.Checks {
		rep.record(evaluateCheck(root, rootScope, ck, logger))
	}
	for i, sc := range plan.Scopes {
		for _, ck := range sc.Checks {
			rep.record(evaluateCheck(children[i], sc.Name, ck, logger))
		}
	}
	return rep, nil
}

// registerAll registers the scope's documents in name order so runs are
// reproducible regardless of map iteration.
func registerAll(reg *dijson.Registry, scope string, services map[string]json.RawMessage) error {
	names := make([]string, 0, len(services))
	for name := range services {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := reg.Register(name, services[name]); err != nil {
			return fmt.Errorf("scope %q service %q: %w", scope, name, err)
		}
	}
	return nil
}

// evaluateCheck runs one check against one registry.
func evaluateCheck(reg *dijson.Registry, scope string, ck check, logger *logrus.Logger) checkResult {
	res := checkResult{Scope: scope, Service: ck.Service, Path: ck.Path, Status: statusPass}

	switch {
	case ck.Absent:
		if reg.Contains(ck.Service) {
			res.Status = statusFail
			res.Detail = "service resolves but was expected absent"
		}
	case ck.Path == "":
		if _, err := reg.Resolve(ck.Service); err != nil {
			res.Status = statusFail
			res.Detail = err.Error()
		}
	default:
		value, err := reg.Lookup(ck.Service, ck.Path)
		switch {
		case err != nil:
			res.Status = statusFail
			res.Detail = err.Error()
		case !value.Exists():
			res.Status = statusFail
			res.Detail = fmt.Sprintf("path %q not found", ck.Path)
		case ck.Equals != nil && value.String() != *ck.Equals:
			res.Status = statusFail
			res.Detail = fmt.Sprintf("expected %q at %q, got %q", *ck.Equals, ck.Path, value.String())
		}
	}

	fields := logrus.Fields{"scope": scope, "service": ck.Service}
	if ck.Path != "" {
		fields["path"] = ck.Path
	}
	if res.Status == statusFail {
		logger.WithFields(fields).WithField("detail", res.Detail).Warn("check failed")
	} else {
		logger.WithFields(fields).Debug("check passed")
	}
	return res
}

func (r *report) record(res checkResult) {
	r.Results = append(r.Results, res)
	if res.Status == statusFail {
		r.Failed++
	} else {
		r.Passed++
	}
}

// tempFile is the subset of *os.File the atomic writer needs.
type tempFile interface {
	Name() string
	Write(p []byte) (int, error)
	Close() error
}

// Seams for error-path tests.
var (
	createTempFile = func(dir, pattern string) (tempFile, error) { return os.CreateTemp(dir, pattern) }
	chmodFile      = os.Chmod
	renameFile     = os.Rename
	removeFile     = os.Remove
)

// writeFileAtomic writes data to a temp file in the target directory and
// renames it into place, so readers of path never see a partial report.
func writeFileAtomic(path string, data []byte, perm os.FileMode) (err error) {
	tmp, err := createTempFile(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = removeFile(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing %s: %w", tmpName, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", tmpName, err)
	}
	if err = chmodFile(tmpName, perm); err != nil {
		return fmt.Errorf("chmod %s: %w", tmpName, err)
	}
	if err = renameFile(tmpName, path); err != nil {
		return fmt.Errorf("renaming %s to %s: %w", tmpName, path, err)
	}
	return nil
}

// must panics on unexpected internal errors. Expected failure modes are
// reported through exit codes instead.
func must(err error) {
	if err != nil {
		panic(err)
	}
}

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}
