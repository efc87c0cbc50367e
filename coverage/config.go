package coverage

// config.go contains the run configuration and its resolution into
// concrete file paths.

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/shlex"
	"github.com/perfgo/coverpipe/cli/ncover"
)

var (
	// ErrInvalidConfig is returned when a RunConfig fails validation.
	ErrInvalidConfig = errors.New("invalid coverage configuration")
	// ErrToolNotFound is returned when an NCover executable is missing
	// from the configured tool location.
	ErrToolNotFound = errors.New("ncover executable not found")
)

// RunConfig describes a single coverage run. It is not modified once a run
// starts.
type RunConfig struct {
	Target     string         `validate:"required"`
	Arguments  string         // Target arguments, split using shell word rules
	DataFile   string         // Optional; relative paths resolve against the job's target dir
	ReportType string         `validate:"required,reporttype"`
	OutputName string         // Optional label override
	Filters    ncover.Filters `validate:"-"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("reporttype", func(fl validator.FieldLevel) bool {
		_, ok := ncover.LookupReportType(fl.Field().String())
		return ok
	})
	return v
}

// Validate checks required fields and that the report type is known.
func (c RunConfig) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", strings.ToLower(fe.Field())))
		case "reporttype":
			msgs = append(msgs, fmt.Sprintf("unknown report type %q", fe.Value()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag()))
		}
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, ", "))
}

// TargetArgs splits Arguments into individual arguments.
func (c RunConfig) TargetArgs() ([]string, error) {
	if strings.TrimSpace(c.Arguments) == "" {
		return nil, nil
	}
	args, err := shlex.Split(c.Arguments)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse arguments: %v", ErrInvalidConfig, err)
	}
	return args, nil
}

// ResolvedRun is a RunConfig with its coverage data file resolved.
type ResolvedRun struct {
	RunConfig
	DataFilePath string
	// OwnsDataFile is set when the data file was allocated for this run and
	// must be removed once the run ends.
	OwnsDataFile bool
}

// Resolve allocates a temporary data file when none is configured. A
// configured data file is resolved against targetDir and left in place after
// the run. tempDir is the directory temporary files are created in; empty
// means the system default.
func Resolve(cfg RunConfig, targetDir, tempDir string) (ResolvedRun, error) {
	if cfg.DataFile != "" {
		path := cfg.DataFile
		if !filepath.IsAbs(path) {
			path = filepath.Join(targetDir, path)
		}
		return ResolvedRun{RunConfig: cfg, DataFilePath: path}, nil
	}

	f, err := os.CreateTemp(tempDir, "ncover-*.coverage")
	if err != nil {
		return ResolvedRun{}, fmt.Errorf("failed to create temporary data file: %w", err)
	}
	path := f.Name()
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return ResolvedRun{}, fmt.Errorf("failed to close temporary data file: %w", err)
	}

	return ResolvedRun{RunConfig: cfg, DataFilePath: path, OwnsDataFile: true}, nil
}
