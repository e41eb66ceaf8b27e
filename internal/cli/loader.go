package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"cuelang.org/go/cue/token"

	"github.com/u-ask/uask-dom-sub000/internal/compiler"
	"github.com/u-ask/uask-dom-sub000/internal/rule"
)

// LoadMode controls how validation errors are reported.
type LoadMode int

const (
	// LoadModeFailFast keeps only the first validation error.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll keeps every validation error.
	LoadModeCollectAll
)

// LoadResult is a survey directory after loading.
type LoadResult struct {
	Definition *compiler.Definition
	Survey     *compiler.Survey // nil when validation failed
	Warnings   []compiler.CycleWarning
	FileCount  int
}

// LoadError is a loading or parse error with a stable code.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error codes shared by every command. Validation codes (E2xx) come
// from the compiler package.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE evaluation failed
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeInput       = "E008" // Participant or flag input rejected

	ErrCodeItems     = "E101" // items block malformed
	ErrCodePageSets  = "E102" // pageSets block malformed
	ErrCodeRules     = "E103" // rules block malformed
	ErrCodeWorkflows = "E104" // workflows block malformed
)

// LoadSurvey loads, parses and validates the CUE survey in dir, then
// builds it when validation passes.
//
// A nil result means the directory itself could not be read. Returned
// errors are *LoadError or compiler.ValidationError values.
func LoadSurvey(dir string, lib *rule.Library, mode LoadMode) (*LoadResult, []error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("survey directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing survey directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	files, err := compiler.FindCUEFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(files) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}}
	}

	value, count, err := compiler.LoadDir(dir)
	if err != nil {
		return nil, []error{convertCompileError(err, ErrCodeLoadFailed)}
	}
	result := &LoadResult{FileCount: count}

	def, err := compiler.Parse(value)
	if err != nil {
		return result, []error{convertCompileError(err, ErrCodeGeneric)}
	}
	result.Definition = def

	if verrs := compiler.Validate(def, lib); len(verrs) > 0 {
		if mode == LoadModeFailFast {
			verrs = verrs[:1]
		}
		errs := make([]error, len(verrs))
		for i, v := range verrs {
			errs[i] = v
		}
		return result, errs
	}

	s, err := compiler.Build(def, lib)
	if err != nil {
		return result, []error{convertCompileError(err, ErrCodeGeneric)}
	}
	result.Survey = s
	result.Warnings = compiler.AnalyzeCycles(s.Rules)
	return result, nil
}

// convertCompileError keeps the position of a compiler error; fallback
// codes errors that carry no field.
func convertCompileError(err error, fallback string) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    MapFieldToErrorCode(compileErr.Field),
			Message: compileErr.Message,
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{Code: fallback, Message: err.Error()}
}

// MapFieldToErrorCode maps a compiler error field to the code of its
// top-level block.
func MapFieldToErrorCode(field string) string {
	block, _, _ := strings.Cut(field, ".")
	if i := strings.IndexByte(block, '['); i >= 0 {
		block = block[:i]
	}
	switch block {
	case "items":
		return ErrCodeItems
	case "pageSets":
		return ErrCodePageSets
	case "rules":
		return ErrCodeRules
	case "workflows":
		return ErrCodeWorkflows
	case "cue":
		return ErrCodeBuildFailed
	default:
		return ErrCodeGeneric
	}
}

// describeError returns the code and message of a LoadSurvey error.
func describeError(err error) (string, string) {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code, loadErr.Message
	}
	var verr compiler.ValidationError
	if errors.As(err, &verr) {
		return verr.Code, fmt.Sprintf("%s: %s", verr.Field, verr.Message)
	}
	return ErrCodeGeneric, err.Error()
}

// loadCompiled loads dir fail-fast and returns the built survey. Errors
// are reported through the formatter and returned as ExitCommandError.
func loadCompiled(f *OutputFormatter, dir string) (*compiler.Survey, error) {
	result, errs := LoadSurvey(dir, rule.NewLibrary(), LoadModeFailFast)
	if len(errs) > 0 {
		code, msg := describeError(errs[0])
		return nil, commandError(f, code, msg)
	}
	f.VerboseLog("Loaded %d CUE file(s) from %s", result.FileCount, dir)
	return result.Survey, nil
}
