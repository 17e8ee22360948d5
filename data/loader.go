package data

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fastmcp4j/mcp-test-harness/framework/suite"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

//go:embed data-files
var dataFilesRoot embed.FS

const (
	dataBasePath = "data-files"
	suitesPath   = "suites"
)

// SourceInfo represents JSON or YAML data that was read from a file, after post-processing to expand
// constants and parameters. For a file without parameters you get one SourceInfo; for a
// parameterized file there is one per parameter set, each with its own version of Data.
type SourceInfo struct {
	FilePath string
	BaseName string
	Params   map[string]ldvalue.Value
	Data     []byte
}

func (s SourceInfo) ParseInto(target interface{}) error {
	if err := ParseJSONOrYAML(s.Data, target); err != nil {
		return fmt.Errorf("error parsing %q %s: %w", s.BaseName, s.ParamsString(), err)
	}
	return nil
}

// ParamsString describes the parameter set, with names in sorted order.
func (s SourceInfo) ParamsString() string {
	if len(s.Params) == 0 {
		return ""
	}
	names := make([]string, 0, len(s.Params))
	for k := range s.Params {
		names = append(names, k)
	}
	sort.Strings(names)
	ps := make([]string, 0, len(names))
	for _, k := range names {
		ps = append(ps, k+"="+s.Params[k].String())
	}
	return "(" + strings.Join(ps, ",") + ")"
}

// LoadDataFile reads an embedded data file and performs any constant/parameter substitutions.
//
// The path parameter is relative to data/data-files.
func LoadDataFile(path string) ([]SourceInfo, error) {
	data, err := dataFilesRoot.ReadFile(dataBasePath + "/" + path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", path, err)
	}
	return expandSource(path, data)
}

// LoadExternalFile is LoadDataFile for a file on disk.
func LoadExternalFile(path string) ([]SourceInfo, error) {
	data, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", path, err)
	}
	return expandSource(path, data)
}

func expandSource(path string, data []byte) ([]SourceInfo, error) {
	sources, err := expandSubstitutions(data)
	if err != nil {
		return nil, fmt.Errorf("error reading %q: %s", path, err)
	}
	ret := make([]SourceInfo, 0, len(sources))
	for _, source := range sources {
		source.FilePath = path
		source.BaseName = filepath.Base(path)
		ret = append(ret, source)
	}
	return ret, nil
}

// EmbeddedSuiteNames lists the suites built into the binary, such as "smoke".
func EmbeddedSuiteNames() ([]string, error) {
	files, err := dataFilesRoot.ReadDir(dataBasePath + "/" + suitesPath)
	if err != nil {
		return nil, err
	}
	var ret []string
	for _, file := range files {
		name := file.Name()
		ret = append(ret, strings.TrimSuffix(name, filepath.Ext(name)))
	}
	return ret, nil
}

// LoadEmbeddedSuite reads the named built-in suite.
func LoadEmbeddedSuite(name string) ([]suite.TestCase, error) {
	files, err := dataFilesRoot.ReadDir(dataBasePath + "/" + suitesPath)
	if err != nil {
		return nil, err
	}
	for _, file := range files {
		if strings.TrimSuffix(file.Name(), filepath.Ext(file.Name())) == name {
			sources, err := LoadDataFile(suitesPath + "/" + file.Name())
			if err != nil {
				return nil, err
			}
			return casesFromSources(sources)
		}
	}
	return nil, fmt.Errorf("no built-in suite named %q", name)
}

// LoadSuiteFile reads test cases from a suite file on disk.
func LoadSuiteFile(path string) ([]suite.TestCase, error) {
	sources, err := LoadExternalFile(path)
	if err != nil {
		return nil, err
	}
	return casesFromSources(sources)
}

func casesFromSources(sources []SourceInfo) ([]suite.TestCase, error) {
	var ret []suite.TestCase
	for _, source := range sources {
		var f SuiteFile
		if err := source.ParseInto(&f); err != nil {
			return nil, err
		}
		if f.Name == "" {
			f.Name = strings.TrimSuffix(source.BaseName, filepath.Ext(source.BaseName))
		}
		cases, err := f.TestCases()
		if err != nil {
			return nil, fmt.Errorf("error in %q %s: %w", source.BaseName, source.ParamsString(), err)
		}
		ret = append(ret, cases...)
	}
	return ret, nil
}
