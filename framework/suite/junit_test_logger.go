package suite

import (
	"encoding/xml"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fastmcp4j/mcp-test-harness/framework"
	o "github.com/fastmcp4j/mcp-test-harness/framework/opt"
	"github.com/fastmcp4j/mcp-test-harness/framework/report"
	"github.com/fastmcp4j/mcp-test-harness/serviceinfo"
)

// JUnitTestLogger collects results from any number of transport runs and writes them as one
// JUnit XML document, with a test suite for each transport and group.
type JUnitTestLogger struct {
	filePath   string
	filters    RegexFilters
	transport  string
	hostInfo   map[string]serviceinfo.ServerInfo
	transports []string
	testKeys   []jUnitKey // this slice preserves the order that the tests were run in
	tests      map[jUnitKey]jUnitTestStatus
	lock       sync.Mutex
}

type jUnitKey struct {
	transport string
	id        CaseID
}

type jUnitTestStatus struct {
	failures  []error
	skipped   o.Maybe[string]
	output    string
	startTime time.Time
	duration  time.Duration
}

// Struct definitions for the JUnit XML schema - see https://github.com/jstemmer/go-junit-report

type jUnitXMLDocument struct {
	XMLName xml.Name            `xml:"testsuites"`
	Suites  []jUnitXMLTestSuite `xml:"testsuite"`
}

type jUnitXMLTestSuite struct {
	XMLName    xml.Name           `xml:"testsuite"`
	Tests      int                `xml:"tests,attr"`
	Failures   int                `xml:"failures,attr"`
	Skipped    int                `xml:"skipped,attr"`
	Time       string             `xml:"time,attr"`
	Name       string             `xml:"name,attr"`
	Properties []jUnitXMLProperty `xml:"properties>property,omitempty"`
	TestCases  []jUnitXMLTestCase `xml:"testcase"`
}

type jUnitXMLTestCase struct {
	XMLName     xml.Name             `xml:"testcase"`
	Classname   string               `xml:"classname,attr"`
	Name        string               `xml:"name,attr"`
	Time        string               `xml:"time,attr"`
	SkipMessage *jUnitXMLSkipMessage `xml:"skipped,omitempty"`
	Failure     *jUnitXMLFailure     `xml:"failure,omitempty"`
}

type jUnitXMLSkipMessage struct {
	Message string `xml:"message,attr"`
}

type jUnitXMLProperty struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

type jUnitXMLFailure struct {
	Message  string `xml:"message,attr"`
	Type     string `xml:"type,attr"`
	Contents string `xml:",chardata"`
}

func NewJUnitTestLogger(filePath string, filters RegexFilters) *JUnitTestLogger {
	return &JUnitTestLogger{
		filePath: filePath,
		filters:  filters,
		hostInfo: make(map[string]serviceinfo.ServerInfo),
		tests:    make(map[jUnitKey]jUnitTestStatus),
	}
}

// BeginTransport attributes the following events to a transport run.
func (j *JUnitTestLogger) BeginTransport(transport string, info serviceinfo.ServerInfo) {
	j.lock.Lock()
	defer j.lock.Unlock()
	j.transport = transport
	j.hostInfo[transport] = info
	for _, t := range j.transports {
		if t == transport {
			return
		}
	}
	j.transports = append(j.transports, transport)
}

func (j *JUnitTestLogger) key(id CaseID) jUnitKey {
	return jUnitKey{transport: j.transport, id: id}
}

func (j *JUnitTestLogger) TestStarted(id CaseID) {
	j.lock.Lock()
	defer j.lock.Unlock()
	k := j.key(id)
	j.testKeys = append(j.testKeys, k)
	j.tests[k] = jUnitTestStatus{startTime: time.Now()}
}

func (j *JUnitTestLogger) TestError(id CaseID, err error) {
	j.lock.Lock()
	defer j.lock.Unlock()
	k := j.key(id)
	status := j.tests[k]
	status.failures = append(status.failures, err)
	j.tests[k] = status
}

func (j *JUnitTestLogger) TestFinished(id CaseID, result report.TestResult, debugOutput framework.CapturedOutput) {
	j.lock.Lock()
	defer j.lock.Unlock()
	k := j.key(id)
	status := j.tests[k]
	if !result.Passed() && len(status.failures) == 0 {
		status.failures = append(status.failures, fmt.Errorf("%s", result.Error()))
	}
	status.output = debugOutput.ToString("")
	status.duration = time.Since(status.startTime)
	j.tests[k] = status
}

func (j *JUnitTestLogger) TestSkipped(id CaseID, reason string) {
	j.lock.Lock()
	defer j.lock.Unlock()
	k := j.key(id)
	status := j.tests[k]
	status.skipped = o.Some(reason)
	j.tests[k] = status
}

// EndLog writes the XML file.
func (j *JUnitTestLogger) EndLog() error {
	j.lock.Lock()
	defer j.lock.Unlock()

	fmt.Printf("Writing JUnit data to %s\n", j.filePath)
	data, err := j.render()
	if err != nil {
		return err
	}
	return os.WriteFile(j.filePath, data, 0644) //nolint:gosec
}

func (j *JUnitTestLogger) render() ([]byte, error) {
	var doc jUnitXMLDocument
	for _, transport := range j.transports {
		properties := []jUnitXMLProperty{
			{Name: "tests.host.info", Value: string(j.hostInfo[transport].FullData)},
			{Name: "tests.transport", Value: transport},
			{Name: "tests.filter.mustMatch", Value: j.filters.MustMatch.String()},
			{Name: "tests.filter.mustNotMatch", Value: j.filters.MustNotMatch.String()},
		}
		for _, group := range j.groupsFor(transport) {
			suite := jUnitXMLTestSuite{
				Name:       fmt.Sprintf("tool host tests: %s/%s", transport, group),
				Properties: properties,
			}
			suiteTotalDuration := time.Duration(0)
			for _, k := range j.testKeys {
				if k.transport != transport || k.id.Group != group {
					continue
				}
				status := j.tests[k]
				suite.Tests++
				suiteTotalDuration += status.duration

				testCase := jUnitXMLTestCase{
					Classname: transport + "." + group,
					Name:      k.id.String(),
					Time:      jUnitDurationString(status.duration),
				}
				if status.skipped.IsDefined() {
					suite.Skipped++
					testCase.SkipMessage = &jUnitXMLSkipMessage{Message: status.skipped.Value()}
				}
				if len(status.failures) != 0 {
					suite.Failures++
					messages := make([]string, 0, len(status.failures))
					for _, e := range status.failures {
						messages = append(messages, e.Error())
					}
					testCase.Failure = &jUnitXMLFailure{
						Message:  strings.Join(messages, "\n"),
						Contents: status.output,
					}
				}
				suite.TestCases = append(suite.TestCases, testCase)
			}
			suite.Time = jUnitDurationString(suiteTotalDuration)
			doc.Suites = append(doc.Suites, suite)
		}
	}

	bytes, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(bytes, '\n'), nil
}

func (j *JUnitTestLogger) groupsFor(transport string) []string {
	var ret []string
	seen := make(map[string]bool)
	for _, k := range j.testKeys {
		if k.transport == transport && !seen[k.id.Group] {
			ret = append(ret, k.id.Group)
			seen[k.id.Group] = true
		}
	}
	return ret
}

func jUnitDurationString(d time.Duration) string {
	return fmt.Sprintf("%.3f", d.Seconds())
}
