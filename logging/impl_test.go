package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"go.viam.com/test"
)

type BasicStruct struct {
	X int
	y string
}

// assertLogMatches will fuzzy match log lines. Notably, this checks the time format, but ignores
// the exact time. And it expects a match on the filename, but the exact line number can be wrong.
func assertLogMatches(t *testing.T, actual *bytes.Buffer, expected string) {
	t.Helper()

	output, err := actual.ReadString('\n')
	test.That(t, err, test.ShouldBeNil)

	actualTrimmed := strings.TrimSuffix(output, "\n")
	actualParts := strings.Split(actualTrimmed, "\t")
	expectedParts := strings.Split(expected, "\t")
	// Use the length of the first string as a weak verification of checking that the result looks like a date.
	test.That(t, len(actualParts[0]), test.ShouldEqual, len(expectedParts[0]))
	// Log level.
	test.That(t, actualParts[1], test.ShouldEqual, expectedParts[1])

	// Filename:line_number.
	actualFilename, actualLineNumber, found := strings.Cut(actualParts[2], ":")
	test.That(t, found, test.ShouldBeTrue)
	expectedFilename, _, found := strings.Cut(expectedParts[2], ":")
	test.That(t, found, test.ShouldBeTrue)
	test.That(t, actualFilename, test.ShouldEqual, expectedFilename)
	_, err = strconv.Atoi(actualLineNumber)
	test.That(t, err, test.ShouldBeNil)

	// Log message.
	test.That(t, actualParts[3], test.ShouldEqual, expectedParts[3])

	test.That(t, len(actualParts), test.ShouldEqual, len(expectedParts))
	if len(actualParts) == 4 {
		return
	}

	// Parse structured fields into maps to avoid depending on map ordering.
	expectedMap := make(map[string]any)
	err = json.Unmarshal([]byte(expectedParts[4]), &expectedMap)
	test.That(t, err, test.ShouldBeNil)

	actualMap := make(map[string]any)
	err = json.Unmarshal([]byte(actualParts[4]), &actualMap)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, actualMap, test.ShouldResemble, expectedMap)
}

func TestConsoleOutputFormat(t *testing.T) {
	notStdout := &bytes.Buffer{}
	logger := &impl{"", NewAtomicLevelAt(DEBUG), false, []Appender{NewWriterAppender(notStdout)}}

	logger.Info("impl Info log")
	assertLogMatches(t, notStdout,
		`2023-10-30T09:12:09.459-0400	INFO	logging/impl_test.go:67	impl Info log`)

	logger.Infof("impl %s log", "infof")
	assertLogMatches(t, notStdout,
		`2023-10-30T09:45:20.764-0400	INFO	logging/impl_test.go:131	impl infof log`)

	logger.Warnw("impl logw", "key", "value")
	assertLogMatches(t, notStdout,
		`2023-10-30T13:19:45.806-0400	WARN	logging/impl_test.go:132	impl logw	{"key":"value"}`)

	// Unexported struct fields are not serialized.
	logger.Infow("BasicStruct", "implOneKey", "1val", "BasicStruct", BasicStruct{1, "alice"})
	assertLogMatches(t, notStdout,
		`2023-10-30T13:20:47.129-0400	INFO	logging/impl_test.go:125	BasicStruct	{"BasicStruct":{"X":1},"implOneKey":"1val"}`)
}

func TestLevelFiltering(t *testing.T) {
	notStdout := &bytes.Buffer{}
	logger := &impl{"", NewAtomicLevelAt(WARN), false, []Appender{NewWriterAppender(notStdout)}}

	logger.Debug("dropped")
	logger.Info("dropped")
	test.That(t, notStdout.Len(), test.ShouldEqual, 0)

	logger.Error("kept")
	test.That(t, notStdout.String(), test.ShouldContainSubstring, "kept")

	logger.SetLevel(DEBUG)
	test.That(t, logger.GetLevel(), test.ShouldEqual, DEBUG)
	logger.Debugf("now %s", "kept")
	test.That(t, notStdout.String(), test.ShouldContainSubstring, "now kept")
}

func TestSubloggerAndDesugar(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)
	sub := logger.Sublogger("loco").Sublogger("outer")

	sub.Infow("iteration", "cost", 1.5)
	test.That(t, logs.FilterMessage("iteration").Len(), test.ShouldEqual, 1)
	test.That(t, logs.FilterMessage("iteration").All()[0].LoggerName, test.ShouldEqual, "loco.outer")

	logger.Desugar().Sugar().Warnw("from zap", "key", "value")
	entries := logs.FilterMessage("from zap").All()
	test.That(t, entries, test.ShouldHaveLength, 1)
	test.That(t, entries[0].ContextMap()["key"], test.ShouldEqual, "value")
}

func TestUnpairedKey(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)
	logger.Infow("odd fields", "kept", 1, "lonely")

	entries := logs.FilterMessage("odd fields").All()
	test.That(t, entries, test.ShouldHaveLength, 1)
	fields := entries[0].ContextMap()
	test.That(t, fields["kept"], test.ShouldEqual, int64(1))
	test.That(t, fields["lonely"], test.ShouldEqual, "unpaired log key")
	test.That(t, entries[0].Caller.File, test.ShouldEndWith, "logging/impl_test.go")
}

func TestLevelFromString(t *testing.T) {
	for _, tc := range []struct {
		input string
		level Level
	}{
		{"debug", DEBUG},
		{"INFO", INFO},
		{"Warn", WARN},
		{"warning", WARN},
		{"error", ERROR},
	} {
		level, err := LevelFromString(tc.input)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, level, test.ShouldEqual, tc.level)
	}

	_, err := LevelFromString("loud")
	test.That(t, err, test.ShouldNotBeNil)

	var level Level
	test.That(t, json.Unmarshal([]byte(`"warn"`), &level), test.ShouldBeNil)
	test.That(t, level, test.ShouldEqual, WARN)
	out, err := json.Marshal(ERROR)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(out), test.ShouldEqual, `"error"`)
}

func TestFileAppender(t *testing.T) {
	path := filepath.Join(t.TempDir(), "smoother.log")
	appender := NewFileAppender(path, 1, 1)
	logger := NewBlankLogger("file")
	logger.AddAppender(appender)

	logger.Infow("segment times", "count", 3)
	test.That(t, logger.Sync(), test.ShouldBeNil)
	test.That(t, appender.Close(), test.ShouldBeNil)

	contents, err := os.ReadFile(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(contents), test.ShouldContainSubstring, "segment times")
	test.That(t, string(contents), test.ShouldContainSubstring, `{"count":3}`)
}
