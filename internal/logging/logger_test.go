package logging

import (
	"bytes"
	"errors"
	"testing"

	"github.com/fadedpez/blackjack/internal/types"
	"github.com/stretchr/testify/suite"
)

type LoggerTestSuite struct {
	suite.Suite
	buf *bytes.Buffer
}

func TestLoggerSuite(t *testing.T) {
	suite.Run(t, new(LoggerTestSuite))
}

func (s *LoggerTestSuite) SetupTest() {
	s.buf = &bytes.Buffer{}
}

func (s *LoggerTestSuite) TestLevelFiltering() {
	logger := NewLoggerWithWriter(s.buf, WARN)

	logger.Debug("debug %d", 1)
	logger.Info("info %d", 2)
	s.Empty(s.buf.String(), "Messages below WARN should be dropped")

	logger.Warn("shoe at %d%%", 20)
	s.Contains(s.buf.String(), "shoe at 20%")

	logger.Error("boom")
	s.Contains(s.buf.String(), "boom")
}

func (s *LoggerTestSuite) TestWithAddsFields() {
	logger := NewLoggerWithWriter(s.buf, DEBUG).With("round", "r-1")

	logger.Info("dealing")

	s.Contains(s.buf.String(), "dealing")
	s.Contains(s.buf.String(), "round=r-1")
}

func (s *LoggerTestSuite) TestLogErrorGameError() {
	logger := NewLoggerWithWriter(s.buf, INFO)

	logger.LogError(types.WrapError(types.ErrDatabaseError, "saving bankroll", errors.New("locked")))

	out := s.buf.String()
	s.Contains(out, "saving bankroll")
	s.Contains(out, "DATABASE_ERROR")
	s.Contains(out, "locked")
}

func (s *LoggerTestSuite) TestLogErrorPlainError() {
	logger := NewLoggerWithWriter(s.buf, INFO)

	logger.LogError(errors.New("plain failure"))
	logger.LogError(nil)

	s.Contains(s.buf.String(), "Unexpected error: plain failure")
}

func (s *LoggerTestSuite) TestParseLevel() {
	testCases := []struct {
		input    string
		expected Level
		wantErr  bool
	}{
		{input: "debug", expected: DEBUG},
		{input: "INFO", expected: INFO},
		{input: " warn ", expected: WARN},
		{input: "Error", expected: ERROR},
		{input: "verbose", expected: INFO, wantErr: true},
	}

	for _, tc := range testCases {
		s.Run(tc.input, func() {
			level, err := ParseLevel(tc.input)
			if tc.wantErr {
				s.Error(err)
				return
			}
			s.NoError(err)
			s.Equal(tc.expected, level)
		})
	}
}

func (s *LoggerTestSuite) TestNopDiscards() {
	logger := Nop()
	logger.Info("nothing")
	s.Equal(ERROR, logger.Level())
}
