package testutils

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
)

type TestHelper struct {
	T      *testing.T
	Logger *logrus.Logger
	LogBuf *bytes.Buffer
}

// NewTestHelper creates a test helper whose logger writes into LogBuf instead of stderr.
func NewTestHelper(t *testing.T) *TestHelper {
	buf := &bytes.Buffer{}
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel) // enable debug logs to track execution flow
	logger.SetOutput(buf)
	return &TestHelper{
		T:      t,
		Logger: logger,
		LogBuf: buf,
	}
}

// CreateMockPeripheralDevice starts an empty peripheral profile
func CreateMockPeripheralDevice() *PeripheralDeviceBuilder {
	return NewPeripheralDeviceBuilder()
}

// CreateMockPeripheralDeviceFromJSON starts a peripheral profile from JSON
func CreateMockPeripheralDeviceFromJSON(jsonStrFmt string, args ...interface{}) *PeripheralDeviceBuilder {
	return NewPeripheralDeviceBuilder().FromJSON(jsonStrFmt, args...)
}
