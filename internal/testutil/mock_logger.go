// Package testutil provides test helpers shared by the service packages:
// a recording logger and CoNLL-U treebank fixtures.
package testutil

import (
	"sync"

	"github.com/altheahfy/Rephrase-Project02-sub007/internal/infrastructure/monitoring/logging"
)

// MockLogger implements logging.Logger and records every entry.  Children
// created by With and Named share the parent's record.
type MockLogger struct {
	store  *logStore
	name   string
	fields []logging.Field
}

type logStore struct {
	mu       sync.Mutex
	messages []LogMessage
}

// LogMessage is one captured entry.
type LogMessage struct {
	Level   string
	Logger  string
	Message string
	Fields  []logging.Field
}

// Field returns the value of the named field and whether it was present.
func (m LogMessage) Field(key string) (interface{}, bool) {
	for _, f := range m.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// NewMockLogger creates a new MockLogger instance.
func NewMockLogger() *MockLogger {
	return &MockLogger{store: &logStore{}}
}

func (m *MockLogger) log(level, msg string, fields []logging.Field) {
	all := make([]logging.Field, 0, len(m.fields)+len(fields))
	all = append(all, m.fields...)
	all = append(all, fields...)

	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	m.store.messages = append(m.store.messages, LogMessage{Level: level, Logger: m.name, Message: msg, Fields: all})
}

func (m *MockLogger) Debug(msg string, fields ...logging.Field) { m.log("debug", msg, fields) }
func (m *MockLogger) Info(msg string, fields ...logging.Field)  { m.log("info", msg, fields) }
func (m *MockLogger) Warn(msg string, fields ...logging.Field)  { m.log("warn", msg, fields) }
func (m *MockLogger) Error(msg string, fields ...logging.Field) { m.log("error", msg, fields) }

// Fatal records the entry without exiting.
func (m *MockLogger) Fatal(msg string, fields ...logging.Field) { m.log("fatal", msg, fields) }

func (m *MockLogger) With(fields ...logging.Field) logging.Logger {
	child := &MockLogger{store: m.store, name: m.name}
	child.fields = append(append(child.fields, m.fields...), fields...)
	return child
}

func (m *MockLogger) Named(name string) logging.Logger {
	child := &MockLogger{store: m.store, name: name, fields: m.fields}
	if m.name != "" {
		child.name = m.name + "." + name
	}
	return child
}

// GetMessages returns a copy of all logged messages.
func (m *MockLogger) GetMessages() []LogMessage {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	result := make([]LogMessage, len(m.store.messages))
	copy(result, m.store.messages)
	return result
}

// Clear removes all logged messages.
func (m *MockLogger) Clear() {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	m.store.messages = m.store.messages[:0]
}

// HasMessage checks if a message with the given level and content was logged.
func (m *MockLogger) HasMessage(level, msg string) bool {
	_, ok := m.Find(level, msg)
	return ok
}

// Find returns the first entry with the given level and message.
func (m *MockLogger) Find(level, msg string) (LogMessage, bool) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	for _, logged := range m.store.messages {
		if logged.Level == level && logged.Message == msg {
			return logged, true
		}
	}
	return LogMessage{}, false
}

//Personal.AI order the ending
