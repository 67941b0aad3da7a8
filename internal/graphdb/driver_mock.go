package graphdb

import (
	"context"
	"sync"
)

// MapRecord is a Record backed by a map.
type MapRecord map[string]any

func (r MapRecord) Get(key string) (any, bool) {
	v, ok := r[key]
	return v, ok
}

// Statement is a statement received by a MockDriver.
type Statement struct {
	Query  string
	Params map[string]any
}

// RunFunc answers a statement for a MockDriver.
type RunFunc func(ctx context.Context, query string, params map[string]any) ([]Record, error)

// MockDriver implements Driver in memory. It records every statement and
// counts opened and closed sessions.
type MockDriver struct {
	mu         sync.Mutex
	run        RunFunc
	opened     int
	closed     int
	closeErr   error
	statements []Statement
}

var _ Driver = (*MockDriver)(nil)

// NewMockDriver returns a MockDriver answering statements with run. A nil
// run returns no records.
func NewMockDriver(run RunFunc) *MockDriver {
	if run == nil {
		run = func(context.Context, string, map[string]any) ([]Record, error) { return nil, nil }
	}
	return &MockDriver{run: run}
}

// NewRecordsDriver returns a MockDriver answering every statement with records.
func NewRecordsDriver(records ...Record) *MockDriver {
	return NewMockDriver(func(context.Context, string, map[string]any) ([]Record, error) {
		return records, nil
	})
}

func (d *MockDriver) NewSession(ctx context.Context) Session {
	d.mu.Lock()
	d.opened++
	d.mu.Unlock()
	return &mockSession{driver: d}
}

// Opened returns the number of sessions handed out.
func (d *MockDriver) Opened() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.opened
}

// Closed returns the number of sessions closed.
func (d *MockDriver) Closed() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// FailClose makes every later session Close return err.
func (d *MockDriver) FailClose(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closeErr = err
}

// Statements returns the statements run so far, in order.
func (d *MockDriver) Statements() []Statement {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Statement(nil), d.statements...)
}

type mockSession struct {
	driver *MockDriver
	once   sync.Once
}

func (s *mockSession) ExecuteWrite(ctx context.Context, work func(Tx) (any, error)) (any, error) {
	return work(mockTx{driver: s.driver})
}

func (s *mockSession) Close(context.Context) error {
	var err error
	s.once.Do(func() {
		s.driver.mu.Lock()
		s.driver.closed++
		err = s.driver.closeErr
		s.driver.mu.Unlock()
	})
	return err
}

type mockTx struct {
	driver *MockDriver
}

func (t mockTx) Run(ctx context.Context, query string, params map[string]any) ([]Record, error) {
	t.driver.mu.Lock()
	t.driver.statements = append(t.driver.statements, Statement{Query: query, Params: params})
	t.driver.mu.Unlock()
	return t.driver.run(ctx, query, params)
}
