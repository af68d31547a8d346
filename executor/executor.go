package executor

type Executor interface {
	Name() string
	Start() error
	Stop() error
}
