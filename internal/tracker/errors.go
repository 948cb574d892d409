package tracker

import "errors"

var (
	ErrUnknownWell     = errors.New("unknown well")
	ErrUnknownProcess  = errors.New("unknown process")
	ErrUnknownWorkflow = errors.New("unknown workflow")
)
