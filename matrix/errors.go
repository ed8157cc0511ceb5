// SPDX-License-Identifier: EPL-2.0

package matrix

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownPort        = errors.New("unknown port")
	ErrUnknownNode        = errors.New("unknown gain node")
	ErrDuplicatePort      = errors.New("port name already registered")
	ErrInvalidName        = errors.New("port name must not be empty")
	ErrWrongDirection     = errors.New("port has the wrong direction")
	ErrPortInUse          = errors.New("port is still referenced by gain nodes")
	ErrBufferNotRefreshed = errors.New("buffer accessed outside of its block")
	ErrUsageUnderflow     = errors.New("usage count released below zero")
	ErrNodeReleased       = errors.New("gain node released twice")
	ErrBackend            = errors.New("audio backend failure")
	ErrClosed             = errors.New("graph is closed")
)

// ContractError is the panic value used for programming errors that must
// never be handled as ordinary failures.
type ContractError struct {
	Op  string
	Err error
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("matrix: contract violation in %s: %v", e.Op, e.Err)
}

func (e *ContractError) Unwrap() error { return e.Err }

func violate(op string, err error) {
	panic(&ContractError{Op: op, Err: err})
}
